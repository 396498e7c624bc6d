package webui

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"cinematch/internal/gallery"
	"cinematch/internal/logging"
	"cinematch/internal/recommend"
)

// LockFileName is created under Options.LockDir while a server runs.
const LockFileName = "cinematch-serve.lock"

const shutdownTimeout = 5 * time.Second

// ErrAlreadyRunning is returned by Listen when another server holds the lock.
var ErrAlreadyRunning = errors.New("another cinematch server is already running")

// Options configures a Server.
type Options struct {
	Bind string
	// LockDir holds the single-instance lock file. Empty skips locking.
	LockDir     string
	Placeholder string
	// RateLimit caps /api requests per client IP per minute; 0 disables it.
	RateLimit int
	Logger    *slog.Logger
}

// Server is the HTTP front end over a Recommender.
type Server struct {
	recommender *recommend.Recommender
	posters     gallery.PosterSource
	placeholder string
	bind        string
	lockDir     string
	rateLimit   int
	logger      *slog.Logger
	page        *template.Template
	handler     http.Handler

	listener net.Listener
	server   *http.Server
	lock     *flock.Flock
}

// New builds a Server. posters may be nil, in which case every card shows
// the placeholder.
func New(rec *recommend.Recommender, posters gallery.PosterSource, opts Options) (*Server, error) {
	if rec == nil {
		return nil, errors.New("webui: recommender is required")
	}
	page, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	s := &Server{
		recommender: rec,
		posters:     posters,
		placeholder: strings.TrimSpace(opts.Placeholder),
		bind:        strings.TrimSpace(opts.Bind),
		lockDir:     strings.TrimSpace(opts.LockDir),
		rateLimit:   opts.RateLimit,
		logger:      logging.NewComponentLogger(opts.Logger, "webui"),
		page:        page,
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound address once Listen has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Listen takes the instance lock and binds the listener.
func (s *Server) Listen() error {
	if s.bind == "" {
		return errors.New("webui: bind address is empty")
	}
	if s.lockDir != "" {
		if err := os.MkdirAll(s.lockDir, 0o755); err != nil {
			return fmt.Errorf("create lock directory: %w", err)
		}
		lock := flock.New(filepath.Join(s.lockDir, LockFileName))
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire server lock: %w", err)
		}
		if !ok {
			return ErrAlreadyRunning
		}
		s.lock = lock
	}

	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		s.releaseLock()
		return fmt.Errorf("listen on %s: %w", s.bind, err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// Serve blocks until ctx is cancelled or the server fails, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.server == nil {
		return errors.New("webui: Serve called before Listen")
	}
	defer s.releaseLock()

	s.logger.Info("web ui listening",
		logging.String("address", s.Addr()),
		logging.Int("movies", s.recommender.Dataset().Len()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.WarnWithContext(s.logger, "web ui shutdown incomplete", "webui_shutdown_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "in-flight requests exceeded the shutdown timeout"),
			logging.String(logging.FieldImpact, "some responses may have been cut off"),
		)
		return nil
	}
	s.logger.Info("web ui stopped")
	return nil
}

// Run is Listen followed by Serve.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) releaseLock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Debug("release server lock", logging.Error(err))
	}
	s.lock = nil
}
