package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cinematch/internal/logging"
	"cinematch/internal/preflight"
	"cinematch/internal/webui"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recommendation web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx, bind)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default from config paths.api_bind)")
	return cmd
}

func runServe(cmdCtx context.Context, ctx *commandContext, bindOverride string) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	for _, result := range preflight.RunAll(signalCtx, cfg) {
		switch {
		case result.Passed:
			logger.Debug("preflight check passed", logging.String("check", result.Name), logging.String("detail", result.Detail))
		case result.Optional:
			logging.WarnWithContext(logger, "preflight check failed", "preflight_optional_failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.String(logging.FieldErrorHint, "run `cinematch config validate` for details"),
				logging.String(logging.FieldImpact, "posters fall back to the placeholder"),
			)
		default:
			logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.String(logging.FieldErrorHint, "run `cinematch config validate` for details"),
			)
			return fmt.Errorf("preflight: %s: %s", result.Name, result.Detail)
		}
	}

	rec, err := ctx.newRecommender(signalCtx, 0)
	if err != nil {
		return err
	}
	resolver, err := ctx.newResolver()
	if err != nil {
		return err
	}

	bind := strings.TrimSpace(bindOverride)
	if bind == "" {
		bind = cfg.Paths.APIBind
	}
	server, err := webui.New(rec, resolver, webui.Options{
		Bind:        bind,
		LockDir:     cfg.Paths.LogDir,
		Placeholder: resolver.Placeholder(),
		RateLimit:   cfg.Paths.APIRateLimit,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	if err := server.Run(signalCtx); err != nil {
		return err
	}
	return nil
}
