package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinematch/internal/config"
	"cinematch/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	stub       *testsupport.TMDBStub
}

// setupCLITestEnv writes a 12-movie JSON catalog and a config pointing at it
// and at a TMDB stub that knows posters for ids 1000..1011.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("CINEMATCH_CATALOG", "")

	posters := make(map[int64]string, 12)
	for i := range 12 {
		posters[int64(1000+i)] = fmt.Sprintf("/poster-%d.jpg", 1000+i)
	}
	stub := testsupport.NewTMDBStub(t, posters)

	cfg := testsupport.NewConfig(t, testsupport.WithTMDBBaseURL(stub.URL))
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	testsupport.WriteDatasetJSON(t, cfg.Paths.Catalog, testsupport.DecreasingDataset(t, 12))

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, stub: stub}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
catalog = %q
log_dir = %q
api_bind = %q

[tmdb]
api_key = %q
base_url = %q
requests_per_second = 0

[recommend]
duplicate_titles = %q

[logging]
level = "error"
`,
		cfg.Paths.Catalog,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.TMDB.APIKey,
		cfg.TMDB.BaseURL,
		cfg.Recommend.DuplicateTitles,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
