package config_test

import (
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/confsync/config"
)

func TestHolder_Get(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if len(got.Auth.Actors) != 1 {
		t.Errorf("len(Auth.Actors) = %d, want 1", len(got.Auth.Actors))
	}
	if !filepath.IsAbs(h.Path()) {
		t.Errorf("Path() = %s, want absolute", h.Path())
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte(twoActorConfig()), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	cfg := h.Get()
	if len(cfg.Auth.Actors) != 2 {
		t.Errorf("reloaded actor count = %d, want 2", len(cfg.Auth.Actors))
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("reloaded Logging.Level = %s, want debug", cfg.Logging.Level)
	}
}

func TestHolder_OnChange(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var receivedCfg *config.Config
	var outcomes []error

	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		receivedCfg = cfg
		mu.Unlock()
	})
	h.OnReload(func(err error) {
		mu.Lock()
		outcomes = append(outcomes, err)
		mu.Unlock()
	})

	if err := os.WriteFile(path, []byte(twoActorConfig()), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if receivedCfg == nil {
		t.Fatal("OnChange callback was not called")
	}
	if len(receivedCfg.Auth.Actors) != 2 {
		t.Errorf("callback received %d actors, want 2", len(receivedCfg.Auth.Actors))
	}
	if len(outcomes) != 1 || outcomes[0] != nil {
		t.Errorf("reload outcomes = %v, want one success", outcomes)
	}
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var failures int
	h.OnReload(func(err error) {
		if err != nil {
			failures++
		}
	})

	invalidContent := `
modules:
  dirs: [modules]
logging:
  level: loud
`
	if err := os.WriteFile(path, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	if err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}

	// Old config should still be valid
	if cfg := h.Get(); cfg.Logging.Level != "info" {
		t.Errorf("should keep old config, got Logging.Level = %s", cfg.Logging.Level)
	}
}

func TestHolder_ReloadRefusesRestartFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port", "modules:\n  dirs: [modules]\nserver:\n  port: 7800\n"},
		{"modules", "modules:\n  dirs: [other]\n"},
		{"audit", "modules:\n  dirs: [modules]\naudit:\n  enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, validConfig())
			h, err := config.NewHolder(path, zerolog.Nop())
			if err != nil {
				t.Fatalf("NewHolder error: %v", err)
			}
			defer h.Stop()

			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if err := h.Reload(); err == nil {
				t.Error("Reload should refuse a restart-only change")
			}
			if cfg := h.Get(); len(cfg.Auth.Actors) != 1 {
				t.Error("refused reload replaced the config")
			}
		})
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	changed := make(chan struct{}, 4)
	h.OnChange(func(cfg *config.Config) {
		changed <- struct{}{}
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	if err := os.WriteFile(path, []byte(twoActorConfig()), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("file watcher did not trigger reload")
	}

	// A write may arrive as several events; wait for the last one.
	deadline := time.Now().Add(2 * time.Second)
	for len(h.Get().Auth.Actors) != 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := len(h.Get().Auth.Actors); got != 2 {
		t.Errorf("after file watch, actor count = %d, want 2", got)
	}
}

func TestHolder_StopTwice(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	h.WatchSignals()
	h.Stop()
	h.Stop()
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get() == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
	}

	wg.Wait()
}

func TestReloadableFields(t *testing.T) {
	reloadable := config.ReloadableFields()
	if !slices.Contains(reloadable, "auth.actors") {
		t.Errorf("auth.actors not in ReloadableFields: %v", reloadable)
	}

	fixed := config.NonReloadableFields()
	for _, e := range []string{"role", "server.port", "modules.dirs"} {
		if !slices.Contains(fixed, e) {
			t.Errorf("%s not in NonReloadableFields", e)
		}
	}
	for _, f := range reloadable {
		if slices.Contains(fixed, f) {
			t.Errorf("%s is both reloadable and not", f)
		}
	}
}

// Helpers

func validConfig() string {
	return `
modules:
  dirs: [modules]

auth:
  actors:
    - name: owner
      token_hash: "` + ownerHash + `"
      level: 2
`
}

func twoActorConfig() string {
	return validConfig() + `    - name: viewer
      token_hash: "` + ownerHash + `"
      level: 1

logging:
  level: debug
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "confsync.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
