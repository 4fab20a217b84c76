package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Render.Dims != 2 || cfg.Render.Transform != "log10" {
		t.Errorf("missing file should yield defaults, got %+v", cfg.Render)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[render]
dims = 3
threshold = 40
palette = "viridis"
formats = ["svg", "json"]
quality = 75

[cache]
url = "redis://localhost:6379/2"
ttl = "90m"
namespace = "shared:"
prefix = "ci:"

[serve]
addr = ":9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Render.Dims != 3 || cfg.Render.Threshold != 40 || cfg.Render.Palette != "viridis" {
		t.Errorf("render = %+v", cfg.Render)
	}
	if len(cfg.Render.Formats) != 2 || cfg.Render.Formats[0] != "svg" {
		t.Errorf("formats = %v", cfg.Render.Formats)
	}
	// keys not present keep their defaults
	if cfg.Render.Transform != "log10" || cfg.Render.Scale != 2 {
		t.Errorf("unset keys should keep defaults: %+v", cfg.Render)
	}
	if cfg.Render.Quality != 75 {
		t.Errorf("quality = %d, want 75", cfg.Render.Quality)
	}
	if cfg.Cache.TTL != 90*time.Minute {
		t.Errorf("ttl = %v, want 90m", cfg.Cache.TTL)
	}
	if cfg.Cache.Namespace != "shared:" || cfg.Cache.Prefix != "ci:" {
		t.Errorf("namespace/prefix = %q/%q", cfg.Cache.Namespace, cfg.Cache.Prefix)
	}
	if cfg.Serve.Addr != ":9000" {
		t.Errorf("addr = %q", cfg.Serve.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[render\n", "parse"},
		{"unknown key", "[render]\ncolour = \"red\"\n", "unknown keys: render.colour"},
		{"bad dims", "[render]\ndims = 4\n", "render.dims"},
		{"bad threshold", "[render]\nthreshold = 300\n", "render.threshold"},
		{"bad scale", "[render]\nscale = 0\n", "render.scale"},
		{"bad quality", "[render]\nquality = 101\n", "render.quality"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestPathXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	path, err := Path()
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	if want := filepath.Join("/tmp/xdg-config", "binvis", "config.toml"); path != want {
		t.Errorf("Path() = %q, want %q", path, want)
	}
}

func TestPathDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	path, err := Path()
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".config", "binvis", "config.toml")) {
		t.Errorf("Path() = %q", path)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Render.Threshold = 12
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if !strings.Contains(buf.String(), "[render]") {
		t.Errorf("encoded config missing [render] table:\n%s", buf.String())
	}

	got, err := Load(writeConfig(t, buf.String()))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Render.Threshold != 12 || got.Cache.TTL != cfg.Cache.TTL {
		t.Errorf("round trip lost values: %+v", got)
	}
}
