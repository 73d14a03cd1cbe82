package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vrinput.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":8080" || cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Source != SourceSDL || !cfg.Tray || cfg.Console || cfg.Check {
		t.Errorf("defaults = %+v", cfg)
	}
	if len(cfg.Cvars) != 0 {
		t.Errorf("cvars = %v, want empty", cfg.Cvars)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
addr: ":9000"
log-level: debug
log-format: json
console: true
cvars:
  vr_snapturn_angle: 30
  vr_walkdirection: "1"
`)

	tests := []struct {
		name      string
		args      []string
		env       map[string]string
		wantAddr  string
		wantLevel string
	}{
		{"file over default", []string{"--config", path}, nil, ":9000", "debug"},
		{"env over file", []string{"--config", path}, map[string]string{"VRINPUT_LOG_LEVEL": "warn"}, ":9000", "warn"},
		{"flag over env", []string{"--config", path, "--addr", ":7000", "--log-level=error"},
			map[string]string{"VRINPUT_ADDR": ":6000", "VRINPUT_LOG_LEVEL": "warn"}, ":7000", "error"},
		{"config path from env", nil, map[string]string{"VRINPUT_CONFIG": path}, ":9000", "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(tt.args)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Addr != tt.wantAddr {
				t.Errorf("Addr = %q, want %q", cfg.Addr, tt.wantAddr)
			}
			if cfg.LogLevel != tt.wantLevel {
				t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, tt.wantLevel)
			}
			if cfg.LogFormat != "json" || !cfg.Console {
				t.Errorf("file values not applied: %+v", cfg)
			}
			if cfg.Cvars["vr_snapturn_angle"] != "30" || cfg.Cvars["vr_walkdirection"] != "1" {
				t.Errorf("Cvars = %v", cfg.Cvars)
			}
		})
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown source", []string{"--source", "hmd"}, `unknown source "hmd"`},
		{"trace source without file", []string{"--source", "trace"}, "trace file is required"},
		{"check without file", []string{"--check"}, "trace file is required"},
		{"check with loop", []string{"--check", "--loop", "--trace", "a.yaml"}, "cannot be combined"},
		{"missing config file", []string{"--config", filepath.Join(os.TempDir(), "does-not-exist.yaml")}, "read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load(%v) error = %v, want %q", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestLoadTraceSource(t *testing.T) {
	cfg, err := Load([]string{"--source=TRACE", "--trace", "walk.yaml", "--loop", "--tray=false"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != SourceTrace || cfg.Trace != "walk.yaml" || !cfg.Loop || cfg.Tray {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadHelp(t *testing.T) {
	_, err := Load([]string{"--help"})
	if !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("error = %v, want pflag.ErrHelp", err)
	}
}
