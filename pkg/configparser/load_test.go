package configparser

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Service struct {
		Name string `env:"SERVICE_NAME" default:"meter"`
		Port int    `env:"SERVICE_PORT" default:"8080"`
	}
	Meter struct {
		Tick    time.Duration `env:"METER_TICK" default:"1s"`
		Enabled bool          `env:"METER_ENABLED"`
		Ratio   float64       `env:"METER_RATIO" default:"0.5"`
	}
	Tags []string `env:"TAGS"`
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndParseYaml(t *testing.T) {
	t.Setenv("CFG_TEST_PORT", "9090")
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("SERVICE_PORT", "")
	t.Setenv("METER_TICK", "")
	t.Setenv("METER_ENABLED", "")
	t.Setenv("METER_RATIO", "")
	t.Setenv("TAGS", "")

	path := writeFile(t, `
service:
  name: taximeter
  port: ${CFG_TEST_PORT:-8081}
meter:
  tick: 250ms
  enabled: true
  ratio:
tags:
  - a
  - b
`)

	var cfg testConfig
	if err := LoadAndParseYaml(path, &cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.Service.Name != "taximeter" {
		t.Errorf("name = %q", cfg.Service.Name)
	}
	if cfg.Service.Port != 9090 {
		t.Errorf("port = %d, want 9090 from env substitution", cfg.Service.Port)
	}
	if cfg.Meter.Tick != 250*time.Millisecond || !cfg.Meter.Enabled {
		t.Errorf("meter = %+v", cfg.Meter)
	}
	if cfg.Meter.Ratio != 0.5 {
		t.Errorf("ratio = %v, want default 0.5", cfg.Meter.Ratio)
	}
	if len(cfg.Tags) != 2 || cfg.Tags[1] != "b" {
		t.Errorf("tags = %v", cfg.Tags)
	}
}

func TestEnvWinsOverFile(t *testing.T) {
	t.Setenv("SERVICE_NAME", "from-env")
	path := writeFile(t, "service:\n  name: from-file\n")

	if err := LoadYamlFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("SERVICE_NAME"); got != "from-env" {
		t.Errorf("SERVICE_NAME = %q, want from-env", got)
	}
}

func TestParseEnvErrors(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(cfg); err != ErrNotStructPointer {
		t.Errorf("err = %v, want ErrNotStructPointer", err)
	}

	t.Setenv("METER_TICK", "soon")
	if err := ParseEnv(&cfg); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestLoadYamlFileNoPath(t *testing.T) {
	if err := LoadYamlFile(""); err != ErrNoFilePath {
		t.Errorf("err = %v, want ErrNoFilePath", err)
	}
}
