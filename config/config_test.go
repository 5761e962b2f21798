package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Meter.ClockInterval != time.Second || cfg.Meter.BlinkInterval != 500*time.Millisecond {
		t.Errorf("meter intervals = %+v", cfg.Meter)
	}
	if cfg.HTTP.Port != "8080" {
		t.Errorf("port = %q", cfg.HTTP.Port)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("VEHICLE_PLATE", "")
	t.Setenv("METER_BLINK_INTERVAL", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "vehicle:\n  plate: 777KZ02\nmeter:\n  blink_interval: 250ms\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vehicle.Plate != "777KZ02" {
		t.Errorf("plate = %q", cfg.Vehicle.Plate)
	}
	if cfg.Meter.BlinkInterval != 250*time.Millisecond {
		t.Errorf("blink = %v", cfg.Meter.BlinkInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "LOUD" }},
		{"tick too small", func(c *Config) { c.Meter.WaitTickInterval = time.Millisecond }},
		{"queue", func(c *Config) { c.Meter.QueueSize = 0 }},
		{"plate", func(c *Config) { c.Vehicle.Plate = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestPrintConfigMasksSecrets(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	PrintConfig(&buf, cfg)

	out := buf.String()
	if strings.Contains(out, cfg.Auth.JWTSecret) || strings.Contains(out, "DATABASE_PASSWORD="+cfg.Database.Password) {
		t.Errorf("secret leaked:\n%s", out)
	}
	if !strings.Contains(out, "METER_BLINK_INTERVAL=500ms") {
		t.Errorf("missing meter interval:\n%s", out)
	}
}
