package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: /tmp/test.db
entitlement:
  base_days: 12
  monthly_ratio: "1.25"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("db path = %s", cfg.Database.Path)
	}

	ec, err := cfg.AccrualConfig()
	if err != nil {
		t.Fatalf("AccrualConfig failed: %v", err)
	}
	if ec.BaseDays != 12 {
		t.Errorf("base days = %d, want 12", ec.BaseDays)
	}
	if !ec.MonthlyRatio.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("ratio = %s, want 1.25", ec.MonthlyRatio)
	}
	// Untouched fields keep the built-in values.
	if ec.RampYears == 0 || ec.LegalWindowMonths == 0 {
		t.Errorf("defaults lost: %+v", ec)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 3000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Path != "absence.db" {
		t.Errorf("db path = %s, want default absence.db", cfg.Database.Path)
	}
}

func TestLoad_Rejections(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	if _, err := Load(writeConfig(t, "server: [not a map]\n")); err == nil {
		t.Error("expected error for malformed yaml")
	}

	if _, err := Load(writeConfig(t, "server:\n  port: 99999\n")); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestAccrualConfig_BadRatio(t *testing.T) {
	cfg := Default()
	cfg.Entitlement.MonthlyRatio = "one point five"
	if _, err := cfg.AccrualConfig(); err == nil {
		t.Error("expected error for unparseable ratio")
	}
}
