package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		prev, had := os.LookupEnv(k)
		_ = os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, prev)
			} else {
				_ = os.Unsetenv(k)
			}
		})
	}
}

func writeDotEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	return path
}

func TestLoadDotEnv_LoadsValuesAndIgnoresNoise(t *testing.T) {
	unset(t, "QC_TEST_A", "QC_TEST_B", "QC_TEST_C")

	path := writeDotEnv(t, `
# comment

QC_TEST_A=one
export QC_TEST_B=two
QC_TEST_C="three"
`)

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}

	if got := os.Getenv("QC_TEST_A"); got != "one" {
		t.Fatalf("QC_TEST_A=%q, want %q", got, "one")
	}
	if got := os.Getenv("QC_TEST_B"); got != "two" {
		t.Fatalf("QC_TEST_B=%q, want %q", got, "two")
	}
	if got := os.Getenv("QC_TEST_C"); got != "three" {
		t.Fatalf("QC_TEST_C=%q, want %q", got, "three")
	}
}

func TestLoadDotEnv_DoesNotOverwriteExistingEnv(t *testing.T) {
	t.Setenv("QC_TEST_KEEP", "already")

	path := writeDotEnv(t, "QC_TEST_KEEP=fromfile\n")
	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}

	if got := os.Getenv("QC_TEST_KEEP"); got != "already" {
		t.Fatalf("QC_TEST_KEEP=%q, want %q", got, "already")
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
}

func TestLoad_ParsesEngineSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEBOUNCE_MS", "50")
	t.Setenv("CPI_RATE", "0.045")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_PATH", "")
	t.Setenv("PORT", "")

	cfg := Load()
	if cfg.Debounce != 50*time.Millisecond {
		t.Fatalf("Debounce=%v, want 50ms", cfg.Debounce)
	}
	if cfg.CPIRate != 0.045 {
		t.Fatalf("CPIRate=%v, want 0.045", cfg.CPIRate)
	}
	if cfg.IsDev() {
		t.Fatalf("IsDev()=true for production")
	}
	if cfg.DBPath != defaultDBPath || cfg.Port != defaultPort {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEBOUNCE_MS", "soon")
	t.Setenv("CPI_RATE", "0.9")
	t.Setenv("APP_ENV", "")

	cfg := Load()
	if cfg.Debounce != defaultDebounce {
		t.Fatalf("Debounce=%v, want %v", cfg.Debounce, defaultDebounce)
	}
	if cfg.CPIRate != defaultCPIRate {
		t.Fatalf("CPIRate=%v, want %v", cfg.CPIRate, defaultCPIRate)
	}
	if !cfg.IsDev() {
		t.Fatalf("IsDev()=false with empty APP_ENV")
	}
}
