package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "prod" {
		t.Errorf("expected Env=prod, got %q", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel=info, got %q", cfg.LogLevel)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected Workers=8, got %d", cfg.Workers)
	}
	if cfg.AddressStrategy != "cidr" || cfg.AddressMaxEnumerated != 65536 {
		t.Errorf("unexpected address defaults: %q %d", cfg.AddressStrategy, cfg.AddressMaxEnumerated)
	}
	if len(cfg.AddressRanges) != 0 {
		t.Errorf("expected no AddressRanges by default, got %v", cfg.AddressRanges)
	}
	if cfg.SegmentsMaxIdentical != 3 || cfg.SegmentsMaxConsecutive != 2 {
		t.Errorf("unexpected segment defaults: %d %d", cfg.SegmentsMaxIdentical, cfg.SegmentsMaxConsecutive)
	}
	if cfg.QueuePolicy != "hostname" || cfg.QueueLimit != -1 {
		t.Errorf("unexpected queue defaults: %q %d", cfg.QueuePolicy, cfg.QueueLimit)
	}
	if cfg.HostCacheTTL != 6*time.Hour {
		t.Errorf("expected HostCacheTTL=6h, got %v", cfg.HostCacheTTL)
	}
	if cfg.RevisitDecision != "" || cfg.PatternSource != "" || cfg.ReportPath != "" {
		t.Errorf("expected optional settings to be empty: %+v", cfg)
	}
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("SCOPE_ENV", "dev")
	t.Setenv("SCOPE_LOG_LEVEL", "debug")
	t.Setenv("SCOPE_WORKERS", "32")
	t.Setenv("SCOPE_ADDRESS_RANGES", "10.0.0.0/8, 192.0.2.1")
	t.Setenv("SCOPE_ADDRESS_STRATEGY", "enumerated")
	t.Setenv("SCOPE_ADDRESS_DECISION", "ACCEPT")
	t.Setenv("SCOPE_PATTERN_SOURCE", "/etc/rr-scope/regexes.txt")
	t.Setenv("SCOPE_PATTERN_LOGIC", "and")
	t.Setenv("SCOPE_REVISIT_DECISION", "reject")
	t.Setenv("SCOPE_QUEUE_POLICY", "surt")
	t.Setenv("SCOPE_QUEUE_LIMIT", "2")
	t.Setenv("SCOPE_HOST_CACHE_TTL", "30m")
	t.Setenv("SCOPE_REPORT_PATH", "/tmp/listRegexFilterOut-report.txt")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "dev" || cfg.LogLevel != "debug" || cfg.Workers != 32 {
		t.Errorf("unexpected runtime settings: %q %q %d", cfg.Env, cfg.LogLevel, cfg.Workers)
	}
	wantRanges := []string{"10.0.0.0/8", "192.0.2.1"}
	if len(cfg.AddressRanges) != len(wantRanges) {
		t.Fatalf("expected AddressRanges length %d, got %v", len(wantRanges), cfg.AddressRanges)
	}
	for i, v := range wantRanges {
		if cfg.AddressRanges[i] != v {
			t.Errorf("expected AddressRanges[%d]=%q, got %q", i, v, cfg.AddressRanges[i])
		}
	}
	if cfg.AddressStrategy != "enumerated" || cfg.AddressDecision != "ACCEPT" {
		t.Errorf("unexpected address settings: %q %q", cfg.AddressStrategy, cfg.AddressDecision)
	}
	if cfg.PatternSource != "/etc/rr-scope/regexes.txt" || cfg.PatternLogic != "and" {
		t.Errorf("unexpected pattern settings: %q %q", cfg.PatternSource, cfg.PatternLogic)
	}
	if cfg.RevisitDecision != "reject" {
		t.Errorf("expected RevisitDecision=reject, got %q", cfg.RevisitDecision)
	}
	if cfg.QueuePolicy != "surt" || cfg.QueueLimit != 2 {
		t.Errorf("unexpected queue settings: %q %d", cfg.QueuePolicy, cfg.QueueLimit)
	}
	if cfg.HostCacheTTL != 30*time.Minute {
		t.Errorf("expected HostCacheTTL=30m, got %v", cfg.HostCacheTTL)
	}
	if cfg.ReportPath != "/tmp/listRegexFilterOut-report.txt" {
		t.Errorf("unexpected ReportPath %q", cfg.ReportPath)
	}
}

func TestLoad_SingleRangeBecomesList(t *testing.T) {
	t.Setenv("SCOPE_ADDRESS_RANGES", "10.0.0.0/8")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.AddressRanges) != 1 || cfg.AddressRanges[0] != "10.0.0.0/8" {
		t.Errorf("unexpected AddressRanges %v", cfg.AddressRanges)
	}
}

func TestLoad_PathsWithSpacesAndCommas(t *testing.T) {
	t.Setenv("SCOPE_PATTERN_SOURCE", "/srv/My Crawls/regex.txt")
	t.Setenv("SCOPE_SURT_PREFIX_SOURCE", "/srv/crawl,2024/surts.txt")
	t.Setenv("SCOPE_REPORT_PATH", "/srv/My Crawls/reports, daily")
	t.Setenv("SCOPE_SURT_PREFIXES", "a.example.org b.example.org,c.example.org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.PatternSource != "/srv/My Crawls/regex.txt" {
		t.Errorf("unexpected PatternSource %q", cfg.PatternSource)
	}
	if cfg.SurtPrefixSource != "/srv/crawl,2024/surts.txt" {
		t.Errorf("unexpected SurtPrefixSource %q", cfg.SurtPrefixSource)
	}
	if cfg.ReportPath != "/srv/My Crawls/reports, daily" {
		t.Errorf("unexpected ReportPath %q", cfg.ReportPath)
	}
	if len(cfg.SurtPrefixes) != 3 {
		t.Errorf("expected 3 SurtPrefixes, got %v", cfg.SurtPrefixes)
	}
}

func TestLoad_File(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"scope.yaml", "workers: 4\nqueue_policy: apex\nsurt_prefixes:\n  - example.com\n  - vedur.is\n"},
		{"scope.json", `{"workers": 4, "queue_policy": "apex", "surt_prefixes": ["example.com", "vedur.is"]}`},
		{"scope.toml", "workers = 4\nqueue_policy = \"apex\"\nsurt_prefixes = [\"example.com\", \"vedur.is\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name)
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			t.Setenv("SCOPE_CONFIG", path)
			// Environment wins over the file.
			t.Setenv("SCOPE_QUEUE_LIMIT", "3")

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() returned error: %v", err)
			}
			if cfg.Workers != 4 || cfg.QueuePolicy != "apex" || cfg.QueueLimit != 3 {
				t.Errorf("unexpected settings: %d %q %d", cfg.Workers, cfg.QueuePolicy, cfg.QueueLimit)
			}
			if len(cfg.SurtPrefixes) != 2 || cfg.SurtPrefixes[1] != "vedur.is" {
				t.Errorf("unexpected SurtPrefixes %v", cfg.SurtPrefixes)
			}
		})
	}
}

func TestLoad_FileErrors(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scope.ini")
		if err := os.WriteFile(path, []byte("workers=4"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("SCOPE_CONFIG", path)
		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "unsupported") {
			t.Fatalf("expected unsupported file error, got %v", err)
		}
	})
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("SCOPE_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		if _, err := Load(); err == nil {
			t.Fatal("expected error for missing config file")
		}
	})
}

func TestLoad_WhenKoanfDefaultLoadFails(t *testing.T) {
	orig := defaultLoader
	defaultLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { defaultLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading defaults, got nil")
	}
}

func TestLoad_WhenKoanfEnvLoadFails(t *testing.T) {
	orig := envLoader
	envLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { envLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading env, got nil")
	}
}

func TestLoad_RegisterValidationFails(t *testing.T) {
	orig := registerValidation
	registerValidation = func(v *validator.Validate) error { return errors.New("mocked validation error") }
	defer func() { registerValidation = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked validation error") {
		t.Fatal("expected error when registering validation, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SCOPE_ENV", "staging"},
		{"SCOPE_LOG_LEVEL", "trace"},
		{"SCOPE_WORKERS", "0"},
		{"SCOPE_DEFAULT_DECISION", "maybe"},
		{"SCOPE_ADDRESS_STRATEGY", "trie"},
		{"SCOPE_ADDRESS_MAX_ENUMERATED", "0"},
		{"SCOPE_PATTERN_LOGIC", "xor"},
		{"SCOPE_REVISIT_DECISION", "none"},
		{"SCOPE_QUEUE_POLICY", "random"},
		{"SCOPE_HOST_CACHE_SIZE", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
