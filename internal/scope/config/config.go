package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix marks the environment variables read by Load.
const envPrefix = "SCOPE_"

// fileEnvVar names an optional YAML, JSON or TOML configuration file.
const fileEnvVar = envPrefix + "CONFIG"

// AppConfig holds the rule, queue and runtime settings of rr-scope.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Workers bounds concurrent URL evaluations.
	Workers int `koanf:"workers" validate:"gte=1,lte=1024"`

	// DefaultDecision seeds the rule sequence before any other rule runs.
	DefaultDecision string `koanf:"default_decision" validate:"required,decision"`

	// AddressRanges lists CIDR blocks or single IPv4 addresses.
	AddressRanges        []string `koanf:"address_ranges" validate:"omitempty,dive,required"`
	AddressStrategy      string   `koanf:"address_strategy" validate:"required,oneof=cidr enumerated"`
	AddressMaxEnumerated int      `koanf:"address_max_enumerated" validate:"gte=1"`
	AddressDecision      string   `koanf:"address_decision" validate:"required,decision"`

	// PatternSource is a file of regular expressions, one per line.
	PatternSource   string `koanf:"pattern_source"`
	PatternLogic    string `koanf:"pattern_logic" validate:"required,oneof=or and"`
	PatternDecision string `koanf:"pattern_decision" validate:"required,decision"`

	// Segment thresholds; a value <= 0 disables that check.
	SegmentsMaxIdentical   int `koanf:"segments_max_identical"`
	SegmentsMaxConsecutive int `koanf:"segments_max_consecutive"`

	// SurtPrefixes are inline entries merged with SurtPrefixSource.
	SurtPrefixes       []string `koanf:"surt_prefixes"`
	SurtPrefixSource   string   `koanf:"surt_prefix_source"`
	SurtPrefixDecision string   `koanf:"surt_prefix_decision" validate:"required,decision"`

	// RevisitDecision applies to URLs with a revisit profile; empty disables the rule.
	RevisitDecision string `koanf:"revisit_decision" validate:"omitempty,decision"`

	// QueuePolicy selects the queue key derivation: "hostname", "surt" or "apex".
	QueuePolicy string `koanf:"queue_policy" validate:"required,oneof=hostname surt apex"`
	// QueueLimit caps queue key components; <= 0 is unlimited.
	QueueLimit int `koanf:"queue_limit"`

	// HostCacheSize bounds remembered host addresses; 0 disables the cache.
	HostCacheSize int           `koanf:"host_cache_size" validate:"gte=0"`
	HostCacheTTL  time.Duration `koanf:"host_cache_ttl" validate:"gte=0"`

	// ReportPath receives the pattern hit report; empty disables it.
	ReportPath string `koanf:"report_path"`
}

// DEFAULT_APP_CONFIG holds the defaults applied before any file or environment override.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:                    "prod",
	LogLevel:               "info",
	Workers:                8,
	DefaultDecision:        "accept",
	AddressStrategy:        "cidr",
	AddressMaxEnumerated:   65536,
	AddressDecision:        "reject",
	PatternLogic:           "or",
	PatternDecision:        "reject",
	SegmentsMaxIdentical:   3,
	SegmentsMaxConsecutive: 2,
	SurtPrefixDecision:     "accept",
	QueuePolicy:            "hostname",
	QueueLimit:             -1,
	HostCacheSize:          10000,
	HostCacheTTL:           6 * time.Hour,
}

// validDecision accepts "accept" or "reject" in any case.
func validDecision(fl validator.FieldLevel) bool {
	switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
	case "accept", "reject":
		return true
	default:
		return false
	}
}

// listKeys are the settings that hold several entries. Their env values are
// split on spaces and commas; every other value is passed through unchanged.
var listKeys = map[string]struct{}{
	"address_ranges": {},
	"surt_prefixes":  {},
}

// envLoader loads SCOPE_* variables. Keys lose the prefix and are lower-cased.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if _, ok := listKeys[key]; !ok {
				return key, value
			}
			return key, strings.FieldsFunc(value, func(r rune) bool {
				return r == ' ' || r == ','
			})
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// fileLoader loads path with a parser chosen by extension.
var fileLoader = func(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	case ".toml":
		parser = toml.Parser()
	default:
		return fmt.Errorf("unsupported config file type: %s", path)
	}
	return k.Load(file.Provider(path), parser)
}

// registerValidation registers the "decision" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("decision", validDecision)
}

// Load builds an AppConfig from defaults, the optional SCOPE_CONFIG file and
// SCOPE_* environment variables, in that order, and validates it.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if path := strings.TrimSpace(os.Getenv(fileEnvVar)); path != "" {
		if err := fileLoader(k, path); err != nil {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}
	// The file path itself is not a setting.
	k.Delete("config")

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
