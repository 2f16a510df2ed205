package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from every environment key.
const envPrefix = "SPAMGUARD_"

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Transport selects a TCP port or a unix socket.
	Transport string `koanf:"transport" validate:"required,oneof=tcp unix"`

	// Port is the TCP port the HTTP API binds to.
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`

	// Socket is the unix socket path, required when Transport is "unix".
	Socket string `koanf:"socket" validate:"required_if=Transport unix"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// BlocklistURL is the newline-delimited remote list of disposable domains.
	BlocklistURL string `koanf:"blocklist_url" validate:"required,list_url"`

	// BlocklistFormat is "plain" (one domain per line) or "hosts".
	BlocklistFormat string `koanf:"blocklist_format" validate:"required,oneof=plain hosts"`

	// BlocklistTimeout bounds a single remote fetch. It cannot exceed 5s.
	BlocklistTimeout time.Duration `koanf:"blocklist_timeout" validate:"gt=0,lte=5s"`

	// BlocklistCacheTTL keeps a fetched list for reuse. Zero fetches fresh on
	// every check.
	BlocklistCacheTTL time.Duration `koanf:"blocklist_cache_ttl" validate:"gte=0"`

	BlocklistCacheSize int `koanf:"blocklist_cache_size" validate:"gte=0"`

	// DisableRemote skips the remote list entirely; only the curated list applies.
	DisableRemote bool `koanf:"disable_remote"`

	// BloomFPRate is the false-positive rate of the membership prefilter.
	BloomFPRate float64 `koanf:"bloom_fp_rate" validate:"gt=0,lt=1"`

	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins" validate:"required,dive,required"`
}

// DEFAULT_APP_CONFIG defines the default application configuration settings.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:                "prod",
	LogLevel:           "info",
	Transport:          "tcp",
	Port:               8080,
	ShutdownTimeout:    10 * time.Second,
	BlocklistURL:       "https://raw.githubusercontent.com/disposable-email-domains/disposable-email-domains/master/disposable_email_blocklist.conf",
	BlocklistFormat:    "plain",
	BlocklistTimeout:   5 * time.Second,
	BlocklistCacheTTL:  0,
	BlocklistCacheSize: 1,
	DisableRemote:      false,
	BloomFPRate:        0.01,
	CORSOrigins:        []string{"*"},
}

// Addr returns the listen address for the configured transport.
func (c *AppConfig) Addr() string {
	if c.Transport == "unix" {
		return c.Socket
	}
	return fmt.Sprintf(":%d", c.Port)
}

// validHTTPURL accepts absolute http and https URLs with a host.
func validHTTPURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// dotenvLoader loads a .env file into the process environment if one exists.
// Variables already set in the environment win. SPAMGUARD_ENV_FILE overrides
// the path.
var dotenvLoader = func() error {
	path := os.Getenv(envPrefix + "ENV_FILE")
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// envLoader loads environment variables with the prefix "SPAMGUARD_".
// Values containing spaces or commas become lists.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "list_url" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("list_url", validHTTPURL)
}

// Load reads defaults, then an optional .env file, then the environment, and
// returns the validated result.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := dotenvLoader(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
