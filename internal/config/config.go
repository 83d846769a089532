package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Embedded zone database so TIMEZONE works in minimal containers.
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/example/badstu-booker/internal/domain/booking"
)

type Config struct {
	ListenAddr string
	BaseURL    string
	// Password is the shared secret gating every order.
	Password       string
	CookieHashKey  []byte
	CookieBlockKey []byte

	// planyo driver
	PlanyoURL       string
	ChromePath      string
	ChromeRemoteURL string
	StepTimeout     time.Duration

	Location   *time.Location
	LogFormat  string
	Debug      bool
	BcryptCost int
}

// file mirrors Config in the optional YAML file. Environment variables win over it.
type file struct {
	ListenAddr         string `yaml:"listen_addr"`
	BaseURL            string `yaml:"base_url"`
	Password           string `yaml:"password"`
	CookieHashKey      string `yaml:"cookie_hash_key"`
	CookieBlockKey     string `yaml:"cookie_block_key"`
	PlanyoURL          string `yaml:"planyo_url"`
	ChromePath         string `yaml:"chrome_path"`
	ChromeRemoteURL    string `yaml:"chrome_remote_url"`
	StepTimeoutSeconds int    `yaml:"step_timeout_seconds"`
	Timezone           string `yaml:"timezone"`
	LogFormat          string `yaml:"log_format"`
	Debug              bool   `yaml:"debug"`
	BcryptCost         int    `yaml:"bcrypt_cost"`
}

const DefaultPlanyoURL = booking.DefaultSiteURL

func defaults() file {
	return file{
		ListenAddr:         ":8080",
		BaseURL:            "http://localhost:8080",
		PlanyoURL:          DefaultPlanyoURL,
		StepTimeoutSeconds: 120,
		Timezone:           "Europe/Oslo",
		LogFormat:          "text",
	}
}

// FromEnv loads configuration from the environment only.
func FromEnv() (Config, error) {
	return Load("")
}

// Load reads the YAML file at path (if any) and then applies environment overrides.
// Cookie keys are optional here; commands that need them call RequireCookieKeys.
func Load(path string) (Config, error) {
	f := defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("could not read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &f); err != nil {
			return Config{}, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	f.ListenAddr = getenv("LISTEN_ADDR", f.ListenAddr)
	f.BaseURL = getenv("BASE_URL", f.BaseURL)
	f.Password = getenv("PASSWORD", f.Password)
	f.CookieHashKey = getenv("COOKIE_HASH_KEY", f.CookieHashKey)
	f.CookieBlockKey = getenv("COOKIE_BLOCK_KEY", f.CookieBlockKey)
	f.PlanyoURL = getenv("PLANYO_URL", f.PlanyoURL)
	f.ChromePath = getenv("CHROME_PATH", f.ChromePath)
	f.ChromeRemoteURL = getenv("CHROME_REMOTE_URL", f.ChromeRemoteURL)
	f.Timezone = getenv("TIMEZONE", f.Timezone)
	f.LogFormat = getenv("LOG_FORMAT", f.LogFormat)

	var err error
	if f.StepTimeoutSeconds, err = getenvInt("STEP_TIMEOUT_SECONDS", f.StepTimeoutSeconds); err != nil {
		return Config{}, err
	}
	if f.BcryptCost, err = getenvInt("BCRYPT_COST", f.BcryptCost); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("DEBUG"); v != "" {
		f.Debug, err = strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEBUG: %w", err)
		}
	}

	return f.config()
}

func (f file) config() (Config, error) {
	cfg := Config{
		ListenAddr:      f.ListenAddr,
		BaseURL:         strings.TrimRight(f.BaseURL, "/"),
		Password:        f.Password,
		PlanyoURL:       f.PlanyoURL,
		ChromePath:      f.ChromePath,
		ChromeRemoteURL: f.ChromeRemoteURL,
		StepTimeout:     time.Duration(f.StepTimeoutSeconds) * time.Second,
		LogFormat:       f.LogFormat,
		Debug:           f.Debug,
		BcryptCost:      f.BcryptCost,
	}

	if cfg.Password == "" {
		return Config{}, fmt.Errorf("PASSWORD is required")
	}
	if f.StepTimeoutSeconds < 1 {
		return Config{}, fmt.Errorf("invalid STEP_TIMEOUT_SECONDS")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q (want text or json)", cfg.LogFormat)
	}

	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if f.CookieHashKey != "" {
		if cfg.CookieHashKey, err = decodeB64(f.CookieHashKey); err != nil {
			return Config{}, fmt.Errorf("COOKIE_HASH_KEY: %w", err)
		}
	}
	if f.CookieBlockKey != "" {
		if cfg.CookieBlockKey, err = decodeB64(f.CookieBlockKey); err != nil {
			return Config{}, fmt.Errorf("COOKIE_BLOCK_KEY: %w", err)
		}
	}

	return cfg, nil
}

// RequireCookieKeys checks the person cookie keys are present and usable.
func (c Config) RequireCookieKeys() error {
	if len(c.CookieHashKey) == 0 || len(c.CookieBlockKey) == 0 {
		return fmt.Errorf("COOKIE_HASH_KEY and COOKIE_BLOCK_KEY are required (32 and 16/24/32 bytes base64)")
	}
	switch len(c.CookieBlockKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("COOKIE_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", len(c.CookieBlockKey))
	}
	return nil
}

func decodeB64(s string) ([]byte, error) {
	b, err := os.ReadFile(s)
	if err == nil {
		// allow pointing to file path for k8s secret mounts
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if dec, err := base64.StdEncoding.DecodeString(s); err == nil {
		return dec, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return i, nil
}
