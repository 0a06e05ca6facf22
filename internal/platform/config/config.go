package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	AppName    string `toml:"app_name"`
	AppVersion string `toml:"app_version"`
	Debug      bool   `toml:"debug"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Timeout de llamadas salientes (Supabase), en segundos.
	HTTPTimeoutSeconds int `toml:"http_timeout_seconds"`

	CORSOrigins []string `toml:"cors_origins"`

	Supabase  SupabaseConfig  `toml:"supabase"`
	Storage   StorageConfig   `toml:"storage"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type SupabaseConfig struct {
	URL            string `toml:"url"`
	AnonKey        string `toml:"anon_key"`
	ServiceRoleKey string `toml:"service_role_key"`
	JWTSecret      string `toml:"jwt_secret"`
	Bucket         string `toml:"bucket"`
}

type StorageConfig struct {
	// supabase | postgres | memory. Vacío = supabase si hay credenciales, si no memory.
	Backend string `toml:"backend"`
	DSN     string `toml:"dsn"`
}

type RateLimitConfig struct {
	// 0 desactiva el limitador.
	RPS   float64 `toml:"rps"`
	Burst int     `toml:"burst"`
}

func Default() Config {
	return Config{
		AppName:            "Monitoreo Bovinos IA Backend",
		AppVersion:         "1.0.0",
		Host:               "0.0.0.0",
		Port:               8000,
		LogLevel:           "info",
		LogFormat:          "text",
		HTTPTimeoutSeconds: 30,
		CORSOrigins:        []string{"*"},
		Supabase: SupabaseConfig{
			Bucket: "monitoreo_bovinos_IA",
		},
	}
}

// LoadDotEnv carga variables desde archivos .env; un archivo inexistente no es error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load env file: %w", err)
	}
	return nil
}

// Load aplica, en orden: defaults, archivo TOML (opcional) y variables de entorno.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if cfg.Storage.Backend == "" {
		if cfg.Supabase.URL != "" && cfg.Supabase.ServiceRoleKey != "" {
			cfg.Storage.Backend = BackendSupabase
		} else {
			cfg.Storage.Backend = BackendMemory
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("APP_NAME", &cfg.AppName)
	str("APP_VERSION", &cfg.AppVersion)
	str("HOST", &cfg.Host)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("SUPABASE_URL", &cfg.Supabase.URL)
	str("SUPABASE_ANON_KEY", &cfg.Supabase.AnonKey)
	str("SUPABASE_SERVICE_ROLE_KEY", &cfg.Supabase.ServiceRoleKey)
	str("SUPABASE_JWT_SECRET", &cfg.Supabase.JWTSecret)
	str("BUCKET_NAME", &cfg.Supabase.Bucket)
	str("STORAGE_BACKEND", &cfg.Storage.Backend)
	str("DB_DSN", &cfg.Storage.DSN)

	if v, ok := lookup("DEBUG"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: DEBUG: %w", err)
		}
		cfg.Debug = b
	}

	ints := map[string]*int{
		"PORT":                 &cfg.Port,
		"HTTP_TIMEOUT_SECONDS": &cfg.HTTPTimeoutSeconds,
		"RATE_LIMIT_BURST":     &cfg.RateLimit.Burst,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = n
	}

	if v, ok := lookup("RATE_LIMIT_RPS"); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("config: RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RPS = f
	}

	if v, ok := lookup("CORS_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		cfg.CORSOrigins = splitCSV(v)
	}

	return nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}

	switch c.Storage.Backend {
	case BackendSupabase:
		if c.Supabase.URL == "" || c.Supabase.ServiceRoleKey == "" {
			errs = append(errs, errors.New("supabase backend requires SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY"))
		}
	case BackendPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("postgres backend requires DB_DSN"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.Supabase.Bucket == "" {
		errs = append(errs, errors.New("bucket name is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// SupabaseConfigured indica si hay credenciales para hablar con Supabase.
func (c Config) SupabaseConfigured() bool {
	return c.Supabase.URL != "" && (c.Supabase.ServiceRoleKey != "" || c.Supabase.AnonKey != "")
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func splitCSV(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
