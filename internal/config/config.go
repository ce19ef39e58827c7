package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	minShortCodeLength = 6
	maxShortCodeLength = 32
)

type Config struct {
	Env            string `yaml:"env"`
	FrontendURL    string `yaml:"frontend_url"`
	MigrationsPath string `yaml:"migrations_path"`
	HTTPServer     `yaml:"http_server"`
	Postgres       `yaml:"postgres"`
	Redis          `yaml:"redis"`
	ShortCode      `yaml:"short_code"`
	Auth           `yaml:"auth"`
	GeoIP          `yaml:"geoip"`
	RateLimit      `yaml:"rate_limit"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	DB               string        `yaml:"db"`
	SSLMode          string        `yaml:"sslmode"`
	ConnMaxIdleTime  time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns     int           `yaml:"max_idle_conns"`
	MaxOpenConns     int           `yaml:"max_open_conns"`
	// StatementTimeout bounds every statement server-side; zero disables it.
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

var defaultPostgres = Postgres{
	Host:             "localhost",
	Port:             5432,
	SSLMode:          "disable",
	ConnMaxIdleTime:  5 * time.Minute,
	ConnMaxLifetime:  30 * time.Minute,
	MaxIdleConns:     5,
	MaxOpenConns:     25,
	StatementTimeout: 30 * time.Second,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

// Redis backs the password verification rate limiter.
type Redis struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	PoolSize    int           `yaml:"pool_size"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

var defaultRedis = Redis{
	Host:        "localhost",
	Port:        6379,
	PoolSize:    10,
	DialTimeout: 5 * time.Second,
}

func (r *Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type ShortCode struct {
	Length     int `yaml:"length"`
	MaxRetries int `yaml:"max_retries"`
}

var defaultShortCode = ShortCode{
	Length:     7,
	MaxRetries: 5,
}

// Auth configures owner tokens and link password hashing.
type Auth struct {
	JWTSecret  string `yaml:"jwt_secret"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

var defaultAuth = Auth{
	BcryptCost: 10,
}

// GeoIP points at a MaxMind City database. Geo lookup is disabled when DBPath is empty.
type GeoIP struct {
	DBPath string `yaml:"db_path"`
}

type RateLimit struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

var defaultRateLimit = RateLimit{
	Enabled:  true,
	Requests: 5,
	Window:   time.Minute,
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}

	return &cfg, nil
}

func (cfg *Config) validate() error {
	var errs []error

	if cfg.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}

	if cfg.ShortCode.Length < minShortCodeLength || cfg.ShortCode.Length > maxShortCodeLength {
		errs = append(errs, fmt.Errorf("short_code.length must be between %d and %d",
			minShortCodeLength, maxShortCodeLength))
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.Requests < 1 || cfg.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("rate_limit requires positive requests and window"))
	}

	return errors.Join(errs...)
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.FrontendURL = "http://localhost:3000"
	cfg.MigrationsPath = "file://migrations"
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
	cfg.ShortCode = defaultShortCode
	cfg.Auth = defaultAuth
	cfg.RateLimit = defaultRateLimit
}
