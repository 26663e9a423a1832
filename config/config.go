package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env             string         `yaml:"env"              env:"ENV"              env-default:"local"`
	Port            int            `yaml:"port"             env:"PORT"             env-default:"8083"`
	RateLimit       float64        `yaml:"rate_limit"       env:"RATE_LIMIT"       env-default:"3"`
	ShutdownTimeout time.Duration  `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	JWTSecret       string         `yaml:"jwt_secret"       env:"JWT_SECRET"`
	SentryDSN       string         `yaml:"sentry_dsn"       env:"SENTRY_DSN"`
	LLM             LLMConfig      `yaml:"llm"`
	Store           StoreConfig    `yaml:"store"`
	Database        DatabaseConfig `yaml:"database"`
	R2              R2Config       `yaml:"r2"`
	Images          ImageConfig    `yaml:"images"`
}

type LLMConfig struct {
	APIKey  string        `yaml:"api_key" env:"GOOGLE_API_KEY"`
	Model   string        `yaml:"model"   env:"LLM_MODEL"   env-default:"gemini-2.5-flash"`
	Timeout time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"30s"`
}

const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

var storeDrivers = []string{StoreDriverSQLite, StoreDriverPostgres, StoreDriverMemory}

type StoreConfig struct {
	Driver  string `yaml:"driver"   env:"STORE_DRIVER"   env-default:"sqlite"`
	DataDir string `yaml:"data_dir" env:"STORE_DATA_DIR" env-default:"./data"`
}

type DatabaseConfig struct {
	Username string `yaml:"username" env:"DB_USERNAME"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Host     string `yaml:"host"     env:"DB_HOST"`
	Port     string `yaml:"port"     env:"DB_PORT" env-default:"5432"`
	Name     string `yaml:"name"     env:"DB_NAME"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", d.Username, d.Password, d.Host, d.Port, d.Name)
}

// R2Config points at the Cloudflare R2 bucket used for item images.
// Images are kept inline when Bucket is empty.
type R2Config struct {
	AccountID       string `yaml:"account_id"        env:"R2_ACCOUNT_ID"`
	AccessKeyID     string `yaml:"access_key_id"     env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `yaml:"access_key_secret" env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `yaml:"bucket"            env:"R2_BUCKET_NAME"`
}

func (r R2Config) Enabled() bool {
	return r.Bucket != ""
}

type ImageConfig struct {
	MaxDimension int `yaml:"max_dimension" env:"IMAGE_MAX_DIMENSION" env-default:"1024"`
	MaxBytes     int `yaml:"max_bytes"     env:"IMAGE_MAX_BYTES"     env-default:"15728640"`
}

// Load reads configuration from an optional YAML file (CONFIG_PATH) and the environment.
// Priority: ENV > YAML > env-default tags.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !slices.Contains(storeDrivers, c.Store.Driver) {
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == StoreDriverPostgres && c.Database.Host == "" {
		return fmt.Errorf("store driver %q requires DB_HOST", c.Store.Driver)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive, got %s", c.LLM.Timeout)
	}
	if c.Images.MaxDimension <= 0 {
		return fmt.Errorf("image max dimension must be positive, got %d", c.Images.MaxDimension)
	}
	if c.R2.Enabled() && (c.R2.AccountID == "" || c.R2.AccessKeyID == "" || c.R2.AccessKeySecret == "") {
		return fmt.Errorf("R2_BUCKET_NAME is set but R2 credentials are incomplete")
	}
	return nil
}
