package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	APIPrefix string `env:"API_PREFIX, default=/api/v1"`
	BaseURL   string `env:"BASE_URL,   default=http://localhost:8080"`

	// CORSOrigins lists browser origins allowed to call the API with
	// credentials.
	CORSOrigins []string `env:"CORS_ORIGINS, default=http://localhost:5173"`

	Token  TokenConfig
	Cookie CookieConfig
	Admin  AdminConfig
	Hash   HashConfig
	Limits LimitsConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Media  MediaConfig
}

type TokenConfig struct {
	AccessKey  string        `env:"ACCESS_TOKEN_KEY"`
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshKey string        `env:"REFRESH_TOKEN_KEY"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	Issuer     string        `env:"TOKEN_ISSUER,      default=classmates"`
}

// CookieConfig names the cookies. The refresh cookie max-age always follows
// TokenConfig.RefreshTTL.
type CookieConfig struct {
	RefreshName string `env:"REFRESH_COOKIE_NAME, default=refresh_token"`
	AccessName  string `env:"ACCESS_COOKIE_NAME,  default=token"`
}

type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME, default=admin"`
	FullName string `env:"ADMIN_FULLNAME, default=Administrator"`
	Password string `env:"ADMIN_PASSWORD"`
}

type HashConfig struct {
	Algorithm  string `env:"PASSWORD_HASHER, default=bcrypt"`
	BcryptCost int    `env:"BCRYPT_COST,     default=10"`
}

type LimitsConfig struct {
	MaxUploadMB     int `env:"MAX_UPLOAD_MB,       default=50"`
	SignInPerMinute int `env:"SIGNIN_RATE_PER_MIN, default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI,       default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,        default=classmates"`
	PoolSize uint64 `env:"MONGO_POOL_SIZE, default=50"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type MediaConfig struct {
	CleanupWorkers int `env:"MEDIA_CLEANUP_WORKERS, default=4"`
}

// IsProduction reports whether the service runs with production settings,
// which among other things marks cookies Secure.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom is Load with an explicit source of variables.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run safely with.
func (c *Config) Validate() error {
	var errs []error
	if c.Token.AccessKey == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_KEY is required"))
	}
	if c.Token.RefreshKey == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_KEY is required"))
	}
	if c.Token.AccessKey != "" && c.Token.AccessKey == c.Token.RefreshKey {
		errs = append(errs, errors.New("ACCESS_TOKEN_KEY and REFRESH_TOKEN_KEY must differ"))
	}
	if c.Token.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Token.RefreshTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be positive"))
	}
	if c.Admin.Username == "" || c.Admin.Password == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD are required"))
	}
	if c.Cookie.RefreshName == "" || c.Cookie.AccessName == "" {
		errs = append(errs, errors.New("cookie names cannot be empty"))
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("API_PREFIX %q must start with /", c.APIPrefix))
	}
	if c.Limits.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
