package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Razorpay     RazorpayConfig
	GCP          GCPConfig
	GCS          GCSConfig
	School       SchoolConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SCHOOLPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"SCHOOLPAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SCHOOLPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SCHOOLPAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SCHOOLPAY_DB_DSN"`
	Driver string `envconfig:"SCHOOLPAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SCHOOLPAY_DB_HOST"`
	LegacyPort     int    `envconfig:"SCHOOLPAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SCHOOLPAY_DB_USER"`
	LegacyPassword string `envconfig:"SCHOOLPAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SCHOOLPAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SCHOOLPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SCHOOLPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SCHOOLPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SCHOOLPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SCHOOLPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SCHOOLPAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SCHOOLPAY_REDIS_ADDR"`
	Password     string        `envconfig:"SCHOOLPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SCHOOLPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SCHOOLPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SCHOOLPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SCHOOLPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SCHOOLPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SCHOOLPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SCHOOLPAY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SCHOOLPAY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SCHOOLPAY_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type RazorpayConfig struct {
	KeyID          string        `envconfig:"SCHOOLPAY_RAZORPAY_KEY_ID" required:"true"`
	KeySecret      string        `envconfig:"SCHOOLPAY_RAZORPAY_KEY_SECRET" required:"true"`
	Currency       string        `envconfig:"SCHOOLPAY_RAZORPAY_CURRENCY" default:"INR"`
	RequestTimeout time.Duration `envconfig:"SCHOOLPAY_RAZORPAY_REQUEST_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SCHOOLPAY_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SCHOOLPAY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SCHOOLPAY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"SCHOOLPAY_GCS_BUCKET_NAME" required:"true"`
}

// SchoolConfig carries the branding block printed on receipts.
type SchoolConfig struct {
	Name         string `envconfig:"SCHOOLPAY_SCHOOL_NAME" required:"true"`
	AddressLine1 string `envconfig:"SCHOOLPAY_SCHOOL_ADDRESS_LINE1"`
	AddressLine2 string `envconfig:"SCHOOLPAY_SCHOOL_ADDRESS_LINE2"`
	Phone        string `envconfig:"SCHOOLPAY_SCHOOL_PHONE"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SCHOOLPAY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
