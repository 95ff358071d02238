package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	GCP       GCPConfig
	GCS       GCSConfig
	URLCache  URLCacheConfig
	Watermark WatermarkConfig
	Patron    PatronConfig
	PubSub    PubSubConfig
	BigQuery  BigQueryConfig
	Forensic  ForensicConfig
	Cron      CronConfig
	RateLimit RateLimitConfig

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
	if err := cfg.URLCache.validate(cfg.GCS); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VELURE_APP_ENV" required:"true"`
	Port         string `envconfig:"VELURE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VELURE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VELURE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VELURE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VELURE_DB_DSN"`
	Driver string `envconfig:"VELURE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VELURE_DB_HOST"`
	LegacyPort     int    `envconfig:"VELURE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VELURE_DB_USER"`
	LegacyPassword string `envconfig:"VELURE_DB_PASSWORD"`
	LegacyName     string `envconfig:"VELURE_DB_NAME"`
	LegacySSLMode  string `envconfig:"VELURE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VELURE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VELURE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VELURE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VELURE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VELURE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VELURE_REDIS_ADDR"`
	Password     string        `envconfig:"VELURE_REDIS_PASSWORD"`
	DB           int           `envconfig:"VELURE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VELURE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VELURE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VELURE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VELURE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VELURE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VELURE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VELURE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VELURE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VELURE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"VELURE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VELURE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"VELURE_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL     string        `envconfig:"VELURE_GCS_PUBLIC_BASE_URL"`
	DownloadURLExpiry time.Duration `envconfig:"VELURE_GCS_DOWNLOAD_URL_EXPIRY" default:"15m"`
}

// URLCacheConfig governs signed-URL cache entry lifetimes. The entry TTL must
// stay shorter than the signed URL expiry by at least the safety margin so a
// cached URL is never returned past its own expiry.
type URLCacheConfig struct {
	EntryTTL     time.Duration `envconfig:"VELURE_URL_CACHE_TTL" default:"4m"`
	SafetyMargin time.Duration `envconfig:"VELURE_URL_CACHE_SAFETY_MARGIN" default:"1m"`
}

func (u URLCacheConfig) validate(gcs GCSConfig) error {
	if u.SafetyMargin < time.Minute {
		return fmt.Errorf("%s must be at least 1m", EnvURLCacheSafetyMargin)
	}
	if u.EntryTTL >= gcs.DownloadURLExpiry {
		return fmt.Errorf("%s must be shorter than the signed URL expiry", EnvURLCacheTTL)
	}
	return nil
}

type WatermarkConfig struct {
	FontPath        string  `envconfig:"VELURE_WATERMARK_FONT_PATH"`
	FontSize        float64 `envconfig:"VELURE_WATERMARK_FONT_SIZE" default:"28"`
	CornerMarginPct float64 `envconfig:"VELURE_WATERMARK_CORNER_MARGIN_PCT" default:"3"`
}

type PatronConfig struct {
	BaseURL     string        `envconfig:"VELURE_PATRON_API_BASE_URL"`
	AccessToken string        `envconfig:"VELURE_PATRON_ACCESS_TOKEN"`
	CampaignID  string        `envconfig:"VELURE_PATRON_CAMPAIGN_ID"`
	HTTPTimeout time.Duration `envconfig:"VELURE_PATRON_HTTP_TIMEOUT" default:"15s"`
	CatalogTTL  time.Duration `envconfig:"VELURE_PATRON_CATALOG_TTL" default:"10m"`
}

type PubSubConfig struct {
	ForensicTopic        string `envconfig:"VELURE_PUBSUB_FORENSIC_TOPIC" required:"true"`
	ForensicSubscription string `envconfig:"VELURE_PUBSUB_FORENSIC_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset           string `envconfig:"VELURE_BIGQUERY_DATASET" default:"velure"`
	AccessEventsTable string `envconfig:"VELURE_BIGQUERY_ACCESS_EVENTS_TABLE" default:"access_events"`
	DisableStreaming  bool   `envconfig:"VELURE_BIGQUERY_DISABLE_STREAMING" default:"false"`
}

type ForensicConfig struct {
	InvestigateLimit int `envconfig:"VELURE_FORENSIC_INVESTIGATE_LIMIT" default:"500"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VELURE_FEATURE_AUTO_MIGRATE" default:"false"`
}

type RateLimitConfig struct {
	DownloadLimit  int64         `envconfig:"VELURE_RATELIMIT_DOWNLOADS" default:"30"`
	DownloadWindow time.Duration `envconfig:"VELURE_RATELIMIT_DOWNLOAD_WINDOW" default:"1m"`
}

type CronConfig struct {
	SharedSecret string        `envconfig:"VELURE_CRON_SHARED_SECRET"`
	LockTTL      time.Duration `envconfig:"VELURE_CRON_LOCK_TTL" default:"10m"`
	Interval     time.Duration `envconfig:"VELURE_CRON_INTERVAL" default:"10m"`
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
