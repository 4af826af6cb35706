package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModeDirect    = "direct"
	ModeDelegated = "delegated"

	DefaultSignedURLTTL = 600 * time.Second
)

type Config struct {
	Port             string
	LogLevel         string
	CORSOrigins      string
	ExposeSignedURLs bool

	DatabaseURL string

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	Storage  StorageConfig
	Redis    RedisConfig
	Analysis AnalysisConfig
}

type StorageConfig struct {
	Driver       string // gcs, s3 or minio
	UploadBucket string

	GCSCredentialsFile string

	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioRegion    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AnalysisConfig struct {
	Mode            string
	Provider        string
	Workers         int
	QueueSize       int
	SignedURLTTL    time.Duration
	ProviderTimeout time.Duration

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAITemperature *float64

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryBaseURL   string

	GeminiAPIKey string
	GeminiModel  string

	FunctionURL      string
	FunctionsBaseURL string
	FunctionsAnonKey string
}

// Load reads the process environment (after an optional .env file) into a
// Config. It is meant to be called once from main.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from an arbitrary lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := envReader{get: getenv}

	cfg := &Config{
		Port:             e.str("PORT", "3000"),
		LogLevel:         e.str("LOG_LEVEL", "info"),
		CORSOrigins:      e.str("CORS_ORIGINS", "*"),
		ExposeSignedURLs: e.boolean("API_EXPOSE_SIGNED_URLS", false),
		DatabaseURL:      e.str("DATABASE_URL", ""),
		JWTSecret:        e.str("JWT_SECRET", ""),
		JWTIssuer:        e.str("JWT_ISSUER", "media-backend"),
		TokenTTL:         e.duration("TOKEN_TTL", 24*time.Hour),
		Storage: StorageConfig{
			Driver:             strings.ToLower(e.str("STORAGE_DRIVER", "gcs")),
			UploadBucket:       e.str("UPLOAD_BUCKET", "images"),
			GCSCredentialsFile: e.str("GOOGLE_APPLICATION_CREDENTIALS", ""),
			S3Region:           e.str("S3_REGION", "us-east-1"),
			S3Endpoint:         e.str("S3_ENDPOINT", ""),
			S3AccessKey:        e.str("S3_ACCESS_KEY", ""),
			S3SecretKey:        e.str("S3_SECRET_KEY", ""),
			MinioEndpoint:      e.str("MINIO_ENDPOINT", ""),
			MinioAccessKey:     e.str("MINIO_ACCESS_KEY", ""),
			MinioSecretKey:     e.str("MINIO_SECRET_KEY", ""),
			MinioUseSSL:        e.boolean("MINIO_USE_SSL", false),
			MinioRegion:        e.str("MINIO_REGION", "us-east-1"),
		},
		Redis: RedisConfig{
			Addr:     e.str("REDIS_ADDR", ""),
			Password: e.str("REDIS_PASSWORD", ""),
			DB:       e.integer("REDIS_DB", 0),
		},
		Analysis: AnalysisConfig{
			Mode:                strings.ToLower(e.str("ANALYSIS_MODE", ModeDirect)),
			Provider:            strings.ToLower(e.str("ANALYSIS_PROVIDER", "openai")),
			Workers:             e.integer("ANALYSIS_WORKERS", 4),
			QueueSize:           e.integer("ANALYSIS_QUEUE_SIZE", 256),
			SignedURLTTL:        e.seconds("SIGNED_URL_TTL", DefaultSignedURLTTL),
			ProviderTimeout:     e.duration("PROVIDER_TIMEOUT", 60*time.Second),
			OpenAIAPIKey:        e.str("OPENAI_API_KEY", ""),
			OpenAIBaseURL:       e.str("OPENAI_BASE_URL", "https://api.openai.com"),
			OpenAIModel:         e.str("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAITemperature:   e.float("OPENAI_TEMPERATURE"),
			CloudinaryCloudName: e.str("CLOUDINARY_CLOUD_NAME", ""),
			CloudinaryAPIKey:    e.str("CLOUDINARY_API_KEY", ""),
			CloudinaryAPISecret: e.str("CLOUDINARY_API_SECRET", ""),
			CloudinaryBaseURL:   e.str("CLOUDINARY_API_BASE_URL", "https://api.cloudinary.com"),
			GeminiAPIKey:        e.str("GEMINI_API_KEY", ""),
			GeminiModel:         e.str("GEMINI_MODEL", "gemini-2.5-flash"),
			FunctionURL:         e.str("ANALYZE_FUNCTION_URL", ""),
			FunctionsBaseURL:    e.str("FUNCTIONS_URL", ""),
			FunctionsAnonKey:    e.str("FUNCTIONS_ANON_KEY", ""),
		},
	}

	if e.err != nil {
		return nil, e.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the process cannot start without. Provider
// and storage credentials are checked lazily by the components using them.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET not set"))
	}
	switch c.Analysis.Mode {
	case ModeDirect, ModeDelegated:
	default:
		errs = append(errs, fmt.Errorf("ANALYSIS_MODE %q is not one of direct, delegated", c.Analysis.Mode))
	}
	if c.Analysis.Workers < 1 {
		errs = append(errs, errors.New("ANALYSIS_WORKERS must be at least 1"))
	}
	if c.Analysis.QueueSize < 1 {
		errs = append(errs, errors.New("ANALYSIS_QUEUE_SIZE must be at least 1"))
	}
	if c.Analysis.SignedURLTTL <= 0 {
		errs = append(errs, errors.New("SIGNED_URL_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// AnalyzeFunctionURL resolves the external analysis function endpoint: an
// explicit URL wins over FUNCTIONS_URL + "/analyze-image".
func (a AnalysisConfig) AnalyzeFunctionURL() string {
	if a.FunctionURL != "" {
		return a.FunctionURL
	}
	if a.FunctionsBaseURL == "" {
		return ""
	}
	return strings.TrimRight(a.FunctionsBaseURL, "/") + "/analyze-image"
}

type envReader struct {
	get func(string) string
	err error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(e.get(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return b
}

func (e *envReader) integer(key string, def int) int {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *envReader) float(key string) *float64 {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, err)
		return nil
	}
	return &f
}

// duration accepts Go duration strings ("90s", "24h").
func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

// seconds accepts a plain integer number of seconds.
func (e *envReader) seconds(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return time.Duration(n) * time.Second
}

func (e *envReader) fail(key string, err error) {
	e.err = errors.Join(e.err, fmt.Errorf("%s: %w", key, err))
}
