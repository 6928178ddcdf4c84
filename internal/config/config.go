package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPAddr   string   `yaml:"http_addr" env:"HTTP_ADDR" env-default:":8080" validate:"required"`
	CORSOrigin []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"*"`
	// APIKeyHash is a bcrypt hash; when empty the API is unauthenticated.
	APIKeyHash string `yaml:"api_key_hash" env:"API_KEY_HASH"`
	LogLevel   string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`

	RequestTimeout   time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"30s" validate:"gte=0"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES" env-default:"10485760" validate:"gt=0"`
	// BreakerThreshold is the number of consecutive transport failures that
	// open a host's circuit. Zero disables the breaker.
	BreakerThreshold int           `yaml:"breaker_threshold" env:"BREAKER_THRESHOLD" env-default:"0" validate:"gte=0"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown" env:"BREAKER_COOLDOWN" env-default:"30s" validate:"gte=0"`

	DatabaseURL string        `yaml:"database_url" env:"DATABASE_URL"`
	RedisAddr   string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	ProgramTTL  time.Duration `yaml:"program_ttl" env:"PROGRAM_TTL" env-default:"168h"`
	NATSURL     string        `yaml:"nats_url" env:"NATS_URL"`
	NATSSubject string        `yaml:"nats_subject" env:"NATS_SUBJECT" env-default:"apiblocks.runs"`

	S3Bucket   string `yaml:"s3_bucket" env:"S3_BUCKET"`
	S3Region   string `yaml:"s3_region" env:"S3_REGION" env-default:"us-east-1"`
	S3Endpoint string `yaml:"s3_endpoint" env:"S3_ENDPOINT" validate:"omitempty,url"`

	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"apiblocks"`
}

// Load reads the environment. A non-empty path is read first as a YAML or
// JSON file; environment variables still override it.
func Load(path string) (*Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.APIKeyHash != "" && !strings.HasPrefix(c.APIKeyHash, "$2") {
		return fmt.Errorf("config error: API_KEY_HASH must be a bcrypt hash")
	}
	return nil
}
