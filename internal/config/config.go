package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds environment-driven configuration.
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"prod"`
	Addr string `envconfig:"STOREFRONT_ADDR" default:":8080"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL      time.Duration `envconfig:"JWT_TTL" default:"72h"`
	AdminEmails []string      `envconfig:"ADMIN_EMAILS"`

	OTPTTL         time.Duration `envconfig:"OTP_TTL" default:"5m"`
	OTPMaxAttempts int           `envconfig:"OTP_MAX_ATTEMPTS" default:"5"`

	UploadDir      string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	UploadBaseURL  string `envconfig:"UPLOAD_BASE_URL" default:"/uploads"`
	UploadMaxBytes int64  `envconfig:"UPLOAD_MAX_BYTES" default:"4194304"`

	ProductPageSize int `envconfig:"PRODUCT_PAGE_SIZE" default:"6"`
	PageSize        int `envconfig:"PAGE_SIZE" default:"10"`

	Omise    OmiseConfig
	Rabbit   RabbitConfig
	Tracing  TracingConfig
	SMTP     SMTPConfig
	Currency string `envconfig:"CURRENCY" default:"thb"`
}

type OmiseConfig struct {
	PublicKey string `envconfig:"OMISE_PUBLIC_KEY"`
	SecretKey string `envconfig:"OMISE_SECRET_KEY"`
	ReturnURI string `envconfig:"OMISE_RETURN_URI"`
}

// Enabled reports whether card/source charges can be sent to Omise.
func (o OmiseConfig) Enabled() bool {
	return o.PublicKey != "" && o.SecretKey != ""
}

type RabbitConfig struct {
	URL      string `envconfig:"RABBIT_URL"`
	Exchange string `envconfig:"RABBIT_EXCHANGE" default:"storefront.events"`
	Queue    string `envconfig:"RABBIT_NOTIFY_QUEUE" default:"storefront.notify"`
	Prefetch int    `envconfig:"RABBIT_PREFETCH" default:"8"`
}

type TracingConfig struct {
	Enabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	Endpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	Service  string `envconfig:"OTEL_SERVICE_NAME" default:"storefront"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM" default:"no-reply@storefront.local"`
}

// Load reads a local .env (if present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	for i, e := range c.AdminEmails {
		c.AdminEmails[i] = strings.ToLower(strings.TrimSpace(e))
	}
	return c, nil
}

// IsDev reports whether the service runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}
