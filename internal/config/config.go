package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Plans    PlansConfig    `mapstructure:"plans"`
	Status   StatusConfig   `mapstructure:"status"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// Mode is passed to gin.SetMode: debug, release or test.
	Mode string `mapstructure:"mode"`
}

// Database drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	// PublicBaseURL is prefixed to object keys to build the URL stored on
	// programs. Defaults to <endpoint>/<bucket>.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// NATSConfig configures the domain event publisher. An empty URL disables it.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// StripeConfig configures hosted checkout for paid plans.
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	SuccessURL    string `mapstructure:"success_url"`
	CancelURL     string `mapstructure:"cancel_url"`
	// Price ids per paid plan.
	PriceOTP      string `mapstructure:"price_otp"`
	PriceStandard string `mapstructure:"price_standard"`
	PricePremium  string `mapstructure:"price_premium"`
}

type PlansConfig struct {
	TrialDuration time.Duration `mapstructure:"trial_duration"`
	// PaidDuration is the billing period granted when a checkout completes.
	PaidDuration time.Duration `mapstructure:"paid_duration"`
}

// StatusConfig holds the client status thresholds.
type StatusConfig struct {
	InactivityThreshold time.Duration `mapstructure:"inactivity_threshold"`
	NewWindow           time.Duration `mapstructure:"new_window"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var defaults = map[string]interface{}{
	"server.address":              ":8080",
	"server.mode":                 "release",
	"database.driver":             DriverMongo,
	"database.uri":                "mongodb://localhost:27017",
	"database.name":               "coaching_app",
	"s3.endpoint":                 "",
	"s3.region":                   "us-east-1",
	"s3.access_key_id":            "",
	"s3.secret_access_key":        "",
	"s3.bucket_name":              "",
	"s3.use_ssl":                  true,
	"s3.public_base_url":          "",
	"jwt.secret":                  "",
	"jwt.expiration":              "1h",
	"nats.url":                    "",
	"nats.subject_prefix":         "coaching",
	"stripe.secret_key":           "",
	"stripe.webhook_secret":       "",
	"stripe.success_url":          "http://localhost:3000/checkout/success",
	"stripe.cancel_url":           "http://localhost:3000/checkout/cancel",
	"stripe.price_otp":            "",
	"stripe.price_standard":       "",
	"stripe.price_premium":        "",
	"plans.trial_duration":        "336h",
	"plans.paid_duration":         "720h",
	"status.inactivity_threshold": "168h",
	"status.new_window":           "336h",
	"log.level":                   "info",
}

// LoadConfig reads configuration from <path>/config.yaml and the
// environment. Nested keys map to env vars with dots replaced by
// underscores, e.g. jwt.expiration -> JWT_EXPIRATION.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// Every key needs a default so that AutomaticEnv can see it during Unmarshal.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil // Proceed on defaults and env vars alone
	} else if err != nil {
		return
	}

	// Duration strings ("60m", "1h") decode straight into time.Duration fields.
	if err = v.Unmarshal(&config); err != nil {
		return
	}
	return config, config.Validate()
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Database.Driver {
	case DriverMongo, DriverMemory:
	default:
		return errors.New("database.driver must be mongo or memory")
	}
	if c.JWT.Expiration <= 0 {
		return errors.New("jwt.expiration must be positive")
	}
	return nil
}
