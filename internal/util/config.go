package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"

	TokenTypePaseto = "paseto"
	TokenTypeJWT    = "jwt"
)

type Config struct {
	Environment         string        `mapstructure:"ENVIRONMENT"`
	Port                string        `mapstructure:"PORT"`
	StoreDriver         string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	MongoURI            string        `mapstructure:"MONGO_URI"`
	MongoDatabase       string        `mapstructure:"MONGO_DATABASE"`
	SemanticAPIKey      string        `mapstructure:"SEMANTIC_API_KEY"`
	SemanticAPIURL      string        `mapstructure:"SEMANTIC_API_URL"`
	SummarizerURL       string        `mapstructure:"SUMMARIZER_URL"`
	SummarizerAPIKey    string        `mapstructure:"SUMMARIZER_API_KEY"`
	HTTPTimeout         time.Duration `mapstructure:"HTTP_TIMEOUT"`
	TokenType           string        `mapstructure:"TOKEN_TYPE"`
	TokenSecretKey      string        `mapstructure:"TOKEN_SECRET_KEY"`
	AccessTokenDuration time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
}

var defaults = map[string]any{
	"ENVIRONMENT":           "development",
	"PORT":                  "8080",
	"STORE_DRIVER":          StoreDriverPostgres,
	"DATABASE_URL":          "",
	"MONGO_URI":             "mongodb://localhost:27017",
	"MONGO_DATABASE":        "lucid",
	"SEMANTIC_API_KEY":      "",
	"SEMANTIC_API_URL":      "https://api.semanticscholar.org/graph/v1/paper/search",
	"SUMMARIZER_URL":        "https://api-inference.huggingface.co/models/facebook/bart-large-cnn",
	"SUMMARIZER_API_KEY":    "",
	"HTTP_TIMEOUT":          "60s",
	"TOKEN_TYPE":            TokenTypePaseto,
	"TOKEN_SECRET_KEY":      "",
	"ACCESS_TOKEN_DURATION": "24h",
}

// LoadConfig reads app.env from path when present and lets environment
// variables override it. Every key has a default so AutomaticEnv can bind it.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decoding config: %w", err)
	}
	return config, nil
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case StoreDriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return errors.New("MONGO_URI and MONGO_DATABASE are required for the mongo store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.TokenType {
	case TokenTypePaseto, TokenTypeJWT:
	default:
		return fmt.Errorf("unsupported TOKEN_TYPE %q", c.TokenType)
	}
	if c.TokenSecretKey == "" {
		return errors.New("TOKEN_SECRET_KEY is required")
	}
	if c.AccessTokenDuration <= 0 {
		return errors.New("ACCESS_TOKEN_DURATION must be positive")
	}
	return nil
}
