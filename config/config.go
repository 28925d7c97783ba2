package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	Server struct {
		ReadTimeout     int `mapstructure:"readTimeout"`
		WriteTimeout    int `mapstructure:"writeTimeout"`
		ShutdownTimeout int `mapstructure:"shutdownTimeout"`
	} `mapstructure:"server"`
	Database struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Stripe struct {
		SecretKey           string `mapstructure:"secretKey"`
		WebhookSecret       string `mapstructure:"webhookSecret"`
		ProfessionalPriceID string `mapstructure:"professionalPriceId"`
		EnterprisePriceID   string `mapstructure:"enterprisePriceId"`
	} `mapstructure:"stripe"`
	Auth struct {
		JWTSecret string        `mapstructure:"jwtSecret"`
		TokenTTL  time.Duration `mapstructure:"tokenTtl"`
	} `mapstructure:"auth"`
}

// Load reads configuration from config.yaml and the environment. Outside
// production a local .env file is loaded first if present.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// Missing .env is fine, environment variables still apply.
		_ = godotenv.Load()
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("server.readTimeout", 10)
	viper.SetDefault("server.writeTimeout", 10)
	viper.SetDefault("server.shutdownTimeout", 15)
	viper.SetDefault("auth.tokenTtl", 24*time.Hour)

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional when everything comes from the env.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
