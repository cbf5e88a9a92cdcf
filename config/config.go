package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Metrics struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"metrics"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	}
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	JWT         JWTConfig `mapstructure:"jwt"`
	Recommender struct {
		EmbeddingsFile string        `mapstructure:"embeddingsFile"`
		EncoderModel   string        `mapstructure:"encoderModel"`
		DisableEncoder bool          `mapstructure:"disableEncoder"`
		CacheMaxSize   int           `mapstructure:"cacheMaxSize"`
		CacheTTL       time.Duration `mapstructure:"cacheTTL"`
		SessionTTL     time.Duration `mapstructure:"sessionTTL"`
		DefaultLimit   int           `mapstructure:"defaultLimit"`
		MaxLimit       int           `mapstructure:"maxLimit"`
	} `mapstructure:"recommender"`
}

// JWTConfig drives access token signing and validation. The secret key is
// overlaid from the environment at startup, never stored in config files.
type JWTConfig struct {
	SecretKey    string        `mapstructure:"secretKey"`
	Issuer       string        `mapstructure:"issuer"`
	Audience     string        `mapstructure:"audience"`
	AccessExpiry time.Duration `mapstructure:"accessExpiry"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	return config, nil
}
