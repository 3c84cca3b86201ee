package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/opscheck/internal/models"
)

type Config struct {
	Server struct {
		Port int
	}
	Database struct {
		Path string
	}
	Checks   []string
	Rollover struct {
		IntervalSeconds int
	}
	Auth struct {
		JWTSecret     string
		TokenTTLHours int
	}
	Email struct {
		SMTPHost string
		SMTPPort int
		From     string
		Password string
	}
	Slack struct {
		Token   string
		Channel string
	}
	Telemetry struct {
		URL            string
		Username       string
		Password       string
		Host           string
		TempKey        string
		HumidityKey    string
		TimeoutSeconds int
		// Threshold rules for classifying readings.
		TempCeiling float64
		HumidityMin float64
		HumidityMax float64
	}
}

// LoadConfig loads the configuration from config.yaml
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	var config Config

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, write one with the defaults
			if err := os.MkdirAll("data", 0755); err != nil {
				fmt.Printf("Warning: Failed to create data directory: %v\n", err)
			}
			if err := viper.SafeWriteConfig(); err != nil {
				fmt.Printf("Warning: Failed to write default config: %v\n", err)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Printf("Error unmarshaling config: %v\n", err)
	}

	if len(config.Checks) == 0 {
		config.Checks = models.DefaultChecks
	}

	return &config
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.path", "data/opscheck.db")
	viper.SetDefault("rollover.intervalseconds", 1)
	viper.SetDefault("auth.jwtsecret", "change-me")
	viper.SetDefault("auth.tokenttlhours", 24)
	viper.SetDefault("telemetry.timeoutseconds", 5)
	viper.SetDefault("telemetry.tempceiling", 28.0)
	viper.SetDefault("telemetry.humiditymin", 40.0)
	viper.SetDefault("telemetry.humiditymax", 60.0)
	viper.SetDefault("telemetry.tempkey", "sensor.temp")
	viper.SetDefault("telemetry.humiditykey", "sensor.humidity")
}
