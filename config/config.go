package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	LLM struct {
		Model string `mapstructure:"model"`
	} `mapstructure:"llm"`
	App struct {
		Timezone    string `mapstructure:"timezone"`
		DefaultCity string `mapstructure:"defaultCity"`
		POILimit    int    `mapstructure:"poiLimit"`
	} `mapstructure:"app"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Environment overrides keep parity with the deployment knobs the app
	// has always honoured.
	if model := os.Getenv("LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		config.App.Timezone = tz
	}
	if port := os.Getenv("HTTP_PORT"); port != "" {
		config.Server.HTTPPort = port
	}
	return config, nil
}
