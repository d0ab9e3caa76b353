package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	Secret         string        `mapstructure:"secret"`
	RoomCodeBytes  int           `mapstructure:"room_code_bytes"`
	CreateLimit    int           `mapstructure:"create_limit"`
	CreateInterval time.Duration `mapstructure:"create_interval"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 8192)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("room_code_bytes", 4)
	v.SetDefault("create_limit", 10)
	v.SetDefault("create_interval", "1m")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d\n", cfg.Mode, cfg.Port)
	return &cfg, nil
}
