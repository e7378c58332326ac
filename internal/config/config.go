// Package config loads service configuration from a YAML file with
// RINGSIGHT_-prefixed environment overrides. Detection defaults match the
// documented detection contract.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ringsight/ringsight/internal/detection"
)

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DetectionConfig struct {
	MinCycleLength        int     `mapstructure:"min_cycle_length"`
	MaxCycleLength        int     `mapstructure:"max_cycle_length"`
	SmurfWindowHours      int     `mapstructure:"smurf_window_hours"`
	MinWindowTransactions int     `mapstructure:"min_window_transactions"`
	MinUniqueSenders      int     `mapstructure:"min_unique_senders"`
	MinFanOutReceivers    int     `mapstructure:"min_fan_out_receivers"`
	SmurfRiskFloor        float64 `mapstructure:"smurf_risk_floor"`
	ShellFastSpreadHours  int     `mapstructure:"shell_fast_spread_hours"`
}

type PoolConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Detection DetectionConfig `mapstructure:"detection"`
	Pool      PoolConfig      `mapstructure:"pool"`
}

// Core converts the file-level thresholds into the detection package's config.
func (d DetectionConfig) Core() detection.Config {
	return detection.Config{
		MinCycleLength:        d.MinCycleLength,
		MaxCycleLength:        d.MaxCycleLength,
		SmurfWindow:           time.Duration(d.SmurfWindowHours) * time.Hour,
		MinWindowTransactions: d.MinWindowTransactions,
		MinUniqueSenders:      d.MinUniqueSenders,
		MinFanOutReceivers:    d.MinFanOutReceivers,
		SmurfRiskFloor:        d.SmurfRiskFloor,
		ShellFastSpread:       time.Duration(d.ShellFastSpreadHours) * time.Hour,
	}
}

// Load reads config.yaml from the given directory (or the working directory
// and ./configs when empty). A missing file is fine; defaults and environment
// variables still apply.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	v.SetEnvPrefix("RINGSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := detection.DefaultConfig()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("detection.min_cycle_length", def.MinCycleLength)
	v.SetDefault("detection.max_cycle_length", def.MaxCycleLength)
	v.SetDefault("detection.smurf_window_hours", int(def.SmurfWindow.Hours()))
	v.SetDefault("detection.min_window_transactions", def.MinWindowTransactions)
	v.SetDefault("detection.min_unique_senders", def.MinUniqueSenders)
	v.SetDefault("detection.min_fan_out_receivers", def.MinFanOutReceivers)
	v.SetDefault("detection.smurf_risk_floor", def.SmurfRiskFloor)
	v.SetDefault("detection.shell_fast_spread_hours", int(def.ShellFastSpread.Hours()))
	v.SetDefault("pool.max_concurrent", 4)
}

func (c *Config) validate() error {
	d := c.Detection
	if d.MinCycleLength < 2 {
		return fmt.Errorf("detection.min_cycle_length must be at least 2, got %d", d.MinCycleLength)
	}
	if d.MaxCycleLength < d.MinCycleLength {
		return fmt.Errorf("detection.max_cycle_length %d is below min_cycle_length %d", d.MaxCycleLength, d.MinCycleLength)
	}
	if d.SmurfWindowHours <= 0 {
		return fmt.Errorf("detection.smurf_window_hours must be positive, got %d", d.SmurfWindowHours)
	}
	if d.SmurfRiskFloor < 0 || d.SmurfRiskFloor > 1 {
		return fmt.Errorf("detection.smurf_risk_floor must be in [0,1], got %v", d.SmurfRiskFloor)
	}
	if c.Pool.MaxConcurrent < 1 {
		return fmt.Errorf("pool.max_concurrent must be at least 1, got %d", c.Pool.MaxConcurrent)
	}
	return nil
}
