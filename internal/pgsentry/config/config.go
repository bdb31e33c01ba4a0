package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type LoggingCfg struct {
	Level string `mapstructure:"level"`
}

type EveCfg struct {
	// QueryTextCap bounds emitted statement text, in bytes.
	QueryTextCap int `mapstructure:"query_text_cap"`
}

type OutputCfg struct {
	File       string `mapstructure:"file"`
	RejectFile string `mapstructure:"reject_file"`
	RunLog     string `mapstructure:"run_log"`
}

type Config struct {
	Version string     `mapstructure:"version"`
	Eve     EveCfg     `mapstructure:"eve"`
	Output  OutputCfg  `mapstructure:"output"`
	Logging LoggingCfg `mapstructure:"logging"`
}

var cfg *Config

// Load populates global config from a viper instance.
func Load(v *viper.Viper) error {
	// set defaults
	v.SetDefault("version", "0.1")
	v.SetDefault("eve.query_text_cap", 4096)
	v.SetDefault("logging.level", "info")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = &c
	return nil
}

func Get() *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg
}
