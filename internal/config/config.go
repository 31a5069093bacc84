package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config 预处理器配置
type Config struct {
	Debug            bool `mapstructure:"debug"`
	ShieldDirectives bool `mapstructure:"shield_directives"`
	ShieldCodeBlocks bool `mapstructure:"shield_code_blocks"`
	ShieldRawMarkup  bool `mapstructure:"shield_raw_markup"`
}

// Default 默认配置：三类屏蔽全部开启
func Default() *Config {
	return &Config{
		ShieldDirectives: true,
		ShieldCodeBlocks: true,
		ShieldRawMarkup:  true,
	}
}

// Load 加载配置文件
// configPath 为空时在当前目录和用户主目录搜索 .mdshield.yaml，
// 找不到配置文件不算错误，返回默认配置
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("debug", false)
	v.SetDefault("shield_directives", true)
	v.SetDefault("shield_code_blocks", true)
	v.SetDefault("shield_raw_markup", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".mdshield")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if configPath == "" {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				return Default(), nil
			}
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
