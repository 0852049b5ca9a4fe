// Package config loads tabextract settings from YAML, the environment and .env.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type IConfig interface {
	Validate() []error
}

type GlobalConfig struct {
	LLM     *LLMConfig     `json:"llm" yaml:"llm"`
	Retry   *RetryConfig   `json:"retry" yaml:"retry"`
	Search  *SearchConfig  `json:"search" yaml:"search"`
	Sheets  *SheetsConfig  `json:"sheets" yaml:"sheets"`
	History *HistoryConfig `json:"history" yaml:"history"`
	Server  *ServerConfig  `json:"server" yaml:"server"`
	Log     *LogConfig     `json:"log" yaml:"log"`
}

func (g *GlobalConfig) Validate() []error {
	var errs = make([]error, 0)
	if g.LLM != nil {
		errs = append(errs, g.LLM.Validate()...)
	}
	if g.Retry != nil {
		errs = append(errs, g.Retry.Validate()...)
	}
	if g.Search != nil {
		errs = append(errs, g.Search.Validate()...)
	}
	if g.Sheets != nil {
		errs = append(errs, g.Sheets.Validate()...)
	}
	if g.History != nil {
		errs = append(errs, g.History.Validate()...)
	}
	if g.Server != nil {
		errs = append(errs, g.Server.Validate()...)
	}
	if g.Log != nil {
		errs = append(errs, g.Log.Validate()...)
	}
	return errs
}

func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LLM:     NewDefaultLLMConfig(),
		Retry:   NewDefaultRetryConfig(),
		Search:  NewDefaultSearchConfig(),
		Sheets:  &SheetsConfig{},
		History: NewDefaultHistoryConfig(),
		Server:  NewDefaultServerConfig(),
		Log:     NewDefaultLogConfig(),
	}
}

// Load reads .env (when present), then the config file at path, then fills
// unset API keys from the environment. An empty path skips the file.
func Load(path string) (*GlobalConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}
	cfg := NewDefaultGlobalConfig()
	if path != "" {
		var err error
		if cfg, err = TryLoadFromDisk(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func TryLoadFromDisk(configFilePath string) (*GlobalConfig, error) {
	_, err := os.Stat(configFilePath)
	if err != nil {
		return nil, err
	}
	dir, file := filepath.Split(configFilePath)
	fileType := filepath.Ext(file)
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(strings.TrimSuffix(file, fileType))
	v.SetConfigType(strings.TrimPrefix(fileType, "."))
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.ReadInConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
		return nil, errors.Errorf("parse config file: %s", err.Error())
	}
	cfg := NewDefaultGlobalConfig()
	if err := v.Unmarshal(cfg, func(config *mapstructure.DecoderConfig) {
		config.TagName = "yaml"
	}); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

func (g *GlobalConfig) applyEnv() {
	if g.LLM != nil && g.LLM.APIKey == "" {
		g.LLM.APIKey = firstEnv(g.LLM.keyEnv()...)
	}
	if g.Search != nil && g.Search.APIKey == "" {
		g.Search.APIKey = firstEnv("SERPAPI_API_KEY", "SERP_API_KEY")
	}
	if g.Sheets != nil && g.Sheets.CredentialsFile == "" {
		g.Sheets.CredentialsFile = firstEnv("GOOGLE_APPLICATION_CREDENTIALS")
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
