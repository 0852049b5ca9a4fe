package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

type LLMConfig struct {
	Provider string        `json:"provider" yaml:"provider"`
	Model    string        `json:"model" yaml:"model"`
	APIKey   string        `json:"apiKey" yaml:"apiKey"`
	BaseURL  string        `json:"baseURL" yaml:"baseURL"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

func NewDefaultLLMConfig() *LLMConfig {
	return &LLMConfig{
		Provider: ProviderGroq,
		Timeout:  60 * time.Second,
	}
}

func (l *LLMConfig) keyEnv() []string {
	if l.Provider == ProviderGemini {
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	return []string{"GROQ_API_KEY"}
}

func (l *LLMConfig) Validate() []error {
	var errs = make([]error, 0)
	switch l.Provider {
	case ProviderGroq, ProviderGemini:
	default:
		errs = append(errs, errors.Errorf("llm.provider must be %q or %q, got %q", ProviderGroq, ProviderGemini, l.Provider))
	}
	if l.Timeout < 0 {
		errs = append(errs, errors.Errorf("llm.timeout must not be negative"))
	}
	return errs
}

type RetryConfig struct {
	MaxAttempts int           `json:"maxAttempts" yaml:"maxAttempts"`
	MinWait     time.Duration `json:"minWait" yaml:"minWait"`
	MaxWait     time.Duration `json:"maxWait" yaml:"maxWait"`
	Multiplier  time.Duration `json:"multiplier" yaml:"multiplier"`
}

func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		MinWait:     4 * time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  time.Second,
	}
}

func (r *RetryConfig) Validate() []error {
	var errs = make([]error, 0)
	if r.MaxAttempts < 1 {
		errs = append(errs, errors.Errorf("retry.maxAttempts must be at least 1"))
	}
	if r.MinWait < 0 || r.MaxWait < 0 || r.Multiplier < 0 {
		errs = append(errs, errors.Errorf("retry waits must not be negative"))
	}
	if r.MaxWait < r.MinWait {
		errs = append(errs, errors.Errorf("retry.maxWait (%s) is below retry.minWait (%s)", r.MaxWait, r.MinWait))
	}
	return errs
}

type SearchConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	APIKey    string `json:"apiKey" yaml:"apiKey"`
	BaseURL   string `json:"baseURL" yaml:"baseURL"`
	Query     string `json:"query" yaml:"query"`
	Intensity int    `json:"intensity" yaml:"intensity"`
}

func NewDefaultSearchConfig() *SearchConfig {
	return &SearchConfig{Intensity: 3}
}

func (s *SearchConfig) Validate() []error {
	var errs = make([]error, 0)
	if s.Intensity < 1 || s.Intensity > 10 {
		errs = append(errs, errors.Errorf("search.intensity must be between 1 and 10, got %d", s.Intensity))
	}
	return errs
}

type SheetsConfig struct {
	CredentialsFile string `json:"credentialsFile" yaml:"credentialsFile"`
}

func (s *SheetsConfig) Validate() []error {
	var errs = make([]error, 0)
	if s.CredentialsFile == "" {
		return errs
	}
	if _, err := os.Stat(s.CredentialsFile); err != nil {
		errs = append(errs, errors.Errorf("sheets.credentialsFile: %v", err))
	}
	return errs
}

const (
	DriverDuckDB = "duckdb"
	DriverMySQL  = "mysql"
)

type HistoryConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

func NewDefaultHistoryConfig() *HistoryConfig {
	return &HistoryConfig{}
}

func (h *HistoryConfig) Validate() []error {
	var errs = make([]error, 0)
	switch strings.ToLower(h.Driver) {
	case "":
	case DriverDuckDB:
	case DriverMySQL:
		if h.DSN == "" {
			errs = append(errs, errors.Errorf("history.dsn is required for the mysql driver"))
		}
	default:
		errs = append(errs, errors.Errorf("history.driver must be %q, %q or empty, got %q", DriverDuckDB, DriverMySQL, h.Driver))
	}
	return errs
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

func NewDefaultServerConfig() *ServerConfig {
	return &ServerConfig{Addr: ":8080"}
}

func (s *ServerConfig) Validate() []error {
	var errs = make([]error, 0)
	if s.Addr == "" {
		errs = append(errs, errors.Errorf("server.addr must not be empty"))
	}
	return errs
}

type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

func NewDefaultLogConfig() *LogConfig {
	return &LogConfig{Level: "info"}
}

func (l *LogConfig) Validate() []error {
	var errs = make([]error, 0)
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, errors.Errorf("log.level must be debug, info, warn or error, got %q", l.Level))
	}
	return errs
}
