package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"reportdesk/pkg/reportdesk"
	"reportdesk/pkg/reportparse"
)

const (
	defaultDBName   = "reportdesk.db"
	configFileName  = "config.yaml"
	envConfigPath   = "REPORTDESK_CONFIG"
	envDataDir      = "REPORTDESK_DATA_DIR"
	envDBPath       = "REPORTDESK_DB_PATH"
	envTimeZone     = "REPORTDESK_TIMEZONE"
	appDirName      = "ReportDesk"
	unixAppDirName  = "reportdesk"
	defaultTimeZone = "Asia/Kolkata"
)

// AppConfig is the YAML configuration file.
type AppConfig struct {
	DBName   string       `yaml:"db_name"`
	DataDir  string       `yaml:"data_dir"`
	TimeZone string       `yaml:"timezone"`
	LLM      LLMConfig    `yaml:"llm"`
	Report   ReportConfig `yaml:"report"`
}

// LLMConfig holds model defaults. API keys are read from the environment only.
type LLMConfig struct {
	Provider          string  `yaml:"provider"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
	RequestBurst      int     `yaml:"request_burst"`
}

// ReportConfig overrides parser and shortener tunables. Zero values keep the
// defaults.
type ReportConfig struct {
	MaxEntries     int    `yaml:"max_entries"`
	MinEntries     int    `yaml:"min_entries"`
	SentenceLimit  int    `yaml:"sentence_limit"`
	FallbackLimit  int    `yaml:"fallback_limit"`
	InlineMarkers  bool   `yaml:"inline_markers"`
	DefaultInsight string `yaml:"default_insight"`
	DisclaimerText string `yaml:"disclaimer_text"`
}

var runtimeDataDir string
var runtimePort = 8000

func IsMacOS() bool {
	return runtime.GOOS == "darwin"
}

func IsWindows() bool {
	return runtime.GOOS == "windows"
}

func SetRuntimeDataDir(dir string) {
	runtimeDataDir = dir
}

func SetRuntimePort(port int) {
	if port > 0 {
		runtimePort = port
	}
}

func GetRuntimePort() int {
	return runtimePort
}

// Default returns the configuration used when no file exists.
func Default() AppConfig {
	ai := reportdesk.DefaultAISettings()
	report := reportparse.DefaultConfig()
	return AppConfig{
		DBName:   defaultDBName,
		TimeZone: defaultTimeZone,
		LLM: LLMConfig{
			Provider:       ai.Provider,
			BaseURL:        ai.BaseURL,
			Model:          ai.Model,
			Temperature:    ai.Temperature,
			MaxTokens:      ai.MaxTokens,
			TimeoutSeconds: 120,
		},
		Report: ReportConfig{
			MaxEntries:    report.MaxEntries,
			MinEntries:    report.MinEntries,
			SentenceLimit: report.SentenceLimit,
			FallbackLimit: report.FallbackLimit,
		},
	}
}

func appConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if IsMacOS() {
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appDirName), nil
	}
	if IsWindows() {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, appDirName), nil
	}
	configDir, cfgErr := os.UserConfigDir()
	if cfgErr != nil {
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", unixAppDirName), nil
	}
	return filepath.Join(configDir, unixAppDirName), nil
}

// ConfigPath resolves which config file to read: explicit path, then
// REPORTDESK_CONFIG, then config.yaml in the app config dir.
func ConfigPath(explicit string) (string, error) {
	if p := strings.TrimSpace(explicit); p != "" {
		return p, nil
	}
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p, nil
	}
	dir, err := appConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file chosen by ConfigPath. A missing default file
// yields Default(); a missing explicit file is an error.
func Load(explicit string) (AppConfig, error) {
	path, err := ConfigPath(explicit)
	if err != nil {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && strings.TrimSpace(explicit) == "" && os.Getenv(envConfigPath) == "" {
		return Default(), nil
	}
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return AppConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default(). Unknown keys are rejected.
func Parse(r io.Reader) (AppConfig, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return AppConfig{}, err
	}
	if strings.TrimSpace(cfg.DBName) == "" {
		cfg.DBName = defaultDBName
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg AppConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// GetDataDir resolves the data directory: runtime flag, REPORTDESK_DATA_DIR,
// config data_dir, then the app config dir. The directory is created.
func GetDataDir(cfg AppConfig) (string, error) {
	dir := runtimeDataDir
	if dir == "" {
		dir = os.Getenv(envDataDir)
	}
	if dir == "" {
		dir = cfg.DataDir
	}
	if dir == "" {
		defaultDir, err := appConfigDir()
		if err != nil {
			return "", err
		}
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetDBPath returns REPORTDESK_DB_PATH or <data dir>/<db_name>.
func GetDBPath(cfg AppConfig) (string, error) {
	if envPath := os.Getenv(envDBPath); envPath != "" {
		return envPath, nil
	}
	dataDir, err := GetDataDir(cfg)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(cfg.DBName)
	if name == "" {
		name = defaultDBName
	}
	return filepath.Join(dataDir, name), nil
}

// ReportConfig applies the file's overrides to reportparse.DefaultConfig.
func (c AppConfig) ReportConfig() reportparse.Config {
	cfg := reportparse.DefaultConfig()
	r := c.Report
	if r.MaxEntries > 0 {
		cfg.MaxEntries = r.MaxEntries
	}
	if r.MinEntries > 0 {
		cfg.MinEntries = r.MinEntries
	}
	if r.SentenceLimit > 0 {
		cfg.SentenceLimit = r.SentenceLimit
	}
	if r.FallbackLimit > 0 {
		cfg.FallbackLimit = r.FallbackLimit
	}
	cfg.InlineMarkers = r.InlineMarkers
	if strings.TrimSpace(r.DefaultInsight) != "" {
		cfg.DefaultInsight = r.DefaultInsight
	}
	if strings.TrimSpace(r.DisclaimerText) != "" {
		cfg.DisclaimerText = r.DisclaimerText
	}
	return cfg
}

// AISettings converts the llm section to model defaults.
func (c AppConfig) AISettings() reportdesk.AISettings {
	return reportdesk.AISettings{
		Provider:    c.LLM.Provider,
		BaseURL:     c.LLM.BaseURL,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
	}
}

// CoreOptions builds reportdesk.Options for dbPath. API keys come from the
// provider environment variables.
func (c AppConfig) CoreOptions(dbPath string, logger *slog.Logger) reportdesk.Options {
	tz := c.TimeZone
	if env := strings.TrimSpace(os.Getenv(envTimeZone)); env != "" {
		tz = env
	}
	return reportdesk.Options{
		DBPath:            dbPath,
		Logger:            logger,
		LLM:               c.AISettings(),
		APIKeys:           APIKeysFromEnv(),
		Report:            c.ReportConfig(),
		RequestTimeout:    time.Duration(c.LLM.TimeoutSeconds) * time.Second,
		RequestsPerMinute: c.LLM.RequestsPerMinute,
		RequestBurst:      c.LLM.RequestBurst,
		TimeZone:          tz,
	}
}

// APIKeysFromEnv returns the provider keys that are set.
func APIKeysFromEnv() map[string]string {
	keys := map[string]string{}
	for _, provider := range reportdesk.Providers {
		if v := strings.TrimSpace(os.Getenv(reportdesk.APIKeyEnv(provider))); v != "" {
			keys[provider] = v
		}
	}
	return keys
}
