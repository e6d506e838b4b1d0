package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"reportdesk/pkg/reportdesk"
	"reportdesk/pkg/reportparse"
)

func TestRuntimePort(t *testing.T) {
	orig := GetRuntimePort()
	defer SetRuntimePort(orig)

	SetRuntimePort(0)
	if got := GetRuntimePort(); got != orig {
		t.Fatalf("expected port to remain %d, got %d", orig, got)
	}

	SetRuntimePort(9090)
	if got := GetRuntimePort(); got != 9090 {
		t.Fatalf("expected port 9090, got %d", got)
	}
}

func TestDataDirPrecedence(t *testing.T) {
	SetRuntimeDataDir("")
	defer SetRuntimeDataDir("")

	cfgDir := filepath.Join(t.TempDir(), "from-config")
	cfg := Default()
	cfg.DataDir = cfgDir

	envDir := filepath.Join(t.TempDir(), "from-env")
	t.Setenv(envDataDir, envDir)
	runtimeDir := t.TempDir()
	SetRuntimeDataDir(runtimeDir)

	dir, err := GetDataDir(cfg)
	if err != nil {
		t.Fatalf("GetDataDir: %v", err)
	}
	if dir != runtimeDir {
		t.Fatalf("expected runtime dir %q, got %q", runtimeDir, dir)
	}

	SetRuntimeDataDir("")
	dir, err = GetDataDir(cfg)
	if err != nil {
		t.Fatalf("GetDataDir env: %v", err)
	}
	if dir != envDir {
		t.Fatalf("expected env dir %q, got %q", envDir, dir)
	}
	if _, err := os.Stat(envDir); err != nil {
		t.Fatalf("expected env dir to be created: %v", err)
	}

	t.Setenv(envDataDir, "")
	dir, err = GetDataDir(cfg)
	if err != nil {
		t.Fatalf("GetDataDir config: %v", err)
	}
	if dir != cfgDir {
		t.Fatalf("expected config dir %q, got %q", cfgDir, dir)
	}
}

func TestGetDBPath(t *testing.T) {
	SetRuntimeDataDir("")
	defer SetRuntimeDataDir("")

	path := filepath.Join(t.TempDir(), "db.sqlite")
	t.Setenv(envDBPath, path)
	got, err := GetDBPath(Default())
	if err != nil {
		t.Fatalf("GetDBPath: %v", err)
	}
	if got != path {
		t.Fatalf("expected %q, got %q", path, got)
	}

	t.Setenv(envDBPath, "")
	dir := t.TempDir()
	SetRuntimeDataDir(dir)
	cfg := Default()
	cfg.DBName = "  "
	got, err = GetDBPath(cfg)
	if err != nil {
		t.Fatalf("GetDBPath default name: %v", err)
	}
	if got != filepath.Join(dir, defaultDBName) {
		t.Fatalf("unexpected db path %q", got)
	}
}

func TestIsMacOSWindows(t *testing.T) {
	if IsMacOS() != (runtime.GOOS == "darwin") {
		t.Fatalf("IsMacOS mismatch")
	}
	if IsWindows() != (runtime.GOOS == "windows") {
		t.Fatalf("IsWindows mismatch")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(strings.NewReader(`
db_name: reports.db
llm:
  provider: openai
  model: gpt-4o
  temperature: 0.2
  requests_per_minute: 30
report:
  max_entries: 5
  inline_markers: true
  default_insight: Watch rates.
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.DBName != "reports.db" || cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.LLM.MaxTokens != 512 || cfg.LLM.TimeoutSeconds != 120 {
		t.Fatalf("defaults should survive partial files: %+v", cfg.LLM)
	}

	report := cfg.ReportConfig()
	if report.MaxEntries != 5 || !report.InlineMarkers || report.DefaultInsight != "Watch rates." {
		t.Fatalf("overrides not applied: %+v", report)
	}
	if report.SentenceLimit != reportparse.DefaultConfig().SentenceLimit {
		t.Fatalf("sentence limit should keep default, got %d", report.SentenceLimit)
	}
	if err := report.Validate(); err != nil {
		t.Fatalf("report config invalid: %v", err)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	if _, err := Parse(strings.NewReader("llm:\n  api_key: secret\n")); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("empty file should yield defaults, got %+v", cfg)
	}
}

func TestLoadAndSave(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	t.Setenv(envConfigPath, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "custom.yaml")
	cfg.DBName = "custom.db"
	cfg.LLM.Provider = "gemini"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load explicit: %v", err)
	}
	if loaded != cfg {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}

	t.Setenv(envConfigPath, path)
	fromEnv, err := Load("")
	if err != nil {
		t.Fatalf("Load env: %v", err)
	}
	if fromEnv.DBName != "custom.db" {
		t.Fatalf("expected env config, got %+v", fromEnv)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit file")
	}
}

func TestCoreOptions(t *testing.T) {
	t.Setenv("GROQ_API_KEY", " groq-key ")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv(envTimeZone, "UTC")

	cfg := Default()
	cfg.LLM.TimeoutSeconds = 30
	cfg.LLM.RequestsPerMinute = 12
	opts := cfg.CoreOptions("/tmp/x.db", nil)

	if opts.DBPath != "/tmp/x.db" || opts.TimeZone != "UTC" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.RequestTimeout != 30*time.Second || opts.RequestsPerMinute != 12 {
		t.Fatalf("unexpected limits: %v %d", opts.RequestTimeout, opts.RequestsPerMinute)
	}
	if opts.APIKeys[reportdesk.ProviderGroq] != "groq-key" {
		t.Fatalf("expected trimmed groq key, got %q", opts.APIKeys[reportdesk.ProviderGroq])
	}
	if _, ok := opts.APIKeys[reportdesk.ProviderOpenAI]; ok {
		t.Fatal("unset keys should be omitted")
	}
	if opts.LLM != reportdesk.DefaultAISettings() {
		t.Fatalf("unexpected llm defaults: %+v", opts.LLM)
	}
}
