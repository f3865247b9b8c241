// Package config handles loading and validating the deskpilot configuration.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the root configuration for deskpilot.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Transports  TransportsConfig  `mapstructure:"transports"`
	Interpreter InterpreterConfig `mapstructure:"interpreter"`
	Data        DataConfig        `mapstructure:"data"`
	Desktop     DesktopConfig     `mapstructure:"desktop"`
	Voice       VoiceConfig       `mapstructure:"voice"`
	Sysmon      SysmonConfig      `mapstructure:"sysmon"`
	Organizer   OrganizerConfig   `mapstructure:"organizer"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	TTS         TTSConfig         `mapstructure:"tts"`
	Messaging   MessagingConfig   `mapstructure:"messaging"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds the health and metrics server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each remote transport.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
	MQTT MQTTConfig `mapstructure:"mqtt"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
	// Swagger serves the API docs under /swagger/.
	Swagger bool `mapstructure:"swagger"`
}

// MQTTConfig configures the MQTT transport.
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      byte   `mapstructure:"qos"`
}

// InterpreterConfig selects and configures the AI backend.
type InterpreterConfig struct {
	Backend   string        `mapstructure:"backend"` // "gemini", "openai" or "local"
	Timeout   time.Duration `mapstructure:"timeout"`
	CacheSize int           `mapstructure:"cache_size"` // 0 disables the cache
	OpenAI    OpenAIConfig  `mapstructure:"openai"`
	Gemini    GeminiConfig  `mapstructure:"gemini"`
	Local     LocalConfig   `mapstructure:"local"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	TranscriptionModel string `mapstructure:"transcription_model"`
	CompletionModel    string `mapstructure:"completion_model"`
}

// GeminiConfig holds Google Generative Language API settings.
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// LocalConfig holds self-hosted model settings.
type LocalConfig struct {
	WhisperEndpoint string `mapstructure:"whisper_endpoint"`
	WhisperType     string `mapstructure:"whisper_type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	LLMEndpoint     string `mapstructure:"llm_endpoint"`
	LLMModel        string `mapstructure:"llm_model"` // Ollama model name (e.g., "llama3.2:1b")
	VADFilter       bool   `mapstructure:"vad_filter"`
	Language        string `mapstructure:"language"` // ISO-639-1 default language (e.g., "en", "fr")
}

// DataConfig locates the JSON stores and the history database.
type DataConfig struct {
	Dir        string `mapstructure:"dir"`
	Notes      string `mapstructure:"notes"`
	Contacts   string `mapstructure:"contacts"`
	Workflows  string `mapstructure:"workflows"`
	Schedules  string `mapstructure:"schedules"`
	History    string `mapstructure:"history"`
	HistoryMax int    `mapstructure:"history_max"`
}

// Path resolves a store file name against Dir.
func (d DataConfig) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// DesktopConfig tunes the OS controller.
type DesktopConfig struct {
	CommandTimeout time.Duration     `mapstructure:"command_timeout"`
	Apps           map[string]string `mapstructure:"apps"` // app name -> launch command override
	ScreenshotDir  string            `mapstructure:"screenshot_dir"`
	SearchURL      string            `mapstructure:"search_url"`
}

// VoiceConfig configures the keyword matcher.
type VoiceConfig struct {
	WakeWords []string `mapstructure:"wake_words"`
}

// SysmonConfig configures the background stats sampler.
type SysmonConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	DiskPath string        `mapstructure:"disk_path"`
}

// OrganizerConfig configures download organizing.
type OrganizerConfig struct {
	Dir    string        `mapstructure:"dir"`
	Watch  bool          `mapstructure:"watch"`
	Settle time.Duration `mapstructure:"settle"`
}

// ScheduleConfig toggles the cron runner.
type ScheduleConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Backend string      `mapstructure:"backend"` // "piper"
	Piper   PiperConfig `mapstructure:"piper"`
	// Player is the command that plays a WAV file for spoken REPL replies,
	// e.g. "aplay" or "afplay".
	Player string `mapstructure:"player"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// For a single Piper instance that serves all languages, set Endpoint.
// For per-language instances, set Endpoints which maps ISO-639-1 codes to
// individual Wyoming TCP endpoints. Endpoints takes precedence and Endpoint
// is the fallback.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`  // Default Wyoming TCP endpoint (host:port)
	Endpoints map[string]string `mapstructure:"endpoints"` // ISO-639-1 language code -> Wyoming TCP endpoint
	Voices    map[string]string `mapstructure:"voices"`    // ISO-639-1 language code -> Piper voice model name
}

// MessagingConfig holds chat delivery settings.
type MessagingConfig struct {
	Slack SlackConfig `mapstructure:"slack"`
}

// SlackConfig holds the Slack bot settings.
type SlackConfig struct {
	Token          string `mapstructure:"token"`
	DefaultChannel string `mapstructure:"default_channel"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
	// File routes logs to a rotating file instead of stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "deskpilot")
	}
	return ".deskpilot"
}

func defaultDownloads() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Downloads")
	}
	return "Downloads"
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./deskpilot.yaml, ./configs/deskpilot.yaml,
// $HOME/.config/deskpilot/deskpilot.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.http.swagger", true)
	v.SetDefault("transports.mqtt.enabled", false)
	v.SetDefault("transports.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("transports.mqtt.topic", "deskpilot/requests")
	v.SetDefault("transports.mqtt.client_id", "deskpilot")
	v.SetDefault("transports.mqtt.qos", 1)
	v.SetDefault("interpreter.backend", "gemini")
	v.SetDefault("interpreter.timeout", "30s")
	v.SetDefault("interpreter.cache_size", 256)
	v.SetDefault("interpreter.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("interpreter.openai.transcription_model", "gpt-4o-transcribe")
	v.SetDefault("interpreter.openai.completion_model", "gpt-4o-mini")
	v.SetDefault("interpreter.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("interpreter.gemini.model", "gemini-1.5-flash")
	v.SetDefault("interpreter.local.whisper_endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("interpreter.local.whisper_type", "openai")
	v.SetDefault("interpreter.local.llm_endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("interpreter.local.llm_model", "llama3")
	v.SetDefault("interpreter.local.vad_filter", false)
	v.SetDefault("interpreter.local.language", "")
	v.SetDefault("data.dir", defaultDataDir())
	v.SetDefault("data.notes", "notes.json")
	v.SetDefault("data.contacts", "contacts.json")
	v.SetDefault("data.workflows", "workflow_templates.json")
	v.SetDefault("data.schedules", "app_schedules.json")
	v.SetDefault("data.history", "history.db")
	v.SetDefault("data.history_max", 1000)
	v.SetDefault("desktop.command_timeout", "10s")
	v.SetDefault("desktop.search_url", "https://www.google.com/search?q=")
	v.SetDefault("voice.wake_words", []string{"hey deskpilot", "ok deskpilot", "deskpilot", "hey computer", "computer", "hello"})
	v.SetDefault("sysmon.enabled", true)
	v.SetDefault("sysmon.interval", "30s")
	v.SetDefault("organizer.dir", defaultDownloads())
	v.SetDefault("organizer.watch", false)
	v.SetDefault("organizer.settle", "2s")
	v.SetDefault("schedule.enabled", true)
	v.SetDefault("tts.enabled", false)
	v.SetDefault("tts.backend", "piper")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.max_size_mb", 32)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 14)

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("deskpilot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/deskpilot")
	}

	// Environment variables: DESKPILOT_SERVER_HEALTH_PORT, DESKPILOT_INTERPRETER_BACKEND, etc.
	v.SetEnvPrefix("DESKPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional, env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment variables")
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${GEMINI_API_KEY}")
	cfg.Interpreter.OpenAI.APIKey = resolveEnvRef(cfg.Interpreter.OpenAI.APIKey)
	cfg.Interpreter.Gemini.APIKey = resolveEnvRef(cfg.Interpreter.Gemini.APIKey)
	cfg.Messaging.Slack.Token = resolveEnvRef(cfg.Messaging.Slack.Token)
	cfg.Transports.MQTT.Password = resolveEnvRef(cfg.Transports.MQTT.Password)
	cfg.Data.Dir = expandHome(cfg.Data.Dir)
	cfg.Organizer.Dir = expandHome(cfg.Organizer.Dir)
	cfg.Desktop.ScreenshotDir = expandHome(cfg.Desktop.ScreenshotDir)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Interpreter.Backend {
	case "gemini", "openai", "local":
	default:
		return fmt.Errorf("unknown interpreter backend %q", c.Interpreter.Backend)
	}
	if c.Interpreter.CacheSize < 0 {
		return fmt.Errorf("interpreter.cache_size must not be negative")
	}
	if c.Transports.MQTT.QoS > 2 {
		return fmt.Errorf("transports.mqtt.qos must be 0, 1 or 2")
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// SetupLogging configures the global slog logger based on config. Logs go
// to stderr, or to a rotating file when cfg.File is set. The returned
// closer releases the file.
func SetupLogging(cfg LoggingConfig) io.Closer {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   expandHome(cfg.File),
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out, closer = lj, lj
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	slog.SetDefault(slog.New(handler))
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
