package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt": {"deepgram", "whisper", "whisper-native"},
	"tts": {"elevenlabs", "coqui"},
}

// apiKeyEnvVars maps provider names to the conventional environment variable
// holding their API key. Used by [ApplyEnv] to fill empty api_key fields.
var apiKeyEnvVars = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"gemini":     "GEMINI_API_KEY",
	"deepseek":   "DEEPSEEK_API_KEY",
	"mistral":    "MISTRAL_API_KEY",
	"groq":       "GROQ_API_KEY",
	"deepgram":   "DEEPGRAM_API_KEY",
	"elevenlabs": "ELEVENLABS_API_KEY",
}

// Load reads the YAML configuration file at path, applies environment
// overrides and defaults, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment overrides
// and defaults, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyEnv(cfg)
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv fills empty credential fields from the process environment. YAML
// values always win; the environment is only consulted for blanks.
func ApplyEnv(cfg *Config) {
	entries := []*ProviderEntry{&cfg.Providers.LLM, &cfg.Providers.STT, &cfg.Providers.TTS}
	for _, e := range entries {
		if e.APIKey != "" {
			continue
		}
		if envVar, ok := apiKeyEnvVars[e.Name]; ok {
			e.APIKey = os.Getenv(envVar)
		}
	}

	if cfg.Email.SendGridAPIKey == "" {
		cfg.Email.SendGridAPIKey = os.Getenv("SENDGRID_API_KEY")
	}
	if cfg.Email.SMTP.Password == "" {
		cfg.Email.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("GOOGLE_SEARCH_API_KEY")
	}
	if cfg.Search.EngineID == "" {
		cfg.Search.EngineID = os.Getenv("GOOGLE_SEARCH_ENGINE_ID")
	}
}

// ApplyDefaults fills unset fields with their documented defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Meeting.TriggerWord == "" {
		cfg.Meeting.TriggerWord = "Augment"
	}
	if cfg.Meeting.BotName == "" {
		cfg.Meeting.BotName = "Meetbot"
	}
	if cfg.Meeting.ChatPollInterval == 0 {
		cfg.Meeting.ChatPollInterval = 3 * time.Second
	}
	if cfg.Bridge.URL == "" {
		cfg.Bridge.URL = "ws://127.0.0.1:8765"
	}
	if cfg.Transcript.Dir == "" {
		cfg.Transcript.Dir = "transcripts"
	}
	if cfg.Recording.Dir == "" {
		cfg.Recording.Dir = "recordings"
	}
	if cfg.Summary.Length == "" {
		cfg.Summary.Length = "medium"
	}
	if cfg.Email.Provider == "" {
		cfg.Email.Provider = EmailSendGrid
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Meeting.TriggerWord == "" {
		errs = append(errs, errors.New("meeting.trigger_word is required"))
	}
	if cfg.Meeting.ChatPollInterval < 0 {
		errs = append(errs, fmt.Errorf("meeting.chat_poll_interval %s must not be negative", cfg.Meeting.ChatPollInterval))
	}
	if cfg.Bridge.URL == "" {
		errs = append(errs, errors.New("bridge.url is required"))
	}

	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)

	if cfg.Meeting.VoiceReplies && cfg.Providers.TTS.Name == "" {
		errs = append(errs, errors.New("meeting.voice_replies requires providers.tts to be configured"))
	}
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; summarize and email commands will return placeholder text")
	}
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; spoken commands will not be detected")
	}

	switch cfg.Summary.Length {
	case "short", "medium", "long":
	default:
		errs = append(errs, fmt.Errorf("summary.length %q is invalid; valid values: short, medium, long", cfg.Summary.Length))
	}

	if cfg.Email.Enabled {
		if !cfg.Email.Provider.IsValid() {
			errs = append(errs, fmt.Errorf("email.provider %q is invalid; valid values: sendgrid, smtp", cfg.Email.Provider))
		}
		if cfg.Email.FromAddr == "" {
			errs = append(errs, errors.New("email.from_addr is required when email.enabled is true"))
		}
		if len(cfg.Email.Recipients) == 0 {
			slog.Warn("email.enabled is true but no recipients are configured; pass --email or set email.recipients")
		}
		if cfg.Email.Provider == EmailSendGrid && cfg.Email.SendGridAPIKey == "" {
			errs = append(errs, errors.New("email.sendgrid_api_key is required for the sendgrid provider"))
		}
		if cfg.Email.Provider == EmailSMTP && cfg.Email.SMTP.Host == "" {
			errs = append(errs, errors.New("email.smtp.host is required for the smtp provider"))
		}
	}

	// The search command needs both credentials; having only one is
	// almost certainly a mistake.
	if (cfg.Search.APIKey == "") != (cfg.Search.EngineID == "") {
		slog.Warn("search requires both api_key and engine_id; the search command is disabled")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
