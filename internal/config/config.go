// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete proofread configuration.
type Config struct {
	Ollama    OllamaConfig    `toml:"ollama" json:"ollama"`
	Proofread ProofreadConfig `toml:"proofread" json:"proofread"`
	Retry     RetryConfig     `toml:"retry" json:"retry"`
	Monitor   MonitorConfig   `toml:"monitor" json:"monitor"`
	Server    ServerConfig    `toml:"server" json:"server"`
	Stats     StatsConfig     `toml:"stats" json:"stats"`
	Log       LogConfig       `toml:"log" json:"log"`
}

// OllamaConfig describes the backend connection.
type OllamaConfig struct {
	// URL is the base URL of the Ollama server
	URL string `toml:"url" json:"url"`
	// Model is the model used when a request names none
	Model string `toml:"model" json:"model"`
	// TimeoutSecs bounds non-streaming requests
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// StreamTimeoutSecs bounds connecting and the silence between stream
	// lines (0 = the client default of 10s)
	StreamTimeoutSecs int `toml:"stream_timeout_secs" json:"stream_timeout_secs"`
	// Preload warms the model when the app starts
	Preload bool `toml:"preload" json:"preload"`
	// UnloadOnExit releases the model when an interactive session ends
	UnloadOnExit bool `toml:"unload_on_exit" json:"unload_on_exit"`
}

// ProofreadConfig controls prompt assembly and input limits.
type ProofreadConfig struct {
	// Template is the ID or name of the prompt template
	Template string `toml:"template" json:"template"`
	// CustomPrompt replaces the template prompt when non-empty
	CustomPrompt string `toml:"custom_prompt" json:"custom_prompt"`
	// Stream selects streaming generation by default
	Stream bool `toml:"stream" json:"stream"`
	// MaxInputChars rejects longer inputs (0 = unlimited)
	MaxInputChars int `toml:"max_input_chars" json:"max_input_chars"`
}

// RetryConfig controls the retry coordinator.
type RetryConfig struct {
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	DelayMs    int `toml:"delay_ms" json:"delay_ms"`
}

// MonitorConfig controls background health monitoring.
type MonitorConfig struct {
	IntervalSecs         int `toml:"interval_secs" json:"interval_secs"`
	MaxReconnectAttempts int `toml:"max_reconnect_attempts" json:"max_reconnect_attempts"`
}

// ServerConfig controls the local HTTP API.
type ServerConfig struct {
	Addr         string  `toml:"addr" json:"addr"`
	RateLimit    float64 `toml:"rate_limit" json:"rate_limit"`
	Burst        int     `toml:"burst" json:"burst"`
	MaxBodyBytes int64   `toml:"max_body_bytes" json:"max_body_bytes"`
	// Token enables bearer authentication when non-empty
	Token string `toml:"token" json:"-"`
	// AllowedOrigins lists CORS origins; "*" allows any
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
}

// StatsConfig controls usage statistics.
type StatsConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path of the SQLite database (empty = <config dir>/stats.db)
	Path string `toml:"path" json:"path"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			URL:               ollama.DefaultBaseURL,
			Model:             ollama.DefaultModel,
			TimeoutSecs:       int(ollama.DefaultTimeout / time.Second),
			StreamTimeoutSecs: 60,
			Preload:           true,
		},
		Proofread: ProofreadConfig{
			Template:      "default",
			Stream:        true,
			MaxInputChars: 20000,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			DelayMs:    1000,
		},
		Monitor: MonitorConfig{
			IntervalSecs:         30,
			MaxReconnectAttempts: 5,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8765",
			RateLimit:    5,
			Burst:        10,
			MaxBodyBytes: 1 << 20,
		},
		Stats: StatsConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// fillDefaults restores values that a config file blanked out.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Ollama.URL == "" {
		cfg.Ollama.URL = defaults.Ollama.URL
	}
	if cfg.Ollama.Model == "" {
		cfg.Ollama.Model = defaults.Ollama.Model
	}
	if cfg.Ollama.TimeoutSecs == 0 {
		cfg.Ollama.TimeoutSecs = defaults.Ollama.TimeoutSecs
	}
	if cfg.Proofread.Template == "" {
		cfg.Proofread.Template = defaults.Proofread.Template
	}
	if cfg.Monitor.IntervalSecs == 0 {
		cfg.Monitor.IntervalSecs = defaults.Monitor.IntervalSecs
	}
	if cfg.Monitor.MaxReconnectAttempts == 0 {
		cfg.Monitor.MaxReconnectAttempts = defaults.Monitor.MaxReconnectAttempts
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = defaults.Server.RateLimit
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = defaults.Server.Burst
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// DURATIONS
// =============================================================================

// Timeout returns the non-streaming request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Ollama.TimeoutSecs) * time.Second
}

// StreamTimeout returns the allowed silence between stream lines.
func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.Ollama.StreamTimeoutSecs) * time.Second
}

// RetryDelay returns the wait between generation attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Retry.DelayMs) * time.Millisecond
}

// MonitorInterval returns the health polling interval.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Monitor.IntervalSecs) * time.Second
}

// StatsPath returns the statistics database path.
func (c *Config) StatsPath() (string, error) {
	if c.Stats.Path != "" {
		return c.Stats.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stats.db"), nil
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the configuration directory: $PROOFREAD_HOME or ~/.proofread.
func Dir() (string, error) {
	if dir := os.Getenv("PROOFREAD_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".proofread"), nil
}

// PathTOML returns the path to the TOML config file.
func PathTOML() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// PathJSON returns the path to the JSON config file.
func PathJSON() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads config.toml, falling back to config.json and then to the
// defaults. Environment overrides are applied last and the result is
// validated.
func Load() (*Config, error) {
	tomlPath, err := PathTOML()
	if err != nil {
		return nil, err
	}
	if fileExists(tomlPath) {
		return LoadFromPath(tomlPath)
	}

	jsonPath, err := PathJSON()
	if err != nil {
		return nil, err
	}
	if fileExists(jsonPath) {
		return LoadFromPath(jsonPath)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath reads one file, TOML unless it ends in .json, on top of the
// defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	if strings.HasSuffix(path, ".json") {
		err = decodeJSON(cfg, path)
	} else {
		err = decodeTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadForEdit reads path on top of the defaults without environment
// overrides, so saving the result does not persist them. A missing file
// yields the defaults.
func LoadForEdit(path string) (*Config, error) {
	cfg := Default()
	if !fileExists(path) {
		return cfg, nil
	}

	var err error
	if strings.HasSuffix(path, ".json") {
		err = decodeJSON(cfg, path)
	} else {
		err = decodeTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	fillDefaults(cfg)
	return cfg, nil
}

func decodeTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func decodeJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE
// =============================================================================

// SaveTOML writes cfg to path atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# proofread configuration\n")
	buf.WriteString("# Edit with `proofread config set <key> <value>` or by hand.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid setting.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every setting and returns ValidateErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if _, err := ollama.ValidateBaseURL(c.Ollama.URL); err != nil {
		add("ollama.url", "invalid URL '%s': must be http(s)://host[:port]", c.Ollama.URL)
	}
	if strings.TrimSpace(c.Ollama.Model) == "" {
		add("ollama.model", "must not be empty")
	}
	if c.Ollama.TimeoutSecs < 1 || c.Ollama.TimeoutSecs > 3600 {
		add("ollama.timeout_secs", "must be between 1 and 3600, got %d", c.Ollama.TimeoutSecs)
	}
	if c.Ollama.StreamTimeoutSecs < 0 {
		add("ollama.stream_timeout_secs", "must not be negative, got %d", c.Ollama.StreamTimeoutSecs)
	}

	if c.Proofread.MaxInputChars < 0 {
		add("proofread.max_input_chars", "must not be negative, got %d", c.Proofread.MaxInputChars)
	}

	if c.Retry.MaxRetries < 0 || c.Retry.MaxRetries > 10 {
		add("retry.max_retries", "must be between 0 and 10, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.DelayMs < 0 || c.Retry.DelayMs > 60000 {
		add("retry.delay_ms", "must be between 0 and 60000, got %d", c.Retry.DelayMs)
	}

	if c.Monitor.IntervalSecs < 1 {
		add("monitor.interval_secs", "must be at least 1, got %d", c.Monitor.IntervalSecs)
	}
	if c.Monitor.MaxReconnectAttempts < 1 || c.Monitor.MaxReconnectAttempts > 20 {
		add("monitor.max_reconnect_attempts", "must be between 1 and 20, got %d", c.Monitor.MaxReconnectAttempts)
	}

	if c.Server.RateLimit <= 0 {
		add("server.rate_limit", "must be positive, got %g", c.Server.RateLimit)
	}
	if c.Server.Burst < 1 {
		add("server.burst", "must be at least 1, got %d", c.Server.Burst)
	}
	if c.Server.MaxBodyBytes < 1024 {
		add("server.max_body_bytes", "must be at least 1024, got %d", c.Server.MaxBodyBytes)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		add("log.format", "invalid format '%s', must be one of: text, json", c.Log.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - PROOFREAD_OLLAMA_URL: overrides ollama.url
//   - OLLAMA_HOST: used for ollama.url when PROOFREAD_OLLAMA_URL is unset
//   - PROOFREAD_MODEL: overrides ollama.model
//   - PROOFREAD_TEMPLATE: overrides proofread.template
//   - PROOFREAD_LOG_LEVEL: overrides log.level
//   - PROOFREAD_STATS: "0"/"false" disables statistics, "1"/"true" enables them
//   - PROOFREAD_SERVER_TOKEN: overrides server.token
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("PROOFREAD_OLLAMA_URL"); u != "" {
		c.Ollama.URL = u
	} else if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.Ollama.URL = hostToURL(host)
	}

	if model := os.Getenv("PROOFREAD_MODEL"); model != "" {
		c.Ollama.Model = model
	}
	if tmpl := os.Getenv("PROOFREAD_TEMPLATE"); tmpl != "" {
		c.Proofread.Template = tmpl
	}
	if level := os.Getenv("PROOFREAD_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if stats := os.Getenv("PROOFREAD_STATS"); stats != "" {
		c.Stats.Enabled = parseBool(stats)
	}
	if token := os.Getenv("PROOFREAD_SERVER_TOKEN"); token != "" {
		c.Server.Token = token
	}
}

// hostToURL accepts OLLAMA_HOST in its usual forms: host, host:port or a
// full URL.
func hostToURL(host string) string {
	if strings.Contains(host, "://") {
		return host
	}
	if !strings.Contains(host, ":") {
		host += ":11434"
	}
	return "http://" + host
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// =============================================================================
// GET/SET (DOT NOTATION)
// =============================================================================

// Get returns a value by its TOML key path, e.g. "ollama.model".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by its TOML key path. String values are converted to
// the field type. The result is not validated; call Validate before saving.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if field.Kind() == reflect.Struct {
		return fmt.Errorf("%s is a section, not a setting", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	parts := strings.Split(key, ".")
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("'%s' is not a section", strings.Join(parts[:i], "."))
		}
		idx := fieldByTag(v.Type(), part)
		if idx < 0 {
			return reflect.Value{}, fmt.Errorf("unknown key: %s", strings.Join(parts[:i+1], "."))
		}
		v = v.Field(idx)
	}
	return v, nil
}

func fieldByTag(t reflect.Type, name string) int {
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return i
		}
	}
	return -1
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

func setFieldValue(field reflect.Value, value any) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value %q", s)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid number value %q", s)
			}
			field.SetFloat(f)
			return nil
		case reflect.Bool:
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "1", "true", "yes", "on":
				field.SetBool(true)
			case "0", "false", "no", "off":
				field.SetBool(false)
			default:
				return fmt.Errorf("invalid boolean value %q", s)
			}
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() != reflect.String {
				break
			}
			var items []string
			for _, item := range strings.Split(s, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			field.Set(reflect.ValueOf(items))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("nil value")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every setting key in dot notation, sorted.
func Keys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := prefix + tomlName(f)
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, name+".")
				continue
			}
			keys = append(keys, name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	sort.Strings(keys)
	return keys
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
