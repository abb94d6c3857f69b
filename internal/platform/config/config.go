package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 20 * time.Second

	defaultGenAIEndpoint     = "https://generativelanguage.googleapis.com"
	defaultGenAILiveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	defaultGenAITextModel    = "gemini-3-flash-preview"
	defaultGenAILiveModel    = "gemini-2.5-flash-native-audio-preview-09-2025"
	defaultGenAIVoice        = "Zephyr"
	defaultGenAITimeout      = 20 * time.Second

	defaultIdentityEndpoint = "https://identitytoolkit.googleapis.com"
)

var errSecretResolverNotConfigured = errors.New("config: secret resolver not configured")

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	Firebase    FirebaseConfig
	GenAI       GenAIConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// FirebaseConfig stores Firebase project settings. WebAPIKey backs the
// Identity Toolkit password sign-in endpoint and may be an sm:// reference.
type FirebaseConfig struct {
	ProjectID        string
	CredentialsFile  string
	WebAPIKey        string
	IdentityEndpoint string
}

// GenAIConfig stores Gemini API settings for the assistant. APIKey may be an
// sm:// reference.
type GenAIConfig struct {
	APIKey       string
	Endpoint     string
	LiveEndpoint string
	TextModel    string
	LiveModel    string
	Voice        string
	Timeout      time.Duration
}

// SecretResolver resolves sm:// secret references to plaintext values.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts a function to the SecretResolver interface.
type SecretResolverFunc func(ctx context.Context, ref string) (string, error)

// ResolveSecret implements SecretResolver.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError reports configuration fields that failed validation.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s", strings.Join(e.fields, ", "))
}

// Fields lists the offending configuration fields.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError wraps a failure while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("resolve secret %q: %v", e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

// Option customises the Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values
// in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets a custom secret resolver used for sm:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// EnvironmentValues returns the effective key/value environment map after
// applying the same precedence rules as Load (dotenv < OS env < explicit env
// map). Callers can use the result to initialise dependencies before Load.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for key, value := range dotEnvValues {
		values[key] = value
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
				continue
			}
			values[strings.TrimSpace(parts[0])] = parts[1]
		}
	}
	for key, value := range options.envMap {
		values[key] = value
	}
	return values, nil
}

// Load assembles the application configuration by combining defaults, .env
// overrides, environment variables, and optional secret manager lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(ctx context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		}),
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	cfg := Config{
		Environment: stringWithDefault(lookup, "API_ENVIRONMENT", "local"),
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:     durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "API_SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID:        stringWithDefault(lookup, "API_FIREBASE_PROJECT_ID", ""),
			CredentialsFile:  stringWithDefault(lookup, "API_FIREBASE_CREDENTIALS_FILE", ""),
			WebAPIKey:        stringWithDefault(lookup, "API_FIREBASE_WEB_API_KEY", ""),
			IdentityEndpoint: stringWithDefault(lookup, "API_FIREBASE_IDENTITY_ENDPOINT", defaultIdentityEndpoint),
		},
		GenAI: GenAIConfig{
			APIKey:       stringWithDefault(lookup, "API_GENAI_API_KEY", ""),
			Endpoint:     stringWithDefault(lookup, "API_GENAI_ENDPOINT", defaultGenAIEndpoint),
			LiveEndpoint: stringWithDefault(lookup, "API_GENAI_LIVE_ENDPOINT", defaultGenAILiveEndpoint),
			TextModel:    stringWithDefault(lookup, "API_GENAI_TEXT_MODEL", defaultGenAITextModel),
			LiveModel:    stringWithDefault(lookup, "API_GENAI_LIVE_MODEL", defaultGenAILiveModel),
			Voice:        stringWithDefault(lookup, "API_GENAI_VOICE", defaultGenAIVoice),
			Timeout:      durationWithDefault(lookup, "API_GENAI_TIMEOUT", defaultGenAITimeout),
		},
	}

	if cfg.Firebase.WebAPIKey, err = resolveSecret(ctx, cfg.Firebase.WebAPIKey, options.secret); err != nil {
		return Config{}, err
	}
	if cfg.GenAI.APIKey, err = resolveSecret(ctx, cfg.GenAI.APIKey, options.secret); err != nil {
		return Config{}, err
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if !isSecretReference(value) {
		return value, nil
	}
	if resolver == nil {
		return "", &SecretError{Ref: value, Err: errSecretResolverNotConfigured}
	}
	resolved, err := resolver.ResolveSecret(ctx, value)
	if err != nil {
		return "", &SecretError{Ref: value, Err: err}
	}
	return resolved, nil
}

func isSecretReference(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "sm://")
}

func validateConfig(cfg Config) error {
	var fields []string
	if strings.TrimSpace(cfg.Server.Port) == "" {
		fields = append(fields, "Server.Port")
	}
	if _, err := strconv.Atoi(strings.TrimSpace(cfg.Server.Port)); err != nil {
		fields = append(fields, "Server.Port")
	}
	if cfg.Firebase.ProjectID == "" {
		fields = append(fields, "Firebase.ProjectID")
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Strings(fields)
	return &ValidationError{fields: fields}
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("open env file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
