package secrets

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	defaultFallbackPath = ".secrets.local"
	defaultVersion      = "latest"
	metricNamespace     = "github.com/qfd-delivery/api/internal/platform/secrets"
)

var secretManagerClientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves sm:// references using Google Secret Manager with local
// caching and a plaintext fallback file for development.
type Fetcher struct {
	client     secretManagerClient
	ownsClient bool

	logger        *zap.Logger
	defaultProjID string
	fallbackPath  string

	fallbackOnce sync.Once
	fallbackVals map[string]string

	mu    sync.RWMutex
	cache map[string]string

	latency        metric.Float64Histogram
	latencyEnabled bool
}

type fetcherConfig struct {
	logger       *zap.Logger
	defaultProj  string
	fallbackPath string
	client       secretManagerClient
	clientOpts   []option.ClientOption
	meter        metric.Meter
}

// Option customises Fetcher construction.
type Option func(*fetcherConfig)

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *fetcherConfig) {
		cfg.logger = logger
	}
}

// WithDefaultProject configures the project ID used for short sm://<name> references.
func WithDefaultProject(projectID string) Option {
	return func(cfg *fetcherConfig) {
		cfg.defaultProj = strings.TrimSpace(projectID)
	}
}

// WithFallbackFile overrides the path to the local fallback secrets file.
func WithFallbackFile(path string) Option {
	return func(cfg *fetcherConfig) {
		cfg.fallbackPath = strings.TrimSpace(path)
	}
}

// WithSecretManagerClient injects a preconfigured Secret Manager client (primarily for tests).
func WithSecretManagerClient(client secretManagerClient) Option {
	return func(cfg *fetcherConfig) {
		cfg.client = client
	}
}

// WithClientOptions forwards Cloud client options when constructing the Secret Manager client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(cfg *fetcherConfig) {
		cfg.clientOpts = append(cfg.clientOpts, opts...)
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(cfg *fetcherConfig) {
		cfg.meter = m
	}
}

// NewFetcher builds a Fetcher with secret caching, metrics, and local fallback support.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{
		logger:       zap.NewNop(),
		fallbackPath: defaultFallbackPath,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	meter := cfg.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	latency, latencyErr := meter.Float64Histogram(
		"secrets.fetch.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds for secret fetch attempts"),
	)
	if latencyErr != nil {
		cfg.logger.Warn("secrets: unable to register latency metric", zap.Error(latencyErr))
	}

	f := &Fetcher{
		logger:         cfg.logger,
		defaultProjID:  cfg.defaultProj,
		fallbackPath:   cfg.fallbackPath,
		cache:          make(map[string]string),
		latency:        latency,
		latencyEnabled: latencyErr == nil,
	}

	if cfg.client != nil {
		f.client = cfg.client
	} else {
		client, err := secretManagerClientFactory(ctx, cfg.clientOpts...)
		if err != nil {
			cfg.logger.Warn("secrets: secret manager client unavailable; operating in fallback mode", zap.Error(err))
		} else {
			f.client = client
			f.ownsClient = true
		}
	}

	return f, nil
}

// Close releases resources held by the fetcher.
func (f *Fetcher) Close() error {
	if f == nil || !f.ownsClient || f.client == nil {
		return nil
	}
	return f.client.Close()
}

// Resolve returns the plaintext value for an sm:// reference, consulting the
// in-process cache, Secret Manager, then the local fallback file.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	if f == nil {
		return "", errors.New("secrets: fetcher not initialised")
	}

	parsed, err := parseReference(ref, f.defaultProjID)
	if err != nil {
		return "", err
	}

	f.mu.RLock()
	cached, ok := f.cache[parsed.canonical()]
	f.mu.RUnlock()
	if ok {
		return cached, nil
	}

	start := time.Now()
	value, err := f.fetchRemote(ctx, parsed)
	f.recordLatency(ctx, time.Since(start), err)
	if err != nil {
		if fallback, ok := f.lookupFallback(parsed); ok {
			f.logger.Warn("secrets: using local fallback value",
				zap.String("secret", parsed.name),
				zap.Error(err),
			)
			return fallback, nil
		}
		return "", fmt.Errorf("secrets: access %s: %w", parsed.name, err)
	}

	f.mu.Lock()
	f.cache[parsed.canonical()] = value
	f.mu.Unlock()
	return value, nil
}

// Invalidate drops the cached value for a reference.
func (f *Fetcher) Invalidate(ref string) {
	parsed, err := parseReference(ref, f.defaultProjID)
	if err != nil {
		return
	}
	f.mu.Lock()
	delete(f.cache, parsed.canonical())
	f.mu.Unlock()
}

func (f *Fetcher) fetchRemote(ctx context.Context, ref parsedReference) (string, error) {
	if f.client == nil {
		return "", errors.New("secret manager client unavailable")
	}
	if ref.project == "" {
		return "", errors.New("no project id for secret reference")
	}

	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/%s", ref.project, ref.name, ref.version),
	})
	if err != nil {
		return "", err
	}
	if resp.GetPayload() == nil {
		return "", errors.New("secret payload missing")
	}
	return string(resp.GetPayload().GetData()), nil
}

func (f *Fetcher) lookupFallback(ref parsedReference) (string, bool) {
	f.fallbackOnce.Do(f.loadFallback)
	value, ok := f.fallbackVals[ref.name]
	return value, ok
}

// loadFallback reads KEY=VALUE lines from the fallback file once per process.
func (f *Fetcher) loadFallback() {
	f.fallbackVals = map[string]string{}
	if f.fallbackPath == "" {
		return
	}

	file, err := os.Open(filepath.Clean(f.fallbackPath))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("secrets: unable to read fallback file", zap.Error(err))
		}
		return
	}
	defer func() {
		_ = file.Close()
	}()

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
		f.fallbackVals[key] = strings.TrimSpace(parts[1])
	}
	if err := scanner.Err(); err != nil {
		f.logger.Warn("secrets: fallback file read error", zap.Error(err))
	}
}

func (f *Fetcher) recordLatency(ctx context.Context, d time.Duration, err error) {
	if !f.latencyEnabled {
		return
	}
	f.latency.Record(ctx, float64(d.Milliseconds()),
		metric.WithAttributes(attribute.Bool("error", err != nil)),
	)
}

type parsedReference struct {
	project string
	name    string
	version string
}

func (r parsedReference) canonical() string {
	return fmt.Sprintf("sm://projects/%s/secrets/%s/versions/%s", r.project, r.name, r.version)
}

// parseReference accepts sm://projects/<p>/secrets/<name>[/versions/<v>] and
// the short form sm://<name>, which resolves against the default project.
func parseReference(ref, defaultProject string) (parsedReference, error) {
	trimmed := strings.TrimSpace(ref)
	if !strings.HasPrefix(trimmed, "sm://") {
		return parsedReference{}, fmt.Errorf("secrets: not an sm:// reference: %q", ref)
	}

	path := strings.Trim(strings.TrimPrefix(trimmed, "sm://"), "/")
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		return parsedReference{project: defaultProject, name: parts[0], version: defaultVersion}, nil
	case len(parts) == 4 && parts[0] == "projects" && parts[2] == "secrets":
		return parsedReference{project: parts[1], name: parts[3], version: defaultVersion}, nil
	case len(parts) == 6 && parts[0] == "projects" && parts[2] == "secrets" && parts[4] == "versions":
		return parsedReference{project: parts[1], name: parts[3], version: parts[5]}, nil
	default:
		return parsedReference{}, fmt.Errorf("secrets: malformed reference: %q", ref)
	}
}
