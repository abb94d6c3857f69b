package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

type stubSecretClient struct {
	calls  atomic.Int64
	values map[string]string
	err    error
}

func (s *stubSecretClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	value, ok := s.values[req.GetName()]
	if !ok {
		return nil, errors.New("not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}, nil
}

func (s *stubSecretClient) Close() error { return nil }

func TestResolveShortReferenceUsesDefaultProject(t *testing.T) {
	client := &stubSecretClient{values: map[string]string{
		"projects/qfd-test/secrets/genai-key/versions/latest": "plaintext",
	}}
	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(client),
		WithDefaultProject("qfd-test"),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	value, err := fetcher.Resolve(context.Background(), "sm://genai-key")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if value != "plaintext" {
		t.Fatalf("value = %q", value)
	}
}

func TestResolveCachesValues(t *testing.T) {
	client := &stubSecretClient{values: map[string]string{
		"projects/qfd-test/secrets/genai-key/versions/latest": "plaintext",
	}}
	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(client),
		WithDefaultProject("qfd-test"),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := fetcher.Resolve(context.Background(), "sm://genai-key"); err != nil {
			t.Fatalf("Resolve %d: %v", i, err)
		}
	}
	if got := client.calls.Load(); got != 1 {
		t.Fatalf("expected 1 backend call, got %d", got)
	}

	fetcher.Invalidate("sm://genai-key")
	if _, err := fetcher.Resolve(context.Background(), "sm://genai-key"); err != nil {
		t.Fatalf("Resolve after invalidate: %v", err)
	}
	if got := client.calls.Load(); got != 2 {
		t.Fatalf("expected refetch after invalidate, got %d calls", got)
	}
}

func TestResolveFallsBackToLocalFile(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, ".secrets.local")
	if err := os.WriteFile(fallback, []byte("# local secrets\ngenai-key=dev-value\n"), 0o600); err != nil {
		t.Fatalf("write fallback: %v", err)
	}

	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(&stubSecretClient{err: errors.New("unavailable")}),
		WithDefaultProject("qfd-test"),
		WithFallbackFile(fallback),
	)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	value, err := fetcher.Resolve(context.Background(), "sm://genai-key")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if value != "dev-value" {
		t.Fatalf("value = %q", value)
	}
}

func TestParseReferenceForms(t *testing.T) {
	cases := []struct {
		ref     string
		want    parsedReference
		wantErr bool
	}{
		{ref: "sm://genai-key", want: parsedReference{project: "dflt", name: "genai-key", version: "latest"}},
		{ref: "sm://projects/p1/secrets/s1", want: parsedReference{project: "p1", name: "s1", version: "latest"}},
		{ref: "sm://projects/p1/secrets/s1/versions/7", want: parsedReference{project: "p1", name: "s1", version: "7"}},
		{ref: "projects/p1/secrets/s1", wantErr: true},
		{ref: "sm://projects/p1/oops/s1", wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseReference(tc.ref, "dflt")
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.ref)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.ref, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %+v want %+v", tc.ref, got, tc.want)
		}
	}
}
