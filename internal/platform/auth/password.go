package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/qfd-delivery/api/internal/platform/config"
	"go.uber.org/zap"
)

const signInWithPasswordPath = "/v1/accounts:signInWithPassword"

// CredentialError carries the Identity Toolkit error code for a rejected
// credential, e.g. EMAIL_NOT_FOUND or INVALID_PASSWORD.
type CredentialError struct {
	Code string
	Err  error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("auth: credential rejected (%s)", e.Code)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// CredentialCode returns the provider error code.
func (e *CredentialError) CredentialCode() string { return e.Code }

// PasswordSession is the token bundle issued for a successful password sign-in.
type PasswordSession struct {
	UID          string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// PasswordClient exchanges email/password credentials for Firebase tokens via
// the Identity Toolkit REST API. The Admin SDK has no password sign-in, so
// this goes through the same endpoint the client SDKs use.
type PasswordClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// PasswordOption customises PasswordClient instances.
type PasswordOption func(*PasswordClient)

// WithPasswordHTTPClient injects a custom HTTP client (primarily for tests).
func WithPasswordHTTPClient(client *http.Client) PasswordOption {
	return func(c *PasswordClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPasswordLogger sets the logger used for diagnostic output.
func WithPasswordLogger(logger *zap.Logger) PasswordOption {
	return func(c *PasswordClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewPasswordClient constructs a PasswordClient from Firebase configuration.
func NewPasswordClient(cfg config.FirebaseConfig, opts ...PasswordOption) (*PasswordClient, error) {
	if strings.TrimSpace(cfg.WebAPIKey) == "" {
		return nil, errors.New("firebase web api key is required for password sign-in")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.IdentityEndpoint), "/")
	if endpoint == "" {
		return nil, errors.New("identity endpoint is required")
	}

	client := &PasswordClient{
		endpoint:   endpoint,
		apiKey:     cfg.WebAPIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type identityErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword verifies an email/password pair and returns the issued
// token bundle. Credential rejections surface as *CredentialError.
func (c *PasswordClient) SignInWithPassword(ctx context.Context, email, password string) (PasswordSession, error) {
	if c == nil {
		return PasswordSession{}, errors.New("auth: password client not initialised")
	}

	payload, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return PasswordSession{}, fmt.Errorf("encode sign-in request: %w", err)
	}

	url := c.endpoint + signInWithPasswordPath + "?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return PasswordSession{}, fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PasswordSession{}, fmt.Errorf("identity toolkit request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PasswordSession{}, fmt.Errorf("read identity toolkit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return PasswordSession{}, c.decodeError(resp.StatusCode, body)
	}

	var decoded signInResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return PasswordSession{}, fmt.Errorf("decode identity toolkit response: %w", err)
	}

	session := PasswordSession{
		UID:          decoded.LocalID,
		Email:        decoded.Email,
		DisplayName:  decoded.DisplayName,
		IDToken:      decoded.IDToken,
		RefreshToken: decoded.RefreshToken,
	}
	if seconds, err := strconv.Atoi(decoded.ExpiresIn); err == nil {
		session.ExpiresIn = time.Duration(seconds) * time.Second
	}
	return session, nil
}

// decodeError extracts the Identity Toolkit error code from a non-200
// response. The message field carries the code, sometimes followed by
// explanatory text ("INVALID_PASSWORD : ...").
func (c *PasswordClient) decodeError(status int, body []byte) error {
	var decoded identityErrorResponse
	if err := json.Unmarshal(body, &decoded); err != nil || decoded.Error.Message == "" {
		c.logger.Warn("auth: unrecognised identity toolkit failure",
			zap.Int("status", status),
		)
		return fmt.Errorf("identity toolkit status %d", status)
	}

	code := decoded.Error.Message
	if idx := strings.IndexAny(code, " :"); idx > 0 {
		code = code[:idx]
	}
	return &CredentialError{
		Code: code,
		Err:  fmt.Errorf("identity toolkit status %d: %s", status, decoded.Error.Message),
	}
}
