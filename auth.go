// Package huddle is the Go client SDK for the Huddle team chat
// platform: a client-side conversational state container with an
// optimistic-write / eventual-reconciliation loop over a pluggable
// event transport.
//
// Example:
//
//	store := huddle.NewChatStore()
//	store.SetCurrentUser(huddle.User{ID: "u1", DisplayName: "Sam"})
//
//	transport := huddle.NewSimulatedTransport(huddle.SimulatorConfig{...})
//	store.Attach(transport)
//	transport.Connect(ctx)
//
//	store.SendMessage(convID, "Anyone up for pizza after practice?", "")
package huddle

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultBaseURL = "https://api.huddle.chat"
	DefaultTimeout = 30 * time.Second
)

// ============================================================================
// Credential Validation
// ============================================================================

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	otpPattern   = regexp.MustCompile(`^[0-9]{6}$`)
)

// ValidateCredentials checks a login form. A non-empty result is a
// list of inline field errors; nothing is ever thrown past the form
// boundary.
func ValidateCredentials(phone, displayName string) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(phone) == "" {
		errs = append(errs, FieldError{Field: "phone", Message: "Phone number is required"})
	} else if !phonePattern.MatchString(strings.TrimSpace(phone)) {
		errs = append(errs, FieldError{Field: "phone", Message: "Enter a valid phone number"})
	}
	if strings.TrimSpace(displayName) == "" {
		errs = append(errs, FieldError{Field: "displayName", Message: "Display name is required"})
	}
	return errs
}

// ValidateOTP checks a one-time code form.
func ValidateOTP(code string) []FieldError {
	if !otpPattern.MatchString(strings.TrimSpace(code)) {
		return []FieldError{{Field: "code", Message: "Enter the 6-digit code"}}
	}
	return nil
}

// ============================================================================
// AuthClient
// ============================================================================

// AuthResult is the success-flag-bearing response of an auth call. A
// false OK never surfaces as a transport error; callers translate it
// into a displayable failure.
type AuthResult struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *APIError       `json:"error,omitempty"`
}

// LoginData is the payload of a successful login or OTP verification.
type LoginData struct {
	User  User   `json:"user"`
	Token string `json:"token,omitempty"`
}

// AuthClient talks to the Huddle auth endpoints.
type AuthClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// AuthOption configures an AuthClient.
type AuthOption func(*AuthClient)

func WithBaseURL(u string) AuthOption {
	return func(c *AuthClient) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(timeout time.Duration) AuthOption {
	return func(c *AuthClient) { c.httpClient.Timeout = timeout }
}

func WithHTTPClient(client *http.Client) AuthOption {
	return func(c *AuthClient) { c.httpClient = client }
}

// NewAuthClient creates an auth client.
func NewAuthClient(opts ...AuthOption) *AuthClient {
	c := &AuthClient{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token used on subsequent requests.
func (c *AuthClient) SetToken(token string) {
	c.token = token
}

// Login requests an OTP for the given phone number. A rejected login
// comes back as a result with OK=false, not an error.
func (c *AuthClient) Login(ctx context.Context, phone, displayName string) (*AuthResult, error) {
	return c.do(ctx, "POST", "/api/auth/login", map[string]string{
		"phone":       phone,
		"displayName": displayName,
	}, nil)
}

// VerifyOTP exchanges a one-time code for a session.
func (c *AuthClient) VerifyOTP(ctx context.Context, phone, code string) (*AuthResult, error) {
	return c.do(ctx, "POST", "/api/auth/verify", map[string]string{
		"phone": phone,
		"code":  code,
	}, nil)
}

func (c *AuthClient) do(ctx context.Context, method, path string, body interface{}, query map[string]string) (*AuthResult, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		params := url.Values{}
		for k, v := range query {
			params.Set(k, v)
		}
		u += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request")
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	var result AuthResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}
	return &result, nil
}
