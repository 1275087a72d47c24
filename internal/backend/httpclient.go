package backend

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UserAgent is sent with every request.
const UserAgent = "nsctl-cli/1.0"

// Options tunes the HTTP client.
type Options struct {
	// Endpoints overrides individual API paths; empty fields use defaults.
	Endpoints Endpoints
	// Timeout applies to every request; 10s when zero.
	Timeout time.Duration
	// Insecure skips TLS verification for controllers with self-signed certificates.
	Insecure bool
	// Logger receives debug traces of requests; nil discards them.
	Logger logrus.FieldLogger
}

// HTTP implements API client over the controller REST endpoints.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "https://controller.example.com/api")
	baseURL string
	// endpoints contains the URL paths for various API endpoints
	endpoints Endpoints
	// client is the underlying HTTP client with configured timeout
	client *http.Client
	log    logrus.FieldLogger
}

// newHTTP creates a new HTTP client with the given base URL and options.
func newHTTP(baseURL string, opts Options) *HTTP {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed controllers
	}

	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: opts.Endpoints.withDefaults(),
		client:    &http.Client{Timeout: timeout, Transport: transport},
		log:       log,
	}
}

// setStandardHeaders adds headers shared by every request.
func (h *HTTP) setStandardHeaders(req *http.Request) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
}

// newRequest builds a request against baseURL+path with an optional JSON body
// and bearer token.
func (h *HTTP) newRequest(ctx context.Context, method, path string, body any, accessToken string) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = strings.NewReader(string(b))
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	h.setStandardHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return req, nil
}

// do sends req and logs the outcome at debug level.
func (h *HTTP) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := h.client.Do(req)
	entry := h.log.WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.URL.Path,
		"request_id": req.Header.Get("X-Request-ID"),
		"elapsed":    time.Since(start).Round(time.Millisecond),
	})
	if err != nil {
		entry.WithError(err).Debug("controller request failed")
		return nil, err
	}
	entry.WithField("status", resp.StatusCode).Debug("controller request done")
	return resp, nil
}

// envelope is the response wrapper used by the controller for data endpoints.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// readError turns a non-2xx response into an error carrying status and the
// controller message when one is present.
func readError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env envelope
	if err := json.Unmarshal(b, &env); err == nil && env.Message != "" {
		return &StatusError{Op: op, Status: resp.StatusCode, Message: env.Message}
	}
	return &StatusError{Op: op, Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
}

// ErrUnauthorized matches, via errors.Is, any StatusError with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed: %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s failed: %d %s", e.Op, e.Status, e.Message)
}

// Is makes errors.Is(err, ErrUnauthorized) true for 401 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}
