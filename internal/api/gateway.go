// Package api is the only way the client talks to the feed backend. The
// Gateway owns the cookie-backed session and the CSRF negotiation; Client
// layers the typed endpoints on top of it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

// Defaults matching the backend's contract.
const (
	DefaultCSRFCookie    = "csrftoken"
	DefaultCSRFHeader    = "X-CSRFToken"
	DefaultBootstrapPath = "/posts/"
	DefaultTimeout       = 15 * time.Second
)

type Options struct {
	BaseURL       string
	Timeout       time.Duration
	CSRFCookie    string
	CSRFHeader    string
	BootstrapPath string
	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
}

// Gateway sends requests with the session's cookies attached and, for
// state-changing methods, the anti-forgery header.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	csrf       *CSRF
	csrfHeader string
}

func NewGateway(opts Options) (*Gateway, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := &http.Client{
		Jar:       jar,
		Timeout:   timeout,
		Transport: opts.Transport,
	}

	g := &Gateway{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		csrfHeader: valueOr(opts.CSRFHeader, DefaultCSRFHeader),
	}
	g.csrf = newCSRF(jar, base, httpClient,
		valueOr(opts.CSRFCookie, DefaultCSRFCookie),
		g.url(valueOr(opts.BootstrapPath, DefaultBootstrapPath)))
	return g, nil
}

// CSRF exposes the token service, e.g. for diagnostics.
func (g *Gateway) CSRF() *CSRF {
	return g.csrf
}

func (g *Gateway) url(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return g.baseURL + endpoint
}

// Call sends one request and decodes a 2xx JSON body into out (which may be
// nil). Non-2xx answers come back as *HTTPError, missing answers as
// *TransportError. Nothing is retried.
func (g *Gateway) Call(ctx context.Context, method, endpoint string, body, out any) error {
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, endpoint, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.url(endpoint), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	if !isSafeMethod(method) {
		token := g.csrf.Token()
		if token == "" {
			token = g.csrf.Acquire(ctx)
		}
		if token != "" {
			req.Header.Set(g.csrfHeader, token)
		}
	}

	logger := log.WithFields(log.Fields{
		"method":     method,
		"endpoint":   endpoint,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(method, "transport").Inc()
		logger.WithError(err).Error("API call failed")
		return &TransportError{Method: method, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(method, outcomeLabel(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Best effort: a failed read still leaves a usable error.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		httpErr := &HTTPError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Body:       string(snippet),
		}
		logger.WithField("status", resp.StatusCode).Warn(httpErr.Error())
		return httpErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, endpoint, err)
	}
	return nil
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
