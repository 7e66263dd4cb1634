package api

import (
	"context"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"
)

// CSRF is the process-wide anti-forgery credential. It holds no copy of the
// token: every read goes to the cookie jar, so whatever the server last set is
// what gets sent.
type CSRF struct {
	jar          http.CookieJar
	base         *url.URL
	client       *http.Client
	cookieName   string
	bootstrapURL string
}

func newCSRF(jar http.CookieJar, base *url.URL, client *http.Client, cookieName, bootstrapURL string) *CSRF {
	return &CSRF{
		jar:          jar,
		base:         base,
		client:       client,
		cookieName:   cookieName,
		bootstrapURL: bootstrapURL,
	}
}

// Token returns the current cookie value, or "" when the server has not issued one.
func (s *CSRF) Token() string {
	for _, c := range s.jar.Cookies(s.base) {
		if c.Name != s.cookieName {
			continue
		}
		if v, err := url.PathUnescape(c.Value); err == nil {
			return v
		}
		return c.Value
	}
	return ""
}

// Acquire returns the token, issuing one GET to a safe endpoint first when the
// cookie is missing. The GET exists only to make the server set the cookie; its
// outcome is ignored. The result may still be "" and callers proceed without
// the header in that case.
func (s *CSRF) Acquire(ctx context.Context) string {
	if tok := s.Token(); tok != "" {
		return tok
	}

	csrfBootstraps.Inc()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.bootstrapURL, nil)
	if err != nil {
		log.WithError(err).Warn("Could not build CSRF bootstrap request")
		return ""
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("Could not fetch CSRF token")
		return s.Token()
	}
	resp.Body.Close()

	tok := s.Token()
	if tok == "" {
		log.WithField("url", s.bootstrapURL).Warn("Server did not issue a CSRF cookie")
	}
	return tok
}
