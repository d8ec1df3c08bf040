package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// FetchError is the single failure shape for transport problems:
// network errors, timeouts, and non-2xx responses all land here.
// StatusCode is zero when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Credentials are optional basic-auth credentials for a single fetch.
type Credentials struct {
	Username string
	Password string
}

// Fetcher retrieves raw markup over HTTP with a bounded timeout and a
// browser-like User-Agent. Invalid and self-signed TLS certificates are
// tolerated on purpose: several configured sources run on broken certs
// and reachability wins over strict verification here. Known risk, not
// a bug. The fetcher never retries; retry policy belongs to the caller.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func New(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DisableKeepAlives: true,
				TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
			},
		},
		userAgent: userAgent,
	}
}

// Fetch retrieves url and returns the decoded body. Any failure comes
// back as a *FetchError carrying the URL.
func (f *Fetcher) Fetch(ctx context.Context, url string, creds *Credentials) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	if creds != nil && creds.Username != "" {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		reader = resp.Body
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	return string(body), nil
}
