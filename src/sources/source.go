// src/sources/source.go
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/michaelkielt/etl-banks-project/src/logger"
	"github.com/michaelkielt/etl-banks-project/src/models"
	"golang.org/x/net/publicsuffix"
)

// TableSource yields the HTML document holding the banks table.
// The caller closes the returned reader.
type TableSource interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
}

// Options tune the HTTP source.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// New picks a source for rawURL: file:// URLs and bare paths read a saved page,
// http(s) URLs are fetched.
func New(rawURL string, opts Options) (TableSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid source url %q: %v", models.ErrConfig, rawURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewHTTPSource(rawURL, opts), nil
	case "file":
		return NewFileSource(u.Path), nil
	case "":
		return NewFileSource(rawURL), nil
	default:
		return nil, fmt.Errorf("%w: unsupported source scheme %q", models.ErrConfig, u.Scheme)
	}
}

// HTTPSource downloads the page with a single GET. There is no retry.
type HTTPSource struct {
	url        string
	userAgent  string
	httpClient http.Client
}

// NewHTTPSource creates a source for rawURL.
func NewHTTPSource(rawURL string, opts Options) *HTTPSource {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPSource{
		url:       rawURL,
		userAgent: opts.UserAgent,
		httpClient: http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}
}

// URL returns the page address.
func (s *HTTPSource) URL() string {
	return s.url
}

// Fetch performs the GET. Transport failures and non-2xx statuses wrap models.ErrNetwork.
func (s *HTTPSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", models.ErrNetwork, s.url, err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", models.ErrNetwork, s.url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s returned %s", models.ErrNetwork, s.url, resp.Status)
	}

	logger.FromContext(ctx).Debug("Fetched source page", "url", s.url, "status", resp.StatusCode)
	return resp.Body, nil
}

// FileSource reads a page saved to disk.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the HTML file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch opens the file. A missing or unreadable file wraps models.ErrNetwork,
// the same class an unreachable host gets.
func (s *FileSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", models.ErrNetwork, s.path, err)
	}
	return f, nil
}

// StaticSource serves a fixed in-memory document.
type StaticSource struct {
	Document string
}

// Fetch returns the document.
func (s StaticSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.Document)), nil
}
