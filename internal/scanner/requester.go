package scanner

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"

	"github.com/maxvaer/vanityprobe/internal/config"
)

// maxDrain caps how much of a response body is read before closing, so the
// connection can be reused without buffering large error pages.
const maxDrain = 64 << 10

// Response holds the parts of an availability response the prober needs.
type Response struct {
	StatusCode int
	URL        string
	Duration   time.Duration
}

// Requester issues availability lookups, one HTTP client per egress endpoint.
type Requester struct {
	baseURL   string
	headers   map[string]string
	userAgent string
	timeout   time.Duration
	insecure  bool

	mu      sync.Mutex
	clients map[string]*http.Client
}

// NewRequester creates a Requester from the provided options.
func NewRequester(opts *config.Options) (*Requester, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", opts.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", opts.BaseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""

	ua := opts.UserAgent
	if ua == "" {
		ua = "vanityprobe/1.0"
	}

	return &Requester{
		baseURL:   base.String(),
		headers:   opts.Headers,
		userAgent: ua,
		timeout:   opts.Timeout,
		insecure:  opts.Insecure,
		clients:   make(map[string]*http.Client),
	}, nil
}

// URLFor returns the lookup URL for a candidate.
func (r *Requester) URLFor(candidate string) string {
	return r.baseURL + "/" + url.PathEscape(candidate)
}

// Do sends one GET for candidate through egress (nil means direct).
func (r *Requester) Do(ctx context.Context, candidate string, egress *url.URL) (*Response, error) {
	client, err := r.client(egress)
	if err != nil {
		return nil, err
	}

	target := r.URLFor(candidate)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	return &Response{
		StatusCode: resp.StatusCode,
		URL:        target,
		Duration:   time.Since(start),
	}, nil
}

func (r *Requester) client(egress *url.URL) (*http.Client, error) {
	key := ""
	if egress != nil {
		key = egress.String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[key]; ok {
		return c, nil
	}

	dialer := &net.Dialer{Timeout: r.timeout}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: r.timeout,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
	if r.insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	if egress != nil {
		switch egress.Scheme {
		case "socks5", "socks5h":
			d, err := proxy.FromURL(egress, dialer)
			if err != nil {
				return nil, fmt.Errorf("socks proxy %s: %w", egress.Redacted(), err)
			}
			cd, ok := d.(proxy.ContextDialer)
			if !ok {
				return nil, fmt.Errorf("socks proxy %s: dialer does not support contexts", egress.Redacted())
			}
			transport.DialContext = cd.DialContext
		default:
			transport.Proxy = http.ProxyURL(egress)
		}
	}

	c := &http.Client{
		Transport: transport,
		Timeout:   r.timeout,
		// A redirect still proves the code resolves; do not follow it.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	r.clients[key] = c
	return c, nil
}

// CloseIdleConnections releases idle connections held by every egress client.
func (r *Requester) CloseIdleConnections() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		c.CloseIdleConnections()
	}
}
