package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single request including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "pageloader/1.0"

	// maxRedirects is the number of redirects followed before the last
	// response is returned as is.
	maxRedirects = 10
)

// Fetcher fetches a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (*Response, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) (*Response, error) {
	return f(ctx, url)
}

// Rule holds request settings that apply to a single host.
type Rule struct {
	// Headers are added to every request to the host.
	Headers map[string]string

	// Cookie is a raw cookie string such as "session=abc".
	Cookie string

	// UserAgent overrides the client's user agent for the host.
	UserAgent string
}

// Client is an HTTP Fetcher.
type Client struct {
	// http is the underlying client with the header-injecting transport.
	http *http.Client

	// limiter spaces requests. Nil means unlimited.
	limiter *rate.Limiter

	// maxBodySize rejects larger bodies. Zero means unlimited.
	maxBodySize int64

	// settings collected from options before the transport is built.
	timeout      time.Duration
	userAgent    string
	headers      map[string]string
	cookie       string
	rules        map[string]Rule
	proxyAddress string
	base         http.RoundTripper
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithCookie adds a raw cookie string to every request.
func WithCookie(cookie string) Option {
	return func(c *Client) {
		c.cookie = cookie
	}
}

// WithHostRule applies rule to requests whose host (with port, if any)
// equals host, compared case-insensitively. Rule values take precedence
// over the client-wide settings.
func WithHostRule(host string, rule Rule) Option {
	return func(c *Client) {
		c.rules[strings.ToLower(host)] = rule
	}
}

// WithProxy routes all connections through the SOCKS5 proxy at address.
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithRateLimit limits requests to perSecond with the given burst.
// A non-positive perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMaxBodySize rejects response bodies larger than size bytes.
// Zero disables the limit.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithTransport replaces the base round tripper. It is ignored when a
// proxy is configured.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

// NewClient creates a Client.
//
// The proxy address is validated here but the proxy is not contacted until
// the first request.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		headers:   make(map[string]string),
		rules:     make(map[string]Rule),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.base
	if c.proxyAddress != "" {
		transport, err := socksTransport(c.proxyAddress)
		if err != nil {
			return nil, err
		}
		base = transport
	}
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	}

	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck // cookiejar.New never fails

	c.http = &http.Client{
		Transport: &headerInjectingTransport{
			base:      base,
			userAgent: c.userAgent,
			cookie:    c.cookie,
			headers:   c.headers,
			rules:     c.rules,
		},
		Timeout: c.timeout,
		Jar:     jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return c, nil
}

// Fetch performs a GET request and reads the whole body.
//
// Errors are either *TransportError or *StatusError. For a non-2xx status
// the body is discarded.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: rawURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best effort drain for connection reuse
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := c.readBody(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	return &Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// readBody reads r fully, failing when the body is larger than the limit.
// Assets are stored byte-for-byte, so a truncated body is never returned.
func (c *Client) readBody(r io.Reader) ([]byte, error) {
	if c.maxBodySize <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, c.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBodySize)
	}
	return body, nil
}

// unwrapURLError strips the *url.Error wrapper added by http.Client, whose
// message repeats the method and URL already carried by TransportError.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

// socksTransport builds a transport that dials through a SOCKS5 proxy.
func socksTransport(address string) (*http.Transport, error) {
	if err := ValidateProxyAddress(address); err != nil {
		return nil, err
	}

	// Most SOCKS proxies accept unauthenticated local connections.
	dialer, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return transport, nil
}

// ValidateProxyAddress checks that address is in "host:port" format with a
// non-empty host and a port between 1 and 65535.
func ValidateProxyAddress(address string) error {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidProxyAddress, address)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidProxyAddress, address)
	}
	return nil
}

// headerInjectingTransport wraps an http.RoundTripper to add the configured
// user agent, headers and cookies to every request, redirects included.
type headerInjectingTransport struct {
	base      http.RoundTripper
	userAgent string
	cookie    string
	headers   map[string]string
	rules     map[string]Rule
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clone := req.Clone(req.Context())

	userAgent := t.userAgent
	cookies := []string{t.cookie}
	headers := []map[string]string{t.headers}
	if rule, ok := t.rules[strings.ToLower(req.URL.Host)]; ok {
		if rule.UserAgent != "" {
			userAgent = rule.UserAgent
		}
		cookies = append(cookies, rule.Cookie)
		headers = append(headers, rule.Headers)
	}

	clone.Header.Set("User-Agent", userAgent)
	if clone.Header.Get("Accept") == "" {
		clone.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}
	for _, cookie := range cookies {
		if cookie == "" {
			continue
		}
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+cookie)
		} else {
			clone.Header.Set("Cookie", cookie)
		}
	}
	for _, set := range headers {
		for key, value := range set {
			clone.Header.Set(key, value)
		}
	}

	return t.base.RoundTrip(clone)
}
