package portal

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://billing.vicroads.vic.gov.au"
	defaultUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/99.0.4844.84 Safari/537.36"
)

// Transport is everything the handshake and poller need from HTTP: send a
// request, get the body back. Cookies are the transport's business.
type Transport interface {
	Get(ctx context.Context, path string) ([]byte, error)
	PostForm(ctx context.Context, path string, form map[string]string) ([]byte, error)
}

// Client is a cookie-preserving portal transport.
type Client struct {
	http *resty.Client
	base *url.URL
}

type ClientOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUA
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid portal base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	hc := resty.New()
	hc.SetBaseURL(base.String())
	hc.SetCookieJar(jar)
	hc.SetTimeout(opts.Timeout)
	hc.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	hc.SetHeaders(map[string]string{
		"user-agent":      opts.UserAgent,
		"accept":          "application/json, text/javascript, */*; q=0.01,text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"accept-language": "en-GB,en-US;q=0.9,en;q=0.8",
		"origin":          base.Scheme + "://" + base.Host,
		"referer":         base.String() + "/bookings/Appointment/LocationSearch",
		"sec-fetch-site":  "same-origin",
		"sec-fetch-mode":  "navigate",
		"sec-fetch-dest":  "document",
	})

	return &Client{http: hc, base: base}, nil
}

func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(path)
	return c.body("GET", path, res, err)
}

func (c *Client) PostForm(ctx context.Context, path string, form map[string]string) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded; charset=UTF-8").
		SetFormData(form).
		Post(path)
	return c.body("POST", path, res, err)
}

func (c *Client) body(method, path string, res *resty.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, fmt.Errorf("portal %s %s: %w", method, path, err)
	}
	if res.StatusCode() >= 400 {
		return res.Body(), fmt.Errorf("portal %s %s: http %d", method, path, res.StatusCode())
	}
	return res.Body(), nil
}
