package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"shopping-cart/model"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// HTTPError is a non-2xx response other than 404.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("catalog: http error: status=%d body=%s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// Client talks to a catalog exposing GET /products/{id} and GET /stock/{id}.
// Failed requests are not retried.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	headers    http.Header
}

// NewClient creates a Client for the provided base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("catalog: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: invalid base URL")
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Product(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := c.getJSON(ctx, &p, "products", strconv.FormatInt(id, 10)); err != nil {
		return model.Product{}, err
	}
	if p.ID != id {
		return model.Product{}, errors.Errorf("catalog: asked for product %d, got %d", id, p.ID)
	}
	p.Amount = 0
	return p, nil
}

func (c *Client) Stock(ctx context.Context, id int64) (model.Stock, error) {
	var s model.Stock
	if err := c.getJSON(ctx, &s, "stock", strconv.FormatInt(id, 10)); err != nil {
		return model.Stock{}, err
	}
	if s.ID != id {
		return model.Stock{}, errors.Errorf("catalog: asked for stock %d, got %d", id, s.ID)
	}
	return s, nil
}

func (c *Client) getJSON(ctx context.Context, out any, elem ...string) error {
	u := c.baseURL.JoinPath(elem...)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "catalog: build request")
	}
	for k, values := range c.headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "catalog: GET %s", u.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return errors.Wrapf(ErrNotFound, "GET %s", u.Path)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "catalog: decode %s", u.Path)
	}
	return nil
}
