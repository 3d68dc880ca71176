package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 15 * time.Second

// ClientConfig holds the credentials and endpoint for the HTTP client.
// KeyID and KeySecret authenticate via HTTP basic auth; they must never be
// logged or echoed in responses.
type ClientConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

var _ Client = (*HTTPClient)(nil)

// HTTPClient implements Client against the provider's REST API. Construct it
// once at startup and inject it; there is no package-level instance.
type HTTPClient struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

// NewHTTPClient creates an HTTPClient. The underlying transport is
// instrumented with otelhttp using the given tracer provider.
func NewHTTPClient(cfg ClientConfig, tp trace.TracerProvider) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		http: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(tp),
			),
		},
	}
}

// orderPayload is the provider's wire representation of an order.
type orderPayload struct {
	ID       string            `json:"id,omitempty"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Status   string            `json:"status,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type errorPayload struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder creates a remote order and returns the provider's record of it.
func (c *HTTPClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	body, err := json.Marshal(orderPayload{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal order request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq)
}

// FetchOrder retrieves a remote order by its provider-assigned id.
func (c *HTTPClient) FetchOrder(ctx context.Context, id string) (*Order, error) {
	if id == "" {
		return nil, errors.New("order id required")
	}

	u := c.baseURL + "/v1/orders/" + url.PathEscape(id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	return c.do(httpReq)
}

func (c *HTTPClient) do(req *http.Request) (*Order, error) {
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "gateway request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read gateway response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var ep errorPayload
		if err := json.Unmarshal(data, &ep); err == nil {
			apiErr.Code = ep.Error.Code
			apiErr.Description = ep.Error.Description
		}
		return nil, apiErr
	}

	var p orderPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "decode gateway response")
	}

	return &Order{
		ID:       p.ID,
		Amount:   p.Amount,
		Currency: p.Currency,
		Receipt:  p.Receipt,
		Status:   p.Status,
		Notes:    p.Notes,
	}, nil
}
