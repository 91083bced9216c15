package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/eugenenazirov/stock-keeper/internal/metrics"
)

const (
	// DefaultBaseURL is the production gateway host.
	DefaultBaseURL = "https://api-gateway.coupang.com"
	// PageSize is the number of products requested from the list endpoint.
	PageSize = 100

	apiPrefix       = "/v2/providers/seller_api/apis/api/v1/marketplace"
	productsPath    = apiPrefix + "/seller-products"
	vendorItemsPath = apiPrefix + "/vendor-items"
	approvedStatus  = "APPROVED"
	maxErrorBody    = 64 << 10

	endpointList   = "list"
	endpointDetail = "detail"
	endpointUpdate = "update"
)

// Authorizer produces the Authorization header value for a request.
type Authorizer interface {
	Authorize(method, target string) string
}

// Config holds the client settings.
type Config struct {
	BaseURL           string
	VendorID          string
	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	RequestsPerSecond float64
	RequestBurst      int
}

// Option configures Client behaviour.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, primarily for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client calls the marketplace API sequentially. It never retries.
type Client struct {
	baseURL    string
	vendorID   string
	timeout    time.Duration
	httpClient *http.Client
	auth       Authorizer
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient constructs a Client. Pacing is disabled when RequestsPerSecond is zero.
func NewClient(cfg Config, auth Authorizer, logger *zap.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		vendorID:   cfg.VendorID,
		timeout:    cfg.ConnectTimeout + cfg.ReadTimeout,
		httpClient: newHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout),
		auth:       auth,
		limiter:    newLimiter(cfg.RequestsPerSecond, cfg.RequestBurst),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	transport.ResponseHeaderTimeout = readTimeout

	return &http.Client{Transport: transport}
}

func newLimiter(ratePerSecond float64, burst int) *rate.Limiter {
	if ratePerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}

// ListTarget returns the path and query of the first approved-products page for vendorID.
func ListTarget(vendorID string) string {
	query := "vendorId=" + url.QueryEscape(vendorID) +
		"&maxPerPage=" + strconv.Itoa(PageSize) +
		"&status=" + approvedStatus
	return productsPath + "?" + query
}

// ProductTarget returns the detail path of a seller product.
func ProductTarget(sellerProductID int64) string {
	return productsPath + "/" + strconv.FormatInt(sellerProductID, 10)
}

// QuantityTarget returns the path that sets a vendor item's stock to quantity.
func QuantityTarget(vendorItemID int64, quantity int) string {
	return vendorItemsPath + "/" + strconv.FormatInt(vendorItemID, 10) + "/quantities/" + strconv.Itoa(quantity)
}

// ListProducts fetches the first page of approved products. Only the first page is read;
// NextToken is returned to the caller but never followed.
func (c *Client) ListProducts(ctx context.Context) (*ProductPage, error) {
	body, err := c.do(ctx, endpointList, http.MethodGet, ListTarget(c.vendorID))
	if err != nil {
		return nil, err
	}

	var page ProductPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: product list: %v", ErrDecodeResponse, err)
	}
	return &page, nil
}

// GetProduct fetches a product with its vendor items.
func (c *Client) GetProduct(ctx context.Context, sellerProductID int64) (*ProductDetail, error) {
	body, err := c.do(ctx, endpointDetail, http.MethodGet, ProductTarget(sellerProductID))
	if err != nil {
		return nil, err
	}

	var resp productDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: product %d: %v", ErrDecodeResponse, sellerProductID, err)
	}
	return &resp.Data, nil
}

// UpdateQuantity sets the stock of a vendor item to quantity.
func (c *Client) UpdateQuantity(ctx context.Context, vendorItemID int64, quantity int) (*UpdateResult, error) {
	body, err := c.do(ctx, endpointUpdate, http.MethodPut, QuantityTarget(vendorItemID, quantity))
	if err != nil {
		return nil, err
	}

	result := UpdateResult{Raw: json.RawMessage(body)}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: vendor item %d: %v", ErrDecodeResponse, vendorItemID, err)
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pace request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	// signed last so the signed-date is as fresh as possible
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.auth.Authorize(method, target))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, c.transportError(ctx, endpoint, method, target, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("marketplace response",
		zap.String("method", method),
		zap.String("path", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "http_error").Inc()
		return nil, &HTTPStatusError{
			Method:     method,
			Path:       target,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, endpoint, method, target, err)
	}

	metrics.APIRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return body, nil
}

func (c *Client) transportError(ctx context.Context, endpoint, method, target string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "canceled").Inc()
		return ctxErr
	}
	metrics.APIRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
	return &NetworkError{Method: method, Path: target, Err: err}
}
