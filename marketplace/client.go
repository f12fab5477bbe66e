package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SP-API rate budgets: getOrders allows one request per minute, order items
// half a request per second.
const (
	ordersPerSecond = 0.0167
	itemsPerSecond  = 0.5
)

type Credentials struct {
	ClientId     string
	ClientSecret string
	RefreshToken string
}

type Config struct {
	Endpoint      string // SP-API base, e.g. https://sellingpartnerapi-na.amazon.com
	TokenURL      string // LWA token exchange endpoint
	MarketplaceId string
	LogisticsURL  string // internal logistics API serving per-ASIN shipping cost
	Credentials   Credentials
}

// Client is a minimal SP-API consumer: orders, order items and fee estimates,
// plus the internal logistics lookup. All calls are paced and retried with
// backoff; an exhausted retry budget surfaces as an error the caller skips.
type Client struct {
	cfg           Config
	httpClient    *http.Client
	logger        *logrus.Logger
	ordersLimiter *RateLimiter
	itemsLimiter  *RateLimiter
	accessToken   string
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://sellingpartnerapi-na.amazon.com"
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = "https://api.amazon.com/auth/o2/token"
	}
	if cfg.MarketplaceId == "" {
		cfg.MarketplaceId = "ATVPDKIKX0DER"
	}
	return &Client{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		logger:        logger,
		ordersLimiter: NewRateLimiter(ordersPerSecond),
		itemsLimiter:  NewRateLimiter(itemsPerSecond),
	}
}

type Order struct {
	AmazonOrderId      string `json:"AmazonOrderId"`
	OrderStatus        string `json:"OrderStatus"`
	FulfillmentChannel string `json:"FulfillmentChannel"`
	PurchaseDate       string `json:"PurchaseDate"`
	LatestShipDate     string `json:"LatestShipDate"`
}

type OrderItem struct {
	ASIN            string `json:"ASIN"`
	SellerSKU       string `json:"SellerSKU"`
	Title           string `json:"Title"`
	QuantityOrdered int64  `json:"QuantityOrdered"`
	ItemPrice       struct {
		CurrencyCode string `json:"CurrencyCode"`
		Amount       string `json:"Amount"`
	} `json:"ItemPrice"`
}

type OrdersPage struct {
	Orders    []Order
	NextToken string
}

// Authenticate exchanges the refresh token for an LWA access token. It is
// called lazily by the API methods and can be called up front to fail fast.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": c.cfg.Credentials.RefreshToken,
		"client_id":     c.cfg.Credentials.ClientId,
		"client_secret": c.cfg.Credentials.ClientSecret,
	})
	if err != nil {
		return err
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	err = retryWithBackoff(ctx, c.logger, "authenticate", func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, bytes.NewReader(body))
		if err != nil {
			return 0, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.doJSON(req, &out)
	})
	if err != nil {
		return err
	}
	if out.AccessToken == "" {
		return fmt.Errorf("token response had no access_token")
	}
	c.accessToken = out.AccessToken
	return nil
}

// ListOrders fetches one page of MFN orders created after the given time.
// Pass the previous page's NextToken to continue; an empty NextToken on the
// result means the listing is exhausted.
func (c *Client) ListOrders(ctx context.Context, createdAfter time.Time, nextToken string) (*OrdersPage, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}
	if err := c.ordersLimiter.Acquire(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("MarketplaceIds", c.cfg.MarketplaceId)
	params.Set("CreatedAfter", createdAfter.UTC().Format(time.RFC3339))
	params.Set("FulfillmentChannels", "MFN")
	if nextToken != "" {
		params.Set("NextToken", nextToken)
	}

	var out struct {
		Payload struct {
			Orders    []Order `json:"Orders"`
			NextToken string  `json:"NextToken"`
		} `json:"payload"`
	}
	err := retryWithBackoff(ctx, c.logger, "getOrders", func() (int, error) {
		req, err := c.apiRequest(ctx, http.MethodGet, "/orders/v0/orders?"+params.Encode(), nil)
		if err != nil {
			return 0, err
		}
		return c.doJSON(req, &out)
	})
	if err != nil {
		return nil, err
	}
	return &OrdersPage{Orders: out.Payload.Orders, NextToken: out.Payload.NextToken}, nil
}

// ListOrderItems fetches the line items of one order.
func (c *Client) ListOrderItems(ctx context.Context, orderId string) ([]OrderItem, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}
	if err := c.itemsLimiter.Acquire(ctx); err != nil {
		return nil, err
	}

	var out struct {
		Payload struct {
			OrderItems []OrderItem `json:"OrderItems"`
		} `json:"payload"`
	}
	err := retryWithBackoff(ctx, c.logger, "getOrderItems", func() (int, error) {
		req, err := c.apiRequest(ctx, http.MethodGet, "/orders/v0/orders/"+url.PathEscape(orderId)+"/orderItems", nil)
		if err != nil {
			return 0, err
		}
		return c.doJSON(req, &out)
	})
	if err != nil {
		return nil, err
	}
	return out.Payload.OrderItems, nil
}

// FeesEstimate asks the marketplace for the total fee on one ASIN at the
// given listing price. A non-positive price cannot be estimated and yields
// zero with a warning; it means the feed gave us a bad price upstream.
func (c *Client) FeesEstimate(ctx context.Context, asin string, price decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		c.logger.WithField("asin", asin).Warn("marketplace.fees.zero_price")
		return decimal.Zero, nil
	}
	if err := c.ensureToken(ctx); err != nil {
		return decimal.Zero, err
	}
	if err := c.itemsLimiter.Acquire(ctx); err != nil {
		return decimal.Zero, err
	}

	body, err := json.Marshal(map[string]interface{}{
		"FeesEstimateRequest": map[string]interface{}{
			"MarketplaceId":     c.cfg.MarketplaceId,
			"IsAmazonFulfilled": false,
			"PriceToEstimateFees": map[string]interface{}{
				"ListingPrice": map[string]string{
					"CurrencyCode": "USD",
					"Amount":       price.StringFixed(2),
				},
				"Shipping": map[string]string{
					"CurrencyCode": "USD",
					"Amount":       "0.00",
				},
			},
			"Identifier": asin,
		},
	})
	if err != nil {
		return decimal.Zero, err
	}

	var out struct {
		Payload struct {
			FeesEstimateResult struct {
				FeesEstimate struct {
					TotalFeesEstimate struct {
						Amount decimal.Decimal `json:"Amount"`
					} `json:"TotalFeesEstimate"`
				} `json:"FeesEstimate"`
			} `json:"FeesEstimateResult"`
		} `json:"payload"`
	}
	err = retryWithBackoff(ctx, c.logger, "feesEstimate "+asin, func() (int, error) {
		req, err := c.apiRequest(ctx, http.MethodPost, "/products/fees/v0/items/"+url.PathEscape(asin)+"/feesEstimate", bytes.NewReader(body))
		if err != nil {
			return 0, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.doJSON(req, &out)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return out.Payload.FeesEstimateResult.FeesEstimate.TotalFeesEstimate.Amount, nil
}

// ShippingCost looks up the customer shipping price for an ASIN from the
// internal logistics API.
func (c *Client) ShippingCost(ctx context.Context, asin string) (decimal.Decimal, error) {
	if c.cfg.LogisticsURL == "" {
		return decimal.Zero, nil
	}

	var out struct {
		CustomerPriceShipping decimal.Decimal `json:"customer_price_shipping"`
	}
	err := retryWithBackoff(ctx, c.logger, "shippingCost "+asin, func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.LogisticsURL+"/api/products/shipping/"+url.PathEscape(asin), nil)
		if err != nil {
			return 0, err
		}
		return c.doJSON(req, &out)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return out.CustomerPriceShipping, nil
}

func (c *Client) ensureToken(ctx context.Context) error {
	if c.accessToken != "" {
		return nil
	}
	return c.Authenticate(ctx)
}

func (c *Client) apiRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Endpoint+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-amz-access-token", c.accessToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON executes the request and decodes the body, returning the HTTP status
// for the retry helper.
func (c *Client) doJSON(req *http.Request, out interface{}) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(b))
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return resp.StatusCode, nil
}
