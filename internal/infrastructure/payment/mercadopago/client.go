// Package mercadopago implements the payment gateway port against the
// MercadoPago REST API.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"

	"github.com/abengolea/heartlink-sub000/internal/application/payment/paymentgateway"
	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

const (
	defaultBaseURL = "https://api.mercadopago.com"
	defaultTimeout = 10 * time.Second
	// Maximum response body size accepted from the provider (1MB)
	maxResponseSize = 1 << 20
)

// errClientStatus marks 4xx answers. They say nothing about provider health
// so they do not count against the circuit breaker.
var errClientStatus = errors.New("provider rejected request")

// Config configures the provider client.
type Config struct {
	BaseURL         string
	AccessToken     string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client calls the provider with a bearer access token and fails fast while
// the provider is unhealthy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	validate   *validator.Validate
	logger     logger.Interface
}

var _ paymentgateway.Gateway = (*Client)(nil)

// NewClient creates a provider client.
func NewClient(cfg Config, log logger.Interface) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{
					AccessToken: cfg.AccessToken,
					TokenType:   "Bearer",
				}),
				Base: http.DefaultTransport,
			},
		},
		validate: validator.New(),
		logger:   log.With("component", "mercadopago"),
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "mercadopago",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errClientStatus)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warnw("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return c
}

// paymentResponse is the subset of the payment resource the billing core reads.
type paymentResponse struct {
	ID                json.Number `json:"id" validate:"required"`
	Status            string      `json:"status" validate:"required"`
	StatusDetail      string      `json:"status_detail"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount float64     `json:"transaction_amount" validate:"gte=0"`
	CurrencyID        string      `json:"currency_id" validate:"required,len=3"`
	PaymentMethodID   string      `json:"payment_method_id"`
	DateCreated       time.Time   `json:"date_created"`
	DateApproved      *time.Time  `json:"date_approved"`
}

// GetPayment fetches GET /v1/payments/{id}.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*paymentgateway.Payment, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		var statusErr *statusError
		if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
			return nil, paymentgateway.ErrPaymentNotFound
		}
		return nil, err
	}

	var resp paymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode payment: %w", err)
	}
	if err := c.validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("invalid payment payload: %w", err)
	}

	c.logger.Debugw("fetched payment",
		"payment_id", resp.ID.String(),
		"status", resp.Status,
	)

	return &paymentgateway.Payment{
		ID:                resp.ID.String(),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		TransactionAmount: resp.TransactionAmount,
		CurrencyID:        strings.ToUpper(resp.CurrencyID),
		PaymentMethodID:   resp.PaymentMethodID,
		DateCreated:       resp.DateCreated.UTC(),
		DateApproved:      utcPtr(resp.DateApproved),
	}, nil
}

type preferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferencePayer struct {
	Email string `json:"email,omitempty"`
}

type preferenceBackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type preferenceRequest struct {
	Items             []preferenceItem   `json:"items"`
	Payer             preferencePayer    `json:"payer"`
	ExternalReference string             `json:"external_reference"`
	NotificationURL   string             `json:"notification_url,omitempty"`
	BackURLs          preferenceBackURLs `json:"back_urls"`
	AutoReturn        string             `json:"auto_return,omitempty"`
}

type preferenceResponse struct {
	ID        string `json:"id" validate:"required"`
	InitPoint string `json:"init_point" validate:"required,url"`
}

// CreateCheckout registers a preference via POST /checkout/preferences.
func (c *Client) CreateCheckout(ctx context.Context, req paymentgateway.CheckoutRequest) (*paymentgateway.CheckoutResponse, error) {
	price := vo.NewMoney(req.AmountMinor, req.Currency)

	payload := preferenceRequest{
		Items: []preferenceItem{{
			Title:      req.Title,
			Quantity:   1,
			UnitPrice:  price.Decimal(),
			CurrencyID: price.Currency(),
		}},
		Payer:             preferencePayer{Email: req.PayerEmail},
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		BackURLs: preferenceBackURLs{
			Success: req.SuccessURL,
			Failure: req.FailureURL,
			Pending: req.PendingURL,
		},
	}
	if req.SuccessURL != "" {
		payload.AutoReturn = "approved"
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preference: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/checkout/preferences", data)
	if err != nil {
		return nil, err
	}

	var resp preferenceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode preference: %w", err)
	}
	if err := c.validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("invalid preference payload: %w", err)
	}

	c.logger.Infow("checkout preference created",
		"preference_id", resp.ID,
		"external_reference", req.ExternalReference,
	)

	return &paymentgateway.CheckoutResponse{
		PreferenceID: resp.ID,
		CheckoutURL:  resp.InitPoint,
	}, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.code, e.body)
}

func (e *statusError) Unwrap() error {
	if e.code >= 400 && e.code < 500 {
		return errClientStatus
	}
	return nil
}

// do runs one request through the circuit breaker and returns the body of a
// 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &statusError{code: resp.StatusCode, body: truncate(string(data), 200)}
		}
		return data, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", paymentgateway.ErrGatewayUnavailable, err)
	}
	if err != nil {
		c.logger.Warnw("provider request failed",
			"method", method,
			"path", path,
			"error", err,
		)
		return nil, err
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
