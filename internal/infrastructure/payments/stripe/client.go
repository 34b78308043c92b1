// Package stripe creates payment intents against the Stripe REST API (or any
// server speaking the same payment_intents contract).
package stripe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/lenslegacy/class-booking/internal/core/domain"
)

const (
	DefaultBaseURL  = "https://api.stripe.com"
	DefaultCurrency = "usd"
	defaultTimeout  = 10 * time.Second
	maxRetries      = 2
	retryBackoff    = 200 * time.Millisecond
)

// Config holds the processor settings.
type Config struct {
	SecretKey string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
}

// Client implements ports.PaymentGateway.
type Client struct {
	http     *resty.Client
	currency string
	log      zerolog.Logger
	newKey   func() string
	backoff  func() retry.Backoff
}

// NewClient builds a Client. Empty BaseURL and Currency fall back to the
// Stripe defaults.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.SecretKey)

	return &Client{
		http:     httpClient,
		currency: currency,
		log:      log,
		newKey:   uuid.NewString,
		backoff:  defaultBackoff,
	}
}

func defaultBackoff() retry.Backoff {
	return retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBackoff))
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent opens a card payment intent for price and returns its client
// secret. Transport errors, 429 and 5xx responses are retried with the same
// idempotency key, so the processor creates at most one intent per call.
func (c *Client) CreateIntent(ctx context.Context, price float64) (string, error) {
	amount, err := MinorUnits(price)
	if err != nil {
		return "", err
	}

	key := c.newKey()
	var secret string
	err = retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		s, err := c.post(ctx, key, amount)
		if err != nil {
			return err
		}
		secret = s
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return secret, nil
}

func (c *Client) post(ctx context.Context, key string, amount int64) (string, error) {
	var out intentResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", key).
		SetFormData(map[string]string{
			"amount":                 fmt.Sprintf("%d", amount),
			"currency":               c.currency,
			"payment_method_types[]": "card",
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/payment_intents")
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("%w: %w", domain.ErrUpstream, err))
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		err := fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode(), msg)
		if retryable(resp.StatusCode()) {
			c.log.Warn().Int("status", resp.StatusCode()).Msg("payment processor unavailable, retrying")
			return "", retry.RetryableError(err)
		}
		return "", err
	}
	if out.ClientSecret == "" {
		return "", fmt.Errorf("%w: response carried no client secret", domain.ErrUpstream)
	}

	c.log.Debug().Str("intent_id", out.ID).Int64("amount", amount).Msg("payment intent created")
	return out.ClientSecret, nil
}

// MinorUnits converts a price to the integer amount the processor expects,
// rounding half away from zero to the nearest cent.
func MinorUnits(price float64) (int64, error) {
	amount := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(100)).Round(0)
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
	}
	return amount.IntPart(), nil
}

func retryable(status int) bool {
	return status == 429 || status >= 500
}
