package settlement

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/punchamoorthee/roomledger/internal/domain"
	"go.uber.org/zap"
)

// Client talks to a settlement gateway over HTTP.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

type identityResponse struct {
	Address string `json:"address"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		log: log,
	}
}

func (c *Client) Identity(ctx context.Context) (string, error) {
	var out identityResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/v1/identity")
	if err != nil {
		return "", fmt.Errorf("identity request: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return "", domain.ErrNotConnected
	case resp.IsError():
		return "", fmt.Errorf("identity request: status %d", resp.StatusCode())
	case out.Address == "":
		return "", domain.ErrNotConnected
	}
	return out.Address, nil
}

// SubmitPayment posts the payment. Declines (4xx) resolve as an unsuccessful
// result; transport failures, timeouts and 5xx leave the outcome unknown.
func (c *Client) SubmitPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	var out domain.PaymentResult
	var failure errorResponse

	r := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&failure)
	if req.IdempotencyKey != "" {
		r.SetHeader("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := r.Post("/v1/payments")
	if err != nil {
		return domain.PaymentResult{}, fmt.Errorf("%w: %v", domain.ErrSettlementIndeterminate, err)
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusUnauthorized:
		return domain.PaymentResult{}, domain.ErrNotConnected
	case status >= 500:
		return domain.PaymentResult{}, fmt.Errorf("%w: gateway status %d", domain.ErrSettlementIndeterminate, status)
	case resp.IsError():
		diag := failure.Error
		if diag == "" {
			diag = fmt.Sprintf("gateway status %d", status)
		}
		return domain.PaymentResult{Success: false, Diagnostic: diag}, nil
	}

	if out.Success && out.Reference == "" {
		return domain.PaymentResult{}, fmt.Errorf("%w: success without reference", domain.ErrSettlementIndeterminate)
	}
	c.log.Debug("payment resolved",
		zap.Bool("success", out.Success),
		zap.String("reference", out.Reference),
	)
	return out, nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Post("/v1/disconnect")
	if err != nil {
		return fmt.Errorf("disconnect request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("disconnect request: status %d", resp.StatusCode())
	}
	return nil
}
