package payment

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

	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	"momo-checkout/internal/infra/logging"
	"momo-checkout/internal/infra/metrics"
)

var _ adapter.PaymentAPI = (*HTTPPaymentAPI)(nil)

// maxBody caps how much of a backend response we are willing to read.
const maxBody = 1 << 20

// HTTPPaymentAPI talks JSON to the marketplace backend, which in turn drives
// Payunit / MTN MoMo / Orange Money.
type HTTPPaymentAPI struct {
	base   *url.URL
	apiKey string
	client *http.Client
}

func NewHTTPPaymentAPI(baseURL, apiKey string, timeout time.Duration) (*HTTPPaymentAPI, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("payment api base url empty")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid payment api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid payment api base url scheme %q", u.Scheme)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPPaymentAPI{
		base:   u,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// SetHTTPClient swaps the transport, mainly for tests.
func (g *HTTPPaymentAPI) SetHTTPClient(c *http.Client) { g.client = c }

func (g *HTTPPaymentAPI) Name() string { return "http" }

func (g *HTTPPaymentAPI) endpoint(path string) string {
	return g.base.String() + path
}

func (g *HTTPPaymentAPI) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.endpoint(path), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	if tid := logging.TraceID(ctx); tid != "" {
		req.Header.Set("X-Request-ID", tid)
	}
	return req, nil
}

// ValidatePromo calls POST /promo-codes/validate. The body is decoded whatever the
// status code; a body without a "valid" field is an error.
func (g *HTTPPaymentAPI) ValidatePromo(ctx context.Context, code, planSlug string) (res model.PromoResult, err error) {
	started := time.Now()
	defer func() { metrics.ObserveGatewayRequest("promo", started, err == nil) }()

	req, err := g.newRequest(ctx, http.MethodPost, "/promo-codes/validate", map[string]string{
		"code":      code,
		"plan_slug": planSlug,
	})
	if err != nil {
		return model.PromoResult{}, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return model.PromoResult{}, err
	}
	defer resp.Body.Close()

	var out struct {
		Valid          *bool  `json:"valid"`
		DiscountAmount int64  `json:"discount_amount"`
		FinalAmount    int64  `json:"final_amount"`
		Reason         string `json:"reason"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out); err != nil {
		return model.PromoResult{}, fmt.Errorf("decode promo response (http %d): %w", resp.StatusCode, err)
	}
	if out.Valid == nil {
		return model.PromoResult{}, fmt.Errorf("promo response (http %d) missing valid flag", resp.StatusCode)
	}
	return model.PromoResult{
		Valid:          *out.Valid,
		DiscountAmount: out.DiscountAmount,
		FinalAmount:    out.FinalAmount,
		Reason:         out.Reason,
	}, nil
}

// Initiate calls POST /payments and returns the transaction id.
func (g *HTTPPaymentAPI) Initiate(ctx context.Context, pr model.PaymentRequest) (txID string, err error) {
	started := time.Now()
	defer func() { metrics.ObserveGatewayRequest("initiate", started, err == nil) }()

	req, err := g.newRequest(ctx, http.MethodPost, "/payments", pr)
	if err != nil {
		return "", err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body := io.LimitReader(resp.Body, maxBody)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		// an unreadable error body still counts as a server-reported failure
		_ = json.NewDecoder(body).Decode(&e)
		msg := strings.TrimSpace(e.Error)
		if msg == "" {
			msg = adapter.GenericPaymentFailure
		}
		return "", &adapter.GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}

	var out struct {
		TransactionID string `json:"transaction_id"`
	}
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode payment response: %w", err)
	}
	if out.TransactionID == "" {
		return "", errors.New("payment response missing transaction_id")
	}
	return out.TransactionID, nil
}

// Status calls GET /payments/{id}/status.
func (g *HTTPPaymentAPI) Status(ctx context.Context, transactionID string) (status string, err error) {
	started := time.Now()
	defer func() { metrics.ObserveGatewayRequest("status", started, err == nil) }()

	req, err := g.newRequest(ctx, http.MethodGet, "/payments/"+url.PathEscape(transactionID)+"/status", nil)
	if err != nil {
		return "", err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status http %d", resp.StatusCode)
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}
	return out.Status, nil
}
