//go:build !integration

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	"momo-checkout/internal/infra/logging"
)

func newTestAPI(t *testing.T, h http.HandlerFunc) *HTTPPaymentAPI {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api, err := NewHTTPPaymentAPI(srv.URL+"/api/", "secret", time.Second)
	if err != nil {
		t.Fatalf("NewHTTPPaymentAPI: %v", err)
	}
	return api
}

func TestNewHTTPPaymentAPI_Validation(t *testing.T) {
	if _, err := NewHTTPPaymentAPI("", "", 0); err == nil {
		t.Error("expected error for empty base url")
	}
	if _, err := NewHTTPPaymentAPI("ftp://example.test", "", 0); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestHTTPPaymentAPI_ValidatePromo(t *testing.T) {
	ctx := context.Background()

	t.Run("sends code and plan slug, decodes result", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/promo-codes/validate" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer secret" {
				t.Errorf("missing bearer api key, got %q", r.Header.Get("Authorization"))
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["code"] != "SAVE10" || body["plan_slug"] != "premium" {
				t.Errorf("unexpected body %v", body)
			}
			_, _ = w.Write([]byte(`{"valid":true,"discount_amount":500,"final_amount":4500}`))
		})
		res, err := api.ValidatePromo(ctx, "SAVE10", "premium")
		if err != nil {
			t.Fatalf("ValidatePromo: %v", err)
		}
		if !res.Valid || res.DiscountAmount != 500 || res.FinalAmount != 4500 {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("rejection with status 400 still decodes", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"valid":false,"discount_amount":0,"final_amount":5000,"reason":"Expired"}`))
		})
		res, err := api.ValidatePromo(ctx, "BADCODE", "premium")
		if err != nil {
			t.Fatalf("ValidatePromo: %v", err)
		}
		if res.Valid || res.Reason != "Expired" {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("non json body is an error", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		})
		if _, err := api.ValidatePromo(ctx, "X", "premium"); err == nil {
			t.Fatal("expected decode error")
		}
	})

	t.Run("json without valid flag is an error", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"message":"ok"}`))
		})
		if _, err := api.ValidatePromo(ctx, "X", "premium"); err == nil {
			t.Fatal("expected error for missing valid flag")
		}
	})
}

func TestHTTPPaymentAPI_Initiate(t *testing.T) {
	ctx := logging.WithTraceID(context.Background(), "trace-42")

	t.Run("success returns transaction id and omits empty fields", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/payments" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("X-Request-ID") != "trace-42" {
				t.Errorf("expected trace id header, got %q", r.Header.Get("X-Request-ID"))
			}
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["plan_slug"] != "premium" || body["phone_number"] != "671234567" {
				t.Errorf("unexpected body %v", body)
			}
			for _, k := range []string{"promo_code", "gateway", "job_id", "add_on_slugs"} {
				if _, ok := body[k]; ok {
					t.Errorf("field %q should be omitted when empty", k)
				}
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"transaction_id":"tx-1"}`))
		})
		id, err := api.Initiate(ctx, model.PaymentRequest{PlanSlug: "premium", PhoneNumber: "671234567"})
		if err != nil {
			t.Fatalf("Initiate: %v", err)
		}
		if id != "tx-1" {
			t.Errorf("expected tx-1, got %q", id)
		}
	})

	t.Run("server error message is surfaced", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Plan not found"}`))
		})
		_, err := api.Initiate(ctx, model.PaymentRequest{PlanSlug: "x", PhoneNumber: "671234567"})
		var gwErr *adapter.GatewayError
		if !errors.As(err, &gwErr) {
			t.Fatalf("expected GatewayError, got %v", err)
		}
		if gwErr.Message != "Plan not found" || gwErr.StatusCode != http.StatusBadRequest {
			t.Errorf("unexpected gateway error %+v", gwErr)
		}
	})

	t.Run("server error without body uses generic message", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := api.Initiate(ctx, model.PaymentRequest{PlanSlug: "x", PhoneNumber: "1"})
		var gwErr *adapter.GatewayError
		if !errors.As(err, &gwErr) || gwErr.Message != adapter.GenericPaymentFailure {
			t.Fatalf("expected generic GatewayError, got %v", err)
		}
	})

	t.Run("malformed success body is a transport error", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})
		_, err := api.Initiate(ctx, model.PaymentRequest{PlanSlug: "x", PhoneNumber: "1"})
		var gwErr *adapter.GatewayError
		if err == nil || errors.As(err, &gwErr) {
			t.Fatalf("expected plain error, got %v", err)
		}
	})

	t.Run("unreachable backend is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		base := srv.URL
		srv.Close()
		api, _ := NewHTTPPaymentAPI(base, "", time.Second)
		_, err := api.Initiate(ctx, model.PaymentRequest{PlanSlug: "x", PhoneNumber: "1"})
		var gwErr *adapter.GatewayError
		if err == nil || errors.As(err, &gwErr) {
			t.Fatalf("expected plain error, got %v", err)
		}
	})
}

func TestHTTPPaymentAPI_Status(t *testing.T) {
	ctx := context.Background()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/payments/tx-1/status":
			_, _ = w.Write([]byte(`{"status":"completed"}`))
		case "/api/payments/tx-2/status":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	st, err := api.Status(ctx, "tx-1")
	if err != nil || st != model.TransactionCompleted {
		t.Fatalf("expected completed, got %q err=%v", st, err)
	}
	if _, err := api.Status(ctx, "tx-2"); err == nil {
		t.Fatal("expected error for 503")
	}
}
