package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	"momo-checkout/internal/domain/ports/repository"
)

var _ adapter.PaymentAPI = (*SandboxPaymentAPI)(nil)

// SandboxPromo is one promo code known to the sandbox.
type SandboxPromo struct {
	Discount int64
	Reason   string // non-empty makes the code invalid
}

// SandboxPaymentAPI is an in-memory backend for the demo and tests. Every
// transaction stays pending for PendingPolls status calls and then completes,
// unless the phone number is in DeclinePhones.
type SandboxPaymentAPI struct {
	plans         repository.PlanRepository
	PendingPolls  int
	Promos        map[string]SandboxPromo
	DeclinePhones map[string]bool

	mu       sync.Mutex
	seq      int64
	txs      map[string]*sandboxTx
	requests []model.PaymentRequest
}

type sandboxTx struct {
	polls   int
	decline bool
}

func NewSandboxPaymentAPI(plans repository.PlanRepository, pendingPolls int) *SandboxPaymentAPI {
	if pendingPolls < 0 {
		pendingPolls = 0
	}
	return &SandboxPaymentAPI{
		plans:         plans,
		PendingPolls:  pendingPolls,
		Promos:        map[string]SandboxPromo{},
		DeclinePhones: map[string]bool{},
		txs:           make(map[string]*sandboxTx),
	}
}

func (g *SandboxPaymentAPI) Name() string { return "sandbox" }

func (g *SandboxPaymentAPI) ValidatePromo(ctx context.Context, code, planSlug string) (model.PromoResult, error) {
	plan, err := g.plans.FindBySlug(ctx, planSlug)
	if err != nil {
		return model.PromoResult{}, fmt.Errorf("sandbox: %w", err)
	}
	g.mu.Lock()
	promo, ok := g.Promos[strings.ToUpper(code)]
	g.mu.Unlock()
	if !ok {
		return model.PromoResult{Valid: false, FinalAmount: plan.Amount, Reason: "Unknown promo code"}, nil
	}
	if promo.Reason != "" {
		return model.PromoResult{Valid: false, FinalAmount: plan.Amount, Reason: promo.Reason}, nil
	}
	return model.PromoResult{
		Valid:          true,
		DiscountAmount: promo.Discount,
		FinalAmount:    plan.Amount - promo.Discount,
	}, nil
}

func (g *SandboxPaymentAPI) Initiate(ctx context.Context, req model.PaymentRequest) (string, error) {
	if _, err := g.plans.FindBySlug(ctx, req.PlanSlug); err != nil {
		return "", &adapter.GatewayError{StatusCode: 400, Message: "Plan not found"}
	}
	if req.PhoneNumber == "" {
		return "", &adapter.GatewayError{StatusCode: 400, Message: "Phone number is required"}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("sandbox-tx-%d", g.seq)
	g.txs[id] = &sandboxTx{decline: g.DeclinePhones[req.PhoneNumber]}
	g.requests = append(g.requests, req)
	return id, nil
}

func (g *SandboxPaymentAPI) Status(ctx context.Context, transactionID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	tx, ok := g.txs[transactionID]
	if !ok {
		return "", errors.New("sandbox: unknown transaction")
	}
	tx.polls++
	if tx.polls <= g.PendingPolls {
		return "pending", nil
	}
	if tx.decline {
		return model.TransactionFailed, nil
	}
	return model.TransactionCompleted, nil
}

// Requests returns the initiation requests seen so far.
func (g *SandboxPaymentAPI) Requests() []model.PaymentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]model.PaymentRequest, len(g.requests))
	copy(out, g.requests)
	return out
}
