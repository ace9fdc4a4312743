package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"momo-checkout/internal/config"
	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/domain/ports/adapter"
	payAdapters "momo-checkout/internal/infra/adapters/payment"
	tele "momo-checkout/internal/infra/adapters/telegram"
	"momo-checkout/internal/infra/db/memory"
	"momo-checkout/internal/infra/logging"
	"momo-checkout/internal/usecase"
)

// Runs one checkout session end to end and prints every state change.
func main() {
	baseURL := flag.String("base-url", "", "payment backend base URL; empty uses the in-memory sandbox")
	apiKey := flag.String("api-key", "", "payment backend API key")
	planSlug := flag.String("plan", "premium", "plan slug")
	phone := flag.String("phone", "671234567", "customer phone number")
	promo := flag.String("promo", "", "promo code to apply before paying")
	gatewayCode := flag.String("gateway", "", "carrier routing override passed to the backend")
	interval := flag.Duration("interval", 500*time.Millisecond, "status poll interval")
	attempts := flag.Int("attempts", 60, "maximum status polls")
	pending := flag.Int("pending", 3, "sandbox: pending polls before completion")
	decline := flag.Bool("decline", false, "sandbox: decline the payment")
	flag.Parse()

	logger := logging.New(config.LogConfig{Level: "warn", Format: "console"}, true)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	plans := memory.NewPlanRepo(
		&model.Plan{ID: "plan-basic", Slug: "basic", Name: "Basic", Amount: 1500},
		&model.Plan{ID: "plan-premium", Slug: "premium", Name: "Premium", Amount: 5000},
	)

	var api adapter.PaymentAPI
	if *baseURL == "" {
		sb := payAdapters.NewSandboxPaymentAPI(plans, *pending)
		sb.Promos["SAVE10"] = payAdapters.SandboxPromo{Discount: 500}
		sb.Promos["BADCODE"] = payAdapters.SandboxPromo{Reason: "Expired"}
		if *decline {
			sb.DeclinePhones[model.NormalizePhone(*phone)] = true
		}
		api = sb
	} else {
		h, err := payAdapters.NewHTTPPaymentAPI(*baseURL, *apiKey, 15*time.Second)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
			os.Exit(1)
		}
		api = h
	}

	uc := usecase.NewCheckoutUseCase(plans, api, tele.NewNoopNotifier(logger), usecase.CheckoutOptions{
		Policy: usecase.PollPolicy{Interval: *interval, MaxAttempts: *attempts},
		Dev:    true,
	}, logger)
	defer uc.Shutdown()

	sess, err := uc.Open(ctx, usecase.OpenRequest{PlanSlug: *planSlug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	snap, _ := sess.SetPhone(*phone)
	fmt.Printf("plan=%s amount=%d %s carrier=%q\n", snap.PlanSlug, snap.PlanAmount, snap.Currency, snap.Carrier)

	if *promo != "" {
		snap, _ = sess.ApplyPromo(ctx, *promo)
		if snap.Promo != nil && snap.Promo.Valid {
			fmt.Printf("promo %s accepted: -%d, pay %d\n", *promo, snap.Promo.DiscountAmount, snap.FinalAmount)
		} else if snap.Promo != nil {
			fmt.Printf("promo %s rejected: %s\n", *promo, snap.Promo.Reason)
		}
	}

	snap, err = sess.Submit(ctx, *phone, *gatewayCode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "submit: %v\n", err)
		os.Exit(1)
	}
	if snap.Status == model.PaymentStatusIdle {
		fmt.Fprintf(os.Stderr, "not submitted: %s\n", snap.Error)
		os.Exit(1)
	}
	last := snap.Status
	fmt.Printf("status=%s tx=%s\n", snap.Status, snap.TransactionID)
	if snap.Prompt != "" {
		fmt.Println(snap.Prompt)
	}

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for !snap.Status.Terminal() {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "demo timed out")
			os.Exit(1)
		case <-sess.Done():
		case <-tick.C:
		}
		snap = sess.Snapshot()
		if snap.Status != last {
			fmt.Printf("status=%s attempts=%d\n", snap.Status, snap.PollAttempts)
			last = snap.Status
		}
	}

	if snap.Status == model.PaymentStatusFailed {
		fmt.Printf("payment failed: %s\n", snap.Error)
		os.Exit(2)
	}
	fmt.Printf("payment completed: %d %s after %d polls\n", snap.FinalAmount, snap.Currency, snap.PollAttempts)
}
