package model

import "time"

// PaymentStatus is the visible state of a checkout session.
type PaymentStatus string

const (
	PaymentStatusIdle       PaymentStatus = "idle"       // session opened, nothing submitted
	PaymentStatusValidating PaymentStatus = "validating" // reserved; promo checks use PromoPending instead
	PaymentStatusProcessing PaymentStatus = "processing" // initiation request in flight
	PaymentStatusPolling    PaymentStatus = "polling"    // waiting for the customer to approve on the phone
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// allowedTransitions lists, per status, the statuses it may move to.
var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusIdle:       {PaymentStatusProcessing},
	PaymentStatusProcessing: {PaymentStatusPolling, PaymentStatusFailed},
	PaymentStatusPolling:    {PaymentStatusSuccess, PaymentStatusFailed},
	PaymentStatusFailed:     {PaymentStatusProcessing},
	PaymentStatusSuccess:    {},
	PaymentStatusValidating: {},
}

func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	for _, t := range allowedTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// InFlight reports whether a payment request is outstanding.
func (s PaymentStatus) InFlight() bool {
	return s == PaymentStatusProcessing || s == PaymentStatusPolling
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// Remote transaction statuses with defined behaviour. Anything else is pending.
const (
	TransactionCompleted = "completed"
	TransactionFailed    = "failed"
)

// PaymentRequest is the body sent to start a mobile-money collection.
type PaymentRequest struct {
	PlanSlug    string   `json:"plan_slug"`
	PhoneNumber string   `json:"phone_number"`
	PromoCode   string   `json:"promo_code,omitempty"`
	Gateway     string   `json:"gateway,omitempty"`
	JobID       string   `json:"job_id,omitempty"`
	AddOnSlugs  []string `json:"add_on_slugs,omitempty"`
}

// PaymentReceipt describes a completed payment; handed to the success hook.
type PaymentReceipt struct {
	SessionID     string
	TransactionID string
	PlanSlug      string
	PlanName      string
	Amount        int64
	Currency      string
	Carrier       Carrier
	PromoCode     string
	JobID         string
	CompletedAt   time.Time
}
