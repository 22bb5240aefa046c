package model

// PaymentIntentStatus mirrors the provider's intent lifecycle.
type PaymentIntentStatus string

const (
	IntentRequiresPaymentMethod PaymentIntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  PaymentIntentStatus = "requires_confirmation"
	IntentRequiresAction        PaymentIntentStatus = "requires_action"
	IntentProcessing            PaymentIntentStatus = "processing"
	IntentRequiresCapture       PaymentIntentStatus = "requires_capture"
	IntentCanceled              PaymentIntentStatus = "canceled"
	IntentSucceeded             PaymentIntentStatus = "succeeded"
)

// Metadata keys written on every payment intent we create.
const (
	MetaUserID         = "user_id"
	MetaTier           = "tier"
	MetaEstimatedPages = "estimated_pages"
	MetaJobType        = "job_type"
	MetaSourceCount    = "source_count"

	JobTypeContentGeneration = "content_generation"
)

// PaymentIntent is a read-only view of the provider-owned authorization.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64 // minor units
	Currency     string
	Status       PaymentIntentStatus
	CustomerID   string
	Metadata     map[string]string
}

func (p *PaymentIntent) Succeeded() bool { return p != nil && p.Status == IntentSucceeded }

// OwnedBy reports whether the intent was created for userID.
func (p *PaymentIntent) OwnedBy(userID string) bool {
	if p == nil || userID == "" {
		return false
	}
	return p.Metadata[MetaUserID] == userID
}

// Refund is the provider's record of a refund.
type Refund struct {
	ID       string
	Amount   int64 // minor units
	Currency string
	Status   string
}
