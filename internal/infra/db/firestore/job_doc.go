package firestore

import (
	"math"
	"strings"
	"time"

	"content-payment-service/internal/domain/model"
)

// Field names shared with web clients that query the jobs collection directly.
const (
	fieldUserID          = "userId"
	fieldCreatedAt       = "createdAt"
	fieldUpdatedAt       = "updatedAt"
	fieldCompletedAt     = "completedAt"
	fieldRefundedAt      = "refundedAt"
	fieldWordCount       = "wordCount"
	fieldPaymentIntentID = "payment_intent_id"
	fieldPaymentStatus   = "payment_status"
	fieldStatus          = "status"
	fieldProgress        = "progress"
	fieldContent         = "content"
	fieldError           = "error"
	fieldRefundID        = "refund_id"
	fieldRefundAmount    = "refund_amount"
	fieldRefundReason    = "refund_reason"
)

// jobDoc is the stored shape of a job. Money fields hold major units, as the
// clients render them without conversion.
type jobDoc struct {
	UserID    string                   `firestore:"userId"`
	SourceIDs []string                 `firestore:"sourceIds"`
	Outline   model.Outline            `firestore:"outline"`
	Settings  model.GenerationSettings `firestore:"settings"`
	Tier      string                   `firestore:"tier"`

	PaymentIntentID  string  `firestore:"payment_intent_id"`
	PaymentStatus    string  `firestore:"payment_status"`
	AmountPaid       float64 `firestore:"amount_paid"`
	Currency         string  `firestore:"currency"`
	StripeCustomerID string  `firestore:"stripe_customer_id"`
	EstimatedPages   int     `firestore:"estimatedPages"`
	EstimatedCost    float64 `firestore:"estimatedCost"`

	Status      string     `firestore:"status"`
	Progress    int        `firestore:"progress"`
	Content     string     `firestore:"content,omitempty"`
	WordCount   int        `firestore:"wordCount,omitempty"`
	LastError   string     `firestore:"error,omitempty"`
	CompletedAt *time.Time `firestore:"completedAt,omitempty"`

	RefundID     string     `firestore:"refund_id,omitempty"`
	RefundAmount float64    `firestore:"refund_amount,omitempty"`
	RefundReason string     `firestore:"refund_reason,omitempty"`
	RefundedAt   *time.Time `firestore:"refundedAt,omitempty"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func toMajor(minor int64) float64 { return float64(minor) / 100 }

func toMinor(major float64) int64 { return int64(math.Round(major * 100)) }

func wordCount(content string) int { return len(strings.Fields(content)) }

func toJobDoc(j *model.Job) jobDoc {
	return jobDoc{
		UserID:           j.UserID,
		SourceIDs:        j.Inputs.SourceIDs,
		Outline:          j.Inputs.Outline,
		Settings:         j.Inputs.Settings,
		Tier:             string(j.Tier),
		PaymentIntentID:  j.PaymentIntentID,
		PaymentStatus:    string(j.PaymentStatus),
		AmountPaid:       toMajor(j.AmountPaid),
		Currency:         j.Currency,
		StripeCustomerID: j.StripeCustomerID,
		EstimatedPages:   j.EstimatedPages,
		EstimatedCost:    toMajor(j.AmountPaid),
		Status:           string(j.Status),
		Progress:         j.Progress,
		Content:          j.Content,
		WordCount:        wordCount(j.Content),
		LastError:        j.LastError,
		CompletedAt:      j.CompletedAt,
		RefundID:         j.RefundID,
		RefundAmount:     toMajor(j.RefundAmount),
		RefundReason:     j.RefundReason,
		RefundedAt:       j.RefundedAt,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
}

func (d jobDoc) toModel(id string) *model.Job {
	return &model.Job{
		ID:     id,
		UserID: d.UserID,
		Inputs: model.GenerationInputs{
			SourceIDs: d.SourceIDs,
			Outline:   d.Outline,
			Settings:  d.Settings,
		},
		Tier:             model.Tier(d.Tier),
		PaymentIntentID:  d.PaymentIntentID,
		PaymentStatus:    model.JobPaymentStatus(d.PaymentStatus),
		AmountPaid:       toMinor(d.AmountPaid),
		Currency:         d.Currency,
		StripeCustomerID: d.StripeCustomerID,
		EstimatedPages:   d.EstimatedPages,
		Status:           model.JobStatus(d.Status),
		Progress:         d.Progress,
		Content:          d.Content,
		LastError:        d.LastError,
		CompletedAt:      d.CompletedAt,
		RefundID:         d.RefundID,
		RefundAmount:     toMinor(d.RefundAmount),
		RefundReason:     d.RefundReason,
		RefundedAt:       d.RefundedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
