package model

import (
	"strconv"
	"time"
)

type JobStatus string

const (
	JobStatusProcessing     JobStatus = "processing"
	JobStatusCompleted      JobStatus = "completed"
	JobStatusFailed         JobStatus = "failed"
	JobStatusFailedRefunded JobStatus = "failed_refunded"
)

type JobPaymentStatus string

const (
	JobPaymentPaid     JobPaymentStatus = "paid"
	JobPaymentRefunded JobPaymentStatus = "refunded"
)

// Job is one unit of paid content generation and its outcome.
type Job struct {
	ID     string
	UserID string
	Inputs GenerationInputs
	Tier   Tier

	// Payment tracking
	PaymentIntentID  string
	PaymentStatus    JobPaymentStatus
	AmountPaid       int64 // minor units
	Currency         string
	StripeCustomerID string
	EstimatedPages   int

	Status      JobStatus
	Progress    int
	Content     string
	LastError   string
	CompletedAt *time.Time

	// Set only after a refund
	RefundID     string
	RefundAmount int64 // minor units
	RefundReason string
	RefundedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPaidJob builds the job record for a verified, settled payment intent.
func NewPaidJob(id, userID string, tier Tier, inputs GenerationInputs, pi *PaymentIntent, now time.Time) *Job {
	pages, _ := strconv.Atoi(pi.Metadata[MetaEstimatedPages])
	if t, err := ParseTier(pi.Metadata[MetaTier]); err == nil {
		tier = t
	}
	return &Job{
		ID:               id,
		UserID:           userID,
		Inputs:           inputs,
		Tier:             tier,
		PaymentIntentID:  pi.ID,
		PaymentStatus:    JobPaymentPaid,
		AmountPaid:       pi.Amount,
		Currency:         pi.Currency,
		StripeCustomerID: pi.CustomerID,
		EstimatedPages:   pages,
		Status:           JobStatusProcessing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (j *Job) IsRefunded() bool { return j.PaymentStatus == JobPaymentRefunded }

// AmountPaidMajor returns the paid amount in major currency units (e.g. dollars).
func (j *Job) AmountPaidMajor() float64 { return MinorToMajor(j.AmountPaid) }

func (j *Job) RefundAmountMajor() float64 { return MinorToMajor(j.RefundAmount) }

// RefundRecord is what the store persists when a job is refunded.
type RefundRecord struct {
	RefundID   string
	Amount     int64
	Currency   string
	Reason     string
	RefundedAt time.Time
}

// MinorToMajor converts cents to dollars for display.
func MinorToMajor(minor int64) float64 { return float64(minor) / 100 }
