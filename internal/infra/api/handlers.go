package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"content-payment-service/internal/domain"
	"content-payment-service/internal/domain/model"
	"content-payment-service/internal/infra/logging"
	"content-payment-service/internal/infra/metrics"
	red "content-payment-service/internal/infra/redis"
	"content-payment-service/internal/usecase"
)

type createPaymentIntentRequest struct {
	UserID         string `json:"user_id"`
	Tier           string `json:"tier"`
	EstimatedPages int    `json:"estimated_pages"`
	JobMetadata    struct {
		SourceIDs []string `json:"source_ids"`
	} `json:"job_metadata"`
}

type createPaymentIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	EstimatedPages  int    `json:"estimated_pages"`
	Tier            string `json:"tier"`
}

type verifyAndCreateJobRequest struct {
	PaymentIntentID string                   `json:"payment_intent_id"`
	UserID          string                   `json:"user_id"`
	SourceIDs       []string                 `json:"source_ids"`
	Outline         model.Outline            `json:"outline"`
	Settings        model.GenerationSettings `json:"settings"`
	Tier            string                   `json:"tier"`
}

type verifyAndCreateJobResponse struct {
	JobID    string `json:"job_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Replayed bool   `json:"replayed"`
}

type refundFailedJobRequest struct {
	JobID  string `json:"job_id"`
	Reason string `json:"reason"`
}

type refundFailedJobResponse struct {
	Refunded        bool    `json:"refunded"`
	AlreadyRefunded bool    `json:"already_refunded"`
	RefundID        string  `json:"refund_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency,omitempty"`
	Message         string  `json:"message"`
}

type jobView struct {
	ID             string     `json:"job_id"`
	UserID         string     `json:"user_id"`
	Status         string     `json:"status"`
	Progress       int        `json:"progress"`
	Tier           string     `json:"tier"`
	PaymentStatus  string     `json:"payment_status"`
	AmountPaid     float64    `json:"amount_paid"`
	Currency       string     `json:"currency"`
	EstimatedPages int        `json:"estimated_pages"`
	Content        string     `json:"content,omitempty"`
	Error          string     `json:"error,omitempty"`
	RefundID       string     `json:"refund_id,omitempty"`
	RefundAmount   float64    `json:"refund_amount,omitempty"`
	RefundReason   string     `json:"refund_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	RefundedAt     *time.Time `json:"refunded_at,omitempty"`
}

func toJobView(j *model.Job) jobView {
	return jobView{
		ID:             j.ID,
		UserID:         j.UserID,
		Status:         string(j.Status),
		Progress:       j.Progress,
		Tier:           string(j.Tier),
		PaymentStatus:  string(j.PaymentStatus),
		AmountPaid:     j.AmountPaidMajor(),
		Currency:       j.Currency,
		EstimatedPages: j.EstimatedPages,
		Content:        j.Content,
		Error:          j.LastError,
		RefundID:       j.RefundID,
		RefundAmount:   j.RefundAmountMajor(),
		RefundReason:   j.RefundReason,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
		CompletedAt:    j.CompletedAt,
		RefundedAt:     j.RefundedAt,
	}
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidArgument)
	}
	return nil
}

func (s *Server) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createPaymentIntentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, logging.With(r.Context(), s.log), err)
		return
	}
	ctx := logging.WithUserID(r.Context(), req.UserID)
	log := logging.With(ctx, s.log)

	if s.opts.Limiter != nil && s.opts.IntentsPerHour > 0 && req.UserID != "" {
		ok, err := s.opts.Limiter.Allow(ctx, red.IntentKey(req.UserID), s.opts.IntentsPerHour, time.Hour)
		if err != nil {
			log.Warn().Err(err).Msg("intent limiter unavailable, allowing request")
		} else if !ok {
			metrics.IncPaymentOp("authorize", "rate_limited")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Detail: "Too many payment attempts, try again later", Code: codeRateLimited})
			return
		}
	}

	res, err := s.uc.Authorize(ctx, usecase.AuthorizeInput{
		UserID:         req.UserID,
		Tier:           req.Tier,
		EstimatedPages: req.EstimatedPages,
		SourceIDs:      req.JobMetadata.SourceIDs,
	})
	if err != nil {
		metrics.IncPaymentOp("authorize", "error")
		writeError(w, log, err)
		return
	}
	metrics.IncPaymentOp("authorize", "ok")
	metrics.AddAuthorized(string(res.Tier), res.Currency, res.Amount)

	writeJSON(w, http.StatusOK, createPaymentIntentResponse{
		ClientSecret:    res.ClientSecret,
		PaymentIntentID: res.PaymentIntentID,
		Amount:          res.Amount,
		Currency:        res.Currency,
		EstimatedPages:  res.EstimatedPages,
		Tier:            string(res.Tier),
	})
}

func (s *Server) handleVerifyAndCreateJob(w http.ResponseWriter, r *http.Request) {
	var req verifyAndCreateJobRequest
	if err := decode(r, &req); err != nil {
		writeError(w, logging.With(r.Context(), s.log), err)
		return
	}
	ctx := logging.WithPaymentIntentID(logging.WithUserID(r.Context(), req.UserID), req.PaymentIntentID)
	log := logging.With(ctx, s.log)

	res, err := s.uc.Commit(ctx, usecase.CommitInput{
		PaymentIntentID: req.PaymentIntentID,
		UserID:          req.UserID,
		Tier:            req.Tier,
		Inputs: model.GenerationInputs{
			SourceIDs: req.SourceIDs,
			Outline:   req.Outline,
			Settings:  req.Settings,
		},
	})
	if err != nil {
		metrics.IncPaymentOp("commit", "error")
		writeError(w, log, err)
		return
	}
	outcome := "created"
	if res.Replayed {
		outcome = "replayed"
	}
	metrics.IncPaymentOp("commit", outcome)

	writeJSON(w, http.StatusOK, verifyAndCreateJobResponse{
		JobID:    res.JobID,
		Status:   string(res.Status),
		Message:  res.Message,
		Replayed: res.Replayed,
	})
}

func (s *Server) handleRefundFailedJob(w http.ResponseWriter, r *http.Request) {
	var req refundFailedJobRequest
	if err := decode(r, &req); err != nil {
		writeError(w, logging.With(r.Context(), s.log), err)
		return
	}
	ctx := logging.WithJobID(r.Context(), req.JobID)
	log := logging.With(ctx, s.log)

	res, err := s.uc.Refund(ctx, req.JobID, req.Reason)
	if err != nil {
		metrics.IncPaymentOp("refund", "error")
		writeError(w, log, err)
		return
	}

	amount := model.MinorToMajor(res.Amount)
	body := refundFailedJobResponse{
		Refunded:        !res.AlreadyRefunded,
		AlreadyRefunded: res.AlreadyRefunded,
		RefundID:        res.RefundID,
		Amount:          amount,
		Currency:        res.Currency,
	}
	if res.AlreadyRefunded {
		metrics.IncPaymentOp("refund", "replayed")
		body.Message = usecase.MsgAlreadyRefunded
	} else {
		metrics.IncPaymentOp("refund", "ok")
		metrics.AddRefunded(res.Currency, res.Amount)
		body.Message = fmt.Sprintf("Successfully refunded $%.2f to customer", amount)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	ctx := logging.WithJobID(r.Context(), jobID)

	job, err := s.uc.GetJob(ctx, jobID, r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, logging.With(ctx, s.log), err)
		return
	}
	writeJSON(w, http.StatusOK, toJobView(job))
}
