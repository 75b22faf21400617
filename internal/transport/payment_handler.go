package transport

import (
	"errors"
	"net/http"

	"rug-market/internal/domain"
	"rug-market/internal/middleware"
	"rug-market/internal/repository"
	"rug-market/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordPaymentRequest represents the payment creation payload
type RecordPaymentRequest struct {
	OrderID       string  `json:"order_id" validate:"required,uuid"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=cod credit_card stripe"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	TransactionID string  `json:"transaction_id"`
}

// UpdatePaymentStatusRequest represents the settlement callback payload
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed"`
}

// PaymentHandler handles HTTP requests for payment records
type PaymentHandler struct {
	paymentService service.PaymentService
	orderService   service.OrderService
	logger         *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService service.PaymentService, orderService service.OrderService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		orderService:   orderService,
		logger:         logger,
	}
}

// RegisterRoutes registers all payment routes
func (h *PaymentHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.RecordPayment)
		r.Get("/order/{orderID}", h.GetByOrder)

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Patch("/{paymentID}/status", h.UpdateStatus)
		})
	})
}

// RecordPayment creates the pending settlement record for an order
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RecordPaymentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Payment validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	// Paying for someone else's order is indistinguishable from paying for
	// a missing one.
	if _, err := h.orderService.GetOrder(r.Context(), userID, orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to load order for payment", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to record payment")
		return
	}

	payment, err := h.paymentService.RecordPayment(r.Context(), orderID, domain.PaymentMethod(req.PaymentMethod), req.Amount, req.TransactionID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrAmountMismatch):
			middleware.RespondWithError(w, http.StatusConflict, "payment amount does not match order total")
		case errors.Is(err, repository.ErrPaymentAlreadyExists):
			middleware.RespondWithError(w, http.StatusConflict, "payment already recorded for this order")
		case errors.Is(err, service.ErrInvalidPaymentMethod):
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid payment method")
		default:
			h.logger.Error("Failed to record payment", zap.Error(err), zap.String("order_id", orderID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to record payment")
		}
		return
	}

	h.logger.Info("Payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.Float64("amount", payment.Amount),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, payment)
}

// GetByOrder returns the payment record belonging to one of the user's orders
func (h *PaymentHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	if _, err := h.orderService.GetOrder(r.Context(), userID, orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to load order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load payment")
		return
	}

	payment, err := h.paymentService.GetByOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "payment not found")
			return
		}
		h.logger.Error("Failed to load payment", zap.Error(err), zap.String("order_id", orderID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load payment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, payment)
}

// UpdateStatus applies a one-way settlement transition (admin/processor callback)
func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid payment ID")
		return
	}

	var req UpdatePaymentStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Payment status validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.paymentService.UpdateStatus(r.Context(), paymentID, domain.PaymentStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "payment not found")
		case errors.Is(err, service.ErrInvalidTransition):
			middleware.RespondWithError(w, http.StatusConflict, "status transition not allowed")
		default:
			h.logger.Error("Failed to update payment status", zap.Error(err), zap.String("payment_id", paymentID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update payment status")
		}
		return
	}

	h.logger.Info("Payment status updated",
		zap.String("payment_id", paymentID.String()),
		zap.String("status", req.Status),
	)
	middleware.RespondWithJSON(w, http.StatusOK, payment)
}
