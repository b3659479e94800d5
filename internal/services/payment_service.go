package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/metrics"
	"metalhub_backend/internal/models"
	"metalhub_backend/internal/payment"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// planPrices are in minor units (paise).
var planPrices = map[models.MembershipPlan]int64{
	models.PlanFree:   0,
	models.PlanSilver: 99900,
	models.PlanGold:   249900,
}

func PlanPrice(plan models.MembershipPlan) int64 {
	return planPrices[plan]
}

type PaymentOptions struct {
	KeyID         string
	WebhookSecret string
	Currency      string
	PeriodDays    int
}

type PaymentService interface {
	CreateOrder(ctx context.Context, db *gorm.DB, userID string, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	// HandleWebhook verifies body against signature, records the event and
	// applies captured/failed outcomes. Replayed captures are no-ops.
	HandleWebhook(ctx context.Context, db *gorm.DB, body []byte, signature string) error
	History(ctx context.Context, db *gorm.DB, userID string) ([]models.Payment, error)
}

type PaymentServiceImpl struct {
	paymentRepo       repositories.PaymentRepository
	membershipService MembershipService
	gateway           payment.Gateway
	opts              PaymentOptions
	now               func() time.Time
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	membershipService MembershipService,
	gateway payment.Gateway,
	opts PaymentOptions,
) PaymentService {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.PeriodDays <= 0 {
		opts.PeriodDays = 30
	}
	return &PaymentServiceImpl{
		paymentRepo:       paymentRepo,
		membershipService: membershipService,
		gateway:           gateway,
		opts:              opts,
		now:               time.Now,
	}
}

func (s *PaymentServiceImpl) CreateOrder(ctx context.Context, db *gorm.DB, userID string, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	if !req.Plan.IsValid() {
		return nil, apperrors.ErrInvalidPlan
	}
	amount := PlanPrice(req.Plan)
	if amount == 0 {
		return nil, apperrors.ErrFreePlanPayment
	}

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   amount,
		Currency: s.opts.Currency,
		Receipt:  receiptRef(),
		Notes: map[string]string{
			"userId": userID,
			"plan":   string(req.Plan),
		},
	})
	if err != nil {
		metrics.PaymentsTotal.WithLabelValues("gateway_error").Inc()
		return nil, apperrors.ErrPaymentGateway.WithError(err)
	}

	p := &models.Payment{
		UserID:         userID,
		GatewayOrderID: order.ID,
		Amount:         amount,
		Currency:       s.opts.Currency,
		Status:         models.PaymentStatusCreated,
		Plan:           req.Plan,
	}
	if err := s.paymentRepo.Create(db.WithContext(ctx), p); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	metrics.PaymentsTotal.WithLabelValues(string(models.PaymentStatusCreated)).Inc()
	logger.CtxInfo(ctx, "payment order created", "order_id", order.ID, "plan", req.Plan, "amount", amount)

	return &dto.CreateOrderResponse{
		OrderID:   order.ID,
		Amount:    amount,
		Currency:  s.opts.Currency,
		PaymentID: p.ID,
		KeyID:     s.opts.KeyID,
	}, nil
}

func (s *PaymentServiceImpl) HandleWebhook(ctx context.Context, db *gorm.DB, body []byte, signature string) error {
	if !payment.VerifySignature(s.opts.WebhookSecret, body, signature) {
		return apperrors.ErrInvalidWebhookSignature
	}

	event, err := payment.ParseWebhookEvent(body)
	if err != nil {
		return apperrors.NewBadRequestError("Malformed webhook payload").WithError(err)
	}

	missing := false
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p *models.Payment
		if orderID := event.OrderID(); orderID != "" {
			found, err := s.paymentRepo.LockByOrderID(tx, orderID)
			if err != nil && !errors.Is(err, repositories.ErrPaymentNotFound) {
				return err
			}
			p = found
		}

		record := &models.PaymentEvent{
			EventType: event.Event,
			Payload:   datatypes.JSON(body),
		}
		if p != nil {
			record.PaymentID = &p.ID
		}
		if err := s.paymentRepo.CreateEvent(tx, record); err != nil {
			return err
		}

		switch event.Event {
		case payment.EventPaymentCaptured:
			if p == nil {
				missing = true
				return nil
			}
			return s.capture(ctx, tx, p, event.PaymentID())
		case payment.EventPaymentFailed:
			if p == nil || p.Status == models.PaymentStatusSuccess {
				return nil
			}
			if err := s.paymentRepo.MarkFailed(tx, p.ID); err != nil {
				return err
			}
			metrics.PaymentsTotal.WithLabelValues(string(models.PaymentStatusFailed)).Inc()
		}
		return nil
	})
	if err != nil {
		if _, ok := apperrors.AsAppError(err); ok {
			return err
		}
		return apperrors.DatabaseError(err)
	}

	if missing {
		logger.CtxWarn(ctx, "captured payment has no order", "order_id", event.OrderID())
		return apperrors.ErrPaymentNotFound
	}
	return nil
}

func (s *PaymentServiceImpl) capture(ctx context.Context, tx *gorm.DB, p *models.Payment, gatewayPaymentID string) error {
	if p.Status == models.PaymentStatusSuccess {
		logger.CtxInfo(ctx, "payment already captured", "payment_id", p.ID)
		return nil
	}

	if err := s.paymentRepo.MarkSuccess(tx, p.ID, gatewayPaymentID); err != nil {
		return err
	}

	endDate := s.now().AddDate(0, 0, s.opts.PeriodDays)
	if _, err := s.membershipService.Upgrade(ctx, tx, p.UserID, p.Plan, &endDate); err != nil {
		return err
	}

	metrics.PaymentsTotal.WithLabelValues(string(models.PaymentStatusSuccess)).Inc()
	metrics.MembershipUpgrades.WithLabelValues(string(p.Plan)).Inc()
	return nil
}

func (s *PaymentServiceImpl) History(ctx context.Context, db *gorm.DB, userID string) ([]models.Payment, error) {
	payments, err := s.paymentRepo.FindByUser(db.WithContext(ctx), userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return payments, nil
}

// receiptRef stays under the gateway's 40 character receipt limit.
func receiptRef() string {
	return fmt.Sprintf("membership_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:20])
}
