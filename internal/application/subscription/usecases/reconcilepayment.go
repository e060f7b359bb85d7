package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/abengolea/heartlink-sub000/internal/application/payment/paymentgateway"
	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	vo "github.com/abengolea/heartlink-sub000/internal/domain/subscription/valueobjects"
	"github.com/abengolea/heartlink-sub000/internal/domain/user"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
	apperrors "github.com/abengolea/heartlink-sub000/internal/shared/errors"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

const (
	paymentTopic   = "payment"
	paymentLockTTL = 30 * time.Second
)

// ReconcilePaymentCommand is a provider webhook notification: {id, type, action, data:{id}}.
type ReconcilePaymentCommand struct {
	EventID    string
	Type       string
	Action     string
	PaymentID  string
	RawPayload []byte
}

// ReconcileResult describes the effect applied for one notification.
type ReconcileResult struct {
	Outcome               subscription.WebhookOutcome `json:"outcome"`
	SubscriptionID        string                      `json:"subscription_id,omitempty"`
	UserID                string                      `json:"user_id,omitempty"`
	PaymentID             string                      `json:"payment_id,omitempty"`
	PaymentStatus         string                      `json:"payment_status,omitempty"`
	NewEndDate            *time.Time                  `json:"new_end_date,omitempty"`
	NewGracePeriodEndDate *time.Time                  `json:"new_grace_period_end_date,omitempty"`
}

// ReconcilePaymentUseCase maps provider payment notifications onto subscription
// state. Only approved payments change billing state; expiry is left to the sweeper.
type ReconcilePaymentUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	webhookRepo      subscription.WebhookEventRepository // Optional
	gateway          paymentgateway.Gateway
	lock             PaymentLock
	effects          *changeEffects
	metrics          BillingMetrics // Optional
	gracePeriod      time.Duration
	now              func() time.Time
	logger           logger.Interface
}

func NewReconcilePaymentUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	userRepo user.Repository,
	gateway paymentgateway.Gateway,
	lock PaymentLock,
	gracePeriod time.Duration,
	logger logger.Interface,
) *ReconcilePaymentUseCase {
	return &ReconcilePaymentUseCase{
		subscriptionRepo: subscriptionRepo,
		gateway:          gateway,
		lock:             lock,
		effects:          newChangeEffects(userRepo, logger),
		gracePeriod:      gracePeriod,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// SetWebhookRepository enables archiving of raw notifications (optional dependency injection)
func (uc *ReconcilePaymentUseCase) SetWebhookRepository(repo subscription.WebhookEventRepository) {
	uc.webhookRepo = repo
}

// SetEventPublisher sets the change publisher (optional dependency injection)
func (uc *ReconcilePaymentUseCase) SetEventPublisher(publisher SubscriptionEventPublisher) {
	uc.effects.publisher = publisher
}

// SetNotifier sets the email notifier (optional dependency injection)
func (uc *ReconcilePaymentUseCase) SetNotifier(notifier BillingNotifier) {
	uc.effects.notifier = notifier
}

// SetMetrics sets the metrics recorder (optional dependency injection)
func (uc *ReconcilePaymentUseCase) SetMetrics(metrics BillingMetrics) {
	uc.metrics = metrics
}

func (uc *ReconcilePaymentUseCase) Execute(ctx context.Context, cmd ReconcilePaymentCommand) (result *ReconcileResult, err error) {
	now := uc.now()

	defer func() {
		outcome := subscription.WebhookOutcomeFailed
		if err == nil && result != nil {
			outcome = result.Outcome
		}
		uc.archive(ctx, cmd, outcome, err, now)
		if uc.metrics != nil {
			uc.metrics.ObserveReconcile(string(outcome))
		}
	}()

	if cmd.Type != paymentTopic {
		uc.logger.Infow("ignoring non-payment notification",
			"event_id", cmd.EventID,
			"type", cmd.Type,
			"action", cmd.Action,
		)
		return &ReconcileResult{Outcome: subscription.WebhookOutcomeIgnored}, nil
	}
	if cmd.PaymentID == "" {
		return nil, apperrors.NewValidationError("notification has no payment id")
	}

	payment, err := uc.fetchPayment(ctx, cmd.PaymentID)
	if err != nil {
		return nil, err
	}

	token, err := subscription.ParseCorrelationToken(payment.ExternalReference)
	if err != nil {
		uc.logger.Warnw("payment has an invalid external reference",
			"payment_id", payment.ID,
			"external_reference", payment.ExternalReference,
			"error", err,
		)
		return nil, apperrors.NewInvalidReferenceError("invalid external reference", err.Error())
	}

	sub, err := uc.subscriptionRepo.GetByUserID(ctx, token.UserID)
	if err != nil {
		uc.logger.Errorw("failed to load subscription", "user_id", token.UserID, "error", err)
		return nil, apperrors.NewInternalError("failed to load subscription")
	}
	if sub == nil {
		uc.logger.Warnw("payment references a user without subscription",
			"user_id", token.UserID,
			"payment_id", payment.ID,
		)
		return nil, apperrors.NewNotFoundError("subscription not found", token.UserID)
	}

	base := &ReconcileResult{
		SubscriptionID: sub.ID(),
		UserID:         sub.UserID(),
		PaymentID:      payment.ID,
	}

	if sub.HasPayment(payment.ID) {
		return uc.alreadyProcessed(base), nil
	}

	lockKey := "payment:" + payment.ID
	acquired, lockErr := uc.lock.Acquire(ctx, lockKey, paymentLockTTL)
	switch {
	case lockErr != nil:
		// storage uniqueness still prevents double billing
		uc.logger.Warnw("payment lock unavailable, continuing without it",
			"payment_id", payment.ID,
			"error", lockErr,
		)
	case !acquired:
		uc.logger.Infow("payment is being reconciled by another delivery", "payment_id", payment.ID)
		return nil, apperrors.NewConflictError("payment is already being processed", payment.ID)
	default:
		defer func() {
			if err := uc.lock.Release(context.WithoutCancel(ctx), lockKey); err != nil {
				uc.logger.Warnw("failed to release payment lock", "payment_id", payment.ID, "error", err)
			}
		}()
	}

	return uc.apply(ctx, sub, token, payment, base, now)
}

func (uc *ReconcilePaymentUseCase) apply(
	ctx context.Context,
	sub *subscription.Subscription,
	token subscription.CorrelationToken,
	payment *paymentgateway.Payment,
	result *ReconcileResult,
	now time.Time,
) (*ReconcileResult, error) {
	status := vo.PaymentStatusFromProvider(payment.Status)
	result.PaymentStatus = status.String()

	amount, err := vo.NewMoneyFromDecimal(payment.TransactionAmount, payment.CurrencyID)
	if err != nil {
		uc.logger.Warnw("provider payment has an invalid amount",
			"payment_id", payment.ID,
			"amount", payment.TransactionAmount,
			"currency", payment.CurrencyID,
			"error", err,
		)
		return nil, apperrors.NewValidationError("invalid payment amount", err.Error())
	}

	if token.PlanType != sub.PlanType() {
		uc.logger.Warnw("payment plan type differs from subscription",
			"payment_id", payment.ID,
			"subscription_id", sub.ID(),
			"reference_plan", token.PlanType.String(),
			"subscription_plan", sub.PlanType().String(),
		)
	}
	if status.IsApproved() && !amount.Equals(sub.Amount()) {
		uc.logger.Warnw("payment amount differs from subscription price",
			"payment_id", payment.ID,
			"subscription_id", sub.ID(),
			"paid", amount.String(),
			"expected", sub.Amount().String(),
		)
	}

	failureReason := ""
	if !status.IsApproved() {
		failureReason = payment.StatusDetail
	}

	record, err := subscription.NewPaymentRecord(
		payment.ID,
		sub.ID(),
		amount,
		status,
		payment.PaidAt(),
		payment.PaymentMethodID,
		failureReason,
		now,
	)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid payment", err.Error())
	}

	if err := sub.AppendPayment(record); err != nil {
		if errors.Is(err, subscription.ErrPaymentAlreadyRecorded) {
			return uc.alreadyProcessed(result), nil
		}
		return nil, apperrors.NewInternalError("failed to record payment")
	}

	if status.IsApproved() {
		if err := sub.ApplyApprovedPayment(now, record.PaymentDate(), uc.gracePeriod); err != nil {
			uc.logger.Errorw("failed to apply approved payment",
				"subscription_id", sub.ID(),
				"payment_id", payment.ID,
				"error", err,
			)
			return nil, apperrors.NewInternalError("failed to apply payment")
		}
	}

	if err := uc.subscriptionRepo.RecordPayment(ctx, sub, record); err != nil {
		if errors.Is(err, subscription.ErrPaymentAlreadyRecorded) {
			return uc.alreadyProcessed(result), nil
		}
		uc.logger.Errorw("failed to persist payment",
			"subscription_id", sub.ID(),
			"payment_id", payment.ID,
			"error", err,
		)
		return nil, apperrors.NewInternalError("failed to persist payment")
	}

	if !status.IsApproved() {
		uc.logger.Infow("payment recorded without billing effect",
			"subscription_id", sub.ID(),
			"payment_id", payment.ID,
			"status", status.String(),
			"reason", failureReason,
		)
		result.Outcome = subscription.WebhookOutcomeRecorded
		return result, nil
	}

	uc.effects.syncMirror(ctx, sub)
	uc.effects.publish(ctx, sub, subscription.ChangePaymentApproved, now)
	uc.effects.notify(sub, noticePaymentApproved)

	endDate := sub.EndDate()
	result.Outcome = subscription.WebhookOutcomeApplied
	result.NewEndDate = &endDate
	result.NewGracePeriodEndDate = sub.GracePeriodEndDate()

	uc.logger.Infow("payment approved, subscription renewed",
		"subscription_id", sub.ID(),
		"user_id", sub.UserID(),
		"payment_id", payment.ID,
		"end_date", endDate,
	)
	return result, nil
}

func (uc *ReconcilePaymentUseCase) fetchPayment(ctx context.Context, paymentID string) (*paymentgateway.Payment, error) {
	payment, err := uc.gateway.GetPayment(ctx, paymentID)
	switch {
	case err == nil:
		return payment, nil
	case errors.Is(err, paymentgateway.ErrPaymentNotFound):
		uc.logger.Warnw("payment not found at provider", "payment_id", paymentID)
		return nil, apperrors.NewNotFoundError("payment not found", paymentID)
	case errors.Is(err, paymentgateway.ErrGatewayUnavailable):
		uc.logger.Warnw("payment gateway unavailable", "payment_id", paymentID, "error", err)
		return nil, apperrors.NewServiceUnavailableError("payment provider unavailable")
	default:
		uc.logger.Errorw("failed to fetch payment", "payment_id", paymentID, "error", err)
		return nil, apperrors.NewInternalError("failed to fetch payment")
	}
}

func (uc *ReconcilePaymentUseCase) alreadyProcessed(result *ReconcileResult) *ReconcileResult {
	uc.logger.Infow("payment already processed",
		"subscription_id", result.SubscriptionID,
		"payment_id", result.PaymentID,
	)
	result.Outcome = subscription.WebhookOutcomeAlreadyProcessed
	return result
}

func (uc *ReconcilePaymentUseCase) archive(ctx context.Context, cmd ReconcilePaymentCommand, outcome subscription.WebhookOutcome, procErr error, at time.Time) {
	if uc.webhookRepo == nil {
		return
	}
	event := &subscription.WebhookEvent{
		ProviderID: cmd.EventID,
		Topic:      cmd.Type,
		Action:     cmd.Action,
		ResourceID: cmd.PaymentID,
		Payload:    cmd.RawPayload,
		Outcome:    outcome,
		ReceivedAt: at,
	}
	if procErr != nil {
		event.ErrorMessage = procErr.Error()
	}
	if err := uc.webhookRepo.Save(context.WithoutCancel(ctx), event); err != nil {
		uc.logger.Warnw("failed to archive webhook event",
			"event_id", cmd.EventID,
			"error", err,
		)
	}
}
