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

type CreateSubscriptionCommand struct {
	UserID   string
	PlanType string
}

type CreateSubscriptionResult struct {
	SubscriptionID    string    `json:"subscription_id"`
	PlanType          string    `json:"plan_type"`
	Amount            int64     `json:"amount"`
	AmountDisplay     string    `json:"amount_display"`
	Currency          string    `json:"currency"`
	Renewal           bool      `json:"renewal"`
	EndDate           time.Time `json:"end_date"`
	ExternalReference string    `json:"external_reference"`
	PreferenceID      string    `json:"preference_id"`
	CheckoutURL       string    `json:"checkout_url"`
}

// CheckoutURLs are the provider callback and return addresses.
type CheckoutURLs struct {
	Notification string
	Success      string
	Failure      string
	Pending      string
}

// CreateSubscriptionUseCase starts a paid plan: an inactive subscription with
// prospective dates plus a provider checkout carrying the correlation token.
// During the grace period it only issues a renewal checkout for the current
// subscription.
type CreateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	userRepo         user.Repository
	catalog          PlanCatalog
	gateway          paymentgateway.Gateway
	urls             CheckoutURLs
	effects          *changeEffects
	tx               TransactionRunner // Optional
	gracePeriod      time.Duration
	now              func() time.Time
	logger           logger.Interface
}

func NewCreateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	userRepo user.Repository,
	catalog PlanCatalog,
	gateway paymentgateway.Gateway,
	urls CheckoutURLs,
	gracePeriod time.Duration,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		catalog:          catalog,
		gateway:          gateway,
		urls:             urls,
		effects:          newChangeEffects(userRepo, logger),
		gracePeriod:      gracePeriod,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// SetEventPublisher sets the change publisher (optional dependency injection)
func (uc *CreateSubscriptionUseCase) SetEventPublisher(publisher SubscriptionEventPublisher) {
	uc.effects.publisher = publisher
}

// SetTransactionRunner makes the active-subscription check and the insert
// atomic (optional dependency injection)
func (uc *CreateSubscriptionUseCase) SetTransactionRunner(tx TransactionRunner) {
	uc.tx = tx
}

func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (*CreateSubscriptionResult, error) {
	planType, err := vo.NewPlanType(cmd.PlanType)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid plan type", err.Error())
	}

	u, err := uc.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to get user", "user_id", cmd.UserID, "error", err)
		return nil, apperrors.NewInternalError("failed to get user")
	}
	if u == nil {
		return nil, apperrors.NewNotFoundError("user not found", cmd.UserID)
	}

	now := uc.now()

	price, err := uc.catalog.Price(planType)
	if err != nil {
		uc.logger.Errorw("plan price not available", "plan_type", planType.String(), "error", err)
		return nil, apperrors.NewInternalError("plan price not available")
	}
	amount, err := price.Amount.ApplyDiscount(price.DiscountPercent)
	if err != nil {
		return nil, apperrors.NewInternalError("invalid plan discount", err.Error())
	}

	var (
		sub      *subscription.Subscription
		renewing bool
	)
	err = uc.inTx(ctx, func(ctx context.Context) error {
		existing, err := uc.subscriptionRepo.GetByUserID(ctx, cmd.UserID)
		if err != nil {
			uc.logger.Errorw("failed to get current subscription", "user_id", cmd.UserID, "error", err)
			return apperrors.NewInternalError("failed to get subscription")
		}

		decision := subscription.EvaluateAccess(existing, now, uc.gracePeriod)
		if decision.InGracePeriod() {
			// the payment renews the current record; a new inactive row
			// would become the latest and cut off grace access
			if existing.PlanType() != planType {
				return apperrors.NewPolicyViolationError(subscription.ErrPlanChangeInGrace.Error())
			}
			sub = existing
			renewing = true
			return nil
		}
		if decision.HasAccess {
			return apperrors.NewPolicyViolationError(subscription.ErrActiveSubscriptionExists.Error())
		}

		sub, err = subscription.NewSubscription(cmd.UserID, planType, amount, now, uc.gracePeriod)
		if err != nil {
			return apperrors.NewValidationError("invalid subscription", err.Error())
		}

		if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
			uc.logger.Errorw("failed to create subscription", "user_id", cmd.UserID, "error", err)
			return apperrors.NewInternalError("failed to create subscription")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token := subscription.NewCorrelationToken(cmd.UserID, planType, now)
	checkout, err := uc.gateway.CreateCheckout(ctx, paymentgateway.CheckoutRequest{
		ExternalReference: token.String(),
		Title:             price.Title,
		AmountMinor:       amount.AmountMinor(),
		Currency:          amount.Currency(),
		PayerEmail:        u.Email(),
		NotificationURL:   uc.urls.Notification,
		SuccessURL:        uc.urls.Success,
		FailureURL:        uc.urls.Failure,
		PendingURL:        uc.urls.Pending,
	})
	if err != nil {
		// a new inactive subscription stays; a retry creates a fresh one
		uc.logger.Errorw("failed to create checkout",
			"subscription_id", sub.ID(),
			"user_id", cmd.UserID,
			"error", err,
		)
		if errors.Is(err, paymentgateway.ErrGatewayUnavailable) {
			return nil, apperrors.NewServiceUnavailableError("payment provider unavailable")
		}
		return nil, apperrors.NewInternalError("failed to create checkout")
	}

	endDate := sub.EndDate()
	if renewing {
		endDate = planType.Period(now)
		uc.logger.Infow("renewal checkout created during grace period",
			"subscription_id", sub.ID(),
			"user_id", cmd.UserID,
			"plan_type", planType.String(),
			"amount", amount.String(),
		)
	} else {
		uc.effects.publish(ctx, sub, subscription.ChangeCreated, now)
		uc.logger.Infow("subscription created, awaiting payment",
			"subscription_id", sub.ID(),
			"user_id", cmd.UserID,
			"plan_type", planType.String(),
			"amount", amount.String(),
		)
	}

	return &CreateSubscriptionResult{
		SubscriptionID:    sub.ID(),
		PlanType:          planType.String(),
		Amount:            amount.AmountMinor(),
		AmountDisplay:     amount.String(),
		Currency:          amount.Currency(),
		Renewal:           renewing,
		EndDate:           endDate,
		ExternalReference: token.String(),
		PreferenceID:      checkout.PreferenceID,
		CheckoutURL:       checkout.CheckoutURL,
	}, nil
}

func (uc *CreateSubscriptionUseCase) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if uc.tx == nil {
		return fn(ctx)
	}
	return uc.tx.InTx(ctx, fn)
}
