package handlers

import (
	"context"

	subdto "github.com/abengolea/heartlink-sub000/internal/application/subscription/dto"
	"github.com/abengolea/heartlink-sub000/internal/application/subscription/usecases"
)

// Use case interfaces for SubscriptionHandler

type getSubscriptionStatusUseCase interface {
	Execute(ctx context.Context, userID string) (*subdto.SubscriptionStatusDTO, error)
}

type createSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreateSubscriptionCommand) (*usecases.CreateSubscriptionResult, error)
}

type cancelSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.CancelSubscriptionCommand) (*subdto.SubscriptionDTO, error)
}

type reactivateSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.ReactivateSubscriptionCommand) (*subdto.SubscriptionDTO, error)
}
