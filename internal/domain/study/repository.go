package study

import "context"

type Repository interface {
	Create(ctx context.Context, study *Study) error
	ListByUserID(ctx context.Context, userID string) ([]*Study, error)
}
