package mappers

import (
	"github.com/abengolea/heartlink-sub000/internal/domain/user"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/persistence/models"
)

func UserToModel(u *user.User) *models.UserModel {
	return &models.UserModel{
		ID:                 u.ID(),
		Email:              u.Email(),
		Name:               u.Name(),
		SubscriptionStatus: u.SubscriptionStatus(),
		CreatedAt:          u.CreatedAt(),
		UpdatedAt:          u.UpdatedAt(),
	}
}

func UserToDomain(model *models.UserModel) *user.User {
	if model == nil {
		return nil
	}
	return user.ReconstructUser(
		model.ID,
		model.Email,
		model.Name,
		model.SubscriptionStatus,
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
	)
}
