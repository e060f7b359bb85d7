package permission

import (
	"fmt"

	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

// Resources and actions guarded by casbin.
const (
	ResourceSubscription = "subscription"
	ResourceSweep        = "sweep"

	ActionRead       = "read"
	ActionCancel     = "cancel"
	ActionReactivate = "reactivate"
	ActionRun        = "run"
)

// InitBillingPermissions seeds the admin policies. Existing rows are kept.
func InitBillingPermissions(e *Enforcer, log logger.Interface) error {
	policies := [][]string{
		{constants.RoleAdmin, ResourceSubscription, ActionRead},
		{constants.RoleAdmin, ResourceSubscription, ActionCancel},
		{constants.RoleAdmin, ResourceSubscription, ActionReactivate},
		{constants.RoleAdmin, ResourceSweep, ActionRun},
	}

	for _, policy := range policies {
		if err := e.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			log.Errorw("failed to add billing permission policy",
				"error", err,
				"role", policy[0],
				"resource", policy[1],
				"action", policy[2])
			return fmt.Errorf("failed to add policy [%s, %s, %s]: %w",
				policy[0], policy[1], policy[2], err)
		}
	}

	log.Infow("billing permissions initialized", "policies", len(policies))
	return nil
}
