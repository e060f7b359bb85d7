package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

// Manager runs the strategy matching the configured driver.
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager builds the schema from the models on sqlite and runs the
// versioned scripts on mysql and postgres.
func NewManager(driver string, log logger.Interface) *Manager {
	if driver == "sqlite" {
		return NewManagerWithStrategy(NewGormAutoMigrateStrategy(log), log)
	}
	return NewManagerWithStrategy(NewGooseStrategy(driver, log), log)
}

func NewManagerWithStrategy(strategy Strategy, log logger.Interface) *Manager {
	return &Manager{strategy: strategy, logger: log.Named("migration")}
}

func (m *Manager) Migrate(db *gorm.DB, models ...interface{}) error {
	name := m.strategy.Name()
	if err := m.strategy.Migrate(db, models...); err != nil {
		m.logger.Errorw("database migration failed", "strategy", name, "error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", name, err)
	}
	m.logger.Infow("database migration completed", "strategy", name)
	return nil
}

func (m *Manager) Strategy() Strategy {
	return m.strategy
}
