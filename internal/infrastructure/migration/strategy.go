package migration

import (
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

//go:embed scripts
var embeddedScripts embed.FS

// Strategy brings a database schema up to date.
type Strategy interface {
	Migrate(db *gorm.DB, models ...interface{}) error
	Name() string
}

// GormAutoMigrateStrategy derives the schema from the persistence models.
// Used for sqlite and local development only.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy(log logger.Interface) Strategy {
	return &GormAutoMigrateStrategy{logger: log.Named("migration.gorm")}
}

func (s *GormAutoMigrateStrategy) Name() string { return "gorm_auto_migrate" }

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, models ...interface{}) error {
	if len(models) == 0 {
		models = AutoMigrateModels()
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to auto migrate %d models: %w", len(models), err)
	}
	s.logger.Infow("schema synchronised from models", "models", len(models))
	return nil
}

// GooseStrategy applies the versioned SQL scripts embedded in the binary,
// one directory per goose dialect.
type GooseStrategy struct {
	dialect string
	logger  logger.Interface
}

func NewGooseStrategy(driver string, log logger.Interface) *GooseStrategy {
	return &GooseStrategy{
		dialect: gooseDialect(driver),
		logger:  log.Named("migration.goose"),
	}
}

func gooseDialect(driver string) string {
	switch driver {
	case "postgres":
		return "postgres"
	case "sqlite":
		return "sqlite3"
	default:
		return "mysql"
	}
}

func (s *GooseStrategy) Name() string { return "goose" }

func (s *GooseStrategy) scriptsDir() string {
	return path.Join("scripts", s.dialect)
}

// withSQL configures goose for the embedded scripts and hands fn the raw
// connection behind db.
func (s *GooseStrategy) withSQL(db *gorm.DB, fn func(*sql.DB) error) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	goose.SetBaseFS(embeddedScripts)
	if err := goose.SetDialect(s.dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return fn(sqlDB)
}

func (s *GooseStrategy) Migrate(db *gorm.DB, _ ...interface{}) error {
	return s.withSQL(db, func(conn *sql.DB) error {
		from, err := goose.GetDBVersion(conn)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if err := goose.Up(conn, s.scriptsDir()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		to, err := goose.GetDBVersion(conn)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		s.logger.Infow("migrations applied", "dialect", s.dialect, "from_version", from, "to_version", to)
		return nil
	})
}

// MigrateDown rolls back steps versions, stopping at the first failure.
func (s *GooseStrategy) MigrateDown(db *gorm.DB, steps int) error {
	return s.withSQL(db, func(conn *sql.DB) error {
		for i := 1; i <= steps; i++ {
			if err := goose.Down(conn, s.scriptsDir()); err != nil {
				return fmt.Errorf("rollback step %d of %d: %w", i, steps, err)
			}
		}
		s.logger.Infow("migrations rolled back", "steps", steps)
		return nil
	})
}

func (s *GooseStrategy) GetVersion(db *gorm.DB) (int64, error) {
	var version int64
	err := s.withSQL(db, func(conn *sql.DB) error {
		v, err := goose.GetDBVersion(conn)
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

// Status prints the applied and pending scripts through goose's logger.
func (s *GooseStrategy) Status(db *gorm.DB) error {
	return s.withSQL(db, func(conn *sql.DB) error {
		return goose.Status(conn, s.scriptsDir())
	})
}

// Create writes an empty SQL migration under dir/<dialect>. The embedded
// filesystem is read-only, so goose is pointed back at the OS first.
func (s *GooseStrategy) Create(dir, name string) error {
	goose.SetBaseFS(nil)
	if err := goose.SetDialect(s.dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	target := path.Join(dir, s.dialect)
	if err := goose.Create(nil, target, name, "sql"); err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}
	s.logger.Infow("migration created", "name", name, "dir", target)
	return nil
}
