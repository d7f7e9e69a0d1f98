package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"admingate/internal/models"
	"admingate/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// slogGormLogger routes GORM output through the structured logger.
type slogGormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

func (l *slogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.Config.LogLevel >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.ErrorContext(ctx, "sandbox query error",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "sandbox slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.Config.LogLevel >= logger.Info:
		l.logger.DebugContext(ctx, "sandbox query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

// Open connects to the sandbox database. driver is "sqlite" or "postgres".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sandbox driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: &slogGormLogger{
			logger: observability.GlobalLogger.Logger,
			Config: logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sandbox database: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if driver == "postgres" {
			sqlDB.SetMaxOpenConns(25)
			sqlDB.SetMaxIdleConns(5)
			sqlDB.SetConnMaxLifetime(5 * time.Minute)
		} else {
			// sqlite serializes writers; one connection avoids SQLITE_BUSY.
			sqlDB.SetMaxOpenConns(1)
		}
	}
	return db, nil
}

// Migrate creates the sandbox schema and the default staff rules.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(AllModels...); err != nil {
		return fmt.Errorf("failed to migrate sandbox database: %w", err)
	}
	rules := DefaultStaffRules()
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rules).Error; err != nil {
		return fmt.Errorf("failed to create staff rules: %w", err)
	}
	return nil
}

// DefaultStaffRules enables every capability for ADMIN staff, the account
// and catalog capabilities for MANAGER, and catalog work for SALES. Nothing
// is auto-approved until a reviewer opts in.
func DefaultStaffRules() []StaffRule {
	grants := map[models.VisibilityRole][]models.Capability{
		models.VisibilityAdmin: models.Capabilities,
		models.VisibilityManager: {
			models.CapabilityUserStatusManage,
			models.CapabilityUserRestrict,
			models.CapabilityUserBan,
			models.CapabilityUserAccessResolve,
			models.CapabilityProductCreate,
			models.CapabilityProductEdit,
			models.CapabilityProductVisibility,
			models.CapabilityProductDelete,
			models.CapabilityInventoryRequestDecision,
		},
		models.VisibilitySales: {
			models.CapabilityProductCreate,
			models.CapabilityProductEdit,
			models.CapabilityInventoryRequestDecision,
		},
	}

	var rules []StaffRule
	for _, role := range []models.VisibilityRole{models.VisibilityAdmin, models.VisibilityManager, models.VisibilitySales} {
		enabled := make(map[models.Capability]bool)
		for _, c := range grants[role] {
			enabled[c] = true
		}
		for _, c := range models.Capabilities {
			rules = append(rules, StaffRule{Role: string(role), Capability: string(c), Enabled: enabled[c]})
		}
	}
	return rules
}
