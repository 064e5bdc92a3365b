package replikit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fernandezvara/dbkit"
)

// Service loads the grant and role configuration from the database and
// compiles it into permissions. It integrates with the database through
// dbkit with enhanced error handling.
//
// Example error handling:
//
//	perms, err := service.Permissions(ctx, perms)
//	if err != nil {
//	    if dbkit.IsNotFound(err) {
//	        // no configuration yet
//	    }
//	    if replikit.IsConfigurationError(err) {
//	        // a stored record is malformed
//	    }
//	}
type Service struct {
	db     dbkit.IDB
	logger *slog.Logger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithServiceLogger attaches a logger to the service.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new RepliKit configuration service.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: cfg.DatabaseURL})
//	service := replikit.NewService(db)
func NewService(db dbkit.IDB, opts ...ServiceOption) *Service {
	s := &Service{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grants retrieves every grant record, in creation order. Order is stable
// so repeated compiles see identical input order.
func (s *Service) Grants(ctx context.Context) ([]GrantRecord, error) {
	var grants []GrantRecord
	err := dbkit.WithErr1(s.db.NewSelect().
		Model(&grants).
		Order("created_at ASC").
		Order("id ASC").
		Scan(ctx), "GetGrants").Err()
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// Roles retrieves the role records applicable to a user: every assigned
// role targeting the user, in creation order.
func (s *Service) Roles(ctx context.Context, userID string) ([]RoleRecord, error) {
	var roles []RoleRecord
	q := s.db.NewSelect().Model(&roles)
	if userID == "" {
		q = q.Where("user_id IS NULL OR user_id = ''")
	} else {
		q = q.Where("user_id = ?", userID)
	}
	err := dbkit.WithErr1(q.
		Order("created_at ASC").
		Order("id ASC").
		Scan(ctx), "GetRoles").Err()
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// Permissions loads the current configuration for the previous handle's
// identity and compiles it, returning the successor permissions. The
// previous handle is left untouched; callers swap atomically.
func (s *Service) Permissions(ctx context.Context, prev *CompiledPermissions) (*CompiledPermissions, error) {
	grants, err := s.Grants(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.Roles(ctx, prev.Identity().UserID)
	if err != nil {
		return nil, err
	}

	next, err := prev.Update(grants, roles)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Debug("permissions compiled",
			slog.String("user_id", prev.Identity().UserID),
			slog.Int("grants", len(grants)),
			slog.Int("roles", len(roles)),
		)
	}
	return next, nil
}

// ReplaceConfiguration replaces the stored grant and role records in one
// transaction, so readers loading mid-replace never observe a half
// configuration.
func (s *Service) ReplaceConfiguration(ctx context.Context, grants []GrantRecord, roles []RoleRecord) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		result, err := s.db.NewDelete().Model((*GrantRecord)(nil)).Where("1 = 1").Exec(ctx)
		if err := dbkit.WithErr(result, err, "DeleteGrants").Err(); err != nil {
			return err
		}
		result, err = s.db.NewDelete().Model((*RoleRecord)(nil)).Where("1 = 1").Exec(ctx)
		if err := dbkit.WithErr(result, err, "DeleteRoles").Err(); err != nil {
			return err
		}

		if len(grants) > 0 {
			result, err = s.db.NewInsert().Model(&grants).Exec(ctx)
			if err := dbkit.WithErr(result, err, "InsertGrants").Err(); err != nil {
				return err
			}
		}
		if len(roles) > 0 {
			result, err = s.db.NewInsert().Model(&roles).Exec(ctx)
			if err := dbkit.WithErr(result, err, "InsertRoles").Err(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Transaction executes a function within a database transaction with
// automatic commit/rollback. If the function returns an error, the
// transaction is rolled back. Otherwise, it's committed.
func (s *Service) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Already inside a transaction: use a savepoint.
	if tx, ok := s.db.(*dbkit.Tx); ok {
		return tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	}
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	}
	return fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
}
