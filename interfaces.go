package replikit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MigrationManager defines the migration management interface
type MigrationManager interface {
	Migrations() []dbkit.Migration
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
}

// ScopeResolver resolves rows to the scope roots that own them. The
// storage engine behind it is the caller's concern; the evaluator only
// consumes this contract.
//
// Implementations must be persistent: ApplyChange returns a successor
// value and must not observably mutate its receiver. The validator relies
// on this to discard all intermediate state when a transaction is
// rejected.
type ScopeResolver interface {
	// ScopeID resolves the scope-root row that owns the change's row
	// within the given scope relation, walking foreign keys as needed.
	// The second result is false when the row is outside that scope.
	ScopeID(scope Relation, ch Change) (ScopeResolution, bool)

	// ModifiesFK reports whether the change edits a foreign key that
	// participates in the path from the change's relation up to the
	// scope relation.
	ModifiesFK(scope Relation, ch Change) bool

	// ApplyChange returns a successor resolver reflecting the change's
	// effect on scope state, such as a row's new parent.
	ApplyChange(ch Change) ScopeResolver
}

// ScopeResolution is a successful scope lookup: the primary key of the
// owning scope root and the path of rows walked from the change's row up
// to it.
type ScopeResolution struct {
	ID   string
	Path []ScopeRef
}

// TransientLookup retrieves time- and position-bounded grants applicable
// to a set of role-grants. The backing table is externally owned; the
// evaluator treats the lookup as an opaque handle and assumes reads are
// consistent for the duration of one change evaluation.
type TransientLookup interface {
	// ForRoles returns, for each role-grant whose assignment id has
	// transient records, the pairs whose window contains the given
	// position. Input order of role-grants is preserved.
	ForRoles(roleGrants []RoleGrant, lsn LSN) []TransientGrant
}

// TransientGrant is a role-grant admitted through a transient record.
type TransientGrant struct {
	RoleGrant RoleGrant
	Record    TransientRecord
}
