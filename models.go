package replikit

import (
	"fmt"
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// Relation is a qualified table name. Relations are compared by value and
// used as map keys; no ordering is assumed.
type Relation struct {
	Schema string
	Table  string
}

// NewRelation creates a Relation.
func NewRelation(schema, table string) Relation {
	return Relation{Schema: schema, Table: table}
}

// String renders the relation as schema.table, quoting each identifier
// only when it is not a plain lowercase SQL identifier.
func (r Relation) String() string {
	return quoteIdent(r.Schema) + "." + quoteIdent(r.Table)
}

// Privilege is one of the four SQL privileges the evaluator understands.
type Privilege string

const (
	PrivilegeInsert Privilege = "INSERT"
	PrivilegeUpdate Privilege = "UPDATE"
	PrivilegeDelete Privilege = "DELETE"
	PrivilegeSelect Privilege = "SELECT"
)

// phrase renders the privilege together with a relation the way the SQL
// statement would name them. Used in denial messages.
func (p Privilege) phrase(rel Relation) string {
	switch p {
	case PrivilegeInsert:
		return "INSERT INTO " + rel.String()
	case PrivilegeDelete:
		return "DELETE FROM " + rel.String()
	default:
		return string(p) + " " + rel.String()
	}
}

// LSN is an opaque, monotonically increasing log position supplied by the
// caller. It timestamps transactions for transient-permission windows.
type LSN uint64

// Identity is the pre-validated identity of the connected user. A zero
// UserID means the connection is anonymous. Claims are opaque to the core.
type Identity struct {
	UserID string
	Claims map[string]any
}

// IsAuthenticated returns true when the identity carries a user id.
func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

// ScopeRef identifies a scope root: a row of a relation by primary key.
type ScopeRef struct {
	Relation Relation
	ID       string
}

// String returns a string representation of the scope reference.
func (s ScopeRef) String() string {
	return s.Relation.String() + ":" + s.ID
}

// Record is a row image keyed by column name.
type Record map[string]any

// ID returns the record's primary key attribute rendered as a string.
// Replicated rows carry their primary key under the "id" column.
func (r Record) ID() string {
	v, ok := r["id"]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Columns returns the record's column names in sorted order.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// ChangeOp tags a Change variant.
type ChangeOp int

const (
	OpInsert ChangeOp = iota
	OpUpdate
	OpDelete
	// opScopeMove is synthesized by the validator when an update
	// re-parents a row across scopes. It never crosses the package
	// boundary.
	opScopeMove
)

// String returns the operation name.
func (op ChangeOp) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case opScopeMove:
		return "scope-move"
	default:
		return "unknown"
	}
}

// Change is one replicated row change.
//
// Record holds the new row image for inserts and updates. OldRecord holds
// the previous row image for updates and deletes. ChangedColumns lists the
// columns an update touched.
type Change struct {
	Op             ChangeOp
	Relation       Relation
	Record         Record
	OldRecord      Record
	ChangedColumns []string
}

// Insert creates an insert change.
func Insert(rel Relation, record Record) Change {
	return Change{Op: OpInsert, Relation: rel, Record: record}
}

// Update creates an update change.
func Update(rel Relation, record, oldRecord Record, changedColumns ...string) Change {
	return Change{
		Op:             OpUpdate,
		Relation:       rel,
		Record:         record,
		OldRecord:      oldRecord,
		ChangedColumns: changedColumns,
	}
}

// Delete creates a delete change.
func Delete(rel Relation, oldRecord Record) Change {
	return Change{Op: OpDelete, Relation: rel, OldRecord: oldRecord}
}

// scopeRow returns the row image scope membership is resolved against.
// Updates and deletes resolve where the row was, so an update that edits a
// foreign key still belongs to its origin scope; the synthetic scope move
// carries the new image and resolves to the destination.
func (c Change) scopeRow() Record {
	if (c.Op == OpUpdate || c.Op == OpDelete) && c.OldRecord != nil {
		return c.OldRecord
	}
	return c.Record
}

// Transaction is an ordered sequence of changes at one log position.
// Order is significant: earlier changes may alter scope state for later
// ones.
type Transaction struct {
	LSN     LSN
	Changes []Change
}

// MoveOut informs downstream that a row visible before a transaction is no
// longer visible after it, so caches can evict it.
type MoveOut struct {
	Change    Change
	ScopePath []ScopeRef
	Relation  Relation
	ID        string
}

// GrantRecord is a grant row as produced by the configuration source.
type GrantRecord struct {
	bun.BaseModel `bun:"table:replication_grants,alias:rg"`

	ID         string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	RoleName   string    `bun:"role_name,notnull"`
	Schema     string    `bun:"schema_name,notnull"`
	Table      string    `bun:"table_name,notnull"`
	Privileges []string  `bun:"privileges,type:text[],notnull"`
	Columns    []string  `bun:"columns,type:text[]"` // nil means all columns
	CheckExpr  string    `bun:"check_expr"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// RoleRecord is a role assignment row as produced by the configuration
// source.
type RoleRecord struct {
	bun.BaseModel `bun:"table:replication_roles,alias:rr"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Kind      string    `bun:"kind,notnull"` // "assigned", "anyone", "authenticated"
	Name      string    `bun:"name"`
	UserID    string    `bun:"user_id"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`

	// Scope binding; empty when the role is unscoped.
	ScopeSchema string `bun:"scope_schema"`
	ScopeTable  string `bun:"scope_table"`
	ScopeID     string `bun:"scope_id"`
}

// TransientRecord is a time- and position-bounded grant row. Its window is
// half open: the record applies to LSNs in [ValidFromLSN, ValidToLSN).
type TransientRecord struct {
	bun.BaseModel `bun:"table:replication_transients,alias:rt"`

	ID           string    `bun:"id,pk,type:uuid"`
	AssignmentID string    `bun:"assignment_id,notnull"`
	TargetSchema string    `bun:"target_schema,notnull"`
	TargetTable  string    `bun:"target_table,notnull"`
	TargetID     string    `bun:"target_id,notnull"`
	ValidFromLSN LSN       `bun:"valid_from_lsn,notnull"`
	ValidToLSN   LSN       `bun:"valid_to_lsn,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// TargetRelation returns the relation of the record's target scope root.
func (t TransientRecord) TargetRelation() Relation {
	return Relation{Schema: t.TargetSchema, Table: t.TargetTable}
}

// Target returns the record's target scope root.
func (t TransientRecord) Target() ScopeRef {
	return ScopeRef{Relation: t.TargetRelation(), ID: t.TargetID}
}

// Contains reports whether the record's window covers the given position.
func (t TransientRecord) Contains(lsn LSN) bool {
	return lsn >= t.ValidFromLSN && lsn < t.ValidToLSN
}
