package replikit

import (
	"context"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MemoryTransientTable is an in-memory TransientLookup. It backs tests and
// serves as the snapshot type the database-backed store loads into.
type MemoryTransientTable struct {
	records []TransientRecord
}

// NewMemoryTransientTable creates a table holding the given records.
func NewMemoryTransientTable(records ...TransientRecord) *MemoryTransientTable {
	return &MemoryTransientTable{records: records}
}

// Add appends a record to the table.
func (t *MemoryTransientTable) Add(rec TransientRecord) {
	t.records = append(t.records, rec)
}

// ForRoles implements TransientLookup: for each role-grant carrying an
// assignment id, in input order, the records keyed by that assignment
// whose window contains the position.
func (t *MemoryTransientTable) ForRoles(roleGrants []RoleGrant, lsn LSN) []TransientGrant {
	var matched []TransientGrant
	for _, rg := range roleGrants {
		if rg.Role.AssignmentID == "" {
			continue
		}
		for _, rec := range t.records {
			if rec.AssignmentID == rg.Role.AssignmentID && rec.Contains(lsn) {
				matched = append(matched, TransientGrant{RoleGrant: rg, Record: rec})
			}
		}
	}
	return matched
}

// TransientFilter provides options for querying transient records.
type TransientFilter struct {
	// Filter by the assignment the record belongs to
	AssignmentID string

	// Filter by target scope root
	TargetSchema string
	TargetTable  string
	TargetID     string

	// Only records whose window contains this position (zero means any)
	ContainsLSN LSN

	// Pagination
	Limit  int
	Offset int
}

// NewTransientFilter creates a TransientFilter with default values.
func NewTransientFilter() TransientFilter {
	return TransientFilter{Limit: 100}
}

// WithAssignment sets the assignment id filter.
func (f TransientFilter) WithAssignment(assignmentID string) TransientFilter {
	f.AssignmentID = assignmentID
	return f
}

// WithTarget sets the target scope root filter.
func (f TransientFilter) WithTarget(target ScopeRef) TransientFilter {
	f.TargetSchema = target.Relation.Schema
	f.TargetTable = target.Relation.Table
	f.TargetID = target.ID
	return f
}

// At keeps only records whose window contains the position.
func (f TransientFilter) At(lsn LSN) TransientFilter {
	f.ContainsLSN = lsn
	return f
}

// WithLimit sets the pagination limit.
func (f TransientFilter) WithLimit(limit int) TransientFilter {
	f.Limit = limit
	return f
}

// TransientStore manages transient records in the database. The evaluator
// never reads the store directly: Snapshot loads the records applicable to
// a set of assignments into a MemoryTransientTable, which is then passed
// around as the TransientLookup handle so that reads stay consistent for
// the duration of an evaluation.
type TransientStore struct {
	db dbkit.IDB
}

// NewTransientStore creates a store over the given database.
func NewTransientStore(db dbkit.IDB) *TransientStore {
	return &TransientStore{db: db}
}

// Grant inserts a transient record valid over [from, to).
func (s *TransientStore) Grant(ctx context.Context, assignmentID string, target ScopeRef, from, to LSN) (*TransientRecord, error) {
	rec := &TransientRecord{
		ID:           uuid.NewString(),
		AssignmentID: assignmentID,
		TargetSchema: target.Relation.Schema,
		TargetTable:  target.Relation.Table,
		TargetID:     target.ID,
		ValidFromLSN: from,
		ValidToLSN:   to,
	}
	result, err := s.db.NewInsert().Model(rec).Exec(ctx)
	if err := dbkit.WithErr(result, err, "GrantTransient").Err(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Revoke closes a record's window at the given position. Evaluations at or
// past the position no longer see the grant.
func (s *TransientStore) Revoke(ctx context.Context, id string, at LSN) error {
	result, err := s.db.NewUpdate().
		Model((*TransientRecord)(nil)).
		Set("valid_to_lsn = ?", at).
		Where("id = ?", id).
		Where("valid_to_lsn > ?", at).
		Exec(ctx)
	return dbkit.WithErr(result, err, "RevokeTransient").Err()
}

// List retrieves transient records matching the filter.
func (s *TransientStore) List(ctx context.Context, filter TransientFilter) ([]TransientRecord, error) {
	var records []TransientRecord
	q := s.db.NewSelect().Model(&records)
	if filter.AssignmentID != "" {
		q = q.Where("assignment_id = ?", filter.AssignmentID)
	}
	if filter.TargetTable != "" {
		q = q.Where("target_schema = ? AND target_table = ? AND target_id = ?",
			filter.TargetSchema, filter.TargetTable, filter.TargetID)
	}
	if filter.ContainsLSN != 0 {
		q = q.Where("valid_from_lsn <= ? AND valid_to_lsn > ?", filter.ContainsLSN, filter.ContainsLSN)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100
	}
	q = q.Limit(limit)
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("created_at ASC")
	if err := dbkit.WithErr1(q.Scan(ctx), "ListTransients").Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Snapshot loads every record keyed by one of the given assignments into
// an in-memory table, suitable as the TransientLookup handle for compiled
// permissions.
func (s *TransientStore) Snapshot(ctx context.Context, assignmentIDs []string) (*MemoryTransientTable, error) {
	if len(assignmentIDs) == 0 {
		return NewMemoryTransientTable(), nil
	}
	var records []TransientRecord
	err := dbkit.WithErr1(s.db.NewSelect().
		Model(&records).
		Where("assignment_id IN (?)", bun.In(assignmentIDs)).
		Order("created_at ASC").
		Scan(ctx), "SnapshotTransients").Err()
	if err != nil {
		return nil, err
	}
	return NewMemoryTransientTable(records...), nil
}
