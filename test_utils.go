package replikit

import (
	"fmt"
	"testing"
)

// Shared fixture relations: issues rows hang off project scope roots.
var (
	relIssues   = Relation{Schema: "public", Table: "issues"}
	relProjects = Relation{Schema: "public", Table: "projects"}
	relComments = Relation{Schema: "public", Table: "comments"}
)

// newTestResolver builds a resolver over the fixture topology:
// comments -> issues -> projects.
func newTestResolver() *MemoryScopeResolver {
	return NewMemoryScopeResolver(map[Relation]ForeignKey{
		relIssues:   {Column: "project_id", Parent: relProjects},
		relComments: {Column: "issue_id", Parent: relIssues},
	})
}

// grantRec builds a grant record. Column subset nil means all columns.
func grantRec(id, roleName string, rel Relation, privileges []string, columns []string) GrantRecord {
	return GrantRecord{
		ID:         id,
		RoleName:   roleName,
		Schema:     rel.Schema,
		Table:      rel.Table,
		Privileges: privileges,
		Columns:    columns,
	}
}

// assignedRec builds an assigned role record, scoped when scope is
// non-nil.
func assignedRec(id, name, userID string, scope *ScopeRef) RoleRecord {
	rec := RoleRecord{
		ID:     id,
		Kind:   RoleKindAssigned,
		Name:   name,
		UserID: userID,
	}
	if scope != nil {
		rec.ScopeSchema = scope.Relation.Schema
		rec.ScopeTable = scope.Relation.Table
		rec.ScopeID = scope.ID
	}
	return rec
}

// projectScope builds a scope reference at the fixture projects relation.
func projectScope(id string) *ScopeRef {
	return &ScopeRef{Relation: relProjects, ID: id}
}

// compileTest compiles a configuration, failing the test on configuration
// errors.
func compileTest(t *testing.T, identity Identity, resolver ScopeResolver, transients TransientLookup, grants []GrantRecord, roles []RoleRecord) *CompiledPermissions {
	t.Helper()
	perms, err := New(identity, resolver, transients).Update(grants, roles)
	if err != nil {
		t.Fatalf("Failed to compile permissions: %v", err)
	}
	return perms
}

// transientRec builds a transient record for an assignment over [from, to).
func transientRec(assignmentID string, target ScopeRef, from, to LSN) TransientRecord {
	return TransientRecord{
		ID:           fmt.Sprintf("transient-%s-%d", assignmentID, from),
		AssignmentID: assignmentID,
		TargetSchema: target.Relation.Schema,
		TargetTable:  target.Relation.Table,
		TargetID:     target.ID,
		ValidFromLSN: from,
		ValidToLSN:   to,
	}
}
