package replikit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoleGrant(assignmentID string) RoleGrant {
	return RoleGrant{
		Role: Role{
			Kind:         RoleAssigned,
			Name:         "member",
			AssignmentID: assignmentID,
			Scope:        projectScope("9"),
		},
		Grant: Grant{RoleName: "member", Relation: relIssues, Privileges: []Privilege{PrivilegeUpdate}},
	}
}

// TestMemoryTransientTableForRoles tests window and assignment matching.
func TestMemoryTransientTableForRoles(t *testing.T) {
	table := NewMemoryTransientTable(
		transientRec("a1", ScopeRef{Relation: relProjects, ID: "7"}, 10, 20),
		transientRec("a2", ScopeRef{Relation: relProjects, ID: "8"}, 5, 15),
	)

	roleGrants := []RoleGrant{testRoleGrant("a1"), testRoleGrant("a2")}

	t.Run("Both windows contain the position", func(t *testing.T) {
		matched := table.ForRoles(roleGrants, 12)
		require.Len(t, matched, 2)
		assert.Equal(t, "a1", matched[0].Record.AssignmentID)
		assert.Equal(t, "a2", matched[1].Record.AssignmentID)
	})

	t.Run("One window expired", func(t *testing.T) {
		matched := table.ForRoles(roleGrants, 17)
		require.Len(t, matched, 1)
		assert.Equal(t, "a1", matched[0].Record.AssignmentID)
	})

	t.Run("No assignment id never matches", func(t *testing.T) {
		implicit := RoleGrant{Role: anyoneRole(), Grant: Grant{RoleName: RoleNameAnyone}}
		assert.Empty(t, table.ForRoles([]RoleGrant{implicit}, 12))
	})

	t.Run("Unknown assignment", func(t *testing.T) {
		assert.Empty(t, table.ForRoles([]RoleGrant{testRoleGrant("a9")}, 12))
	})
}

// TestTransientFilter tests the fluent filter builder.
func TestTransientFilter(t *testing.T) {
	f := NewTransientFilter().
		WithAssignment("a1").
		WithTarget(ScopeRef{Relation: relProjects, ID: "7"}).
		At(15).
		WithLimit(10)

	assert.Equal(t, "a1", f.AssignmentID)
	assert.Equal(t, "public", f.TargetSchema)
	assert.Equal(t, "projects", f.TargetTable)
	assert.Equal(t, "7", f.TargetID)
	assert.Equal(t, LSN(15), f.ContainsLSN)
	assert.Equal(t, 10, f.Limit)

	t.Run("Defaults", func(t *testing.T) {
		assert.Equal(t, 100, NewTransientFilter().Limit)
	})
}
