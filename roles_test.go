package replikit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoleFromRecord tests decoding role records into variants.
func TestRoleFromRecord(t *testing.T) {
	t.Run("Assigned unscoped", func(t *testing.T) {
		role, err := roleFromRecord(assignedRec("a1", "member", "u1", nil))
		require.NoError(t, err)
		assert.Equal(t, RoleAssigned, role.Kind)
		assert.Equal(t, "member", role.Name)
		assert.Equal(t, "u1", role.UserID)
		assert.Equal(t, "a1", role.AssignmentID)
		assert.False(t, role.HasScope())
	})

	t.Run("Assigned scoped", func(t *testing.T) {
		role, err := roleFromRecord(assignedRec("a1", "member", "u1", projectScope("7")))
		require.NoError(t, err)
		require.True(t, role.HasScope())
		assert.Equal(t, relProjects, role.Scope.Relation)
		assert.Equal(t, "7", role.Scope.ID)
	})

	t.Run("Anyone", func(t *testing.T) {
		role, err := roleFromRecord(RoleRecord{ID: "r1", Kind: RoleKindAnyone})
		require.NoError(t, err)
		assert.Equal(t, RoleAnyone, role.Kind)
		assert.False(t, role.HasScope())
	})

	t.Run("Authenticated", func(t *testing.T) {
		role, err := roleFromRecord(RoleRecord{ID: "r1", Kind: RoleKindAuthenticated})
		require.NoError(t, err)
		assert.Equal(t, RoleAuthenticated, role.Kind)
	})

	t.Run("Unknown kind", func(t *testing.T) {
		_, err := roleFromRecord(RoleRecord{ID: "r1", Kind: "superuser"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRoleRecord)
	})
}

// TestRoleGrantName tests the names grants are matched against.
func TestRoleGrantName(t *testing.T) {
	assert.Equal(t, RoleNameAnyone, anyoneRole().grantName())
	assert.Equal(t, RoleNameAuthenticated, authenticatedRole().grantName())
	assert.Equal(t, "member", Role{Kind: RoleAssigned, Name: "member"}.grantName())
}

// TestMatchingGrants tests matching grants to roles by role name.
func TestMatchingGrants(t *testing.T) {
	grants := []Grant{
		{RoleName: "member", Relation: relIssues, Privileges: []Privilege{PrivilegeSelect}},
		{RoleName: RoleNameAnyone, Relation: relIssues, Privileges: []Privilege{PrivilegeSelect}},
		{RoleName: "member", Relation: relProjects, Privileges: []Privilege{PrivilegeSelect}},
	}

	t.Run("Assigned role matches by name in input order", func(t *testing.T) {
		matched := matchingGrants(Role{Kind: RoleAssigned, Name: "member"}, grants)
		require.Len(t, matched, 2)
		assert.Equal(t, relIssues, matched[0].Relation)
		assert.Equal(t, relProjects, matched[1].Relation)
	})

	t.Run("Anyone matches the reserved token only", func(t *testing.T) {
		matched := matchingGrants(anyoneRole(), grants)
		require.Len(t, matched, 1)
		assert.Equal(t, RoleNameAnyone, matched[0].RoleName)
	})

	t.Run("No matches", func(t *testing.T) {
		assert.Empty(t, matchingGrants(authenticatedRole(), grants))
	})
}
