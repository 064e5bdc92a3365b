package replikit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPermissionDeniedError tests the stable denial message and error
// classification.
func TestPermissionDeniedError(t *testing.T) {
	err := denied(PrivilegeInsert, relIssues)
	assert.Equal(t, "user does not have permission to INSERT INTO public.issues", err.Error())
	assert.True(t, IsPermissionDenied(err))
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	var deniedErr *PermissionDeniedError
	require.True(t, errors.As(error(err), &deniedErr))
	assert.Equal(t, PrivilegeInsert, deniedErr.Privilege)
	assert.Equal(t, relIssues, deniedErr.Relation)
}

// TestErrorWrapper tests the contextual error wrapper.
func TestErrorWrapper(t *testing.T) {
	err := NewError(ErrInvalidRoleRecord, "unknown role kind owner").
		WithRecord("r1").
		WithRole("owner").
		WithRelation(relIssues)

	assert.Equal(t, "replikit: invalid role record: unknown role kind owner", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidRoleRecord))
	assert.Equal(t, "r1", err.RecordID)
	assert.Equal(t, "owner", err.Role)
	assert.Equal(t, "public.issues", err.Relation)

	t.Run("Without message", func(t *testing.T) {
		assert.Equal(t, ErrDatabaseError.Error(), NewError(ErrDatabaseError, "").Error())
	})
}

// TestErrorPredicates tests the classification helpers.
func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsConfigurationError(NewError(ErrInvalidGrantRecord, "x")))
	assert.True(t, IsConfigurationError(NewError(ErrInvalidRoleRecord, "x")))
	assert.False(t, IsConfigurationError(ErrPermissionDenied))
	assert.False(t, IsPermissionDenied(ErrInvalidGrantRecord))
}

// TestQuoteIdent tests SQL identifier quoting.
func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "issues", quoteIdent("issues"))
	assert.Equal(t, "_private", quoteIdent("_private"))
	assert.Equal(t, `"Issues"`, quoteIdent("Issues"))
	assert.Equal(t, `"with space"`, quoteIdent("with space"))
	assert.Equal(t, `""`, quoteIdent(""))
}
