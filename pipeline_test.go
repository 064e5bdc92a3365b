package replikit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriteGate tests that the write gate admits and rejects around the
// wrapped handler.
func TestWriteGate(t *testing.T) {
	perms := compileTest(t, Identity{UserID: "u1"}, newTestResolver(), nil,
		[]GrantRecord{grantRec("g1", RoleNameAuthenticated, relIssues, []string{"INSERT"}, nil)},
		nil,
	)

	var applied []Transaction
	apply := func(ctx context.Context, tx Transaction) error {
		applied = append(applied, tx)
		return nil
	}

	var deniedTx *Transaction
	gate := NewGate(func() *CompiledPermissions { return perms },
		WithDeniedHandler(func(ctx context.Context, tx Transaction, err error) {
			deniedTx = &tx
		}),
	)
	guarded := gate.WriteGate(apply)

	t.Run("Admitted transaction reaches the handler", func(t *testing.T) {
		tx := Transaction{LSN: 1, Changes: []Change{Insert(relIssues, Record{"id": "1"})}}
		require.NoError(t, guarded(context.Background(), tx))
		require.Len(t, applied, 1)
		assert.Nil(t, deniedTx)
	})

	t.Run("Rejected transaction never reaches the handler", func(t *testing.T) {
		tx := Transaction{LSN: 2, Changes: []Change{Delete(relIssues, Record{"id": "1"})}}
		err := guarded(context.Background(), tx)
		require.Error(t, err)
		assert.True(t, IsPermissionDenied(err))
		assert.Len(t, applied, 1)
		require.NotNil(t, deniedTx)
		assert.Equal(t, LSN(2), deniedTx.LSN)
	})
}

// TestReadGate tests that the read gate delivers filtered changes and
// move-outs.
func TestReadGate(t *testing.T) {
	grants := []GrantRecord{grantRec("g1", "member", relIssues, []string{"SELECT"}, nil)}
	roles := []RoleRecord{assignedRec("a1", "member", "u1", projectScope("7"))}
	perms := compileTest(t, Identity{UserID: "u1"}, newTestResolver(), nil, grants, roles)

	var delivered Transaction
	var deliveredOuts []MoveOut
	deliver := func(ctx context.Context, tx Transaction, moveOuts []MoveOut) error {
		delivered = tx
		deliveredOuts = moveOuts
		return nil
	}

	gate := NewGate(func() *CompiledPermissions { return perms })
	guarded := gate.ReadGate(deliver)

	tx := Transaction{LSN: 1, Changes: []Change{
		Insert(relIssues, Record{"id": "42", "project_id": "7"}),
		Update(relIssues,
			Record{"id": "43", "project_id": "8"},
			Record{"id": "43", "project_id": "7"},
			"project_id"),
	}}

	require.NoError(t, guarded(context.Background(), tx, nil))
	require.Len(t, delivered.Changes, 1)
	assert.Equal(t, "42", delivered.Changes[0].Record.ID())
	require.Len(t, deliveredOuts, 1)
	assert.Equal(t, "43", deliveredOuts[0].ID)
}

// TestGateSwapsPermissions tests that the gate evaluates against the
// handle most recently swapped in.
func TestGateSwapsPermissions(t *testing.T) {
	empty := New(Identity{UserID: "u1"}, newTestResolver(), nil)
	compiled := compileTest(t, Identity{UserID: "u1"}, newTestResolver(), nil,
		[]GrantRecord{grantRec("g1", RoleNameAuthenticated, relIssues, []string{"INSERT"}, nil)},
		nil,
	)

	current := empty
	gate := NewGate(func() *CompiledPermissions { return current })
	guarded := gate.WriteGate(func(ctx context.Context, tx Transaction) error { return nil })

	tx := Transaction{LSN: 1, Changes: []Change{Insert(relIssues, Record{"id": "1"})}}

	assert.Error(t, guarded(context.Background(), tx))

	current = compiled
	assert.NoError(t, guarded(context.Background(), tx))
}
