package replikit

import (
	"log/slog"
)

// accessMode selects which grant conditions apply during resolution.
type accessMode int

const (
	modeRead accessMode = iota
	modeWrite
)

// requiredPrivilege maps a change variant to the privilege it requires. A
// scope move is an update in its destination scope.
func requiredPrivilege(ch Change) Privilege {
	switch ch.Op {
	case OpInsert:
		return PrivilegeInsert
	case OpDelete:
		return PrivilegeDelete
	default:
		return PrivilegeUpdate
	}
}

// changeColumns returns the columns a write-mode grant must cover: the
// record's key set for inserts, the changed columns for updates and scope
// moves. Deletes carry no columns; the column check is skipped for them.
func changeColumns(ch Change) []string {
	switch ch.Op {
	case OpInsert:
		return ch.Record.Columns()
	case OpDelete:
		return nil
	default:
		return ch.ChangedColumns
	}
}

// ValidateWrite admits or rejects a transaction arriving from the edge.
// It returns nil when every change is admitted, or the denial for the
// first change no grant admits. A denial is fatal for the transaction: no
// later change is evaluated and no resolver state escapes, so a rejected
// transaction has zero observable effect.
//
// Updates that re-parent a row across a scope are expanded into the
// original update plus a synthetic scope move carrying the new row data,
// so the move requires write rights in both the origin and the
// destination scope.
func (p *CompiledPermissions) ValidateWrite(tx Transaction) error {
	resolver := p.resolver
	for _, ch := range p.expandChanges(tx.Changes) {
		priv := requiredPrivilege(ch)
		bucket := p.lookup(ch.Relation, priv)
		if bucket == nil {
			return denied(priv, ch.Relation)
		}
		rg := roleGrantForChange(bucket, p, resolver, ch, tx.LSN, modeWrite)
		if rg == nil {
			return denied(priv, ch.Relation)
		}
		p.logAdmitted(ch, rg)
		resolver = resolver.ApplyChange(ch)
	}
	return nil
}

// expandChanges walks the transaction's changes in order and doubles every
// update that edits a foreign key participating in a path to a compiled
// scope: the original update stays, and a scope move with the new row data
// follows it.
func (p *CompiledPermissions) expandChanges(changes []Change) []Change {
	expanded := make([]Change, 0, len(changes))
	for _, ch := range changes {
		expanded = append(expanded, ch)
		if ch.Op != OpUpdate {
			continue
		}
		for _, scope := range p.scopes {
			if p.resolver.ModifiesFK(scope, ch) {
				expanded = append(expanded, Change{
					Op:             opScopeMove,
					Relation:       ch.Relation,
					Record:         ch.Record,
					ChangedColumns: ch.ChangedColumns,
				})
				break
			}
		}
	}
	return expanded
}

// roleGrantForChange is the shared resolution core: it returns the first
// role-grant in the bucket that admits the change, or nil.
//
// Resolution order is significant. Unscoped role-grants are consulted
// first, then scoped role-grants whose bound scope contains the change's
// row, then transient grants whose window contains the transaction
// position and whose target scope contains the row. Any single matching
// grant is sufficient; matching is never intersected across grants.
func roleGrantForChange(bucket *AssignedRoles, p *CompiledPermissions, resolver ScopeResolver, ch Change, lsn LSN, mode accessMode) *RoleGrant {
	rg, _ := resolveRoleGrant(bucket, p, resolver, ch, lsn, mode)
	return rg
}

// resolveRoleGrant additionally reports the scope resolution the winning
// grant was admitted under, when it was admitted through a scope.
func resolveRoleGrant(bucket *AssignedRoles, p *CompiledPermissions, resolver ScopeResolver, ch Change, lsn LSN, mode accessMode) (*RoleGrant, ScopeResolution) {
	for i := range bucket.Unscoped {
		rg := &bucket.Unscoped[i]
		if grantAdmits(rg.Grant, ch, mode) {
			return rg, ScopeResolution{}
		}
	}

	for i := range bucket.Scoped {
		rg := &bucket.Scoped[i]
		scope := rg.Role.Scope
		res, ok := resolver.ScopeID(scope.Relation, ch)
		if !ok || res.ID != scope.ID {
			continue
		}
		if grantAdmits(rg.Grant, ch, mode) {
			return rg, res
		}
	}

	if p.transients == nil {
		return nil, ScopeResolution{}
	}
	for _, tg := range p.transients.ForRoles(bucket.Scoped, lsn) {
		res, ok := resolver.ScopeID(tg.Record.TargetRelation(), ch)
		if !ok || res.ID != tg.Record.TargetID {
			continue
		}
		if grantAdmits(tg.RoleGrant.Grant, ch, mode) {
			rg := tg.RoleGrant
			p.logTransient(ch, tg)
			return &rg, res
		}
	}

	return nil, ScopeResolution{}
}

// grantAdmits tests the mode-specific grant conditions: writes require
// both column validity and a passing check, reads only the check.
func grantAdmits(grant Grant, ch Change, mode accessMode) bool {
	if mode == modeWrite && !grant.ColumnsValid(changeColumns(ch)) {
		return false
	}
	return grant.CheckPasses(ch)
}

func (p *CompiledPermissions) logAdmitted(ch Change, rg *RoleGrant) {
	if p.logger == nil {
		return
	}
	p.logger.Debug("change admitted",
		slog.String("op", ch.Op.String()),
		slog.String("relation", ch.Relation.String()),
		slog.String("role", rg.Role.grantName()),
		slog.String("grant_role", rg.Grant.RoleName),
	)
}

func (p *CompiledPermissions) logTransient(ch Change, tg TransientGrant) {
	if p.logger == nil {
		return
	}
	p.logger.Debug("transient grant matched",
		slog.String("op", ch.Op.String()),
		slog.String("relation", ch.Relation.String()),
		slog.String("assignment_id", tg.Record.AssignmentID),
		slog.String("target", tg.Record.Target().String()),
	)
}
