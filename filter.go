package replikit

// FilterRead filters a transaction flowing from the server to the client,
// keeping only the changes the user may see, and reports the rows that
// left the user's visibility inside this transaction as move-outs.
//
// Reads are evaluated against a single resolver snapshot per transaction;
// the filter never threads resolver state.
//
// Column subsetting on the read path is a declared gap: visible rows are
// emitted with all their columns.
func (p *CompiledPermissions) FilterRead(tx Transaction) (Transaction, []MoveOut) {
	filtered := Transaction{LSN: tx.LSN}
	var moveOuts []MoveOut

	for _, ch := range tx.Changes {
		if ch.Op != OpUpdate {
			if ValidateRead(ch, p, p.resolver, tx.LSN) != nil {
				filtered.Changes = append(filtered.Changes, ch)
			}
			continue
		}

		// Old and new row visibility are computed independently, each as
		// a SELECT on that row image.
		before, beforePath := p.readVisibility(Delete(ch.Relation, ch.OldRecord), tx.LSN)
		after, _ := p.readVisibility(Insert(ch.Relation, ch.Record), tx.LSN)

		switch {
		case before != nil && after != nil:
			filtered.Changes = append(filtered.Changes, ch)
		case before != nil:
			// The row left the user's visibility: omit the change and
			// tell downstream to evict the row.
			moveOuts = append(moveOuts, MoveOut{
				Change:    ch,
				ScopePath: beforePath.Path,
				Relation:  ch.Relation,
				ID:        ch.OldRecord.ID(),
			})
		case after != nil:
			// The row entered the user's visibility: the client has
			// never seen it, so it arrives as an insert.
			filtered.Changes = append(filtered.Changes, Insert(ch.Relation, ch.Record))
		}
	}

	return filtered, moveOuts
}

// ValidateRead is the single-change visibility helper behind FilterRead:
// it returns the first role-grant that makes the change visible under
// SELECT, or nil.
func ValidateRead(ch Change, p *CompiledPermissions, resolver ScopeResolver, lsn LSN) *RoleGrant {
	bucket := p.lookup(ch.Relation, PrivilegeSelect)
	if bucket == nil {
		return nil
	}
	return roleGrantForChange(bucket, p, resolver, ch, lsn, modeRead)
}

// readVisibility resolves SELECT visibility of a row image, keeping the
// scope resolution for move-out paths.
func (p *CompiledPermissions) readVisibility(ch Change, lsn LSN) (*RoleGrant, ScopeResolution) {
	bucket := p.lookup(ch.Relation, PrivilegeSelect)
	if bucket == nil {
		return nil, ScopeResolution{}
	}
	return resolveRoleGrant(bucket, p, p.resolver, ch, lsn, modeRead)
}
