package replikit

import "fmt"

// ForeignKey declares how a relation points at its parent: the column
// holding the parent's primary key and the parent relation.
type ForeignKey struct {
	Column string
	Parent Relation
}

type rowKey struct {
	Relation Relation
	ID       string
}

// MemoryScopeResolver is an in-memory ScopeResolver over a static
// foreign-key topology. It is the reference implementation of the
// contract and the resolver used throughout the tests.
//
// The resolver is persistent: ApplyChange layers a delta over the current
// state and returns a new value, leaving the receiver untouched. Lookups
// walk the delta chain newest-first.
type MemoryScopeResolver struct {
	fks   map[Relation]ForeignKey
	state *resolverState
}

// resolverState is one layer of parent assignments. Layers form an
// immutable chain; each ApplyChange prepends one.
type resolverState struct {
	base    *resolverState
	parents map[rowKey]string
}

func (s *resolverState) parent(key rowKey) (string, bool) {
	for layer := s; layer != nil; layer = layer.base {
		if id, ok := layer.parents[key]; ok {
			return id, ok
		}
	}
	return "", false
}

// NewMemoryScopeResolver creates a resolver over the given foreign-key
// topology, keyed by child relation.
func NewMemoryScopeResolver(fks map[Relation]ForeignKey) *MemoryScopeResolver {
	return &MemoryScopeResolver{fks: fks}
}

// SeedRow records a pre-existing row's parent without going through a
// change. Intended for test fixtures and initial state loading.
func (r *MemoryScopeResolver) SeedRow(rel Relation, id, parentID string) *MemoryScopeResolver {
	return r.withParent(rowKey{Relation: rel, ID: id}, parentID)
}

func (r *MemoryScopeResolver) withParent(key rowKey, parentID string) *MemoryScopeResolver {
	return &MemoryScopeResolver{
		fks: r.fks,
		state: &resolverState{
			base:    r.state,
			parents: map[rowKey]string{key: parentID},
		},
	}
}

// ScopeID resolves the change's row to its scope root by walking the
// foreign-key chain. The change's own row image (the old image for
// updates and deletes, the new image for inserts and scope moves) wins
// over stored state for the first hop, so a re-parenting update resolves
// to its origin scope and its synthetic scope move to the new scope.
func (r *MemoryScopeResolver) ScopeID(scope Relation, ch Change) (ScopeResolution, bool) {
	rel := ch.Relation
	row := ch.scopeRow()
	id := row.ID()
	if id == "" {
		return ScopeResolution{}, false
	}

	if rel == scope {
		return ScopeResolution{ID: id, Path: []ScopeRef{{Relation: rel, ID: id}}}, true
	}

	path := []ScopeRef{{Relation: rel, ID: id}}

	// First hop: prefer the row image carried by the change.
	fk, ok := r.fks[rel]
	if !ok {
		return ScopeResolution{}, false
	}
	parentID, ok := fkValue(row, fk.Column)
	if !ok {
		parentID, ok = r.state.parent(rowKey{Relation: rel, ID: id})
		if !ok {
			return ScopeResolution{}, false
		}
	}

	rel = fk.Parent
	for {
		path = append(path, ScopeRef{Relation: rel, ID: parentID})
		if rel == scope {
			return ScopeResolution{ID: parentID, Path: path}, true
		}
		fk, ok = r.fks[rel]
		if !ok {
			return ScopeResolution{}, false
		}
		parentID, ok = r.state.parent(rowKey{Relation: rel, ID: parentID})
		if !ok {
			return ScopeResolution{}, false
		}
		rel = fk.Parent
	}
}

// ModifiesFK reports whether an update edits the foreign-key column that
// links the change's relation toward the scope relation.
func (r *MemoryScopeResolver) ModifiesFK(scope Relation, ch Change) bool {
	if ch.Op != OpUpdate {
		return false
	}
	if !r.reaches(ch.Relation, scope) {
		return false
	}
	fk, ok := r.fks[ch.Relation]
	if !ok {
		return false
	}
	return containsString(ch.ChangedColumns, fk.Column)
}

// reaches reports whether the foreign-key chain from rel arrives at scope.
func (r *MemoryScopeResolver) reaches(rel, scope Relation) bool {
	for rel != scope {
		fk, ok := r.fks[rel]
		if !ok {
			return false
		}
		rel = fk.Parent
	}
	return true
}

// ApplyChange folds the change into scope state and returns the successor
// resolver. Inserts and updates record the row's (possibly new) parent;
// deletes leave state untouched, a deleted row simply stops being
// referenced.
func (r *MemoryScopeResolver) ApplyChange(ch Change) ScopeResolver {
	if ch.Op == OpDelete {
		return r
	}
	fk, ok := r.fks[ch.Relation]
	if !ok {
		return r
	}
	id := ch.Record.ID()
	if id == "" {
		return r
	}
	parentID, ok := fkValue(ch.Record, fk.Column)
	if !ok {
		return r
	}
	return r.withParent(rowKey{Relation: ch.Relation, ID: id}, parentID)
}

// fkValue reads a foreign-key column from a row image as a string.
func fkValue(row Record, column string) (string, bool) {
	v, ok := row[column]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}
