package replikit

import (
	"log/slog"
)

// lookupKey keys the compiled grant table by relation and privilege.
type lookupKey struct {
	Relation  Relation
	Privilege Privilege
}

// AssignedRoles is the compiled bucket for one (relation, privilege) key:
// the role-grants that may admit a change requiring that privilege, split
// by scope binding. Buckets are built once by the compiler and never
// mutated afterwards.
type AssignedRoles struct {
	Scoped   []RoleGrant
	Unscoped []RoleGrant
}

// CompiledPermissions is the per-connection compiled view of the grant and
// role configuration. It is immutable once built; Update returns a fresh
// value and readers atomically swap the handle they hold.
type CompiledPermissions struct {
	identity    Identity
	roleLookup  map[lookupKey]*AssignedRoles
	scopedRoles map[Relation][]Role
	scopes      []Relation
	resolver    ScopeResolver
	transients  TransientLookup
	logger      *slog.Logger
}

// Option configures compiled permissions at construction.
type Option func(*CompiledPermissions)

// WithLogger attaches a logger for debug-level admission notices. Logging
// is advisory and never affects evaluation semantics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *CompiledPermissions) {
		p.logger = logger
	}
}

// New creates empty compiled permissions: no roles, no grants, only the
// identity, the scope resolver and the transient lookup handle. Every
// change is rejected and every read filtered until Update compiles a
// configuration.
func New(identity Identity, resolver ScopeResolver, transients TransientLookup, opts ...Option) *CompiledPermissions {
	p := &CompiledPermissions{
		identity:    identity,
		roleLookup:  map[lookupKey]*AssignedRoles{},
		scopedRoles: map[Relation][]Role{},
		resolver:    resolver,
		transients:  transients,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Identity returns the identity the permissions were compiled for.
func (p *CompiledPermissions) Identity() Identity {
	return p.identity
}

// Resolver returns the scope resolver the permissions evaluate against.
func (p *CompiledPermissions) Resolver() ScopeResolver {
	return p.resolver
}

// Scopes returns the scope relations any compiled role is bound to, in
// role order.
func (p *CompiledPermissions) Scopes() []Relation {
	return p.scopes
}

// ScopedRoles returns the compiled scoped roles bound to the given scope
// relation.
func (p *CompiledPermissions) ScopedRoles(scope Relation) []Role {
	return p.scopedRoles[scope]
}

func (p *CompiledPermissions) lookup(rel Relation, priv Privilege) *AssignedRoles {
	return p.roleLookup[lookupKey{Relation: rel, Privilege: priv}]
}

// Update compiles a new {grants, roles} configuration into fresh
// permissions, carrying over the identity, resolver, transient handle and
// logger. The previous value is left untouched.
//
// Compilation is deterministic: bucket order follows the input order of
// roles, then the input order of grants within each role.
func (p *CompiledPermissions) Update(grantRecords []GrantRecord, roleRecords []RoleRecord) (*CompiledPermissions, error) {
	grants := make([]Grant, 0, len(grantRecords))
	for _, rec := range grantRecords {
		g, err := grantFromRecord(rec)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}

	// The authoritative role list: anyone always applies, authenticated
	// applies when the identity has a user id, then the configured roles
	// in input order.
	roles := make([]Role, 0, len(roleRecords)+2)
	roles = append(roles, anyoneRole())
	if p.identity.IsAuthenticated() {
		roles = append(roles, authenticatedRole())
	}
	for _, rec := range roleRecords {
		role, err := roleFromRecord(rec)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}

	next := &CompiledPermissions{
		identity:    p.identity,
		roleLookup:  map[lookupKey]*AssignedRoles{},
		scopedRoles: map[Relation][]Role{},
		resolver:    p.resolver,
		transients:  p.transients,
		logger:      p.logger,
	}

	for _, role := range roles {
		matched := matchingGrants(role, grants)
		if len(matched) == 0 {
			// A role with no grants supplies no rights; drop it.
			continue
		}

		for _, grant := range matched {
			rg := RoleGrant{Role: role, Grant: grant}
			for _, priv := range grant.Privileges {
				key := lookupKey{Relation: grant.Relation, Privilege: priv}
				bucket := next.roleLookup[key]
				if bucket == nil {
					bucket = &AssignedRoles{}
					next.roleLookup[key] = bucket
				}
				if role.HasScope() {
					bucket.Scoped = append(bucket.Scoped, rg)
				} else {
					bucket.Unscoped = append(bucket.Unscoped, rg)
				}
			}
		}

		if role.HasScope() {
			scope := role.Scope.Relation
			if _, seen := next.scopedRoles[scope]; !seen {
				next.scopes = append(next.scopes, scope)
			}
			next.scopedRoles[scope] = append(next.scopedRoles[scope], role)
		}
	}

	return next, nil
}
