package replikit

import (
	"context"
)

// Context keys for RepliKit values.
type contextKey string

const (
	contextKeyIdentity    contextKey = "replikit:identity"
	contextKeyPermissions contextKey = "replikit:permissions"
)

// WithIdentity adds the connection's identity to the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, identity)
}

// IdentityFrom retrieves the identity from context. The second result is
// false when no identity was set.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	if v := ctx.Value(contextKeyIdentity); v != nil {
		if id, ok := v.(Identity); ok {
			return id, true
		}
	}
	return Identity{}, false
}

// MustIdentityFrom retrieves the identity from context.
// Panics if not set.
func MustIdentityFrom(ctx context.Context) Identity {
	identity, ok := IdentityFrom(ctx)
	if !ok {
		panic("replikit: identity not in context")
	}
	return identity
}

// WithPermissions adds compiled permissions to the context, typically done
// once per connection after a configuration compile.
func WithPermissions(ctx context.Context, perms *CompiledPermissions) context.Context {
	return context.WithValue(ctx, contextKeyPermissions, perms)
}

// PermissionsFrom retrieves compiled permissions from context.
// Returns nil if not set.
func PermissionsFrom(ctx context.Context) *CompiledPermissions {
	if v := ctx.Value(contextKeyPermissions); v != nil {
		if p, ok := v.(*CompiledPermissions); ok {
			return p
		}
	}
	return nil
}
