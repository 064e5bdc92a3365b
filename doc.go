// Package replikit provides the permissions evaluation core of a
// bidirectional replication system.
//
// RepliKit sits between a central relational database and untrusted edge
// clients. For every change crossing that boundary it decides whether the
// authenticated user is allowed to perform it: a transaction arriving from
// the edge is admitted or rejected atomically, and a transaction flowing
// from the server down to an edge is filtered so the user only receives
// rows they may see, with move-out notifications for rows that became
// invisible inside the same transaction.
//
// # Core Concepts
//
// Relation: a qualified table name (schema, table).
//
// Privilege: one of INSERT, UPDATE, DELETE, SELECT.
//
// Role: who the user is for permission purposes. Every evaluation carries
// the implicit "anyone" role, plus "authenticated" when the identity has a
// user id, plus any assigned roles from the configuration source. An
// assigned role may be bound to a scope: a subtree of related rows anchored
// at a scope-root row such as ("public","projects") id 7.
//
// Grant: a right declared for a role name on a relation, covering a set of
// privileges and optionally restricted to a column subset.
//
// Scope move: an update whose foreign-key edits relocate a row to a
// different scope root. The validator evaluates it as a logical pair, so
// moving a row requires write rights in both the origin and the
// destination scope.
//
// Transient permission: a short-lived grant keyed by assignment id, target
// scope root and an LSN window, supplied by an external table and
// consulted only when the compiled scoped grants do not admit a change.
//
// # Basic Usage
//
//	// 1. Build an empty compiled set for the connection's identity.
//	identity := replikit.Identity{UserID: "u1"}
//	perms := replikit.New(identity, resolver, transients)
//
//	// 2. Compile whenever a new {grants, roles} configuration arrives.
//	perms, err := perms.Update(grantRecords, roleRecords)
//	if err != nil {
//	    // a grant or role record could not be decoded
//	}
//
//	// 3. Admit edge writes.
//	if err := perms.ValidateWrite(tx); err != nil {
//	    // reject the whole transaction; err.Error() is user visible
//	}
//
//	// 4. Filter server-to-client transactions.
//	filtered, moveOuts := perms.FilterRead(tx)
//
// Compiled permissions are immutable: Update returns a fresh value and
// readers swap the handle they hold. Evaluation is pure; the scope
// resolver is threaded functionally through a transaction so that a
// rejected transaction leaves no observable effect.
//
// # Configuration Store
//
// Grant, role and transient records live in Postgres and are accessed
// through DBKit:
//
//	db, _ := dbkit.New(dbkit.Config{URL: cfg.DatabaseURL})
//	service := replikit.NewService(db)
//	_, _ = db.Migrate(ctx, service.Migrations())
//
//	perms, err := service.Permissions(ctx, perms)
//
// # Pipeline Gates
//
// Gates bolt the evaluator onto the replication pipeline without the
// pipeline knowing about permissions:
//
//	gate := replikit.NewGate(current)
//	apply = gate.WriteGate(apply)     // rejects forbidden transactions
//	deliver = gate.ReadGate(deliver)  // delivers filtered changes + move-outs
package replikit
