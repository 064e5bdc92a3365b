package replikit

import (
	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required for RepliKit.
// Use db.Migrate(ctx, service.Migrations()) to run migrations.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "replikit-001",
			Description: "Create replication_grants table",
			SQL: `
                CREATE TABLE IF NOT EXISTS replication_grants (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    role_name TEXT NOT NULL,
                    schema_name TEXT NOT NULL,
                    table_name TEXT NOT NULL,
                    privileges TEXT[] NOT NULL,
                    columns TEXT[],
                    check_expr TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "replikit-002",
			Description: "Create replication_roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS replication_roles (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    kind TEXT NOT NULL,
                    name TEXT,
                    user_id TEXT,
                    scope_schema TEXT,
                    scope_table TEXT,
                    scope_id TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "replikit-003",
			Description: "Create replication_transients table",
			SQL: `
                CREATE TABLE IF NOT EXISTS replication_transients (
                    id UUID PRIMARY KEY,
                    assignment_id TEXT NOT NULL,
                    target_schema TEXT NOT NULL,
                    target_table TEXT NOT NULL,
                    target_id TEXT NOT NULL,
                    valid_from_lsn BIGINT NOT NULL,
                    valid_to_lsn BIGINT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "replikit-004",
			Description: "Index replication_transients by assignment",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_replication_transients_assignment
                    ON replication_transients (assignment_id, valid_from_lsn, valid_to_lsn)`,
		},
	}
}
