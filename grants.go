package replikit

// Grant is a normalised grant: the rights a role name supplies on one
// relation.
type Grant struct {
	RoleName   string
	Relation   Relation
	Privileges []Privilege

	// Columns restricts writes to a column subset. Nil means all columns
	// are permitted.
	Columns []string

	// Check is an optional row-level check expression. Evaluation is a
	// declared gap: CheckPasses accepts every change until a real
	// evaluator replaces it.
	Check string
}

// grantFromRecord normalises a grant record. An empty privilege set or an
// unknown privilege is a configuration error.
func grantFromRecord(rec GrantRecord) (Grant, error) {
	if len(rec.Privileges) == 0 {
		return Grant{}, NewError(ErrInvalidGrantRecord, "privilege set is empty").
			WithRecord(rec.ID).
			WithRole(rec.RoleName)
	}

	privileges := make([]Privilege, 0, len(rec.Privileges))
	for _, p := range rec.Privileges {
		switch priv := Privilege(p); priv {
		case PrivilegeInsert, PrivilegeUpdate, PrivilegeDelete, PrivilegeSelect:
			privileges = append(privileges, priv)
		default:
			return Grant{}, NewError(ErrInvalidGrantRecord, "unknown privilege "+p).
				WithRecord(rec.ID).
				WithRole(rec.RoleName)
		}
	}

	return Grant{
		RoleName:   rec.RoleName,
		Relation:   Relation{Schema: rec.Schema, Table: rec.Table},
		Privileges: privileges,
		Columns:    rec.Columns,
		Check:      rec.CheckExpr,
	}, nil
}

// ColumnsValid returns true when the grant has no column restriction, or
// when every given column is a member of the grant's column subset.
func (g Grant) ColumnsValid(columns []string) bool {
	if g.Columns == nil {
		return true
	}
	for _, c := range columns {
		if !containsString(g.Columns, c) {
			return false
		}
	}
	return true
}

// CheckPasses evaluates the grant's check expression against a change.
// Grants without a check always pass. Expression evaluation is a declared
// gap: a grant carrying a check currently passes too, and replacing this
// body with a real evaluator affects no other contract.
func (g Grant) CheckPasses(ch Change) bool {
	if g.Check == "" {
		return true
	}
	// TODO: evaluate the check expression against the change's row.
	return true
}

// RoleGrant pairs a role with one of its grants: "this role supplies the
// rights of this grant". Both components are read-only for the life of the
// compiled permissions.
type RoleGrant struct {
	Role  Role
	Grant Grant
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
