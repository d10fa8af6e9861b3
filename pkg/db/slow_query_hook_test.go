package db

import "testing"

func TestParseStatement(t *testing.T) {
	cases := []struct {
		sql   string
		op    string
		table string
	}{
		{"SELECT id FROM users WHERE id = $1", "select", "users"},
		{"\n  INSERT INTO tasks (title) VALUES ($1)", "insert", "tasks"},
		{"UPDATE projects SET title = $1", "update", "projects"},
		{"DELETE FROM project_members WHERE project_id = $1", "delete", "project_members"},
		{"INSERT INTO project_members(project_id, user_id) VALUES ($1, $2)", "insert", "project_members"},
		{"SELECT 1", "select", "unknown"},
		{"", "unknown", "unknown"},
	}

	for _, tc := range cases {
		op, table := parseStatement(tc.sql)
		if op != tc.op || table != tc.table {
			t.Errorf("parseStatement(%q) = (%q, %q), want (%q, %q)", tc.sql, op, table, tc.op, tc.table)
		}
	}
}
