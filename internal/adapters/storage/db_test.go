package storage

import "testing"

func TestRebind(t *testing.T) {
	query := "SELECT data FROM member WHERE id = ? AND position > ?"

	if got := Rebind(DriverSQLite, query); got != query {
		t.Errorf("sqlite rebind changed the query: %q", got)
	}

	want := "SELECT data FROM member WHERE id = $1 AND position > $2"
	if got := Rebind(DriverPostgres, query); got != want {
		t.Errorf("pgx rebind = %q, want %q", got, want)
	}
}

func TestRebind_NoPlaceholders(t *testing.T) {
	query := "SELECT 1"
	if got := Rebind(DriverPostgres, query); got != query {
		t.Errorf("Rebind = %q, want unchanged", got)
	}
}
