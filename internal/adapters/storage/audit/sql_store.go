package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"atelier/internal/adapters/storage"
	domain "atelier/internal/domain/audit"
)

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db     storage.SQLDB
	driver string
}

// Compile-time check that *SQLStore satisfies Store.
var _ Store = (*SQLStore)(nil)

// NewSQLStore creates a new audit store.
func NewSQLStore(db storage.SQLDB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Record persists an audit event. Audit writes never fail the operation
// that produced them; a storage error is logged and swallowed.
// POST: Event is persisted or the failure is logged
func (s *SQLStore) Record(ctx context.Context, event domain.Event) {
	query := storage.Rebind(s.driver, `
		INSERT INTO audit_event (id, timestamp, category, action, severity, actor_id, resource_id, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp.Format(time.RFC3339Nano),
		string(event.Category),
		string(event.Action),
		string(event.Severity),
		event.ActorID,
		event.ResourceID,
		event.Description,
	)
	if err != nil {
		slog.Error("audit_write_failed", "event_id", event.ID, "action", event.Action, "error", err)
	}
}

// List retrieves audit events, newest first.
// PRE: filter has valid parameters
// POST: Returns matching events
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	var queryBuilder strings.Builder
	var args []any

	queryBuilder.WriteString("SELECT id, timestamp, category, action, severity, actor_id, resource_id, description FROM audit_event")

	var conditions []string
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.ActorID != "" {
		conditions = append(conditions, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	queryBuilder.WriteString(" ORDER BY timestamp DESC LIMIT ? OFFSET ?")
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, storage.Rebind(s.driver, queryBuilder.String()), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Event
	for rows.Next() {
		var event domain.Event
		var timestamp string
		err := rows.Scan(
			&event.ID,
			&timestamp,
			&event.Category,
			&event.Action,
			&event.Severity,
			&event.ActorID,
			&event.ResourceID,
			&event.Description,
		)
		if err != nil {
			return nil, err
		}
		event.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		results = append(results, event)
	}
	return results, rows.Err()
}
