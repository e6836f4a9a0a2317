package scanner

import "database/sql"

// emitEvent applies the collapse table of spec.md §4.2 to keep at most one
// unconsumed event per (scope, path, target).
func (s *Store) emitEvent(scope, path string, target Target, kind Kind, mtime int64) error {
	row := s.db.QueryRow(`SELECT id, kind FROM events WHERE scope = ? AND path = ? AND target = ?`,
		scope, path, target)
	var id int64
	var existing string
	err := row.Scan(&id, &existing)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec(`INSERT INTO events (kind, target, scope, path, mtime) VALUES (?, ?, ?, ?, ?)`,
			kind, target, scope, path, mtime)
		return err
	}
	if err != nil {
		return err
	}

	switch Kind(existing) {
	case Added:
		switch kind {
		case Added, Updated:
			return nil // —
		case Removed:
			_, err = s.db.Exec(`DELETE FROM events WHERE id = ?`, id)
			return err
		}
	case Updated:
		switch kind {
		case Added:
			return nil // —
		case Updated:
			_, err = s.db.Exec(`UPDATE events SET mtime = ? WHERE id = ?`, mtime, id)
			return err
		case Removed:
			_, err = s.db.Exec(`UPDATE events SET kind = ?, mtime = ? WHERE id = ?`, Removed, mtime, id)
			return err
		}
	case Removed:
		switch kind {
		case Added:
			return nil // —
		case Updated:
			_, err = s.db.Exec(`UPDATE events SET kind = ?, mtime = ? WHERE id = ?`, Updated, mtime, id)
			return err
		case Removed:
			_, err = s.db.Exec(`UPDATE events SET mtime = ? WHERE id = ?`, mtime, id)
			return err
		}
	}
	return nil
}

// PendingEvent is a cursor-held event that must be explicitly closed to be
// consumed exactly once (spec.md §4.2).
type PendingEvent struct {
	Event
	store *Store
}

// Close deletes this event's log row, completing exactly-once consumption.
func (p *PendingEvent) Close() error {
	_, err := p.store.db.Exec(`DELETE FROM events WHERE id = ?`, p.ID)
	return err
}

// EventCursor streams unconsumed events in ascending id order.
type EventCursor struct {
	store *Store
	rows  *sql.Rows
}

// Events opens a cursor over all unconsumed events, ascending by id.
func (s *Store) Events() (*EventCursor, error) {
	rows, err := s.db.Query(`SELECT id, kind, target, scope, path, mtime FROM events ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return &EventCursor{store: s, rows: rows}, nil
}

// Next returns the next pending event, or nil when exhausted.
func (c *EventCursor) Next() (*PendingEvent, error) {
	if !c.rows.Next() {
		return nil, c.rows.Err()
	}
	var e Event
	if err := c.rows.Scan(&e.ID, &e.Kind, &e.Target, &e.Scope, &e.RelativePath, &e.Mtime); err != nil {
		return nil, err
	}
	return &PendingEvent{Event: e, store: c.store}, nil
}

// Close releases the cursor's underlying rows.
func (c *EventCursor) Close() error { return c.rows.Close() }
