package gsm

import "context"

// Table is an in-memory Lookup, loaded once at startup or hand-built in tests.
type Table struct {
	entries map[tableKey]Entry
}

type tableKey struct {
	connector, flow, code, message string
}

func NewTable(entries []Entry) *Table {
	t := &Table{entries: make(map[tableKey]Entry, len(entries))}
	for _, e := range entries {
		t.entries[tableKey{e.Connector, e.Flow, e.Code, e.Message}] = e
	}
	return t
}

func (t *Table) Find(ctx context.Context, connector, flow, code, message string) (Entry, bool, error) {
	_ = ctx
	e, ok := t.entries[tableKey{connector, flow, code, message}]
	return e, ok, nil
}

// LoadTable snapshots the database rows into a Table. Used by the worker,
// which prefers one read at boot over a query per failed dispatch.
func LoadTable(ctx context.Context, r *Repo) (*Table, error) {
	var rows []Row
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			Connector:      row.Connector,
			Flow:           row.Flow,
			Code:           row.Code,
			Message:        row.Message,
			UnifiedCode:    row.UnifiedCode,
			UnifiedMessage: row.UnifiedMessage,
		})
	}
	return NewTable(entries), nil
}
