package scope

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
)

// Entry is one element of a scope collection as received on the wire: either a
// bare string or a structured row.
type Entry struct {
	Text *string
	Row  *models.SchemeScopeRow
}

// Entries accepts `["C1","C2"]` as well as `[{"customer":"C1"}]` and mixes of both.
type Entries []Entry

func (e *Entries) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("scope entries must be an array: %w", err)
	}
	out := make(Entries, 0, len(raw))
	for i, item := range raw {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			continue
		}
		switch trimmed[0] {
		case '"':
			var text string
			if err := json.Unmarshal(trimmed, &text); err != nil {
				return fmt.Errorf("scope entry %d: %w", i, err)
			}
			out = append(out, Entry{Text: &text})
		case '{':
			var row models.SchemeScopeRow
			if err := json.Unmarshal(trimmed, &row); err != nil {
				return fmt.Errorf("scope entry %d: %w", i, err)
			}
			out = append(out, Entry{Row: &row})
		default:
			return fmt.Errorf("scope entry %d must be a string or an object", i)
		}
	}
	*e = out
	return nil
}

func (e Entries) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(e))
	for _, entry := range e {
		switch {
		case entry.Text != nil:
			out = append(out, *entry.Text)
		case entry.Row != nil:
			out = append(out, entry.Row)
		}
	}
	return json.Marshal(out)
}

// Rows normalizes the entries into scope rows of the given collection. Bare
// strings land in the collection's primary field; empty entries are dropped.
func (e Entries) Rows(collection enums.ScopeCollection) []models.SchemeScopeRow {
	return defaultMapping.Rows(e, collection)
}

// Rows normalizes entries with this mapping.
func (m *Mapping) Rows(entries Entries, collection enums.ScopeCollection) []models.SchemeScopeRow {
	rows := make([]models.SchemeScopeRow, 0, len(entries))
	for _, entry := range entries {
		var row models.SchemeScopeRow
		switch {
		case entry.Text != nil:
			if trimmed(entry.Text) == "" {
				continue
			}
			setField(&row, m.PrimaryField(collection), trimmed(entry.Text))
		case entry.Row != nil:
			row = *entry.Row
		default:
			continue
		}
		row.Collection = collection
		if _, ok := m.RowValue(row, collection); !ok {
			continue
		}
		row.Idx = len(rows) + 1
		rows = append(rows, row)
	}
	return rows
}

// FromRows renders persisted rows back into wire entries, grouped by collection.
func FromRows(rows []models.SchemeScopeRow) map[enums.ScopeCollection]Entries {
	out := make(map[enums.ScopeCollection]Entries)
	for i := range rows {
		row := rows[i]
		out[row.Collection] = append(out[row.Collection], Entry{Row: &row})
	}
	return out
}
