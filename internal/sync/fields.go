package sync

import (
	"fmt"
	"log/slog"

	"github.com/marcus/filmlog/internal/models"
)

// toWire converts a fresh local snapshot into the remote representation:
// local-only fields are stripped per the table descriptor and epoch-ms
// timestamps become ISO-8601 strings. The input row is not modified.
func toWire(table models.Table, row models.Row) models.Row {
	wire := make(models.Row, len(row))
	for k, v := range row {
		if table.IsLocalOnly(k) {
			continue
		}
		if table.IsTimeColumn(k) && v != nil {
			ms, ok := asMillis(v)
			if !ok {
				slog.Warn("upload: non-numeric timestamp, dropping field",
					"table", table.Name, "field", k)
				continue
			}
			wire[k] = ToISO(ms)
			continue
		}
		wire[k] = v
	}
	return wire
}

// fromWire converts a downloaded server row into local shape: only
// declared columns survive, and ISO timestamps become epoch-ms.
func fromWire(table models.Table, serverRow map[string]any) (models.Row, error) {
	row := make(models.Row, len(table.Columns))
	for _, col := range table.Columns {
		v, ok := serverRow[col]
		if !ok || v == nil {
			continue
		}
		if table.IsTimeColumn(col) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("column %s.%s: expected ISO string, got %T", table.Name, col, v)
			}
			ms, err := FromISO(s)
			if err != nil {
				return nil, fmt.Errorf("column %s.%s: %w", table.Name, col, err)
			}
			row[col] = ms
			continue
		}
		row[col] = v
	}
	return row, nil
}

// asMillis coerces the numeric types SQLite and JSON decoding produce.
func asMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
