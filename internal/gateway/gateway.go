// Package gateway is the write-through mutation path for synced
// entities. Every local change lands in the store synchronously and,
// unless the row is guest-owned, leaves a matching outbox entry behind.
// Nothing else is allowed to mutate synced rows.
package gateway

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus/filmlog/internal/db"
	"github.com/marcus/filmlog/internal/models"
)

// Gateway applies local mutations and conditionally enqueues them.
type Gateway struct {
	store *db.DB
	now   func() time.Time
}

// New creates a gateway over the local store.
func New(store *db.DB) *Gateway {
	return &Gateway{store: store, now: time.Now}
}

// SetClock overrides the clock source. Test hook.
func (g *Gateway) SetClock(now func() time.Time) {
	g.now = now
}

// Put writes a full entity row. Missing id, created_at and updated_at
// are filled in; an outbox entry is appended unless the owner is the
// guest sentinel. Local write failure is fatal to the caller.
func (g *Gateway) Put(tableName string, row models.Row) (models.Row, error) {
	table, err := models.TableByName(tableName)
	if err != nil {
		return nil, err
	}

	nowMs := g.now().UnixMilli()
	op := models.OpUpdate

	id, _ := row["id"].(string)
	if id == "" {
		id = models.NewID()
		row["id"] = id
	}
	existing, err := g.store.Get(table, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		op = models.OpCreate
		if row["created_at"] == nil {
			row["created_at"] = nowMs
		}
	} else {
		// A full-row put usually arrives without these; they survive from
		// the stored row rather than getting nulled out.
		if row["created_at"] == nil {
			row["created_at"] = existing["created_at"]
		}
		for _, f := range table.Preserve {
			if row[f] == nil && existing[f] != nil {
				row[f] = existing[f]
			}
		}
	}
	row["updated_at"] = nowMs

	if err := g.store.Put(table, row); err != nil {
		return nil, fmt.Errorf("local write: %w", err)
	}

	if err := g.enqueue(table, row, op); err != nil {
		return nil, err
	}
	return row, nil
}

// Patch applies a partial change to an existing entity.
func (g *Gateway) Patch(tableName, id string, changes models.Row) (models.Row, error) {
	table, err := models.TableByName(tableName)
	if err != nil {
		return nil, err
	}

	row, err := g.store.Get(table, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("patch %s/%s: not found", tableName, id)
	}

	for k, v := range changes {
		if !table.HasColumn(k) {
			return nil, fmt.Errorf("patch %s: unknown field %q", tableName, k)
		}
		row[k] = v
	}
	row["updated_at"] = g.now().UnixMilli()

	if err := g.store.Put(table, row); err != nil {
		return nil, fmt.Errorf("local write: %w", err)
	}

	if err := g.enqueue(table, row, models.OpUpdate); err != nil {
		return nil, err
	}
	return row, nil
}

// Delete soft-deletes an entity by stamping its tombstone. Tables
// without a tombstone column (frames) cannot be deleted through sync.
func (g *Gateway) Delete(tableName, id string) error {
	table, err := models.TableByName(tableName)
	if err != nil {
		return err
	}
	if !table.HasDeletedAt {
		return fmt.Errorf("delete %s: table has no tombstone column", tableName)
	}

	row, err := g.store.Get(table, id)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("delete %s/%s: not found", tableName, id)
	}

	nowMs := g.now().UnixMilli()
	row["deleted_at"] = nowMs
	row["updated_at"] = nowMs

	if err := g.store.Put(table, row); err != nil {
		return fmt.Errorf("local write: %w", err)
	}
	return g.enqueue(table, row, models.OpDelete)
}

func (g *Gateway) enqueue(table models.Table, row models.Row, op models.Operation) error {
	owner := models.OwnerOf(row)
	if owner == models.GuestOwnerID {
		slog.Debug("gateway: guest-owned, staying local", "table", table.Name, "id", row["id"])
		return nil
	}
	id, _ := row["id"].(string)
	if err := g.store.AppendOutbox(table.Name, id, op); err != nil {
		return fmt.Errorf("enqueue outbox: %w", err)
	}
	return nil
}
