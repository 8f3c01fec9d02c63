package models

import (
	"fmt"

	"github.com/google/uuid"
)

// GuestOwnerID is the reserved owner for unauthenticated local-only data.
// Entities owned by the guest sentinel are never enqueued for sync.
const GuestOwnerID = "guest"

// Operation is the kind of mutation recorded in an outbox entry.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Row is an entity as a plain field map, keyed by column name.
// This is the shape that crosses both the local-store and remote-store
// boundaries; typed accessors are a caller concern.
type Row = map[string]any

// Table describes one syncable entity table: its columns, which columns
// hold epoch-ms timestamps, which fields stay local (stripped before
// upload), and which fields are preserved from the existing local row
// when a server row overwrites it.
type Table struct {
	Name         string
	Columns      []string
	TimeColumns  []string
	LocalOnly    []string
	Preserve     []string
	HasDeletedAt bool
}

// Tables lists the syncable tables in their fixed sync order.
// The download engine pages through them in exactly this sequence.
var Tables = []Table{
	{
		Name:         "cameras",
		Columns:      []string{"id", "owner_id", "name", "make", "model", "serial", "notes", "created_at", "updated_at", "deleted_at"},
		TimeColumns:  []string{"created_at", "updated_at", "deleted_at"},
		HasDeletedAt: true,
	},
	{
		Name:         "lenses",
		Columns:      []string{"id", "owner_id", "name", "make", "focal_length", "max_aperture", "notes", "created_at", "updated_at", "deleted_at"},
		TimeColumns:  []string{"created_at", "updated_at", "deleted_at"},
		HasDeletedAt: true,
	},
	{
		Name:         "films",
		Columns:      []string{"id", "owner_id", "name", "make", "iso", "format", "process", "created_at", "updated_at", "deleted_at"},
		TimeColumns:  []string{"created_at", "updated_at", "deleted_at"},
		HasDeletedAt: true,
	},
	{
		Name:         "rolls",
		Columns:      []string{"id", "owner_id", "camera_id", "film_id", "name", "notes", "started_at", "finished_at", "created_at", "updated_at", "deleted_at"},
		TimeColumns:  []string{"started_at", "finished_at", "created_at", "updated_at", "deleted_at"},
		HasDeletedAt: true,
	},
	{
		Name:        "frames",
		Columns:     []string{"id", "owner_id", "roll_id", "lens_id", "frame_no", "shutter_speed", "aperture", "focal_length", "notes", "taken_at", "thumbnail", "thumbnail_url", "created_at", "updated_at"},
		TimeColumns: []string{"taken_at", "created_at", "updated_at"},
		// deleted_at has no column on frames; it stays in the strip set so a
		// server payload carrying one never lands locally. Delete propagation
		// for frames is an open product question.
		LocalOnly: []string{"thumbnail", "deleted_at"},
		Preserve:  []string{"thumbnail"},
	},
}

// TableByName returns the descriptor for a syncable table.
func TableByName(name string) (Table, error) {
	for _, t := range Tables {
		if t.Name == name {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("unknown table %q", name)
}

// HasColumn reports whether the table declares the given column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// IsLocalOnly reports whether a field must be stripped before upload.
func (t Table) IsLocalOnly(name string) bool {
	for _, c := range t.LocalOnly {
		if c == name {
			return true
		}
	}
	return false
}

// IsTimeColumn reports whether a column holds an epoch-ms timestamp.
func (t Table) IsTimeColumn(name string) bool {
	for _, c := range t.TimeColumns {
		if c == name {
			return true
		}
	}
	return false
}

// NewID returns a new creation-time-sortable entity id (UUIDv7).
// Falls back to a random UUIDv4 if the clock source misbehaves.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// OwnerOf extracts the owner reference from a row. Rows with no owner
// field are treated as guest-owned and stay local.
func OwnerOf(row Row) string {
	if v, ok := row["owner_id"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return GuestOwnerID
}
