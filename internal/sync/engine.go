// Package sync implements the bidirectional synchronization engine: the
// outbox-draining upload cycle, the watermark-driven download cycle, and
// the server-wins conflict policy between them.
package sync

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marcus/filmlog/internal/db"
)

const (
	// DefaultTimeout bounds every remote call.
	DefaultTimeout = 30 * time.Second

	// uploadBatchSize caps entity ids per upsert call.
	uploadBatchSize = 200

	// downloadPageSize is the remote page size; a short page ends pagination.
	downloadPageSize = 1000
)

// Sentinel errors for the engine's failure classes.
var (
	ErrTimeout      = errors.New("remote call timed out")
	ErrCycleRunning = errors.New("sync cycle already running")

	errMissingID = errors.New("server row has no id")
)

// RemoteStore is the relational remote the engine reconciles against.
// Rows are plain field maps; timestamps cross this boundary as ISO-8601
// strings.
type RemoteStore interface {
	// Upsert writes rows keyed by entity id.
	Upsert(table string, rows []map[string]any) error
	// Select pages rows with updated_at > since (all rows when since is
	// empty), ordered ascending by updated_at.
	Select(table, since string, offset, limit int) ([]map[string]any, error)
}

// Engine owns both sync cycles. Cycles are single-flight: a second
// concurrent call of the same cycle returns ErrCycleRunning instead of
// interleaving outbox bookkeeping.
type Engine struct {
	store   *db.DB
	remote  RemoteStore
	timeout time.Duration
	now     func() time.Time

	uploadMu   sync.Mutex
	downloadMu sync.Mutex
}

// New creates an engine over the local store and a remote.
func New(store *db.DB, remote RemoteStore) *Engine {
	return &Engine{
		store:   store,
		remote:  remote,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
}

// SetTimeout overrides the remote call timeout. Test hook.
func (e *Engine) SetTimeout(d time.Duration) { e.timeout = d }

// SetClock overrides the clock source. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// QueueStats returns the not-yet-synced and parked-failed entry counts.
func (e *Engine) QueueStats() (pending, failed int64, err error) {
	return e.store.QueueStats()
}

// RetryFailed resets every failed entry for another round of attempts.
func (e *Engine) RetryFailed() (int64, error) {
	return e.store.RetryFailed()
}

// ClearFailed discards every failed entry.
func (e *Engine) ClearFailed() (int64, error) {
	return e.store.ClearFailed()
}

// callWithTimeout races fn against the engine timeout. There is no
// cancellation threading: a hung call simply loses the race and the
// caller treats it as a transport failure.
func (e *Engine) callWithTimeout(op string, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-time.After(e.timeout):
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
}
