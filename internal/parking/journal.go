package parking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/smart-parking/internal/model"
)

// ErrJournalClosed is returned by Flush once the journal writer has been
// closed.
var ErrJournalClosed = errors.New("journal closed")

const journalWriteTimeout = 5 * time.Second

// changeSink receives committed changes.  It is called while the lock that
// serialized the change is still held, so calls arrive in commit order and
// must never block.
type changeSink interface {
	inventoryReplaced(slots []model.Slot)
	slotChanged(s model.Slot)
	vehicleChanged(v model.Vehicle)
	sessionChanged(s model.Session)
}

type journalOp struct {
	name  string
	apply func(ctx context.Context, j Journal) error
}

// journalWriter applies changes to a Journal one at a time in the order
// they were enqueued.  A write that is slow or blocked holds back every
// later write, so storage never sees a newer state overwritten by an
// older one.
type journalWriter struct {
	journal Journal
	failed  func(op string, err error)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []journalOp
	closed bool
	done   chan struct{}
}

func newJournalWriter(j Journal, failed func(op string, err error)) *journalWriter {
	w := &journalWriter{
		journal: j,
		failed:  failed,
		done:    make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

func (w *journalWriter) inventoryReplaced(slots []model.Slot) {
	cp := make([]model.Slot, len(slots))
	copy(cp, slots)
	w.enqueue(journalOp{name: "save_inventory", apply: func(ctx context.Context, j Journal) error {
		return j.SaveInventory(ctx, cp)
	}})
}

func (w *journalWriter) slotChanged(s model.Slot) {
	w.enqueue(journalOp{name: "save_slot", apply: func(ctx context.Context, j Journal) error {
		return j.SaveSlot(ctx, s)
	}})
}

func (w *journalWriter) vehicleChanged(v model.Vehicle) {
	w.enqueue(journalOp{name: "save_vehicle", apply: func(ctx context.Context, j Journal) error {
		return j.SaveVehicle(ctx, v)
	}})
}

func (w *journalWriter) sessionChanged(s model.Session) {
	w.enqueue(journalOp{name: "save_session", apply: func(ctx context.Context, j Journal) error {
		return j.SaveSession(ctx, s)
	}})
}

func (w *journalWriter) enqueue(op journalOp) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.queue = append(w.queue, op)
	w.cond.Signal()
	return true
}

func (w *journalWriter) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return
		}
		op := w.queue[0]
		w.queue[0] = journalOp{}
		w.queue = w.queue[1:]
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		err := op.apply(ctx, w.journal)
		cancel()
		if err != nil && w.failed != nil {
			w.failed(op.name, err)
		}
	}
}

// flush waits until every change enqueued before the call has been
// applied.
func (w *journalWriter) flush(ctx context.Context) error {
	reached := make(chan struct{})
	ok := w.enqueue(journalOp{name: "flush", apply: func(context.Context, Journal) error {
		close(reached)
		return nil
	}})
	if !ok {
		return ErrJournalClosed
	}
	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting changes and waits for the queue to drain.
func (w *journalWriter) close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
