package payments

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/proofboard/proofboard/app/models"
	"github.com/proofboard/proofboard/internal/pkg/recordstore"
)

const writerQueueSize = 64

// Writer pushes payment records to the durable record store off the webhook
// request path. The provider's acknowledgment must never wait on a slow
// backend, so writes are queued and failures are logged, not surfaced.
type Writer struct {
	store   recordstore.Store
	jobs    chan models.PaymentRecord
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	failures uint64
}

// NewWriter creates a writer for the given store. A nil store yields a
// writer whose Enqueue is a no-op.
func NewWriter(store recordstore.Store) *Writer {
	return &Writer{
		store:  store,
		jobs:   make(chan models.PaymentRecord, writerQueueSize),
		stopCh: make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (w *Writer) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running || w.store == nil {
		return
	}
	w.running = true

	log.Infof("[PersistWriter] Starting, backend=%s", w.store.Name())
	w.wg.Add(1)
	go w.worker()
}

// Stop drains queued writes and stops the worker.
func (w *Writer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	w.wg.Wait()
	log.Info("[PersistWriter] Stopped")
}

// Enqueue hands a record to the worker. When the queue is full the write is
// dropped with a warning; there is no dead-letter handling here.
func (w *Writer) Enqueue(p models.PaymentRecord) {
	if w.store == nil {
		return
	}
	select {
	case w.jobs <- p:
	default:
		w.mu.Lock()
		w.failures++
		w.mu.Unlock()
		log.Warnf("[PersistWriter] Queue full, dropping write for payment %s", p.ID)
	}
}

// Failures reports how many writes were dropped or failed since start.
func (w *Writer) Failures() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failures
}

func (w *Writer) worker() {
	defer w.wg.Done()
	for {
		select {
		case p := <-w.jobs:
			w.persist(p)
		case <-w.stopCh:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case p := <-w.jobs:
					w.persist(p)
				default:
					return
				}
			}
		}
	}
}

func (w *Writer) persist(p models.PaymentRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := w.store.Create(ctx, p); err != nil {
		w.mu.Lock()
		w.failures++
		w.mu.Unlock()
		log.Errorf("[PersistWriter] Failed to persist payment %s to %s: %v", p.ID, w.store.Name(), err)
		return
	}
	log.Infof("[PersistWriter] Persisted payment %s to %s", p.ID, w.store.Name())
}
