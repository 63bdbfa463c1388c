package novelbit

import (
	"context"
	"sync"
	"sync/atomic"
)

type AutosaveInput struct {
	AttributePath string
	Text          string
	Metadata      map[string]any
}

// AutosaveManager saves in the background. Enqueue never blocks; input is
// dropped when the queue is full or the manager is shut down.
type AutosaveManager struct {
	n         *Novelbit
	startOnce sync.Once
	queue     chan AutosaveInput
	workers   int
	wg        sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

func NewAutosaveManager(n *Novelbit) *AutosaveManager {
	workers, size := n.Config.Autosave.Workers, n.Config.Autosave.Queue
	if workers <= 0 {
		workers = 1
	}
	if size < 0 {
		size = 0
	}
	return &AutosaveManager{
		n:       n,
		queue:   make(chan AutosaveInput, size),
		workers: workers,
	}
}

func (m *AutosaveManager) Start() {
	m.startOnce.Do(func() {
		for i := 0; i < m.workers; i++ {
			m.wg.Add(1)
			go m.worker()
		}
	})
}

// Enqueue reports whether input was accepted.
func (m *AutosaveManager) Enqueue(input AutosaveInput) bool {
	if input.AttributePath == "" || input.Text == "" {
		return false
	}
	m.Start()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false
	}
	select {
	case m.queue <- input:
		return true
	default:
		m.dropped.Add(1)
		m.n.logger.Warn("autosave queue full, dropping", "attribute", input.AttributePath)
		return false
	}
}

// Dropped is the number of inputs rejected because the queue was full.
func (m *AutosaveManager) Dropped() int64 {
	return m.dropped.Load()
}

func (m *AutosaveManager) worker() {
	defer m.wg.Done()
	for in := range m.queue {
		m.process(in)
	}
}

func (m *AutosaveManager) process(in AutosaveInput) {
	_, err := m.n.SaveText(context.Background(), in.AttributePath, in.Text, in.Metadata)
	if err != nil {
		m.n.logger.Error("autosave failed", "attribute", in.AttributePath, "error", err)
	}
}

// Shutdown stops accepting input and waits for queued saves to finish or
// ctx to expire.
func (m *AutosaveManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()

	// workers may never have started
	m.Start()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
