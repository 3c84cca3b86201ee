package ledger

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Clock abstracts the wall clock so rollover behavior is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Watcher polls the clock on a fixed interval and announces the new day
// key on C whenever the date rolls over. The owner drains C and resets any
// in-memory edit state; the watcher never touches shared state itself.
type Watcher struct {
	manager  *Manager
	interval time.Duration

	C chan string

	prevKey  string
	stopChan chan struct{}
}

func NewWatcher(manager *Manager, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		manager:  manager,
		interval: interval,
		C:        make(chan string, 1),
		stopChan: make(chan struct{}),
	}
}

// Start begins polling from the current date.
func (w *Watcher) Start() {
	w.prevKey = w.manager.CurrentKey()
	go w.run()
}

func (w *Watcher) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) tick() {
	newKey, err := w.manager.RolloverIfNeeded(w.prevKey)
	if err != nil {
		log.Error().Err(err).Msg("rollover check failed")
		return
	}
	if newKey == "" {
		return
	}
	w.prevKey = newKey
	// Replace an undrained previous signal so the channel always holds
	// the most recent key. Only this goroutine sends, so the buffered
	// send after the drain cannot block.
	select {
	case <-w.C:
	default:
	}
	w.C <- newKey
}

func (w *Watcher) Stop() {
	close(w.stopChan)
}
