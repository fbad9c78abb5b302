package cleanup

import (
	"errors"
	"fmt"
	"sync"

	nuts "github.com/vaudience/go-nuts"
)

type closer struct {
	name string
	fn   func() error
}

// CleanupService releases hardware, broker and cache connections in reverse
// registration order. Shutdown runs at most once.
type CleanupService struct {
	mu      sync.Mutex
	closers []closer
	once    sync.Once
	done    chan struct{}
	err     error
	events  *nuts.EventEmitter
}

// New creates a new CleanupService
func New() *CleanupService {
	return &CleanupService{
		done:   make(chan struct{}),
		events: nuts.NewEventEmitter(),
	}
}

// Register adds a resource to release on shutdown. The event
// "<name>.closed" is emitted once it has been released.
func (s *CleanupService) Register(name string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, closer{name: name, fn: fn})
}

// Shutdown closes every registered resource, newest first. Concurrent and
// later calls wait for the first one and return its result.
func (s *CleanupService) Shutdown() error {
	s.once.Do(func() {
		defer close(s.done)
		s.err = s.closeAll()
	})
	<-s.done
	return s.err
}

func (s *CleanupService) closeAll() error {
	s.mu.Lock()
	closers := s.closers
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(); err != nil {
			nuts.L.Errorf("[Cleanup] Closing %s failed: %v", c.name, err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		nuts.L.Infof("[Cleanup] %s closed", c.name)
		if err := s.events.Emit(c.name+".closed", c.name); err != nil {
			nuts.L.Warnf("[Cleanup] Emitting %s.closed failed: %v", c.name, err)
		}
	}
	return errors.Join(errs...)
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(name string)) {
	s.events.On(event, nuts.NID("ch", 10), func(name string) {
		handler(name)
	})
}
