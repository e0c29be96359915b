package background

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Background runs fire-and-forget tasks on goroutines that the server
// waits for on shutdown.
type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

func (b *Background) Add(task func() error) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		defer func() {
			if rec := recover(); rec != nil {
				b.log.Errorf("background task panicked: %v", rec)
			}
		}()

		if err := task(); err != nil {
			b.log.Errorf("background task failed: %v", err)
		}
	}()
}

// Shutdown blocks until every running task returns or the context expires.
func (b *Background) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
