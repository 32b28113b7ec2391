package state

import (
	"context"
	"time"

	"github.com/grovetools/seqrkit/logging"
	"github.com/grovetools/seqrkit/pkg/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Persister writes one store slice to its snapshot whenever it changes, at
// most once per interval. Changes inside an interval are coalesced and the
// latest value is written when the interval ends.
type Persister struct {
	dir     *Dir
	label   string
	slice   string
	limiter *rate.Limiter
	logger  *logrus.Entry
}

// NewPersister creates a persister for slice saved under label.
func NewPersister(dir *Dir, label, slice string, interval time.Duration) *Persister {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Persister{
		dir:     dir,
		label:   label,
		slice:   slice,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logging.NewLogger("persister").WithFields(logrus.Fields{"label": label, "slice": slice}),
	}
}

// Run consumes updates until ctx is done or the channel closes, then writes
// any value still waiting.
func (p *Persister) Run(ctx context.Context, updates <-chan store.Update) {
	var (
		pending    interface{}
		hasPending bool
		timer      *time.Timer
		flush      <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if hasPending {
			p.write(pending)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if !changed(u, p.slice) {
				continue
			}
			value := u.State[p.slice]
			if flush == nil && p.limiter.Allow() {
				p.write(value)
				continue
			}
			pending, hasPending = value, true
			if flush == nil {
				timer = time.NewTimer(p.limiter.Reserve().Delay())
				flush = timer.C
			}
		case <-flush:
			flush, timer = nil, nil
			if hasPending {
				p.write(pending)
				pending, hasPending = nil, false
			}
		}
	}
}

// write saves value. Failures are logged and dropped.
func (p *Persister) write(value interface{}) {
	if err := p.dir.Save(p.label, value); err != nil {
		p.logger.WithError(err).Debug("snapshot write failed")
		return
	}
	p.logger.Debug("snapshot written")
}

func changed(u store.Update, slice string) bool {
	for _, name := range u.Changed {
		if name == slice {
			return true
		}
	}
	return false
}
