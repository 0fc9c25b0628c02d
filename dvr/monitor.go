package dvr

import (
	"context"
	"time"

	"github.com/paulbellamy/ratecounter"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is the monitor poll period used when Watch is
// given a non-positive interval.
const DefaultPollInterval = 500 * time.Millisecond

// Result is the terminal observation of a monitor. Err is nil when the
// download reached 100 percent, and the context error when the monitor
// was cancelled first.
type Result struct {
	Progress int
	Err      error
}

// Monitor polls a started Download until it completes, fails, or is
// cancelled. It never stops the download; that is left to the owner.
type Monitor struct {
	d        *Download
	interval time.Duration
	fn       func(int)

	progress *atomic.Int64
	rate     *ratecounter.RateCounter

	eg     *errgroup.Group
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// Watch starts a monitor for d. fn, if not nil, is called from the
// monitor goroutine with every successful observation. A download has
// at most one monitor.
func (d *Download) Watch(ctx context.Context, interval time.Duration, fn func(progress int)) (*Monitor, error) {
	d.monLock.Lock()
	defer d.monLock.Unlock()

	if d.watch != nil {
		return nil, ErrMonitorRunning
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	eg, egCtx := errgroup.WithContext(ctx)
	m := &Monitor{
		d:        d,
		interval: interval,
		fn:       fn,
		progress: atomic.NewInt64(0),
		rate:     ratecounter.NewRateCounter(10 * time.Second),
		eg:       eg,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	d.watch = &watch{cancel: cancel, done: m.done}

	eg.Go(func() error {
		return m.run(egCtx)
	})
	go func() {
		m.eg.Wait()
		cancel()
		close(m.done)
	}()
	return m, nil
}

func (m *Monitor) run(ctx context.Context) error {
	t := time.NewTicker(m.interval)
	defer t.Stop()

	for {
		p, err := m.d.Progress()
		if err != nil {
			m.result = Result{Progress: int(m.progress.Load()), Err: err}
			m.d.log.Debugf("monitor: %v", err)
			return nil
		}

		if delta := int64(p) - m.progress.Load(); delta > 0 {
			m.rate.Incr(delta)
		}
		m.progress.Store(int64(p))
		if m.fn != nil {
			m.fn(p)
		}
		if p >= 100 {
			m.result = Result{Progress: p}
			m.d.log.Debug("monitor: complete")
			return nil
		}

		select {
		case <-ctx.Done():
			m.result = Result{Progress: p, Err: ctx.Err()}
			return nil
		case <-t.C:
		}
	}
}

// Done is closed once the monitor has returned.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the monitor returns and reports its terminal
// observation.
func (m *Monitor) Wait() Result {
	<-m.done
	return m.result
}

// Stop cancels the monitor without stopping the download.
func (m *Monitor) Stop() {
	m.cancel()
}

// Progress is the last observed percentage.
func (m *Monitor) Progress() int {
	return int(m.progress.Load())
}

// Rate is the completion rate over the last ten seconds, in percent
// per second.
func (m *Monitor) Rate() float64 {
	return float64(m.rate.Rate()) / 10
}

// ETA estimates the time left from Rate. It reports false while no
// progress has been seen in the rate window.
func (m *Monitor) ETA() (time.Duration, bool) {
	r := m.Rate()
	if r <= 0 {
		return 0, false
	}
	left := float64(100 - m.Progress())
	return time.Duration(left / r * float64(time.Second)), true
}
