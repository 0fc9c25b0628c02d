package dvr

import (
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// State is the lifecycle position of a Download.
type State int

const (
	StateCreated State = iota
	StateStarted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Download is a time-ranged recording transfer opened by
// Session.GetFileByTime. It does not reference the Session, so it may
// outlive a logout; the device then fails the transfer.
//
// Start, Progress and Stop may be called from different goroutines. A
// Download that becomes unreachable is closed by a finalizer; a running
// monitor keeps it reachable until the monitor returns.
type Download struct {
	native Native
	handle int32
	log    *logrus.Entry
	obs    Observer

	// mu serialises native calls on handle.
	mu       sync.Mutex
	started  *atomic.Bool
	stopped  *atomic.Bool
	released *atomic.Bool

	// watch holds only the monitor's cancel and done; d must not be on
	// a cycle through its Monitor or the finalizer never runs.
	monLock sync.Mutex
	watch   *watch
}

type watch struct {
	cancel func()
	done   <-chan struct{}
}

func newDownload(n Native, handle int32, o options) *Download {
	d := &Download{
		native:   n,
		handle:   handle,
		log:      o.log.WithField("transfer", handle),
		obs:      o.obs,
		started:  atomic.NewBool(false),
		stopped:  atomic.NewBool(false),
		released: atomic.NewBool(false),
	}
	runtime.SetFinalizer(d, (*Download).release)
	return d
}

func (d *Download) release() {
	if !d.released.Load() {
		d.log.Warning("transfer released without Close")
	}
	d.Close()
}

// Handle returns the native transfer handle.
func (d *Download) Handle() int32 {
	return d.handle
}

func (d *Download) State() State {
	switch {
	case d.stopped.Load():
		return StateStopped
	case d.started.Load():
		return StateStarted
	}
	return StateCreated
}

// Start begins the transfer. Starting a started download does nothing;
// starting a stopped one fails with ErrStopped.
func (d *Download) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped.Load() {
		return ErrStopped
	}
	if d.started.Load() {
		return nil
	}
	if !d.native.PlayBackControl(d.handle, CtrlPlayStart) {
		return classify(d.native, OpPlaybackControl)
	}
	d.started.Store(true)
	d.log.Debug("started")
	return nil
}

// Progress returns the completion percentage in [0, 100].
func (d *Download) Progress() (int, error) {
	if !d.started.Load() {
		return 0, ErrNotStarted
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Stop may have run while we waited for the lock.
	if !d.started.Load() {
		return 0, ErrNotStarted
	}

	pos := d.native.GetDownloadPos(d.handle)
	switch {
	case pos >= 0 && pos <= 100:
		return int(pos), nil
	case pos == posFailed:
		return 0, classify(d.native, OpProgress)
	case pos == posNetworkError:
		return 0, ErrNetwork
	}
	return 0, &ProgressError{Pos: pos}
}

// Stop ends the transfer and releases the native handle. The download
// counts as stopped even if the native call fails; a later Stop then
// retries the release. Once released, Stop does nothing.
func (d *Download) Stop() error {
	d.started.Store(false)
	d.stopped.Store(true)

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.released.CAS(false, true) {
		return nil
	}
	if !d.native.StopGetFile(d.handle) {
		d.released.Store(false)
		return classify(d.native, OpStopTransfer)
	}
	d.log.Debug("stopped")
	return nil
}

// Close stops the transfer and waits for any monitor to return. Stop
// failures go to the observer. Close may be called repeatedly.
func (d *Download) Close() {
	if err := d.Stop(); err != nil {
		d.obs.Swallowed(OpStopTransfer, err)
	}

	d.monLock.Lock()
	w := d.watch
	d.monLock.Unlock()

	if w != nil {
		w.cancel()
		<-w.done
	}
}
