package dvr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func openDownload(t *testing.T, f *fakeNative, opts ...Option) *Download {
	t.Helper()
	s := loggedIn(t, f, opts...)
	d, err := s.GetFileByTime("rec.dav", 1, time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("GetFileByTime: %v", err)
	}
	return d
}

func TestProgressBeforeStart(t *testing.T) {
	f := newFakeNative()
	d := openDownload(t, f)

	if _, err := d.Progress(); err != ErrNotStarted {
		t.Fatalf("got %v, want ErrNotStarted", err)
	}
	if n := f.countCalls("GetDownloadPos"); n != 0 {
		t.Errorf("GetDownloadPos called %d times", n)
	}
}

func TestStartFailure(t *testing.T) {
	f := newFakeNative()
	f.playOK = false
	f.lastErr = EC_PlayFail
	d := openDownload(t, f)

	err := d.Start()
	if !IsNative(err, OpPlaybackControl) {
		t.Fatalf("got %v", err)
	}
	if d.State() != StateCreated {
		t.Errorf("state %v", d.State())
	}

	f.set(func(f *fakeNative) { f.playOK = true })
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if n := f.countCalls("PlayBackControl 3 1"); n != 2 {
		t.Errorf("PlayBackControl called %d times, want 2", n)
	}
	if d.State() != StateStarted {
		t.Errorf("state %v", d.State())
	}
}

func TestProgressClassification(t *testing.T) {
	f := newFakeNative()
	f.lastErr = EC_NetworkRecvTimeout
	f.positions = []int32{0, 42, 100, -1, 200, 101, -7}
	d := openDownload(t, f)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for _, want := range []int{0, 42, 100} {
		got, err := d.Progress()
		if err != nil || got != want {
			t.Errorf("got %d, %v want %d", got, err, want)
		}
	}

	_, err := d.Progress()
	if !errors.Is(err, ErrProgressQueryFailed) || !IsNative(err, OpProgress) {
		t.Errorf("-1: got %v", err)
	}
	if code, _ := CodeOf(err); code != EC_NetworkRecvTimeout {
		t.Errorf("-1: code %d", code)
	}
	if f.lastErrCalls != 1 {
		t.Errorf("LastError called %d times", f.lastErrCalls)
	}

	if _, err := d.Progress(); err != ErrNetwork {
		t.Errorf("200: got %v, want ErrNetwork", err)
	}

	for _, pos := range []int32{101, -7} {
		_, err := d.Progress()
		var pe *ProgressError
		if !errors.As(err, &pe) || pe.Pos != pos {
			t.Errorf("%d: got %v", pos, err)
		}
		if !errors.Is(err, ErrProgressQueryFailed) {
			t.Errorf("%d: not ErrProgressQueryFailed", pos)
		}
	}
	if f.lastErrCalls != 1 {
		t.Errorf("LastError called %d times", f.lastErrCalls)
	}
}

func TestStopIdempotent(t *testing.T) {
	f := newFakeNative()
	d := openDownload(t, f)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := d.Stop(); err != nil {
			t.Fatalf("Stop %d: %v", i, err)
		}
	}
	if f.stopCalls != 1 {
		t.Errorf("StopGetFile called %d times", f.stopCalls)
	}
	if d.State() != StateStopped {
		t.Errorf("state %v", d.State())
	}
	if _, err := d.Progress(); err != ErrNotStarted {
		t.Errorf("Progress after Stop: %v", err)
	}
	if err := d.Start(); err != ErrStopped {
		t.Errorf("Start after Stop: %v", err)
	}
}

func TestStopBeforeStart(t *testing.T) {
	f := newFakeNative()
	d := openDownload(t, f)

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if f.stopCalls != 1 || d.State() != StateStopped {
		t.Errorf("stop calls %d state %v", f.stopCalls, d.State())
	}
}

func TestStopFailure(t *testing.T) {
	f := newFakeNative()
	f.stopOK = false
	f.lastErr = EC_NetworkSendError
	d := openDownload(t, f)
	d.Start()

	err := d.Stop()
	if !IsNative(err, OpStopTransfer) {
		t.Fatalf("got %v", err)
	}
	if d.State() != StateStopped {
		t.Errorf("state %v", d.State())
	}

	f.set(func(f *fakeNative) { f.stopOK = true })
	if err := d.Stop(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Fatalf("after release: %v", err)
	}
	if f.stopCalls != 2 {
		t.Errorf("StopGetFile called %d times, want 2", f.stopCalls)
	}
}

func TestCloseReportsStopFailure(t *testing.T) {
	f := newFakeNative()
	f.stopOK = false
	obs := &swallowed{}
	d := openDownload(t, f, WithObserver(obs))
	d.Start()

	d.Close()
	if obs.len() != 1 || obs.ops[0] != OpStopTransfer {
		t.Errorf("observer got %v", obs.ops)
	}
}

func TestConcurrentStop(t *testing.T) {
	f := newFakeNative()
	f.positions = []int32{10}
	d := openDownload(t, f)
	d.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.Progress()
		}()
		go func() {
			defer wg.Done()
			d.Stop()
		}()
	}
	wg.Wait()

	if f.stopCalls != 1 {
		t.Errorf("StopGetFile called %d times", f.stopCalls)
	}
	calls := f.Calls()
	stopped := false
	for _, c := range calls {
		if c == "StopGetFile 3" {
			stopped = true
		} else if stopped && c == "GetDownloadPos 3" {
			t.Fatalf("progress queried after release: %v", calls)
		}
	}
}

func TestMonitorComplete(t *testing.T) {
	f := newFakeNative()
	f.positions = []int32{0, 30, 60, 100}
	d := openDownload(t, f)
	d.Start()

	var mu sync.Mutex
	var seen []int
	m, err := d.Watch(context.Background(), time.Millisecond, func(p int) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, p)
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	res := m.Wait()
	if res.Err != nil || res.Progress != 100 {
		t.Errorf("result %+v", res)
	}
	mu.Lock()
	if len(seen) != 4 || seen[3] != 100 {
		t.Errorf("seen %v", seen)
	}
	mu.Unlock()

	if f.stopCalls != 0 {
		t.Error("monitor stopped the download")
	}
	if d.State() != StateStarted {
		t.Errorf("state %v", d.State())
	}
	if m.Progress() != 100 {
		t.Errorf("Progress %d", m.Progress())
	}

	if _, err := d.Watch(context.Background(), 0, nil); err != ErrMonitorRunning {
		t.Errorf("second Watch: %v", err)
	}
}

func TestMonitorError(t *testing.T) {
	f := newFakeNative()
	f.positions = []int32{20, 200}
	d := openDownload(t, f)
	d.Start()

	m, err := d.Watch(context.Background(), time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	select {
	case <-m.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not finish")
	}
	res := m.Wait()
	if res.Err != ErrNetwork || res.Progress != 20 {
		t.Errorf("result %+v", res)
	}
}

func TestCloseJoinsMonitor(t *testing.T) {
	f := newFakeNative()
	f.positions = []int32{50}
	d := openDownload(t, f)
	d.Start()

	m, err := d.Watch(context.Background(), time.Hour, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	d.Close()
	select {
	case <-m.Done():
	default:
		t.Fatal("Close returned before the monitor")
	}
	if res := m.Wait(); res.Err == nil {
		t.Errorf("result %+v", res)
	}
	if f.stopCalls != 1 {
		t.Errorf("StopGetFile called %d times", f.stopCalls)
	}

	d.Close()
	if f.stopCalls != 1 {
		t.Errorf("StopGetFile called %d times after second Close", f.stopCalls)
	}
}

func TestDroppedDownloadStops(t *testing.T) {
	f := newFakeNative()
	obs := &swallowed{}
	func() {
		d := openDownload(t, f, WithObserver(obs))
		if err := d.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
	}()

	if !collect(func() bool { return f.countCalls("StopGetFile") > 0 }) {
		t.Fatal("dropped download was not stopped")
	}
	if n := f.countCalls("StopGetFile 3"); n != 1 {
		t.Errorf("StopGetFile called %d times", n)
	}
	if obs.len() != 0 {
		t.Errorf("swallowed %v", obs.errs)
	}
}

func TestDroppedDownloadAfterMonitor(t *testing.T) {
	f := newFakeNative()
	f.positions = []int32{40, 100}
	func() {
		d := openDownload(t, f)
		d.Start()
		m, err := d.Watch(context.Background(), time.Millisecond, nil)
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
		if res := m.Wait(); res.Err != nil || res.Progress != 100 {
			t.Fatalf("result %+v", res)
		}
	}()

	if !collect(func() bool { return f.countCalls("StopGetFile") > 0 }) {
		t.Fatal("dropped download was not stopped")
	}
	if n := f.countCalls("StopGetFile"); n != 1 {
		t.Errorf("StopGetFile called %d times", n)
	}
}

func TestClosedDownloadNotStoppedAgain(t *testing.T) {
	f := newFakeNative()
	func() {
		d := openDownload(t, f)
		d.Start()
		d.Close()
	}()

	collect(func() bool { return f.countCalls("Logout") > 0 })
	if n := f.countCalls("StopGetFile"); n != 1 {
		t.Errorf("StopGetFile called %d times, want 1", n)
	}
}

func TestMonitorETA(t *testing.T) {
	f := newFakeNative()
	f.positions = []int32{50}
	d := openDownload(t, f)
	d.Start()

	m, err := d.Watch(context.Background(), time.Hour, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer d.Close()

	deadline := time.Now().Add(5 * time.Second)
	for m.Progress() != 50 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if r := m.Rate(); r != 5 {
		t.Errorf("rate %v, want 5", r)
	}
	eta, ok := m.ETA()
	if !ok || eta != 10*time.Second {
		t.Errorf("eta %v %v", eta, ok)
	}
}
