package dvr

import (
	"fmt"
	"strings"
	"sync"
)

// fakeNative records calls and replays canned results.
type fakeNative struct {
	mu    sync.Mutex
	calls []string

	lastErr      uint32
	lastErrCalls int

	loginHandle int32
	loginInfo   DeviceInfo
	logoutOK    bool

	config         []byte
	configReturned uint32
	configOK       bool

	captureOK  bool
	captureArg JPEGParams

	transfer  int32
	cond      PlayCond
	playOK    bool
	positions []int32
	stopOK    bool
	stopCalls int
}

func newFakeNative() *fakeNative {
	return &fakeNative{
		loginHandle: 7,
		logoutOK:    true,
		configOK:    true,
		captureOK:   true,
		transfer:    3,
		playOK:      true,
		stopOK:      true,
	}
}

func (f *fakeNative) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeNative) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeNative) Init() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Init")
	return true
}

func (f *fakeNative) Cleanup() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Cleanup")
	return true
}

func (f *fakeNative) Login(host string, port uint16, user, password string) (int32, DeviceInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Login %s:%d", host, port)
	if f.loginHandle < 0 {
		return f.loginHandle, DeviceInfo{}
	}
	return f.loginHandle, f.loginInfo
}

func (f *fakeNative) Logout(handle int32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Logout %d", handle)
	return f.logoutOK
}

func (f *fakeNative) GetDVRConfig(handle int32, command uint32, group int32, buf []byte) (uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetDVRConfig %d %d %d", handle, command, group)
	copy(buf, f.config)
	return f.configReturned, f.configOK
}

func (f *fakeNative) CaptureJPEG(handle int32, channel int32, params JPEGParams, dest string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CaptureJPEG %d %d %s", handle, channel, dest)
	f.captureArg = params
	return f.captureOK
}

func (f *fakeNative) GetFileByTime(handle int32, dest string, cond PlayCond) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetFileByTime %d %s", handle, dest)
	f.cond = cond
	return f.transfer
}

func (f *fakeNative) PlayBackControl(transfer int32, command uint32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PlayBackControl %d %d", transfer, command)
	return f.playOK
}

// GetDownloadPos consumes positions; the last one repeats.
func (f *fakeNative) GetDownloadPos(transfer int32) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetDownloadPos %d", transfer)
	if len(f.positions) == 0 {
		return 0
	}
	p := f.positions[0]
	if len(f.positions) > 1 {
		f.positions = f.positions[1:]
	}
	return p
}

func (f *fakeNative) StopGetFile(transfer int32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("StopGetFile %d", transfer)
	f.stopCalls++
	return f.stopOK
}

func (f *fakeNative) LastError() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErrCalls++
	return f.lastErr
}

func (f *fakeNative) set(fn func(f *fakeNative)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeNative) countCalls(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// swallowed collects errors handed to the observer.
type swallowed struct {
	mu   sync.Mutex
	ops  []Op
	errs []error
}

func (s *swallowed) Swallowed(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
	s.errs = append(s.errs, err)
}

func (s *swallowed) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}
