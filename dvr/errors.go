package dvr

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned by every Session operation other than
	// Login while no login handle is held.
	ErrNoSession = errors.New("dvr: not logged in")

	// ErrNotStarted is returned by Download.Progress before Start.
	ErrNotStarted = errors.New("dvr: download not started")

	// ErrStopped is returned when starting a download whose transfer
	// handle was already released.
	ErrStopped = errors.New("dvr: download stopped")

	// ErrNetwork is the transfer-level connectivity failure reported as
	// download position 200.
	ErrNetwork = errors.New("dvr: download network error")

	ErrProgressQueryFailed = errors.New("dvr: download progress query failed")
	ErrMalformedResponse   = errors.New("dvr: malformed response")
	ErrInvalidArgument     = errors.New("dvr: invalid argument")
	ErrMonitorRunning      = errors.New("dvr: download already monitored")

	// ErrSDKUnavailable is reported by builds without the vendor SDK.
	ErrSDKUnavailable = errors.New("dvr: vendor SDK not linked into this build")
)

// Op names the SDK call that failed.
type Op string

const (
	OpInit            Op = "init"
	OpLogin           Op = "login"
	OpLogout          Op = "logout"
	OpConfigQuery     Op = "config query"
	OpCapture         Op = "capture"
	OpFileQuery       Op = "file query"
	OpPlaybackControl Op = "playback control"
	OpProgress        Op = "progress query"
	OpStopTransfer    Op = "stop transfer"
)

// NativeError is an SDK call rejected by the library or the device.
// Code is the SDK last-error value read right after the failing call.
type NativeError struct {
	Op   Op
	Code uint32

	// Returned is the byte count reported by a config query.
	Returned uint32
}

func (e *NativeError) Error() string {
	if e.Op == OpConfigQuery {
		return fmt.Sprintf("dvr: %s failed: %s, returned %d bytes", e.Op, CodeName(e.Code), e.Returned)
	}
	return fmt.Sprintf("dvr: %s failed: %s", e.Op, CodeName(e.Code))
}

func (e *NativeError) Is(target error) bool {
	return target == ErrProgressQueryFailed && e.Op == OpProgress
}

// ProgressError is an out-of-range download position that is neither
// the failure nor the network sentinel.
type ProgressError struct {
	Pos int32
}

func (e *ProgressError) Error() string {
	return fmt.Sprintf("dvr: download progress query failed: position %d", e.Pos)
}

func (e *ProgressError) Is(target error) bool {
	return target == ErrProgressQueryFailed
}

// MalformedResponseError reports a config block that does not have
// the expected shape.
type MalformedResponseError struct {
	Op       Op
	Returned uint32
	Want     int
	Err      error
}

func (e *MalformedResponseError) Error() string {
	s := fmt.Sprintf("dvr: %s: malformed response: returned %d bytes, want %d", e.Op, e.Returned, e.Want)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// classify reads the SDK last-error code. It must run immediately after
// the failing call, before any other SDK call on this thread.
func classify(n Native, op Op) *NativeError {
	return &NativeError{Op: op, Code: n.LastError()}
}

// IsNative reports whether err is a NativeError for op.
func IsNative(err error, op Op) bool {
	var ne *NativeError
	return errors.As(err, &ne) && ne.Op == op
}

// CodeOf returns the SDK error code carried by err, if any.
func CodeOf(err error) (uint32, bool) {
	var ne *NativeError
	if errors.As(err, &ne) {
		return ne.Code, true
	}
	return 0, false
}

// Observer receives errors that teardown paths swallow: logout during
// Session release and transfer stop during Download.Close.
type Observer interface {
	Swallowed(op Op, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(op Op, err error)

func (f ObserverFunc) Swallowed(op Op, err error) {
	f(op, err)
}
