// Package dvr is a client-side session layer for DVR/NVR appliances
// driven through the vendor network SDK. The SDK itself is reached
// through the Native interface; package sdk provides the cgo binding.
//
// A Session owns one login handle. With it, callers resolve the
// channel topology, capture JPEG snapshots, and open time-ranged
// recording downloads (Download), which are polled for progress until
// they complete or are closed.
package dvr

import (
	"fmt"
	"reflect"
	"sync"
)

// Native is the opaque SDK surface. All calls are synchronous and
// blocking. Handles are plain integers; negative values signal failure
// and LastError must then be called before any other SDK call.
type Native interface {
	Init() bool
	Cleanup() bool

	Login(host string, port uint16, user, password string) (int32, DeviceInfo)
	Logout(handle int32) bool

	// GetDVRConfig fills buf with the configuration block for command
	// and reports how many bytes the device wrote.
	GetDVRConfig(handle int32, command uint32, group int32, buf []byte) (returned uint32, ok bool)

	CaptureJPEG(handle int32, channel int32, params JPEGParams, dest string) bool

	GetFileByTime(handle int32, dest string, cond PlayCond) int32
	PlayBackControl(transfer int32, command uint32) bool
	GetDownloadPos(transfer int32) int32
	StopGetFile(transfer int32) bool

	LastError() uint32
}

// SDK command codes used by this package.
const (
	CmdGetIPParaConfigV40 = 1062 // NET_DVR_GET_IPPARACFG_V40
	CtrlPlayStart         = 1    // NET_DVR_PLAYSTART
)

// Download position sentinels reported by GetDownloadPos.
const (
	posFailed       = -1
	posNetworkError = 200
)

// JPEGParams mirrors NET_DVR_JPEGPARA. The zero value asks the device
// for its default size and best quality.
type JPEGParams struct {
	PicSize    uint16
	PicQuality uint16
}

// PlayCond mirrors the fields of NET_DVR_PLAYCOND this package sets.
type PlayCond struct {
	Channel uint32
	Start   DeviceTime
	Stop    DeviceTime
}

var (
	initMu   sync.Mutex
	initDone = map[Native]error{}
)

// InitOnce initialises the SDK behind n the first time it is called for
// n and returns the cached outcome afterwards. The SDK does not support
// re-initialisation.
//
// Outcomes are keyed by n, so n must be comparable; implementations in
// package sdk are pointers.
func InitOnce(n Native) error {
	if n == nil || !reflect.TypeOf(n).Comparable() {
		return fmt.Errorf("%w: native %T is not comparable", ErrInvalidArgument, n)
	}

	initMu.Lock()
	defer initMu.Unlock()

	if err, ok := initDone[n]; ok {
		return err
	}
	var err error
	if !n.Init() {
		err = &NativeError{Op: OpInit, Code: n.LastError()}
	}
	initDone[n] = err
	return err
}
