//go:build !cgo || !hcnetsdk

package sdk

import (
	"github.com/hanwen/go-netdvr/dvr"
)

// Lib stands in for the vendor SDK in builds without it. Every call
// fails and LastError reports NET_DVR_NOINIT.
type Lib struct{}

var _ dvr.Native = (*Lib)(nil)

func New() *Lib {
	return &Lib{}
}

// Available reports whether the vendor SDK is linked in.
func Available() bool {
	return false
}

func (l *Lib) Init() bool { return false }
func (l *Lib) Cleanup() bool { return false }

func (l *Lib) Login(host string, port uint16, user, password string) (int32, dvr.DeviceInfo) {
	return -1, dvr.DeviceInfo{}
}

func (l *Lib) Logout(handle int32) bool { return false }

func (l *Lib) GetDVRConfig(handle int32, command uint32, group int32, buf []byte) (uint32, bool) {
	return 0, false
}

func (l *Lib) CaptureJPEG(handle int32, channel int32, params dvr.JPEGParams, dest string) bool {
	return false
}

func (l *Lib) GetFileByTime(handle int32, dest string, cond dvr.PlayCond) int32 {
	return -1
}

func (l *Lib) PlayBackControl(transfer int32, command uint32) bool { return false }
func (l *Lib) GetDownloadPos(transfer int32) int32 { return -1 }
func (l *Lib) StopGetFile(transfer int32) bool { return false }

func (l *Lib) LastError() uint32 {
	return dvr.EC_NoInit
}
