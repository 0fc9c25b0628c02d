//go:build cgo && hcnetsdk

package sdk

// #cgo linux LDFLAGS: -lhcnetsdk
// #cgo windows LDFLAGS: -lHCNetSDK
// #include <stdlib.h>
// #include <string.h>
// #include "HCNetSDK.h"
import "C"
import (
	"bytes"
	"unsafe"

	"github.com/hanwen/go-netdvr/dvr"
)

// Lib is the linked vendor SDK.
type Lib struct{}

var _ dvr.Native = (*Lib)(nil)

func New() *Lib {
	return &Lib{}
}

// Available reports whether the vendor SDK is linked in.
func Available() bool {
	return true
}

func cBool(b C.BOOL) bool {
	return b != 0
}

func (l *Lib) Init() bool {
	return cBool(C.NET_DVR_Init())
}

func (l *Lib) Cleanup() bool {
	return cBool(C.NET_DVR_Cleanup())
}

func (l *Lib) Login(host string, port uint16, user, password string) (int32, dvr.DeviceInfo) {
	cHost := C.CString(host)
	defer C.free(unsafe.Pointer(cHost))
	cUser := C.CString(user)
	defer C.free(unsafe.Pointer(cUser))
	cPass := C.CString(password)
	defer C.free(unsafe.Pointer(cPass))

	var info C.NET_DVR_DEVICEINFO_V30
	h := C.NET_DVR_Login_V30(cHost, C.WORD(port), cUser, cPass, &info)
	if h < 0 {
		return int32(h), dvr.DeviceInfo{}
	}
	return int32(h), deviceInfoFromC(&info)
}

func deviceInfoFromC(c *C.NET_DVR_DEVICEINFO_V30) dvr.DeviceInfo {
	serial := C.GoBytes(unsafe.Pointer(&c.sSerialNumber[0]), C.int(len(c.sSerialNumber)))
	if i := bytes.IndexByte(serial, 0); i >= 0 {
		serial = serial[:i]
	}
	return dvr.DeviceInfo{
		SerialNumber:    string(serial),
		AlarmInPortNum:  uint8(c.byAlarmInPortNum),
		AlarmOutPortNum: uint8(c.byAlarmOutPortNum),
		DiskNum:         uint8(c.byDiskNum),
		DVRType:         uint8(c.byDVRType),
		AnalogChanNum:   uint8(c.byChanNum),
		StartChan:       uint8(c.byStartChan),
		IPChanNum:       uint8(c.byIPChanNum),
		HighDChanNum:    uint8(c.byHighDChanNum),
		StartDChan:      uint8(c.byStartDChan),
	}
}

func (l *Lib) Logout(handle int32) bool {
	return cBool(C.NET_DVR_Logout_V30(C.LONG(handle)))
}

func (l *Lib) GetDVRConfig(handle int32, command uint32, group int32, buf []byte) (uint32, bool) {
	if len(buf) == 0 {
		return 0, false
	}
	// The SDK writes into C memory; Go memory must not be retained
	// across the call.
	out := C.malloc(C.size_t(len(buf)))
	defer C.free(out)
	C.memset(out, 0, C.size_t(len(buf)))

	var returned C.DWORD
	ok := cBool(C.NET_DVR_GetDVRConfig(C.LONG(handle), C.DWORD(command), C.LONG(group),
		C.LPVOID(out), C.DWORD(len(buf)), &returned))
	copy(buf, C.GoBytes(out, C.int(len(buf))))
	return uint32(returned), ok
}

func (l *Lib) CaptureJPEG(handle int32, channel int32, params dvr.JPEGParams, dest string) bool {
	cDest := C.CString(dest)
	defer C.free(unsafe.Pointer(cDest))

	p := C.NET_DVR_JPEGPARA{
		wPicSize:    C.WORD(params.PicSize),
		wPicQuality: C.WORD(params.PicQuality),
	}
	return cBool(C.NET_DVR_CaptureJPEGPicture(C.LONG(handle), C.LONG(channel), &p, cDest))
}

func timeToC(t dvr.DeviceTime) C.NET_DVR_TIME {
	return C.NET_DVR_TIME{
		dwYear:   C.DWORD(t.Year),
		dwMonth:  C.DWORD(t.Month),
		dwDay:    C.DWORD(t.Day),
		dwHour:   C.DWORD(t.Hour),
		dwMinute: C.DWORD(t.Minute),
		dwSecond: C.DWORD(t.Second),
	}
}

func (l *Lib) GetFileByTime(handle int32, dest string, cond dvr.PlayCond) int32 {
	cDest := C.CString(dest)
	defer C.free(unsafe.Pointer(cDest))

	var c C.NET_DVR_PLAYCOND
	c.dwChannel = C.DWORD(cond.Channel)
	c.struStartTime = timeToC(cond.Start)
	c.struStopTime = timeToC(cond.Stop)
	return int32(C.NET_DVR_GetFileByTime_V40(C.LONG(handle), cDest, &c))
}

func (l *Lib) PlayBackControl(transfer int32, command uint32) bool {
	var outLen C.DWORD
	return cBool(C.NET_DVR_PlayBackControl_V40(C.LONG(transfer), C.DWORD(command), nil, 0, nil, &outLen))
}

func (l *Lib) GetDownloadPos(transfer int32) int32 {
	return int32(C.NET_DVR_GetDownloadPos(C.LONG(transfer)))
}

func (l *Lib) StopGetFile(transfer int32) bool {
	return cBool(C.NET_DVR_StopGetFile(C.LONG(transfer)))
}

func (l *Lib) LastError() uint32 {
	return uint32(C.NET_DVR_GetLastError())
}
