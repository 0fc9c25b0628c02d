package dvr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DeviceInfo is the device descriptor captured at login
// (NET_DVR_DEVICEINFO_V30).
type DeviceInfo struct {
	SerialNumber    string
	AlarmInPortNum  uint8
	AlarmOutPortNum uint8
	DiskNum         uint8
	DVRType         uint8

	// Analog channels.
	AnalogChanNum uint8
	StartChan     uint8

	// IP channels; the count is split over two bytes.
	IPChanNum    uint8
	HighDChanNum uint8
	StartDChan   uint8
}

// IPChannelCount composes the low and high count bytes.
func (i *DeviceInfo) IPChannelCount() int {
	return int(i.IPChanNum) + int(i.HighDChanNum)*256
}

// DeviceTime is a wall-clock instant in the device's calendar
// (NET_DVR_TIME). It carries no zone; the device interprets it in its
// own local time.
type DeviceTime struct {
	Year   uint32
	Month  uint32
	Day    uint32
	Hour   uint32
	Minute uint32
	Second uint32
}

// NewDeviceTime copies the calendar fields of t as seen in t's own
// location. No zone conversion happens, so callers must pass times in
// the zone the device runs in.
func NewDeviceTime(t time.Time) DeviceTime {
	return DeviceTime{
		Year:   uint32(t.Year()),
		Month:  uint32(t.Month()),
		Day:    uint32(t.Day()),
		Hour:   uint32(t.Hour()),
		Minute: uint32(t.Minute()),
		Second: uint32(t.Second()),
	}
}

func (t DeviceTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}

// IPAddr mirrors NET_DVR_IPADDR.
type IPAddr struct {
	IPv4 [16]byte
	IPv6 [128]byte
}

// IPDevInfo mirrors NET_DVR_IPDEVINFO_V31.
type IPDevInfo struct {
	Enable         uint8
	ProType        uint8
	EnableQuickAdd uint8
	_              uint8
	UserName       [32]byte
	Password       [16]byte
	Domain         [64]byte
	IP             IPAddr
	DVRPort        uint16
	DeviceID       [32]byte
	_              [2]byte
}

// IPChanInfo mirrors NET_DVR_IPCHANINFO, the union member used by
// directly addressed streams.
type IPChanInfo struct {
	Enable        uint8
	IPID          uint8
	Channel       uint8
	IPIDHigh      uint8
	TransProtocol uint8
	GetStream     uint8
	_             [30]byte
}

// StreamMode mirrors NET_DVR_STREAM_MODE. Union is only meaningful
// through the accessor matching GetStreamType.
type StreamMode struct {
	GetStreamType uint8
	_             [3]byte
	Union         [streamUnionSize]byte
}

// ChanInfo decodes the union as NET_DVR_IPCHANINFO. It reports false,
// without reading the union, unless the stream type is ST_Direct.
func (m *StreamMode) ChanInfo() (IPChanInfo, bool) {
	var info IPChanInfo
	if m.GetStreamType != ST_Direct {
		return info, false
	}
	if err := binary.Read(bytes.NewReader(m.Union[:]), byteOrder, &info); err != nil {
		return info, false
	}
	return info, true
}

// SetChanInfo stores info as the active union member and sets the
// stream type to ST_Direct.
func (m *StreamMode) SetChanInfo(info IPChanInfo) {
	var buf bytes.Buffer
	binary.Write(&buf, byteOrder, &info)
	m.GetStreamType = ST_Direct
	m.Union = [streamUnionSize]byte{}
	copy(m.Union[:], buf.Bytes())
}

// IPParaConfig mirrors NET_DVR_IPPARACFG_V40, the result of the
// CmdGetIPParaConfigV40 query.
type IPParaConfig struct {
	Size             uint32
	GroupNum         uint32
	AChanNum         uint32
	DChanNum         uint32
	StartDChan       uint32
	AnalogChanEnable [MaxChanNumV30]uint8
	IPDevInfo        [MaxIPDeviceV40]IPDevInfo
	StreamMode       [MaxChanNumV30]StreamMode
	_                [20]byte
}

var byteOrder = binary.LittleEndian

// IPParaConfigSize is the size in bytes of the native config block.
var IPParaConfigSize = binary.Size(IPParaConfig{})

// DecodeIPParaConfig decodes a native config block. buf must hold at
// least IPParaConfigSize bytes.
func DecodeIPParaConfig(buf []byte) (*IPParaConfig, error) {
	if len(buf) < IPParaConfigSize {
		return nil, &MalformedResponseError{
			Op:       OpConfigQuery,
			Returned: uint32(len(buf)),
			Want:     IPParaConfigSize,
		}
	}
	cfg := &IPParaConfig{}
	if err := binary.Read(bytes.NewReader(buf[:IPParaConfigSize]), byteOrder, cfg); err != nil {
		return nil, &MalformedResponseError{
			Op:       OpConfigQuery,
			Returned: uint32(len(buf)),
			Want:     IPParaConfigSize,
			Err:      err,
		}
	}
	return cfg, nil
}

// Encode writes cfg in native layout.
func (c *IPParaConfig) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(IPParaConfigSize)
	binary.Write(&buf, byteOrder, c)
	return buf.Bytes()
}

// cString decodes a fixed-width, NUL-padded byte field up to its first
// NUL. Invalid UTF-8 is replaced rather than rejected: firmware leaves
// unused slots in an inconsistent state.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
