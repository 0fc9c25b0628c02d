// Package sdk provides implementations of dvr.Native: the cgo binding
// of the vendor network SDK (build tag hcnetsdk, with a failing stub
// otherwise) and Sim, an in-process device simulator.
package sdk

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/hanwen/go-netdvr/dvr"
	"github.com/hanwen/go-netdvr/log"
)

// SimDevice is a device served by Sim.
type SimDevice struct {
	User     string
	Password string
	Info     dvr.DeviceInfo
	Config   *dvr.IPParaConfig
}

// DemoDevice returns a recorder with four analog channels from 1, the
// third disabled, and two IP cameras from 33.
func DemoDevice(user, password string) SimDevice {
	cfg := &dvr.IPParaConfig{
		AChanNum:   4,
		DChanNum:   2,
		StartDChan: 33,
	}
	cfg.AnalogChanEnable = [dvr.MaxChanNumV30]uint8{1, 1, 0, 1}
	for i, ip := range []string{"192.168.1.64", "192.168.1.65"} {
		cfg.IPDevInfo[i].Enable = 1
		cfg.IPDevInfo[i].DVRPort = 8000
		copy(cfg.IPDevInfo[i].IP.IPv4[:], ip)
		cfg.StreamMode[i].SetChanInfo(dvr.IPChanInfo{Enable: 1, IPID: uint8(i + 1), Channel: 1})
	}

	return SimDevice{
		User:     user,
		Password: password,
		Info: dvr.DeviceInfo{
			SerialNumber:   "SIM0000000000000000000000000001",
			AlarmInPortNum: 4,
			DiskNum:        1,
			AnalogChanNum:  4,
			StartChan:      1,
			IPChanNum:      2,
			StartDChan:     33,
		},
		Config: cfg,
	}
}

type simTransfer struct {
	dest    string
	cond    dvr.PlayCond
	started bool
	pos     int32
}

// Sim simulates devices behind the SDK. Snapshots and recordings are
// written to its filesystem. Each progress query of a started download
// advances it by a fixed step.
type Sim struct {
	fs  afero.Fs
	log *logrus.Entry

	mu        sync.Mutex
	step      int32
	inited    bool
	lastErr   uint32
	next      int32
	devices   map[string]*SimDevice
	logins    map[int32]*SimDevice
	transfers map[int32]*simTransfer
}

var _ dvr.Native = (*Sim)(nil)

// NewSim returns a simulator writing to fs. l may be nil.
func NewSim(fs afero.Fs, l *logrus.Entry) *Sim {
	if l == nil {
		l = log.Root.WithField("prefix", "sim")
	}
	return &Sim{
		fs:        fs,
		log:       l,
		step:      25,
		devices:   map[string]*SimDevice{},
		logins:    map[int32]*SimDevice{},
		transfers: map[int32]*simTransfer{},
	}
}

func simKey(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}

// AddDevice serves dev at host:port.
func (s *Sim) AddDevice(host string, port uint16, dev SimDevice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[simKey(host, port)] = &dev
}

// SetStep sets the download progress per query, in percent.
func (s *Sim) SetStep(step int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
}

func (s *Sim) fail(code uint32) {
	s.lastErr = code
}

func (s *Sim) Init() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inited = true
	return true
}

func (s *Sim) Cleanup() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inited = false
	s.logins = map[int32]*SimDevice{}
	s.transfers = map[int32]*simTransfer{}
	return true
}

func (s *Sim) Login(host string, port uint16, user, password string) (int32, dvr.DeviceInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inited {
		s.fail(dvr.EC_NoInit)
		return -1, dvr.DeviceInfo{}
	}
	dev, ok := s.devices[simKey(host, port)]
	if !ok {
		s.fail(dvr.EC_NetworkFailConnect)
		return -1, dvr.DeviceInfo{}
	}
	if dev.User != user || dev.Password != password {
		s.fail(dvr.EC_PasswordError)
		return -1, dvr.DeviceInfo{}
	}

	h := s.next
	s.next++
	s.logins[h] = dev
	s.log.Debugf("login %d: %s", h, simKey(host, port))
	return h, dev.Info
}

func (s *Sim) Logout(handle int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.logins[handle]; !ok {
		s.fail(dvr.EC_UserNotExist)
		return false
	}
	delete(s.logins, handle)
	return true
}

func (s *Sim) GetDVRConfig(handle int32, command uint32, group int32, buf []byte) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.logins[handle]
	if !ok {
		s.fail(dvr.EC_UserNotExist)
		return 0, false
	}
	if command != dvr.CmdGetIPParaConfigV40 || group != 0 || dev.Config == nil {
		s.fail(dvr.EC_NoSupport)
		return 0, false
	}

	cfg := *dev.Config
	cfg.Size = uint32(dvr.IPParaConfigSize)
	data := cfg.Encode()
	if len(buf) < len(data) {
		s.fail(dvr.EC_NoEnoughBuf)
		return 0, false
	}
	copy(buf, data)
	return uint32(len(data)), true
}

func (s *Sim) hasChannel(dev *SimDevice, ch uint32) bool {
	for _, c := range dvr.ResolveChannels(dev.Info, dev.Config) {
		if uint32(c.Number) == ch {
			return c.Enabled
		}
	}
	return false
}

func (s *Sim) create(dest string) (afero.File, error) {
	if err := s.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, err
	}
	return s.fs.Create(dest)
}

func (s *Sim) CaptureJPEG(handle int32, channel int32, params dvr.JPEGParams, dest string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.logins[handle]
	if !ok {
		s.fail(dvr.EC_UserNotExist)
		return false
	}
	if channel < 0 || !s.hasChannel(dev, uint32(channel)) {
		s.fail(dvr.EC_ChannelError)
		return false
	}

	f, err := s.create(dest)
	if err != nil {
		s.log.Warningf("capture %s: %v", dest, err)
		s.fail(dvr.EC_CreateFileError)
		return false
	}
	defer f.Close()

	img := image.NewGray(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x*4 + int(channel))})
		}
	}
	if err := jpeg.Encode(f, img, nil); err != nil {
		s.fail(dvr.EC_CreateFileError)
		return false
	}
	return true
}

func deviceTime(t dvr.DeviceTime) time.Time {
	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day),
		int(t.Hour), int(t.Minute), int(t.Second), 0, time.UTC)
}

func (s *Sim) GetFileByTime(handle int32, dest string, cond dvr.PlayCond) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.logins[handle]
	if !ok {
		s.fail(dvr.EC_UserNotExist)
		return -1
	}
	if !s.hasChannel(dev, cond.Channel) {
		s.fail(dvr.EC_ChannelError)
		return -1
	}
	if !deviceTime(cond.Start).Before(deviceTime(cond.Stop)) {
		s.fail(dvr.EC_TimeInputError)
		return -1
	}

	h := s.next
	s.next++
	s.transfers[h] = &simTransfer{dest: dest, cond: cond}
	return h
}

func (s *Sim) PlayBackControl(transfer int32, command uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transfers[transfer]
	if !ok {
		s.fail(dvr.EC_ParameterError)
		return false
	}
	if command != dvr.CtrlPlayStart {
		s.fail(dvr.EC_NoSupport)
		return false
	}
	if t.started {
		return true
	}

	f, err := s.create(t.dest)
	if err != nil {
		s.log.Warningf("download %s: %v", t.dest, err)
		s.fail(dvr.EC_CreateFileError)
		return false
	}
	f.Close()
	t.started = true
	return true
}

func (s *Sim) GetDownloadPos(transfer int32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transfers[transfer]
	if !ok {
		s.fail(dvr.EC_ParameterError)
		return -1
	}
	if !t.started || t.pos >= 100 {
		return t.pos
	}

	t.pos += s.step
	if t.pos > 100 {
		t.pos = 100
	}
	f, err := s.fs.OpenFile(t.dest, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return 200
	}
	defer f.Close()
	fmt.Fprintf(f, "ch%d %s..%s %d%%\n", t.cond.Channel, t.cond.Start, t.cond.Stop, t.pos)
	return t.pos
}

func (s *Sim) StopGetFile(transfer int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transfers[transfer]; !ok {
		s.fail(dvr.EC_ParameterError)
		return false
	}
	delete(s.transfers, transfer)
	return true
}

func (s *Sim) LastError() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
