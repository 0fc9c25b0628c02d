package dvr

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hanwen/go-netdvr/log"
)

type options struct {
	log *logrus.Entry
	obs Observer
}

// Option configures a Session and the downloads it opens.
type Option func(*options)

// WithLogger routes diagnostics to l.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithObserver receives errors swallowed during teardown.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.obs = obs
	}
}

func newOptions(opts []Option) options {
	o := options{
		log: log.Root.WithField("prefix", "session"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.obs == nil {
		l := o.log
		o.obs = ObserverFunc(func(op Op, err error) {
			l.WithField("op", string(op)).Warningf("ignored: %v", err)
		})
	}
	return o
}

// Session is one authenticated connection to a device. It is not safe
// for concurrent use; callers sharing a Session must serialise access.
type Session struct {
	native Native
	opts   options

	handle   int32
	loggedIn bool
	info     DeviceInfo
}

// NewSession returns a logged-out session. A Session dropped while
// still logged in is logged out by a finalizer; call Logout instead of
// relying on it.
func NewSession(n Native, opts ...Option) *Session {
	s := &Session{
		native: n,
		opts:   newOptions(opts),
	}
	runtime.SetFinalizer(s, (*Session).release)
	return s
}

func (s *Session) release() {
	if s.loggedIn {
		s.opts.log.Warningf("session %d released while logged in", s.handle)
		s.Logout()
	}
}

func checkCString(name, v string) error {
	if strings.IndexByte(v, 0) >= 0 {
		return fmt.Errorf("%w: %s contains a NUL byte", ErrInvalidArgument, name)
	}
	return nil
}

// Login authenticates against host:port. An existing login is
// released once the new one succeeds, and kept if it fails.
func (s *Session) Login(host, user, password string, port uint16) error {
	for _, a := range []struct{ name, v string }{
		{"host", host},
		{"username", user},
		{"password", password},
	} {
		if err := checkCString(a.name, a.v); err != nil {
			return err
		}
	}

	handle, info := s.native.Login(host, port, user, password)
	if handle < 0 {
		err := classify(s.native, OpLogin)
		s.opts.log.WithField("host", host).Debugf("login: %v", err)
		return err
	}
	s.Logout()

	s.handle = handle
	s.info = info
	s.loggedIn = true
	s.opts.log.WithField("host", host).Debugf("login %d: %s", handle, &info)
	return nil
}

// Logout releases the login handle. Failures are reported to the
// observer only. Calling Logout while logged out does nothing.
func (s *Session) Logout() {
	if !s.loggedIn {
		return
	}
	if !s.native.Logout(s.handle) {
		s.opts.obs.Swallowed(OpLogout, classify(s.native, OpLogout))
	}
	s.opts.log.Debugf("logout %d", s.handle)
	s.handle = 0
	s.info = DeviceInfo{}
	s.loggedIn = false
}

func (s *Session) LoggedIn() bool {
	return s.loggedIn
}

// DeviceInfo returns the descriptor captured at login.
func (s *Session) DeviceInfo() (DeviceInfo, error) {
	if !s.loggedIn {
		return DeviceInfo{}, ErrNoSession
	}
	return s.info, nil
}

// IPChannelConfig queries the IP parameter config (group 0).
func (s *Session) IPChannelConfig() (*IPParaConfig, error) {
	if !s.loggedIn {
		return nil, ErrNoSession
	}

	buf := make([]byte, IPParaConfigSize)
	returned, ok := s.native.GetDVRConfig(s.handle, CmdGetIPParaConfigV40, 0, buf)
	if !ok {
		err := classify(s.native, OpConfigQuery)
		err.Returned = returned
		return nil, err
	}
	if int(returned) > len(buf) {
		return nil, &MalformedResponseError{
			Op:       OpConfigQuery,
			Returned: returned,
			Want:     len(buf),
		}
	}
	return DecodeIPParaConfig(buf)
}

// Channels resolves the channel topology from the login descriptor and
// a fresh IP parameter config.
func (s *Session) Channels() ([]Channel, error) {
	if !s.loggedIn {
		return nil, ErrNoSession
	}
	cfg, err := s.IPChannelConfig()
	if err != nil {
		return nil, err
	}
	return ResolveChannels(s.info, cfg), nil
}

// CaptureJPEG asks the device for a snapshot of channel and has the SDK
// write it to dest. Whether the file exists afterwards is for the
// caller to check.
func (s *Session) CaptureJPEG(channel uint16, dest string) error {
	if !s.loggedIn {
		return ErrNoSession
	}
	if err := checkCString("destination", dest); err != nil {
		return err
	}
	if !s.native.CaptureJPEG(s.handle, int32(channel), JPEGParams{}, dest) {
		return classify(s.native, OpCapture)
	}
	return nil
}

// GetFileByTime opens a download of channel's recording between start
// and end into dest. The times are passed to the device as calendar
// fields in their own location; see NewDeviceTime. The returned
// Download is not started yet.
func (s *Session) GetFileByTime(dest string, channel uint16, start, end time.Time) (*Download, error) {
	if !s.loggedIn {
		return nil, ErrNoSession
	}
	if err := checkCString("destination", dest); err != nil {
		return nil, err
	}

	cond := PlayCond{
		Channel: uint32(channel),
		Start:   NewDeviceTime(start),
		Stop:    NewDeviceTime(end),
	}
	transfer := s.native.GetFileByTime(s.handle, dest, cond)
	if transfer < 0 {
		return nil, classify(s.native, OpFileQuery)
	}
	s.opts.log.Debugf("download %d: ch %d %s .. %s -> %s", transfer, channel, cond.Start, cond.Stop, dest)
	return newDownload(s.native, transfer, s.opts), nil
}
