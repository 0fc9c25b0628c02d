// Package log holds the netdvr root logger and one child logger per
// subsystem:
//
//	sdk       native SDK or simulator calls
//	session   device login, logout and queries
//	download  recording transfers and their monitors
//	http      API access log
//
// Each child writes through Root's output and formatter, tagged with
// its name, and passes debug output only when enabled for it.
package log

import (
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var Root = &logrus.Logger{
	Out:   os.Stdout,
	Level: logrus.TraceLevel,
	Hooks: make(logrus.LevelHooks),
	Formatter: &prefixed.TextFormatter{
		DisableColors: func() bool {
			term, ok := os.LookupEnv("TERM")
			return term == "" || !ok
		}(),
		ForceFormatting: true,
		TimestampFormat: "2006-01-02 15:04:05",
	},
}

// ChildLogger filters a shared parent logger to one subsystem, tagging
// every entry with its prefix.
type ChildLogger struct {
	logger *logrus.Logger
	prefix string
	level  logrus.Level
}

func NewChildLogger(parent *logrus.Logger, prefix string, debug bool) *ChildLogger {
	lc := &ChildLogger{
		prefix: prefix,
	}

	if debug {
		lc.level = logrus.DebugLevel
	} else {
		lc.level = logrus.InfoLevel
	}

	level := lc.level
	if parent.GetLevel() < level {
		level = parent.GetLevel()
	}
	lc.logger = &logrus.Logger{
		Out:       parent.Out,
		Hooks:     parent.Hooks,
		Formatter: parent.Formatter,
		Level:     level,
	}

	return lc
}

func (l *ChildLogger) shouldOutput(level logrus.Level) bool {
	return l.level >= level
}

// Entry returns a logrus entry carrying the child's prefix and level,
// for callers that want structured fields.
func (l *ChildLogger) Entry() *logrus.Entry {
	return l.logger.WithField("prefix", l.prefix)
}

func (l *ChildLogger) log(level logrus.Level, args ...interface{}) {
	if l.shouldOutput(level) {
		l.Entry().Log(level, args...)
	}
}

func (l *ChildLogger) logf(level logrus.Level, format string, args ...interface{}) {
	if l.shouldOutput(level) {
		l.Entry().Logf(level, format, args...)
	}
}

func (l *ChildLogger) Debug(args ...interface{})   { l.log(logrus.DebugLevel, args...) }
func (l *ChildLogger) Info(args ...interface{})    { l.log(logrus.InfoLevel, args...) }
func (l *ChildLogger) Warning(args ...interface{}) { l.log(logrus.WarnLevel, args...) }
func (l *ChildLogger) Error(args ...interface{})   { l.log(logrus.ErrorLevel, args...) }

func (l *ChildLogger) Debugf(format string, args ...interface{}) {
	l.logf(logrus.DebugLevel, format, args...)
}

func (l *ChildLogger) Infof(format string, args ...interface{}) {
	l.logf(logrus.InfoLevel, format, args...)
}

func (l *ChildLogger) Warningf(format string, args ...interface{}) {
	l.logf(logrus.WarnLevel, format, args...)
}

func (l *ChildLogger) Errorf(format string, args ...interface{}) {
	l.logf(logrus.ErrorLevel, format, args...)
}

func (l *ChildLogger) IsDebug() bool {
	return l.level >= logrus.DebugLevel
}

type Children struct {
	SDK      *ChildLogger
	Session  *ChildLogger
	Download *ChildLogger
	HTTP     *ChildLogger
}

func PrepareChildren(parent *logrus.Logger, sdk, session, download, http bool) *Children {
	return &Children{
		SDK:      NewChildLogger(parent, "sdk", sdk),
		Session:  NewChildLogger(parent, "session", session),
		Download: NewChildLogger(parent, "download", download),
		HTTP:     NewChildLogger(parent, "http", http),
	}
}

// SetLevel parses a level name and applies it to Root. Unknown names
// leave the level untouched and return the parse error.
func SetLevel(name string) error {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	Root.SetLevel(lvl)
	return nil
}

// HTTPLogHandler logs every request through l once it is served.
func (l *ChildLogger) HTTPLogHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			l.Infof("%s %s %s %s", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
		}()
		next.ServeHTTP(w, r)
	})
}
