package log

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func bufferLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &logrus.Logger{
		Out:       buf,
		Level:     level,
		Hooks:     make(logrus.LevelHooks),
		Formatter: &logrus.TextFormatter{DisableColors: true, DisableTimestamp: true},
	}, buf
}

func TestChildLevels(t *testing.T) {
	parent, buf := bufferLogger(logrus.TraceLevel)

	quiet := NewChildLogger(parent, "session", false)
	quiet.Debugf("handle %d", 7)
	if buf.Len() != 0 {
		t.Fatalf("debug output from non-debug child: %q", buf.String())
	}
	quiet.Infof("handle %d", 7)
	if got := buf.String(); !strings.Contains(got, "handle 7") || !strings.Contains(got, "prefix=session") {
		t.Errorf("got %q", got)
	}

	buf.Reset()
	loud := NewChildLogger(parent, "download", true)
	if !loud.IsDebug() || quiet.IsDebug() {
		t.Errorf("IsDebug: loud %v quiet %v", loud.IsDebug(), quiet.IsDebug())
	}
	loud.Debug("polling")
	if !strings.Contains(buf.String(), "polling") {
		t.Errorf("got %q", buf.String())
	}
}

func TestChildRespectsParentLevel(t *testing.T) {
	parent, buf := bufferLogger(logrus.WarnLevel)

	c := NewChildLogger(parent, "sdk", true)
	c.Debug("debug")
	c.Info("info")
	if buf.Len() != 0 {
		t.Fatalf("output below parent level: %q", buf.String())
	}
	c.Warning("warn")
	if !strings.Contains(buf.String(), "warn") {
		t.Errorf("got %q", buf.String())
	}
}

func TestHTTPLogHandler(t *testing.T) {
	parent, buf := bufferLogger(logrus.InfoLevel)
	c := NewChildLogger(parent, "http", false)

	h := c.HTTPLogHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sessions", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status %d", rec.Code)
	}
	if got := buf.String(); !strings.Contains(got, "GET /api/sessions") {
		t.Errorf("got %q", got)
	}
}

func TestSetLevel(t *testing.T) {
	old := Root.GetLevel()
	defer Root.SetLevel(old)

	if err := SetLevel("loud"); err == nil {
		t.Error("SetLevel accepted unknown level")
	}
	if Root.GetLevel() != old {
		t.Errorf("level changed to %v", Root.GetLevel())
	}
	if err := SetLevel("warning"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if Root.GetLevel() != logrus.WarnLevel {
		t.Errorf("level %v", Root.GetLevel())
	}
}
