package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hanwen/go-netdvr/dvr"
)

// badRequest marks client input errors.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string {
	return e.msg
}

func badRequestf(format string, args ...interface{}) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

func statusOf(err error) int {
	var br *badRequest
	switch {
	case errors.As(err, &br), errors.Is(err, dvr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownSession), errors.Is(err, ErrUnknownDownload),
		errors.Is(err, dvr.ErrNoSession), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.opts.Log.HTTP.Errorf("marshal response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.opts.Log.HTTP.Warningf("%v", err)
	}
	s.respondJSON(w, status, errorResponse{Message: err.Error()})
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequestf("invalid request body: %v", err)
	}
	return nil
}

func sessionParam(r *http.Request) (string, error) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		return "", badRequestf("session_id is required")
	}
	return id, nil
}

type loginRequest struct {
	Host     string `json:"host"`
	Port     uint16 `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Host == "" || req.Port == 0 {
		s.respondError(w, badRequestf("host and port are required"))
		return
	}

	id := SessionID(req.Host, req.Port)
	err := s.registry.Login(id, func(sess *dvr.Session) error {
		return sess.Login(req.Host, req.Username, req.Password, req.Port)
	})
	if err != nil {
		s.respondError(w, fmt.Errorf("login failed: %w", err))
		return
	}

	s.opts.Log.Session.Infof("session %s logged in", id)
	s.respondJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Message:   "Login successful",
		SessionID: id,
	})
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id, err := sessionParam(r)
	if err == nil {
		err = s.registry.Remove(id)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logout successful"})
}

type sessionsResponse struct {
	Success  bool     `json:"success"`
	Sessions []string `json:"sessions"`
}

func (s *Server) HandleSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.registry.IDs()
	if ids == nil {
		ids = []string{}
	}
	s.respondJSON(w, http.StatusOK, sessionsResponse{Success: true, Sessions: ids})
}

type channelInfo struct {
	Index         int     `json:"index"`
	ChannelNum    uint16  `json:"channel_num"`
	ChannelType   string  `json:"channel_type"`
	Enabled       bool    `json:"enabled"`
	IPv4Address   *string `json:"ipv4_address,omitempty"`
	IPv6Address   *string `json:"ipv6_address,omitempty"`
	StreamType    *uint8  `json:"stream_type,omitempty"`
	StreamChannel *uint8  `json:"stream_channel,omitempty"`
}

func newChannelInfo(c dvr.Channel) channelInfo {
	info := channelInfo{
		Index:       c.Index,
		ChannelNum:  c.Number,
		ChannelType: c.Kind.String(),
		Enabled:     c.Enabled,
	}
	if c.Kind == dvr.ChannelIP {
		info.IPv4Address = &c.IPv4
		info.IPv6Address = &c.IPv6
		info.StreamType = &c.StreamType
		if c.HasStreamChannel {
			info.StreamChannel = &c.StreamChannel
		}
	}
	return info
}

type channelsResponse struct {
	Success  bool          `json:"success"`
	Channels []channelInfo `json:"channels"`
}

func (s *Server) HandleChannels(w http.ResponseWriter, r *http.Request) {
	id, err := sessionParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	var chans []dvr.Channel
	err = s.registry.With(id, func(sess *dvr.Session) error {
		var err error
		chans, err = sess.Channels()
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	infos := make([]channelInfo, 0, len(chans))
	for _, c := range chans {
		infos = append(infos, newChannelInfo(c))
	}
	s.respondJSON(w, http.StatusOK, channelsResponse{Success: true, Channels: infos})
}

type captureRequest struct {
	Channel uint16 `json:"channel"`
}

type captureResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"image_url"`
}

func (s *Server) HandleCapture(w http.ResponseWriter, r *http.Request) {
	id, err := sessionParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req captureRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	name := fmt.Sprintf("channel_%d_%d.jpg", req.Channel, time.Now().Unix())
	path := s.opts.Store.Path(KindImage, name)
	err = s.registry.With(id, func(sess *dvr.Session) error {
		return sess.CaptureJPEG(req.Channel, path)
	})
	if err != nil {
		s.respondError(w, fmt.Errorf("capture failed: %w", err))
		return
	}
	if !s.opts.Store.Exists(path) {
		s.respondError(w, fmt.Errorf("image file not found after capture"))
		return
	}

	s.respondJSON(w, http.StatusOK, captureResponse{
		Success:  true,
		ImageURL: "/" + KindImage + "/" + name,
	})
}

type downloadRequest struct {
	Channel   uint16 `json:"channel"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type downloadResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DownloadID string `json:"download_id"`
}

func (s *Server) parseTime(field, v string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, v, s.opts.Location)
	if err != nil {
		return t, badRequestf("invalid %s format, use YYYY-MM-DD HH:MM:SS", field)
	}
	return t, nil
}

func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := sessionParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req downloadRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	start, err := s.parseTime("start_time", req.StartTime)
	if err != nil {
		s.respondError(w, err)
		return
	}
	end, err := s.parseTime("end_time", req.EndTime)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !end.After(start) {
		s.respondError(w, badRequestf("end_time must be after start_time"))
		return
	}

	name := fmt.Sprintf("recording_ch%d_%s_%s.dav", req.Channel,
		start.Format("20060102_150405"), end.Format("20060102_150405"))
	j := &job{
		id:      uuid.NewString(),
		session: id,
		channel: req.Channel,
		file:    name,
		created: time.Now(),
	}

	err = s.registry.With(id, func(sess *dvr.Session) error {
		dl, err := sess.GetFileByTime(s.opts.Store.Path(KindRecording, name), req.Channel, start, end)
		if err != nil {
			return err
		}
		if err := dl.Start(); err != nil {
			dl.Close()
			return err
		}
		j.dl = dl
		return nil
	})
	if err != nil {
		s.respondError(w, fmt.Errorf("download failed: %w", err))
		return
	}

	logger := s.opts.Log.Download
	j.mon, err = j.dl.Watch(s.ctx, s.opts.PollInterval, func(p int) {
		logger.Debugf("%s: %d%%", j.id, p)
	})
	if err != nil {
		j.dl.Close()
		s.respondError(w, err)
		return
	}
	s.downloads.add(j)

	go func() {
		res := j.mon.Wait()
		if res.Err != nil {
			logger.Warningf("%s: %s stopped at %d%%: %v", j.id, name, res.Progress, res.Err)
		} else {
			logger.Infof("%s: %s complete", j.id, name)
		}
		j.dl.Close()
		s.downloads.finish(j)
	}()

	s.respondJSON(w, http.StatusOK, downloadResponse{
		Success:    true,
		Message:    "Download started",
		DownloadID: j.id,
	})
}

type downloadsResponse struct {
	Success   bool             `json:"success"`
	Downloads []DownloadStatus `json:"downloads"`
}

func (s *Server) HandleListDownloads(w http.ResponseWriter, r *http.Request) {
	sts := []DownloadStatus{}
	for _, j := range s.downloads.list() {
		sts = append(sts, j.status())
	}
	s.respondJSON(w, http.StatusOK, downloadsResponse{Success: true, Downloads: sts})
}

func (s *Server) HandleDownloadStatus(w http.ResponseWriter, r *http.Request) {
	j, err := s.downloads.get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, j.status())
}

// HandleCancelDownload closes the download, forgets it and reports its
// final status.
func (s *Server) HandleCancelDownload(w http.ResponseWriter, r *http.Request) {
	j, err := s.downloads.get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	j.dl.Close()
	st := j.status()
	s.downloads.remove(j.id)
	s.respondJSON(w, http.StatusOK, st)
}

// HandleDownloadWS pushes the download status every poll interval
// until the download is done or the client goes away.
func (s *Server) HandleDownloadWS(w http.ResponseWriter, r *http.Request) {
	j, err := s.downloads.get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.opts.Log.HTTP.Errorf("failed to upgrade: %s", err)
		return
	}
	defer ws.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	t := time.NewTicker(s.opts.PollInterval)
	defer t.Stop()
	for {
		st := j.status()
		if err := ws.WriteJSON(st); err != nil {
			s.opts.Log.HTTP.Debugf("ws %s: %v", j.id, err)
			return
		}
		if st.Done {
			ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
			return
		}

		select {
		case <-t.C:
		case <-j.mon.Done():
		case <-gone:
			return
		}
	}
}

func (s *Server) serveFile(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		f, fi, err := s.opts.Store.Open(kind, name)
		if err != nil {
			if kind == KindImage {
				err = fmt.Errorf("image not found: %w", err)
			} else {
				err = fmt.Errorf("recording not found: %w", err)
			}
			s.respondError(w, err)
			return
		}
		defer f.Close()

		if kind == KindRecording {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		}
		http.ServeContent(w, r, name, fi.ModTime(), f)
	}
}
