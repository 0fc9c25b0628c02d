package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hanwen/go-netdvr/dvr"
)

var ErrUnknownDownload = errors.New("download not found")

// job is a download started through the API.
type job struct {
	id      string
	session string
	channel uint16
	file    string
	created time.Time

	// finished is set once the download is closed; guarded by
	// downloads.mu.
	finished time.Time

	dl  *dvr.Download
	mon *dvr.Monitor
}

// DownloadStatus is the JSON view of a job.
type DownloadStatus struct {
	ID           string   `json:"download_id"`
	Session      string   `json:"session_id"`
	Channel      uint16   `json:"channel"`
	State        string   `json:"state"`
	Progress     int      `json:"progress"`
	Done         bool     `json:"done"`
	Error        string   `json:"error,omitempty"`
	RecordingURL string   `json:"recording_url"`
	Rate         float64  `json:"rate"`
	ETASeconds   *float64 `json:"eta_seconds,omitempty"`
}

func (j *job) status() DownloadStatus {
	st := DownloadStatus{
		ID:           j.id,
		Session:      j.session,
		Channel:      j.channel,
		State:        j.dl.State().String(),
		Progress:     j.mon.Progress(),
		RecordingURL: "/" + KindRecording + "/" + j.file,
		Rate:         j.mon.Rate(),
	}

	select {
	case <-j.mon.Done():
		res := j.mon.Wait()
		st.Done = true
		st.Progress = res.Progress
		if res.Err != nil {
			st.Error = res.Err.Error()
		}
	default:
		if eta, ok := j.mon.ETA(); ok {
			secs := eta.Seconds()
			st.ETASeconds = &secs
		}
	}
	return st
}

// downloads tracks jobs until retention has passed since they
// finished.
type downloads struct {
	retention time.Duration

	mu   sync.Mutex
	jobs map[string]*job
}

func newDownloads(retention time.Duration) *downloads {
	return &downloads{
		retention: retention,
		jobs:      map[string]*job{},
	}
}

func (d *downloads) add(j *job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pruneLocked(time.Now())
	d.jobs[j.id] = j
}

// finish marks j closed, starting its retention period.
func (d *downloads) finish(j *job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if j.finished.IsZero() {
		j.finished = time.Now()
	}
}

func (d *downloads) remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.jobs, id)
}

func (d *downloads) pruneLocked(now time.Time) {
	for id, j := range d.jobs {
		if !j.finished.IsZero() && now.Sub(j.finished) >= d.retention {
			delete(d.jobs, id)
		}
	}
}

func (d *downloads) get(id string) (*job, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	j, ok := d.jobs[id]
	if !ok {
		return nil, ErrUnknownDownload
	}
	return j, nil
}

func (d *downloads) list() []*job {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pruneLocked(time.Now())

	var jobs []*job
	for _, j := range d.jobs {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(a, b int) bool {
		return jobs[a].created.Before(jobs[b].created)
	})
	return jobs
}

// closeAll cancels every download and waits for their monitors.
func (d *downloads) closeAll() {
	d.mu.Lock()
	var jobs []*job
	for _, j := range d.jobs {
		jobs = append(jobs, j)
	}
	d.jobs = map[string]*job{}
	d.mu.Unlock()

	for _, j := range jobs {
		j.dl.Close()
	}
}
