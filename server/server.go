// Package server exposes dvr sessions over a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/hanwen/go-netdvr/dvr"
	"github.com/hanwen/go-netdvr/log"
)

// TimeLayout is the format of start_time and end_time.
const TimeLayout = "2006-01-02 15:04:05"

// DefaultRetention is how long finished downloads stay queryable.
const DefaultRetention = 10 * time.Minute

type Options struct {
	Native dvr.Native
	Store  *Store

	// PollInterval is the download monitor period. Zero means
	// dvr.DefaultPollInterval.
	PollInterval time.Duration

	// Retention keeps finished downloads listed this long. Zero means
	// DefaultRetention.
	Retention time.Duration

	// Origins allowed by CORS and for websocket upgrades; "*" allows
	// all.
	Origins []string

	// Location to parse request times in. Nil means time.Local.
	Location *time.Location

	Log *log.Children
}

type Server struct {
	opts Options

	registry  *Registry
	downloads *downloads
	router    chi.Router
	upgrader  websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
}

func New(opts Options) *Server {
	if opts.PollInterval <= 0 {
		opts.PollInterval = dvr.DefaultPollInterval
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Log == nil {
		opts.Log = log.PrepareChildren(log.Root, false, false, false, false)
	}
	if len(opts.Origins) == 0 {
		opts.Origins = []string{"*"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:      opts,
		downloads: newDownloads(opts.Retention),
		router:    chi.NewRouter(),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.registry = NewRegistry(s.newSession)
	s.upgrader.CheckOrigin = s.checkOrigin

	s.setupRoutes()
	return s
}

func (s *Server) newSession() *dvr.Session {
	l := s.opts.Log.Session
	return dvr.NewSession(s.opts.Native,
		dvr.WithLogger(l.Entry()),
		dvr.WithObserver(dvr.ObserverFunc(func(op dvr.Op, err error) {
			l.Warningf("%s: %v", op, err)
		})))
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.opts.Log.HTTP.HTTPLogHandler)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.Origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/login", s.HandleLogin)
		r.Post("/logout", s.HandleLogout)
		r.Get("/sessions", s.HandleSessions)
		r.Get("/channels", s.HandleChannels)
		r.Post("/capture", s.HandleCapture)

		r.Route("/download", func(r chi.Router) {
			r.Post("/", s.HandleDownload)
			r.Get("/", s.HandleListDownloads)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleDownloadStatus)
				r.Delete("/", s.HandleCancelDownload)
				r.Get("/ws", s.HandleDownloadWS)
			})
		})
	})

	s.router.Get("/images/{name}", s.serveFile(KindImage))
	s.router.Get("/recordings/{name}", s.serveFile(KindRecording))
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the session registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Close stops all downloads and logs out all sessions.
func (s *Server) Close() {
	s.cancel()
	s.downloads.closeAll()
	s.registry.Close()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.opts.Origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
