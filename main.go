// Copyright 2012 Google Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/hanwen/go-netdvr/config"
	"github.com/hanwen/go-netdvr/dvr"
	"github.com/hanwen/go-netdvr/log"
	"github.com/hanwen/go-netdvr/sdk"
	"github.com/hanwen/go-netdvr/server"
)

func main() {
	cfgFile := flag.String("config", "", "YAML config file. Default: built-in defaults.")
	listen := flag.String("listen", "", "address to serve the HTTP API on.")
	dataDir := flag.String("data-dir", "", "directory for captured images and recordings.")
	debug := flag.Bool("debug", false, "switch on debug logging for all subsystems.")
	simulate := flag.Bool("simulate", false, "serve a simulated recorder instead of using the vendor SDK.")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Root.Fatalf("config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *simulate {
		cfg.Simulator.Enable = true
	}
	if *debug {
		cfg.Log.Level = "debug"
		cfg.Log.Debug = config.DebugConfig{SDK: true, Session: true, Download: true, HTTP: true}
	}

	if err := log.SetLevel(cfg.Log.Level); err != nil {
		log.Root.Fatalf("log level: %v", err)
	}
	d := cfg.Log.Debug
	children := log.PrepareChildren(log.Root, d.SDK, d.Session, d.Download, d.HTTP)

	if err := run(cfg, children); err != nil {
		log.Root.Fatal(err)
	}
}

func openNative(cfg *config.Config, children *log.Children) (dvr.Native, error) {
	if cfg.Simulator.Enable {
		sim := sdk.NewSim(afero.NewOsFs(), children.SDK.Entry())
		sc := cfg.Simulator
		sim.AddDevice(sc.Host, sc.Port, sdk.DemoDevice(sc.User, sc.Password))
		children.SDK.Infof("simulating recorder at %s:%d", sc.Host, sc.Port)
		return sim, nil
	}
	if !sdk.Available() {
		return nil, fmt.Errorf("%w: build with -tags hcnetsdk or run with -simulate", dvr.ErrSDKUnavailable)
	}
	return sdk.New(), nil
}

func run(cfg *config.Config, children *log.Children) error {
	native, err := openNative(cfg, children)
	if err != nil {
		return err
	}
	if err := dvr.InitOnce(native); err != nil {
		return err
	}
	defer native.Cleanup()

	store := server.NewStore(afero.NewOsFs(), cfg.DataDir)
	if err := store.Prepare(); err != nil {
		return err
	}

	srv := server.New(server.Options{
		Native:       native,
		Store:        store,
		PollInterval: cfg.PollInterval,
		Retention:    cfg.Retention,
		Origins:      cfg.CORS.Origins,
		Log:          children,
	})
	defer srv.Close()

	hs := &http.Server{
		Addr:        cfg.Listen,
		Handler:     srv.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		children.HTTP.Infof("serving on %s", cfg.Listen)
		if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		children.HTTP.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
