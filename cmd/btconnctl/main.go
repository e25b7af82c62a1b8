// Command btconnctl is an interactive console for the profile connection
// engine. It runs one connection service per profile against a simulated
// native link, so engine behavior (admission, collisions, timeouts,
// deferred replay) can be explored without radio hardware.
//
// Usage:
//
//	btconnctl [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-log-file string   CBOR event log path (overrides config)
//	-observer string   Websocket observer listen address (overrides config)
//	-contacts string   Phonebook SQLite path (default in-memory)
//	-sim-delay duration Simulated remote response delay (default 50ms)
//	-verbose           Mirror engine events to stderr
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bthost-project/bthost-go/pkg/config"
	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/engine"
	"github.com/bthost-project/bthost-go/pkg/log"
	"github.com/bthost-project/bthost-go/pkg/notify"
	"github.com/bthost-project/bthost-go/pkg/pbap"
	"github.com/bthost-project/bthost-go/pkg/policy"
	"github.com/bthost-project/bthost-go/pkg/profile"
	"github.com/bthost-project/bthost-go/pkg/service"
	"github.com/bthost-project/bthost-go/pkg/vc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "configuration file path")
		logFile     = flag.String("log-file", "", "CBOR event log path")
		observer    = flag.String("observer", "", "websocket observer listen address")
		contactPath = flag.String("contacts", ":memory:", "phonebook SQLite path")
		simDelay    = flag.Duration("sim-delay", 50*time.Millisecond, "simulated remote response delay")
		verbose     = flag.Bool("verbose", false, "mirror engine events to stderr")
	)
	flag.Parse()

	cfg := &config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *logFile == "" {
		*logFile = cfg.LogFile
	}
	if *observer == "" {
		*observer = cfg.ObserverListen
	}

	table := policy.NewTable()
	cfg.SeedPolicy(table)

	var loggers []log.Logger
	if *logFile != "" {
		fl, err := log.NewFileLogger(*logFile)
		if err != nil {
			return err
		}
		defer fl.Close()
		loggers = append(loggers, fl)
	}
	if *verbose {
		loggers = append(loggers, log.NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	}
	var logger log.Logger = log.NoopLogger{}
	if len(loggers) > 0 {
		logger = log.NewMultiLogger(loggers...)
	}

	hub := notify.NewHub()
	defer hub.Close()
	if *observer != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		go func() {
			if err := http.ListenAndServe(*observer, mux); err != nil {
				fmt.Fprintln(os.Stderr, "observer:", err)
			}
		}()
	}

	store, err := pbap.NewStore(*contactPath)
	if err != nil {
		return err
	}
	defer store.Close()

	volumeLink := &simVolumeLink{}
	coord := vc.NewCoordinator(volumeLink, nil)

	// The console and the services share these maps; the console is built
	// first so transition output can route through its prompt-aware writer.
	services := make(map[profile.ID]*service.ProfileService)
	links := make(map[profile.ID]*simLink)

	cons, err := newConsole(services, links, table, coord)
	if err != nil {
		return err
	}
	volumeLink.setPrintf(cons.printf)
	notifier := notify.NewMulti(hub, notify.Func(cons.onTransition))

	for _, id := range profile.All() {
		link := newSimLink(*simDelay)
		connectTimeout, disconnectTimeout := cfg.Timeouts(id)

		svcCfg := service.Config{
			Profile:           id,
			Link:              link,
			Policy:            table,
			Notifier:          notifier,
			Logger:            logger,
			ConnectTimeout:    connectTimeout,
			DisconnectTimeout: disconnectTimeout,
			MaxEngines:        cfg.MaxDevices,
		}
		switch id {
		case profile.VolumeControl:
			svcCfg.NewExtension = func(addr device.Address) engine.Extension {
				return coord.NewExtension(addr)
			}
		case profile.PbapClient:
			svcCfg.NewExtension = func(addr device.Address) engine.Extension {
				ext := pbap.NewExtension(addr, &simPBAPClient{}, store)
				ext.Pipeline().SetStorageReady(true)
				ext.Pipeline().SetAccountReady(true)
				return ext
			}
		}

		svc, err := service.New(svcCfg)
		if err != nil {
			return err
		}
		defer svc.Stop()

		link.setSink(func(addr device.Address, ind engine.Indication) {
			svc.HandleIndication(addr, ind)
		})
		services[id] = svc
		links[id] = link
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cons.run(ctx, cancel)
	return nil
}

// simPBAPClient accepts phonebook requests and never responds; the
// pipeline sits in Requesting until reset. Good enough for exploring
// engine behavior.
type simPBAPClient struct{}

func (simPBAPClient) RequestPhonebookSize(device.Address) bool  { return true }
func (simPBAPClient) RequestPage(device.Address, int, int) bool { return true }
