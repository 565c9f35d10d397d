package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/google/uuid"
	"github.com/swarmcoin/swarmcoin/app/services/node/handlers"
	"github.com/swarmcoin/swarmcoin/app/services/node/peernet"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/discovery"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/peer"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/state"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage/badgerdb"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage/disk"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/worker"
	"github.com/swarmcoin/swarmcoin/foundation/events"
	"github.com/swarmcoin/swarmcoin/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in
// the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			APIHost         string        `conf:"default:0.0.0.0:8080"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
		}
		Node struct {
			MinerAccount string        `conf:"help:wallet address credited with mining rewards"`
			P2PHost      string        `conf:"default:0.0.0.0:5000"`
			KnownPeers   []string      `conf:"help:initial peer endpoints"`
			Difficulty   int           `conf:"default:4"`
			BlockReward  float64       `conf:"default:6.25"`
			MaxSupply    float64       `conf:"default:21000000"`
			SendTimeout  time.Duration `conf:"default:1s"`
			BootstrapURL string        `conf:"help:url of a json list of bootstrap peers"`
			TrackerURL   string        `conf:"help:base url of the tracker api"`
		}
		Storage struct {
			Driver    string `conf:"default:disk,help:disk or badger"`
			Path      string `conf:"default:zblock/chain_state.json"`
			BadgerDir string `conf:"default:zblock/badger"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// The wallet address is an unverified label in this design. Generate a
	// fresh one when none is configured so mining rewards land somewhere.
	minerAccount := cfg.Node.MinerAccount
	if minerAccount == "" {
		minerAccount = uuid.NewString()
		log.Infow("startup", "status", "generated wallet address", "account", minerAccount)
	}

	// =========================================================================
	// Storage Support

	var store storage.Storage
	switch cfg.Storage.Driver {
	case "disk":
		store, err = disk.New(cfg.Storage.Path)
	case "badger":
		store, err = badgerdb.New(cfg.Storage.BadgerDir)
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return fmt.Errorf("open snapshot storage: %w", err)
	}

	// =========================================================================
	// Blockchain Support

	// A peer set is a collection of known nodes in the network so
	// transactions and blocks can be shared.
	peerSet := peer.NewPeerSet()
	for _, host := range cfg.Node.KnownPeers {
		peerSet.Add(peer.New(host))
	}

	// The blockchain packages accept a function of this signature to allow
	// the application to log. These raw messages are also sent to any
	// websocket client connected through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	st, err := state.New(state.Config{
		MinerAccount: minerAccount,
		Host:         cfg.Node.P2PHost,
		Difficulty:   cfg.Node.Difficulty,
		BlockReward:  cfg.Node.BlockReward,
		MaxSupply:    cfg.Node.MaxSupply,
		Storage:      store,
		KnownPeers:   peerSet,
		EvHandler:    ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker performs the best-effort fan-out to peers using the socket
	// transport. The worker registers itself with the state.
	worker.Run(st, peernet.NewClient(cfg.Node.SendTimeout), ev)

	// =========================================================================
	// Peer Discovery

	// Both adapters are optional and every failure here is a warning. The
	// node proceeds with whatever peers it already has.
	dsc := discovery.New()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Node.BootstrapURL != "" {
		hosts, err := dsc.FetchBootstrapPeers(ctx, cfg.Node.BootstrapURL)
		if err != nil {
			log.Infow("startup", "status", "bootstrap load failed", "WARNING", err)
		}
		for _, host := range hosts {
			st.AddKnownPeer(host)
		}
	}

	if cfg.Node.TrackerURL != "" {
		if err := dsc.RegisterWithTracker(ctx, cfg.Node.TrackerURL, cfg.Node.P2PHost); err != nil {
			log.Infow("startup", "status", "tracker register failed", "WARNING", err)
		}
		hosts, err := dsc.FetchTrackerPeers(ctx, cfg.Node.TrackerURL)
		if err != nil {
			log.Infow("startup", "status", "tracker fetch failed", "WARNING", err)
		}
		for _, host := range hosts {
			st.AddKnownPeer(host)
		}
	}

	// =========================================================================
	// Start Peer Socket Listener

	p2pSrv, err := peernet.NewServer(cfg.Node.P2PHost, st, log)
	if err != nil {
		return fmt.Errorf("starting peer listener: %w", err)
	}
	defer p2pSrv.Shutdown()

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// Not concerned with shutting this down with load shedding.
	debugMux := handlers.DebugMux(build, log)
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	// Make a channel to listen for an interrupt or terminate signal from
	// the OS. Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
	})

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this
	// error.
	serverErrors := make(chan error, 1)

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
