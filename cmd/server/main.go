package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"emberhollow.gg/internal/catalog"
	"emberhollow.gg/internal/config"
	"emberhollow.gg/internal/protocol"
	"emberhollow.gg/internal/state"
	"emberhollow.gg/internal/town"
	"emberhollow.gg/internal/transport/httpapi"
	"emberhollow.gg/internal/transport/ws"
)

func main() {
	var (
		cfgPath   = flag.String("config", "", "path to server.yaml (optional)")
		addr      = flag.String("addr", "", "http listen address (overrides config)")
		dbPath    = flag.String("db", "", "sqlite database path (overrides config)")
		configDir = flag.String("configs", "", "catalog config directory (overrides config)")
		schemaDir = flag.String("schemas", "", "request schema directory (overrides config)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *configDir != "" {
		cfg.ConfigDir = *configDir
	}
	if *schemaDir != "" {
		cfg.SchemaDir = *schemaDir
	}

	cat, err := catalog.Load(cfg.ConfigDir)
	if err != nil {
		logger.Fatalf("catalog: %v", err)
	}
	logger.Printf("catalog loaded: %d npcs, %d events (npcs digest %s)", len(cat.NPCs), len(cat.Events), cat.Digests.NPCs[:12])

	schemas, err := protocol.CompileSchemas(cfg.SchemaDir)
	if err != nil {
		logger.Fatalf("schemas: %v", err)
	}

	store, err := state.Open(cfg.DBPath)
	if err != nil {
		logger.Fatalf("state: %v", err)
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := store.SeedItemTypes(ctx, cat); err != nil {
		logger.Fatalf("seed item types: %v", err)
	}

	svc := town.NewService(cat, store, logger)
	hub := ws.NewHub()
	api := httpapi.NewServer(svc, store, schemas, hub, logger, cfg.SessionCookie)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		api.Metrics.WritePrometheus(rw, hub.Sessions())
	})
	api.Register(mux)
	mux.HandleFunc("/v1/ws", ws.NewServer(svc, store, hub, logger, cfg.SessionCookie, cfg.WSSendBuffer).Handler())

	if cfg.EnableAdminHTTP {
		// Local-only: dump the persisted facts for one user.
		mux.HandleFunc("/admin/v1/player", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			userID := r.URL.Query().Get("user_id")
			dump, err := store.ExportPlayer(r.Context(), userID)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusNotFound)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(dump)
		})
	} else {
		logger.Printf("admin endpoints disabled")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
