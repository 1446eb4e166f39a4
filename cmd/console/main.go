package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brokerdesk.app/internal/gateway"
	"brokerdesk.app/internal/obs"
	"brokerdesk.app/internal/session"
	"brokerdesk.app/internal/store/pg"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("BROKERDESK_COMMIT"))

	upstreamRaw := os.Getenv("BROKERDESK_UPSTREAM_URL")
	if upstreamRaw == "" {
		log.Fatal("BROKERDESK_UPSTREAM_URL is required")
	}
	upstream, err := url.Parse(upstreamRaw)
	if err != nil {
		log.Fatalf("parse upstream url: %v", err)
	}

	// Session persistence: PostgreSQL when a DSN is set, an on-disk file
	// when a path is set, in-memory otherwise.
	var (
		db    *sql.DB
		store session.Store
	)
	switch {
	case os.Getenv("BROKERDESK_PG_DSN") != "":
		db, err = pg.Open(os.Getenv("BROKERDESK_PG_DSN"))
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		store, err = pg.NewSessionStore(db, os.Getenv("BROKERDESK_SESSION_PROFILE"))
		if err != nil {
			log.Fatalf("session store: %v", err)
		}
	case os.Getenv("BROKERDESK_SESSION_FILE") != "":
		store, err = session.NewFileStore(
			os.Getenv("BROKERDESK_SESSION_FILE"),
			os.Getenv("BROKERDESK_SESSION_KEY"),
		)
		if err != nil {
			log.Fatalf("session store: %v", err)
		}
	default:
		store = session.NewMemStore()
	}

	authClient, err := session.NewClient(upstream.String(), nil)
	if err != nil {
		log.Fatalf("auth client: %v", err)
	}
	sessions, err := session.NewManager(store, authClient)
	if err != nil {
		log.Fatalf("session manager: %v", err)
	}

	probe := gateway.ReadyProbe{DB: db}
	api, err := gateway.New(gateway.Config{
		Version:    version,
		Sessions:   sessions,
		Upstream:   upstream,
		ReadyProbe: probe,
	})
	if err != nil {
		log.Fatalf("gateway: %v", err)
	}

	addr := os.Getenv("BROKERDESK_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Restore the persisted session while the server comes up. Until this
	// settles the guard answers 503, never an authorization verdict.
	go func() {
		ctx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
		defer cancel()
		if err := sessions.Bootstrap(ctx); err != nil {
			log.Printf("session restore: %v", err)
		}
	}()

	grpcSrv, healthSrv := gateway.NewGRPCHealth()
	if grpcAddr := os.Getenv("BROKERDESK_GRPC_ADDR"); grpcAddr != "" {
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				log.Printf("grpc serve: %v", err)
			}
		}()
		go gateway.WatchReadiness(rootCtx, probe, healthSrv, 15*time.Second)
	}

	log.Printf("Starting brokerdesk-console %s on %s (upstream %s)", version, addr, upstream.Host)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(ctx)
	grpcSrv.GracefulStop()
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
