package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vladimirvolkov/cannonball/internal/config"
	"github.com/vladimirvolkov/cannonball/internal/game"
	"github.com/vladimirvolkov/cannonball/internal/middleware"
	"github.com/vladimirvolkov/cannonball/internal/ws"
)

// GameManager turns accepted connections into running sessions.
type GameManager struct {
	hub *ws.Hub
	sim *game.Simulator
	ctx context.Context
}

func (gm *GameManager) CreateSession(c *ws.Conn) {
	s := game.NewSession(gm.sim, c, c.ID, c.Nickname)
	s.Start(gm.ctx)
	go func() {
		select {
		case <-s.Done():
		case <-c.Done():
			s.Stop()
			<-s.Done()
		}
		gm.hub.SessionEnded()
		c.Close()
	}()
}

func main() {
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	params, err := config.LoadParams(cfg.TuningFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	scene, err := config.LoadScene(cfg.SceneFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	sim, err := game.NewSimulator(params, scene)
	if err != nil {
		log.Fatalf("simulator: %v", err)
	}
	log.Printf("scene %q: %d targets, %d props", scene.Name, len(scene.Targets), len(scene.Props))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewIPRateLimiter(ctx, cfg.Limits)
	manager := &GameManager{sim: sim, ctx: ctx}
	hub := ws.NewHub(manager, limiter, cfg.AllowedOrigins, cfg.MaxSessions)
	manager.hub = hub

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.Stats())
	})
	mux.Handle("/", middleware.NoCache(http.FileServer(http.Dir(cfg.StaticDir))))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.SecurityHeaders(mux),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	go func() {
		<-ctx.Done()
		log.Println("shutting down...")
		server.Close()
	}()

	log.Printf("cannonball server starting on :%s", cfg.Port)
	log.Printf("serving static files from %s", cfg.StaticDir)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
	log.Println("server stopped")
}
