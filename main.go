package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arenagame/config"
	"arenagame/network"
	"arenagame/room"
)

func main() {
	config.InitConfig()
	cfg := config.Load()

	manager := room.NewManager(room.Options{
		MaxRooms:       cfg.MaxRooms,
		ReconnectGrace: cfg.ReconnectGrace,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      network.NewRouter(manager, cfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s (ws endpoint: /ws)", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	manager.Close()
}
