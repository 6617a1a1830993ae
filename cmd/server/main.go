package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"kata/internal/auth"
	"kata/internal/config"
	"kata/internal/container"
	"kata/internal/handlers"
	"kata/internal/logger"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	logger.Init()
	log := logger.Get()

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}
	defer c.Close()

	r := mux.NewRouter()
	r.Use(auth.Middleware(c.Auth, log))
	handlers.New(c).Register(r)

	server := &http.Server{
		Addr:         ":" + config.GetEnv("PORT", "8080"),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
