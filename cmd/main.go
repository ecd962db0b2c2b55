package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"trusthaven/internal/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	cfg, err := config.LoadConfig()
	if err != nil {
		errorLog.Fatal(err)
	}
	addr := flag.String("addr", cfg.Server.Address, "HTTP network address")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		errorLog.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		errorLog.Fatalf("redis: %v", err)
	}

	app, err := initializeApp(ctx, cfg, db, rdb, errorLog, infoLog)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer app.close()

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Refresh-Token"},
		ExposedHeaders:   []string{"Authorization"},
	})

	srv := &http.Server{
		Addr:         *addr,
		ErrorLog:     errorLog,
		Handler:      c.Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		app.runSessionCleaner(gctx)
		return nil
	})
	g.Go(func() error {
		infoLog.Printf("Starting server on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		infoLog.Printf("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		errorLog.Fatal(err)
	}
}
