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

	"github.com/joho/godotenv"

	"github.com/aivy-lab/aivy/backend/internal/config"
	"github.com/aivy-lab/aivy/backend/internal/handler"
	chatHandler "github.com/aivy-lab/aivy/backend/internal/handler/chat"
	"github.com/aivy-lab/aivy/backend/internal/service/ai"
	"github.com/aivy-lab/aivy/backend/internal/service/archive"
	"github.com/aivy-lab/aivy/backend/internal/service/auth"
	"github.com/aivy-lab/aivy/backend/internal/service/session"
	"github.com/aivy-lab/aivy/backend/internal/tunnel"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sessions := session.NewManager()

	// Identity provider: Firebase when credentials are present, otherwise an
	// in-memory account table so the app stays usable in development.
	var archiveSvc *archive.Service
	var provider auth.Provider
	if cfg.Firebase.Enabled() {
		app, err := cfg.Firebase.NewApp(ctx)
		if err != nil {
			log.Fatalf("failed to initialize identity provider: %v", err)
		}

		authClient, err := app.Auth(ctx)
		if err != nil {
			log.Fatalf("failed to initialize identity provider: %v", err)
		}
		provider = auth.NewFirebaseProvider(authClient)
		log.Println("identity provider initialized successfully")

		if fsClient, err := app.Firestore(ctx); err != nil {
			log.Printf("warning: failed to initialize transcript archive: %v", err)
			log.Println("continuing without transcript archiving")
		} else {
			archiveSvc = archive.NewService(fsClient)
			defer archiveSvc.Close()
			log.Println("transcript archive initialized successfully")
		}
	} else {
		provider = auth.NewMemoryProvider()
		log.Println("identity credentials not configured, accounts will be in-memory only")
	}
	authSvc := auth.NewService(provider)

	// Completion model
	var aiSvc *ai.Service
	if cfg.AI.Enabled() {
		aiSvc, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - check the ARK_* environment variables")
		} else {
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("completion credentials not configured, skipping AI initialization")
	}

	var replier chatHandler.Replier
	if aiSvc != nil {
		replier = aiSvc
	}
	var archiver chatHandler.Archiver
	if archiveSvc != nil {
		archiver = archiveSvc
	}

	router := handler.NewRouter(authSvc, sessions, replier, archiver)

	startServer(ctx, cfg, router)
}

func startServer(ctx context.Context, cfg *config.Config, router http.Handler) {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if cfg.Tunnel.Enabled() {
		tun, err := tunnel.Open(ctx, cfg.Tunnel.Authtoken)
		if err != nil {
			log.Printf("warning: %v", err)
			log.Println("continuing without public exposure")
		} else {
			log.Printf("your app is live at: %s", tun.URL())
			go func() {
				if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("tunnel serve error: %v", err)
				}
			}()
		}
	}

	log.Printf("Aivy backend listening on %s", cfg.Server.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
