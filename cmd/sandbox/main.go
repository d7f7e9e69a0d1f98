// Command sandbox serves a local stand-in for the admin API with seeded data.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admingate/internal/config"
	"admingate/internal/observability"
	"admingate/internal/sandbox"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.SetLevel(cfg.LogLevel)

	shutdownTracing, err := observability.InitTracing(cfg.Tracing("admingate-sandbox"))
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx := context.Background()
	db, err := sandbox.Open(cfg.SandboxDBDriver, cfg.SandboxDSN)
	if err != nil {
		log.Fatalf("Failed to open sandbox database: %v", err)
	}
	if err := sandbox.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate sandbox database: %v", err)
	}

	var users int64
	db.Model(&sandbox.User{}).Count(&users)
	if users == 0 {
		seeded, err := sandbox.Seed(ctx, db, sandbox.SeedOptions{Customers: cfg.SandboxSeedUsers})
		if err != nil {
			log.Fatalf("Failed to seed sandbox: %v", err)
		}
		for label, u := range map[string]*sandbox.User{
			"main_admin": seeded.MainAdmin,
			"admin":      seeded.Admin,
			"manager":    seeded.Manager,
			"sales":      seeded.Sales,
		} {
			token, err := sandbox.IssueToken(cfg.SandboxJWTSecret, u.ID, 24*time.Hour)
			if err != nil {
				log.Fatalf("Failed to issue sandbox token: %v", err)
			}
			observability.GlobalLogger.Info("sandbox account", "account", label, "email", u.Email, "user_id", u.ID, "token", token)
		}
	}

	srv := sandbox.New(db, sandbox.Options{
		JWTSecret: cfg.SandboxJWTSecret,
		Policy:    cfg.Policy(),
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		observability.GlobalLogger.Info("shutting down sandbox")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Sandbox shutdown error: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	if err := srv.Listen(":" + cfg.SandboxPort); err != nil {
		log.Fatalf("Sandbox server error: %v", err)
	}
}
