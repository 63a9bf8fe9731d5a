package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"placement/config"
	"placement/routers"
	"placement/services"
	"placement/session"
	"placement/storage"
	"placement/utils"
)

func main() {
	cfg := config.LoadConfig()

	store, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.StorageDriver, err)
	}
	if err := store.Ping(context.Background()); err != nil {
		log.WithError(err).Warn("storage is not reachable yet")
	}

	mailer, err := utils.NewMailer(cfg)
	if err != nil {
		log.Fatalf("Failed to configure mailer: %v", err)
	}
	notifier := services.NewNotifier(mailer)

	sessions := session.NewManager(session.Options{
		Secret:     cfg.SessionSecret,
		TTL:        cfg.SessionTTL,
		CookieName: cfg.SessionCookie,
		Secure:     cfg.CookieSecure,
	})
	scheduler, err := utils.InitializeSessionScheduler(sessions)
	if err != nil {
		log.Fatalf("Failed to start session scheduler: %v", err)
	}

	app := routers.NewApp(routers.Deps{
		Config:   cfg,
		Store:    store,
		Sessions: sessions,
		Auth: services.NewAuthService(store, notifier, services.AuthOptions{
			TTL:        cfg.OTPTTL(),
			ExposeCode: cfg.IsDevelopment(),
		}),
		Jobs:         services.NewJobService(store, nil),
		Applications: services.NewApplicationService(store, notifier, services.ApplicationOptions{EnforceDeadline: cfg.EnforceDeadline}),
		AccessLog:    true,
	})

	go func() {
		log.Printf("Server is running on port %s (storage=%s, mail=%s)", cfg.Port, cfg.StorageDriver, cfg.MailDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	<-scheduler.Stop().Done()
	notifier.Wait()
	if err := store.Close(); err != nil {
		log.WithError(err).Error("close storage")
	}
}
