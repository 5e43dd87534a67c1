package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sholdev/music_school/internal/config"
	"github.com/sholdev/music_school/internal/es"
	"github.com/sholdev/music_school/internal/handlers"
	"github.com/sholdev/music_school/internal/logging"
	"github.com/sholdev/music_school/internal/mail"
	"github.com/sholdev/music_school/internal/mykafka"
	"github.com/sholdev/music_school/internal/repo"
	"github.com/sholdev/music_school/internal/roles"
	"github.com/sholdev/music_school/internal/service"
	"github.com/sholdev/music_school/internal/service/search"
	httpserver "github.com/sholdev/music_school/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL ERROR: %v", err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	roleTable, err := roles.Resolve()
	if err != nil {
		log.Fatalf("role table error: %v", err)
	}

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	userRepo := &repo.UserRepo{DB: db}
	mailer := &mail.SMTPMailer{
		Host:     configuration.SMTP_HOST,
		Port:     configuration.SMTP_PORT,
		Username: configuration.SMTP_USER,
		Password: configuration.SMTP_PASSWORD,
		From:     configuration.MAIL_FROM,
	}

	authSvc := &service.AuthService{
		Repo:          userRepo,
		AccessSecret:  []byte(configuration.ACCESS_TOKEN_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_TOKEN_SECRET),
		Mailer:        mailer,
		BaseURL:       configuration.APP_BASE_URL,
	}
	if producer != nil {
		authSvc.Events = producer
	}

	deps := &httpserver.Deps{
		Logger:            logger,
		AccessSecret:      []byte(configuration.ACCESS_TOKEN_SECRET),
		Roles:             roleTable,
		AuthHandler:       &handlers.AuthHandler{Service: authSvc},
		UsersHandler:      &handlers.UsersHandler{Repo: userRepo},
		ProfileHandler:    &handlers.ProfileHandler{Repo: userRepo, UploadDir: configuration.UPLOAD_DIR},
		DepartmentHandler: &handlers.DepartmentHandler{DB: db},
		InstrumentHandler: &handlers.InstrumentHandler{DB: db},
		NoteHandler:       &handlers.NoteHandler{DB: db, Index: search.NotesIndex},
	}

	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		deps.NoteHandler.ES = esClient
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
