package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/njprem/User_Hub_APP_BackEnd/internal/config"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/logging"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/media"
	miniorepo "github.com/njprem/User_Hub_APP_BackEnd/internal/repository/minio"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/repository/postgres"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/service"
	transport "github.com/njprem/User_Hub_APP_BackEnd/internal/transport/http"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/transport/mail"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	sessionTTL := parseTTL(cfg.SessionTTL, 24*time.Hour)
	codeTTL := parseTTL(cfg.EmailCodeTTL, 24*time.Hour)

	mailer := mail.NewAccountMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPUseTLS)
	jwtManager := util.NewJWTManager(cfg.JWTSecret, sessionTTL)

	accounts := service.NewAccountService(
		postgres.NewUserRepo(db),
		postgres.NewEmailCodeRepo(db),
		mailer,
		jwtManager,
		codeTTL,
	)

	imageUploads := false
	if cfg.MinIOEndpoint != "" {
		client, err := miniorepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			log.Fatalf("connect minio: %v", err)
		}
		storage := miniorepo.NewStorage(client, cfg.MinIOPublicURL, cfg.MinIOUseSSL)
		probe := media.NewProbe(cfg.ProfileImageMaxBytes, media.DefaultMaxDimension)
		accounts.WithImageStorage(storage, probe, cfg.MinIOBucketProfile)
		imageUploads = true
	}

	e := transport.NewRouter(cfg.AllowOrigins)
	transport.RegisterUsers(e, accounts, imageUploads)
	transport.RegisterSwagger(e)
	transport.RegisterPages(e)

	log.Fatal(e.Start(":" + cfg.Port))
}

func parseTTL(raw string, fallback time.Duration) time.Duration {
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		log.Printf("invalid duration %q, using %s", raw, fallback)
		return fallback
	}
	return ttl
}
