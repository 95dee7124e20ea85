// Package config loads the environment configuration and builds the storage
// and mail transport it describes.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/go-pg/pg"
	"github.com/joho/godotenv"
	"github.com/mailgun/mailgun-go/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/interactive-solutions/go-mailform"
	sesprovider "github.com/interactive-solutions/go-mailform/provider/aws"
	"github.com/interactive-solutions/go-mailform/provider/graph"
	mailgunprovider "github.com/interactive-solutions/go-mailform/provider/mailgun"
	"github.com/interactive-solutions/go-mailform/provider/smtp"
	gopg "github.com/interactive-solutions/go-mailform/storage/go-pg"
	"github.com/interactive-solutions/go-mailform/storage/sqlite"
)

const (
	StorageSqlite   = "sqlite"
	StoragePostgres = "postgres"
)

var ErrUnknownStorageDriver = errors.New("Unknown storage driver")

type Config struct {
	// Server
	Port          string
	SessionSecret string

	// Storage
	StorageDriver    string
	DatabaseLocation string
	PostgresAddr     string
	PostgresUser     string
	PostgresPassword string
	PostgresDatabase string

	FromAddress string

	// SMTP
	UseSmtp      bool
	SmtpServer   string
	SmtpPort     int
	SmtpUser     string
	SmtpPassword string
	SmtpUseSSL   bool

	// Microsoft Graph
	UseExchange       bool
	AzureTenantId     string
	AzureClientId     string
	AzureClientSecret string
	GraphRetryMax     int

	// Amazon SES
	UseSes    bool
	AwsRegion string

	// Mailgun
	UseMailgun    bool
	MailgunDomain string
	MailgunApiKey string
}

// Load reads the configuration from the environment, after loading a .env
// file from the working directory when present.
func Load() (*Config, error) {
	godotenv.Load()

	return FromEnv()
}

// FromEnv reads the configuration from the environment only.
func FromEnv() (*Config, error) {
	var err error

	cfg := &Config{
		Port:          getEnv("PORT", "3000"),
		SessionSecret: getEnv("SESSION_SECRET", ""),

		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", StorageSqlite)),
		DatabaseLocation: getEnv("DATABASE_LOCATION", "./databases"),
		PostgresAddr:     getEnv("POSTGRES_ADDR", "localhost:5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDatabase: getEnv("POSTGRES_DATABASE", "mailform"),

		FromAddress: getEnv("FROM_ADDRESS", ""),

		UseSmtp:      getBool("MAIL_USE_SMTP"),
		SmtpServer:   getEnv("SMTP_SERVER", ""),
		SmtpUser:     getEnv("SMTP_USER", ""),
		SmtpPassword: getEnv("SMTP_PASS", ""),
		SmtpUseSSL:   getBool("SMTP_USE_SSL"),

		UseExchange:       getBool("MAIL_USE_EXCHANGE"),
		AzureTenantId:     getEnv("AZURE_TENENT_ID", getEnv("AZURE_TENANT_ID", "")),
		AzureClientId:     getEnv("AZURE_CLIENT_ID", ""),
		AzureClientSecret: getEnv("AZURE_CLIENT_SECRET", ""),

		UseSes:    getBool("MAIL_USE_SES"),
		AwsRegion: getEnv("AWS_REGION", ""),

		UseMailgun:    getBool("MAIL_USE_MAILGUN"),
		MailgunDomain: getEnv("MAILGUN_DOMAIN", ""),
		MailgunApiKey: getEnv("MAILGUN_API_KEY", ""),
	}

	if cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587")); err != nil {
		return nil, errors.Wrap(err, "invalid SMTP_PORT")
	}

	if cfg.GraphRetryMax, err = strconv.Atoi(getEnv("GRAPH_RETRY_MAX", "0")); err != nil {
		return nil, errors.Wrap(err, "invalid GRAPH_RETRY_MAX")
	}

	return cfg, nil
}

// NewEmailTransport builds the first enabled transport, checked in the order
// SMTP, Exchange, SES, Mailgun. It returns ErrMailTransportNotConfigured when
// none is enabled.
func NewEmailTransport(cfg *Config, logger logrus.FieldLogger) (mailform.EmailTransport, error) {
	switch {
	case cfg.UseSmtp:
		return smtp.NewSmtpTransport(smtp.Config{
			Host:     cfg.SmtpServer,
			Port:     cfg.SmtpPort,
			Username: cfg.SmtpUser,
			Password: cfg.SmtpPassword,
			UseSSL:   cfg.SmtpUseSSL,
			From:     cfg.FromAddress,
		}), nil

	case cfg.UseExchange:
		transport, err := graph.NewGraphTransport(graph.Config{
			TenantId:     cfg.AzureTenantId,
			ClientId:     cfg.AzureClientId,
			ClientSecret: cfg.AzureClientSecret,
			From:         cfg.FromAddress,
			RetryMax:     cfg.GraphRetryMax,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}

		return transport, nil

	case cfg.UseSes:
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.AwsRegion)})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create aws session")
		}

		return sesprovider.NewSesTransport(sess, cfg.FromAddress), nil

	case cfg.UseMailgun:
		if cfg.MailgunDomain == "" || cfg.MailgunApiKey == "" {
			return nil, errors.New("MAILGUN_DOMAIN and MAILGUN_API_KEY are required")
		}

		return mailgunprovider.NewMailgunTransport(
			mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunApiKey),
			mailgunprovider.SetFrom(cfg.FromAddress),
		)
	}

	return nil, mailform.ErrMailTransportNotConfigured
}

// NewTemplateRepository builds the repository selected by StorageDriver. The
// returned close func releases the connection pool, if any.
func NewTemplateRepository(cfg *Config) (mailform.TemplateRepository, func() error, error) {
	switch cfg.StorageDriver {
	case StorageSqlite, "":
		repo, err := sqlite.NewTemplateRepository(cfg.DatabaseLocation)

		return repo, func() error { return nil }, err

	case StoragePostgres:
		db := pg.Connect(&pg.Options{
			Addr:     cfg.PostgresAddr,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			Database: cfg.PostgresDatabase,
		})

		if err := gopg.CreateSchema(db); err != nil {
			db.Close()
			return nil, nil, err
		}

		return gopg.NewTemplateRepository(db), db.Close, nil
	}

	return nil, nil, errors.Wrap(ErrUnknownStorageDriver, cfg.StorageDriver)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getBool(key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(getEnv(key, "false")))

	return err == nil && value
}
