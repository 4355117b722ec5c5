package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/ofarias/receipt-tracker/internal/ocr"
	"github.com/ofarias/receipt-tracker/internal/receipt"
	"github.com/ofarias/receipt-tracker/internal/server"
	"github.com/ofarias/receipt-tracker/internal/user"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("receipt-tracker")
	var (
		port        = fs.IntLong("port", 3001, "HTTP server port")
		dbPath      = fs.StringLong("db", "receipt-tracker.db", "Database file path")
		storagePath = fs.StringLong("storage", "./uploads", "Storage directory path")
		ocrURL      = fs.StringLong("ocr-url", "http://localhost:8000", "OCR service base URL")
		jwtSecret   = fs.StringLong("jwt-secret", "", "JWT signing secret (or set RECEIPT_TRACKER_JWT_SECRET env var)")
		jwtTTL      = fs.DurationLong("jwt-ttl", time.Hour, "JWT token lifetime")
		taxRate     = fs.Float64Long("tax-rate", 13, "Tax rate in percent applied to receipt amounts")
		smtpHost    = fs.StringLong("smtp-host", "", "SMTP host (empty logs mail instead of sending)")
		smtpPort    = fs.IntLong("smtp-port", 587, "SMTP port")
		smtpUser    = fs.StringLong("smtp-user", "", "SMTP username")
		smtpPass    = fs.StringLong("smtp-pass", "", "SMTP password")
		mailFrom    = fs.StringLong("mail-from", "no-reply@localhost", "From address for account mail")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *jwtSecret == "" {
		slog.Error("JWT secret is required. Set --jwt-secret flag or RECEIPT_TRACKER_JWT_SECRET environment variable")
		os.Exit(1)
	}

	// Initialize database; users and receipts share one file
	slog.Info("Initializing database...")
	receiptDB, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer receiptDB.Close()

	userDB, err := user.NewBoltDBFromExisting(receiptDB.Bolt())
	if err != nil {
		slog.Error("Failed to initialize user buckets", "error", err)
		os.Exit(1)
	}

	// Initialize OCR engine client
	slog.Info("Initializing OCR client...", "url", *ocrURL)
	engine, err := ocr.NewHTTPEngine(*ocrURL)
	if err != nil {
		slog.Error("Failed to initialize OCR client", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize mailer
	var mailer user.Mailer
	if *smtpHost != "" {
		slog.Info("Initializing SMTP mailer...", "host", *smtpHost, "port", *smtpPort)
		mailer = user.NewSMTPMailer(*smtpHost, *smtpPort, *smtpUser, *smtpPass, *mailFrom)
	} else {
		slog.Info("SMTP not configured, account mail will be logged")
		mailer = user.LogMailer{}
	}

	// Initialize services
	tokens := user.NewTokenIssuer(*jwtSecret, *jwtTTL)
	userService := user.NewService(userDB, mailer, tokens)
	receiptService := receipt.NewService(receiptDB, engine, store, *taxRate)

	// Initialize server
	srv := server.New(userService, receiptService)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := srv.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
