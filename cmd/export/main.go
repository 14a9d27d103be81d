package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"familyhub/internal/config"
	"familyhub/internal/database"
	"familyhub/internal/logging"
	"familyhub/internal/repository"
	"familyhub/internal/service"

	"go.uber.org/zap"
)

func main() {
	// Define subcommands
	familyCmd := flag.NewFlagSet("family", flag.ExitOnError)
	allCmd := flag.NewFlagSet("all", flag.ExitOnError)

	familyID := familyCmd.Int64("id", 0, "Family ID to export (required)")
	familyOutput := familyCmd.String("output", "", "Output file path (default: family_<id>_YYYYMMDD_HHMMSS.json, - for stdout)")
	allOutput := allCmd.String("output", "", "Output file path (default: families_YYYYMMDD_HHMMSS.json, - for stdout)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "family":
		familyCmd.Parse(os.Args[2:])
		if *familyID <= 0 {
			fmt.Println("Error: -id flag is required")
			familyCmd.PrintDefaults()
			os.Exit(1)
		}
	case "all":
		allCmd.Parse(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadForTools()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	exports := service.NewExportService(
		repository.NewFamilyRepository(db),
		repository.NewPersonaRepository(db),
		repository.NewEventRepository(db),
		repository.NewListRepository(db),
		repository.NewChoreRepository(db),
		repository.NewMessageRepository(db),
		repository.NewSubscriptionRepository(db),
		nil,
		logger,
	)

	timestamp := time.Now().Format("20060102_150405")
	switch os.Args[1] {
	case "family":
		path := *familyOutput
		if path == "" {
			path = fmt.Sprintf("family_%d_%s.json", *familyID, timestamp)
		}
		err = withOutput(path, logger, func(w io.Writer) error {
			export, err := exports.Export(ctx, *familyID)
			if err != nil {
				return err
			}
			return service.WriteJSON(w, export)
		})
	case "all":
		path := *allOutput
		if path == "" {
			path = fmt.Sprintf("families_%s.json", timestamp)
		}
		err = withOutput(path, logger, func(w io.Writer) error {
			_, err := exports.ExportAll(ctx, w)
			return err
		})
	}
	if err != nil {
		logger.Fatal("export failed", zap.Error(err))
	}
}

// withOutput runs write against the file at path, or stdout for "-"
func withOutput(path string, logger *zap.Logger, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	if info, err := os.Stat(path); err == nil {
		logger.Info("export complete", zap.String("path", path), zap.Float64("size_mb", float64(info.Size())/1024/1024))
	}
	return nil
}

func printUsage() {
	fmt.Println("FamilyHub Export Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  export family -id <id> [options]    Export one family to a JSON file")
	fmt.Println("  export all [options]                Export every family to one JSON file")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -output <file>    Output file path, - for stdout")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, pgx or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./familyhub.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
