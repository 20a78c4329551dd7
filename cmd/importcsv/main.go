package main

import (
	"context"
	"flag"
	"log"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/database"
	"github.com/Baaaki/yamdb/internal/importer"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	dir := flag.String("dir", cfg.ImportDir, "directory holding the CSV files")
	silent := flag.Bool("silent", false, "do not log every imported row")
	flag.Parse()

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	l := logger.Named("importcsv")

	db, err := database.Connect(cfg)
	if err != nil {
		l.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		l.Fatal("Failed to migrate database", zap.Error(err))
	}

	summary, err := importer.New(db, *dir, *silent).Run(context.Background())
	if err != nil {
		l.Fatal("Import failed", zap.Error(err))
	}

	total := 0
	for _, n := range summary {
		total += n
	}
	l.Info("Import finished",
		zap.String("dir", *dir),
		zap.Int("files", len(summary)),
		zap.Int("rows", total),
	)
}
