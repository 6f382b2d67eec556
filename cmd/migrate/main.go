package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-roster-api/pkg/config"
	"github.com/noah-isme/sma-roster-api/pkg/database"
	"github.com/noah-isme/sma-roster-api/pkg/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [up|down|version]\n", os.Args[0])
		flag.PrintDefaults()
	}
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, logr)
	if err != nil {
		logr.Fatal("failed to load migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch command {
	case "up":
		applied, err := migrator.Up(ctx)
		if err != nil {
			logr.Fatal("migration failed", zap.Int("applied", applied), zap.Error(err))
		}
		logr.Info("migrations complete", zap.Int("applied", applied))
	case "down":
		if err := migrator.Down(ctx); err != nil {
			logr.Fatal("rollback failed", zap.Error(err))
		}
	case "version":
		version, err := migrator.CurrentVersion(ctx)
		if err != nil {
			logr.Fatal("failed to read version", zap.Error(err))
		}
		fmt.Println(version)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
