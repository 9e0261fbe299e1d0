// Command migrate applies or inspects the versioned database schema.
//
//	migrate up       apply pending migrations and verify the schema
//	migrate goto N   apply migrations up to version N (never down)
//	migrate version  print the current schema version
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/Pilar-d/pendientes/internal/config"
	"github.com/Pilar-d/pendientes/internal/infrastructure/database"
	"github.com/Pilar-d/pendientes/pkg/logger"
	schemaUC "github.com/Pilar-d/pendientes/usecase/schema"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [up|goto N|version]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	zapLogger, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: "console"})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()
	migrator := database.NewMigrator(cfg.Database, zapLogger)

	switch cmd {
	case "up":
		db, err := database.Open(ctx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("database connection failed", zap.Error(err))
		}
		defer db.Close()

		version, err := schemaUC.New(migrator, database.NewVerifier(db), zapLogger).Upgrade(ctx)
		if err != nil {
			zapLogger.Fatal("migration failed", zap.Uint("version", version), zap.Error(err))
		}
		fmt.Printf("schema at version %d\n", version)
	case "goto":
		target, err := strconv.ParseUint(flag.Arg(1), 10, 32)
		if err != nil {
			flag.Usage()
			os.Exit(2)
		}
		version, err := schemaUC.New(migrator, nil, zapLogger).UpgradeTo(ctx, uint(target))
		if err != nil {
			zapLogger.Fatal("migration failed", zap.Uint("version", version), zap.Error(err))
		}
		fmt.Printf("schema at version %d\n", version)
	case "version":
		version, dirty, err := migrator.Version(ctx)
		if err != nil {
			zapLogger.Fatal("read version failed", zap.Error(err))
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
