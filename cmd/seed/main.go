package main

import (
	"context"
	"flag"
	"log"
	"time"

	"mechat/internal/config"
	"mechat/internal/promptstore"
	"mechat/internal/repository/postgres"
	"mechat/internal/service/auth"
	"mechat/internal/service/prompt"

	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before creating the schema (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up the database schema, don't seed prompts")
	promptsOnly := flag.Bool("prompts-only", false, "Only seed recommended prompts, don't touch the database")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// Destructive operations are never allowed against production tables
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: --drop-tables is not allowed in the prod environment")
	}

	logger, closer, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if !*promptsOnly {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		tables := postgres.NewTableNames(cfg.TablePrefix)

		if *dropTables {
			logger.Warn("dropping tables", "table_prefix", cfg.TablePrefix)
			if err := postgres.DropTables(ctx, pool, tables); err != nil {
				log.Fatalf("Failed to drop tables: %v", err)
			}
		}

		if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
			log.Fatalf("Failed to run schema: %v", err)
		}
		logger.Info("schema ready", "table_prefix", cfg.TablePrefix)
	}

	if *schemaOnly {
		return
	}

	if cfg.PromptStoreURL == "" {
		logger.Warn("PROMPT_STORE_URL not set, skipping prompt seed")
		return
	}

	store := promptstore.NewClient(cfg.PromptStoreURL, cfg.PromptStoreAuth, logger)
	promptService := prompt.NewPromptService(store, auth.NewOwnerBasedAuthorizer(store), logger)

	written, err := promptService.SeedPrompts(ctx)
	if err != nil {
		log.Fatalf("Failed to seed prompts: %v", err)
	}
	logger.Info("prompt seed complete", "written", written)
}
