package main

import (
	"context"
	"flag"
	"time"

	mongoMigration "agendabot/internal/migrations/mongo"
	tenantrepo "agendabot/internal/tenants/repository"
	tenantvalidator "agendabot/internal/tenants/validator"
	"agendabot/pkg/config"
)

const JobName = "mongo-migration"

func main() {
	seedPath := flag.String("seed", "", "JSON file with tenants and services to upsert after migrating")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	cfg := config.Load(JobName)
	cfg.SetMongo()
	cfg.Log.Info("Starting Mongo migration job")
	defer cfg.GracefulShutdown()

	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	if *seedPath != "" {
		seedTenants(ctx, cfg, *seedPath)
	}
	cfg.Log.Info("Migration completed successfully")
}

func seedTenants(ctx context.Context, cfg *config.Config, path string) {
	seed, err := mongoMigration.LoadSeed(path)
	if err != nil {
		cfg.Log.Fatal("Failed to load seed", "path", path, "error", err)
	}
	err = mongoMigration.Seed(ctx, seed,
		tenantrepo.NewMongoTenantRepository(cfg),
		tenantrepo.NewMongoServiceRepository(cfg),
		tenantvalidator.NewTenantValidator(cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Seeding failed", "path", path, "error", err)
	}
}
