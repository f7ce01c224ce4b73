package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/senyabanana/procurement-service/internal/db"
	"github.com/senyabanana/procurement-service/internal/directory"
	"github.com/senyabanana/procurement-service/internal/engine"
	"github.com/senyabanana/procurement-service/internal/handlers"
	"github.com/senyabanana/procurement-service/internal/repository"
	"github.com/senyabanana/procurement-service/internal/router"
	"github.com/senyabanana/procurement-service/internal/router/config"
	"github.com/senyabanana/procurement-service/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	runDBMigration(cfg.MigrationURL, cfg.PostgresConn)

	dbPool, err := db.InitDb(cfg)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer dbPool.Close()

	participants, err := directory.Load(cfg.ProfilesDir)
	if err != nil {
		log.Fatalf("error loading participant profiles: %v", err)
	}

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)

	ledger := repository.NewPostgresLedgerClient(dbPool)
	machine := engine.NewMachine(cfg.PayRequiresReceipt)

	workflowService := services.NewWorkflowService(ledger, participants, machine)
	workflowHandler := handlers.NewWorkflowHandler(workflowService, logger, 5*time.Second)

	routes := router.InitRoutes(workflowHandler)

	log.Printf("server is listening on %s...", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, routes); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}
