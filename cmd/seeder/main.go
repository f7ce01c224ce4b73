package main

import (
	"context"
	"log"

	"github.com/senyabanana/procurement-service/internal/directory"
	"github.com/senyabanana/procurement-service/internal/router/config"

	"github.com/jackc/pgx/v5"
)

// Счета участников заводятся вне движка: сидер читает каталог профилей и
// создаёт счёт на каждого участника с начальным балансом.
const openingBalance = 1_000_000

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	participants, err := directory.Load(cfg.ProfilesDir)
	if err != nil {
		log.Fatalf("error loading participant profiles: %v", err)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.PostgresConn)
	if err != nil {
		log.Fatalf("unable to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	var count int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM account").Scan(&count); err != nil {
		log.Fatalf("account count failed: %v", err)
	}
	if count > 0 {
		log.Printf("database already has %d accounts, skipping", count)
		return
	}

	rows := [][]interface{}{}
	for _, p := range participants.All() {
		rows = append(rows, []interface{}{p.Address, int64(openingBalance)})
	}

	copyCount, err := conn.CopyFrom(
		ctx,
		pgx.Identifier{"account"},
		[]string{"address", "balance"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		log.Fatalf("bulk insert failed: %v", err)
	}

	log.Printf("seeded %d participant accounts", copyCount)
}
