// Command migrate applies the database schema and optional sample data.
package main

import (
	"context"
	"database/sql"
	"flag"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-ordering/internal/config"
	"ms-ordering/internal/database/migrations"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

func main() {
	down := flag.Bool("down", false, "roll back all migrations")
	seed := flag.Bool("seed", false, "insert sample data after migrating")
	dir := flag.String("dir", "./migrations", "migrations directory")
	flag.Parse()

	_ = godotenv.Load()

	log, err := logger.New("logs")
	if err != nil {
		panic(err)
	}
	defer log.Close()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer sqldb.Close()

	bdb := bun.NewDB(sqldb, pgdialect.New())
	runner := migrations.NewRunner(bdb, migrations.Options{Dir: *dir}, log)
	defer runner.Close()

	if *down {
		if err := runner.Down(); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
		log.Info("MIGRATE", "rolled back all migrations")
		return
	}

	if err := runner.Up(); err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", "migrations applied")

	if *seed {
		if err := seedData(context.Background(), bdb); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
		log.Info("MIGRATE", "sample data inserted")
	}
}

// seedData inserts a small event a developer can order against locally.
func seedData(ctx context.Context, bdb *bun.DB) error {
	now := time.Now()

	event := &models.Event{
		ID:          uuid.NewString(),
		Name:        "Summer Fest",
		Description: "Annual summer music festival.",
		StartTime:   now.AddDate(0, 1, 0),
		EndTime:     now.AddDate(0, 1, 3),
		IsPublished: true,
		CreatedAt:   now,
	}
	if _, err := bdb.NewInsert().Model(event).Exec(ctx); err != nil {
		return err
	}

	ticketTypes := []*models.TicketType{
		{
			ID:         uuid.NewString(),
			EventID:    event.ID,
			Name:       "General Admission",
			PriceCents: 2500,
			Quantity:   500,
			Visibility: models.VisibilityVisible,
			CreatedAt:  now,
		},
		{
			ID:          uuid.NewString(),
			EventID:     event.ID,
			Name:        "VIP",
			PriceCents:  7500,
			Quantity:    50,
			Visibility:  models.VisibilityVisible,
			MaxPerOrder: 4,
			CreatedAt:   now,
		},
	}
	if _, err := bdb.NewInsert().Model(&ticketTypes).Exec(ctx); err != nil {
		return err
	}

	addon := &models.Addon{
		ID:         uuid.NewString(),
		EventID:    event.ID,
		Name:       "Parking Pass",
		PriceCents: 1000,
		CreatedAt:  now,
	}
	if _, err := bdb.NewInsert().Model(addon).Exec(ctx); err != nil {
		return err
	}

	promo := &models.PromoCode{
		ID:                 uuid.NewString(),
		Key:                "SUMMER20",
		Name:               "Summer opening discount",
		RedemptionLimit:    100,
		PercentageDiscount: 20,
		PromoStart:         now,
		PromoEnd:           now.AddDate(0, 2, 0),
		TicketTypeIDs:      []string{ticketTypes[0].ID},
		CreatedAt:          now,
	}
	if _, err := bdb.NewInsert().Model(promo).Exec(ctx); err != nil {
		return err
	}

	return nil
}
