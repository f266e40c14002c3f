package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/jstittsworth/lotto-engine/internal/models"
	"github.com/jstittsworth/lotto-engine/pkg/config"
	"github.com/jstittsworth/lotto-engine/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	if err := db.AutoMigrate(
		&models.DrawRecord{},
		&models.BatchRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_draw_records_draw_date ON draw_records(draw_date)",
		"CREATE INDEX IF NOT EXISTS idx_batch_records_user ON batch_records(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_batch_records_started_at ON batch_records(started_at DESC)",
	}
	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	tables := []string{
		"batch_records",
		"draw_records",
	}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}

// seedData loads a handful of real draw results so a fresh install can
// run simulations before the first upstream sync completes.
func seedData(db *database.DB) error {
	draws := []models.DrawRecord{
		{Round: 1, DrawDate: date(2002, 12, 7), MainNumbers: datatypes.NewJSONSlice([]int{10, 23, 29, 33, 37, 40}), BonusNumber: 16, FirstPrizeAmount: 863604600, FirstPrizeWinners: 0},
		{Round: 2, DrawDate: date(2002, 12, 14), MainNumbers: datatypes.NewJSONSlice([]int{9, 13, 21, 25, 32, 42}), BonusNumber: 2, FirstPrizeAmount: 2002006800, FirstPrizeWinners: 1},
		{Round: 3, DrawDate: date(2002, 12, 21), MainNumbers: datatypes.NewJSONSlice([]int{11, 16, 19, 21, 27, 31}), BonusNumber: 30, FirstPrizeAmount: 2000000000, FirstPrizeWinners: 1},
		{Round: 4, DrawDate: date(2002, 12, 28), MainNumbers: datatypes.NewJSONSlice([]int{14, 27, 30, 31, 40, 42}), BonusNumber: 2, FirstPrizeAmount: 1267147200, FirstPrizeWinners: 0},
		{Round: 5, DrawDate: date(2003, 1, 4), MainNumbers: datatypes.NewJSONSlice([]int{16, 24, 29, 40, 41, 42}), BonusNumber: 3, FirstPrizeAmount: 3041094900, FirstPrizeWinners: 0},
		{Round: 6, DrawDate: date(2003, 1, 11), MainNumbers: datatypes.NewJSONSlice([]int{14, 15, 26, 27, 40, 42}), BonusNumber: 34, FirstPrizeAmount: 6574451700, FirstPrizeWinners: 1},
		{Round: 7, DrawDate: date(2003, 1, 18), MainNumbers: datatypes.NewJSONSlice([]int{2, 9, 16, 25, 26, 40}), BonusNumber: 42, FirstPrizeAmount: 1243168350, FirstPrizeWinners: 2},
		{Round: 8, DrawDate: date(2003, 1, 25), MainNumbers: datatypes.NewJSONSlice([]int{8, 19, 25, 34, 37, 39}), BonusNumber: 9, FirstPrizeAmount: 3871409400, FirstPrizeWinners: 0},
		{Round: 9, DrawDate: date(2003, 2, 1), MainNumbers: datatypes.NewJSONSlice([]int{2, 4, 16, 17, 36, 39}), BonusNumber: 14, FirstPrizeAmount: 2349929700, FirstPrizeWinners: 3},
		{Round: 10, DrawDate: date(2003, 2, 8), MainNumbers: datatypes.NewJSONSlice([]int{9, 25, 30, 33, 41, 44}), BonusNumber: 6, FirstPrizeAmount: 1543377650, FirstPrizeWinners: 5},
	}

	for i := range draws {
		if err := draws[i].Validate(); err != nil {
			return fmt.Errorf("invalid seed draw: %w", err)
		}
	}

	if err := db.Create(&draws).Error; err != nil {
		return fmt.Errorf("failed to seed draws: %w", err)
	}

	logrus.Infof("Seeded %d draw rounds", len(draws))
	return nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
