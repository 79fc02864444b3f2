package problem

import (
	"log"

	"github.com/WardWatch/WW-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "civic"); err != nil {
		log.Fatal("Failed to ensure schema civic: ", err)
	}

	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("Failed to enable uuid-ossp extension:", err)
	}

	if err := db.DB.AutoMigrate(
		&Problem{},
		&Upvote{},
		&Verification{},
		&ResolutionOffer{},
		&TimelineEvent{},
	); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
