// createmerchant provisions a merchant account and prints the API key once.
// The secret is stored only as a bcrypt hash; losing the printed key means
// issuing a new one.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"finrota.com/app/internal/modules/merchants"
	"finrota.com/app/internal/shared/slug"
)

func main() {
	name := flag.String("name", "", "merchant display name (required)")
	id := flag.String("id", "", "merchant id; derived from the name when empty")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *name == "" {
		log.Error("missing -name")
		os.Exit(2)
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Error("DB_DSN is required")
		os.Exit(1)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		log.Error("db open failed", "err", err)
		os.Exit(1)
	}

	merchantID := *id
	if merchantID == "" {
		merchantID = slug.FromName(*name)
	}

	secret := uuid.NewString()
	hash, err := merchants.HashKey(secret)
	if err != nil {
		log.Error("hashing failed", "err", err)
		os.Exit(1)
	}

	now := time.Now()
	acct := merchants.MerchantAccount{
		ID:         merchantID,
		Name:       *name,
		APIKeyHash: hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.Create(&acct).Error; err != nil {
		log.Error("insert failed", "merchant_id", merchantID, "err", err)
		os.Exit(1)
	}

	log.Info("merchant account created", "merchant_id", merchantID)
	fmt.Printf("X-Api-Key: %s.%s\n", merchantID, secret)
}
