package main

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	sql := `
	CREATE TABLE IF NOT EXISTS merchant_accounts (
	  id VARCHAR(64) NOT NULL,
	  name VARCHAR(128) NOT NULL,
	  api_key_hash VARCHAR(128) NOT NULL,
	  disabled TINYINT(1) NOT NULL DEFAULT 0,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS payments (
	  id CHAR(36) NOT NULL,
	  merchant_id VARCHAR(64) NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  amount_captured BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_payments_merchant_id (merchant_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS payment_attempts (
	  id CHAR(36) NOT NULL,
	  payment_id CHAR(36) NOT NULL,
	  merchant_id VARCHAR(64) NOT NULL,
	  connector VARCHAR(64) NOT NULL,
	  merchant_connector_id VARCHAR(64) NOT NULL,
	  connector_transaction_id VARCHAR(128) NULL,
	  status VARCHAR(32) NOT NULL,
	  amount BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_payment_attempts_payment_id (payment_id),
	  CONSTRAINT fk_payment_attempts_payment FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS refunds (
	  id CHAR(36) NOT NULL,
	  merchant_id VARCHAR(64) NOT NULL,
	  payment_id CHAR(36) NOT NULL,
	  reference_id VARCHAR(128) NOT NULL,
	  external_id VARCHAR(128) NULL,
	  attempt_id CHAR(36) NOT NULL,
	  connector VARCHAR(64) NOT NULL,
	  merchant_connector_id VARCHAR(64) NOT NULL,
	  connector_transaction_id VARCHAR(128) NOT NULL,
	  connector_refund_id VARCHAR(128) NULL,
	  total_amount BIGINT NOT NULL,
	  refund_amount BIGINT NOT NULL,
	  currency CHAR(3) NOT NULL,
	  refund_type VARCHAR(16) NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  sent_to_gateway TINYINT(1) NOT NULL DEFAULT 0,
	  reason VARCHAR(255) NULL,
	  metadata JSON NULL,
	  error_code VARCHAR(64) NULL,
	  error_message VARCHAR(255) NULL,
	  unified_code VARCHAR(64) NULL,
	  unified_message VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_refunds_merchant_payment_reference (merchant_id, payment_id, reference_id),
	  KEY ix_refunds_payment_id (payment_id),
	  KEY ix_refunds_connector_transaction_id (connector_transaction_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS process_tracker (
	  id VARCHAR(160) NOT NULL,
	  name VARCHAR(32) NOT NULL,
	  schedule_time DATETIME(3) NOT NULL,
	  payload JSON NOT NULL,
	  status VARCHAR(16) NOT NULL,
	  retries INT NOT NULL DEFAULT 0,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_process_tracker_schedule_time (schedule_time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS gateway_status_map (
	  connector VARCHAR(64) NOT NULL,
	  flow VARCHAR(32) NOT NULL,
	  code VARCHAR(64) NOT NULL,
	  message VARCHAR(255) NOT NULL,
	  unified_code VARCHAR(64) NOT NULL,
	  unified_message VARCHAR(255) NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (connector, flow, code, message)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	// one statement per Exec; multiStatements is off in the default DSN
	for _, stmt := range strings.Split(sql, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := sqlDB.Exec(stmt); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
	}

	log.Println("✓ refund engine tables created successfully")
}
