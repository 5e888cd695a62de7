package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the two tables if they do not exist yet.  active_room_id
// is the room id while a booking is live and NULL otherwise; its unique
// index lets MySQL reject a second live booking for the same room.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id         VARCHAR(36)  NOT NULL PRIMARY KEY,
		number     INT          NOT NULL,
		status     ENUM('free','booked','occupied') NOT NULL DEFAULT 'free',
		created_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_rooms_number (number),
		CHECK (number > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id                     VARCHAR(36)  NOT NULL PRIMARY KEY,
		room_id                VARCHAR(36)  NOT NULL,
		full_name              VARCHAR(255) NOT NULL,
		telephone_no           VARCHAR(64)  NOT NULL,
		email                  VARCHAR(255) NOT NULL,
		id_or_passport_no      VARCHAR(64)  NOT NULL,
		payment_method         VARCHAR(64)  NOT NULL,
		payment_amount         BIGINT       NOT NULL,
		mode_of_payment        VARCHAR(64)  NOT NULL,
		transaction_or_receipt VARCHAR(255) NOT NULL,
		check_in               DATE         NOT NULL,
		check_out              DATE         NOT NULL,
		status                 ENUM('booked','checked-in','checked-out') NOT NULL DEFAULT 'booked',
		active_room_id         VARCHAR(36) AS (CASE WHEN status IN ('booked','checked-in') THEN room_id END) STORED,
		created_at             DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at             DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_bookings_active_room (active_room_id),
		KEY idx_bookings_check_in (check_in),
		KEY idx_bookings_status_created (status, created_at),
		CONSTRAINT fk_bookings_room FOREIGN KEY (room_id) REFERENCES rooms (id),
		CHECK (payment_amount >= 0),
		CHECK (check_out >= check_in)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema.  Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
