// seed inserts development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: skips inserts if the dev user (dev-user-001) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"door-access-control-plane/backend/internal/config"
	"door-access-control-plane/backend/internal/db"
	userrepo "door-access-control-plane/backend/internal/user/repository"
)

// devExtConfig exercises every policy section: anti-passback, a two-door
// interlock group, two-person co-authentication, business-hours windows and a
// custom rule that keeps contractors out at night.
const devExtConfig = `{
  "antiPassback": {"enabled": true, "timeWindow": 300},
  "interlock": {
    "enabled": true,
    "timeout": 60,
    "interlockGroups": [
      {"groupId": "airlock-1", "deviceIds": ["dev-door-001", "dev-door-002"]}
    ]
  },
  "multiPerson": {"enabled": true, "requiredCount": 2},
  "timeWindows": [
    {"startTime": "08:00", "endTime": "18:00", "daysOfWeek": [1, 2, 3, 4, 5]}
  ],
  "customRules": "package facility.access\n\ndefault deny = false\n\ndeny if {\n\tinput.verify_method == \"CARD\"\n\tinput.hour < 6\n}\n"
}`

const (
	devUserID  = "dev-user-001"
	devUser2ID = "dev-user-002"
	devAreaID  = "dev-area-001"
	devDoorID  = "dev-door-001"
	devDoor2ID = "dev-door-002"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	existing, err := userrepo.NewPostgresRepository(conn).GetByID(ctx, devUserID)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev-user-001 exists). Skipping.")
		os.Exit(0)
	}

	now := time.Now().UTC()

	users := []struct{ id, name, status string }{
		{devUserID, "Dev User", "ACTIVE"},
		{devUser2ID, "Second Operator", "ACTIVE"},
		{"dev-user-locked", "Locked User", "LOCKED"},
	}
	for _, u := range users {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO facility_users (id, name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
			u.id, u.name, u.status, now,
		); err != nil {
			log.Fatalf("create user %s: %v", u.id, err)
		}
	}

	for _, d := range []struct{ id, name string }{
		{devDoorID, "Airlock Door A"},
		{devDoor2ID, "Airlock Door B"},
	} {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO access_devices (id, name, area_id, enabled, created_at) VALUES ($1, $2, $3, TRUE, $4)`,
			d.id, d.name, devAreaID, now,
		); err != nil {
			log.Fatalf("create device %s: %v", d.id, err)
		}
	}

	if _, err := conn.ExecContext(ctx,
		`INSERT INTO area_access_ext (area_id, ext_config, updated_at) VALUES ($1, $2, $3)`,
		devAreaID, devExtConfig, now,
	); err != nil {
		log.Fatalf("create area config: %v", err)
	}

	for _, userID := range []string{devUserID, devUser2ID} {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO access_permissions (user_id, area_id, time_windows, created_at) VALUES ($1, $2, NULL, $3)`,
			userID, devAreaID, now,
		); err != nil {
			log.Fatalf("create permission for %s: %v", userID, err)
		}
	}

	log.Println("Seed completed successfully.")
	log.Printf("Area %s: doors %s/%s interlocked, two-person rule, business hours only", devAreaID, devDoorID, devDoor2ID)
}
