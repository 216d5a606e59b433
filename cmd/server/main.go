package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/eventgate/gatekeeper/internal/db"
	"github.com/eventgate/gatekeeper/internal/events"
	"github.com/eventgate/gatekeeper/internal/models"
	"github.com/eventgate/gatekeeper/internal/web"
)

func main() {
	_ = godotenv.Load()

	// Init DB (creates gatekeeper.db in working dir)
	if err := db.Init(); err != nil {
		log.Fatalf("db init: %v", err)
	}

	events.OnCheckIn = func(rec models.CheckIn) {
		log.Printf("check-in accepted: event=%d record=%d by=%s", rec.EventID, rec.ID, rec.ScannedBy)
	}

	r := web.Router()

	addr := getEnv("ADDR", ":8080")
	log.Printf("Gatekeeper listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
