package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"placement/config"
	"placement/models"
	"placement/services"
	"placement/storage"
)

// Seeds job postings from a CSV file into the configured storage. Columns:
// title, company, location, description, requirements, deadline.
//
//	STORAGE_DRIVER=sqlite SEED_FILE=jobs.csv SEED_ADMIN_EMAIL=hr@acme.com go run ./scripts
func main() {
	cfg := config.LoadConfig()
	if cfg.StorageDriver == "memory" || cfg.StorageDriver == "" {
		log.Fatal("Seeding the memory store has no effect, set STORAGE_DRIVER")
	}

	store, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	path := envOr("SEED_FILE", "jobs.csv")
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	admin := envOr("SEED_ADMIN_EMAIL", "admin@placement.system")
	res, err := seed(context.Background(), store, file, admin, envOr("SEED_ADMIN_NAME", "Placement Office"))
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("=== Seed Complete ===")
	log.Printf("Inserted: %d", res.inserted)
	log.Printf("Skipped: %d", res.skipped)
}

type seedResult struct {
	inserted int
	skipped  int
}

func seed(ctx context.Context, store storage.Storage, r io.Reader, adminEmail, adminName string) (seedResult, error) {
	var res seedResult

	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return res, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return res, errors.New("csv file is empty or has only headers")
	}

	headerIndex := make(map[string]int)
	for i, h := range records[0] {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	admin, err := ensureAdmin(ctx, store, adminEmail, adminName)
	if err != nil {
		return res, err
	}

	jobs := services.NewJobService(store, nil)
	for i, row := range records[1:] {
		_, err := jobs.Create(ctx, admin.ID, services.JobInput{
			Title:        getField(row, headerIndex, "title"),
			Company:      getField(row, headerIndex, "company"),
			Location:     getField(row, headerIndex, "location"),
			Description:  getField(row, headerIndex, "description"),
			Requirements: getField(row, headerIndex, "requirements"),
			Deadline:     getField(row, headerIndex, "deadline"),
		})
		var fields services.FieldErrors
		switch {
		case errors.As(err, &fields):
			log.WithField("row", i+2).Warnf("skipping invalid row: %v", map[string]string(fields))
			res.skipped++
		case err != nil:
			return res, fmt.Errorf("row %d: %w", i+2, err)
		default:
			res.inserted++
		}
	}
	return res, nil
}

// ensureAdmin returns the admin account owning seeded jobs, creating a
// verified one when the email is unknown.
func ensureAdmin(ctx context.Context, store storage.Storage, email, name string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	user, err := store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if user.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%s is a %s account, not an admin", email, user.Role)
		}
		return user, nil
	}

	user = &models.User{Email: email, Name: name, Role: models.RoleAdmin, IsVerified: true}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	log.Printf("Created admin %s", email)
	return user, nil
}

// getField safely gets a field from the row by header name
func getField(row []string, headerIndex map[string]int, field string) string {
	if idx, ok := headerIndex[field]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
