package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Catalog is the seed file layout: users with the items they own.
type Catalog struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Name  string     `yaml:"name"`
	Email string     `yaml:"email"`
	Items []SeedItem `yaml:"items"`
}

type SeedItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Available   bool   `yaml:"available"`
}

type seedStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateItem(ctx context.Context, item *models.Item) error
}

type seedResult struct {
	Users   int
	Items   int
	Skipped int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		catalogPath = flag.String("catalog", "configs/seed.yaml", "path to seed catalog")
		dbPath      = flag.String("db", "./data/shareit.db", "path to sqlite db")
	)
	flag.Parse()

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, Path: *dbPath, ConnectRetries: 1}, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	res, err := seed(ctx, db, catalog)
	if err != nil {
		return err
	}

	fmt.Printf("done: users=%d items=%d skipped=%d\n", res.Users, res.Items, res.Skipped)
	return nil
}

func loadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(catalog.Users) == 0 {
		return nil, fmt.Errorf("no users in catalog")
	}
	return &catalog, nil
}

// seed creates every user and their items. A user whose email is already
// taken is skipped together with its items, so reruns are harmless.
func seed(ctx context.Context, store seedStore, catalog *Catalog) (seedResult, error) {
	var res seedResult
	for _, u := range catalog.Users {
		if u.Email == "" {
			continue
		}
		user := &models.User{Name: u.Name, Email: u.Email}
		if err := store.CreateUser(ctx, user); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("create user %s: %w", u.Email, err)
		}
		res.Users++

		for _, it := range u.Items {
			item := &models.Item{
				Name:        it.Name,
				Description: it.Description,
				Available:   it.Available,
				OwnerID:     user.ID,
			}
			if err := store.CreateItem(ctx, item); err != nil {
				return res, fmt.Errorf("create item %s: %w", it.Name, err)
			}
			res.Items++
		}
	}
	return res, nil
}
