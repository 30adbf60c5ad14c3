// Command seed loads a starter category set into the database so a
// fresh deployment has something for sellers to pick from.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"telegram-marketplace/internal/config"
	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/model"
	pg "telegram-marketplace/internal/infra/db/postgres"
)

var defaultCategories = []string{
	"Electronics",
	"Clothing",
	"Home & Garden",
	"Books",
	"Sports",
	"Toys",
	"Beauty",
	"Groceries",
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	extra := flag.String("categories", "", "comma-separated categories to add on top of the defaults")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	names := append([]string{}, defaultCategories...)
	for _, n := range strings.Split(*extra, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}

	repo := pg.NewPostgresCategoryRepo(pool)
	created, skipped := 0, 0
	for _, name := range names {
		cat, err := model.NewCategory(ulid.Make().String(), name, "")
		if err != nil {
			log.Fatalf("category %q: %v", name, err)
		}
		switch err := repo.Create(ctx, nil, cat); {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrAlreadyExists):
			skipped++
		default:
			log.Fatalf("create %q: %v", name, err)
		}
	}
	log.Printf("seeded %d categories (%d already present)", created, skipped)
}
