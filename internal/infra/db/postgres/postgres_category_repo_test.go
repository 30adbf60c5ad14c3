//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/repository"
)

func TestCategoryRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewPostgresCategoryRepo(testPool)
	ctx := context.Background()
	cleanup(t)

	cat, err := model.NewCategory("cat-1", "Kitchen", "pots and pans")
	if err != nil {
		t.Fatalf("model.NewCategory() failed: %v", err)
	}

	t.Run("should create and find by name", func(t *testing.T) {
		if err := repo.Create(ctx, repository.NoTX, cat); err != nil {
			t.Fatalf("Failed to create category: %v", err)
		}
		found, err := repo.FindByName(ctx, repository.NoTX, "Kitchen")
		if err != nil {
			t.Fatalf("Failed to find category: %v", err)
		}
		if found.ID != "cat-1" {
			t.Errorf("Mismatch: %+v", found)
		}
	})

	t.Run("should surface the unique constraint as ErrAlreadyExists", func(t *testing.T) {
		dup, _ := model.NewCategory("cat-2", "Kitchen", "")
		if err := repo.Create(ctx, repository.NoTX, dup); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got: %v", err)
		}
	})

	t.Run("should list alphabetically", func(t *testing.T) {
		art, _ := model.NewCategory("cat-3", "Art", "")
		if err := repo.Create(ctx, repository.NoTX, art); err != nil {
			t.Fatal(err)
		}
		all, err := repo.ListAll(ctx, repository.NoTX)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 2 || all[0].Name != "Art" {
			t.Errorf("unexpected order: %+v", all)
		}
	})
}
