/*
category.go - Per-user category registry

PURPOSE:
  Categories are named buckets that items optionally reference. A fixed
  set is seeded for every user; the "Umum" default is created on demand
  when a brand-new item arrives with no category.

NOTE ON MATCHING:
  Category lookups use literal name equality, NOT the trim/case-fold rule
  that item names use. "Kamera" and "kamera" are different categories.
*/
package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// DefaultCategories are seeded (as fixed) for every user on login.
var DefaultCategories = []string{"Kamera", "Lensa", "Lampu", "Stand", "Audio", "Aksesoris"}

// defaultCategoryName is the fallback bucket for items created with no
// category. It is created on demand and is not fixed.
const defaultCategoryName = "Umum"

// Registry manages the per-user category set.
type Registry struct {
	store TxStore
}

func NewRegistry(store TxStore) *Registry {
	return &Registry{store: store}
}

// SeedDefaults inserts any default category not already present, marked
// fixed. Idempotent: safe to call on every successful login.
func (r *Registry) SeedDefaults(ctx context.Context, userID string) error {
	return r.store.WithTx(ctx, func(s Store) error {
		for _, name := range DefaultCategories {
			existing, err := s.CategoryByName(ctx, userID, name)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			err = s.SaveCategory(ctx, Category{
				ID:     uuid.NewString(),
				UserID: userID,
				Name:   name,
				Fixed:  true,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ResolveOrDefault returns categoryID as-is when supplied; otherwise the
// first category in the user's list. Fails with NoCategoryError when the
// user has no categories at all.
func (r *Registry) ResolveOrDefault(ctx context.Context, userID, categoryID string) (string, error) {
	if categoryID != "" {
		return categoryID, nil
	}
	cats, err := r.store.Categories(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(cats) == 0 {
		return "", &NoCategoryError{UserID: userID}
	}
	return cats[0].ID, nil
}

// DefaultCategory returns the "Umum" category, creating it if missing.
func (r *Registry) DefaultCategory(ctx context.Context, userID string) (*Category, error) {
	var cat *Category
	err := r.store.WithTx(ctx, func(s Store) error {
		c, err := ensureDefaultCategory(ctx, s, userID)
		cat = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// List returns all categories for a user, ordered by name.
func (r *Registry) List(ctx context.Context, userID string) ([]Category, error) {
	return r.store.Categories(ctx, userID)
}

// Create adds a user-defined (non-fixed) category with a literal name.
func (r *Registry) Create(ctx context.Context, userID, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be blank"}
	}

	var cat Category
	err := r.store.WithTx(ctx, func(s Store) error {
		existing, err := s.CategoryByName(ctx, userID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return &ValidationError{Field: "name", Reason: "already exists"}
		}
		cat = Category{
			ID:     uuid.NewString(),
			UserID: userID,
			Name:   name,
		}
		return s.SaveCategory(ctx, cat)
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// Delete removes a non-fixed category. Items referencing it keep their
// dangling reference; they are never cascade-deleted.
func (r *Registry) Delete(ctx context.Context, userID, id string) error {
	return r.store.WithTx(ctx, func(s Store) error {
		cat, err := s.CategoryByID(ctx, userID, id)
		if err != nil {
			return err
		}
		if cat == nil {
			return ErrCategoryNotFound
		}
		if cat.Fixed {
			return ErrFixedCategory
		}
		return s.DeleteCategory(ctx, userID, id)
	})
}

// ensureDefaultCategory looks up "Umum" for the user and creates it when
// absent. Runs inside the caller's transaction so that implicit item
// creation and its category land atomically.
func ensureDefaultCategory(ctx context.Context, s Store, userID string) (*Category, error) {
	existing, err := s.CategoryByName(ctx, userID, defaultCategoryName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	cat := Category{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   defaultCategoryName,
	}
	if err := s.SaveCategory(ctx, cat); err != nil {
		return nil, err
	}
	return &cat, nil
}
