package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/recipebook/api/internal/models"
	"github.com/recipebook/api/internal/repository"
	appErr "github.com/recipebook/api/pkg/errors"
	"github.com/recipebook/api/pkg/logger"
	"github.com/recipebook/api/pkg/metrics"
)

// TaxonomyService manages one user's tags or ingredients.
type TaxonomyService[T any] interface {
	// List returns the user's records by name descending. page 0 returns all.
	List(ctx context.Context, userID uint, page, pageSize int) ([]T, int64, error)
	GetOrCreate(ctx context.Context, userID uint, name string) (*T, bool, error)
	Get(ctx context.Context, userID, id uint) (*T, error)
	Rename(ctx context.Context, userID, id uint, name string) (*T, error)
	Delete(ctx context.Context, userID, id uint) error
}

type taxonomyService[T any] struct {
	repo repository.TaxonomyRepository[T]
	kind string
}

func NewTagService(repo repository.TaxonomyRepository[models.Tag]) TaxonomyService[models.Tag] {
	return &taxonomyService[models.Tag]{repo: repo, kind: "tag"}
}

func NewIngredientService(repo repository.TaxonomyRepository[models.Ingredient]) TaxonomyService[models.Ingredient] {
	return &taxonomyService[models.Ingredient]{repo: repo, kind: "ingredient"}
}

func (s *taxonomyService[T]) List(ctx context.Context, userID uint, page, pageSize int) ([]T, int64, error) {
	return s.repo.ListByUser(ctx, userID, page, pageSize)
}

func (s *taxonomyService[T]) GetOrCreate(ctx context.Context, userID uint, name string) (*T, bool, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, false, err
	}
	rec, created, err := s.repo.GetOrCreate(ctx, userID, name)
	if err != nil {
		return nil, false, err
	}
	metrics.ObserveTaxonomy(s.kind, created)
	if created {
		logger.L().Info(s.kind+" created", zap.Uint("user_id", userID), zap.String("name", name))
	}
	return rec, created, nil
}

func (s *taxonomyService[T]) Get(ctx context.Context, userID, id uint) (*T, error) {
	return s.repo.GetOwned(ctx, id, userID)
}

func (s *taxonomyService[T]) Rename(ctx context.Context, userID, id uint, name string) (*T, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.NameTaken(ctx, userID, name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, appErr.Invalid("name", s.kind+" with this name already exists.")
	}
	if err := s.repo.Rename(ctx, rec, name); err != nil {
		return nil, err
	}
	logger.L().Info(s.kind+" renamed", zap.Uint("user_id", userID), zap.Uint("id", id))
	return rec, nil
}

func (s *taxonomyService[T]) Delete(ctx context.Context, userID, id uint) error {
	if err := s.repo.DeleteOwned(ctx, id, userID); err != nil {
		return err
	}
	logger.L().Info(s.kind+" deleted", zap.Uint("user_id", userID), zap.Uint("id", id))
	return nil
}

const maxNameLength = 255

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", appErr.Invalid("name", "This field may not be blank.")
	}
	if len([]rune(name)) > maxNameLength {
		return "", appErr.Invalid("name", "Ensure this field has no more than 255 characters.")
	}
	return name, nil
}

// cleanNames trims every entry and drops repeats, keeping first-seen order.
// field names the request list in error messages.
func cleanNames(field string, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n, err := cleanName(n)
		if err != nil {
			return nil, appErr.Invalid(field, "Each entry needs a non-blank name of at most 255 characters.")
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}
