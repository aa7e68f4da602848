package services

import (
	"context"

	"github.com/recipebook/api/internal/models"
	"github.com/recipebook/api/internal/repository"
	"github.com/recipebook/api/pkg/metrics"
)

// relationSync links a recipe to its owner's tags and ingredients by name.
// All three repositories must share the caller's transaction.
type relationSync struct {
	recipes     repository.RecipeRepository
	tags        repository.TaxonomyRepository[models.Tag]
	ingredients repository.TaxonomyRepository[models.Ingredient]
}

// apply relinks each list that is non-nil. A nil list leaves that relation
// alone; an empty one clears it.
func (s relationSync) apply(ctx context.Context, userID, recipeID uint, tags, ingredients *[]string) error {
	if tags != nil {
		ids, err := resolve[models.Tag](ctx, s.tags, "tag", userID, *tags)
		if err != nil {
			return err
		}
		if err := s.recipes.ReplaceTags(ctx, recipeID, ids); err != nil {
			return err
		}
	}
	if ingredients != nil {
		ids, err := resolve[models.Ingredient](ctx, s.ingredients, "ingredient", userID, *ingredients)
		if err != nil {
			return err
		}
		if err := s.recipes.ReplaceIngredients(ctx, recipeID, ids); err != nil {
			return err
		}
	}
	return nil
}

// resolve get-or-creates every name for userID and returns the ids in order.
func resolve[T any, P repository.TaxonRecord[T]](ctx context.Context, repo repository.TaxonomyRepository[T], kind string, userID uint, names []string) ([]uint, error) {
	ids := make([]uint, 0, len(names))
	for _, name := range names {
		rec, created, err := repo.GetOrCreate(ctx, userID, name)
		if err != nil {
			return nil, err
		}
		metrics.ObserveTaxonomy(kind, created)
		ids = append(ids, P(rec).Ident())
	}
	return ids, nil
}
