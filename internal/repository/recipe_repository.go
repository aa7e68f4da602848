package repository

import (
	"context"

	"github.com/recipebook/api/internal/models"
	appErr "github.com/recipebook/api/pkg/errors"
	"gorm.io/gorm"
)

type RecipeRepository interface {
	BaseRepository[models.Recipe]
	GetForUser(ctx context.Context, id, userID uint) (*models.Recipe, error)
	ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.Recipe, int64, error)
	UpdateColumns(ctx context.Context, r *models.Recipe, cols []string) error
	ReplaceTags(ctx context.Context, recipeID uint, tagIDs []uint) error
	ReplaceIngredients(ctx context.Context, recipeID uint, ingredientIDs []uint) error
	DeleteForUser(ctx context.Context, id, userID uint) error
	WithTx(tx *gorm.DB) RecipeRepository
}

type recipeRepository struct {
	BaseRepository[models.Recipe]
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{BaseRepository: NewBaseRepository[models.Recipe](db), db: db}
}

func (r *recipeRepository) WithTx(tx *gorm.DB) RecipeRepository {
	return NewRecipeRepository(tx)
}

func (r *recipeRepository) preloaded(ctx context.Context) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }
	return r.db.WithContext(ctx).Preload("Tags", byID).Preload("Ingredients", byID)
}

func (r *recipeRepository) GetForUser(ctx context.Context, id, userID uint) (*models.Recipe, error) {
	var rec models.Recipe
	if err := r.preloaded(ctx).Where("id = ? AND user_id = ?", id, userID).First(&rec).Error; err != nil {
		return nil, notFoundOr(err, "recipe not found", "get recipe failed")
	}
	return &rec, nil
}

// ListByUser returns the owner's recipes, newest first. A page of 0 disables
// pagination. The total count ignores paging.
func (r *recipeRepository) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]models.Recipe, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, appErr.Wrap(err, appErr.CodeInternal, "count recipes failed")
	}

	q := r.preloaded(ctx).Where("user_id = ?", userID).Order("id DESC")
	if page > 0 && pageSize > 0 {
		q = q.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	out := []models.Recipe{}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, appErr.Wrap(err, appErr.CodeInternal, "list recipes failed")
	}
	return out, total, nil
}

func (r *recipeRepository) UpdateColumns(ctx context.Context, rec *models.Recipe, cols []string) error {
	if len(cols) == 0 {
		return nil
	}
	cols = append(cols[:len(cols):len(cols)], "updated_at")
	res := r.db.WithContext(ctx).Model(rec).
		Where("user_id = ?", rec.UserID).
		Select(cols).
		Omit("Tags", "Ingredients").
		Updates(rec)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update recipe failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "recipe not found")
	}
	return nil
}

func (r *recipeRepository) ReplaceTags(ctx context.Context, recipeID uint, tagIDs []uint) error {
	return r.relink(ctx, models.RecipeTagsTable, "tag_id", recipeID, tagIDs)
}

func (r *recipeRepository) ReplaceIngredients(ctx context.Context, recipeID uint, ingredientIDs []uint) error {
	return r.relink(ctx, models.RecipeIngredientsTable, "ingredient_id", recipeID, ingredientIDs)
}

// relink drops every link of the recipe in table and inserts one row per id.
// An empty ids slice just clears.
func (r *recipeRepository) relink(ctx context.Context, table, column string, recipeID uint, ids []uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM "+table+" WHERE recipe_id = ?", recipeID).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "clear "+table+" failed")
	}
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[uint]struct{}, len(ids))
	rows := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, map[string]any{"recipe_id": recipeID, column: id})
	}
	if err := db.Table(table).Create(&rows).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "link "+table+" failed")
	}
	return nil
}

func (r *recipeRepository) DeleteForUser(ctx context.Context, id, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{models.RecipeTagsTable, models.RecipeIngredientsTable} {
			owned := tx.Model(&models.Recipe{}).Select("id").Where("id = ? AND user_id = ?", id, userID)
			if err := tx.Exec("DELETE FROM "+table+" WHERE recipe_id IN (?)", owned).Error; err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "unlink recipe failed")
			}
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Recipe{})
		if res.Error != nil {
			return appErr.Wrap(res.Error, appErr.CodeInternal, "delete recipe failed")
		}
		if res.RowsAffected == 0 {
			return appErr.New(appErr.CodeNotFound, "recipe not found")
		}
		return nil
	})
}
