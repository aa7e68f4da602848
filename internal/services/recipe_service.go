package services

import (
	"context"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recipebook/api/internal/models"
	"github.com/recipebook/api/internal/repository"
	"github.com/recipebook/api/internal/storage"
	appErr "github.com/recipebook/api/pkg/errors"
	"github.com/recipebook/api/pkg/logger"
	"github.com/recipebook/api/pkg/utils"
)

type RecipeService interface {
	Create(ctx context.Context, userID uint, in RecipeInput) (*models.Recipe, error)
	Get(ctx context.Context, userID, id uint) (*models.Recipe, error)
	List(ctx context.Context, userID uint, page, pageSize int) ([]models.Recipe, int64, error)
	Update(ctx context.Context, userID, id uint, ch RecipeChanges) (*models.Recipe, error)
	Delete(ctx context.Context, userID, id uint) error
	AttachImage(ctx context.Context, userID, id uint, filename string, body io.Reader) (*models.Recipe, error)
	ImageURL(key string) string
}

type RecipeInput struct {
	Title       string
	Description string
	TimeMinutes int
	Price       decimal.Decimal
	Link        string
	Tags        []string
	Ingredients []string
}

// RecipeChanges is a partial or full update. Tags and Ingredients follow
// three states: nil leaves the relation untouched, an empty slice clears it,
// anything else replaces it.
type RecipeChanges struct {
	Patch       models.RecipePatch
	Tags        *[]string
	Ingredients *[]string
}

const recipeUploadDir = "uploads/recipe"

type recipeService struct {
	db          *gorm.DB
	recipes     repository.RecipeRepository
	tags        repository.TaxonomyRepository[models.Tag]
	ingredients repository.TaxonomyRepository[models.Ingredient]
	images      storage.ImageStore
}

func NewRecipeService(
	db *gorm.DB,
	recipes repository.RecipeRepository,
	tags repository.TaxonomyRepository[models.Tag],
	ingredients repository.TaxonomyRepository[models.Ingredient],
	images storage.ImageStore,
) RecipeService {
	return &recipeService{db: db, recipes: recipes, tags: tags, ingredients: ingredients, images: images}
}

var _ RecipeService = (*recipeService)(nil)

func (s *recipeService) Create(ctx context.Context, userID uint, in RecipeInput) (*models.Recipe, error) {
	logger.L().Info("create recipe called", zap.Uint("user_id", userID))

	tags, err := cleanNames("tags", in.Tags)
	if err != nil {
		return nil, err
	}
	ingredients, err := cleanNames("ingredients", in.Ingredients)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, appErr.Invalid("title", "This field may not be blank.")
	}

	r := &models.Recipe{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		TimeMinutes: in.TimeMinutes,
		Price:       in.Price,
		Link:        in.Link,
	}

	err = s.inTx(ctx, func(tx *gorm.DB) error {
		rs := s.syncer(tx)
		if err := rs.recipes.Create(ctx, r); err != nil {
			return err
		}
		return rs.apply(ctx, userID, r.ID, &tags, &ingredients)
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("recipe created", zap.Uint("recipe_id", r.ID), zap.Uint("user_id", userID),
		zap.Int("tags", len(tags)), zap.Int("ingredients", len(ingredients)))
	return s.recipes.GetForUser(ctx, r.ID, userID)
}

func (s *recipeService) Get(ctx context.Context, userID, id uint) (*models.Recipe, error) {
	return s.recipes.GetForUser(ctx, id, userID)
}

func (s *recipeService) List(ctx context.Context, userID uint, page, pageSize int) ([]models.Recipe, int64, error) {
	return s.recipes.ListByUser(ctx, userID, page, pageSize)
}

func (s *recipeService) Update(ctx context.Context, userID, id uint, ch RecipeChanges) (*models.Recipe, error) {
	logger.L().Info("update recipe", zap.Uint("recipe_id", id), zap.Uint("user_id", userID))

	var tags, ingredients *[]string
	if ch.Tags != nil {
		names, err := cleanNames("tags", *ch.Tags)
		if err != nil {
			return nil, err
		}
		tags = &names
	}
	if ch.Ingredients != nil {
		names, err := cleanNames("ingredients", *ch.Ingredients)
		if err != nil {
			return nil, err
		}
		ingredients = &names
	}
	if ch.Patch.Title != nil {
		t := strings.TrimSpace(*ch.Patch.Title)
		if t == "" {
			return nil, appErr.Invalid("title", "This field may not be blank.")
		}
		ch.Patch.Title = &t
	}

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		rs := s.syncer(tx)
		r, err := rs.recipes.GetForUser(ctx, id, userID)
		if err != nil {
			return err
		}
		if err := rs.recipes.UpdateColumns(ctx, r, ch.Patch.Apply(r)); err != nil {
			return err
		}
		return rs.apply(ctx, userID, r.ID, tags, ingredients)
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("recipe updated", zap.Uint("recipe_id", id), zap.Uint("user_id", userID),
		zap.Bool("tags_changed", tags != nil), zap.Bool("ingredients_changed", ingredients != nil))
	return s.recipes.GetForUser(ctx, id, userID)
}

func (s *recipeService) Delete(ctx context.Context, userID, id uint) error {
	logger.L().Info("delete recipe", zap.Uint("recipe_id", id), zap.Uint("user_id", userID))

	r, err := s.recipes.GetForUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.recipes.DeleteForUser(ctx, id, userID); err != nil {
		return err
	}
	s.dropImage(ctx, r.Image)

	logger.L().Info("recipe deleted", zap.Uint("recipe_id", id), zap.Uint("user_id", userID))
	return nil
}

func (s *recipeService) AttachImage(ctx context.Context, userID, id uint, filename string, body io.Reader) (*models.Recipe, error) {
	r, err := s.recipes.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	img, err := readImage(body)
	if err != nil {
		return nil, err
	}
	key := utils.UploadKey(recipeUploadDir, imageFilename(filename, img.format))
	if err := s.images.Save(ctx, key, img.reader(), int64(len(img.data)), img.contentType()); err != nil {
		return nil, err
	}

	previous := r.Image
	r.Image = key
	if err := s.recipes.UpdateColumns(ctx, r, []string{"image"}); err != nil {
		s.dropImage(ctx, key)
		return nil, err
	}
	s.dropImage(ctx, previous)

	logger.L().Info("recipe image attached", zap.Uint("recipe_id", id), zap.Uint("user_id", userID), zap.String("key", key))
	return r, nil
}

func (s *recipeService) ImageURL(key string) string {
	if key == "" {
		return ""
	}
	return s.images.URL(key)
}

func (s *recipeService) dropImage(ctx context.Context, key string) {
	dropImages(ctx, s.images, key)
}

// dropImages removes stored files. Failures are logged; the rows that pointed
// at them are already gone.
func dropImages(ctx context.Context, store storage.ImageStore, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			logger.L().Warn("remove recipe image failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *recipeService) syncer(tx *gorm.DB) relationSync {
	return relationSync{
		recipes:     s.recipes.WithTx(tx),
		tags:        s.tags.WithTx(tx),
		ingredients: s.ingredients.WithTx(tx),
	}
}

func (s *recipeService) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "commit transaction failed")
	}
	return nil
}
