package repository

import (
	"context"

	"github.com/recipebook/api/internal/models"
	appErr "github.com/recipebook/api/pkg/errors"
	"gorm.io/gorm"
)

type UserRepository interface {
	BaseRepository[models.User]
	GetByEmail(ctx context.Context, email string, dest *models.User) error
	EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
	// DeleteCascade removes the user together with every recipe, tag and
	// ingredient they own, in one transaction. It returns the image keys of
	// the deleted recipes.
	DeleteCascade(ctx context.Context, userID uint) ([]string, error)
}

type userRepository struct {
	BaseRepository[models.User]
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository[models.User](db), db: db}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string, dest *models.User) error {
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(dest).Error; err != nil {
		return notFoundOr(err, "user not found", "get user by email failed")
	}
	return nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "check email failed")
	}
	return n > 0, nil
}

func (r *userRepository) DeleteCascade(ctx context.Context, userID uint) ([]string, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}

	var images []string
	if err := tx.Model(&models.Recipe{}).Where("user_id = ? AND image <> ''", userID).Pluck("image", &images).Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list recipe images failed")
	}

	owned := func() *gorm.DB { return tx.Model(&models.Recipe{}).Select("id").Where("user_id = ?", userID) }
	steps := []struct {
		what string
		run  func() error
	}{
		{"recipe tag links", func() error {
			return tx.Exec("DELETE FROM "+models.RecipeTagsTable+" WHERE recipe_id IN (?)", owned()).Error
		}},
		{"recipe ingredient links", func() error {
			return tx.Exec("DELETE FROM "+models.RecipeIngredientsTable+" WHERE recipe_id IN (?)", owned()).Error
		}},
		{"recipes", func() error { return tx.Where("user_id = ?", userID).Delete(&models.Recipe{}).Error }},
		{"tags", func() error { return tx.Where("user_id = ?", userID).Delete(&models.Tag{}).Error }},
		{"ingredients", func() error { return tx.Where("user_id = ?", userID).Delete(&models.Ingredient{}).Error }},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			tx.Rollback()
			return nil, appErr.Wrap(err, appErr.CodeInternal, "delete "+s.what+" failed")
		}
	}

	res := tx.Delete(&models.User{}, "id = ?", userID)
	if res.Error != nil {
		tx.Rollback()
		return nil, appErr.Wrap(res.Error, appErr.CodeInternal, "delete user failed")
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, appErr.New(appErr.CodeNotFound, "user not found")
	}

	if err := tx.Commit().Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "commit transaction failed")
	}
	return images, nil
}
