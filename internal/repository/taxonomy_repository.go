package repository

import (
	"context"
	"errors"

	"github.com/recipebook/api/internal/models"
	appErr "github.com/recipebook/api/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaxonRecord is implemented by *models.Tag and *models.Ingredient.
type TaxonRecord[T any] interface {
	*T
	Assign(userID uint, name string)
	SetName(name string)
	Ident() uint
	Label() string
	Owner() uint
}

// TaxonomyRepository stores per-user name records (tags, ingredients).
type TaxonomyRepository[T any] interface {
	// GetOrCreate returns the owner's record with this exact name, inserting it
	// if needed. The insert is an upsert on (user_id, name), so concurrent
	// callers converge on one row.
	GetOrCreate(ctx context.Context, userID uint, name string) (*T, bool, error)
	GetOwned(ctx context.Context, id, userID uint) (*T, error)
	ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]T, int64, error)
	NameTaken(ctx context.Context, userID uint, name string, exceptID uint) (bool, error)
	Rename(ctx context.Context, rec *T, name string) error
	// DeleteOwned removes the record and its recipe links. Recipes stay.
	DeleteOwned(ctx context.Context, id, userID uint) error
	WithTx(tx *gorm.DB) TaxonomyRepository[T]
}

type taxonomyRepository[T any, P TaxonRecord[T]] struct {
	OwnedRepository[T]
	db         *gorm.DB
	linkTable  string
	linkColumn string
}

func NewTagRepository(db *gorm.DB) TaxonomyRepository[models.Tag] {
	return newTaxonomyRepository[models.Tag, *models.Tag](db, models.RecipeTagsTable, "tag_id")
}

func NewIngredientRepository(db *gorm.DB) TaxonomyRepository[models.Ingredient] {
	return newTaxonomyRepository[models.Ingredient, *models.Ingredient](db, models.RecipeIngredientsTable, "ingredient_id")
}

func newTaxonomyRepository[T any, P TaxonRecord[T]](db *gorm.DB, linkTable, linkColumn string) *taxonomyRepository[T, P] {
	return &taxonomyRepository[T, P]{
		OwnedRepository: NewBaseRepository[T](db),
		db:              db,
		linkTable:       linkTable,
		linkColumn:      linkColumn,
	}
}

func (r *taxonomyRepository[T, P]) WithTx(tx *gorm.DB) TaxonomyRepository[T] {
	return newTaxonomyRepository[T, P](tx, r.linkTable, r.linkColumn)
}

func (r *taxonomyRepository[T, P]) GetOrCreate(ctx context.Context, userID uint, name string) (*T, bool, error) {
	rec := P(new(T))
	rec.Assign(userID, name)

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return nil, false, appErr.Wrap(res.Error, appErr.CodeInternal, "insert "+r.kind()+" failed")
	}
	if res.RowsAffected == 1 {
		return (*T)(rec), true, nil
	}

	existing := new(T)
	if err := r.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).First(existing).Error; err != nil {
		return nil, false, notFoundOr(err, r.kind()+" not found", "get "+r.kind()+" failed")
	}
	return existing, false, nil
}

func (r *taxonomyRepository[T, P]) GetOwned(ctx context.Context, id, userID uint) (*T, error) {
	dest := new(T)
	if err := r.OwnedRepository.GetOwned(ctx, id, userID, dest); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, r.kind()+" not found")
		}
		return nil, err
	}
	return dest, nil
}

func (r *taxonomyRepository[T, P]) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]T, int64, error) {
	return r.ListOwned(ctx, userID, "name DESC", page, pageSize)
}

func (r *taxonomyRepository[T, P]) NameTaken(ctx context.Context, userID uint, name string, exceptID uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(new(T)).Where("user_id = ? AND name = ?", userID, name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "check "+r.kind()+" name failed")
	}
	return n > 0, nil
}

func (r *taxonomyRepository[T, P]) Rename(ctx context.Context, rec *T, name string) error {
	p := P(rec)
	res := r.db.WithContext(ctx).Model(rec).
		Where("user_id = ?", p.Owner()).
		Select("name", "updated_at").
		Updates(map[string]any{"name": name})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return appErr.Invalid("name", r.kind()+" with this name already exists.")
		}
		return appErr.Wrap(res.Error, appErr.CodeInternal, "rename "+r.kind()+" failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, r.kind()+" not found")
	}
	p.SetName(name)
	return nil
}

func (r *taxonomyRepository[T, P]) DeleteOwned(ctx context.Context, id, userID uint) error {
	// Transaction nests as a savepoint when r is already bound to one.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(new(T)).Where("id = ? AND user_id = ?", id, userID).Count(&n).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "get "+r.kind()+" failed")
		}
		if n == 0 {
			return appErr.New(appErr.CodeNotFound, r.kind()+" not found")
		}
		if err := tx.Exec("DELETE FROM "+r.linkTable+" WHERE "+r.linkColumn+" = ?", id).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "unlink "+r.kind()+" failed")
		}
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Delete(new(T)).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "delete "+r.kind()+" failed")
		}
		return nil
	})
}

func (r *taxonomyRepository[T, P]) kind() string {
	if r.linkTable == models.RecipeIngredientsTable {
		return "ingredient"
	}
	return "tag"
}
