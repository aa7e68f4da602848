package repository

import (
	"context"
	"errors"
	"fmt"

	appErr "github.com/recipebook/api/pkg/errors"
	"gorm.io/gorm"
)

// BaseRepository defines common CRUD operations.
type BaseRepository[T any] interface {
	Create(ctx context.Context, obj *T) error
	GetByID(ctx context.Context, id any, dest *T) error
	Update(ctx context.Context, obj *T) error
	Delete(ctx context.Context, id any) error
}

// OwnedRepository adds lookups restricted to a single owner. A record that
// exists but belongs to someone else is reported exactly like a missing one.
type OwnedRepository[T any] interface {
	BaseRepository[T]
	GetOwned(ctx context.Context, id any, userID uint, dest *T) error
	// ListOwned returns one page of the owner's records and the owner's total.
	// A page of 0 returns everything.
	ListOwned(ctx context.Context, userID uint, order string, page, pageSize int) ([]T, int64, error)
}

type baseRepository[T any] struct {
	db *gorm.DB
}

func NewBaseRepository[T any](db *gorm.DB) OwnedRepository[T] {
	return &baseRepository[T]{db: db}
}

func (r *baseRepository[T]) Create(ctx context.Context, obj *T) error {
	if err := r.db.WithContext(ctx).Create(obj).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appErr.Wrap(err, appErr.CodeConflict, "entity already exists")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "create entity failed")
	}
	return nil
}

func (r *baseRepository[T]) GetByID(ctx context.Context, id any, dest *T) error {
	if err := r.db.WithContext(ctx).First(dest, "id = ?", id).Error; err != nil {
		return notFoundOr(err, "entity not found", "get entity failed")
	}
	return nil
}

func (r *baseRepository[T]) GetOwned(ctx context.Context, id any, userID uint, dest *T) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(dest).Error; err != nil {
		return notFoundOr(err, "entity not found", "get entity failed")
	}
	return nil
}

func (r *baseRepository[T]) ListOwned(ctx context.Context, userID uint, order string, page, pageSize int) ([]T, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(new(T)).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, appErr.Wrap(err, appErr.CodeInternal, "count entities failed")
	}

	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order(order)
	if page > 0 && pageSize > 0 {
		q = q.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	out := []T{}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, appErr.Wrap(err, appErr.CodeInternal, "list entities failed")
	}
	return out, total, nil
}

func (r *baseRepository[T]) Update(ctx context.Context, obj *T) error {
	if err := r.db.WithContext(ctx).Save(obj).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appErr.Wrap(err, appErr.CodeConflict, "entity already exists")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "update entity failed")
	}
	return nil
}

func (r *baseRepository[T]) Delete(ctx context.Context, id any) error {
	var t T
	res := r.db.WithContext(ctx).Delete(&t, "id = ?", id)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "delete entity failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, fmt.Sprintf("entity %v not found", id))
	}
	return nil
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return appErr.New(appErr.CodeNotFound, notFound)
	}
	return appErr.Wrap(err, appErr.CodeInternal, internal)
}
