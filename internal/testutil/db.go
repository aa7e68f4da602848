// Package testutil holds helpers shared by package tests that need a real
// database.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/recipebook/api/internal/models"
	"github.com/recipebook/api/pkg/database"
	"github.com/recipebook/api/pkg/logger"
)

var (
	seq        atomic.Int64
	loggerOnce sync.Once
)

// NopLogger installs a no-op global logger once per test binary.
func NopLogger() {
	loggerOnce.Do(func() { logger.Set(zap.NewNop()) })
}

// NewDB opens a private in-memory SQLite database with the schema migrated.
// It is closed when the test ends.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	NopLogger()

	name := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := database.OpenSQLite(context.Background(), name, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts an active user with password "testpass123".
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("testpass123"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{Email: email, PasswordHash: string(hash), Name: "Test User", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateRecipe inserts a bare recipe owned by userID.
func CreateRecipe(t *testing.T, db *gorm.DB, userID uint, title string) *models.Recipe {
	t.Helper()
	r := &models.Recipe{
		UserID:      userID,
		Title:       title,
		TimeMinutes: 10,
		Price:       decimal.RequireFromString("5.00"),
	}
	require.NoError(t, db.Create(r).Error)
	return r
}
