package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/recipebook/api/internal/models"
	"github.com/recipebook/api/internal/testutil"
	appErr "github.com/recipebook/api/pkg/errors"
)

func TestTagGetOrCreateIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "a@example.com")
	repo := NewTagRepository(db)

	first, created, err := repo.GetOrCreate(ctx, u.ID, "Vegan")
	require.NoError(t, err)
	require.True(t, created)
	require.NotZero(t, first.ID)

	again, created, err := repo.GetOrCreate(ctx, u.ID, "Vegan")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, again.ID)

	// names are case sensitive
	other, created, err := repo.GetOrCreate(ctx, u.ID, "vegan")
	require.NoError(t, err)
	require.True(t, created)
	require.NotEqual(t, first.ID, other.ID)
}

func TestTagGetOrCreateConcurrent(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "race@example.com")
	repo := NewTagRepository(db)

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag, _, err := repo.GetOrCreate(context.Background(), u.ID, "Dinner")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = tag.ID
		}(i)
	}
	wg.Wait()

	for i, id := range ids {
		require.NoError(t, errs[i])
		require.Equal(t, ids[0], id)
	}
	var n int64
	require.NoError(t, db.Model(&models.Tag{}).Where("user_id = ?", u.ID).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestTaxonomyIsScopedPerUser(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")
	repo := NewIngredientRepository(db)

	salt, _, err := repo.GetOrCreate(ctx, alice.ID, "Salt")
	require.NoError(t, err)
	bobSalt, created, err := repo.GetOrCreate(ctx, bob.ID, "Salt")
	require.NoError(t, err)
	require.True(t, created)
	require.NotEqual(t, salt.ID, bobSalt.ID)

	_, err = repo.GetOwned(ctx, salt.ID, bob.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	err = repo.DeleteOwned(ctx, salt.ID, bob.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	got, err := repo.GetOwned(ctx, salt.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "Salt", got.Name)
}

func TestTaxonomyListOrderedByNameDesc(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "list@example.com")
	other := testutil.CreateUser(t, db, "other@example.com")
	repo := NewTagRepository(db)

	for _, name := range []string{"Breakfast", "Vegan", "Dessert"} {
		_, _, err := repo.GetOrCreate(ctx, u.ID, name)
		require.NoError(t, err)
	}
	_, _, err := repo.GetOrCreate(ctx, other.ID, "Zzz")
	require.NoError(t, err)

	tags, total, err := repo.ListByUser(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, tags, 3)
	require.Equal(t, []string{"Vegan", "Dessert", "Breakfast"}, []string{tags[0].Name, tags[1].Name, tags[2].Name})

	page, total, err := repo.ListByUser(ctx, u.ID, 2, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	require.Equal(t, "Breakfast", page[0].Name)

	past, total, err := repo.ListByUser(ctx, u.ID, 5, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Empty(t, past)
}

func TestTaxonomyRename(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "rename@example.com")
	repo := NewTagRepository(db)

	a, _, err := repo.GetOrCreate(ctx, u.ID, "Lunch")
	require.NoError(t, err)
	_, _, err = repo.GetOrCreate(ctx, u.ID, "Dinner")
	require.NoError(t, err)

	require.NoError(t, repo.Rename(ctx, a, "Brunch"))
	require.Equal(t, "Brunch", a.Name)

	taken, err := repo.NameTaken(ctx, u.ID, "Dinner", a.ID)
	require.NoError(t, err)
	require.True(t, taken)
	taken, err = repo.NameTaken(ctx, u.ID, "Brunch", a.ID)
	require.NoError(t, err)
	require.False(t, taken)

	err = repo.Rename(ctx, a, "Dinner")
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestDeleteTagKeepsRecipes(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "del@example.com")
	tags := NewTagRepository(db)
	recipes := NewRecipeRepository(db)

	tag, _, err := tags.GetOrCreate(ctx, u.ID, "Quick")
	require.NoError(t, err)
	r := testutil.CreateRecipe(t, db, u.ID, "Toast")
	require.NoError(t, recipes.ReplaceTags(ctx, r.ID, []uint{tag.ID}))

	require.NoError(t, tags.DeleteOwned(ctx, tag.ID, u.ID))

	got, err := recipes.GetForUser(ctx, r.ID, u.ID)
	require.NoError(t, err)
	require.Empty(t, got.Tags)
}

func TestRecipeGetForUserIsScoped(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")
	repo := NewRecipeRepository(db)

	r := testutil.CreateRecipe(t, db, alice.ID, "Soup")

	_, err := repo.GetForUser(ctx, r.ID, bob.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	_, err = repo.GetForUser(ctx, 9999, alice.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	err = repo.DeleteForUser(ctx, r.ID, bob.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	got, err := repo.GetForUser(ctx, r.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "Soup", got.Title)
	require.True(t, decimal.RequireFromString("5").Equal(got.Price))
}

func TestRecipeListNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "list@example.com")
	other := testutil.CreateUser(t, db, "other@example.com")
	repo := NewRecipeRepository(db)

	first := testutil.CreateRecipe(t, db, u.ID, "First")
	second := testutil.CreateRecipe(t, db, u.ID, "Second")
	third := testutil.CreateRecipe(t, db, u.ID, "Third")
	testutil.CreateRecipe(t, db, other.ID, "Not mine")

	all, total, err := repo.ListByUser(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Equal(t, []uint{third.ID, second.ID, first.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})

	page, total, err := repo.ListByUser(ctx, u.ID, 2, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	require.Equal(t, first.ID, page[0].ID)
}

func TestRecipeReplaceLinks(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "links@example.com")
	tags := NewTagRepository(db)
	ingredients := NewIngredientRepository(db)
	repo := NewRecipeRepository(db)
	r := testutil.CreateRecipe(t, db, u.ID, "Curry")

	t1, _, err := tags.GetOrCreate(ctx, u.ID, "Thai")
	require.NoError(t, err)
	t2, _, err := tags.GetOrCreate(ctx, u.ID, "Spicy")
	require.NoError(t, err)
	ing, _, err := ingredients.GetOrCreate(ctx, u.ID, "Coconut milk")
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceTags(ctx, r.ID, []uint{t1.ID, t2.ID, t1.ID}))
	require.NoError(t, repo.ReplaceIngredients(ctx, r.ID, []uint{ing.ID}))

	got, err := repo.GetForUser(ctx, r.ID, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 2)
	require.Equal(t, t1.ID, got.Tags[0].ID)
	require.Len(t, got.Ingredients, 1)

	require.NoError(t, repo.ReplaceTags(ctx, r.ID, []uint{t2.ID}))
	got, err = repo.GetForUser(ctx, r.ID, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	require.Equal(t, "Spicy", got.Tags[0].Name)

	require.NoError(t, repo.ReplaceTags(ctx, r.ID, nil))
	got, err = repo.GetForUser(ctx, r.ID, u.ID)
	require.NoError(t, err)
	require.Empty(t, got.Tags)
	require.Len(t, got.Ingredients, 1)
}

func TestRecipeUpdateColumns(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "upd@example.com")
	repo := NewRecipeRepository(db)
	r := testutil.CreateRecipe(t, db, u.ID, "Old")

	title := "New"
	price := decimal.RequireFromString("7.25")
	cols := models.RecipePatch{Title: &title, Price: &price}.Apply(r)
	require.NoError(t, repo.UpdateColumns(ctx, r, cols))

	got, err := repo.GetForUser(ctx, r.ID, u.ID)
	require.NoError(t, err)
	require.Equal(t, "New", got.Title)
	require.True(t, price.Equal(got.Price))
	require.Equal(t, 10, got.TimeMinutes)
}

func TestUserDeleteCascade(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "gone@example.com")
	keep := testutil.CreateUser(t, db, "keep@example.com")
	users := NewUserRepository(db)
	tags := NewTagRepository(db)
	recipes := NewRecipeRepository(db)

	tag, _, err := tags.GetOrCreate(ctx, u.ID, "Mine")
	require.NoError(t, err)
	r := testutil.CreateRecipe(t, db, u.ID, "Mine")
	require.NoError(t, recipes.ReplaceTags(ctx, r.ID, []uint{tag.ID}))
	testutil.CreateRecipe(t, db, u.ID, "No picture")
	require.NoError(t, db.Model(r).Update("image", "uploads/recipe/mine.png").Error)
	kept := testutil.CreateRecipe(t, db, keep.ID, "Theirs")
	require.NoError(t, db.Model(kept).Update("image", "uploads/recipe/theirs.png").Error)

	images, err := users.DeleteCascade(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"uploads/recipe/mine.png"}, images)

	for _, m := range []any{&models.Recipe{}, &models.Tag{}, &models.Ingredient{}} {
		var n int64
		require.NoError(t, db.Model(m).Where("user_id = ?", u.ID).Count(&n).Error)
		require.Zero(t, n)
	}
	var links int64
	require.NoError(t, db.Table(models.RecipeTagsTable).Count(&links).Error)
	require.Zero(t, links)

	_, err = recipes.GetForUser(ctx, kept.ID, keep.ID)
	require.NoError(t, err)

	_, err = users.DeleteCascade(ctx, u.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestUserEmailLookup(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "who@example.com")
	users := NewUserRepository(db)

	var got models.User
	require.NoError(t, users.GetByEmail(ctx, "who@example.com", &got))
	require.Equal(t, u.ID, got.ID)

	err := users.GetByEmail(ctx, "nobody@example.com", &got)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	taken, err := users.EmailTaken(ctx, "who@example.com", 0)
	require.NoError(t, err)
	require.True(t, taken)
	taken, err = users.EmailTaken(ctx, "who@example.com", u.ID)
	require.NoError(t, err)
	require.False(t, taken)
}
