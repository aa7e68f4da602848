package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/recipebook/api/internal/models"
	"github.com/recipebook/api/internal/repository"
	"github.com/recipebook/api/internal/storage"
	"github.com/recipebook/api/internal/testutil"
	appErr "github.com/recipebook/api/pkg/errors"
)

func TestMain(m *testing.M) {
	testutil.NopLogger()
	os.Exit(m.Run())
}

type fixture struct {
	db          *gorm.DB
	auth        AuthService
	tags        TaxonomyService[models.Tag]
	ingredients TaxonomyService[models.Ingredient]
	recipes     RecipeService
	media       *storage.LocalStore
	tokens      TokenIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	tagRepo := repository.NewTagRepository(db)
	ingRepo := repository.NewIngredientRepository(db)
	media := storage.NewLocalStoreFS(memfs.New(), "/media/")
	tokens := NewJWTIssuer([]byte("test-secret"), time.Hour)

	auth := NewAuthService(repository.NewUserRepository(db), tokens, media)
	auth.(*authService).cost = bcrypt.MinCost

	return &fixture{
		db:          db,
		auth:        auth,
		tags:        NewTagService(tagRepo),
		ingredients: NewIngredientService(ingRepo),
		recipes:     NewRecipeService(db, repository.NewRecipeRepository(db), tagRepo, ingRepo, media),
		media:       media,
		tokens:      tokens,
	}
}

func strs(v ...string) *[]string { return &v }

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func tagNames(r *models.Recipe) []string {
	out := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		out = append(out, t.Name)
	}
	return out
}

func ingredientNames(r *models.Recipe) []string {
	out := make([]string, 0, len(r.Ingredients))
	for _, i := range r.Ingredients {
		out = append(out, i.Name)
	}
	return out
}

// tokens

func TestJWTIssueAndParse(t *testing.T) {
	issuer := NewJWTIssuer([]byte("secret"), time.Hour)
	tok, err := issuer.Issue(42)
	require.NoError(t, err)

	id, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	expired := NewJWTIssuer([]byte("secret"), -time.Minute)
	tok, err := expired.Issue(1)
	require.NoError(t, err)
	_, err = expired.Parse(tok)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))

	other := NewJWTIssuer([]byte("other"), time.Hour)
	tok, err = other.Issue(1)
	require.NoError(t, err)
	_, err = NewJWTIssuer([]byte("secret"), time.Hour).Parse(tok)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))

	_, err = other.Parse("not-a-jwt")
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))
}

// identity

func TestCreateUserIsInactiveAndNormalized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.CreateUser(ctx, NewUser{Email: "  Test@EXAMPLE.com ", Password: "secret1", Name: "Test"})
	require.NoError(t, err)
	assert.Equal(t, "Test@example.com", u.Email)
	assert.False(t, u.IsActive)
	assert.False(t, u.IsStaff)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.CreateUser(ctx, NewUser{Email: "", Password: "secret1"})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	_, err = f.auth.CreateUser(ctx, NewUser{Email: "a@example.com", Password: "pw"})
	var ae *appErr.AppError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Fields, "password")

	_, err = f.auth.CreateUser(ctx, NewUser{Email: "a@example.com", Password: strings.Repeat("p", 80)})
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Fields, "password")
	// 25 three-byte runes: short in characters, too long for bcrypt
	_, err = f.auth.CreateUser(ctx, NewUser{Email: "a@example.com", Password: strings.Repeat("€", 25)})
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Fields, "password")

	_, err = f.auth.CreateUser(ctx, NewUser{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = f.auth.CreateUser(ctx, NewUser{Email: "a@EXAMPLE.COM", Password: "secret1"})
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Fields, "email")
}

func TestCreateSuperuser(t *testing.T) {
	f := newFixture(t)
	u, err := f.auth.CreateSuperuser(context.Background(), "root@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsSuperuser)
}

func TestIssueTokenRequiresActiveAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.CreateUser(ctx, NewUser{Email: "user@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, inactiveErr := f.auth.IssueToken(ctx, "user@example.com", "secret1")
	_, _, wrongErr := f.auth.IssueToken(ctx, "user@example.com", "wrong")
	_, _, unknownErr := f.auth.IssueToken(ctx, "nobody@example.com", "secret1")
	for _, err := range []error{inactiveErr, wrongErr, unknownErr} {
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
		// the three failures must be indistinguishable
		assert.Equal(t, inactiveErr.Error(), err.Error())
	}

	_, err = f.auth.SetActive(ctx, "user@example.com", true)
	require.NoError(t, err)

	tok, u, err := f.auth.IssueToken(ctx, "user@example.com", "secret1")
	require.NoError(t, err)
	id, err := f.tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.auth.CreateUser(ctx, NewUser{Email: "me@example.com", Password: "secret1", Name: "Old", IsActive: true})
	require.NoError(t, err)
	_, err = f.auth.CreateUser(ctx, NewUser{Email: "taken@example.com", Password: "secret1"})
	require.NoError(t, err)

	name, pw := "New Name", "newpass1"
	got, err := f.auth.UpdateProfile(ctx, u.ID, models.ProfilePatch{Name: &name, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)

	_, err = f.auth.Authenticate(ctx, "me@example.com", "newpass1")
	require.NoError(t, err)

	taken := "taken@example.com"
	_, err = f.auth.UpdateProfile(ctx, u.ID, models.ProfilePatch{Email: &taken})
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	short := "abc"
	_, err = f.auth.UpdateProfile(ctx, u.ID, models.ProfilePatch{Password: &short})
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	long := strings.Repeat("€", 25)
	_, err = f.auth.UpdateProfile(ctx, u.ID, models.ProfilePatch{Password: &long})
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.auth.CreateUser(ctx, NewUser{Email: "bye@example.com", Password: "secret1"})
	require.NoError(t, err)
	r, err := f.recipes.Create(ctx, u.ID, RecipeInput{Title: "R", TimeMinutes: 1, Price: decimal.NewFromInt(1), Tags: []string{"t"}})
	require.NoError(t, err)
	withImage, err := f.recipes.AttachImage(ctx, u.ID, r.ID, "r.png", bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)

	require.NoError(t, f.auth.DeleteUser(ctx, "bye@example.com"))
	_, err = f.media.ReadFile(withImage.Image)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	_, err = f.auth.GetUser(ctx, u.ID)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	tags, _, err := f.tags.List(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

// taxonomy

func TestTaxonomyGetOrCreateTrims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "tax@example.com")

	tag, created, err := f.tags.GetOrCreate(ctx, u.ID, "  Vegan ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Vegan", tag.Name)

	same, created, err := f.tags.GetOrCreate(ctx, u.ID, "Vegan")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, tag.ID, same.ID)

	_, _, err = f.tags.GetOrCreate(ctx, u.ID, "   ")
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestTaxonomyRenameAndDeleteAreScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice@example.com")
	bob := testutil.CreateUser(t, f.db, "bob@example.com")

	salt, _, err := f.ingredients.GetOrCreate(ctx, alice.ID, "Salt")
	require.NoError(t, err)
	_, _, err = f.ingredients.GetOrCreate(ctx, alice.ID, "Pepper")
	require.NoError(t, err)

	_, err = f.ingredients.Rename(ctx, bob.ID, salt.ID, "Sugar")
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	assert.True(t, appErr.IsCode(f.ingredients.Delete(ctx, bob.ID, salt.ID), appErr.CodeNotFound))

	_, err = f.ingredients.Rename(ctx, alice.ID, salt.ID, "Pepper")
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	renamed, err := f.ingredients.Rename(ctx, alice.ID, salt.ID, "Sea salt")
	require.NoError(t, err)
	assert.Equal(t, "Sea salt", renamed.Name)

	require.NoError(t, f.ingredients.Delete(ctx, alice.ID, salt.ID))
	_, err = f.ingredients.Get(ctx, alice.ID, salt.ID)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

// recipes and the synchronizer

func TestCreateRecipeLinksNestedNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "chef@example.com")
	existing, _, err := f.tags.GetOrCreate(ctx, u.ID, "Thai")
	require.NoError(t, err)

	r, err := f.recipes.Create(ctx, u.ID, RecipeInput{
		Title:       "Curry",
		TimeMinutes: 30,
		Price:       decimal.RequireFromString("12.50"),
		Tags:        []string{"Thai", "Dinner", " Dinner "},
		Ingredients: []string{"Rice"},
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, r.UserID)
	assert.ElementsMatch(t, []string{"Thai", "Dinner"}, tagNames(r))
	assert.Equal(t, []string{"Rice"}, ingredientNames(r))

	tags, _, err := f.tags.List(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	for _, tg := range r.Tags {
		if tg.Name == "Thai" {
			assert.Equal(t, existing.ID, tg.ID)
		}
	}
}

func TestCreateRecipeRollsBackOnBadNestedName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "rb@example.com")

	_, err := f.recipes.Create(ctx, u.ID, RecipeInput{Title: "X", TimeMinutes: 1, Price: decimal.NewFromInt(1), Tags: []string{"ok", ""}})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	list, total, err := f.recipes.List(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}

func TestUpdateRecipeTriState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "tri@example.com")
	r, err := f.recipes.Create(ctx, u.ID, RecipeInput{
		Title: "Soup", TimeMinutes: 20, Price: decimal.NewFromInt(4),
		Tags: []string{"Lunch"}, Ingredients: []string{"Leek", "Potato"},
	})
	require.NoError(t, err)

	// absent keys leave relations alone
	title := "Leek soup"
	got, err := f.recipes.Update(ctx, u.ID, r.ID, RecipeChanges{Patch: models.RecipePatch{Title: &title}})
	require.NoError(t, err)
	assert.Equal(t, "Leek soup", got.Title)
	assert.Equal(t, []string{"Lunch"}, tagNames(got))
	assert.Len(t, got.Ingredients, 2)

	// non-empty list replaces
	got, err = f.recipes.Update(ctx, u.ID, r.ID, RecipeChanges{Tags: strs("Dinner")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dinner"}, tagNames(got))
	assert.Len(t, got.Ingredients, 2)

	// empty list clears
	got, err = f.recipes.Update(ctx, u.ID, r.ID, RecipeChanges{Ingredients: strs()})
	require.NoError(t, err)
	assert.Empty(t, got.Ingredients)
	assert.Equal(t, []string{"Dinner"}, tagNames(got))

	// the replaced tag still exists for the user
	tags, _, err := f.tags.List(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestRecipeOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice@example.com")
	bob := testutil.CreateUser(t, f.db, "bob@example.com")
	r, err := f.recipes.Create(ctx, alice.ID, RecipeInput{Title: "Mine", TimeMinutes: 5, Price: decimal.NewFromInt(2)})
	require.NoError(t, err)

	_, err = f.recipes.Get(ctx, bob.ID, r.ID)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	title := "Stolen"
	_, err = f.recipes.Update(ctx, bob.ID, r.ID, RecipeChanges{Patch: models.RecipePatch{Title: &title}, Tags: strs("x")})
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	assert.True(t, appErr.IsCode(f.recipes.Delete(ctx, bob.ID, r.ID), appErr.CodeNotFound))

	// bob's failed update must not leave a tag behind
	tags, _, err := f.tags.List(ctx, bob.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, tags)

	got, err := f.recipes.Get(ctx, alice.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
	assert.Equal(t, alice.ID, got.UserID)
}

func TestAttachImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "img@example.com")
	r, err := f.recipes.Create(ctx, u.ID, RecipeInput{Title: "Pie", TimeMinutes: 60, Price: decimal.NewFromInt(8)})
	require.NoError(t, err)

	_, err = f.recipes.AttachImage(ctx, u.ID, r.ID, "notes.txt", bytes.NewReader([]byte("not an image")))
	var ae *appErr.AppError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Fields, "image")

	data := pngBytes(t)
	got, err := f.recipes.AttachImage(ctx, u.ID, r.ID, "Pie.PNG", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Regexp(t, `^uploads/recipe/[0-9a-f-]{36}\.png$`, got.Image)
	assert.Equal(t, "/media/"+got.Image, f.recipes.ImageURL(got.Image))

	stored, err := f.media.ReadFile(got.Image)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	// a second upload replaces the first file
	second, err := f.recipes.AttachImage(ctx, u.ID, r.ID, "pie.png", bytes.NewReader(data))
	require.NoError(t, err)
	_, err = f.media.ReadFile(got.Image)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	require.NoError(t, f.recipes.Delete(ctx, u.ID, r.ID))
	_, err = f.media.ReadFile(second.Image)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

type mockImageStore struct {
	mock.Mock
}

func (m *mockImageStore) Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, body, size, contentType).Error(0)
}

func (m *mockImageStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockImageStore) URL(key string) string {
	return m.Called(key).String(0)
}

func TestAttachImageStoreFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "img@example.com")

	images := new(mockImageStore)
	recipes := NewRecipeService(f.db, repository.NewRecipeRepository(f.db),
		repository.NewTagRepository(f.db), repository.NewIngredientRepository(f.db), images)

	r, err := recipes.Create(ctx, u.ID, RecipeInput{Title: "Tart", TimeMinutes: 30, Price: decimal.NewFromInt(4)})
	require.NoError(t, err)

	outage := appErr.New(appErr.CodeUnavailable, "store image failed")
	images.On("Save", mock.Anything, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64"), "image/png").
		Return(outage).Once()

	_, err = recipes.AttachImage(ctx, u.ID, r.ID, "tart.png", bytes.NewReader(pngBytes(t)))
	assert.True(t, appErr.IsCode(err, appErr.CodeUnavailable))

	got, err := recipes.Get(ctx, u.ID, r.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Image)
	images.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	// a failing delete of the stored file does not block deleting the recipe
	require.NoError(t, f.db.Model(&models.Recipe{}).Where("id = ?", r.ID).Update("image", "uploads/recipe/old.png").Error)
	images.On("Delete", mock.Anything, "uploads/recipe/old.png").Return(errors.New("bucket gone")).Once()

	require.NoError(t, recipes.Delete(ctx, u.ID, r.ID))
	images.AssertExpectations(t)
}
