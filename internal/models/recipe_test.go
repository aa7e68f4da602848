package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRecipePatchApply(t *testing.T) {
	r := Recipe{
		UserID:      1,
		Title:       "Sample recipe",
		TimeMinutes: 22,
		Price:       decimal.RequireFromString("5.25"),
		Link:        "http://example.com/recipe.pdf",
	}

	title := "New recipe title"
	price := decimal.RequireFromString("2.50")
	cols := RecipePatch{Title: &title, Price: &price}.Apply(&r)

	require.Equal(t, []string{"title", "price"}, cols)
	require.Equal(t, "New recipe title", r.Title)
	require.True(t, r.Price.Equal(price))
	require.Equal(t, "http://example.com/recipe.pdf", r.Link)
	require.Equal(t, 22, r.TimeMinutes)
	require.EqualValues(t, 1, r.UserID)
}

func TestRecipePatchEmpty(t *testing.T) {
	r := Recipe{Title: "Pongal"}
	require.Empty(t, RecipePatch{}.Apply(&r))
	require.Equal(t, "Pongal", r.Title)
}
