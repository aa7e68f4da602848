package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe is owned by exactly one user and references that user's tags and ingredients.
type Recipe struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index:idx_recipes_user_id" json:"-"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	TimeMinutes int             `gorm:"not null" json:"time_minutes"`
	Price       decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"price"`
	Link        string          `gorm:"size:255;not null;default:''" json:"link"`
	// Image is the storage key of the attached image; empty when none.
	Image       string          `gorm:"size:255;not null;default:''" json:"image"`
	Tags        []Tag           `gorm:"many2many:recipe_tags;" json:"tags"`
	Ingredients []Ingredient    `gorm:"many2many:recipe_ingredients;" json:"ingredients"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// RecipePatch lists the mutable scalar attributes of a recipe. The owner is
// set once at creation and has no patch field.
type RecipePatch struct {
	Title       *string
	Description *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Link        *string
}

// Apply copies every non-nil field onto r and returns the column names changed.
func (p RecipePatch) Apply(r *Recipe) []string {
	var cols []string
	if p.Title != nil {
		r.Title = *p.Title
		cols = append(cols, "title")
	}
	if p.Description != nil {
		r.Description = *p.Description
		cols = append(cols, "description")
	}
	if p.TimeMinutes != nil {
		r.TimeMinutes = *p.TimeMinutes
		cols = append(cols, "time_minutes")
	}
	if p.Price != nil {
		r.Price = *p.Price
		cols = append(cols, "price")
	}
	if p.Link != nil {
		r.Link = *p.Link
		cols = append(cols, "link")
	}
	return cols
}
