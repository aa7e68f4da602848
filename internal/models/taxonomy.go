package models

import "time"

// Tag labels recipes for filtering. Names are unique per owner.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_tags_user_name,priority:1" json:"-"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_tags_user_name,priority:2" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Ingredient is a recipe component. Same shape and identity rules as Tag.
type Ingredient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_ingredients_user_name,priority:1" json:"-"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_ingredients_user_name,priority:2" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Link tables between recipes and taxonomy records.
const (
	RecipeTagsTable        = "recipe_tags"
	RecipeIngredientsTable = "recipe_ingredients"
)

func (t *Tag) Assign(userID uint, name string) { t.UserID, t.Name = userID, name }
func (t *Tag) SetName(name string)             { t.Name = name }
func (t *Tag) Ident() uint                     { return t.ID }
func (t *Tag) Label() string                   { return t.Name }
func (t *Tag) Owner() uint                     { return t.UserID }

func (i *Ingredient) Assign(userID uint, name string) { i.UserID, i.Name = userID, name }
func (i *Ingredient) SetName(name string)             { i.Name = name }
func (i *Ingredient) Ident() uint                     { return i.ID }
func (i *Ingredient) Label() string                   { return i.Name }
func (i *Ingredient) Owner() uint                     { return i.UserID }
