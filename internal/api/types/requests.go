package types

import "github.com/shopspring/decimal"

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=72"`
	Name     string `json:"name" validate:"max=255"`
}

type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfilePatchRequest is the PATCH body for /users/me/.
type ProfilePatchRequest struct {
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Password *string `json:"password" validate:"omitnil,min=5,max=72"`
}

// ProfileReplaceRequest is the PUT body for /users/me/.
type ProfileReplaceRequest struct {
	Email    *string `json:"email" validate:"required,email,max=255"`
	Name     *string `json:"name" validate:"required,max=255"`
	Password *string `json:"password" validate:"required,min=5,max=72"`
}

type NameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// RecipeWriteRequest is the POST and PUT body. A null tags or ingredients
// value is the same as leaving the key out.
type RecipeWriteRequest struct {
	Title       *string          `json:"title" validate:"required,max=255"`
	Description *string          `json:"description"`
	TimeMinutes *int             `json:"time_minutes" validate:"required,gt=0"`
	Price       *decimal.Decimal `json:"price" validate:"required,money"`
	Link        *string          `json:"link" validate:"max=255"`
	Tags        *[]NameRequest   `json:"tags" validate:"omitempty,dive"`
	Ingredients *[]NameRequest   `json:"ingredients" validate:"omitempty,dive"`
}

type RecipePatchRequest struct {
	Title       *string          `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string          `json:"description"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitnil,gt=0"`
	Price       *decimal.Decimal `json:"price" validate:"omitnil,money"`
	Link        *string          `json:"link" validate:"max=255"`
	Tags        *[]NameRequest   `json:"tags" validate:"omitempty,dive"`
	Ingredients *[]NameRequest   `json:"ingredients" validate:"omitempty,dive"`
}
