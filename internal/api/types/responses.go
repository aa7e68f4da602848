package types

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Fields maps request field names (JSON spelling) to a message.
	Fields map[string]string `json:"fields,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
	Total     int64  `json:"total,omitempty"`
}

type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// TaxonResponse renders a tag or an ingredient.
type TaxonResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type RecipeResponse struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       string          `json:"price"`
	Link        string          `json:"link"`
	Tags        []TaxonResponse `json:"tags"`
	Ingredients []TaxonResponse `json:"ingredients"`
}

type RecipeDetailResponse struct {
	RecipeResponse
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

type RecipeImageResponse struct {
	ID    uint    `json:"id"`
	Image *string `json:"image"`
}
