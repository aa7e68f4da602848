package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/recipebook/api/internal/api/handlers"
	mw "github.com/recipebook/api/internal/api/middleware"
	"github.com/recipebook/api/internal/models"
	"github.com/recipebook/api/internal/services"
)

type Dependencies struct {
	Tokens      services.TokenIssuer
	Users       mw.UserLoader
	RateLimiter *mw.RateLimiter

	HealthHandler      *handlers.HealthHandler
	UsersHandler       *handlers.UsersHandler
	RecipesHandler     *handlers.RecipesHandler
	TagsHandler        *handlers.TaxonomyHandler[models.Tag, *models.Tag]
	IngredientsHandler *handlers.TaxonomyHandler[models.Ingredient, *models.Ingredient]

	// Media serves locally stored uploads under MediaURL. Nil when images
	// live in object storage.
	Media    http.Handler
	MediaURL string
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.Metrics)
	r.Use(mw.CORS)
	if dep.RateLimiter != nil {
		r.Use(dep.RateLimiter.Handler)
	}
	r.Use(chimid.StripSlashes)
	r.Use(chimid.Compress(5))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/healthz", dep.HealthHandler.Liveness)
	r.Get("/readyz", dep.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	if dep.Media != nil && dep.MediaURL != "" {
		prefix := "/" + strings.Trim(dep.MediaURL, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, dep.Media))
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/users", dep.UsersHandler.Create)
		api.Post("/users/token", dep.UsersHandler.Token)

		api.Group(func(protected chi.Router) {
			protected.Use(mw.Auth(dep.Tokens, dep.Users))

			protected.Get("/users/me", dep.UsersHandler.Me)
			protected.Put("/users/me", dep.UsersHandler.ReplaceMe)
			protected.Patch("/users/me", dep.UsersHandler.PatchMe)
			// registered so authentication runs before the 405
			protected.Post("/users/me", handlers.MethodNotAllowed)

			protected.Route("/recipes", func(rr chi.Router) {
				rr.Get("/", dep.RecipesHandler.List)
				rr.Post("/", dep.RecipesHandler.Create)
				rr.Get("/{id}", dep.RecipesHandler.Get)
				rr.Put("/{id}", dep.RecipesHandler.Update)
				rr.Patch("/{id}", dep.RecipesHandler.Patch)
				rr.Delete("/{id}", dep.RecipesHandler.Delete)
				rr.Post("/{id}/upload-image", dep.RecipesHandler.UploadImage)
			})

			protected.Route("/tags", func(tr chi.Router) {
				tr.Get("/", dep.TagsHandler.List)
				tr.Post("/", dep.TagsHandler.Create)
				tr.Get("/{id}", dep.TagsHandler.Get)
				tr.Put("/{id}", dep.TagsHandler.Update)
				tr.Patch("/{id}", dep.TagsHandler.Update)
				tr.Delete("/{id}", dep.TagsHandler.Delete)
			})

			protected.Route("/ingredients", func(ir chi.Router) {
				ir.Get("/", dep.IngredientsHandler.List)
				ir.Post("/", dep.IngredientsHandler.Create)
				ir.Get("/{id}", dep.IngredientsHandler.Get)
				ir.Put("/{id}", dep.IngredientsHandler.Update)
				ir.Patch("/{id}", dep.IngredientsHandler.Update)
				ir.Delete("/{id}", dep.IngredientsHandler.Delete)
			})
		})
	})

	return r
}
