package api

import (
	"net/http"
	"time"

	"authgate/internal/api/handler"
	appMiddleware "authgate/internal/api/middleware"
	"authgate/internal/app/ratelimit"
	"authgate/internal/app/service"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the request pipeline: the rate limiter runs first on
// every route, including anonymous ones; routes needing identity add the
// authenticator; /admin additionally requires the admin role.
func NewRouter(
	authService *service.AuthService,
	itemService *service.ItemService,
	fileService *service.FileService,
	limiter ratelimit.Store,
	uploadDir string,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(appMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(appMiddleware.RateLimit(limiter))
	r.Use(appMiddleware.ResponseHeaders)

	authHandler := handler.NewAuthHandler(authService)
	itemHandler := handler.NewItemHandler(itemService)
	fileHandler := handler.NewFileHandler(fileService)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`"hello"`))
	})

	r.Group(func(pub chi.Router) {
		authHandler.RegisterPublicRoutes(pub)
		itemHandler.RegisterPublicRoutes(pub)
	})

	r.Group(func(priv chi.Router) {
		priv.Use(appMiddleware.Authenticator(authService))
		authHandler.RegisterProtectedRoutes(priv)
		itemHandler.RegisterProtectedRoutes(priv)
		fileHandler.RegisterProtectedRoutes(priv)

		priv.Group(func(admin chi.Router) {
			admin.Use(appMiddleware.AdminOnly)
			authHandler.RegisterAdminRoutes(admin)
		})
	})

	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir)))
	r.Get("/uploads/*", uploads.ServeHTTP)

	return r
}
