// Package web is the REST surface: a chi router over the same use
// cases the bot drives, authenticated with bearer JWTs.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-marketplace/internal/usecase"
)

type Server struct {
	users      usecase.UserUseCase
	products   usecase.ProductUseCase
	cart       usecase.CartUseCase
	orders     usecase.OrderUseCase
	categories usecase.CategoryUseCase
	chat       usecase.ChatUseCase
	auth       *AuthManager
	log        *zerolog.Logger
}

type Deps struct {
	Users      usecase.UserUseCase
	Products   usecase.ProductUseCase
	Cart       usecase.CartUseCase
	Orders     usecase.OrderUseCase
	Categories usecase.CategoryUseCase
	Chat       usecase.ChatUseCase
}

func NewServer(deps Deps, auth *AuthManager, logger *zerolog.Logger) *Server {
	return &Server{
		users:      deps.Users,
		products:   deps.Products,
		cart:       deps.Cart,
		orders:     deps.Orders,
		categories: deps.Categories,
		chat:       deps.Chat,
		auth:       auth,
		log:        logger,
	}
}

// Router builds the full route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalogue.
		r.Get("/products", s.listProducts)
		r.Get("/products/{id}", s.getProduct)
		r.Get("/categories", s.listCategories)

		// Authenticated.
		r.Group(func(r chi.Router) {
			r.Use(s.authRequired)

			r.Post("/products", s.createProduct)
			r.Put("/products/{id}", s.updateProduct)
			r.Delete("/products/{id}", s.deleteProduct)

			r.Post("/orders", s.placeOrder)
			r.Get("/orders", s.listOrders)
			r.Put("/orders/{id}/status", s.changeOrderStatus)

			r.Get("/chat", s.chatHistory)
			r.Post("/chat", s.sendChatMessage)

			r.Get("/users/{id}", s.getUser)

			// Admin only.
			r.Group(func(r chi.Router) {
				r.Use(s.adminRequired)
				r.Get("/users", s.listUsers)
				r.Put("/users/{id}/role", s.changeUserRole)
				r.Post("/categories", s.createCategory)
			})
		})
	})
	return r
}

// requestLogger tags every request with an id and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}
