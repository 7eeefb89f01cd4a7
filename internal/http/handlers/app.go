package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	stripeclient "github.com/stripe/stripe-go/v78/client"

	"pawtraits/server/internal/domain"
	"pawtraits/server/internal/infra"
	"pawtraits/server/internal/portrait"
	"pawtraits/server/internal/providers/printify"
)

// OrderStore persists completed-payment order records. Satisfied by
// repo.OrderRepositoryPG.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	ListRecent(ctx context.Context, limit int) ([]domain.Order, error)
}

// App is the handler container. Stripe, Printify, and Orders may be nil when
// their configuration is absent; each handler degrades or refuses precisely.
type App struct {
	Config    *infra.Config
	Logger    zerolog.Logger
	Portraits *portrait.Service
	Stripe    *stripeclient.API
	Printify  *printify.Client
	Orders    OrderStore
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
