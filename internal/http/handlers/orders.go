package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"pawtraits/server/internal/domain"
)

type orderView struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	Package         string    `json:"package"`
	PackageLabel    string    `json:"packageLabel"`
	CatLabel        string    `json:"catLabel"`
	CustomerEmail   string    `json:"customerEmail"`
	CustomerName    string    `json:"customerName"`
	Country         string    `json:"country"`
	AmountCents     int64     `json:"amountCents"`
	Currency        string    `json:"currency"`
	PrintifyOrderID string    `json:"printifyOrderId"`
	PrintifyImageID string    `json:"printifyImageId"`
	ImageURL        string    `json:"imageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
}

// OrdersList is the password-protected admin listing of completed orders,
// newest first.
func (a *App) OrdersList(w http.ResponseWriter, r *http.Request) {
	password := r.URL.Query().Get("password")
	if a.Config.AdminPassword == "" ||
		subtle.ConstantTimeCompare([]byte(password), []byte(a.Config.AdminPassword)) != 1 {
		a.error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if a.Orders == nil {
		a.error(w, http.StatusInternalServerError, "order store not configured")
		return
	}
	orders, err := a.Orders.ListRecent(r.Context(), 100)
	if err != nil {
		a.Logger.Error().Err(err).Msg("order listing failed")
		a.error(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, viewFromOrder(o))
	}
	a.json(w, http.StatusOK, map[string]any{"orders": views})
}

func viewFromOrder(o domain.Order) orderView {
	return orderView{
		ID:              o.ID,
		SessionID:       o.SessionID,
		Package:         o.Package,
		PackageLabel:    o.PackageLabel,
		CatLabel:        o.CatLabel,
		CustomerEmail:   o.CustomerEmail,
		CustomerName:    o.CustomerName,
		Country:         o.Country,
		AmountCents:     o.AmountCents,
		Currency:        o.Currency,
		PrintifyOrderID: o.PrintifyOrderID,
		PrintifyImageID: o.PrintifyImageID,
		ImageURL:        o.ImageURL,
		CreatedAt:       o.CreatedAt,
	}
}
