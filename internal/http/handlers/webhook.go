package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"pawtraits/server/internal/domain"
	"pawtraits/server/internal/providers/printify"
)

// Webhook handles Stripe's checkout.session.completed event. Once the
// signature verifies, every downstream miss is logged and skipped: the
// webhook always acknowledges so Stripe stops retrying.
func (a *App) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		a.error(w, http.StatusBadRequest, "unable to read request body")
		return
	}
	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), a.Config.StripeWebhookKey)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("webhook signature verification failed")
		a.error(w, http.StatusBadRequest, "webhook signature verification failed")
		return
	}

	if event.Type == "checkout.session.completed" {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			a.Logger.Error().Err(err).Msg("webhook: decode checkout session")
		} else {
			a.fulfillOrder(r, &session)
		}
	}

	a.json(w, http.StatusOK, map[string]bool{"received": true})
}

func (a *App) fulfillOrder(r *http.Request, session *stripe.CheckoutSession) {
	metadata := session.Metadata
	pkg := metadata["pkg"]
	imageID := metadata["printify_image_id"]
	imageURL := metadata["printify_image_url"]

	logger := a.Logger.With().Str("session_id", session.ID).Str("pkg", pkg).Logger()
	logger.Info().Str("email", sessionEmail(session)).Msg("payment received")

	printifyOrderID := ""
	switch {
	case a.Printify == nil || !a.Printify.HasCredentials():
		logger.Warn().Msg("printify not configured, skipping order creation")
	case imageID == "" && imageURL == "":
		logger.Warn().Msg("no printify image reference in session metadata, skipping order creation")
	default:
		variant, ok := a.Config.PrintifyVariants[pkg]
		if !ok {
			logger.Warn().Msg("printify product/variant not configured for package, skipping order creation")
			break
		}
		order, err := a.Printify.CreateOrder(r.Context(), printify.OrderRequest{
			ExternalID: session.ID,
			Label:      orderLabel(metadata),
			ProductID:  variant.ProductID,
			VariantID:  variant.VariantID,
			ImageURL:   imageURL,
			ImageID:    imageID,
			AddressTo:  addressFromSession(session),
		})
		if err != nil {
			logger.Error().Err(err).Msg("printify order creation failed")
			break
		}
		printifyOrderID = order.ID
		logger.Info().Str("printify_order_id", order.ID).Msg("printify order created")
	}

	if a.Orders == nil {
		return
	}
	record := &domain.Order{
		ID:              uuid.NewString(),
		SessionID:       session.ID,
		Package:         pkg,
		PackageLabel:    metadata["pkg_label"],
		CatLabel:        metadata["cat_label"],
		CustomerEmail:   sessionEmail(session),
		CustomerName:    shippingName(session),
		Country:         shippingCountry(session),
		AmountCents:     session.AmountTotal,
		Currency:        string(session.Currency),
		PrintifyOrderID: printifyOrderID,
		PrintifyImageID: imageID,
		ImageURL:        imageURL,
	}
	if err := a.Orders.Create(r.Context(), record); err != nil {
		logger.Error().Err(err).Msg("order record insert failed")
	}
}

func orderLabel(metadata map[string]string) string {
	catLabel := metadata["cat_label"]
	if catLabel == "" {
		catLabel = "Portrait"
	}
	return catLabel + " — " + metadata["pkg_label"]
}

func sessionEmail(session *stripe.CheckoutSession) string {
	if session.CustomerEmail != "" {
		return session.CustomerEmail
	}
	if session.CustomerDetails != nil {
		return session.CustomerDetails.Email
	}
	return ""
}

func shippingName(session *stripe.CheckoutSession) string {
	if session.ShippingDetails == nil {
		return ""
	}
	return session.ShippingDetails.Name
}

func shippingCountry(session *stripe.CheckoutSession) string {
	if session.ShippingDetails == nil || session.ShippingDetails.Address == nil {
		return ""
	}
	return session.ShippingDetails.Address.Country
}

// addressFromSession maps Stripe shipping details onto the print provider's
// address shape, splitting the free-form name the way the provider expects.
func addressFromSession(session *stripe.CheckoutSession) printify.Address {
	addr := printify.Address{
		FirstName: "Customer",
		LastName:  ".",
		Email:     sessionEmail(session),
		Country:   "US",
	}
	if session.CustomerDetails != nil {
		addr.Phone = session.CustomerDetails.Phone
	}
	shipping := session.ShippingDetails
	if shipping == nil {
		return addr
	}
	if name := strings.TrimSpace(shipping.Name); name != "" {
		parts := strings.Fields(name)
		addr.FirstName = parts[0]
		if len(parts) > 1 {
			addr.LastName = strings.Join(parts[1:], " ")
		}
	}
	if shipping.Address != nil {
		if shipping.Address.Country != "" {
			addr.Country = shipping.Address.Country
		}
		addr.Region = shipping.Address.State
		addr.Address1 = shipping.Address.Line1
		addr.Address2 = shipping.Address.Line2
		addr.City = shipping.Address.City
		addr.Zip = shipping.Address.PostalCode
	}
	return addr
}
