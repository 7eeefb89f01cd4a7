package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v78"

	"pawtraits/server/internal/checkout"
	"pawtraits/server/internal/middleware"
)

type checkoutRequest struct {
	Pkg              string `json:"pkg"`
	PrintifyImageID  string `json:"printifyImageId"`
	PrintifyImageURL string `json:"printifyImageUrl"`
	CatLabel         string `json:"catLabel"`
}

// Checkout creates a Stripe Checkout Session carrying the Printify image
// reference as metadata so the webhook can place the print order later.
func (a *App) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	pack, ok := checkout.Find(strings.TrimSpace(req.Pkg))
	if !ok {
		a.error(w, http.StatusBadRequest, "invalid package")
		return
	}
	if a.Stripe == nil {
		a.error(w, http.StatusInternalServerError, "server misconfiguration: STRIPE_SECRET_KEY not set")
		return
	}

	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:        stripe.String("Pawtraits — " + pack.Label),
		Description: stripe.String(pack.Description),
	}
	if req.PrintifyImageURL != "" {
		productData.Images = stripe.StringSlice([]string{req.PrintifyImageURL})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String("usd"),
				UnitAmount:  stripe.Int64(pack.AmountCents),
				ProductData: productData,
			},
			Quantity: stripe.Int64(1),
		}},
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(checkout.AllowedShippingCountries),
		},
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type: stripe.String("fixed_amount"),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(0),
					Currency: stripe.String("usd"),
				},
				DisplayName: stripe.String("Standard Shipping"),
				DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
					Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(7),
					},
					Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(14),
					},
				},
			},
		}},
		SuccessURL: stripe.String(a.Config.BaseURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(a.Config.BaseURL + "/#pricing"),
	}
	params.AddMetadata("pkg", pack.Key)
	params.AddMetadata("pkg_label", pack.Label)
	params.AddMetadata("cat_label", req.CatLabel)
	params.AddMetadata("printify_image_id", req.PrintifyImageID)
	params.AddMetadata("printify_image_url", req.PrintifyImageURL)
	if country := middleware.CountryFromContext(r.Context()); country != "" {
		params.AddMetadata("origin_country", country)
	}

	session, err := a.Stripe.CheckoutSessions.New(params)
	if err != nil {
		a.Logger.Error().Err(err).Str("pkg", pack.Key).Msg("stripe checkout session failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]string{"url": session.URL})
}

type packageView struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	Description  string `json:"description"`
	AmountCents  int64  `json:"amountCents"`
	DisplayPrice string `json:"displayPrice"`
}

// Packages lists the purchasable print bundles with display prices.
func (a *App) Packages(w http.ResponseWriter, r *http.Request) {
	views := make([]packageView, 0, len(checkout.Packages))
	for _, p := range checkout.Packages {
		views = append(views, packageView{
			Key:          p.Key,
			Label:        p.Label,
			Description:  p.Description,
			AmountCents:  p.AmountCents,
			DisplayPrice: p.DisplayPrice(),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"packages": views})
}
