package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v78"

	"pawtraits/server/internal/domain"
	"pawtraits/server/internal/infra"
	"pawtraits/server/internal/providers/printify"
)

type captureTransport struct {
	requests  []*http.Request
	bodies    [][]byte
	responses []*http.Response
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}
	t.requests = append(t.requests, req)
	t.bodies = append(t.bodies, body)
	if len(t.responses) == 0 {
		return nil, errors.New("no canned response")
	}
	resp := t.responses[0]
	t.responses = t.responses[1:]
	return resp, nil
}

func (t *captureTransport) addJSONResponse(status int, payload string) {
	t.responses = append(t.responses, &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(payload)),
	})
}

type fakeOrderStore struct {
	created   []*domain.Order
	orders    []domain.Order
	createErr error
}

func (s *fakeOrderStore) Create(ctx context.Context, order *domain.Order) error {
	s.created = append(s.created, order)
	return s.createErr
}

func (s *fakeOrderStore) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.orders, nil
}

func newWebhookApp(transport *captureTransport, store OrderStore) *App {
	return &App{
		Config: &infra.Config{
			StripeWebhookKey: "whsec_test",
			PrintifyVariants: map[string]infra.PrintifyVariant{
				"noble": {ProductID: "prod_7", VariantID: 4242},
			},
		},
		Logger: zerolog.Nop(),
		Printify: printify.NewClient(printify.Options{
			APIKey:     "pk_test",
			ShopID:     "shop42",
			BaseURL:    "https://printify.test/v1",
			HTTPClient: &http.Client{Transport: transport},
		}),
		Orders: store,
	}
}

func paidSession(metadata map[string]string) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:          "cs_live_1",
		Metadata:    metadata,
		AmountTotal: 8900,
		Currency:    stripe.CurrencyUSD,
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: "ada@example.com",
			Phone: "+44 20 1234",
		},
		ShippingDetails: &stripe.ShippingDetails{
			Name: "Ada Lovelace",
			Address: &stripe.Address{
				Country:    "GB",
				State:      "London",
				Line1:      "12 St James's Square",
				City:       "London",
				PostalCode: "SW1Y 4JH",
			},
		},
	}
}

func fulfill(app *App, session *stripe.CheckoutSession) {
	app.fulfillOrder(httptest.NewRequest(http.MethodPost, "/api/webhook", nil), session)
}

func TestFulfillOrderCreatesPrintifyOrderAndRecord(t *testing.T) {
	transport := &captureTransport{}
	transport.addJSONResponse(200, `{"id":"ord_1"}`)
	store := &fakeOrderStore{}
	app := newWebhookApp(transport, store)

	fulfill(app, paidSession(map[string]string{
		"pkg":                "noble",
		"pkg_label":          "Noble Pack",
		"cat_label":          "Pet Portrait",
		"printify_image_id":  "img_9",
		"printify_image_url": "https://images.test/p.jpg",
	}))

	if len(transport.requests) != 1 {
		t.Fatalf("printify requests = %d, want 1", len(transport.requests))
	}
	if got := transport.requests[0].URL.Path; got != "/v1/shops/shop42/orders.json" {
		t.Fatalf("order path = %s", got)
	}
	var payload struct {
		ExternalID string `json:"external_id"`
		Label      string `json:"label"`
		LineItems  []struct {
			ProductID  string            `json:"product_id"`
			VariantID  int               `json:"variant_id"`
			PrintAreas map[string]string `json:"print_areas"`
			Metadata   map[string]string `json:"metadata"`
		} `json:"line_items"`
		AddressTo struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Country   string `json:"country"`
			City      string `json:"city"`
		} `json:"address_to"`
	}
	if err := json.Unmarshal(transport.bodies[0], &payload); err != nil {
		t.Fatalf("decode order payload: %v", err)
	}
	if payload.ExternalID != "cs_live_1" || payload.Label != "Pet Portrait — Noble Pack" {
		t.Fatalf("order payload = %+v", payload)
	}
	item := payload.LineItems[0]
	if item.ProductID != "prod_7" || item.VariantID != 4242 {
		t.Fatalf("line item = %+v", item)
	}
	if item.PrintAreas["front"] != "https://images.test/p.jpg" || item.Metadata["image_id"] != "img_9" {
		t.Fatalf("line item refs = %+v", item)
	}
	if payload.AddressTo.FirstName != "Ada" || payload.AddressTo.LastName != "Lovelace" || payload.AddressTo.Country != "GB" {
		t.Fatalf("address = %+v", payload.AddressTo)
	}

	if len(store.created) != 1 {
		t.Fatalf("records = %d, want 1", len(store.created))
	}
	record := store.created[0]
	if record.PrintifyOrderID != "ord_1" || record.SessionID != "cs_live_1" {
		t.Fatalf("record = %+v", record)
	}
	if record.Package != "noble" || record.AmountCents != 8900 || record.Currency != "usd" {
		t.Fatalf("record = %+v", record)
	}
	if record.CustomerEmail != "ada@example.com" || record.CustomerName != "Ada Lovelace" || record.Country != "GB" {
		t.Fatalf("record customer fields = %+v", record)
	}
	if record.ID == "" {
		t.Fatalf("record id not assigned")
	}
}

func TestFulfillOrderMissingImageReferenceSkipsPrintify(t *testing.T) {
	transport := &captureTransport{}
	store := &fakeOrderStore{}
	app := newWebhookApp(transport, store)

	fulfill(app, paidSession(map[string]string{
		"pkg":       "noble",
		"pkg_label": "Noble Pack",
	}))

	if len(transport.requests) != 0 {
		t.Fatalf("printify requests = %d, want none without an image reference", len(transport.requests))
	}
	if len(store.created) != 1 {
		t.Fatalf("records = %d, the order must still be recorded", len(store.created))
	}
	if store.created[0].PrintifyOrderID != "" {
		t.Fatalf("record = %+v, want no printify order id", store.created[0])
	}
}

func TestFulfillOrderUnknownPackageSkipsPrintify(t *testing.T) {
	transport := &captureTransport{}
	store := &fakeOrderStore{}
	app := newWebhookApp(transport, store)

	fulfill(app, paidSession(map[string]string{
		"pkg":               "imperial",
		"printify_image_id": "img_9",
	}))

	if len(transport.requests) != 0 {
		t.Fatalf("printify requests = %d, want none for an unknown package", len(transport.requests))
	}
	if len(store.created) != 1 || store.created[0].PrintifyOrderID != "" {
		t.Fatalf("records = %+v, want one record without a printify order", store.created)
	}
}

func TestFulfillOrderUnconfiguredPrintifySkips(t *testing.T) {
	transport := &captureTransport{}
	store := &fakeOrderStore{}
	app := newWebhookApp(transport, store)
	app.Printify = printify.NewClient(printify.Options{HTTPClient: &http.Client{Transport: transport}})

	fulfill(app, paidSession(map[string]string{
		"pkg":               "noble",
		"printify_image_id": "img_9",
	}))

	if len(transport.requests) != 0 {
		t.Fatalf("printify requests = %d, want none without credentials", len(transport.requests))
	}
	if len(store.created) != 1 {
		t.Fatalf("records = %d, the order must still be recorded", len(store.created))
	}
}

func TestFulfillOrderAPIFailureStillRecords(t *testing.T) {
	transport := &captureTransport{}
	transport.addJSONResponse(500, `{"error":"internal"}`)
	store := &fakeOrderStore{}
	app := newWebhookApp(transport, store)

	fulfill(app, paidSession(map[string]string{
		"pkg":               "noble",
		"printify_image_id": "img_9",
	}))

	if len(store.created) != 1 {
		t.Fatalf("records = %d, a failed printify call must not lose the record", len(store.created))
	}
	if store.created[0].PrintifyOrderID != "" {
		t.Fatalf("record = %+v, want no printify order id after a failed call", store.created[0])
	}
}

func TestFulfillOrderWithoutStore(t *testing.T) {
	transport := &captureTransport{}
	transport.addJSONResponse(200, `{"id":"ord_1"}`)
	app := newWebhookApp(transport, nil)

	fulfill(app, paidSession(map[string]string{
		"pkg":               "noble",
		"printify_image_id": "img_9",
	}))

	if len(transport.requests) != 1 {
		t.Fatalf("printify requests = %d, fulfillment must proceed without a store", len(transport.requests))
	}
}

func TestOrdersListReturnsRecords(t *testing.T) {
	store := &fakeOrderStore{orders: []domain.Order{{
		ID:           "o1",
		SessionID:    "cs_live_1",
		Package:      "noble",
		CustomerName: "Ada Lovelace",
		AmountCents:  8900,
		Currency:     "usd",
	}}}
	app := newWebhookApp(&captureTransport{}, store)
	app.Config.AdminPassword = "hunter2"

	req := httptest.NewRequest(http.MethodGet, "/api/orders?password=hunter2", nil)
	rec := httptest.NewRecorder()
	app.OrdersList(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body struct {
		Orders []struct {
			ID           string `json:"id"`
			Package      string `json:"package"`
			CustomerName string `json:"customerName"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Orders) != 1 || body.Orders[0].ID != "o1" || body.Orders[0].CustomerName != "Ada Lovelace" {
		t.Fatalf("orders = %+v", body.Orders)
	}
}
