package printify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options configures the Printify API client.
type Options struct {
	APIKey     string
	ShopID     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to the Printify REST API: media-library uploads and
// fulfillment orders.
type Client struct {
	apiKey     string
	shopID     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.printify.com/v1"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		shopID:     strings.TrimSpace(opts.ShopID),
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// HasCredentials reports whether both the API key and the shop id are set.
func (c *Client) HasCredentials() bool {
	return c != nil && c.apiKey != "" && c.shopID != ""
}

// Upload is a media-library entry created from generated bytes.
type Upload struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	PreviewURL string `json:"preview_url"`
	URL        string `json:"url"`
}

type uploadRequest struct {
	FileName string `json:"file_name"`
	Contents string `json:"contents"`
}

// UploadImage pushes image bytes into the shop's media library.
func (c *Client) UploadImage(ctx context.Context, fileName string, contents []byte) (*Upload, error) {
	if !c.HasCredentials() {
		return nil, errors.New("printify: credentials are required")
	}
	payload := uploadRequest{
		FileName: fileName,
		Contents: base64.StdEncoding.EncodeToString(contents),
	}
	var upload Upload
	if err := c.post(ctx, "/uploads/images.json", payload, &upload); err != nil {
		return nil, err
	}
	if upload.ID == "" {
		return nil, errors.New("printify: upload response missing id")
	}
	return &upload, nil
}

// Address is the recipient of a fulfillment order.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	Region    string `json:"region"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
}

// OrderRequest places one print order for a previously uploaded image.
type OrderRequest struct {
	ExternalID string
	Label      string
	ProductID  string
	VariantID  int
	ImageURL   string
	ImageID    string
	AddressTo  Address
}

type orderLineItem struct {
	ProductID  string            `json:"product_id"`
	VariantID  int               `json:"variant_id"`
	Quantity   int               `json:"quantity"`
	PrintAreas map[string]string `json:"print_areas"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type orderPayload struct {
	ExternalID               string          `json:"external_id"`
	Label                    string          `json:"label"`
	LineItems                []orderLineItem `json:"line_items"`
	ShippingMethod           int             `json:"shipping_method"`
	SendShippingNotification bool            `json:"send_shipping_notification"`
	AddressTo                Address         `json:"address_to"`
}

// Order is the provider's handle for a placed fulfillment order.
type Order struct {
	ID string `json:"id"`
}

// CreateOrder places a standard-shipping order applying the portrait to the
// front print area.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if !c.HasCredentials() {
		return nil, errors.New("printify: credentials are required")
	}
	item := orderLineItem{
		ProductID:  req.ProductID,
		VariantID:  req.VariantID,
		Quantity:   1,
		PrintAreas: map[string]string{"front": req.ImageURL},
	}
	if req.ImageID != "" {
		item.Metadata = map[string]string{"image_id": req.ImageID}
	}
	payload := orderPayload{
		ExternalID:               req.ExternalID,
		Label:                    req.Label,
		LineItems:                []orderLineItem{item},
		ShippingMethod:           1,
		SendShippingNotification: true,
		AddressTo:                req.AddressTo,
	}
	var order Order
	if err := c.post(ctx, "/shops/"+c.shopID+"/orders.json", payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("printify: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("printify: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("printify: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("printify: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("printify: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("printify: decode response: %w", err)
		}
	}
	return nil
}
