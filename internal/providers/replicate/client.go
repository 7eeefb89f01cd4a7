package replicate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pawtraits/server/internal/domain"
	"pawtraits/server/internal/portrait"
)

// Options configures the Replicate prediction client.
type Options struct {
	APIToken   string
	BaseURL    string
	Version    string
	HTTPClient *http.Client
}

// Client drives a Replicate-style prediction API: one POST to create the
// prediction, GETs to poll it, and a final GET for the output file.
type Client struct {
	token      string
	baseURL    string
	version    string
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		token:      strings.TrimSpace(opts.APIToken),
		baseURL:    baseURL,
		version:    strings.TrimSpace(opts.Version),
		httpClient: httpClient,
	}
}

func (c *Client) Name() string { return "replicate" }

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c != nil && c.token != ""
}

type predictionInput struct {
	Image                       string  `json:"image"`
	Prompt                      string  `json:"prompt"`
	NegativePrompt              string  `json:"negative_prompt,omitempty"`
	DenoisingStrength           float64 `json:"denoising_strength,omitempty"`
	GuidanceScale               float64 `json:"guidance_scale,omitempty"`
	ControlNetConditioningScale float64 `json:"controlnet_conditioning_scale,omitempty"`
	Width                       int     `json:"width,omitempty"`
	Height                      int     `json:"height,omitempty"`
	NumOutputs                  int     `json:"num_outputs"`
}

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
	Detail string          `json:"detail"`
}

// Submit creates one prediction. Non-2xx responses surface as typed submit
// errors carrying the provider's message.
func (c *Client) Submit(ctx context.Context, req portrait.SubmitRequest) (*domain.GenerationJob, error) {
	payload := predictionRequest{
		Version: c.version,
		Input: predictionInput{
			Image:                       dataURL(req.MimeType, req.ImageBytes),
			Prompt:                      req.Prompts.Positive,
			NegativePrompt:              req.Prompts.Negative,
			DenoisingStrength:           req.Tuning.DenoisingStrength,
			GuidanceScale:               req.Tuning.GuidanceScale,
			ControlNetConditioningScale: req.Tuning.ConditioningScale,
			Width:                       req.Tuning.Width,
			Height:                      req.Tuning.Height,
			NumOutputs:                  1,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("replicate: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("replicate: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("replicate: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("replicate: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &domain.UpstreamSubmitError{
			StatusCode: resp.StatusCode,
			Message:    providerMessage(raw),
		}
	}

	var decoded predictionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("replicate: decode response: %w", err)
	}
	return jobFromPrediction(decoded)
}

// Poll fetches the current prediction state.
func (c *Client) Poll(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predictions/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("replicate: build poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("replicate: poll request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("replicate: read poll response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("replicate: poll status %d: %s", resp.StatusCode, providerMessage(raw))
	}
	var decoded predictionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("replicate: decode poll response: %w", err)
	}
	return jobFromPrediction(decoded)
}

// FetchOutput dereferences the remote output exactly once.
func (c *Client) FetchOutput(ctx context.Context, job *domain.GenerationJob) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, job.OutputURL, nil)
	if err != nil {
		return nil, fmt.Errorf("replicate: build output request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("replicate: fetch output: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("replicate: output status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("replicate: read output: %w", err)
	}
	return data, nil
}

var _ portrait.Backend = (*Client)(nil)

func jobFromPrediction(p predictionResponse) (*domain.GenerationJob, error) {
	job := &domain.GenerationJob{
		ID:     p.ID,
		Status: mapStatus(p.Status),
		Error:  p.Error,
	}
	if len(p.Output) > 0 {
		ref, err := firstOutputRef(p.Output)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(ref, "data:") {
			data, err := decodeDataURL(ref)
			if err != nil {
				return nil, err
			}
			job.Output = data
		} else {
			job.OutputURL = ref
		}
	}
	return job, nil
}

func mapStatus(status string) domain.JobStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "starting", "queued":
		return domain.JobStatusQueued
	case "processing":
		return domain.JobStatusProcessing
	case "succeeded":
		return domain.JobStatusSucceeded
	case "failed":
		return domain.JobStatusFailed
	case "canceled":
		return domain.JobStatusCanceled
	}
	return domain.JobStatusProcessing
}

// firstOutputRef tolerates the two output shapes the API uses: a bare string
// or an array of strings.
func firstOutputRef(raw json.RawMessage) (string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return "", nil
		}
		return strings.TrimSpace(list[0]), nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single), nil
	}
	return "", fmt.Errorf("replicate: unrecognized output shape: %s", string(raw))
}

func dataURL(mimeType string, data []byte) string {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func decodeDataURL(ref string) ([]byte, error) {
	idx := strings.Index(ref, ",")
	if idx < 0 {
		return nil, fmt.Errorf("replicate: malformed data url")
	}
	data, err := base64.StdEncoding.DecodeString(ref[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("replicate: decode inline output: %w", err)
	}
	return data, nil
}

func providerMessage(raw []byte) string {
	var decoded predictionResponse
	if err := json.Unmarshal(raw, &decoded); err == nil {
		if decoded.Detail != "" {
			return decoded.Detail
		}
		if decoded.Error != "" {
			return decoded.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
