package dashscope

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"pawtraits/server/internal/domain"
	"pawtraits/server/internal/portrait"
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

func newTestClient(transport *captureTransport) *Client {
	return NewClient(Options{
		APIKey:     "sk-test",
		BaseURL:    "https://dashscope.test/api/v1",
		HTTPClient: &http.Client{Transport: transport},
	})
}

func TestSubmitReturnsTerminalJob(t *testing.T) {
	transport := &captureTransport{}
	transport.addJSONResponse(200, `{
		"request_id": "req_42",
		"output": {"choices": [{"message": {"content": [{"image": "https://oss.example/out.png"}]}}]}
	}`)
	client := newTestClient(transport)

	job, err := client.Submit(context.Background(), portrait.SubmitRequest{
		ImageBytes: []byte("img"),
		MimeType:   "image/jpeg",
		Prompts:    domain.PromptPair{Positive: "a portrait", Negative: "blurry"},
		Tuning:     portrait.Tuning{Width: 1024, Height: 1024},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.Status != domain.JobStatusSucceeded {
		t.Fatalf("status = %s, the response is synchronous and must be terminal", job.Status)
	}
	if job.ID != "req_42" || job.OutputURL != "https://oss.example/out.png" {
		t.Fatalf("job = %+v", job)
	}

	req := transport.requests[0]
	if req.URL.Path != "/api/v1/services/aigc/multimodal-generation/generation" {
		t.Fatalf("path = %s", req.URL.Path)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Fatalf("authorization = %q", got)
	}

	var payload struct {
		Model      string `json:"model"`
		Parameters struct {
			NegativePrompt string `json:"negative_prompt"`
			Size           string `json:"size"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(transport.bodies[0], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Model != "qwen-image-edit" {
		t.Fatalf("model = %q", payload.Model)
	}
	if payload.Parameters.NegativePrompt != "blurry" || payload.Parameters.Size != "1024*1024" {
		t.Fatalf("parameters = %+v", payload.Parameters)
	}
}

func TestSubmitHTTPErrorBecomesSubmitError(t *testing.T) {
	transport := &captureTransport{}
	transport.addJSONResponse(429, `{"code":"Throttling","message":"Requests throttled"}`)
	client := newTestClient(transport)

	_, err := client.Submit(context.Background(), portrait.SubmitRequest{ImageBytes: []byte("x")})
	var submitErr *domain.UpstreamSubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("err = %v, want UpstreamSubmitError", err)
	}
	if submitErr.StatusCode != 429 || !strings.Contains(submitErr.Message, "Throttling") {
		t.Fatalf("submit error = %+v", submitErr)
	}
}

func TestSubmitAPIErrorBecomesJobFailure(t *testing.T) {
	transport := &captureTransport{}
	transport.addJSONResponse(200, `{"request_id":"req_1","code":"DataInspectionFailed","message":"Output data may contain inappropriate content."}`)
	client := newTestClient(transport)

	_, err := client.Submit(context.Background(), portrait.SubmitRequest{ImageBytes: []byte("x")})
	var failed *domain.UpstreamJobFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want UpstreamJobFailedError", err)
	}
	if !strings.Contains(failed.Message, "DataInspectionFailed") {
		t.Fatalf("message = %q", failed.Message)
	}
}

func TestPollIsUnsupported(t *testing.T) {
	client := newTestClient(&captureTransport{})
	if _, err := client.Poll(context.Background(), "req_1"); err == nil {
		t.Fatalf("expected an error, the API has no poll endpoint")
	}
}

func TestFetchOutputRejectsInvalidURL(t *testing.T) {
	client := newTestClient(&captureTransport{})
	if _, err := client.FetchOutput(context.Background(), &domain.GenerationJob{OutputURL: "not a url"}); err == nil {
		t.Fatalf("expected an invalid url error")
	}
}
