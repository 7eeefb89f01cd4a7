package portrait

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"pawtraits/server/internal/domain"
)

// fallbackDescription keeps the prompt coherent when vision analysis is
// unavailable or fails.
const fallbackDescription = "a noble subject"

// GenerateRequest is the orchestrator's input contract. Immutable once
// received.
type GenerateRequest struct {
	ImageBytes    []byte
	MimeType      string
	Category      domain.Category
	Label         string
	StyleOverride string
	GenderHint    domain.GenderHint
	SubjectCount  int
	MultiPhoto    bool
}

// Result is the assembled response for one generation request. AssetID and
// AssetURL are empty when publishing is unconfigured or failed, which is a
// valid terminal state.
type Result struct {
	ImageData          string
	MimeType           string
	AssetID            string
	AssetURL           string
	Attributes         domain.SubjectAttributes
	SubjectDescription string
}

// Service is the generation request orchestrator. It sequences attribute
// resolution, optional vision analysis, prompt composition, the backend job
// lifecycle, and the best-effort publish step.
type Service struct {
	backend   Backend
	runner    *Runner
	publisher Publisher
	describer SubjectDescriber
	tuning    TuningConfig
	logger    zerolog.Logger
}

// ServiceOptions wires the orchestrator's collaborators. Publisher and
// Describer may be nil; the backend must not.
type ServiceOptions struct {
	Backend   Backend
	Runner    *Runner
	Publisher Publisher
	Describer SubjectDescriber
	Tuning    TuningConfig
	Logger    zerolog.Logger
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		backend:   opts.Backend,
		runner:    opts.Runner,
		publisher: opts.Publisher,
		describer: opts.Describer,
		tuning:    opts.Tuning,
		logger:    opts.Logger,
	}
}

// Generate runs the full pipeline. Validation and configuration failures are
// detected before any network call. A runner failure aborts the request; a
// publish failure never does.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	if len(req.ImageBytes) == 0 {
		return nil, &domain.ValidationError{Field: "imageBase64"}
	}
	if strings.TrimSpace(string(req.Category)) == "" {
		return nil, &domain.ValidationError{Field: "category"}
	}
	if s.backend == nil || !s.backend.HasCredentials() {
		return nil, &domain.ConfigurationError{Detail: "generation backend credentials not set"}
	}

	mimeType := strings.TrimSpace(req.MimeType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	attrs := Resolve(req.Category, req.GenderHint, req.SubjectCount, req.MultiPhoto)
	description := s.describeSubject(ctx, req, attrs)
	prompts := Compose(ComposeInput{
		Attributes:         attrs,
		StyleOverride:      req.StyleOverride,
		SubjectDescription: description,
	})

	raw, err := s.runner.Run(ctx, SubmitRequest{
		ImageBytes: req.ImageBytes,
		MimeType:   mimeType,
		Prompts:    prompts,
		Tuning:     s.tuning.ForAttributes(attrs),
	})
	if err != nil {
		return nil, err
	}

	published := PublishResult{}
	if s.publisher != nil {
		published = s.publisher.Publish(ctx, raw, attrs.Category)
	}

	outMime := http.DetectContentType(raw)
	if !strings.HasPrefix(outMime, "image/") {
		outMime = "image/jpeg"
	}
	return &Result{
		ImageData:          fmt.Sprintf("data:%s;base64,%s", outMime, base64.StdEncoding.EncodeToString(raw)),
		MimeType:           outMime,
		AssetID:            published.AssetID,
		AssetURL:           published.AssetURL,
		Attributes:         attrs,
		SubjectDescription: description,
	}, nil
}

// describeSubject is best-effort: no describer, missing credentials, or a
// failed call all degrade to the fallback description.
func (s *Service) describeSubject(ctx context.Context, req GenerateRequest, attrs domain.SubjectAttributes) string {
	if s.describer == nil || !s.describer.HasCredentials() {
		return fallbackDescription
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = string(attrs.Category)
	}
	description, err := s.describer.DescribeSubject(ctx, req.ImageBytes, req.MimeType, label)
	if err != nil {
		s.logger.Warn().Err(err).Msg("vision analysis failed, using fallback description")
		return fallbackDescription
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return fallbackDescription
	}
	return description
}
