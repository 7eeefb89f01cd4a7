package portrait

import (
	"context"

	"pawtraits/server/internal/domain"
)

// Tuning carries the diffusion parameters handed to a generation backend.
// The values trade identity fidelity against compositional room and are
// configuration, not decision logic.
type Tuning struct {
	DenoisingStrength float64
	GuidanceScale     float64
	ConditioningScale float64
	Width             int
	Height            int
}

// TuningConfig holds the two tuning profiles selected by subject
// multiplicity. Group scenes loosen conditioning so every subject gets
// painted; solo portraits keep it tight for likeness.
type TuningConfig struct {
	Single Tuning
	Multi  Tuning
}

// ForAttributes picks the profile matching the resolved attributes.
func (c TuningConfig) ForAttributes(attrs domain.SubjectAttributes) Tuning {
	if attrs.IsMultiSubject {
		return c.Multi
	}
	return c.Single
}

// SubmitRequest is the normalized payload a backend receives for one
// generation job.
type SubmitRequest struct {
	ImageBytes []byte
	MimeType   string
	Prompts    domain.PromptPair
	Tuning     Tuning
}

// Backend is the contract implemented by all generation providers. Submit is
// called exactly once per request; Poll only while the job is non-terminal;
// FetchOutput only for a succeeded job whose output is a remote reference.
type Backend interface {
	Name() string
	HasCredentials() bool
	Submit(ctx context.Context, req SubmitRequest) (*domain.GenerationJob, error)
	Poll(ctx context.Context, jobID string) (*domain.GenerationJob, error)
	FetchOutput(ctx context.Context, job *domain.GenerationJob) ([]byte, error)
}

// PublishResult is the outcome of a best-effort media-library upload. Both
// fields empty is a valid terminal state, not an error.
type PublishResult struct {
	AssetID  string
	AssetURL string
}

// Publisher uploads generated bytes to an external media library. It never
// fails the caller: any error degrades to an empty result.
type Publisher interface {
	Publish(ctx context.Context, data []byte, category domain.Category) PublishResult
}

// SubjectDescriber analyses the uploaded photo and returns a painter-ready
// description of the subject(s).
type SubjectDescriber interface {
	HasCredentials() bool
	DescribeSubject(ctx context.Context, image []byte, mimeType, label string) (string, error)
}
