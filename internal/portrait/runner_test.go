package portrait

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pawtraits/server/internal/domain"
)

// scriptedBackend walks through a fixed sequence of job snapshots: the first
// entry is the Submit response, each Poll consumes the next one.
type scriptedBackend struct {
	submitErr   error
	script      []domain.GenerationJob
	output      []byte
	fetchErr    error
	submitCalls int
	pollCalls   int
	fetchCalls  int
}

func (b *scriptedBackend) Name() string         { return "scripted" }
func (b *scriptedBackend) HasCredentials() bool { return true }

func (b *scriptedBackend) Submit(ctx context.Context, req SubmitRequest) (*domain.GenerationJob, error) {
	b.submitCalls++
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	job := b.script[0]
	return &job, nil
}

func (b *scriptedBackend) Poll(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	b.pollCalls++
	idx := b.pollCalls
	if idx >= len(b.script) {
		idx = len(b.script) - 1
	}
	job := b.script[idx]
	return &job, nil
}

func (b *scriptedBackend) FetchOutput(ctx context.Context, job *domain.GenerationJob) ([]byte, error) {
	b.fetchCalls++
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return b.output, nil
}

// testRunner wires a runner with a fake clock that advances a fixed step per
// sleep, so timing behavior is deterministic.
func testRunner(backend Backend, interval, maxWait time.Duration) *Runner {
	r := NewRunner(backend, interval, maxWait, zerolog.Nop())
	clock := time.Unix(0, 0)
	r.now = func() time.Time { return clock }
	r.sleep = func(ctx context.Context, d time.Duration) error {
		clock = clock.Add(d)
		return nil
	}
	return r
}

func TestRunnerImmediateSuccessSkipsPolling(t *testing.T) {
	backend := &scriptedBackend{
		script: []domain.GenerationJob{{ID: "j1", Status: domain.JobStatusSucceeded, Output: []byte("png")}},
	}
	r := testRunner(backend, time.Second, time.Minute)
	out, err := r.Run(context.Background(), SubmitRequest{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(out) != "png" {
		t.Fatalf("output = %q", out)
	}
	if backend.pollCalls != 0 {
		t.Fatalf("poll calls = %d, want 0 for a terminal submission", backend.pollCalls)
	}
	if backend.fetchCalls != 0 {
		t.Fatalf("fetch calls = %d, inline output should be used as-is", backend.fetchCalls)
	}
}

func TestRunnerPollsUntilTerminal(t *testing.T) {
	backend := &scriptedBackend{
		script: []domain.GenerationJob{
			{ID: "j1", Status: domain.JobStatusQueued},
			{ID: "j1", Status: domain.JobStatusProcessing},
			{ID: "j1", Status: domain.JobStatusProcessing},
			{ID: "j1", Status: domain.JobStatusSucceeded, OutputURL: "https://cdn.example/out.png"},
		},
		output: []byte("bytes"),
	}
	r := testRunner(backend, time.Second, time.Minute)
	out, err := r.Run(context.Background(), SubmitRequest{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(out) != "bytes" {
		t.Fatalf("output = %q", out)
	}
	if backend.pollCalls != 3 {
		t.Fatalf("poll calls = %d, want 3", backend.pollCalls)
	}
	if backend.submitCalls != 1 {
		t.Fatalf("submit calls = %d, want exactly 1", backend.submitCalls)
	}
	if backend.fetchCalls != 1 {
		t.Fatalf("fetch calls = %d, want 1 for a URL-only job", backend.fetchCalls)
	}
}

func TestRunnerTimeoutNeverPollsPastCeiling(t *testing.T) {
	backend := &scriptedBackend{
		script: []domain.GenerationJob{{ID: "j1", Status: domain.JobStatusProcessing}},
	}
	r := testRunner(backend, 2*time.Second, 10*time.Second)
	_, err := r.Run(context.Background(), SubmitRequest{})
	var timeout *domain.UpstreamTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("err = %v, want UpstreamTimeoutError", err)
	}
	if timeout.Elapsed < 10*time.Second {
		t.Fatalf("elapsed = %v, want at least the ceiling", timeout.Elapsed)
	}
	// 10s ceiling at a 2s interval allows exactly five polls before the
	// elapsed check trips.
	if backend.pollCalls != 5 {
		t.Fatalf("poll calls = %d, want 5", backend.pollCalls)
	}
}

func TestRunnerFailedJob(t *testing.T) {
	backend := &scriptedBackend{
		script: []domain.GenerationJob{
			{ID: "j1", Status: domain.JobStatusProcessing},
			{ID: "j1", Status: domain.JobStatusFailed, Error: "NSFW content detected"},
		},
	}
	r := testRunner(backend, time.Second, time.Minute)
	_, err := r.Run(context.Background(), SubmitRequest{})
	var failed *domain.UpstreamJobFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want UpstreamJobFailedError", err)
	}
	if failed.Message != "NSFW content detected" {
		t.Fatalf("message = %q", failed.Message)
	}
}

func TestRunnerCanceledJob(t *testing.T) {
	backend := &scriptedBackend{
		script: []domain.GenerationJob{{ID: "j1", Status: domain.JobStatusCanceled}},
	}
	r := testRunner(backend, time.Second, time.Minute)
	_, err := r.Run(context.Background(), SubmitRequest{})
	var failed *domain.UpstreamJobFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want UpstreamJobFailedError", err)
	}
	if failed.Status != domain.JobStatusCanceled {
		t.Fatalf("status = %s, want canceled", failed.Status)
	}
}

func TestRunnerSucceededWithoutOutputIsFailure(t *testing.T) {
	backend := &scriptedBackend{
		script: []domain.GenerationJob{{ID: "j1", Status: domain.JobStatusSucceeded}},
	}
	r := testRunner(backend, time.Second, time.Minute)
	_, err := r.Run(context.Background(), SubmitRequest{})
	var failed *domain.UpstreamJobFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want UpstreamJobFailedError", err)
	}
	if backend.fetchCalls != 0 {
		t.Fatalf("fetch calls = %d, nothing to fetch without an output reference", backend.fetchCalls)
	}
}

func TestRunnerSubmitErrorPassedThrough(t *testing.T) {
	submitErr := &domain.UpstreamSubmitError{StatusCode: 401, Message: "bad token"}
	backend := &scriptedBackend{submitErr: submitErr}
	r := testRunner(backend, time.Second, time.Minute)
	_, err := r.Run(context.Background(), SubmitRequest{})
	if !errors.Is(err, submitErr) && err != error(submitErr) {
		var got *domain.UpstreamSubmitError
		if !errors.As(err, &got) || got.StatusCode != 401 {
			t.Fatalf("err = %v, want the submit error unchanged", err)
		}
	}
	if backend.pollCalls != 0 {
		t.Fatalf("poll calls = %d after failed submit", backend.pollCalls)
	}
}

// nilJobBackend misbehaves by returning (nil, nil) from Submit or Poll.
type nilJobBackend struct {
	scriptedBackend
	nilOnPoll bool
}

func (b *nilJobBackend) Submit(ctx context.Context, req SubmitRequest) (*domain.GenerationJob, error) {
	if !b.nilOnPoll {
		return nil, nil
	}
	return b.scriptedBackend.Submit(ctx, req)
}

func (b *nilJobBackend) Poll(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	return nil, nil
}

func TestRunnerNilJobFromSubmitIsFailure(t *testing.T) {
	r := testRunner(&nilJobBackend{}, time.Second, time.Minute)
	_, err := r.Run(context.Background(), SubmitRequest{})
	var failed *domain.UpstreamJobFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want UpstreamJobFailedError for a nil job", err)
	}
}

func TestRunnerNilJobFromPollIsFailure(t *testing.T) {
	backend := &nilJobBackend{
		scriptedBackend: scriptedBackend{
			script: []domain.GenerationJob{{ID: "j1", Status: domain.JobStatusProcessing}},
		},
		nilOnPoll: true,
	}
	r := testRunner(backend, time.Second, time.Minute)
	_, err := r.Run(context.Background(), SubmitRequest{})
	var failed *domain.UpstreamJobFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want UpstreamJobFailedError for a nil poll result", err)
	}
}

func TestRunnerContextCancellationStopsSleep(t *testing.T) {
	backend := &scriptedBackend{
		script: []domain.GenerationJob{{ID: "j1", Status: domain.JobStatusProcessing}},
	}
	r := NewRunner(backend, time.Second, time.Minute, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Run(ctx, SubmitRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
