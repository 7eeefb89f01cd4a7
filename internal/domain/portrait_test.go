package domain

import "testing"

func TestCategoryIsGroup(t *testing.T) {
	groups := map[Category]bool{
		CategoryPets:     false,
		CategoryFamily:   true,
		CategoryChildren: false,
		CategoryCouples:  true,
		CategorySelf:     false,
		"aliens":         false,
	}
	for c, want := range groups {
		if got := c.IsGroup(); got != want {
			t.Fatalf("IsGroup(%s) = %v, want %v", c, got, want)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	terminal := map[JobStatus]bool{
		JobStatusQueued:     false,
		JobStatusProcessing: false,
		JobStatusSucceeded:  true,
		JobStatusFailed:     true,
		JobStatusCanceled:   true,
	}
	for s, want := range terminal {
		if got := s.Terminal(); got != want {
			t.Fatalf("Terminal(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestGenerationJobHasOutput(t *testing.T) {
	var nilJob *GenerationJob
	if nilJob.HasOutput() {
		t.Fatalf("nil job reports output")
	}
	if (&GenerationJob{Status: JobStatusSucceeded}).HasOutput() {
		t.Fatalf("job without a reference reports output")
	}
	if !(&GenerationJob{OutputURL: "https://cdn.example/a.png"}).HasOutput() {
		t.Fatalf("remote reference not detected")
	}
	if !(&GenerationJob{Output: []byte{1}}).HasOutput() {
		t.Fatalf("inline output not detected")
	}
}
