package domain

// Category is the coarse subject-type enum driving both framing and default
// style text. Unknown values are carried through unchanged and every consumer
// falls back to the self defaults for them.
type Category string

const (
	CategoryPets     Category = "pets"
	CategoryFamily   Category = "family"
	CategoryChildren Category = "children"
	CategoryCouples  Category = "couples"
	CategorySelf     Category = "self"
)

// IsKnown reports whether the category is one of the five supported values.
func (c Category) IsKnown() bool {
	switch c {
	case CategoryPets, CategoryFamily, CategoryChildren, CategoryCouples, CategorySelf:
		return true
	}
	return false
}

// IsGroup reports whether the category implies more than one subject
// regardless of any caller-supplied hints.
func (c Category) IsGroup() bool {
	return c == CategoryFamily || c == CategoryCouples
}

// GenderHint is the caller-supplied gender field. "auto" and the empty string
// never resolve to a concrete gender.
type GenderHint string

const (
	GenderHintAuto   GenderHint = "auto"
	GenderHintMale   GenderHint = "male"
	GenderHintFemale GenderHint = "female"
)

// Gender is the resolved effective gender of the portrait subject(s).
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderMixed       Gender = "mixed"
	GenderUnspecified Gender = "unspecified"
)

// SubjectAttributes is the canonical attribute set derived from a raw
// generation request. It is immutable once resolved.
type SubjectAttributes struct {
	Category        Category
	EffectiveGender Gender
	IsMultiSubject  bool
	SubjectCount    int
}

// PromptPair carries the composed positive and negative prompt text handed to
// a generation backend. Backend adapters may reformat syntax but never the
// decision content.
type PromptPair struct {
	Positive string
	Negative string
}

// JobStatus enumerates the lifecycle states a generation backend reports for
// a submitted job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusSucceeded  JobStatus = "succeeded"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCanceled   JobStatus = "canceled"
)

// Terminal reports whether the status ends the job lifecycle.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCanceled:
		return true
	}
	return false
}

// GenerationJob is the backend-assigned handle for one asynchronous
// generation unit. It is created by a submit call and mutated only by polls.
type GenerationJob struct {
	ID        string
	Status    JobStatus
	OutputURL string
	Output    []byte
	Error     string
}

// HasOutput reports whether the job carries an output reference, inline or
// remote.
func (j *GenerationJob) HasOutput() bool {
	return j != nil && (len(j.Output) > 0 || j.OutputURL != "")
}
