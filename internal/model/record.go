package model

// Split names a partition of a dataset
type Split string

const (
	SplitTrain      Split = "train"
	SplitValidation Split = "validation"
	SplitTest       Split = "test"
)

// LIARSplits is the processing order of the LIAR importer
var LIARSplits = []Split{SplitTrain, SplitValidation, SplitTest}

func (s Split) String() string {
	return string(s)
}

// Field is a raw cell that may be absent
type Field struct {
	Value   string
	Present bool
}

// Text returns the value, or "" when the field is absent
func (f Field) Text() string {
	if !f.Present {
		return ""
	}
	return f.Value
}

// PresentField wraps a value that exists in the source
func PresentField(v string) Field {
	return Field{Value: v, Present: true}
}

// RawRecord is one row of a LIAR source projected to the 8 canonical fields
type RawRecord struct {
	Label            Field
	Statement        Field
	Subject          Field
	Speaker          Field
	JobTitle         Field
	StateInfo        Field
	PartyAffiliation Field
	Context          Field
}

// LIARColumns are the canonical LIAR field names, in source order
var LIARColumns = []string{
	"label",
	"statement",
	"subject",
	"speaker",
	"job_title",
	"state_info",
	"party_affiliation",
	"context",
}

// TargetRecord is the FakeVerifier training schema. All four keys are
// always emitted as strings.
type TargetRecord struct {
	Claim   string `json:"claim"`
	Label   string `json:"label"`
	Source  string `json:"source"`
	Context string `json:"context"`
}

// SplitArtifact describes a serialized split on local disk
type SplitArtifact struct {
	Split Split  `json:"split"`
	Path  string `json:"path"`
	Count int    `json:"count"`
}
