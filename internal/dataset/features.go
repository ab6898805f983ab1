package dataset

import (
	"fmt"
	"strconv"
)

// FeatureType is the hub's description of a column type
type FeatureType struct {
	Kind    string       `json:"_type"`
	Dtype   string       `json:"dtype,omitempty"`
	Names   []string     `json:"names,omitempty"`
	Feature *FeatureType `json:"feature,omitempty"`
}

// Feature is a named, typed column
type Feature struct {
	Index int         `json:"feature_idx"`
	Name  string      `json:"name"`
	Type  FeatureType `json:"type"`
}

// Feature kinds understood by the dataset card
const (
	KindValue      = "Value"
	KindClassLabel = "ClassLabel"
	KindSequence   = "Sequence"
	KindList       = "List"
)

// ClassLabel returns a categorical feature with the given names
func ClassLabel(name string, names []string) Feature {
	return Feature{
		Name: name,
		Type: FeatureType{Kind: KindClassLabel, Names: append([]string(nil), names...)},
	}
}

// FeatureSpec is a feature as written under dataset_info.features
type FeatureSpec struct {
	Name     string `yaml:"name"`
	Dtype    any    `yaml:"dtype,omitempty"`
	Sequence any    `yaml:"sequence,omitempty"`
}

// Spec converts a feature to its dataset card form
func (f Feature) Spec() (FeatureSpec, error) {
	switch f.Type.Kind {
	case KindValue:
		if f.Type.Dtype == "" {
			return FeatureSpec{}, fmt.Errorf("feature %q: value without dtype", f.Name)
		}
		return FeatureSpec{Name: f.Name, Dtype: f.Type.Dtype}, nil
	case KindClassLabel:
		names := make(map[string]string, len(f.Type.Names))
		for i, n := range f.Type.Names {
			names[strconv.Itoa(i)] = n
		}
		return FeatureSpec{
			Name:  f.Name,
			Dtype: map[string]any{"class_label": map[string]any{"names": names}},
		}, nil
	case KindSequence, KindList:
		inner := f.Type.Feature
		if inner == nil || inner.Kind != KindValue || inner.Dtype == "" {
			return FeatureSpec{}, fmt.Errorf("feature %q: only sequences of plain values are supported", f.Name)
		}
		return FeatureSpec{Name: f.Name, Sequence: inner.Dtype}, nil
	default:
		return FeatureSpec{}, fmt.Errorf("feature %q: unsupported type %q", f.Name, f.Type.Kind)
	}
}
