// internal/models/feature.go
package models

import (
	"errors"
	"fmt"
	"math"
)

// FeatureCount is the number of composition features every request carries.
const FeatureCount = 14

// featureNames lists the alloy composition features in wire order.
var featureNames = [FeatureCount]string{
	"fe", "c", "mn", "si", "cr", "ni", "mo", "v", "n", "nb", "co", "w", "al", "ti",
}

// FeatureNames returns the feature names in the fixed positional order.
func FeatureNames() []string {
	names := make([]string, FeatureCount)
	copy(names, featureNames[:])
	return names
}

// FeatureIndex returns the position of a feature name in the wire order.
func FeatureIndex(name string) (int, bool) {
	for i, n := range featureNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Record is a single-row input keyed by feature name.
type Record struct {
	Fe float64 `json:"fe"`
	C  float64 `json:"c"`
	Mn float64 `json:"mn"`
	Si float64 `json:"si"`
	Cr float64 `json:"cr"`
	Ni float64 `json:"ni"`
	Mo float64 `json:"mo"`
	V  float64 `json:"v"`
	N  float64 `json:"n"`
	Nb float64 `json:"nb"`
	Co float64 `json:"co"`
	W  float64 `json:"w"`
	Al float64 `json:"al"`
	Ti float64 `json:"ti"`
}

// FeatureCountError reports a feature vector of the wrong length.
type FeatureCountError struct {
	Got int
}

func (e *FeatureCountError) Error() string {
	return fmt.Sprintf("expected %d feature values, got %d", FeatureCount, e.Got)
}

// NewRecord zips the fixed feature names with values, position by position.
func NewRecord(values []float64) (Record, error) {
	if len(values) != FeatureCount {
		return Record{}, &FeatureCountError{Got: len(values)}
	}
	return Record{
		Fe: values[0],
		C:  values[1],
		Mn: values[2],
		Si: values[3],
		Cr: values[4],
		Ni: values[5],
		Mo: values[6],
		V:  values[7],
		N:  values[8],
		Nb: values[9],
		Co: values[10],
		W:  values[11],
		Al: values[12],
		Ti: values[13],
	}, nil
}

// Values returns the record's values in wire order.
func (r Record) Values() [FeatureCount]float64 {
	return [FeatureCount]float64{
		r.Fe, r.C, r.Mn, r.Si, r.Cr, r.Ni, r.Mo, r.V, r.N, r.Nb, r.Co, r.W, r.Al, r.Ti,
	}
}

// Get returns the value of the named feature.
func (r Record) Get(name string) (float64, bool) {
	idx, ok := FeatureIndex(name)
	if !ok {
		return 0, false
	}
	return r.Values()[idx], true
}

// CheckFinite fails when any value is NaN or infinite.
func (r Record) CheckFinite() error {
	values := r.Values()
	for _, v := range values {
		if math.IsNaN(v) {
			return errors.New("Input contains NaN")
		}
	}
	for _, v := range values {
		if math.IsInf(v, 0) {
			return errors.New("Input contains infinity")
		}
	}
	return nil
}
