package types

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// TimestampLayout is the second-resolution stamp used in mold and calibration
// file names.
const TimestampLayout = "20060102_150405"

// RatioBounds is the accepted range for one mixing ratio.
type RatioBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CalibrationSnapshot is one save of the calibration form. On disk it is a
// flat object keyed by ratio letter; Key is the file stem.
type CalibrationSnapshot struct {
	Key    string
	Ratios map[string]RatioBounds
}

// Timestamp returns the stamp portion of the snapshot key.
func (c CalibrationSnapshot) Timestamp() string {
	return strings.TrimPrefix(c.Key, "calibration_")
}

func (c CalibrationSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Ratios)
}

func (c *CalibrationSnapshot) UnmarshalJSON(b []byte) error {
	var ratios map[string]RatioBounds
	if err := json.Unmarshal(b, &ratios); err != nil {
		return err
	}
	c.Ratios = ratios
	return nil
}

// Validate requires bounds for every ratio A through J with min not above max.
func (c CalibrationSnapshot) Validate() error {
	var errs ValidationErrors
	for _, r := range MixingRatios {
		b, ok := c.Ratios[r]
		if !ok {
			errs.Add(r, nil, "is required")
			continue
		}
		if !finite(b.Min) || !finite(b.Max) {
			errs.Add(r, fmt.Sprintf("%g:%g", b.Min, b.Max), "values must be numbers")
			continue
		}
		if b.Min > b.Max {
			errs.Add(r, fmt.Sprintf("%g:%g", b.Min, b.Max), "min must not exceed max")
		}
	}
	for r := range c.Ratios {
		if !IsMixingRatio(r) {
			errs.Add(r, nil, "is not a mixing ratio")
		}
	}
	return errs.Err()
}

// finite rejects NaN and the infinities, which ParseFloat accepts.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RatioInput is the raw text typed into the calibration form for one ratio.
type RatioInput struct {
	Ratio string
	Min   string
	Max   string
}

// ParseCalibration converts form text into a snapshot. Every ratio must have
// both bounds and both must be numbers.
func ParseCalibration(inputs []RatioInput) (CalibrationSnapshot, error) {
	snap := CalibrationSnapshot{Ratios: make(map[string]RatioBounds, len(inputs))}
	var errs ValidationErrors
	for _, in := range inputs {
		minText, maxText := strings.TrimSpace(in.Min), strings.TrimSpace(in.Max)
		if minText == "" || maxText == "" {
			errs.Add(in.Ratio, nil, "needs both min and max")
			continue
		}
		lo, errLo := strconv.ParseFloat(minText, 64)
		hi, errHi := strconv.ParseFloat(maxText, 64)
		if errLo != nil || errHi != nil || !finite(lo) || !finite(hi) {
			errs.Add(in.Ratio, minText+":"+maxText, "values must be numbers")
			continue
		}
		snap.Ratios[in.Ratio] = RatioBounds{Min: lo, Max: hi}
	}
	if len(errs) > 0 {
		return CalibrationSnapshot{}, errs
	}
	if err := snap.Validate(); err != nil {
		return CalibrationSnapshot{}, err
	}
	return snap, nil
}

// ParseRatioFlag parses "A=1.5:2.5" as used by the calibrate command.
func ParseRatioFlag(s string) (RatioInput, error) {
	ratio, bounds, ok := strings.Cut(s, "=")
	if !ok {
		return RatioInput{}, fmt.Errorf("ratio %q: want LETTER=MIN:MAX", s)
	}
	lo, hi, ok := strings.Cut(bounds, ":")
	if !ok {
		return RatioInput{}, fmt.Errorf("ratio %q: want LETTER=MIN:MAX", s)
	}
	return RatioInput{Ratio: strings.ToUpper(strings.TrimSpace(ratio)), Min: lo, Max: hi}, nil
}

// SortedRatios returns the ratio letters present in the snapshot in order.
func (c CalibrationSnapshot) SortedRatios() []string {
	out := make([]string, 0, len(c.Ratios))
	for r := range c.Ratios {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
