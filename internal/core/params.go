package core

import (
	"math"
	"strconv"
	"time"
)

// ParamType enumerates supported parameter value kinds.
type ParamType string

const (
	// ParamTypeInt denotes integer-valued parameters.
	ParamTypeInt ParamType = "int"
	// ParamTypeFloat denotes floating-point parameters.
	ParamTypeFloat ParamType = "float"
	// ParamTypeBool denotes boolean parameters.
	ParamTypeBool ParamType = "bool"
	// ParamTypeText denotes read-only display values.
	ParamTypeText ParamType = "text"
)

// Parameter describes a single value shown on the HUD.
type Parameter struct {
	Key         string
	Label       string
	Type        ParamType
	Value       string
	Description string
}

// IntParam builds an integer parameter.
func IntParam(key, label string, v int) Parameter {
	return Parameter{Key: key, Label: label, Type: ParamTypeInt, Value: strconv.Itoa(v)}
}

// Uint64Param builds an integer parameter from an unsigned counter.
func Uint64Param(key, label string, v uint64) Parameter {
	return Parameter{Key: key, Label: label, Type: ParamTypeInt, Value: strconv.FormatUint(v, 10)}
}

// FloatParam builds a float parameter with the given precision.
func FloatParam(key, label string, v float64, prec int) Parameter {
	return Parameter{Key: key, Label: label, Type: ParamTypeFloat, Value: strconv.FormatFloat(v, 'f', prec, 64)}
}

// BoolParam builds a boolean parameter.
func BoolParam(key, label string, v bool) Parameter {
	return Parameter{Key: key, Label: label, Type: ParamTypeBool, Value: strconv.FormatBool(v)}
}

// TextParam builds a display-only parameter.
func TextParam(key, label, v string) Parameter {
	return Parameter{Key: key, Label: label, Type: ParamTypeText, Value: v}
}

// DurationParam renders d rounded to microseconds.
func DurationParam(key, label string, d time.Duration) Parameter {
	return TextParam(key, label, d.Round(time.Microsecond).String())
}

// ParameterGroup clusters related parameters for presentation purposes.
type ParameterGroup struct {
	Name    string
	Params  []Parameter
	Summary string
}

// ParameterSnapshot captures the values currently exposed to the HUD.
type ParameterSnapshot struct {
	Groups []ParameterGroup
}

// Find returns the parameter with the given key.
func (s ParameterSnapshot) Find(key string) (Parameter, bool) {
	for _, g := range s.Groups {
		for _, p := range g.Params {
			if p.Key == key {
				return p, true
			}
		}
	}
	return Parameter{}, false
}

// Merge appends the groups of other.
func (s ParameterSnapshot) Merge(other ParameterSnapshot) ParameterSnapshot {
	out := ParameterSnapshot{Groups: make([]ParameterGroup, 0, len(s.Groups)+len(other.Groups))}
	out.Groups = append(out.Groups, s.Groups...)
	out.Groups = append(out.Groups, other.Groups...)
	return out
}

// ParameterControl describes an adjustable parameter that should be exposed on
// the HUD. Steps and bounds are optional and interpreted based on the
// parameter type.
type ParameterControl struct {
	Key   string
	Label string
	Type  ParamType

	Step float64

	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

// Adjust moves current one step in direction and clamps the result. It
// reports false when the value would not change.
func (c ParameterControl) Adjust(current float64, direction int) (float64, bool) {
	if direction == 0 {
		return current, false
	}
	step := c.Step
	switch c.Type {
	case ParamTypeInt:
		step = math.Round(step)
		if step <= 0 {
			step = 1
		}
	default:
		if step <= 0 {
			step = 0.05
		}
	}
	target := current + float64(direction)*step
	if c.HasMin && target < c.Min {
		target = c.Min
	}
	if c.HasMax && target > c.Max {
		target = c.Max
	}
	if math.Abs(target-current) < 1e-9 {
		return current, false
	}
	return target, true
}

// ParameterControlsProvider exposes the list of HUD-adjustable controls.
type ParameterControlsProvider interface {
	ParameterControls() []ParameterControl
}

// IntParameterSetter allows HUD interactions to update integer parameters.
type IntParameterSetter interface {
	SetIntParameter(key string, value int) bool
}

// FloatParameterSetter allows HUD interactions to update floating point
// parameters.
type FloatParameterSetter interface {
	SetFloatParameter(key string, value float64) bool
}
