package model

import "fmt"

// Detection is the outcome of one heuristic step. A fallback still carries a usable
// value; Reason explains why the heuristic did not fire.
type Detection[T any] struct {
	Value      T
	Confidence float64 // 0.0 - 1.0
	Fallback   bool
	Reason     string
}

// Detected wraps a value found by a heuristic
func Detected[T any](v T, confidence float64) Detection[T] {
	if confidence > 1 {
		confidence = 1
	}
	return Detection[T]{Value: v, Confidence: confidence}
}

// FellBack wraps a default used because the heuristic found nothing
func FellBack[T any](v T, reason string) Detection[T] {
	return Detection[T]{Value: v, Fallback: true, Reason: reason}
}

// Diagnose converts the detection into a loggable, serializable record.
func (d Detection[T]) Diagnose(sheet, step string) Diagnostic {
	return Diagnostic{
		Sheet:      sheet,
		Step:       step,
		Value:      fmt.Sprint(d.Value),
		Confidence: d.Confidence,
		Fallback:   d.Fallback,
		Reason:     d.Reason,
	}
}

// Diagnostic records which heuristic fired for which sheet.
type Diagnostic struct {
	Sheet      string  `json:"sheet"`
	Step       string  `json:"step"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"fallback"`
	Reason     string  `json:"reason,omitempty"`
}
