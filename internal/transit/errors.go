package transit

import "fmt"

// ConfigurationError reports malformed or missing grid or architecture
// parameters. It is raised before any chord is evaluated.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErrorf(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ModelEvaluationError reports a chord model failure. Any such failure aborts
// the whole evaluation.
type ModelEvaluationError struct {
	ChordIndex int
	Chord      Chord
	Err        error
}

func (e *ModelEvaluationError) Error() string {
	return fmt.Sprintf("chord %d (phase=%g rho=%g phi=%g): %v",
		e.ChordIndex, e.Chord.Phase, e.Chord.Rho, e.Chord.Phi, e.Err)
}

func (e *ModelEvaluationError) Unwrap() error { return e.Err }

// ShapeMismatchError reports a result whose size disagrees with the grid
// shape. Seeing one means the grid, a model or the pool is broken.
type ShapeMismatchError struct {
	What string
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s: want %d, got %d", e.What, e.Want, e.Got)
}
