package index

import (
	"errors"
	"fmt"
)

// ErrVectorLengthMismatch indicates two vectors have different widths.
var ErrVectorLengthMismatch = errors.New("vector length mismatch")

// ErrUnknownCorpus is returned when a corpus name is neither tasks nor projects.
var ErrUnknownCorpus = errors.New("unknown corpus")

// ValidationError reports input that cannot be normalized or encoded.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
