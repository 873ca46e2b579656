package hsm

import (
	"strings"

	apperrors "github.com/goliatone/go-errors"
)

const (
	ErrCodeCycleDetected = "HSM_CYCLE_DETECTED"
	ErrCodeNoStates      = "HSM_NO_STATES"
	ErrCodeInvalidParent = "HSM_INVALID_PARENT"
)

// Build errors are recoverable: fix the declared topology and build again.
// Runtime invariant violations (invalid initial state, transition to an
// unknown or non-leaf id) indicate a defect in the state table itself and
// panic instead.
var (
	ErrCycleDetected = apperrors.New("cycle detected in state topology", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeCycleDetected)
	ErrNoStates = apperrors.New("machine requires at least one state", apperrors.CategoryBadInput).
			WithTextCode(ErrCodeNoStates)
	ErrInvalidParent = apperrors.New("parent references an undeclared state", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidParent)
)

func cloneBuildError(base *apperrors.Error, message string, metadata map[string]any) *apperrors.Error {
	err := base.Clone()
	if text := strings.TrimSpace(message); text != "" {
		err.Message = text
	}
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}
