package hexagram

import (
	"strconv"

	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
)

var (
	// ErrHexagramComplete is returned when a seventh line is appended.
	ErrHexagramComplete = apperrors.New(apperrors.CodeInvalidState, "hexagram already has six lines")
	// ErrHexagramIncomplete is returned when derived attributes are requested early.
	ErrHexagramIncomplete = apperrors.New(apperrors.CodeInvalidState, "hexagram needs six lines")
)

// invalidLineError reports a value outside 6-9. It is bad input wherever it
// is found: parsing, appending, or building from a slice.
func invalidLineError(v LineValue) error {
	return apperrors.WithMetadata(
		apperrors.CodeInvalidArgument,
		"line value must be 6, 7, 8 or 9, got "+strconv.Itoa(int(v)),
		map[string]string{"Field": "line"},
	)
}

