package device

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAttribute is returned when a name is not part of the device profile.
	ErrUnknownAttribute = errors.New("julabo: unknown attribute")
	// ErrUnknownModel is returned by ProfileFor and Open for unsupported models.
	ErrUnknownModel = errors.New("julabo: unknown model")
)

func unknownModel(model string) error {
	return fmt.Errorf("%w: %q", ErrUnknownModel, model)
}
