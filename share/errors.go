package share

import (
	"context"

	"github.com/pkg/errors"
)

// IsContextClosedError reports whether err comes from a cancelled or expired context,
// including when wrapped by net/http or pkg/errors.
func IsContextClosedError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
