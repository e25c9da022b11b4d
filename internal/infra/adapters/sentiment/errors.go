package sentiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
)

func classifyContextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrBackendTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
}
