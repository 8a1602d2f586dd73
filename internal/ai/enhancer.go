// Package ai is the optional, best-effort suggestion enhancer. It is a
// capability behind an interface: when the adapter is absent, times out or
// fails, the pipeline carries on with rule-based suggestions alone.
package ai

import (
	"context"

	"conflictengine/internal/model"
)

// Enhancer extends a conflict's rule-based suggestions. Implementations must
// honor the context deadline; an error means the caller keeps the basic
// suggestions unchanged.
type Enhancer interface {
	Enhance(ctx context.Context, conflict *model.Conflict, basic []model.Resolution) ([]model.Resolution, error)
}
