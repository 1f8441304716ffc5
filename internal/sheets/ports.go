// Package sheets defines where a premium user's records are mirrored.
package sheets

import (
	"context"

	"organizapay/internal/report"
)

// Mirror replaces a user's mirrored copy with the given report data.
type Mirror interface {
	MirrorUser(ctx context.Context, userID string, d report.Data) error
}
