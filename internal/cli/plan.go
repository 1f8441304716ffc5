package cli

import (
	"context"
	"fmt"
	"strings"

	"organizapay/internal/backend"
	"organizapay/internal/core"
	"organizapay/internal/finance"
	"organizapay/internal/log"
)

// SetPlan records plan as the subscription tier of the account registered
// under email. Running servers pick the change up on their next reload of
// that user.
func SetPlan(ctx context.Context, logger *log.Logger, store backend.Backend, email string, plan core.Plan) error {
	if !plan.Valid() {
		return fmt.Errorf("unknown plan %q", plan)
	}
	rec, err := store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("find user %q: %w", email, err)
	}

	ctrl := finance.New(store, finance.WithLogger(logger))
	defer ctrl.Close()
	if err := ctrl.SetSession(ctx, &rec.User); err != nil {
		return err
	}
	return ctrl.UpdatePlan(ctx, plan)
}
