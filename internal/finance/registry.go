package finance

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"organizapay/internal/cache"
	"organizapay/internal/core"
	"organizapay/internal/log"
	"organizapay/internal/records"
)

// Registry keeps one live controller per signed-in user. Idle controllers
// expire after the TTL and are closed when they leave the cache.
type Registry struct {
	store       records.Store
	opts        []Option
	controllers *cache.LRUCache[*Controller]
	group       singleflight.Group
	logger      *log.Logger
}

// NewRegistry creates a registry holding up to size controllers. opts are
// applied to every controller it creates.
func NewRegistry(store records.Store, size int, ttl time.Duration, logger *log.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = log.Discard()
	}
	r := &Registry{
		store:  store,
		opts:   opts,
		logger: logger.WithComponent(log.ComponentFinance),
	}
	r.controllers = cache.NewLRUCache(size, ttl,
		cache.WithSlidingTTL[*Controller](),
		cache.WithOnEvict(func(userID string, c *Controller) {
			c.Close()
			r.logger.Debug("Controller released", log.FieldUserID, userID)
		}),
	)
	return r
}

// loadTimeout bounds the shared first load of a controller.
const loadTimeout = 30 * time.Second

// Get returns the user's controller, creating and loading it on first use.
// Concurrent first requests for the same user share one load, which does not
// end when the caller that started it goes away.
func (r *Registry) Get(ctx context.Context, user core.User) (*Controller, error) {
	if c, ok := r.controllers.Get(user.ID); ok {
		return c, nil
	}

	v, err, _ := r.group.Do(user.ID, func() (any, error) {
		if c, ok := r.controllers.Get(user.ID); ok {
			return c, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		c := New(r.store, r.opts...)
		if err := c.SetSession(loadCtx, &user); err != nil {
			c.Close()
			return nil, err
		}
		r.controllers.Set(user.ID, c)
		r.logger.InfoContext(loadCtx, "Controller created", log.FieldUserID, user.ID)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Controller), nil
}

// Release closes and forgets the user's controller, as on sign-out.
func (r *Registry) Release(userID string) {
	r.controllers.Delete(userID)
}

// Len reports how many controllers are live.
func (r *Registry) Len() int {
	return r.controllers.Size()
}

// Cleaner exposes the controller cache for periodic expiry.
func (r *Registry) Cleaner() cache.Cleaner {
	return r.controllers
}

// Close releases every controller.
func (r *Registry) Close() {
	r.controllers.Purge()
}
