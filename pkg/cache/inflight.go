package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrPopulatePanicked wraps a panic raised inside a populate function.
var ErrPopulatePanicked = errors.New("cache: populate panicked")

// PopulateFunc loads the value for a missing key. Returning an error means
// nothing is cached; every caller waiting on the key receives the error.
type PopulateFunc func(ctx context.Context) (any, error)

// call is one in-flight populate shared by every caller of the same key.
type call struct {
	done   chan struct{}
	val    any
	err    error
	refs   int  // callers still waiting
	stale  bool // key was written while loading
	cancel context.CancelFunc
}

// GetOrPopulate returns the cached value for key or, on a miss, runs populate
// and stores its result with opts. Concurrent callers for the same key share a
// single populate run.
//
// The populate runs under its own context that keeps the values of the first
// caller's ctx but is only cancelled once every waiting caller has given up.
// A caller whose ctx ends stops waiting and gets ctx.Err(). A populate that
// fails, is cancelled, or is overtaken by a Set/Update/Remove on the same key
// stores nothing.
func (c *Cache) GetOrPopulate(ctx context.Context, key string, opts EntryOptions, populate PopulateFunc) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if v, ok := c.getLocked(key); ok {
		c.stats.hits++
		c.mu.Unlock()
		return v, nil
	}
	c.stats.misses++

	cl, ok := c.inflight[key]
	if !ok {
		pctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		cl = &call{done: make(chan struct{}), cancel: cancel}
		c.inflight[key] = cl
		go c.run(pctx, key, cl, opts, populate)
	}
	cl.refs++
	c.mu.Unlock()

	select {
	case <-cl.done:
		return cl.val, cl.err
	case <-ctx.Done():
		c.leave(key, cl)
		return nil, ctx.Err()
	}
}

func (c *Cache) run(ctx context.Context, key string, cl *call, opts EntryOptions, populate PopulateFunc) {
	defer cl.cancel()

	val, err := safePopulate(ctx, populate)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	c.mu.Lock()
	cl.val, cl.err = val, err
	owner := c.inflight[key] == cl
	if owner {
		delete(c.inflight, key)
	}
	switch {
	case err != nil:
		c.stats.failures++
	case !owner || cl.stale:
		c.stats.discarded++
		logrus.Debugf("[CACHE] populate for %s overtaken by a write, result not stored", key)
	default:
		c.stats.populations++
		c.setLocked(key, val, opts)
	}
	c.mu.Unlock()

	close(cl.done)
}

// leave drops one waiter; the last one out cancels the populate.
func (c *Cache) leave(key string, cl *call) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl.refs--
	if cl.refs > 0 {
		return
	}
	if c.inflight[key] == cl {
		delete(c.inflight, key)
	}
	cl.cancel()
}

// invalidateInflightLocked detaches a running populate for key so its result
// is not stored and later callers start a fresh load.
func (c *Cache) invalidateInflightLocked(key string) {
	if cl, ok := c.inflight[key]; ok {
		cl.stale = true
		delete(c.inflight, key)
	}
}

func safePopulate(ctx context.Context, populate PopulateFunc) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPopulatePanicked, r)
		}
	}()
	return populate(ctx)
}
