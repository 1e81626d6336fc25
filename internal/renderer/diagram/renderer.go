package diagram

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const probeTimeout = 10 * time.Second

// Options configure a Renderer.
type Options struct {
	// Timeout bounds a single engine render. Zero means 15s.
	Timeout time.Duration
	// CacheSize bounds the memoised results. Zero disables the cache.
	CacheSize int
}

type probe struct {
	once sync.Once
	err  error
}

// Renderer dispatches regions to engines. It is safe for concurrent use.
type Renderer struct {
	engines map[string]Engine
	probes  map[string]*probe
	group   singleflight.Group
	cache   *lru.Cache[string, Result]
	timeout time.Duration
	logger  *slog.Logger
}

// NewRenderer registers engines by their lower-cased Name.
func NewRenderer(logger *slog.Logger, opts Options, engines ...Engine) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	r := &Renderer{
		engines: make(map[string]Engine, len(engines)),
		probes:  make(map[string]*probe, len(engines)),
		timeout: opts.Timeout,
		logger:  logger.With("component", "diagram"),
	}
	for _, e := range engines {
		if e == nil {
			continue
		}
		name := strings.ToLower(e.Name())
		r.engines[name] = e
		r.probes[name] = &probe{}
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, Result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("diagram cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Engines lists the registered engine names.
func (r *Renderer) Engines() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handles reports whether an engine is registered for name.
func (r *Renderer) Handles(name string) bool {
	_, ok := r.engines[strings.ToLower(name)]
	return ok
}

// Render draws region with cfg. It never returns an error: failures are
// reported through Result.State so they stay contained to the block. If ctx
// ends first the result is StateFailed with the context error.
func (r *Renderer) Render(ctx context.Context, region Region, cfg Config) Result {
	name := strings.ToLower(region.Engine)
	engine, ok := r.engines[name]
	if !ok {
		return Result{State: StateFailed, Err: fmt.Errorf("%w: %q", ErrUnknownEngine, region.Engine)}
	}

	if err := r.available(ctx, name, engine); err != nil {
		r.logger.Debug("engine unavailable, deferring to client", "engine", name, "err", err)
		return Result{State: StatePending, Err: err}
	}

	key := cacheKey(name, region.Source, cfg)
	if r.cache != nil {
		if res, ok := r.cache.Get(key); ok {
			return res
		}
	}

	ch := r.group.DoChan(key, func() (any, error) {
		return r.render(ctx, engine, region, cfg), nil
	})

	select {
	case <-ctx.Done():
		return Result{State: StateFailed, Err: ctx.Err()}
	case out := <-ch:
		res := out.Val.(Result)
		if r.cache != nil && cacheable(res) {
			r.cache.Add(key, res)
		}
		return res
	}
}

// render runs detached from the caller's cancellation so a collapsed
// duplicate is not failed by another caller giving up. The timeout still
// applies.
func (r *Renderer) render(ctx context.Context, engine Engine, region Region, cfg Config) Result {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	start := time.Now()
	raw, err := engine.Render(rctx, region, cfg)
	if err != nil {
		r.logger.Warn("diagram render failed", "engine", engine.Name(), "id", region.ID, "err", err)
		return Result{State: StateFailed, Err: err}
	}

	out, err := PostProcess(raw)
	if err != nil {
		r.logger.Warn("diagram post-process failed", "engine", engine.Name(), "id", region.ID, "err", err)
		return Result{State: StateFailed, Err: err}
	}
	out.Duration = time.Since(start)
	return Result{State: StateRendered, Diagram: out}
}

func (r *Renderer) available(ctx context.Context, name string, engine Engine) error {
	p := r.probes[name]
	p.once.Do(func() {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), probeTimeout)
		defer cancel()
		p.err = engine.Available(pctx)
		if p.err != nil {
			r.logger.Info("diagram engine unavailable", "engine", name, "err", p.err)
		}
	})
	return p.err
}

// cacheable keeps timeouts and cancellations out of the cache.
func cacheable(res Result) bool {
	if res.State != StateFailed {
		return true
	}
	return !errors.Is(res.Err, context.DeadlineExceeded) && !errors.Is(res.Err, context.Canceled)
}

func cacheKey(engine, source string, cfg Config) string {
	sum := sha256.New()
	sum.Write([]byte(engine))
	sum.Write([]byte{0})
	sum.Write([]byte(cfg.Fingerprint()))
	sum.Write([]byte{0})
	sum.Write([]byte(source))
	return hex.EncodeToString(sum.Sum(nil))
}
