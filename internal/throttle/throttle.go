// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package throttle limits how often chat requests may be sent.
//
// A Gate enforces two rules at once: a minimum cooldown between the starts of
// consecutive requests, and at most one request in flight.
package throttle

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCooldown is the minimum spacing between request starts.
const DefaultCooldown = time.Second

var (
	// ErrThrottled is returned when the cooldown has not elapsed.
	ErrThrottled = errors.New("please wait a moment before sending another message")

	// ErrInFlight is returned while a previous request is still running.
	ErrInFlight = errors.New("a request is already in progress")
)

// Gate is safe for concurrent use.
type Gate struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	cooldown time.Duration
	now      func() time.Time

	inFlight bool
	lastSent time.Time
}

// New creates a gate with the given cooldown. A non-positive cooldown only
// enforces the single in-flight rule.
func New(cooldown time.Duration) *Gate {
	g := &Gate{cooldown: cooldown, now: time.Now}
	if cooldown > 0 {
		g.limiter = rate.NewLimiter(rate.Every(cooldown), 1)
	}
	return g
}

// WithClock replaces time.Now. Call it before the gate is used.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Cooldown returns the configured spacing.
func (g *Gate) Cooldown() time.Duration {
	return g.cooldown
}

// CanSend reports whether a request may start now.
func (g *Gate) CanSend() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkLocked(g.now()) == nil
}

// MarkSent records a request start. It does not check CanSend; use Acquire
// for the combined check-and-mark.
func (g *Gate) MarkSent() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.markLocked(g.now())
}

// Release clears the in-flight flag. The cooldown keeps running.
func (g *Gate) Release() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// Acquire atomically checks and marks the gate. On success it returns a
// release function that is safe to call more than once; callers should defer
// it so the gate opens on every exit path.
func (g *Gate) Acquire() (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if err := g.checkLocked(now); err != nil {
		return nil, err
	}
	g.markLocked(now)

	var once sync.Once
	return func() { once.Do(g.Release) }, nil
}

// InFlight reports whether a request is running.
func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// LastSent returns the time of the last request start.
func (g *Gate) LastSent() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSent
}

// Remaining returns how long until the cooldown allows another request.
func (g *Gate) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastSent.IsZero() {
		return 0
	}
	if d := g.lastSent.Add(g.cooldown).Sub(g.now()); d > 0 {
		return d
	}
	return 0
}

func (g *Gate) checkLocked(now time.Time) error {
	if g.inFlight {
		return ErrInFlight
	}
	if g.limiter != nil && g.limiter.TokensAt(now) < 1 {
		return ErrThrottled
	}
	return nil
}

func (g *Gate) markLocked(now time.Time) {
	// A reservation always succeeds with burst 1. Marking without a prior
	// check pushes the next allowed start further out.
	if g.limiter != nil {
		g.limiter.ReserveN(now, 1)
	}
	g.inFlight = true
	g.lastSent = now
}
