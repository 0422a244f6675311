// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package relay moves messages between the engine and an in-memory model of
// the secondary ledger. It stands in for the external relayer in tests and
// dev mode.
package relay

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultChannelBuffer      = 256
	DefaultChannelKeyCapacity = 4096
)

var (
	ErrChannelClosed = errors.New("relay channel closed")
	ErrChannelFull   = errors.New("relay channel full")
)

// Channel is a lossy, at-most-once message channel. An envelope whose key
// was already accepted is dropped. Accepted keys are remembered in a bounded
// LRU, so a key evicted long ago may be accepted again.
type Channel[T any] struct {
	mu        sync.Mutex
	ch        chan T
	done      chan struct{}
	seen      *lru.Cache[string, struct{}]
	closed    bool
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

func NewChannel[T any](buffer int, keyCapacity int) (*Channel[T], error) {
	if buffer <= 0 {
		buffer = DefaultChannelBuffer
	}
	if keyCapacity <= 0 {
		keyCapacity = DefaultChannelKeyCapacity
	}
	seen, err := lru.New[string, struct{}](keyCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create key cache: %w", err)
	}
	return &Channel[T]{
		ch:   make(chan T, buffer),
		done: make(chan struct{}),
		seen: seen,
	}, nil
}

// Send enqueues v unless key was already accepted. It returns false when the
// envelope was dropped as a duplicate. Send never blocks: a full buffer
// returns ErrChannelFull and the key is forgotten so it may be resent.
func (c *Channel[T]) Send(key string, v T) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrChannelClosed
	}
	if found, _ := c.seen.ContainsOrAdd(key, struct{}{}); found {
		c.dropped.Add(1)
		return false, nil
	}
	select {
	case c.ch <- v:
		c.delivered.Add(1)
		return true, nil
	default:
		c.seen.Remove(key)
		return false, ErrChannelFull
	}
}

// Receive returns the channel envelopes are delivered on
func (c *Channel[T]) Receive() <-chan T {
	return c.ch
}

// Done is closed when the channel is closed
func (c *Channel[T]) Done() <-chan struct{} {
	return c.done
}

// Len returns the number of envelopes waiting to be received
func (c *Channel[T]) Len() int {
	return len(c.ch)
}

func (c *Channel[T]) Delivered() uint64 {
	return c.delivered.Load()
}

func (c *Channel[T]) Dropped() uint64 {
	return c.dropped.Load()
}

// Close stops accepting envelopes. Envelopes already buffered can still be
// received.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}
