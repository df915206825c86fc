// Package estack implements the non-destructive edit stack: a base buffer,
// an ordered operation sequence, and a cursor. The displayed image is
// always re-derivable by folding the active operations over the base, so
// the stack doubles as a replay log.
package estack

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ymniquet/equimage/pkg/eops"
	"github.com/ymniquet/equimage/pkg/epix"
)

// ClampPolicy says when samples get clipped back into the canonical [0, 1]
// range: once after the whole chain (the default, which keeps headroom in
// intermediate stages) or after every operation.
type ClampPolicy string

const (
	ClampFinal ClampPolicy = "final"
	ClampPerOp ClampPolicy = "perop"
)

// A Stack owns the edit history of one open image. All mutation goes
// through a single mutex; renders work on immutable snapshots so they can
// run on worker goroutines while the user keeps editing.
//
// cache[i] holds the buffer after folding ops[0:i], before any final
// clamp; cache[0] is the base. The cache is an accelerator only: Render
// recomputes from scratch and must agree with it.
type Stack struct {
	mu     sync.Mutex
	base   *epix.Buffer
	ops    []eops.Op
	cursor int
	policy ClampPolicy
	cache  []*epix.Buffer
}

// FromBase opens an edit stack over an imported buffer.
func FromBase(base *epix.Buffer) (*Stack, error) {
	if base == nil {
		return nil, fmt.Errorf("edit stack with nil base: %w", epix.ErrInvalidShape)
	}
	return &Stack{
		base:   base,
		policy: ClampFinal,
		cache:  []*epix.Buffer{base},
	}, nil
}

// SetClampPolicy picks the clamping policy. Changing it drops every cached
// intermediate, since they depend on it.
func (s *Stack) SetClampPolicy(p ClampPolicy) error {
	if p != ClampFinal && p != ClampPerOp {
		return fmt.Errorf("clamp policy %q: %w", p, epix.ErrInvalidParameters)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
	s.cache = []*epix.Buffer{s.base}
	return nil
}

func (s *Stack) Policy() ClampPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// Len returns the sequence length, including any redo tail.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

// Cursor returns the number of active operations.
func (s *Stack) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Append applies op to the current buffer and, on success, commits it at
// the cursor, discarding any redo tail. On failure the stack is untouched
// and the op is never inserted.
func (s *Stack) Append(op eops.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.deriveLocked(s.cursor)
	if err != nil {
		return err
	}
	out, err := op.Apply(cur)
	if err != nil {
		return fmt.Errorf("append %q: %w", op.Label, err)
	}
	if s.policy == ClampPerOp {
		out = out.Clamp(0, 1)
	}

	s.ops = append(s.ops[:s.cursor], op)
	s.cache = append(s.cache[:s.cursor+1], out)
	s.cursor++

	log.WithFields(log.Fields{"op": op.Kind.String(), "label": op.Label, "cursor": s.cursor}).
		Debug("operation appended")
	return nil
}

// Undo steps the cursor back. At the bottom of the stack it is a no-op;
// returns whether anything changed.
func (s *Stack) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == 0 {
		return false
	}
	s.cursor--
	log.WithFields(log.Fields{"cursor": s.cursor}).Debug("undo")
	return true
}

// Redo steps the cursor forward over a previously undone operation.
func (s *Stack) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == len(s.ops) {
		return false
	}
	s.cursor++
	log.WithFields(log.Fields{"cursor": s.cursor}).Debug("redo")
	return true
}

// ReplaceAt swaps the operation at index for a new one. Everything after
// the index is conservatively discarded: downstream operations may have
// assumed the old output. On failure the stack is untouched.
func (s *Stack) ReplaceAt(index int, op eops.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.ops) {
		return fmt.Errorf("replace at %d of %d ops: %w", index, len(s.ops), epix.ErrInvalidParameters)
	}

	in, err := s.deriveLocked(index)
	if err != nil {
		return err
	}
	out, err := op.Apply(in)
	if err != nil {
		return fmt.Errorf("replace %q at %d: %w", op.Label, index, err)
	}
	if s.policy == ClampPerOp {
		out = out.Clamp(0, 1)
	}

	s.ops = append(s.ops[:index], op)
	s.cache = append(s.cache[:index+1], out)
	s.cursor = index + 1

	log.WithFields(log.Fields{"op": op.Kind.String(), "index": index}).Debug("operation replaced")
	return nil
}

// Ops returns a copy of the full operation sequence, redo tail included.
func (s *Stack) Ops() []eops.Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]eops.Op, len(s.ops))
	copy(out, s.ops)
	return out
}

// Current returns the buffer for the active edit state, using cached
// intermediates where available.
func (s *Stack) Current() (*epix.Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.deriveLocked(s.cursor)
	if err != nil {
		return nil, err
	}
	if s.policy == ClampFinal {
		out = out.Clamp(0, 1)
	}
	return out, nil
}

// Base returns the unedited import, for comparing against the original.
func (s *Stack) Base() *epix.Buffer { return s.base }

// deriveLocked returns the buffer after folding ops[0:n], filling the
// cache as it goes. Caller holds the mutex.
func (s *Stack) deriveLocked(n int) (*epix.Buffer, error) {
	for len(s.cache) <= n {
		i := len(s.cache) - 1
		out, err := s.ops[i].Apply(s.cache[i])
		if err != nil {
			return nil, fmt.Errorf("replay op %d %q: %w", i, s.ops[i].Label, err)
		}
		if s.policy == ClampPerOp {
			out = out.Clamp(0, 1)
		}
		s.cache = append(s.cache, out)
	}
	return s.cache[n], nil
}

// A Snapshot is an immutable view of the active edit state, safe to hand
// to a worker goroutine: a concurrent append or undo on the stack cannot
// change what the snapshot renders.
type Snapshot struct {
	Base   *epix.Buffer
	Ops    []eops.Op
	Policy ClampPolicy
}

// Snapshot captures the base, the active operations, and the clamp policy.
func (s *Stack) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]eops.Op, s.cursor)
	copy(ops, s.ops[:s.cursor])
	return Snapshot{Base: s.base, Ops: ops, Policy: s.policy}
}

// Render folds the snapshot's operations over its base from scratch,
// ignoring any cache. Cancellation is cooperative: the context is checked
// between operations, and a cancelled render returns ctx.Err() with no
// partial output.
func (sn Snapshot) Render(ctx context.Context) (*epix.Buffer, error) {
	out := sn.Base
	for i, op := range sn.Ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := op.Apply(out)
		if err != nil {
			return nil, fmt.Errorf("replay op %d %q: %w", i, op.Label, err)
		}
		if sn.Policy == ClampPerOp {
			next = next.Clamp(0, 1)
		}
		out = next
	}
	if sn.Policy == ClampFinal {
		out = out.Clamp(0, 1)
	}
	return out, nil
}

// Render recomputes the current buffer from scratch. Must always agree
// with Current(); the tests hold us to that.
func (s *Stack) Render(ctx context.Context) (*epix.Buffer, error) {
	return s.Snapshot().Render(ctx)
}
