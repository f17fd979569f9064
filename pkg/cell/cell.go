// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package cell provides a borrow-checked container for extension instance
// state that tolerates reentrant calls from the host.
//
// A mutable borrow can be suspended with MakeInaccessible while the holder
// calls out to the host. During the suspension a reentrant call may borrow
// the value again; the suspension can only be lifted once those borrows are
// released. Borrow failures are returned as errors and never block.
package cell

import (
	"fmt"
	"sync"

	"github.com/samber/oops"
)

// State is the externally visible borrow state of a Cell.
type State int

// Borrow states.
const (
	Unborrowed State = iota
	SharedBorrowed
	ExclusiveBorrowed
	Suspended
)

func (s State) String() string {
	switch s {
	case Unborrowed:
		return "unborrowed"
	case SharedBorrowed:
		return "shared"
	case ExclusiveBorrowed:
		return "exclusive"
	case Suspended:
		return "suspended"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Counts is a snapshot of the borrow bookkeeping.
type Counts struct {
	Shared       int
	Mut          int
	Inaccessible int
	Poisoned     bool
}

// Cell guards a value of type T.
type Cell[T any] struct {
	mu       sync.Mutex
	value    T
	shared   int
	mut      int
	suspend  int
	poisoned bool
}

// New wraps value in a Cell.
func New[T any](value T) *Cell[T] {
	return &Cell[T]{value: value}
}

func borrowError(op, msg string) error {
	return oops.In("cell").Code("BORROW_FAILED").With("operation", op).Errorf("%s", msg)
}

func (c *Cell[T]) accessibleMut() int {
	return c.mut - c.suspend
}

// State reports the current state. A suspended cell with a reentrant borrow
// reports the reentrant borrow.
func (c *Cell[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.accessibleMut() > 0:
		return ExclusiveBorrowed
	case c.shared > 0:
		return SharedBorrowed
	case c.suspend > 0:
		return Suspended
	default:
		return Unborrowed
	}
}

// Counts returns the borrow counters.
func (c *Cell[T]) Counts() Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Counts{Shared: c.shared, Mut: c.mut, Inaccessible: c.suspend, Poisoned: c.poisoned}
}

// IsPoisoned reports whether a panic escaped while the value was mutably borrowed.
func (c *Cell[T]) IsPoisoned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poisoned
}

// Borrow takes a shared borrow.
func (c *Cell[T]) Borrow() (*Ref[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poisoned {
		return nil, borrowError("borrow", "cell is poisoned")
	}
	if c.accessibleMut() > 0 {
		return nil, borrowError("borrow", "cannot borrow while accessible mutable borrow exists")
	}
	c.shared++
	return &Ref[T]{cell: c}, nil
}

// BorrowMut takes an exclusive borrow.
func (c *Cell[T]) BorrowMut() (*MutRef[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poisoned {
		return nil, borrowError("borrow_mut", "cell is poisoned")
	}
	if c.shared > 0 {
		return nil, borrowError("borrow_mut", "cannot borrow mutable while shared borrow exists")
	}
	if c.accessibleMut() > 0 {
		return nil, borrowError("borrow_mut", "cannot borrow mutable while accessible mutable borrow exists")
	}
	c.mut++
	return &MutRef[T]{cell: c}, nil
}

// WithMut runs fn under an exclusive borrow. A panic inside fn poisons the
// cell before it propagates.
func (c *Cell[T]) WithMut(fn func(*T)) error {
	ref, err := c.BorrowMut()
	if err != nil {
		return err
	}
	completed := false
	defer func() {
		if !completed {
			c.mu.Lock()
			c.poisoned = true
			c.mu.Unlock()
		}
		ref.Release()
	}()
	fn(ref.Get())
	completed = true
	return nil
}

// Ref is a shared borrow. It must be released exactly once.
type Ref[T any] struct {
	cell     *Cell[T]
	released bool
}

// Get returns the borrowed value. Callers must not mutate through it.
func (r *Ref[T]) Get() *T {
	if r.released {
		panic("cell: use of released shared borrow")
	}
	return &r.cell.value
}

// Release ends the borrow. Releasing twice panics.
func (r *Ref[T]) Release() {
	if r.released {
		panic("cell: shared borrow released twice")
	}
	r.released = true
	r.cell.mu.Lock()
	r.cell.shared--
	r.cell.mu.Unlock()
}

// MutRef is an exclusive borrow. It must be released exactly once.
type MutRef[T any] struct {
	cell         *Cell[T]
	released     bool
	inaccessible bool
}

// Get returns the borrowed value. It panics while the borrow is suspended.
func (r *MutRef[T]) Get() *T {
	if r.released {
		panic("cell: use of released mutable borrow")
	}
	if r.inaccessible {
		panic("cell: use of mutable borrow while it is inaccessible")
	}
	return &r.cell.value
}

// Release ends the borrow. A suspended borrow cannot be released.
func (r *MutRef[T]) Release() {
	if r.released {
		panic("cell: mutable borrow released twice")
	}
	if r.inaccessible {
		panic("cell: mutable borrow released while inaccessible")
	}
	r.released = true
	r.cell.mu.Lock()
	r.cell.mut--
	r.cell.mu.Unlock()
}

// MakeInaccessible suspends the borrow so that reentrant code can borrow the
// value. The returned guard must be restored before r is used again.
func (r *MutRef[T]) MakeInaccessible() (*InaccessibleGuard[T], error) {
	if r.released {
		return nil, borrowError("make_inaccessible", "borrow already released")
	}
	if r.inaccessible {
		return nil, borrowError("make_inaccessible", "borrow is already inaccessible")
	}
	c := r.cell
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shared > 0 {
		return nil, borrowError("make_inaccessible", "cannot make reference inaccessible while shared borrows exist")
	}
	c.suspend++
	r.inaccessible = true
	return &InaccessibleGuard[T]{ref: r}, nil
}

// InaccessibleGuard represents the absence of access held by a suspended borrow.
type InaccessibleGuard[T any] struct {
	ref      *MutRef[T]
	restored bool
}

// Restore makes the suspended borrow accessible again. It fails while
// reentrant borrows taken during the suspension are still outstanding.
func (g *InaccessibleGuard[T]) Restore() error {
	if g.restored {
		return borrowError("restore", "guard already restored")
	}
	c := g.ref.cell
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shared > 0 {
		return borrowError("restore", "cannot make reference accessible while shared borrows exist")
	}
	if c.accessibleMut() > 0 {
		return borrowError("restore", "cannot make reference accessible while accessible mutable borrow exists")
	}
	c.suspend--
	g.ref.inaccessible = false
	g.restored = true
	return nil
}
