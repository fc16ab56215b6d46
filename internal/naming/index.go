package naming

import (
	"errors"
	"fmt"
)

// ErrNameCollision is matched by every NameCollisionError.
var ErrNameCollision = errors.New("name collision")

// NameCollisionError reports two distinct inputs deriving the same key, or
// an input deriving an empty key (Second is then empty).
type NameCollisionError struct {
	Space  string // what collided, e.g. "symbol" or "header path"
	Key    string
	First  string
	Second string
}

func (e *NameCollisionError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("name collision: %s derived from %s is empty", e.Space, e.First)
	}
	return fmt.Sprintf("name collision: %s %q derived from both %s and %s", e.Space, e.Key, e.First, e.Second)
}

// Is makes errors.Is(err, ErrNameCollision) work.
func (e *NameCollisionError) Is(target error) bool {
	return target == ErrNameCollision
}

// Index tracks which input owns each derived key within one key space.
type Index struct {
	space  string
	owners map[string]string
}

// NewIndex creates an empty index for the named key space.
func NewIndex(space string) *Index {
	return &Index{space: space, owners: make(map[string]string)}
}

// Claim records that owner derives key. Claiming a key already held by a
// different owner, or an empty key, fails with a *NameCollisionError.
func (x *Index) Claim(key, owner string) error {
	if key == "" {
		return &NameCollisionError{Space: x.space, First: owner}
	}
	if prev, ok := x.owners[key]; ok && prev != owner {
		return &NameCollisionError{Space: x.space, Key: key, First: prev, Second: owner}
	}
	x.owners[key] = owner
	return nil
}

// Owner returns the input that claimed key.
func (x *Index) Owner(key string) (string, bool) {
	owner, ok := x.owners[key]
	return owner, ok
}

// Len returns the number of claimed keys.
func (x *Index) Len() int {
	return len(x.owners)
}
