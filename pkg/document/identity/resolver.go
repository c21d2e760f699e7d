package identity

import (
	"sync"

	"github.com/stateful/pageblocks/internal/ulid"
)

type Policy int

// Policies decide whether ids found in markup are kept.
//
// The following policies are supported:
// - UnspecifiedPolicy: behaves like DefaultPolicy.
// - PreservePolicy: a valid, not yet used id from markup is kept.
// - FreshPolicy: every parsed block gets a new id.
const (
	UnspecifiedPolicy Policy = iota
	PreservePolicy
	FreshPolicy
)

const DefaultPolicy = PreservePolicy

// IDAttribute is the markup attribute carrying a block id.
const IDAttribute = "data-block-id"

// Resolver hands out block ids during a single parse. It never returns
// the same id twice.
type Resolver struct {
	preserve bool

	mu   sync.Mutex
	used map[string]struct{}
}

func NewResolver(policy Policy) *Resolver {
	if policy == UnspecifiedPolicy {
		policy = DefaultPolicy
	}
	return &Resolver{
		preserve: policy == PreservePolicy,
		used:     make(map[string]struct{}),
	}
}

// PreserveEnabled returns true if ids from markup may be kept.
func (r *Resolver) PreserveEnabled() bool {
	return r.preserve
}

// BlockID returns an id for a block parsed from an element with the
// given attributes, and whether it was taken from the attributes.
func (r *Resolver) BlockID(attributes map[string]string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.preserve {
		if id, ok := attributes[IDAttribute]; ok && ulid.ValidID(id) {
			if _, taken := r.used[id]; !taken {
				r.used[id] = struct{}{}
				return id, true
			}
		}
	}

	id := ulid.GenerateID()
	if _, taken := r.used[id]; taken {
		// A fixed generator is installed; fall back to real entropy.
		id = ulid.DefaultGenerator()
	}
	r.used[id] = struct{}{}
	return id, false
}
