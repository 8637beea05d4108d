package resultlist

import (
	"hash"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/types"
)

type Domain string

// Recipient is the keyed hash of a lower-cased address
type Recipient []byte

type Hit struct {
	Domain     Domain
	Recipient  Recipient
	Result     provider.Result
	ValidUntil time.Time
}

// DomainStats counts the results of a single domain
type DomainStats struct {
	Domain string `json:"domain"`
	Valid  int    `json:"valid"`
	Total  int    `json:"total"`
}

// New creates a ResultList. Addresses are only kept as keyed hashes of h. A ttl of 0 keeps results for the lifetime of
// the list.
func New(h hash.Hash, ttl time.Duration, options ...Option) *ResultList {
	l := ResultList{
		h:    h,
		ttl:  ttl,
		now:  time.Now,
		hits: make(map[string]Hit),
	}

	for _, opt := range options {
		opt(&l)
	}

	return &l
}

// ResultList holds the latest result per address, for the duration of a session
type ResultList struct {
	hashLock sync.Mutex
	h        hash.Hash

	lock  sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	hits  map[string]Hit
	order []string
}

// Add records r, replacing an earlier result for the same address. The address keeps its original position.
func (rl *ResultList) Add(r provider.Result) error {
	parts, err := types.NewEmailParts(strings.ToLower(r.Email))
	if err != nil {
		return err
	}

	recipient := rl.recipient(parts.Address)

	var validUntil time.Time
	if rl.ttl > 0 {
		validUntil = rl.now().Add(rl.ttl)
	}

	rl.lock.Lock()
	defer rl.lock.Unlock()

	rl.prune()

	key := string(recipient)
	if _, exists := rl.hits[key]; !exists {
		rl.order = append(rl.order, key)
	}

	rl.hits[key] = Hit{
		Domain:     Domain(parts.Domain),
		Recipient:  recipient,
		Result:     r,
		ValidUntil: validUntil,
	}

	return nil
}

// Get returns the latest result for email
func (rl *ResultList) Get(email string) (provider.Result, bool) {
	recipient := rl.recipient(strings.ToLower(email))

	rl.lock.RLock()
	defer rl.lock.RUnlock()

	hit, ok := rl.hits[string(recipient)]
	if !ok || rl.expired(hit) {
		return provider.Result{}, false
	}

	return hit.Result, true
}

// Has returns true if a result for email is known
func (rl *ResultList) Has(email string) bool {
	_, ok := rl.Get(email)
	return ok
}

// Results returns the known results in the order the addresses were first added
func (rl *ResultList) Results() []provider.Result {
	return rl.filter(func(provider.Result) bool { return true })
}

// Valid returns only the results with a positive verdict
func (rl *ResultList) Valid() []provider.Result {
	return rl.filter(func(r provider.Result) bool { return r.IsValid })
}

// Clear forgets every result and returns how many were known
func (rl *ResultList) Clear() int {
	rl.lock.Lock()
	defer rl.lock.Unlock()

	n := len(rl.live())
	rl.hits = make(map[string]Hit)
	rl.order = nil

	return n
}

// Domains returns per domain counts, sorted by the number of valid addresses (high>low)
func (rl *ResultList) Domains() []DomainStats {
	rl.lock.RLock()
	stats := getDomainStats(rl.live())
	rl.lock.RUnlock()

	return stats
}

func (rl *ResultList) filter(keep func(r provider.Result) bool) []provider.Result {
	rl.lock.RLock()
	defer rl.lock.RUnlock()

	result := make([]provider.Result, 0, len(rl.order))
	for _, hit := range rl.live() {
		if keep(hit.Result) {
			result = append(result, hit.Result)
		}
	}

	return result
}

// live returns the hits that haven't expired, in order. The caller must hold the lock.
func (rl *ResultList) live() []Hit {
	hits := make([]Hit, 0, len(rl.order))
	for _, key := range rl.order {
		if hit := rl.hits[key]; !rl.expired(hit) {
			hits = append(hits, hit)
		}
	}

	return hits
}

// prune drops the expired hits. The caller must hold the write lock.
func (rl *ResultList) prune() {
	if rl.ttl <= 0 {
		return
	}

	order := rl.order[:0]
	for _, key := range rl.order {
		if rl.expired(rl.hits[key]) {
			delete(rl.hits, key)
			continue
		}

		order = append(order, key)
	}

	rl.order = order
}

func (rl *ResultList) expired(hit Hit) bool {
	return !hit.ValidUntil.IsZero() && !hit.ValidUntil.After(rl.now())
}

func (rl *ResultList) recipient(address string) Recipient {
	rl.hashLock.Lock()
	defer rl.hashLock.Unlock()

	rl.h.Reset()
	_, _ = rl.h.Write([]byte(address))

	return rl.h.Sum(nil)
}

// getDomainStats returns the domains sorted by their valid recipients in descending order, then by total and name
func getDomainStats(hits []Hit) []DomainStats {
	index := make(map[Domain]int)
	stats := make([]DomainStats, 0)

	for _, hit := range hits {
		i, ok := index[hit.Domain]
		if !ok {
			i = len(stats)
			index[hit.Domain] = i
			stats = append(stats, DomainStats{Domain: string(hit.Domain)})
		}

		stats[i].Total++
		if hit.Result.IsValid {
			stats[i].Valid++
		}
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Valid != stats[j].Valid {
			return stats[i].Valid > stats[j].Valid
		}

		if stats[i].Total != stats[j].Total {
			return stats[i].Total > stats[j].Total
		}

		return stats[i].Domain < stats[j].Domain
	})

	return stats
}
