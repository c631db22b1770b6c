package services

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

// EntityKind names a family of identifiers
type EntityKind string

const (
	KindPatient EntityKind = "patient"
	KindDoctor  EntityKind = "doctor"
	KindQuery   EntityKind = "query"
)

// IDAllocator issues "<kind>_<n>" identifiers from per-kind monotonic counters.
// Its counters are part of every snapshot.
type IDAllocator struct {
	mu       sync.Mutex
	counters entities.Counters
}

// NewIDAllocator creates an allocator with all counters at zero
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next increments the counter for kind and returns the new identifier
func (a *IDAllocator) Next(kind EntityKind) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	counter := a.counter(kind)
	*counter++
	return FormatID(kind, *counter)
}

// Counters returns the current counter values
func (a *IDAllocator) Counters() entities.Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters
}

// Restore replaces the counters with c
func (a *IDAllocator) Restore(c entities.Counters) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters = c
}

func (a *IDAllocator) counter(kind EntityKind) *uint64 {
	switch kind {
	case KindPatient:
		return &a.counters.Patient
	case KindDoctor:
		return &a.counters.Doctor
	case KindQuery:
		return &a.counters.Query
	}
	panic(fmt.Sprintf("unknown entity kind %q", kind))
}

// FormatID renders the identifier for sequence number n of kind
func FormatID(kind EntityKind, n uint64) string {
	return string(kind) + "_" + strconv.FormatUint(n, 10)
}

// ParseID extracts the sequence number from an identifier of the given kind.
// Only identifiers FormatID could have produced are accepted.
func ParseID(kind EntityKind, id string) (uint64, bool) {
	rest, ok := strings.CutPrefix(id, string(kind)+"_")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || n == 0 || FormatID(kind, n) != id {
		return 0, false
	}
	return n, true
}
