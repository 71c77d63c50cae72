// Package id provides centralized ID generation for the kiosk backend.
//
// ULIDs are used for every identifier the backend mints: they sort by
// creation time, and the type-specific prefixes (ord_*, utt_*, sess_*)
// keep logs readable.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// OrderID identifies a settled order
type OrderID string

// UtteranceID identifies one recognized-speech event
type UtteranceID string

// SessionID identifies one kiosk customer session
type SessionID string

// RequestID identifies an API request
type RequestID string

const (
	OrderPrefix     = "ord"
	UtterancePrefix = "utt"
	SessionPrefix   = "sess"
	RequestPrefix   = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with secure entropy
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source,
// useful for deterministic tests
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewOrderID generates a new order ID
func NewOrderID() OrderID {
	return OrderID(Default().GenerateWithPrefix(OrderPrefix))
}

// NewUtteranceID generates a new utterance ID
func NewUtteranceID() UtteranceID {
	return UtteranceID(Default().GenerateWithPrefix(UtterancePrefix))
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id OrderID) String() string { return string(id) }

// Spoken returns a short reference suitable for voice readback: the last
// four characters of the ULID. Collisions across concurrent orders are
// acceptable for a single kiosk.
func (id OrderID) Spoken() string {
	s := string(id)
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

func (id UtteranceID) String() string { return string(id) }

func (id SessionID) String() string { return string(id) }

func (id RequestID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from an unprefixed ULID string
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
