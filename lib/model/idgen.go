package model

import (
	"fmt"
	"github.com/google/uuid"
	"strings"
)

// idGenerator allocates document ids <prefix>+<session><counter>. The session
// separates concurrent writers, the counter is monotonic per prefix.
type idGenerator struct {
	session  string
	counters map[string]uint64
	exists   func(id string) bool
}

func newIDGenerator(session string, exists func(id string) bool) *idGenerator {
	if session == "" {
		session = newSession()
	}
	return &idGenerator{
		session:  session,
		counters: make(map[string]uint64),
		exists:   exists,
	}
}

// newSession returns eight random hex characters.
func newSession() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// next returns the next id for prefix that is not used yet.
func (g *idGenerator) next(prefix string) string {
	for {
		g.counters[prefix]++
		id := fmt.Sprintf("%s+%s%d", prefix, g.session, g.counters[prefix])
		if g.exists == nil || !g.exists(id) {
			return id
		}
	}
}
