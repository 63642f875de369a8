// Package generator produces random identities and selections.
package generator

import (
	"math/rand"
	"strings"
	"time"
)

const (
	guestPrefix = "guest_"
	guestLen    = 9
	base36      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Generator wraps a seeded random source.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// GuestName returns an identity of the form guest_<9 base36 chars>.
func (g *Generator) GuestName() string {
	var b strings.Builder
	b.Grow(len(guestPrefix) + guestLen)
	b.WriteString(guestPrefix)
	for i := 0; i < guestLen; i++ {
		b.WriteByte(base36[g.rnd.Intn(len(base36))])
	}
	return b.String()
}

// IsGuestName reports whether name was produced by GuestName.
func IsGuestName(name string) bool {
	rest, ok := strings.CutPrefix(name, guestPrefix)
	if !ok || len(rest) != guestLen {
		return false
	}
	for _, r := range rest {
		if !strings.ContainsRune(base36, r) {
			return false
		}
	}
	return true
}

// Pick selects one option uniformly. It returns "" for no options.
func (g *Generator) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[g.rnd.Intn(len(options))]
}

// PickWeighted selects one option with a bias toward the weak set. Each weak
// option weighs 1+factor, every other option weighs 1.
func (g *Generator) PickWeighted(options []string, weak map[string]struct{}, factor float64) string {
	if len(options) == 0 {
		return ""
	}
	weights := make([]float64, len(options))
	total := 0.0
	for i, opt := range options {
		w := 1.0
		if _, ok := weak[opt]; ok {
			w += max(factor, 0)
		}
		weights[i] = w
		total += w
	}

	r := g.rnd.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return options[i]
		}
	}
	return options[len(options)-1]
}
