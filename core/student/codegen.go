package student

import (
	"math/rand"
	"strconv"
	"sync"
)

const (
	minCode         = 100000
	maxCode         = 999999
	maxCodeAttempts = 20
)

// codeGenerator draws random 6-digit student codes.
type codeGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newCodeGenerator(seed int64) *codeGenerator {
	return &codeGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *codeGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return strconv.Itoa(minCode + g.rng.Intn(maxCode-minCode+1))
}
