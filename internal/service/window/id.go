package window

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Generator hands out run IDs unique within the process.
type Generator struct {
	counter uint64
}

// NewGenerator returns a generator starting at 1.
func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns an ID such as "go-playground-validator-run-3".
func (g *Generator) Next(library string) string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%s-run-%d", slug(library), n)
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
