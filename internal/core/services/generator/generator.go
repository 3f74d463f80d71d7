package generator

import (
	"context"
	"math"

	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/domain"
)

// Sink receives generated candidates. Push must block while the sink is saturated.
type Sink interface {
	Push(ctx context.Context, c domain.Candidate) error
	CloseProducer()
}

// Generator enumerates every candidate of length minLength..maxLength over an
// alphabet, shortest first and lexicographic within a length
type Generator struct {
	alphabet  []byte
	minLength int
	maxLength int
	logger    primary.Logger
}

// NewGenerator creates a generator starting at minLength (1 when not positive)
func NewGenerator(alphabet string, minLength, maxLength int, logger primary.Logger) *Generator {
	if minLength < 1 {
		minLength = 1
	}
	if maxLength < 1 {
		maxLength = domain.DefaultMaxLength
	}
	return &Generator{
		alphabet:  []byte(alphabet),
		minLength: minLength,
		maxLength: maxLength,
		logger:    logger,
	}
}

// Run pushes the whole space into sink and closes it. A cancelled context stops
// generation between candidates; the sink is left open in that case.
func (g *Generator) Run(ctx context.Context, sink Sink) error {
	g.logger.Info("Password generator started",
		"alphabet", string(g.alphabet), "minLength", g.minLength, "maxLength", g.maxLength,
		"space", Count(len(g.alphabet), g.minLength, g.maxLength))

	err := g.Each(ctx, func(c domain.Candidate) error {
		return sink.Push(ctx, c)
	})
	if err != nil {
		g.logger.Info("Password generator stopped", "reason", err)
		return err
	}

	sink.CloseProducer()
	g.logger.Info("Password space exhausted by generator")
	return nil
}

// Each calls fn for every candidate in order, stopping at the first error
func (g *Generator) Each(ctx context.Context, fn func(domain.Candidate) error) error {
	n := len(g.alphabet)
	if n == 0 {
		return nil
	}
	for length := g.minLength; length <= g.maxLength; length++ {
		// odometer over alphabet indices, last position spins fastest
		idx := make([]int, length)
		buf := make([]byte, length)
		for i := range buf {
			buf[i] = g.alphabet[0]
		}
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(string(buf)); err != nil {
				return err
			}

			pos := length - 1
			for pos >= 0 {
				idx[pos]++
				if idx[pos] < n {
					buf[pos] = g.alphabet[idx[pos]]
					break
				}
				idx[pos] = 0
				buf[pos] = g.alphabet[0]
				pos--
			}
			if pos < 0 {
				break
			}
		}
	}
	return nil
}

// Count is the number of candidates of length minLength..maxLength over an
// alphabet of the given size, saturating at math.MaxInt64
func Count(alphabetSize, minLength, maxLength int) int64 {
	if alphabetSize < 1 {
		return 0
	}
	if minLength < 1 {
		minLength = 1
	}
	var total, perLength int64 = 0, 1
	for l := 1; l <= maxLength; l++ {
		if perLength > math.MaxInt64/int64(alphabetSize) {
			return math.MaxInt64
		}
		perLength *= int64(alphabetSize)
		if l < minLength {
			continue
		}
		if total > math.MaxInt64-perLength {
			return math.MaxInt64
		}
		total += perLength
	}
	return total
}
