// Package codegen produces access codes that do not collide with codes
// already present in the record store.
package codegen

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"go.uber.org/zap"
	"worry_solver/internal/config"
	"worry_solver/internal/domain"
)

const DefaultMaxAttempts = 16

type KeyChecker interface {
	Exists(ctx context.Context, code string) bool
}

type Generator struct {
	keys        KeyChecker
	rand        io.Reader
	maxAttempts int
	log         *zap.Logger
}

func New(keys KeyChecker, maxAttempts int, logger *zap.Logger) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{keys: keys, rand: rand.Reader, maxAttempts: maxAttempts, log: logger}
}

func NewFromConfig(cfg *config.Config, keys KeyChecker, logger *zap.Logger) *Generator {
	return New(keys, cfg.CodeMaxAttempts, logger)
}

// WithRand replaces the randomness source, for deterministic tests.
func (g *Generator) WithRand(r io.Reader) *Generator {
	g.rand = r
	return g
}

// Generate returns a code unused at the time of the check. Running out of
// attempts means the key space is effectively full or the source is broken;
// it is reported as domain.ErrCodeSpaceExhausted and must not be retried.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := g.candidate()
		if err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		if !g.keys.Exists(ctx, candidate) {
			return candidate, nil
		}
		g.log.Warn("access code collision", zap.String("access_code", candidate), zap.Int("attempt", attempt))
	}
	g.log.Error("access code generation exhausted", zap.Int("max_attempts", g.maxAttempts))
	return "", fmt.Errorf("%w after %d attempts", domain.ErrCodeSpaceExhausted, g.maxAttempts)
}

func (g *Generator) candidate() (string, error) {
	alphabet := domain.AccessCodeAlphabet
	limit := big.NewInt(int64(len(alphabet)))

	var b strings.Builder
	b.Grow(domain.AccessCodeSegments*domain.AccessCodeSegmentSize + domain.AccessCodeSegments - 1)
	for seg := 0; seg < domain.AccessCodeSegments; seg++ {
		if seg > 0 {
			b.WriteString(domain.AccessCodeSeparator)
		}
		for i := 0; i < domain.AccessCodeSegmentSize; i++ {
			n, err := rand.Int(g.rand, limit)
			if err != nil {
				return "", err
			}
			b.WriteByte(alphabet[n.Int64()])
		}
	}
	return b.String(), nil
}
