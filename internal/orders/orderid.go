package orders

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/saiembroidery/storefront-backend/pkg/enums"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
)

const (
	suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixLength   = 4
)

// SequenceSource yields the all-time order count for a category.
type SequenceSource interface {
	CountByCategory(ctx context.Context, category enums.DesignCategory) (int64, error)
}

// Generator produces human-readable order identifiers of the form
// YYMMDD-CC-SEQ-RAND, e.g. 260829-BR-013-K7QX. CC is the category code,
// SEQ is the category's order count plus one, and RAND is a random
// uppercase alphanumeric suffix. SEQ alone is not unique under concurrent
// checkouts; the suffix plus the DB unique constraint carry uniqueness.
type Generator struct {
	seq  SequenceSource
	now  func() time.Time
	rand func(alphabetLen int) (int, error)
}

// NewGenerator builds a generator backed by the order table counts.
func NewGenerator(seq SequenceSource) (*Generator, error) {
	if seq == nil {
		return nil, fmt.Errorf("sequence source required")
	}
	return &Generator{
		seq:  seq,
		now:  time.Now,
		rand: cryptoRandIndex,
	}, nil
}

// Generate returns a fresh order identifier for the category.
func (g *Generator) Generate(ctx context.Context, category enums.DesignCategory) (string, error) {
	count, err := g.seq.CountByCategory(ctx, category)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category orders")
	}

	suffix, err := g.randomSuffix()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order suffix")
	}

	datePart := g.now().Format("060102")
	return fmt.Sprintf("%s-%s-%03d-%s", datePart, category.Code(), count+1, suffix), nil
}

func (g *Generator) randomSuffix() (string, error) {
	out := make([]byte, suffixLength)
	for i := range out {
		idx, err := g.rand(len(suffixAlphabet))
		if err != nil {
			return "", err
		}
		out[i] = suffixAlphabet[idx]
	}
	return string(out), nil
}

func cryptoRandIndex(alphabetLen int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(alphabetLen)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
