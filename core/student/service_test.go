package student

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dalant/core"
)

// codeRepo answers CodeExists from a fixed set; other methods are not used.
type codeRepo struct {
	Repository
	taken   map[string]bool
	checked int
}

func (r *codeRepo) CodeExists(_ context.Context, _, code string, _ ...core.DBExecutor) (bool, error) {
	r.checked++
	return r.taken[code], nil
}

func Test_codeGenerator(t *testing.T) {
	re := regexp.MustCompile(`^[1-9][0-9]{5}$`)
	a, b := newCodeGenerator(42), newCodeGenerator(42)
	for i := 0; i < 1000; i++ {
		code := a.next()
		require.Regexp(t, re, code)
		require.Equal(t, code, b.next(), "same seed, same codes")
	}
}

func TestService_uniqueCode(t *testing.T) {
	ctx := context.Background()

	t.Run("skips taken codes", func(t *testing.T) {
		first := newCodeGenerator(7).next()
		repo := &codeRepo{taken: map[string]bool{first: true}}
		svc := NewServiceWithSeed(repo, 7)

		code, err := svc.uniqueCode(ctx, "church")
		require.NoError(t, err)
		assert.NotEqual(t, first, code)
		assert.Equal(t, 2, repo.checked)
	})

	t.Run("gives up", func(t *testing.T) {
		taken := make(map[string]bool)
		gen := newCodeGenerator(7)
		for i := 0; i < maxCodeAttempts; i++ {
			taken[gen.next()] = true
		}
		repo := &codeRepo{taken: taken}
		svc := NewServiceWithSeed(repo, 7)

		_, err := svc.uniqueCode(ctx, "church")
		assert.Equal(t, ErrCodeExhausted, err)
		assert.Equal(t, maxCodeAttempts, repo.checked)
	})
}
