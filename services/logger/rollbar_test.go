package logsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trezcool/dalant/core"
)

func TestRollbarLogger_prepare(t *testing.T) {
	l := NewRollbarLogger(zap.NewNop(), &core.Config{Env: "TEST"})
	l.Enable(false)

	errBoom := errors.New("boom")
	kim := core.LogPerson{ID: "t-1", Username: "kim", Email: "kim@grace.test"}
	lee := core.LogPerson{ID: "t-2", Username: "lee"}

	t.Run("person goes into the item context", func(t *testing.T) {
		args := l.prepare("failed", []interface{}{errBoom, kim, lee})
		require.Len(t, args, 3)
		assert.Equal(t, "failed", args[0])
		assert.Equal(t, errBoom, args[1])

		ctx, ok := args[2].(context.Context)
		require.True(t, ok)
		p, ok := rollbar.PersonFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, &rollbar.Person{Id: "t-1", Username: "kim", Email: "kim@grace.test"}, p)
	})

	t.Run("no person", func(t *testing.T) {
		extras := map[string]interface{}{"church": "GRACE"}
		args := l.prepare("hello", []interface{}{extras})
		assert.Equal(t, []interface{}{"hello", extras}, args)
	})
}

func Test_fields(t *testing.T) {
	kv := fields([]interface{}{
		errors.New("boom"),
		map[string]interface{}{"church": "GRACE"},
		core.LogPerson{ID: "s-1"},
		42,
	})
	assert.Equal(t, []interface{}{"error", "boom", "church", "GRACE", "person", "s-1", "arg3", 42}, kv)
}
