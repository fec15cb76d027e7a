package router_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/schoolkit/pkg/router"
)

func TestConn(t *testing.T) {
	t.Parallel()

	t.Run("release runs exactly once", func(t *testing.T) {
		t.Parallel()

		released := 0
		conn := router.NewConn(uuid.New(), nil, func() { released++ })

		conn.Release()
		conn.Release()
		conn.Release()
		assert.Equal(t, 1, released)
	})

	t.Run("nil release func is tolerated", func(t *testing.T) {
		t.Parallel()

		conn := router.NewConn(uuid.Nil, nil, nil)
		assert.NotPanics(t, conn.Release)
	})

	t.Run("central detection", func(t *testing.T) {
		t.Parallel()

		assert.True(t, router.NewConn(uuid.Nil, nil, nil).Central())
		assert.False(t, router.NewConn(uuid.New(), nil, nil).Central())
	})

	t.Run("pool access after release panics", func(t *testing.T) {
		t.Parallel()

		conn := router.NewConn(uuid.New(), nil, nil)
		conn.Release()
		assert.Panics(t, func() { conn.Pool() })
	})
}

func TestConnContextCarriage(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		conn := router.NewConn(uuid.New(), nil, nil)
		ctx := router.WithConn(context.Background(), conn)

		got, ok := router.FromContext(ctx)
		require.True(t, ok)
		assert.Same(t, conn, got)
	})

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()

		_, ok := router.FromContext(context.Background())
		assert.False(t, ok)
		assert.Panics(t, func() { router.MustFromContext(context.Background()) })
	})

	t.Run("concurrent requests carry independent bindings", func(t *testing.T) {
		t.Parallel()

		idA, idB := uuid.New(), uuid.New()
		ctxA := router.WithConn(context.Background(), router.NewConn(idA, nil, nil))
		ctxB := router.WithConn(context.Background(), router.NewConn(idB, nil, nil))

		gotA := router.MustFromContext(ctxA)
		gotB := router.MustFromContext(ctxB)
		assert.Equal(t, idA, gotA.TenantID())
		assert.Equal(t, idB, gotB.TenantID())
	})
}
