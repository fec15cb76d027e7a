package tenant_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/schoolkit/pkg/tenant"
)

func TestContextCarriage(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		tt := newTestTenant("acme", tenant.StatusActive)
		ctx := tenant.WithTenant(context.Background(), tt)

		got, ok := tenant.FromContext(ctx)
		require.True(t, ok)
		assert.Same(t, tt, got)

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, tt.ID, id)
	})

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()

		got, ok := tenant.FromContext(context.Background())
		assert.False(t, ok)
		assert.Nil(t, got)

		id, ok := tenant.IDFromContext(context.Background())
		assert.False(t, ok)
		assert.Equal(t, uuid.UUID{}, id)
	})

	t.Run("must panics without tenant", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			tenant.MustFromContext(context.Background())
		})
	})

	t.Run("contexts are independent", func(t *testing.T) {
		t.Parallel()

		a := newTestTenant("schoola", tenant.StatusActive)
		b := newTestTenant("schoolb", tenant.StatusActive)

		ctxA := tenant.WithTenant(context.Background(), a)
		ctxB := tenant.WithTenant(context.Background(), b)

		gotA, _ := tenant.FromContext(ctxA)
		gotB, _ := tenant.FromContext(ctxB)
		assert.Equal(t, a.ID, gotA.ID)
		assert.Equal(t, b.ID, gotB.ID)
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := tenant.LoggerExtractor()

	tt := newTestTenant("acme", tenant.StatusActive)
	attr, ok := extract(tenant.WithTenant(context.Background(), tt))
	require.True(t, ok)
	assert.Equal(t, "tenant_id", attr.Key)
	assert.Equal(t, tt.ID.String(), attr.Value.String())

	_, ok = extract(context.Background())
	assert.False(t, ok)
}
