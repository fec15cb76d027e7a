package router_test

import (
	"context"
	"encoding/base64"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/schoolkit/pkg/router"
	"github.com/dmitrymomot/schoolkit/pkg/secrets"
	"github.com/dmitrymomot/schoolkit/pkg/tenant"
)

type testEnv struct {
	cfg       router.Config
	appKey    []byte
	tenantKey []byte
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	appKey, err := secrets.GenerateKey()
	require.NoError(t, err)
	tenantKey, err := secrets.GenerateKey()
	require.NoError(t, err)

	return &testEnv{
		cfg: router.Config{
			TenantDBHost: "127.0.0.1",
			TenantDBPort: 5432,
			SSLMode:      "disable",
			MaxPoolConns: 2,
			PingTimeout:  time.Second,
			PoolIdleTTL:  time.Minute,
			AppKey:       base64.StdEncoding.EncodeToString(appKey),
			TenantKey:    base64.StdEncoding.EncodeToString(tenantKey),
		},
		appKey:    appKey,
		tenantKey: tenantKey,
	}
}

// newTenant builds a tenant whose ciphertext decrypts under the test keys.
func (e *testEnv) newTenant(t *testing.T, name string) *tenant.Tenant {
	t.Helper()

	ct, err := secrets.EncryptString(e.appKey, e.tenantKey, "db-password-"+name)
	require.NoError(t, err)

	return &tenant.Tenant{
		ID:                uuid.New(),
		Name:              name,
		DatabaseName:      "tenant_" + name + "_ab12cd",
		DatabaseUser:      "tenant_" + name + "_ab12cd",
		EncryptedPassword: ct,
		Status:            tenant.StatusActive,
	}
}

func okPinger(ctx context.Context, pool *pgxpool.Pool) error { return nil }

func TestRouterBind(t *testing.T) {
	t.Parallel()

	t.Run("bind and release", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rt, err := router.New(env.cfg, nil, router.WithPinger(okPinger))
		require.NoError(t, err)
		defer rt.Close()

		tt := env.newTenant(t, "test_academy")
		conn, err := rt.Bind(context.Background(), tt)
		require.NoError(t, err)
		require.NotNil(t, conn)
		assert.Equal(t, tt.ID, conn.TenantID())
		assert.False(t, conn.Central())
		assert.NotNil(t, conn.Pool())
		conn.Release()
	})

	t.Run("pool is reused across binds", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rt, err := router.New(env.cfg, nil, router.WithPinger(okPinger))
		require.NoError(t, err)
		defer rt.Close()

		tt := env.newTenant(t, "test_academy")

		first, err := rt.Bind(context.Background(), tt)
		require.NoError(t, err)
		pool := first.Pool()
		first.Release()

		second, err := rt.Bind(context.Background(), tt)
		require.NoError(t, err)
		assert.Same(t, pool, second.Pool())
		second.Release()
	})

	t.Run("distinct tenants get distinct pools", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rt, err := router.New(env.cfg, nil, router.WithPinger(okPinger))
		require.NoError(t, err)
		defer rt.Close()

		connA, err := rt.Bind(context.Background(), env.newTenant(t, "test_academy"))
		require.NoError(t, err)
		defer connA.Release()
		connB, err := rt.Bind(context.Background(), env.newTenant(t, "valley_institute"))
		require.NoError(t, err)
		defer connB.Release()

		assert.NotSame(t, connA.Pool(), connB.Pool())
		assert.NotEqual(t, connA.TenantID(), connB.TenantID())
	})

	t.Run("unreachable database fails fast", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rt, err := router.New(env.cfg, nil, router.WithPinger(
			func(ctx context.Context, pool *pgxpool.Pool) error {
				return errors.New("connection refused")
			}))
		require.NoError(t, err)
		defer rt.Close()

		_, err = rt.Bind(context.Background(), env.newTenant(t, "test_academy"))
		require.ErrorIs(t, err, router.ErrConnectionUnavailable)
	})

	t.Run("undecryptable credential is a connection failure", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rt, err := router.New(env.cfg, nil, router.WithPinger(okPinger))
		require.NoError(t, err)
		defer rt.Close()

		tt := env.newTenant(t, "test_academy")
		tt.EncryptedPassword = base64.StdEncoding.EncodeToString([]byte("garbage-ciphertext-bytes"))

		_, err = rt.Bind(context.Background(), tt)
		require.ErrorIs(t, err, router.ErrConnectionUnavailable)
		require.ErrorIs(t, err, router.ErrCredentialDecryption)
	})

	t.Run("failed ping evicts the pool", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		var healthy atomic.Bool
		rt, err := router.New(env.cfg, nil, router.WithPinger(
			func(ctx context.Context, pool *pgxpool.Pool) error {
				if healthy.Load() {
					return nil
				}
				return errors.New("connection refused")
			}))
		require.NoError(t, err)
		defer rt.Close()

		tt := env.newTenant(t, "test_academy")

		_, err = rt.Bind(context.Background(), tt)
		require.ErrorIs(t, err, router.ErrConnectionUnavailable)

		// Database comes back; a later bind must succeed with a fresh pool.
		healthy.Store(true)
		conn, err := rt.Bind(context.Background(), tt)
		require.NoError(t, err)
		conn.Release()
	})

	t.Run("credential rotation rebuilds the pool", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rt, err := router.New(env.cfg, nil, router.WithPinger(okPinger))
		require.NoError(t, err)
		defer rt.Close()

		tt := env.newTenant(t, "test_academy")
		conn, err := rt.Bind(context.Background(), tt)
		require.NoError(t, err)
		oldPool := conn.Pool()
		conn.Release()

		rt.Evict(tt.ID)

		ct, err := secrets.EncryptString(env.appKey, env.tenantKey, "rotated-password")
		require.NoError(t, err)
		tt.EncryptedPassword = ct

		conn, err = rt.Bind(context.Background(), tt)
		require.NoError(t, err)
		assert.NotSame(t, oldPool, conn.Pool())
		conn.Release()
	})

	t.Run("bind after close fails", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		rt, err := router.New(env.cfg, nil, router.WithPinger(okPinger))
		require.NoError(t, err)
		require.NoError(t, rt.Close())

		_, err = rt.Bind(context.Background(), env.newTenant(t, "test_academy"))
		require.ErrorIs(t, err, router.ErrRouterClosed)

		_, err = rt.BindCentral(context.Background())
		require.ErrorIs(t, err, router.ErrRouterClosed)
	})
}

func TestRouterBindCentral(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rt, err := router.New(env.cfg, nil, router.WithPinger(okPinger))
	require.NoError(t, err)
	defer rt.Close()

	conn, err := rt.BindCentral(context.Background())
	require.NoError(t, err)
	assert.True(t, conn.Central())
	assert.Equal(t, uuid.Nil, conn.TenantID())
	assert.NotPanics(t, conn.Release)
}

func TestRouterInvalidKeys(t *testing.T) {
	t.Parallel()

	t.Run("not base64", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.cfg.AppKey = "not base64 !!!"
		_, err := router.New(env.cfg, nil)
		require.Error(t, err)
	})

	t.Run("wrong length", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.cfg.TenantKey = base64.StdEncoding.EncodeToString([]byte("short"))
		_, err := router.New(env.cfg, nil)
		require.ErrorIs(t, err, secrets.ErrInvalidTenantKey)
	})
}

// TestRouterConcurrentBindIsolation binds two tenants from many
// goroutines at once and checks every handle points at its own
// tenant's pool.
func TestRouterConcurrentBindIsolation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rt, err := router.New(env.cfg, nil, router.WithPinger(okPinger))
	require.NoError(t, err)
	defer rt.Close()

	schoolA := env.newTenant(t, "test_academy")
	schoolB := env.newTenant(t, "valley_institute")

	// Establish the canonical pools first.
	connA, err := rt.Bind(context.Background(), schoolA)
	require.NoError(t, err)
	poolA := connA.Pool()
	connA.Release()
	connB, err := rt.Bind(context.Background(), schoolB)
	require.NoError(t, err)
	poolB := connB.Pool()
	connB.Release()
	require.NotSame(t, poolA, poolB)

	done := make(chan struct{})
	for g := range 16 {
		tt, want := schoolA, poolA
		if g%2 == 1 {
			tt, want = schoolB, poolB
		}
		go func() {
			defer func() { done <- struct{}{} }()
			for range 200 {
				conn, err := rt.Bind(context.Background(), tt)
				if !assert.NoError(t, err) {
					return
				}
				ok := assert.Same(t, want, conn.Pool(), "binding leaked across tenants")
				conn.Release()
				if !ok {
					return
				}
			}
		}()
	}
	for range 16 {
		<-done
	}
}
