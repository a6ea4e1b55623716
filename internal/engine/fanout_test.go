package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"paybridge/internal/provider"
	"paybridge/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOutEveryAttemptLandsExactlyOnce(t *testing.T) {
	reg := newTestRegistry(
		&fakeAdapter{name: "a", accountsFn: func(context.Context) ([]provider.Account, error) {
			return []provider.Account{{Provider: "a"}}, nil
		}},
		&fakeAdapter{name: "b", accountsFn: func(context.Context) ([]provider.Account, error) {
			return nil, fmt.Errorf("upstream 503")
		}},
		&fakeAdapter{name: "c", accountsFn: func(context.Context) ([]provider.Account, error) {
			return []provider.Account{{Provider: "c"}}, nil
		}},
	)
	providers := reg.AdaptersFor(provider.CapAccounts)

	res := fanOut(context.Background(), providers, provider.CapAccounts, time.Second,
		func(ctx context.Context, p *registry.Provider) ([]provider.Account, error) {
			return p.Adapter().Accounts(ctx)
		})

	assert.Equal(t, len(providers), len(res.Succeeded)+len(res.Errors))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "b", res.Errors[0].Provider)
	assert.Contains(t, res.Errors[0].Message, "503")
}

func TestFanOutPreservesDeclarationOrder(t *testing.T) {
	slow := &fakeAdapter{name: "slow", accountsFn: func(ctx context.Context) ([]provider.Account, error) {
		time.Sleep(50 * time.Millisecond)
		return []provider.Account{{Provider: "slow"}}, nil
	}}
	fast := &fakeAdapter{name: "fast", accountsFn: func(context.Context) ([]provider.Account, error) {
		return []provider.Account{{Provider: "fast"}}, nil
	}}
	reg := newTestRegistry(slow, fast)

	res := fanOut(context.Background(), reg.AdaptersFor(provider.CapAccounts), provider.CapAccounts, time.Second,
		func(ctx context.Context, p *registry.Provider) ([]provider.Account, error) {
			return p.Adapter().Accounts(ctx)
		})

	require.Len(t, res.Succeeded, 2)
	assert.Equal(t, "slow", res.Succeeded[0][0].Provider)
	assert.Equal(t, "fast", res.Succeeded[1][0].Provider)
}

func TestFanOutTimeoutBoundsSlowProvider(t *testing.T) {
	hang := &fakeAdapter{name: "hang", accountsFn: func(ctx context.Context) ([]provider.Account, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	ok := &fakeAdapter{name: "ok", accountsFn: func(context.Context) ([]provider.Account, error) {
		return []provider.Account{{Provider: "ok"}}, nil
	}}
	reg := newTestRegistry(hang, ok)

	start := time.Now()
	res := fanOut(context.Background(), reg.AdaptersFor(provider.CapAccounts), provider.CapAccounts, 100*time.Millisecond,
		func(ctx context.Context, p *registry.Provider) ([]provider.Account, error) {
			return p.Adapter().Accounts(ctx)
		})

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "hang", res.Errors[0].Provider)
	require.Len(t, res.Succeeded, 1)
	assert.Equal(t, "ok", res.Succeeded[0][0].Provider)
}

func TestFanOutIsolatesPanics(t *testing.T) {
	boom := &fakeAdapter{name: "boom", accountsFn: func(context.Context) ([]provider.Account, error) {
		panic("unexpected upstream shape")
	}}
	ok := &fakeAdapter{name: "ok", accountsFn: func(context.Context) ([]provider.Account, error) {
		return []provider.Account{{Provider: "ok"}}, nil
	}}
	reg := newTestRegistry(boom, ok)

	res := fanOut(context.Background(), reg.AdaptersFor(provider.CapAccounts), provider.CapAccounts, time.Second,
		func(ctx context.Context, p *registry.Provider) ([]provider.Account, error) {
			return p.Adapter().Accounts(ctx)
		})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "boom", res.Errors[0].Provider)
	assert.Contains(t, res.Errors[0].Message, "panic")
	require.Len(t, res.Succeeded, 1)
}

func TestFanOutNoProviders(t *testing.T) {
	res := fanOut(context.Background(), nil, provider.CapAccounts, time.Second,
		func(ctx context.Context, p *registry.Provider) ([]provider.Account, error) {
			t.Fatal("must not be called")
			return nil, nil
		})
	assert.Empty(t, res.Succeeded)
	assert.Empty(t, res.Errors)
}
