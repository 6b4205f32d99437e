package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	"github.com/couchcryptid/pota-spot-hunter/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type memStore struct {
	cred    domain.Credential
	saves   int
	loadErr error
	saveErr error
}

func (m *memStore) Load(_ context.Context) (domain.Credential, error) {
	return m.cred, m.loadErr
}

func (m *memStore) Save(_ context.Context, c domain.Credential) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.cred = c
	m.saves++
	return nil
}

type countingIssuer struct {
	calls int
	err   error
}

func (i *countingIssuer) IssueKey(_ context.Context) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	i.calls++
	return fmt.Sprintf("key-%d", i.calls), nil
}

var day1 = domain.Date{Year: 2024, Month: time.June, Day: 1}

func newTestCache(store Store, issuer Issuer) (*Cache, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewCache(store, issuer, slog.Default(), m), m
}

// --- tests ---

func TestToken_EmptyStoreIssues(t *testing.T) {
	store := &memStore{}
	issuer := &countingIssuer{}
	cache, m := newTestCache(store, issuer)

	key, err := cache.Token(context.Background(), day1)

	require.NoError(t, err)
	assert.Equal(t, "key-1", key)
	assert.Equal(t, domain.Credential{Key: "key-1", Issued: day1}, store.cred)
	assert.Equal(t, 1, issuer.calls)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Tokens.WithLabelValues("issued")), 0)
}

func TestToken_SameDayReusesKey(t *testing.T) {
	store := &memStore{}
	issuer := &countingIssuer{}
	cache, m := newTestCache(store, issuer)

	first, err := cache.Token(context.Background(), day1)
	require.NoError(t, err)
	second, err := cache.Token(context.Background(), day1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, issuer.calls, "second call on the same day must not issue")
	assert.Equal(t, 1, store.saves)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Tokens.WithLabelValues("cached")), 0)
}

func TestToken_ThreeDaysThreeKeys(t *testing.T) {
	store := &memStore{}
	issuer := &countingIssuer{}
	cache, _ := newTestCache(store, issuer)

	seen := map[string]bool{}
	for i := range 3 {
		key, err := cache.Token(context.Background(), day1.AddDays(i))
		require.NoError(t, err)
		seen[key] = true
	}

	assert.Len(t, seen, 3)
	assert.Equal(t, 3, issuer.calls)
	assert.Equal(t, day1.AddDays(2), store.cred.Issued)
}

func TestToken_PartialStoreIssues(t *testing.T) {
	tests := []struct {
		name   string
		stored domain.Credential
	}{
		{"date missing", domain.Credential{Key: "old"}},
		{"key missing", domain.Credential{Issued: day1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{cred: tt.stored}
			issuer := &countingIssuer{}
			cache, _ := newTestCache(store, issuer)

			key, err := cache.Token(context.Background(), day1)
			require.NoError(t, err)
			assert.Equal(t, "key-1", key)
			assert.Equal(t, 1, issuer.calls)
		})
	}
}

func TestToken_StaleKeyReplaced(t *testing.T) {
	store := &memStore{cred: domain.Credential{Key: "yesterday", Issued: day1}}
	issuer := &countingIssuer{}
	cache, _ := newTestCache(store, issuer)

	key, err := cache.Token(context.Background(), day1.AddDays(1))

	require.NoError(t, err)
	assert.Equal(t, "key-1", key)
	assert.Equal(t, domain.Credential{Key: "key-1", Issued: day1.AddDays(1)}, store.cred)
}

func TestToken_IssueFailurePropagates(t *testing.T) {
	store := &memStore{}
	cache, _ := newTestCache(store, &countingIssuer{err: errors.New("invalid password")})

	_, err := cache.Token(context.Background(), day1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid password")
	assert.Zero(t, store.saves)
}

func TestToken_StoreFailuresPropagate(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		issuer := &countingIssuer{}
		cache, _ := newTestCache(&memStore{loadErr: errors.New("disk gone")}, issuer)

		_, err := cache.Token(context.Background(), day1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load qrz key")
		assert.Zero(t, issuer.calls)
	})

	t.Run("save", func(t *testing.T) {
		cache, _ := newTestCache(&memStore{saveErr: errors.New("read-only")}, &countingIssuer{})

		_, err := cache.Token(context.Background(), day1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "save qrz key")
	})
}
