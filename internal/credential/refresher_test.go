package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type scriptedExchanger struct {
	mu    sync.Mutex
	calls int
	fail  map[int]error
	seen  []string
}

func (s *scriptedExchanger) ExchangeCredentials(_ context.Context, id, secret string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.seen = append(s.seen, id+":"+secret)
	if err := s.fail[s.calls]; err != nil {
		return Token{}, err
	}
	return Token{
		Value:     fmt.Sprintf("token-%d", s.calls),
		ExpiresAt: time.Unix(1_700_000_000+int64(s.calls)*3600, 0),
	}, nil
}

func (s *scriptedExchanger) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func startRefresher(t *testing.T, ex Exchanger, ticks chan time.Time) (*Cell, *Refresher, func() error) {
	t.Helper()
	cell := &Cell{}
	r := NewRefresher(cell, ex, Options{ClientID: "id", ClientSecret: "secret", Ticks: ticks})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return cell, r, func() error {
		cancel()
		return <-done
	}
}

func TestRefresherExchangesOnEveryInterval(t *testing.T) {
	ex := &scriptedExchanger{}
	ticks := make(chan time.Time)
	cell, r, stop := startRefresher(t, ex, ticks)

	select {
	case <-r.Ready():
	case <-time.After(time.Second):
		t.Fatal("refresher never became ready")
	}
	v, err := cell.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "token-1", v)

	ticks <- time.Now()
	require.Eventually(t, func() bool { return ex.Calls() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		v, _ := cell.AccessToken()
		return v == "token-2"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, stop())
	assert.Equal(t, 2, ex.Calls())
	assert.Equal(t, []string{"id:secret", "id:secret"}, ex.seen)
}

func TestReadersObserveLatestToken(t *testing.T) {
	ex := &scriptedExchanger{}
	ticks := make(chan time.Time)
	cell, r, stop := startRefresher(t, ex, ticks)
	<-r.Ready()

	// A handler that read the token before the refresh must see the new one on its next call.
	before, _ := cell.AccessToken()
	ticks <- time.Now()
	require.Eventually(t, func() bool { return ex.Calls() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		after, _ := cell.AccessToken()
		return after != before
	}, time.Second, 5*time.Millisecond)

	tok, ok := cell.Token()
	require.True(t, ok)
	assert.Equal(t, "token-2", tok.Value)
	require.NoError(t, stop())
}

func TestRefreshFailureKeepsLastGoodToken(t *testing.T) {
	ex := &scriptedExchanger{fail: map[int]error{2: errors.New("503 upstream")}}
	ticks := make(chan time.Time)
	cell, r, stop := startRefresher(t, ex, ticks)
	<-r.Ready()

	ticks <- time.Now()
	require.Eventually(t, func() bool { return ex.Calls() == 2 }, time.Second, 5*time.Millisecond)
	v, err := cell.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "token-1", v)

	ticks <- time.Now()
	require.Eventually(t, func() bool {
		v, _ := cell.AccessToken()
		return v == "token-3"
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, stop())
}

func TestInitialFailureIsReturned(t *testing.T) {
	boom := errors.New("invalid client")
	ex := &scriptedExchanger{fail: map[int]error{1: boom}}
	cell := &Cell{}
	r := NewRefresher(cell, ex, Options{ClientID: "id", ClientSecret: "secret"})

	err := r.Run(context.Background())
	require.ErrorIs(t, err, boom)
	_, err = cell.AccessToken()
	assert.ErrorIs(t, err, ErrNoToken)
	select {
	case <-r.Ready():
		t.Fatal("ready must stay open without a token")
	default:
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	assert.False(t, Token{Value: "x"}.Expired(now))
	assert.True(t, Token{Value: "x", ExpiresAt: now.Add(-time.Second)}.Expired(now))
	assert.False(t, Token{Value: "x", ExpiresAt: now.Add(time.Minute)}.Expired(now))
}
