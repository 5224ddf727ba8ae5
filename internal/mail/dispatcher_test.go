// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package mail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/keygate/keygate/internal/account"
)

// blockingNotifier records deliveries and can simulate failures.
type blockingNotifier struct {
	mu            sync.Mutex
	verifications []string
	resets        []string
	err           error
	release       chan struct{}
}

func (n *blockingNotifier) SendVerification(ctx context.Context, _ *account.Account, token string) error {
	if n.release != nil {
		select {
		case <-n.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verifications = append(n.verifications, token)
	return n.err
}

func (n *blockingNotifier) SendPasswordReset(_ context.Context, _ *account.Account, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, token)
	return n.err
}

func testAccount(t *testing.T) *account.Account {
	t.Helper()
	acct, err := account.NewAccount("holly", "holly@example.com", "$argon2id$hash", "tok")
	require.NoError(t, err)
	return acct
}

func TestAsyncNotifier_DeliversInBackground(t *testing.T) {
	defer goleak.VerifyNone(t)

	inner := &blockingNotifier{}
	d := NewAsyncNotifier(inner)

	err := d.SendVerification(context.Background(), testAccount(t), "vtoken")
	require.NoError(t, err)
	err = d.SendPasswordReset(context.Background(), testAccount(t), "rtoken")
	require.NoError(t, err)

	d.Wait()

	inner.mu.Lock()
	defer inner.mu.Unlock()
	assert.Equal(t, []string{"vtoken"}, inner.verifications)
	assert.Equal(t, []string{"rtoken"}, inner.resets)
}

func TestAsyncNotifier_SwallowsDeliveryErrors(t *testing.T) {
	inner := &blockingNotifier{err: errors.New("relay down")}
	d := NewAsyncNotifier(inner)

	err := d.SendVerification(context.Background(), testAccount(t), "vtoken")
	assert.NoError(t, err)

	d.Wait()
}

func TestAsyncNotifier_OutlivesRequestContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	inner := &blockingNotifier{release: make(chan struct{})}
	d := NewAsyncNotifier(inner)

	ctx, cancel := context.WithCancel(context.Background())
	err := d.SendVerification(ctx, testAccount(t), "vtoken")
	require.NoError(t, err)

	// Cancelling the request context must not cancel the delivery.
	cancel()
	close(inner.release)

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not finish")
	}

	inner.mu.Lock()
	defer inner.mu.Unlock()
	assert.Equal(t, []string{"vtoken"}, inner.verifications)
}
