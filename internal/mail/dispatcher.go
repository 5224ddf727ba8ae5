// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/keygate/keygate/internal/account"
	"github.com/keygate/keygate/internal/observability"
	"github.com/keygate/keygate/pkg/errutil"
)

// sendTimeout bounds a single background delivery attempt.
const sendTimeout = 30 * time.Second

// AsyncNotifier decouples email delivery from the request path: Send*
// returns immediately and the delivery runs in the background. Failures
// are logged and counted, never surfaced to the caller, so a slow or
// broken relay cannot roll back or block an account operation.
type AsyncNotifier struct {
	next account.Notifier
	wg   sync.WaitGroup
}

// NewAsyncNotifier wraps a Notifier with background dispatch.
func NewAsyncNotifier(next account.Notifier) *AsyncNotifier {
	return &AsyncNotifier{next: next}
}

// SendVerification dispatches the verification email in the background.
func (d *AsyncNotifier) SendVerification(ctx context.Context, acct *account.Account, token string) error {
	d.dispatch(ctx, "verification", acct, token, d.next.SendVerification)
	return nil
}

// SendPasswordReset dispatches the reset email in the background.
func (d *AsyncNotifier) SendPasswordReset(ctx context.Context, acct *account.Account, token string) error {
	d.dispatch(ctx, "password_reset", acct, token, d.next.SendPasswordReset)
	return nil
}

// Wait blocks until all in-flight deliveries have finished. Called during
// shutdown so pending emails are not dropped.
func (d *AsyncNotifier) Wait() {
	d.wg.Wait()
}

func (d *AsyncNotifier) dispatch(ctx context.Context, kind string, acct *account.Account, token string, send func(context.Context, *account.Account, string) error) {
	// The delivery must outlive the request that triggered it.
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()

		if err := send(sendCtx, acct, token); err != nil {
			observability.RecordNotificationFailure(kind)
			logger := slog.Default().With("kind", kind, "account_id", acct.ID.String())
			errutil.LogWarn(logger, "notification delivery failed", err)
			return
		}
		slog.Debug("notification delivered",
			"kind", kind,
			"account_id", acct.ID.String(),
		)
	}()
}

// Compile-time interface check.
var _ account.Notifier = (*AsyncNotifier)(nil)
