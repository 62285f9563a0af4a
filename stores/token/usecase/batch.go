package usecase

import (
	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/remote"
	"github.com/x-xyz/gatemarket/domain/token"
	"github.com/x-xyz/gatemarket/service/xcall"
)

const maxBatchSize = 10

// BatchApprove approves every item independently. Items that fail are reported in a
// *token.BatchError once the single notification of the successful ones has settled,
// the successful approvals are kept either way.
func (im *impl) BatchApprove(c ctx.Ctx, items []token.BatchItem, spender domain.AccountId) error {
	if len(items) > maxBatchSize {
		return domain.ErrBatchTooLarge
	}

	done := make(chan error, 1)
	err := im.exec.Do(c, func(c ctx.Ctx) error {
		errs := []token.TokenError{}
		msg := remote.BatchApproveMsg{
			Owner:  domain.AccountId(ctx.Caller(c)),
			Tokens: []remote.BatchApproveItem{},
		}
		for _, it := range items {
			approved, err := im.approve(c, it.TokenId, spender, it.MinPrice)
			if err != nil {
				errs = append(errs, token.TokenError{TokenId: it.TokenId, Err: err})
				continue
			}
			msg.Tokens = append(msg.Tokens, approved)
		}

		if len(msg.Tokens) == 0 {
			done <- im.resolveBatchApprove(c, errs, nil)
			return nil
		}

		im.xcall.Call(c, func(c ctx.Ctx) (interface{}, error) {
			m, err := im.dir.Market(spender)
			if err != nil {
				return nil, err
			}
			return nil, m.OnBatchApprove(c, msg)
		}, func(c ctx.Ctx, res xcall.Result) {
			done <- im.exec.Do(c, func(c ctx.Ctx) error {
				return im.resolveBatchApprove(c, errs, res.Err)
			})
		})
		return nil
	})
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-c.Done():
		// the continuation still runs, only the caller stops waiting
		return c.Err()
	}
}

func (im *impl) resolveBatchApprove(c ctx.Ctx, errs []token.TokenError, notifyErr error) error {
	if len(errs) == 0 && notifyErr == nil {
		return nil
	}

	batchErr := &token.BatchError{Errors: errs, Notify: notifyErr}
	im.met.BumpSum("batch.failed", 1)
	c.WithFields(log.Fields{
		"err":    batchErr,
		"failed": batchErr.FailedTokens(),
	}).Warn("batch approve failed")
	return batchErr
}
