package token

import (
	"fmt"
	"strings"

	"github.com/x-xyz/gatemarket/domain"
)

// TokenError is the failure of one item of a batch
type TokenError struct {
	TokenId domain.TokenId `json:"tokenId"`
	Err     error          `json:"-"`
}

func (e TokenError) Error() string {
	return fmt.Sprintf("token %s: %v", e.TokenId, e.Err)
}

func (e TokenError) Unwrap() error {
	return e.Err
}

// BatchError reports a failed batch. Items not listed in Errors were applied.
type BatchError struct {
	Errors []TokenError
	// Notify is set when the batch notification itself failed
	Notify error
}

func (e *BatchError) Error() string {
	n := len(e.Errors)
	if e.Notify != nil {
		n++
	}
	msgs := make([]string, 0, n)
	for _, te := range e.Errors {
		msgs = append(msgs, te.Error())
	}
	if e.Notify != nil {
		msgs = append(msgs, "notify: "+e.Notify.Error())
	}
	return fmt.Sprintf("%d error(s) detected: %s", n, strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() error {
	return domain.ErrBatchFailed
}

// FailedTokens lists ids of the items that were not applied
func (e *BatchError) FailedTokens() []domain.TokenId {
	ids := make([]domain.TokenId, 0, len(e.Errors))
	for _, te := range e.Errors {
		ids = append(ids, te.TokenId)
	}
	return ids
}
