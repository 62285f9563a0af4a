package domain

import "errors"

// Error kinds. Every error returned by a usecase wraps exactly one of them,
// delivery maps the kind to a status code.
var (
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")
	// ErrUnauthorized will throw if the caller can not be identified
	ErrUnauthorized = errors.New("Unauthorized")
	// ErrForbidden will throw if the caller is not allowed to perform the operation
	ErrForbidden = errors.New("Forbidden")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current state does not allow the operation
	ErrConflict = errors.New("Your Item already exist")
	// ErrProtocol will throw if a cross service precondition is broken
	ErrProtocol = errors.New("Protocol violation")
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
)

// Error is a sentinel error of a given kind
type Error struct {
	msg  string
	kind error
}

// NewError creates a sentinel error of kind
func NewError(kind error, msg string) *Error {
	return &Error{msg: msg, kind: kind}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

// validation
var (
	ErrInvalidGateId       = NewError(ErrBadParamInput, "invalid gate id")
	ErrInvalidAccountId    = NewError(ErrBadParamInput, "invalid account id")
	ErrInvalidAmount       = NewError(ErrBadParamInput, "invalid amount")
	ErrRoyaltyTooLarge     = NewError(ErrBadParamInput, "royalty is too large for the platform fee")
	ErrZeroSupply          = NewError(ErrBadParamInput, "gate must have a positive supply")
	ErrTitleTooLong        = NewError(ErrBadParamInput, "title exceeds 140 chars")
	ErrDescriptionTooLong  = NewError(ErrBadParamInput, "description exceeds 1024 chars")
	ErrMediaTooLong        = NewError(ErrBadParamInput, "media or reference exceeds 1024 chars")
	ErrBatchTooLarge       = NewError(ErrBadParamInput, "at most 10 tokens are allowed to approve in batch")
	ErrMinPriceMissing     = NewError(ErrBadParamInput, "approval must contain the minimum price")
	ErrInsufficientDeposit = NewError(ErrBadParamInput, "not enough deposit to cover token minimum price")
)

// authorization
var (
	ErrNoCaller           = NewError(ErrUnauthorized, "caller is not identified")
	ErrAdminOnly          = NewError(ErrForbidden, "operation is allowed only for admin")
	ErrServiceOnly        = NewError(ErrForbidden, "operation is allowed only for peer services")
	ErrNotCreatorOrAdmin  = NewError(ErrForbidden, "only the creator or admin can delete the gate")
	ErrTokenNotOwnedBy    = NewError(ErrForbidden, "token does not belong to caller")
	ErrSenderNotAuthToXfr = NewError(ErrForbidden, "sender is not authorized to make transfer")
)

// state
var (
	ErrGateNotFound        = NewError(ErrNotFound, "gate not found")
	ErrTokenNotFound       = NewError(ErrNotFound, "token not found")
	ErrListingNotFound     = NewError(ErrNotFound, "listing not found")
	ErrPurchaseNotFound    = NewError(ErrNotFound, "purchase not found")
	ErrUnknownAccount      = NewError(ErrNotFound, "no endpoint for account")
	ErrApprovalNotFound    = NewError(ErrNotFound, "spender holds no approval")
	ErrGateAlreadyExists   = NewError(ErrConflict, "gate already exists")
	ErrGateExhausted       = NewError(ErrConflict, "tokens for gate have already been claimed")
	ErrGateHasTokens       = NewError(ErrConflict, "gate has already some claimed tokens")
	ErrTokenAlreadyApprove = NewError(ErrConflict, "at most one approval is allowed per token")
	ErrReceiverIsOwner     = NewError(ErrConflict, "the token owner and the receiver should be different")
	ErrBuyOwnToken         = NewError(ErrConflict, "buyer cannot buy own token")
)

// protocol
var (
	ErrStaleApproval = NewError(ErrProtocol, "approval id is different from enforced approval id")
	ErrBatchFailed   = NewError(ErrProtocol, "batch approve failed")
)

// fatal
var (
	ErrIndexCorrupted    = NewError(ErrInternalServerError, "listing index is missing an expected entry")
	ErrUnexpectedOutcome = NewError(ErrInternalServerError, "unexpected outcome of remote call")
)
