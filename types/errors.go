package types

import "errors"

// ErrorKind is the discriminant of the errors returned by the SDK.
type ErrorKind uint8

// Supported error kinds.
const (
	KindUnknown ErrorKind = iota
	KindMessageNotFound
	KindFailedToDecrypt
	KindPostTx
	KindNoContractFound
	KindAccountDoesNotExist
	KindUnknownQueryType
	KindIllFormattedTxHash
	KindChainIDEmpty
	KindTooManyResults
	KindQueryFailed
	KindInvalidQuery
	KindInvalidResponse
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindMessageNotFound:
		return "message not found"
	case KindFailedToDecrypt:
		return "failed to decrypt"
	case KindPostTx:
		return "post tx"
	case KindNoContractFound:
		return "no contract found"
	case KindAccountDoesNotExist:
		return "account does not exist"
	case KindUnknownQueryType:
		return "unknown query type"
	case KindIllFormattedTxHash:
		return "ill-formatted tx hash"
	case KindChainIDEmpty:
		return "chain id empty"
	case KindTooManyResults:
		return "too many results"
	case KindQueryFailed:
		return "query failed"
	case KindInvalidQuery:
		return "invalid query"
	case KindInvalidResponse:
		return "invalid response"
	default:
		return "unknown"
	}
}

// KindedError is an error that carries an explicit kind discriminant.
type KindedError interface {
	error

	// Kind returns the kind of the error.
	Kind() ErrorKind
}

// KindOf returns the kind of the first kinded error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var ke KindedError
	if errors.As(err, &ke) {
		return ke.Kind()
	}
	return KindUnknown
}
