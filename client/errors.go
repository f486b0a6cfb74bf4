package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/scrtlabs/secret-sdk-go/callformat"
	"github.com/scrtlabs/secret-sdk-go/types"
)

// PostTxError is the error returned when the chain rejects a transaction.
//
// If the transaction carried an encrypted contract call, the diagnostic in the log is
// encrypted. Decrypt recovers it with the nonce of the call; it is never done implicitly.
type PostTxError struct {
	// Tx is the rejected transaction.
	Tx *types.StdTx
	// Response is the node's response.
	Response *types.BroadcastResult

	mu        sync.Mutex
	nonce     types.Nonce
	decryptor callformat.Decryptor
	ee        *callformat.EncryptedError
}

func newPostTxError(tx *types.StdTx, rsp *types.BroadcastResult, nonce types.Nonce, dec callformat.Decryptor) *PostTxError {
	return &PostTxError{
		Tx:        tx,
		Response:  rsp,
		nonce:     nonce,
		decryptor: dec,
		ee:        callformat.NewEncryptedError(rsp.RawLog, nil),
	}
}

// Kind implements types.KindedError.
func (e *PostTxError) Kind() types.ErrorKind {
	return types.KindPostTx
}

func (e *PostTxError) Error() string {
	return fmt.Sprintf("transaction %s failed with code %d: %s", e.Response.TxHash, e.Response.Code, e.ee.Message())
}

// Nonce returns the nonce of the encrypted call carried by the transaction, if any.
func (e *PostTxError) Nonce() types.Nonce {
	return e.nonce
}

// Log returns the decrypted diagnostic, or an empty string if it has not been decrypted.
func (e *PostTxError) Log() string {
	return e.ee.Log()
}

// Decrypt extracts and decrypts the diagnostic embedded in the transaction log. On success
// the diagnostic is substituted into the error message and returned.
func (e *PostTxError) Decrypt(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.nonce.IsZero() || e.decryptor == nil {
		if _, err := e.ee.Extract(); err != nil {
			return "", err
		}
		return "", &callformat.FailedToDecryptError{Encrypted: e.Response.RawLog, Cause: callformat.ErrMissingNonce}
	}
	log, err := e.ee.Decrypt(ctx, e.decryptor, e.nonce)
	if err != nil {
		decryptFailures.WithLabelValues(stageForError(err)).Inc()
		return "", err
	}
	return log, nil
}

// QueryFailedError is the error returned when the node rejects a smart query.
type QueryFailedError struct {
	// Address is the queried contract.
	Address types.Address
	// Cause is the node's error.
	Cause error

	mu        sync.Mutex
	nonce     types.Nonce
	decryptor callformat.Decryptor
	ee        *callformat.EncryptedError
}

func newQueryFailedError(address types.Address, cause *RestError, nonce types.Nonce, dec callformat.Decryptor) *QueryFailedError {
	return &QueryFailedError{
		Address:   address,
		Cause:     cause,
		nonce:     nonce,
		decryptor: dec,
		ee:        callformat.NewEncryptedError(cause.Message, cause),
	}
}

// Kind implements types.KindedError.
func (e *QueryFailedError) Kind() types.ErrorKind {
	return types.KindQueryFailed
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("query of contract %s failed: %s", e.Address, e.ee.Message())
}

func (e *QueryFailedError) Unwrap() error {
	return e.Cause
}

// Log returns the decrypted diagnostic, or an empty string if it has not been decrypted.
func (e *QueryFailedError) Log() string {
	return e.ee.Log()
}

// Nonce returns the nonce of the query.
func (e *QueryFailedError) Nonce() types.Nonce {
	return e.nonce
}

// Decrypt extracts and decrypts the diagnostic embedded in the node's error.
func (e *QueryFailedError) Decrypt(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	log, err := e.ee.Decrypt(ctx, e.decryptor, e.nonce)
	if err != nil {
		decryptFailures.WithLabelValues(stageForError(err)).Inc()
		return "", err
	}
	return log, nil
}

// NoContractFoundError is the error returned when there is no contract at an address.
type NoContractFoundError struct {
	Address types.Address
}

// Kind implements types.KindedError.
func (e *NoContractFoundError) Kind() types.ErrorKind {
	return types.KindNoContractFound
}

func (e *NoContractFoundError) Error() string {
	return fmt.Sprintf("no contract found at address %s", e.Address)
}

// AccountDoesNotExistError is the error returned when an account has never been used.
type AccountDoesNotExistError struct {
	Address types.Address
}

// Kind implements types.KindedError.
func (e *AccountDoesNotExistError) Kind() types.ErrorKind {
	return types.KindAccountDoesNotExist
}

func (e *AccountDoesNotExistError) Error() string {
	return fmt.Sprintf("account %s does not exist on chain; send some tokens there before trying to query the nonce", e.Address)
}

// UnknownQueryTypeError is the error returned for a search query of no known type.
type UnknownQueryTypeError struct{}

// Kind implements types.KindedError.
func (e *UnknownQueryTypeError) Kind() types.ErrorKind {
	return types.KindUnknownQueryType
}

func (e *UnknownQueryTypeError) Error() string {
	return "unknown query type"
}

// IllFormattedTxHashError is the error returned when the node returns a malformed hash.
type IllFormattedTxHashError struct {
	TxHash string
}

// Kind implements types.KindedError.
func (e *IllFormattedTxHashError) Kind() types.ErrorKind {
	return types.KindIllFormattedTxHash
}

func (e *IllFormattedTxHashError) Error() string {
	return fmt.Sprintf("received ill-formatted txhash: '%s'", e.TxHash)
}

// ChainIDEmptyError is the error returned when the node reports an empty chain identifier.
type ChainIDEmptyError struct{}

// Kind implements types.KindedError.
func (e *ChainIDEmptyError) Kind() types.ErrorKind {
	return types.KindChainIDEmpty
}

func (e *ChainIDEmptyError) Error() string {
	return "chain id must not be empty"
}

// TooManyResultsError is the error returned when a search matches more results than fit in a
// single page.
type TooManyResultsError struct {
	Total uint64
	Limit uint64
}

// Kind implements types.KindedError.
func (e *TooManyResultsError) Kind() types.ErrorKind {
	return types.KindTooManyResults
}

func (e *TooManyResultsError) Error() string {
	return fmt.Sprintf("found more results on the backend than we can process currently: results %d, limit %d", e.Total, e.Limit)
}

// InvalidQueryError is the error returned when a query message cannot be encoded.
type InvalidQueryError struct {
	Cause error
}

// Kind implements types.KindedError.
func (e *InvalidQueryError) Kind() types.ErrorKind {
	return types.KindInvalidQuery
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Cause)
}

func (e *InvalidQueryError) Unwrap() error {
	return e.Cause
}

// InvalidResponseError is the error returned when a decrypted result is not in the expected
// format.
type InvalidResponseError struct {
	Payload string
	Cause   error
}

// Kind implements types.KindedError.
func (e *InvalidResponseError) Kind() types.ErrorKind {
	return types.KindInvalidResponse
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid response '%s': %s", e.Payload, e.Cause)
}

func (e *InvalidResponseError) Unwrap() error {
	return e.Cause
}
