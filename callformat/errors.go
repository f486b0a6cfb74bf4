package callformat

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/scrtlabs/secret-sdk-go/types"
)

// encryptedErrorPattern matches the complete log of a contract call rejected with an
// encrypted error. The single capture is the base64 encoded ciphertext.
var encryptedErrorPattern = regexp.MustCompile(`^contract failed: encrypted: (.+?): failed to execute message; message index: 0$`)

// MessageNotFoundError is the error returned when a message does not carry an encrypted error.
type MessageNotFoundError struct {
	// Message is the message that was searched.
	Message string
	// Cause is the error that carried the message, if any.
	Cause error
}

// Kind implements types.KindedError.
func (e *MessageNotFoundError) Kind() types.ErrorKind {
	return types.KindMessageNotFound
}

func (e *MessageNotFoundError) Error() string {
	return fmt.Sprintf("failed to extract an encrypted error from the following message:\n  %s", e.Message)
}

func (e *MessageNotFoundError) Unwrap() error {
	return e.Cause
}

// FailedToDecryptError is the error returned when an encrypted error or result could not be
// decrypted.
type FailedToDecryptError struct {
	// Encrypted is the encrypted value as found on the wire.
	Encrypted string
	// Cause is the underlying decoding or decryption failure.
	Cause error
}

// Kind implements types.KindedError.
func (e *FailedToDecryptError) Kind() types.ErrorKind {
	return types.KindFailedToDecrypt
}

func (e *FailedToDecryptError) Error() string {
	return fmt.Sprintf("failed to decrypt the following error message:\n  %s\ndecryption error:\n  %s", e.Encrypted, e.Cause)
}

func (e *FailedToDecryptError) Unwrap() error {
	return e.Cause
}

// ContainsEncryptedError returns true iff the whole message is a contract failure carrying an
// encrypted error.
func ContainsEncryptedError(message string) bool {
	return encryptedErrorPattern.MatchString(message)
}

// ExtractEncryptedError returns the base64 encoded ciphertext embedded in the message.
//
// The message must match in full; anything else results in a MessageNotFoundError carrying
// the message and the given cause.
func ExtractEncryptedError(message string, cause error) (string, error) {
	start, end, err := encryptedErrorSpan(message, cause)
	if err != nil {
		return "", err
	}
	return message[start:end], nil
}

// encryptedErrorSpan returns the offsets of the ciphertext within the message.
func encryptedErrorSpan(message string, cause error) (int, int, error) {
	m := encryptedErrorPattern.FindStringSubmatchIndex(message)
	if m == nil {
		return 0, 0, &MessageNotFoundError{Message: message, Cause: cause}
	}
	return m[2], m[3], nil
}

// DecryptErrorMessage decrypts a base64 encoded encrypted error using the nonce of the call
// that produced it. The result must be valid UTF-8.
//
// Every failure is reported as a FailedToDecryptError. Nothing is retried.
func DecryptErrorMessage(ctx context.Context, dec Decryptor, encrypted string, nonce types.Nonce) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", &FailedToDecryptError{Encrypted: encrypted, Cause: fmt.Errorf("malformed base64: %w", err)}
	}
	pt, err := open(ctx, dec, ct, nonce)
	if err != nil {
		return "", &FailedToDecryptError{Encrypted: encrypted, Cause: err}
	}
	if !utf8.Valid(pt) {
		return "", &FailedToDecryptError{Encrypted: encrypted, Cause: fmt.Errorf("decrypted message is not valid UTF-8")}
	}
	return string(pt), nil
}
