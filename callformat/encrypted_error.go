package callformat

import (
	"context"
	"sync"

	"github.com/scrtlabs/secret-sdk-go/types"
)

// State is the state of an EncryptedError.
type State uint8

const (
	// StateRaw is the state before the ciphertext has been extracted.
	StateRaw State = iota
	// StateExtracted is the state once the ciphertext has been extracted.
	StateExtracted
	// StateDecrypted is the terminal state after successful decryption.
	StateDecrypted
	// StateFailed is the terminal state after extraction or decryption failed.
	StateFailed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateRaw:
		return "raw"
	case StateExtracted:
		return "extracted"
	case StateDecrypted:
		return "decrypted"
	case StateFailed:
		return "failed"
	default:
		return "[unknown]"
	}
}

// EncryptedError tracks the recovery of a diagnostic from the log of a rejected call.
//
// It moves from StateRaw through StateExtracted to either StateDecrypted or StateFailed. The
// terminal states are sticky: repeating Decrypt returns the recorded outcome. The nonce is
// owned by the call and supplied on every Decrypt.
type EncryptedError struct {
	mu sync.Mutex

	message   string
	cause     error
	state     State
	encrypted string
	start     int
	end       int
	log       string
	err       error
}

// NewEncryptedError creates a new tracker for the given message. The cause is attached to a
// MessageNotFoundError if the message turns out not to carry an encrypted error.
func NewEncryptedError(message string, cause error) *EncryptedError {
	return &EncryptedError{message: message, cause: cause}
}

// State returns the current state.
func (e *EncryptedError) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Message returns the message with the decrypted diagnostic substituted for the ciphertext
// once decrypted, and the original message otherwise.
func (e *EncryptedError) Message() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateDecrypted {
		return e.message
	}
	return e.message[:e.start] + e.log + e.message[e.end:]
}

// Log returns the decrypted diagnostic, or an empty string if not decrypted.
func (e *EncryptedError) Log() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log
}

// Extract extracts the ciphertext from the message.
func (e *EncryptedError) Extract() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.extractLocked()
}

func (e *EncryptedError) extractLocked() (string, error) {
	switch e.state {
	case StateRaw:
	case StateFailed:
		if e.encrypted == "" {
			return "", e.err
		}
		return e.encrypted, nil
	default:
		return e.encrypted, nil
	}

	start, end, err := encryptedErrorSpan(e.message, e.cause)
	if err != nil {
		e.state = StateFailed
		e.err = err
		return "", err
	}
	e.start, e.end = start, end
	e.encrypted = e.message[start:end]
	e.state = StateExtracted
	return e.encrypted, nil
}

// Decrypt extracts and decrypts the diagnostic with the nonce of the call that produced it.
func (e *EncryptedError) Decrypt(ctx context.Context, dec Decryptor, nonce types.Nonce) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateDecrypted:
		return e.log, nil
	case StateFailed:
		return "", e.err
	}

	encrypted, err := e.extractLocked()
	if err != nil {
		return "", err
	}

	log, err := DecryptErrorMessage(ctx, dec, encrypted, nonce)
	if err != nil {
		e.state = StateFailed
		e.err = err
		return "", err
	}
	e.log = log
	e.state = StateDecrypted
	return log, nil
}
