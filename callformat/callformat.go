// Package callformat encodes confidential contract calls and decodes what the chain returns
// for them.
package callformat

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scrtlabs/secret-sdk-go/types"
)

var (
	// ErrMalformedMessage is the error returned when a message cannot be serialized.
	ErrMalformedMessage = errors.New("callformat: malformed message")
	// ErrMalformedResult is the error returned when a decrypted result is not in the expected
	// format.
	ErrMalformedResult = errors.New("callformat: malformed result")
	// ErrMissingNonce is the error returned when decryption is attempted without a nonce.
	ErrMissingNonce = errors.New("callformat: missing nonce")
)

// Encryptor seals contract messages.
type Encryptor interface {
	// Encrypt seals the message for the contract with the given code hash. Every invocation
	// uses a fresh nonce, which is returned together with the ciphertext.
	Encrypt(ctx context.Context, codeHash types.CodeHash, msg []byte) (*types.EncryptedPayload, error)
}

// Decryptor opens ciphertext returned by the chain for a call.
type Decryptor interface {
	// Decrypt opens ciphertext sealed for the call made with the given nonce.
	Decrypt(ctx context.Context, ciphertext []byte, nonce types.Nonce) ([]byte, error)
}

// Cipher is both an Encryptor and a Decryptor.
type Cipher interface {
	Encryptor
	Decryptor
}

// EncodeMsg serializes msg to JSON and seals it for the contract with the given code hash.
//
// The encryptor is invoked exactly once. Nothing is cached, encoding the same message twice
// yields two different payloads.
func EncodeMsg(ctx context.Context, enc Encryptor, codeHash types.CodeHash, msg interface{}) (*types.EncryptedPayload, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedMessage, err)
	}
	return encode(ctx, enc, codeHash, raw)
}

// EncodeRawMsg seals an already serialized JSON message for the contract with the given code
// hash.
func EncodeRawMsg(ctx context.Context, enc Encryptor, codeHash types.CodeHash, raw []byte) (*types.EncryptedPayload, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformedMessage)
	}
	return encode(ctx, enc, codeHash, raw)
}

func encode(ctx context.Context, enc Encryptor, codeHash types.CodeHash, raw []byte) (*types.EncryptedPayload, error) {
	payload, err := enc.Encrypt(ctx, codeHash, raw)
	if err != nil {
		return nil, fmt.Errorf("callformat: failed to encrypt message: %w", err)
	}
	if payload.Nonce.IsZero() {
		return nil, fmt.Errorf("callformat: encryptor returned no nonce")
	}
	return payload, nil
}

// DecodeQueryResult decodes the result of a smart query made with the given nonce.
//
// The node returns base64(sealed(base64(JSON))); the JSON document is returned.
func DecodeQueryResult(ctx context.Context, dec Decryptor, encoded string, nonce types.Nonce) (json.RawMessage, error) {
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: result is not base64: %s", ErrMalformedResult, err)
	}
	pt, err := open(ctx, dec, ct, nonce)
	if err != nil {
		return nil, &FailedToDecryptError{Encrypted: encoded, Cause: err}
	}
	inner, err := base64.StdEncoding.DecodeString(string(pt))
	if err != nil {
		return nil, fmt.Errorf("%w: decrypted result is not base64: %s", ErrMalformedResult, err)
	}
	if !json.Valid(inner) {
		return nil, fmt.Errorf("%w: decrypted result is not JSON", ErrMalformedResult)
	}
	return inner, nil
}

// DecodeTxData decodes the hex encoded data of a transaction made with the given nonce.
func DecodeTxData(ctx context.Context, dec Decryptor, data string, nonce types.Nonce) ([]byte, error) {
	if data == "" {
		return nil, nil
	}
	ct, err := hex.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: data is not hex: %s", ErrMalformedResult, err)
	}
	pt, err := open(ctx, dec, ct, nonce)
	if err != nil {
		return nil, &FailedToDecryptError{Encrypted: data, Cause: err}
	}
	out, err := base64.StdEncoding.DecodeString(string(pt))
	if err != nil {
		return nil, fmt.Errorf("%w: decrypted data is not base64: %s", ErrMalformedResult, err)
	}
	return out, nil
}

// DecryptLogs returns a copy of the logs with the attributes of wasm events decrypted.
//
// Attributes that cannot be decrypted are left unchanged, as is the contract_address attribute
// which the chain emits in the clear.
func DecryptLogs(ctx context.Context, dec Decryptor, logs []types.Log, nonce types.Nonce) []types.Log {
	if logs == nil {
		return nil
	}
	out := make([]types.Log, len(logs))
	for i, l := range logs {
		out[i] = types.Log{MsgIndex: l.MsgIndex, Log: l.Log}
		if l.Events == nil {
			continue
		}
		out[i].Events = make([]types.Event, len(l.Events))
		for j, ev := range l.Events {
			attrs := append([]types.Attribute(nil), ev.Attributes...)
			if ev.Type == "wasm" {
				for k := range attrs {
					if attrs[k].Key == "contract_address" {
						continue
					}
					attrs[k].Key = tryDecryptString(ctx, dec, attrs[k].Key, nonce)
					attrs[k].Value = tryDecryptString(ctx, dec, attrs[k].Value, nonce)
				}
			}
			out[i].Events[j] = types.Event{Type: ev.Type, Attributes: attrs}
		}
	}
	return out
}

func tryDecryptString(ctx context.Context, dec Decryptor, s string, nonce types.Nonce) string {
	if s == "" {
		return s
	}
	ct, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	pt, err := open(ctx, dec, ct, nonce)
	if err != nil {
		return s
	}
	return string(pt)
}

func open(ctx context.Context, dec Decryptor, ciphertext []byte, nonce types.Nonce) ([]byte, error) {
	if nonce.IsZero() {
		return nil, ErrMissingNonce
	}
	return dec.Decrypt(ctx, ciphertext, nonce)
}
