package types

// EncryptedPayload is the result of sealing a contract message.
type EncryptedPayload struct {
	// Ciphertext is the exact value that goes into the message's msg field.
	Ciphertext []byte `json:"ciphertext"`
	// Nonce is the nonce the payload was sealed with.
	Nonce Nonce `json:"nonce"`
}

// PendingCall is an encrypted contract call that has not yet been resolved.
//
// It exists for one submit/await/recover cycle and keeps the nonce next to the call so that
// results and errors returned for the call can be opened.
type PendingCall struct {
	Contract  Address  `json:"contract"`
	CodeHash  CodeHash `json:"code_hash"`
	Plaintext []byte   `json:"-"`
	Payload   EncryptedPayload
}

// Nonce returns the nonce the call was encrypted with.
func (pc *PendingCall) Nonce() Nonce {
	return pc.Payload.Nonce
}
