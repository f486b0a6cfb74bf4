package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Message type names as understood by the chain.
const (
	MsgTypeSend                = "cosmos-sdk/MsgSend"
	MsgTypeStoreCode           = "wasm/MsgStoreCode"
	MsgTypeInstantiateContract = "wasm/MsgInstantiateContract"
	MsgTypeExecuteContract     = "wasm/MsgExecuteContract"

	// StdTxType is the type name of a standard transaction envelope.
	StdTxType = "cosmos-sdk/StdTx"
	// PubKeySecp256k1Type is the type name of a secp256k1 public key.
	PubKeySecp256k1Type = "tendermint/PubKeySecp256k1"
)

// Msg is a typed transaction message.
type Msg struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// NewMsg serializes the given message body under the given type name.
func NewMsg(typ string, value interface{}) (Msg, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Msg{}, fmt.Errorf("failed to marshal %s: %w", typ, err)
	}
	return Msg{Type: typ, Value: raw}, nil
}

// MsgSend transfers tokens between accounts.
type MsgSend struct {
	FromAddress Address `json:"from_address"`
	ToAddress   Address `json:"to_address"`
	Amount      Coins   `json:"amount"`
}

// MsgStoreCode uploads contract bytecode.
type MsgStoreCode struct {
	Sender       Address `json:"sender"`
	WASMByteCode []byte  `json:"wasm_byte_code"`
	Source       string  `json:"source"`
	Builder      string  `json:"builder"`
}

// MsgInstantiateContract creates a new contract instance. InitMsg is encrypted.
type MsgInstantiateContract struct {
	Sender           Address `json:"sender"`
	CodeID           uint64  `json:"code_id,string"`
	Label            string  `json:"label"`
	InitMsg          []byte  `json:"init_msg"`
	InitFunds        Coins   `json:"init_funds"`
	CallbackCodeHash string  `json:"callback_code_hash"`
}

// MsgExecuteContract calls into an existing contract. Msg is encrypted.
type MsgExecuteContract struct {
	Sender           Address `json:"sender"`
	Contract         Address `json:"contract"`
	Msg              []byte  `json:"msg"`
	SentFunds        Coins   `json:"sent_funds"`
	CallbackCodeHash string  `json:"callback_code_hash"`
}

// PubKey is a typed public key as carried in signatures.
type PubKey struct {
	Type  string `json:"type"`
	Value []byte `json:"value"`
}

// StdSignature is a signature over a StdSignDoc.
type StdSignature struct {
	PubKey    PubKey `json:"pub_key"`
	Signature []byte `json:"signature"`
}

// StdTx is a signed transaction.
type StdTx struct {
	Msg        []Msg          `json:"msg"`
	Fee        StdFee         `json:"fee"`
	Signatures []StdSignature `json:"signatures"`
	Memo       string         `json:"memo"`
}

// StdSignDoc is the document that gets signed for a StdTx.
type StdSignDoc struct {
	AccountNumber string `json:"account_number"`
	ChainID       string `json:"chain_id"`
	Fee           StdFee `json:"fee"`
	Memo          string `json:"memo"`
	Msgs          []Msg  `json:"msgs"`
	Sequence      string `json:"sequence"`
}

// NewStdSignDoc creates a new sign document.
func NewStdSignDoc(chainID string, accountNumber, sequence uint64, fee StdFee, memo string, msgs ...Msg) *StdSignDoc {
	return &StdSignDoc{
		AccountNumber: strconv.FormatUint(accountNumber, 10),
		ChainID:       chainID,
		Fee:           fee,
		Memo:          memo,
		Msgs:          msgs,
		Sequence:      strconv.FormatUint(sequence, 10),
	}
}

// SignBytes returns the canonical encoding of the sign document: compact JSON with all object
// keys sorted.
func (d *StdSignDoc) SignBytes() ([]byte, error) {
	return SortedJSON(d)
}

// SortedJSON marshals v into compact JSON with all object keys sorted.
func SortedJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	// Maps are marshalled with sorted keys, so a round trip through a generic value sorts
	// every nested object.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err = dec.Decode(&generic); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err = enc.Encode(generic); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
