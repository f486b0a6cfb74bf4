package types

import (
	"encoding/json"
	"time"
)

// Account is the on-chain state of an account.
type Account struct {
	Address       Address `json:"address"`
	Balance       Coins   `json:"balance"`
	PubKey        *PubKey `json:"pub_key,omitempty"`
	AccountNumber uint64  `json:"account_number"`
	Sequence      uint64  `json:"sequence"`
}

// BlockHeader is the header of a block.
type BlockHeader struct {
	Version struct {
		Block string `json:"block"`
		App   string `json:"app"`
	} `json:"version"`
	Height  int64     `json:"height"`
	ChainID string    `json:"chain_id"`
	Time    time.Time `json:"time"`
}

// Block is a block together with its raw transactions.
type Block struct {
	ID     string      `json:"id"`
	Header BlockHeader `json:"header"`
	Txs    [][]byte    `json:"txs"`
}

// Code is metadata of uploaded contract bytecode.
type Code struct {
	ID       uint64   `json:"id"`
	Creator  Address  `json:"creator"`
	Checksum CodeHash `json:"checksum"`
	Source   string   `json:"source,omitempty"`
	Builder  string   `json:"builder,omitempty"`
}

// CodeDetails is uploaded bytecode together with its metadata.
type CodeDetails struct {
	Code
	Data []byte `json:"data"`
}

// Contract is metadata of a contract instance.
type Contract struct {
	Address Address `json:"address"`
	CodeID  uint64  `json:"code_id"`
	Creator Address `json:"creator"`
	Label   string  `json:"label"`
}

// ContractDetails is a contract instance together with its init message.
type ContractDetails struct {
	Contract
	InitMsg json.RawMessage `json:"init_msg,omitempty"`
}

// IndexedTx is a transaction found through search.
type IndexedTx struct {
	Height    int64  `json:"height"`
	Hash      string `json:"hash"`
	Code      uint32 `json:"code"`
	RawLog    string `json:"raw_log"`
	Logs      []Log  `json:"logs,omitempty"`
	Tx        StdTx  `json:"tx"`
	Timestamp string `json:"timestamp"`
}
