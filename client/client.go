// Package client implements a client for Secret Network nodes.
package client

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"sync"

	"github.com/oasisprotocol/oasis-core/go/common/logging"

	"github.com/scrtlabs/secret-sdk-go/callformat"
	"github.com/scrtlabs/secret-sdk-go/types"
)

var logger = logging.GetLogger("client")

var txHashPattern = regexp.MustCompile(`^([0-9A-F][0-9A-F])+$`)

// Transport is the node API used by the client.
type Transport interface {
	CodeHashSource

	NodeInfo(ctx context.Context) (*NodeInfo, error)
	Block(ctx context.Context, height int64) (*types.Block, error)
	Account(ctx context.Context, address types.Address) (*AccountResponse, error)
	Broadcast(ctx context.Context, tx *types.StdTx) (*types.BroadcastResult, error)
	SearchTxs(ctx context.Context, params url.Values) (*SearchTxsResponse, error)
	Codes(ctx context.Context) ([]CodeInfo, error)
	Code(ctx context.Context, codeID uint64) (*CodeInfo, error)
	ContractsByCode(ctx context.Context, codeID uint64) ([]ContractInfo, error)
	Contract(ctx context.Context, address types.Address) (*ContractInfo, error)
	ContractRaw(ctx context.Context, address types.Address, key []byte) ([]byte, error)
	ContractSmart(ctx context.Context, address types.Address, query []byte) (string, error)
}

// AccountSequence is the account number and sequence used to sign the next transaction of an
// account.
type AccountSequence struct {
	AccountNumber uint64
	Sequence      uint64
}

// PostTxResult is the result of an accepted transaction.
type PostTxResult struct {
	Height          int64
	TransactionHash string
	RawLog          string
	// Logs are the message logs, with wasm event attributes decrypted for encrypted calls.
	Logs []types.Log
	// Data is the transaction result data, decrypted for encrypted calls.
	Data []byte
}

// CosmWasmClient is a read and broadcast client for a chain running confidential contracts.
type CosmWasmClient interface {
	// GetChainID returns the identifier of the chain the node is part of.
	GetChainID(ctx context.Context) (string, error)

	// GetHeight returns the height of the latest block.
	GetHeight(ctx context.Context) (int64, error)

	// GetSequence returns the account number and sequence of the account at the given address.
	GetSequence(ctx context.Context, address types.Address) (*AccountSequence, error)

	// GetAccount returns the account at the given address, or nil if it has never been used.
	GetAccount(ctx context.Context, address types.Address) (*types.Account, error)

	// GetBlock returns the block at the given height, or the latest block if height is zero.
	GetBlock(ctx context.Context, height int64) (*types.Block, error)

	// SearchTx returns the transactions matching the query and the optional filter.
	SearchTx(ctx context.Context, query *SearchTxQuery, filter *SearchTxFilter) ([]types.IndexedTx, error)

	// PostTx broadcasts a signed transaction. The nonce is that of the encrypted contract call
	// carried by the transaction, or a zero nonce if it carries none.
	//
	// A transaction rejected by the chain results in a *PostTxError.
	PostTx(ctx context.Context, tx *types.StdTx, nonce types.Nonce) (*PostTxResult, error)

	// GetCodes returns metadata of all uploaded codes.
	GetCodes(ctx context.Context) ([]types.Code, error)

	// GetCodeDetails returns the code with the given identifier including its bytecode.
	GetCodeDetails(ctx context.Context, codeID uint64) (*types.CodeDetails, error)

	// GetContracts returns all instances of the code with the given identifier.
	GetContracts(ctx context.Context, codeID uint64) ([]types.Contract, error)

	// GetContract returns metadata of the contract at the given address.
	GetContract(ctx context.Context, address types.Address) (*types.ContractDetails, error)

	// QueryContractRaw returns the value stored under the key in the contract's storage, or
	// nil if there is none.
	QueryContractRaw(ctx context.Context, address types.Address, key []byte) ([]byte, error)

	// QueryContractSmart runs an encrypted smart query against the contract and returns the
	// decrypted JSON result.
	QueryContractSmart(ctx context.Context, address types.Address, queryMsg interface{}) (json.RawMessage, error)

	// GetCodeHashByCodeID returns the hash of the code with the given identifier.
	GetCodeHashByCodeID(ctx context.Context, codeID uint64) (types.CodeHash, error)

	// GetCodeHashByContractAddr returns the hash of the code of the contract at the given
	// address.
	GetCodeHashByContractAddr(ctx context.Context, address types.Address) (types.CodeHash, error)
}

// Client is the default CosmWasmClient implementation.
type Client struct {
	transport  Transport
	cipher     callformat.Cipher
	codeHashes *CodeHashCache

	chainIDLock sync.Mutex
	chainID     string
}

// New creates a new client using the given transport and call cipher.
func New(transport Transport, cipher callformat.Cipher) *Client {
	return &Client{
		transport:  transport,
		cipher:     cipher,
		codeHashes: NewCodeHashCache(transport),
	}
}

// Cipher returns the cipher used for encrypted calls.
func (c *Client) Cipher() callformat.Cipher {
	return c.cipher
}

// CodeHashes returns the code hash cache.
func (c *Client) CodeHashes() *CodeHashCache {
	return c.codeHashes
}

// Implements CosmWasmClient.
func (c *Client) GetChainID(ctx context.Context) (string, error) {
	c.chainIDLock.Lock()
	defer c.chainIDLock.Unlock()

	if c.chainID != "" {
		return c.chainID, nil
	}
	ni, err := c.transport.NodeInfo(ctx)
	if err != nil {
		return "", fmt.Errorf("client: failed to fetch node info: %w", err)
	}
	if ni.NodeInfo.Network == "" {
		return "", &ChainIDEmptyError{}
	}
	c.chainID = ni.NodeInfo.Network
	return c.chainID, nil
}

// Implements CosmWasmClient.
func (c *Client) GetHeight(ctx context.Context) (int64, error) {
	blk, err := c.transport.Block(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("client: failed to fetch latest block: %w", err)
	}
	return blk.Header.Height, nil
}

// Implements CosmWasmClient.
func (c *Client) GetSequence(ctx context.Context, address types.Address) (*AccountSequence, error) {
	acct, err := c.GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, &AccountDoesNotExistError{Address: address}
	}
	return &AccountSequence{
		AccountNumber: acct.AccountNumber,
		Sequence:      acct.Sequence,
	}, nil
}

// Implements CosmWasmClient.
func (c *Client) GetAccount(ctx context.Context, address types.Address) (*types.Account, error) {
	rsp, err := c.transport.Account(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("client: failed to fetch account: %w", err)
	}
	if rsp.Value.Address == "" {
		return nil, nil
	}

	acct := types.Account{
		Balance: rsp.Value.Coins,
		PubKey:  rsp.Value.PublicKey,
	}
	if acct.Address, err = types.ParseAddress(rsp.Value.Address); err != nil {
		return nil, fmt.Errorf("client: malformed account address: %w", err)
	}
	if acct.AccountNumber, err = parseUint(rsp.Value.AccountNumber); err != nil {
		return nil, fmt.Errorf("client: malformed account number: %w", err)
	}
	if acct.Sequence, err = parseUint(rsp.Value.Sequence); err != nil {
		return nil, fmt.Errorf("client: malformed account sequence: %w", err)
	}
	if acct.Balance == nil {
		acct.Balance = types.Coins{}
	}
	return &acct, nil
}

// Implements CosmWasmClient.
func (c *Client) GetBlock(ctx context.Context, height int64) (*types.Block, error) {
	blk, err := c.transport.Block(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("client: failed to fetch block: %w", err)
	}
	return blk, nil
}

// Implements CosmWasmClient.
func (c *Client) PostTx(ctx context.Context, tx *types.StdTx, nonce types.Nonce) (*PostTxResult, error) {
	rsp, err := c.transport.Broadcast(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("client: failed to broadcast transaction: %w", err)
	}
	if !rsp.IsSuccess() {
		txRejections.Inc()
		logger.Warn("transaction rejected",
			"tx_hash", rsp.TxHash,
			"code", rsp.Code,
			"encrypted", !nonce.IsZero(),
		)
		return nil, newPostTxError(tx, rsp, nonce, c.cipher)
	}
	if !txHashPattern.MatchString(rsp.TxHash) {
		return nil, &IllFormattedTxHashError{TxHash: rsp.TxHash}
	}

	result := &PostTxResult{
		Height:          rsp.Height,
		TransactionHash: rsp.TxHash,
		RawLog:          rsp.RawLog,
		Logs:            rsp.Logs,
	}
	if nonce.IsZero() {
		if result.Data, err = hex.DecodeString(rsp.Data); err != nil {
			return nil, fmt.Errorf("client: malformed data of transaction %s: %w", rsp.TxHash, err)
		}
		return result, nil
	}

	if result.Data, err = callformat.DecodeTxData(ctx, c.cipher, rsp.Data, nonce); err != nil {
		decryptFailures.WithLabelValues("tx_data").Inc()
		return nil, fmt.Errorf("client: failed to decode data of transaction %s: %w", rsp.TxHash, err)
	}
	result.Logs = callformat.DecryptLogs(ctx, c.cipher, rsp.Logs, nonce)
	return result, nil
}

// Implements CosmWasmClient.
func (c *Client) GetCodes(ctx context.Context) ([]types.Code, error) {
	infos, err := c.transport.Codes(ctx)
	if err != nil {
		return nil, fmt.Errorf("client: failed to fetch codes: %w", err)
	}
	codes := make([]types.Code, 0, len(infos))
	for i := range infos {
		code, err := c.parseCode(&infos[i])
		if err != nil {
			return nil, err
		}
		codes = append(codes, *code)
	}
	return codes, nil
}

// Implements CosmWasmClient.
func (c *Client) GetCodeDetails(ctx context.Context, codeID uint64) (*types.CodeDetails, error) {
	info, err := c.transport.Code(ctx, codeID)
	if err != nil {
		return nil, fmt.Errorf("client: failed to fetch code %d: %w", codeID, err)
	}
	code, err := c.parseCode(info)
	if err != nil {
		return nil, err
	}
	return &types.CodeDetails{Code: *code, Data: info.Wasm}, nil
}

func (c *Client) parseCode(info *CodeInfo) (*types.Code, error) {
	code := types.Code{
		ID:      info.ID,
		Source:  info.Source,
		Builder: info.Builder,
	}
	var err error
	if code.Creator, err = types.ParseAddress(info.Creator); err != nil {
		return nil, fmt.Errorf("client: malformed creator of code %d: %w", info.ID, err)
	}
	if code.Checksum, err = types.ParseCodeHash(info.DataHash); err != nil {
		return nil, fmt.Errorf("client: malformed checksum of code %d: %w", info.ID, err)
	}
	// The checksum of the bytecode is the code hash.
	c.codeHashes.Put(code.ID, code.Checksum)
	return &code, nil
}

// Implements CosmWasmClient.
func (c *Client) GetContracts(ctx context.Context, codeID uint64) ([]types.Contract, error) {
	infos, err := c.transport.ContractsByCode(ctx, codeID)
	if err != nil {
		return nil, fmt.Errorf("client: failed to fetch contracts of code %d: %w", codeID, err)
	}
	contracts := make([]types.Contract, 0, len(infos))
	for i := range infos {
		contract, err := parseContract(&infos[i])
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, *contract)
	}
	return contracts, nil
}

// Implements CosmWasmClient.
func (c *Client) GetContract(ctx context.Context, address types.Address) (*types.ContractDetails, error) {
	info, err := c.transport.Contract(ctx, address)
	if err != nil {
		if isNotFound(err) {
			return nil, &NoContractFoundError{Address: address}
		}
		return nil, fmt.Errorf("client: failed to fetch contract: %w", err)
	}
	if info == nil {
		return nil, &NoContractFoundError{Address: address}
	}
	contract, err := parseContract(info)
	if err != nil {
		return nil, err
	}
	return &types.ContractDetails{Contract: *contract, InitMsg: info.InitMsg}, nil
}

func parseContract(info *ContractInfo) (*types.Contract, error) {
	contract := types.Contract{
		CodeID: info.CodeID,
		Label:  info.Label,
	}
	var err error
	if contract.Address, err = types.ParseAddress(info.Address); err != nil {
		return nil, fmt.Errorf("client: malformed contract address: %w", err)
	}
	if contract.Creator, err = types.ParseAddress(info.Creator); err != nil {
		return nil, fmt.Errorf("client: malformed creator of contract %s: %w", info.Address, err)
	}
	return &contract, nil
}

// Implements CosmWasmClient.
func (c *Client) QueryContractRaw(ctx context.Context, address types.Address, key []byte) ([]byte, error) {
	value, err := c.transport.ContractRaw(ctx, address, key)
	if err != nil {
		if isNotFound(err) {
			return nil, &NoContractFoundError{Address: address}
		}
		return nil, fmt.Errorf("client: failed to query contract storage: %w", err)
	}
	return value, nil
}

// Implements CosmWasmClient.
func (c *Client) QueryContractSmart(ctx context.Context, address types.Address, queryMsg interface{}) (json.RawMessage, error) {
	codeHash, err := c.GetCodeHashByContractAddr(ctx, address)
	if err != nil {
		return nil, err
	}

	payload, err := callformat.EncodeMsg(ctx, c.cipher, codeHash, queryMsg)
	if err != nil {
		if errors.Is(err, callformat.ErrMalformedMessage) {
			return nil, &InvalidQueryError{Cause: err}
		}
		return nil, err
	}
	encryptedCalls.WithLabelValues("query").Inc()

	encoded, err := c.transport.ContractSmart(ctx, address, payload.Ciphertext)
	if err != nil {
		var restErr *RestError
		if !errors.As(err, &restErr) {
			return nil, fmt.Errorf("client: failed to query contract: %w", err)
		}
		if restErr.NotFound() {
			return nil, &NoContractFoundError{Address: address}
		}
		logger.Debug("smart query failed",
			"contract", address,
			"err", err,
		)
		return nil, newQueryFailedError(address, restErr, payload.Nonce, c.cipher)
	}

	result, err := callformat.DecodeQueryResult(ctx, c.cipher, encoded, payload.Nonce)
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, callformat.ErrMalformedResult):
		return nil, &InvalidResponseError{Payload: encoded, Cause: err}
	default:
		decryptFailures.WithLabelValues(stageForError(err)).Inc()
		return nil, err
	}
}

// Implements CosmWasmClient.
func (c *Client) GetCodeHashByCodeID(ctx context.Context, codeID uint64) (types.CodeHash, error) {
	h, err := c.codeHashes.Get(ctx, codeID)
	if err != nil {
		return types.CodeHash{}, fmt.Errorf("client: failed to fetch hash of code %d: %w", codeID, err)
	}
	return h, nil
}

// Implements CosmWasmClient.
func (c *Client) GetCodeHashByContractAddr(ctx context.Context, address types.Address) (types.CodeHash, error) {
	h, err := c.codeHashes.GetByContract(ctx, address)
	if err != nil {
		if isNotFound(err) {
			return types.CodeHash{}, &NoContractFoundError{Address: address}
		}
		return types.CodeHash{}, fmt.Errorf("client: failed to fetch code hash of contract %s: %w", address, err)
	}
	return h, nil
}

func isNotFound(err error) bool {
	var restErr *RestError
	return errors.As(err, &restErr) && restErr.NotFound()
}

func parseUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
