package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/scrtlabs/secret-sdk-go/types"
)

// BroadcastMode is the mode in which the node processes a broadcast transaction.
type BroadcastMode string

const (
	// BroadcastModeBlock waits for the transaction to be committed in a block.
	BroadcastModeBlock BroadcastMode = "block"
	// BroadcastModeSync waits for the transaction to pass CheckTx.
	BroadcastModeSync BroadcastMode = "sync"
	// BroadcastModeAsync returns immediately.
	BroadcastModeAsync BroadcastMode = "async"
)

// RestError is an error response of the node's REST API.
type RestError struct {
	Status  int
	Message string
}

func (e *RestError) Error() string {
	return fmt.Sprintf("rest: status %d: %s", e.Status, e.Message)
}

// NotFound returns true iff the node reported that the resource does not exist.
func (e *RestError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

type wrappedResponse struct {
	Height string          `json:"height"`
	Result json.RawMessage `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NodeInfo is the node's self-description.
type NodeInfo struct {
	NodeInfo struct {
		ID      string `json:"id"`
		Network string `json:"network"`
		Version string `json:"version"`
		Moniker string `json:"moniker"`
	} `json:"node_info"`
}

type blockResponse struct {
	BlockID struct {
		Hash string `json:"hash"`
	} `json:"block_id"`
	Block struct {
		Header struct {
			Version struct {
				Block string `json:"block"`
				App   string `json:"app"`
			} `json:"version"`
			Height  string `json:"height"`
			ChainID string `json:"chain_id"`
			Time    string `json:"time"`
		} `json:"header"`
		Data struct {
			Txs [][]byte `json:"txs"`
		} `json:"data"`
	} `json:"block"`
}

// AccountResponse is an account as returned by the node.
type AccountResponse struct {
	Type  string `json:"type"`
	Value struct {
		Address       string        `json:"address"`
		Coins         types.Coins   `json:"coins"`
		PublicKey     *types.PubKey `json:"public_key"`
		AccountNumber string        `json:"account_number"`
		Sequence      string        `json:"sequence"`
	} `json:"value"`
}

// TxResponse is a transaction as returned by the node's search endpoints.
type TxResponse struct {
	Height    string      `json:"height"`
	TxHash    string      `json:"txhash"`
	Code      uint32      `json:"code,omitempty"`
	RawLog    string      `json:"raw_log"`
	Logs      []types.Log `json:"logs,omitempty"`
	Data      string      `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	Tx        struct {
		Type  string      `json:"type"`
		Value types.StdTx `json:"value"`
	} `json:"tx"`
}

// SearchTxsResponse is a page of search results.
type SearchTxsResponse struct {
	TotalCount string       `json:"total_count"`
	Count      string       `json:"count"`
	PageNumber string       `json:"page_number"`
	PageTotal  string       `json:"page_total"`
	Limit      string       `json:"limit"`
	Txs        []TxResponse `json:"txs"`
}

// CodeInfo is code metadata as returned by the node.
type CodeInfo struct {
	ID       uint64 `json:"id"`
	Creator  string `json:"creator"`
	DataHash string `json:"data_hash"`
	Source   string `json:"source,omitempty"`
	Builder  string `json:"builder,omitempty"`
	// Wasm is only set when a single code is requested.
	Wasm []byte `json:"wasm,omitempty"`
}

// ContractInfo is contract metadata as returned by the node.
type ContractInfo struct {
	Address string          `json:"address"`
	CodeID  uint64          `json:"code_id"`
	Creator string          `json:"creator"`
	Label   string          `json:"label"`
	InitMsg json.RawMessage `json:"init_msg,omitempty"`
}

type rawModel struct {
	Key string `json:"key"`
	Val []byte `json:"val"`
}

type smartQueryResponse struct {
	Smart string `json:"smart"`
}

type consensusKeyResponse struct {
	IoExchPubkey []byte `json:"ioExchPubkey"`
}

// RestClient is a client for the node's REST API.
type RestClient struct {
	baseURL string
	http    *http.Client
	mode    BroadcastMode
}

// NewRestClient creates a new REST client for the node at the given base URL. A nil HTTP
// client selects http.DefaultClient, an empty mode selects BroadcastModeBlock.
func NewRestClient(baseURL string, httpClient *http.Client, mode BroadcastMode) *RestClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if mode == "" {
		mode = BroadcastModeBlock
	}
	return &RestClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
		mode:    mode,
	}
}

// BroadcastMode returns the broadcast mode used by the client.
func (rc *RestClient) BroadcastMode() BroadcastMode {
	return rc.mode
}

func (rc *RestClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rest: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, rc.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("rest: failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rsp, err := rc.http.Do(req)
	if err != nil {
		return fmt.Errorf("rest: %s %s: %w", method, path, err)
	}
	defer rsp.Body.Close()

	raw, err := io.ReadAll(rsp.Body)
	if err != nil {
		return fmt.Errorf("rest: failed to read response: %w", err)
	}

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		var er errorResponse
		if err = json.Unmarshal(raw, &er); err != nil || er.Error == "" {
			er.Error = strings.TrimSpace(string(raw))
		}
		return &RestError{Status: rsp.StatusCode, Message: er.Error}
	}

	if out == nil {
		return nil
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("rest: malformed response: %w", err)
	}
	return nil
}

func (rc *RestClient) get(ctx context.Context, path string, out interface{}) error {
	return rc.do(ctx, http.MethodGet, path, nil, out)
}

// getResult fetches a {"height": ..., "result": ...} wrapped response.
func (rc *RestClient) getResult(ctx context.Context, path string, out interface{}) error {
	var wrapped wrappedResponse
	if err := rc.get(ctx, path, &wrapped); err != nil {
		return err
	}
	if out == nil || len(wrapped.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(wrapped.Result, out); err != nil {
		return fmt.Errorf("rest: malformed result: %w", err)
	}
	return nil
}

// NodeInfo returns information about the node.
func (rc *RestClient) NodeInfo(ctx context.Context) (*NodeInfo, error) {
	var ni NodeInfo
	if err := rc.get(ctx, "/node_info", &ni); err != nil {
		return nil, err
	}
	return &ni, nil
}

// Block returns the block at the given height, or the latest block if height is zero.
func (rc *RestClient) Block(ctx context.Context, height int64) (*types.Block, error) {
	path := "/blocks/latest"
	if height > 0 {
		path = "/blocks/" + strconv.FormatInt(height, 10)
	}
	var br blockResponse
	if err := rc.get(ctx, path, &br); err != nil {
		return nil, err
	}
	return parseBlock(&br)
}

// Account returns the account at the given address. An account that does not exist has an
// empty address.
func (rc *RestClient) Account(ctx context.Context, address types.Address) (*AccountResponse, error) {
	var ar AccountResponse
	if err := rc.getResult(ctx, "/auth/accounts/"+address.String(), &ar); err != nil {
		return nil, err
	}
	return &ar, nil
}

// Broadcast submits a signed transaction.
func (rc *RestClient) Broadcast(ctx context.Context, tx *types.StdTx) (*types.BroadcastResult, error) {
	req := struct {
		Tx   *types.StdTx  `json:"tx"`
		Mode BroadcastMode `json:"mode"`
	}{tx, rc.mode}

	var result types.BroadcastResult
	if err := rc.do(ctx, http.MethodPost, "/txs", &req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TxByHash returns the transaction with the given hash.
func (rc *RestClient) TxByHash(ctx context.Context, hash string) (*TxResponse, error) {
	var tx TxResponse
	if err := rc.get(ctx, "/txs/"+hash, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// SearchTxs returns transactions matching the given query parameters.
func (rc *RestClient) SearchTxs(ctx context.Context, params url.Values) (*SearchTxsResponse, error) {
	var rsp SearchTxsResponse
	if err := rc.get(ctx, "/txs?"+params.Encode(), &rsp); err != nil {
		return nil, err
	}
	return &rsp, nil
}

// Codes returns metadata of all uploaded codes.
func (rc *RestClient) Codes(ctx context.Context) ([]CodeInfo, error) {
	var codes []CodeInfo
	if err := rc.getResult(ctx, "/wasm/code", &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// Code returns the code with the given identifier including its bytecode.
func (rc *RestClient) Code(ctx context.Context, codeID uint64) (*CodeInfo, error) {
	var code CodeInfo
	if err := rc.getResult(ctx, fmt.Sprintf("/wasm/code/%d", codeID), &code); err != nil {
		return nil, err
	}
	return &code, nil
}

// ContractsByCode returns all instances of the code with the given identifier.
func (rc *RestClient) ContractsByCode(ctx context.Context, codeID uint64) ([]ContractInfo, error) {
	var contracts []ContractInfo
	if err := rc.getResult(ctx, fmt.Sprintf("/wasm/code/%d/contracts", codeID), &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

// Contract returns metadata of the contract at the given address, or nil if there is none.
func (rc *RestClient) Contract(ctx context.Context, address types.Address) (*ContractInfo, error) {
	var contract *ContractInfo
	if err := rc.getResult(ctx, "/wasm/contract/"+address.String(), &contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// ContractRaw returns the raw value stored under the given key in the contract's storage, or
// nil if there is none.
func (rc *RestClient) ContractRaw(ctx context.Context, address types.Address, key []byte) ([]byte, error) {
	hexKey := hex.EncodeToString(key)
	var models []rawModel
	path := fmt.Sprintf("/wasm/contract/%s/raw/%s?encoding=hex", address, hexKey)
	if err := rc.getResult(ctx, path, &models); err != nil {
		return nil, err
	}
	for _, m := range models {
		if strings.EqualFold(m.Key, hexKey) {
			return m.Val, nil
		}
	}
	return nil, nil
}

// ContractSmart runs a smart query with the given (encrypted) query message against the
// contract and returns the base64 encoded (encrypted) result.
func (rc *RestClient) ContractSmart(ctx context.Context, address types.Address, query []byte) (string, error) {
	var rsp smartQueryResponse
	path := fmt.Sprintf("/wasm/contract/%s/query/%s?encoding=hex", address, hex.EncodeToString(query))
	if err := rc.getResult(ctx, path, &rsp); err != nil {
		return "", err
	}
	return rsp.Smart, nil
}

// CodeHashByCodeID implements CodeHashSource.
func (rc *RestClient) CodeHashByCodeID(ctx context.Context, codeID uint64) (types.CodeHash, error) {
	return rc.codeHash(ctx, fmt.Sprintf("/wasm/code/%d/hash", codeID))
}

// CodeHashByContractAddr implements CodeHashSource.
func (rc *RestClient) CodeHashByContractAddr(ctx context.Context, address types.Address) (types.CodeHash, error) {
	return rc.codeHash(ctx, fmt.Sprintf("/wasm/contract/%s/code-hash", address))
}

func (rc *RestClient) codeHash(ctx context.Context, path string) (types.CodeHash, error) {
	var raw string
	if err := rc.getResult(ctx, path, &raw); err != nil {
		return types.CodeHash{}, err
	}
	if raw == "" {
		return types.CodeHash{}, &RestError{Status: http.StatusNotFound, Message: "code hash not found"}
	}
	return types.ParseCodeHash(raw)
}

// ConsensusIOPublicKey implements enigma.ConsensusKeySource.
func (rc *RestClient) ConsensusIOPublicKey(ctx context.Context) ([]byte, error) {
	var rsp consensusKeyResponse
	if err := rc.getResult(ctx, "/reg/consensus-io-exch-pubkey", &rsp); err != nil {
		return nil, err
	}
	return rsp.IoExchPubkey, nil
}

func parseBlock(br *blockResponse) (*types.Block, error) {
	height, err := strconv.ParseInt(br.Block.Header.Height, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("rest: malformed block height: %w", err)
	}
	blk := types.Block{
		ID:  br.BlockID.Hash,
		Txs: br.Block.Data.Txs,
	}
	blk.Header.Version.Block = br.Block.Header.Version.Block
	blk.Header.Version.App = br.Block.Header.Version.App
	blk.Header.Height = height
	blk.Header.ChainID = br.Block.Header.ChainID
	if br.Block.Header.Time != "" {
		if err = blk.Header.Time.UnmarshalText([]byte(br.Block.Header.Time)); err != nil {
			return nil, fmt.Errorf("rest: malformed block time: %w", err)
		}
	}
	return &blk, nil
}
