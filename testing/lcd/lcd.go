// Package lcd implements an in-memory node serving the subset of the REST API used by the
// client. Contract calls are opened and sealed by a simulated enclave so that clients see the
// same ciphertexts as they would on chain.
package lcd

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzip"

	"github.com/oasisprotocol/oasis-core/go/common/logging"

	"github.com/scrtlabs/secret-sdk-go/crypto/enigma"
	"github.com/scrtlabs/secret-sdk-go/crypto/signature/secp256k1"
	"github.com/scrtlabs/secret-sdk-go/types"
)

// Result codes of rejected transactions.
const (
	CodeUnauthorized      = 4
	CodeInsufficientFunds = 5
	CodeUnknownAddress    = 9
	CodeInvalidRequest    = 18
	CodeContractFailed    = 3
)

var genesisTime = time.Date(2020, 9, 15, 15, 0, 0, 0, time.UTC)

var logger = logging.GetLogger("testing/lcd")

// Response is the outcome of a successful contract invocation.
type Response struct {
	// Data is the result data. It is sealed to the caller.
	Data []byte
	// Attributes are emitted in a wasm event. They are sealed to the caller.
	Attributes []types.Attribute
}

// Handler handles an init or handle message of a contract.
type Handler func(sender types.Address, msg json.RawMessage) (*Response, error)

// Querier handles a query message of a contract.
type Querier func(msg json.RawMessage) (json.RawMessage, error)

// Logic is the behaviour of all contracts running the same code.
type Logic struct {
	Init   Handler
	Handle Handler
	Query  Querier
}

type account struct {
	address types.Address
	number  uint64
	seq     uint64
	coins   map[string]*big.Int
	pubKey  *types.PubKey
}

type code struct {
	id      uint64
	creator types.Address
	hash    types.CodeHash
	wasm    []byte
	source  string
	builder string
}

type contract struct {
	address types.Address
	codeID  uint64
	creator types.Address
	label   string
	initMsg json.RawMessage
	raw     map[string][]byte
}

type txRecord struct {
	height     int64
	tx         types.StdTx
	result     types.BroadcastResult
	signer     types.Address
	recipients []types.Address
	bank       bool
}

// Node is an in-memory node.
type Node struct {
	mu sync.Mutex

	chainID string
	enclave *enigma.Enclave

	height    int64
	accounts  map[types.Address]*account
	codes     []*code
	contracts map[types.Address]*contract
	logic     map[types.CodeHash]*Logic
	txs       []*txRecord
	hits      map[string]int
}

// New creates a new node for the given chain with the given enclave.
func New(chainID string, enclave *enigma.Enclave) *Node {
	return &Node{
		chainID:   chainID,
		enclave:   enclave,
		height:    1,
		accounts:  make(map[types.Address]*account),
		contracts: make(map[types.Address]*contract),
		logic:     make(map[types.CodeHash]*Logic),
		hits:      make(map[string]int),
	}
}

// Fund credits the account at the given address, creating it if needed.
func (n *Node) Fund(address types.Address, coins ...types.Coin) {
	n.mu.Lock()
	defer n.mu.Unlock()

	acct := n.accountLocked(address, true)
	for _, c := range coins {
		amount, err := c.BigInt()
		if err != nil {
			panic(err)
		}
		acct.credit(c.Denom, amount)
	}
}

// Balance returns the balance of the account at the given address in the given denomination.
func (n *Node) Balance(address types.Address, denom string) *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()

	acct, ok := n.accounts[address]
	if !ok || acct.coins[denom] == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(acct.coins[denom])
}

// RegisterLogic sets the behaviour of contracts running the code with the given hash.
func (n *Node) RegisterLogic(codeHash types.CodeHash, logic *Logic) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.logic[codeHash] = logic
}

// SetRaw stores a raw value in the storage of the contract at the given address.
func (n *Node) SetRaw(address types.Address, key, value []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	c, ok := n.contracts[address]
	if !ok {
		return fmt.Errorf("lcd: no contract at %s", address)
	}
	c.raw[hex.EncodeToString(key)] = append([]byte(nil), value...)
	return nil
}

// SetChainID changes the chain identifier reported by the node.
func (n *Node) SetChainID(chainID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.chainID = chainID
}

// Hits returns the number of requests served by the route with the given path template.
func (n *Node) Hits(template string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.hits[template]
}

// Router returns the HTTP handler of the node.
func (n *Node) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(n.countHits)

	r.HandleFunc("/node_info", n.nodeInfo).Methods(http.MethodGet)
	r.HandleFunc("/blocks/latest", n.block).Methods(http.MethodGet)
	r.HandleFunc("/blocks/{height:[0-9]+}", n.block).Methods(http.MethodGet)
	r.HandleFunc("/auth/accounts/{address}", n.account).Methods(http.MethodGet)
	r.HandleFunc("/txs", n.broadcast).Methods(http.MethodPost)
	r.HandleFunc("/txs", n.searchTxs).Methods(http.MethodGet)
	r.HandleFunc("/txs/{hash}", n.txByHash).Methods(http.MethodGet)
	r.HandleFunc("/wasm/code", n.listCodes).Methods(http.MethodGet)
	r.HandleFunc("/wasm/code/{id:[0-9]+}", n.code).Methods(http.MethodGet)
	r.HandleFunc("/wasm/code/{id:[0-9]+}/contracts", n.contractsByCode).Methods(http.MethodGet)
	r.HandleFunc("/wasm/code/{id:[0-9]+}/hash", n.codeHash).Methods(http.MethodGet)
	r.HandleFunc("/wasm/contract/{address}", n.contract).Methods(http.MethodGet)
	r.HandleFunc("/wasm/contract/{address}/code-hash", n.contractCodeHash).Methods(http.MethodGet)
	r.HandleFunc("/wasm/contract/{address}/raw/{key}", n.contractRaw).Methods(http.MethodGet)
	r.HandleFunc("/wasm/contract/{address}/query/{query}", n.contractQuery).Methods(http.MethodGet)
	r.HandleFunc("/reg/consensus-io-exch-pubkey", n.consensusKey).Methods(http.MethodGet)

	return r
}

func (n *Node) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				n.mu.Lock()
				n.hits[tpl]++
				n.mu.Unlock()
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (n *Node) writeResult(w http.ResponseWriter, v interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"height": strconv.FormatInt(n.height, 10),
		"result": v,
	})
}

func (n *Node) nodeInfo(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"node_info": map[string]string{
			"id":      "0000000000000000000000000000000000000000",
			"network": n.chainID,
			"version": "0.33.8",
			"moniker": "lcd",
		},
	})
}

func (n *Node) block(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()

	height := n.height
	if raw, ok := mux.Vars(r)["height"]; ok {
		height, _ = strconv.ParseInt(raw, 10, 64)
		if height < 1 || height > n.height {
			writeError(w, http.StatusNotFound, fmt.Sprintf("requested block height %d is not available", height))
			return
		}
	}

	var txs [][]byte
	for _, rec := range n.txs {
		if rec.height == height {
			raw, _ := json.Marshal(&rec.tx)
			txs = append(txs, raw)
		}
	}

	var hb [8]byte
	binary.BigEndian.PutUint64(hb[:], uint64(height))
	id := sha256.Sum256(hb[:])

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"block_id": map[string]string{"hash": strings.ToUpper(hex.EncodeToString(id[:]))},
		"block": map[string]interface{}{
			"header": map[string]interface{}{
				"version":  map[string]string{"block": "10", "app": "0"},
				"height":   strconv.FormatInt(height, 10),
				"chain_id": n.chainID,
				"time":     blockTime(height).Format(time.RFC3339Nano),
			},
			"data": map[string]interface{}{"txs": txs},
		},
	})
}

func blockTime(height int64) time.Time {
	return genesisTime.Add(time.Duration(height) * 5 * time.Second)
}

func parseAddress(w http.ResponseWriter, r *http.Request) (types.Address, bool) {
	addr, err := types.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding bech32 failed: %s", err))
		return types.Address{}, false
	}
	return addr, true
}

func (n *Node) account(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	value := map[string]interface{}{
		"address":        "",
		"coins":          nil,
		"public_key":     nil,
		"account_number": "0",
		"sequence":       "0",
	}
	if acct, exists := n.accounts[addr]; exists {
		value["address"] = addr.String()
		value["coins"] = acct.balance()
		value["public_key"] = acct.pubKey
		value["account_number"] = strconv.FormatUint(acct.number, 10)
		value["sequence"] = strconv.FormatUint(acct.seq, 10)
	}
	n.writeResult(w, map[string]interface{}{
		"type":  "cosmos-sdk/Account",
		"value": value,
	})
}

func (n *Node) consensusKey(w http.ResponseWriter, r *http.Request) {
	pk := n.enclave.PublicKey()
	n.mu.Lock()
	defer n.mu.Unlock()

	n.writeResult(w, map[string]interface{}{"ioExchPubkey": pk[:]})
}

func (n *Node) accountLocked(address types.Address, create bool) *account {
	acct, ok := n.accounts[address]
	if !ok && create {
		acct = &account{
			address: address,
			number:  uint64(len(n.accounts)),
			coins:   make(map[string]*big.Int),
		}
		n.accounts[address] = acct
	}
	return acct
}

func (a *account) credit(denom string, amount *big.Int) {
	if a.coins[denom] == nil {
		a.coins[denom] = new(big.Int)
	}
	a.coins[denom].Add(a.coins[denom], amount)
}

func (a *account) canDebit(coins types.Coins) bool {
	for _, c := range coins {
		amount, err := c.BigInt()
		if err != nil {
			return false
		}
		have := a.coins[c.Denom]
		if have == nil || have.Cmp(amount) < 0 {
			return false
		}
	}
	return true
}

func (a *account) debit(coins types.Coins) {
	for _, c := range coins {
		amount, _ := c.BigInt()
		a.coins[c.Denom].Sub(a.coins[c.Denom], amount)
	}
}

func (a *account) balance() types.Coins {
	coins := types.Coins{}
	for denom, amount := range a.coins {
		coins = append(coins, types.NewCoin(amount, denom))
	}
	return coins
}

func (n *Node) listCodes(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()

	infos := make([]map[string]interface{}, 0, len(n.codes))
	for _, c := range n.codes {
		infos = append(infos, c.info(false))
	}
	n.writeResult(w, infos)
}

func (c *code) info(withWasm bool) map[string]interface{} {
	info := map[string]interface{}{
		"id":        c.id,
		"creator":   c.creator.String(),
		"data_hash": strings.ToUpper(c.hash.String()),
		"source":    c.source,
		"builder":   c.builder,
	}
	if withWasm {
		info["wasm"] = c.wasm
	}
	return info
}

func (n *Node) codeLocked(w http.ResponseWriter, r *http.Request) *code {
	id, _ := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if id == 0 || id > uint64(len(n.codes)) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("code %d not found", id))
		return nil
	}
	return n.codes[id-1]
}

func (n *Node) code(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if c := n.codeLocked(w, r); c != nil {
		n.writeResult(w, c.info(true))
	}
}

func (n *Node) codeHash(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if c := n.codeLocked(w, r); c != nil {
		n.writeResult(w, c.hash.String())
	}
}

func (n *Node) contractsByCode(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()

	c := n.codeLocked(w, r)
	if c == nil {
		return
	}
	infos := []map[string]interface{}{}
	for _, ct := range n.contracts {
		if ct.codeID == c.id {
			infos = append(infos, ct.info(false))
		}
	}
	n.writeResult(w, infos)
}

func (c *contract) info(withInitMsg bool) map[string]interface{} {
	info := map[string]interface{}{
		"address": c.address.String(),
		"code_id": c.codeID,
		"creator": c.creator.String(),
		"label":   c.label,
	}
	if withInitMsg {
		info["init_msg"] = c.initMsg
	}
	return info
}

func (n *Node) contract(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	c, exists := n.contracts[addr]
	if !exists {
		n.writeResult(w, nil)
		return
	}
	n.writeResult(w, c.info(true))
}

func (n *Node) contractCodeHash(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	c, exists := n.contracts[addr]
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Sprintf("contract %s not found", addr))
		return
	}
	n.writeResult(w, n.codes[c.codeID-1].hash.String())
}

func (n *Node) contractRaw(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}
	key := strings.ToLower(mux.Vars(r)["key"])

	n.mu.Lock()
	defer n.mu.Unlock()

	c, exists := n.contracts[addr]
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Sprintf("contract %s not found", addr))
		return
	}
	models := []map[string]interface{}{}
	if val, found := c.raw[key]; found {
		models = append(models, map[string]interface{}{"key": key, "val": val})
	}
	n.writeResult(w, models)
}

func (n *Node) contractQuery(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}
	ct, err := hex.DecodeString(mux.Vars(r)["query"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed query: %s", err))
		return
	}

	n.mu.Lock()
	c, exists := n.contracts[addr]
	var logic *Logic
	var hash types.CodeHash
	if exists {
		hash = n.codes[c.codeID-1].hash
		logic = n.logic[hash]
	}
	n.mu.Unlock()

	if !exists {
		writeError(w, http.StatusNotFound, fmt.Sprintf("contract %s not found", addr))
		return
	}

	call, err := n.openCall(ct, hash)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if logic == nil || logic.Query == nil {
		writeError(w, http.StatusInternalServerError, n.contractFailure(call, fmt.Errorf("query not supported")))
		return
	}

	result, err := logic.Query(call.Msg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, n.contractFailure(call, err))
		return
	}
	inner := base64.StdEncoding.EncodeToString(result)
	sealed := n.enclave.SealOutput(call, []byte(inner))

	n.mu.Lock()
	defer n.mu.Unlock()
	n.writeResult(w, map[string]string{"smart": base64.StdEncoding.EncodeToString(sealed)})
}

func (n *Node) openCall(ciphertext []byte, expected types.CodeHash) (*enigma.SealedCall, error) {
	call, err := n.enclave.OpenCall(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt msg: %w", err)
	}
	if !call.CodeHash.Equal(expected) {
		return nil, fmt.Errorf("failed to validate msg: code hash mismatch")
	}
	return call, nil
}

// contractFailure returns the log of a failed contract call with the error sealed to the
// caller.
func (n *Node) contractFailure(call *enigma.SealedCall, cause error) string {
	diag, _ := json.Marshal(map[string]interface{}{
		"generic_err": map[string]string{"msg": cause.Error()},
	})
	sealed := n.enclave.SealOutput(call, diag)
	return fmt.Sprintf("contract failed: encrypted: %s: failed to execute message; message index: 0",
		base64.StdEncoding.EncodeToString(sealed))
}

func (n *Node) txByHash(w http.ResponseWriter, r *http.Request) {
	hash := strings.ToUpper(mux.Vars(r)["hash"])

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, rec := range n.txs {
		if rec.result.TxHash == hash {
			writeJSON(w, http.StatusOK, rec.response())
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("tx (%s) not found", hash))
}

func (rec *txRecord) response() map[string]interface{} {
	return map[string]interface{}{
		"height":    strconv.FormatInt(rec.height, 10),
		"txhash":    rec.result.TxHash,
		"code":      rec.result.Code,
		"raw_log":   rec.result.RawLog,
		"logs":      rec.result.Logs,
		"data":      rec.result.Data,
		"timestamp": blockTime(rec.height).Format(time.RFC3339),
		"tx": map[string]interface{}{
			"type":  types.StdTxType,
			"value": rec.tx,
		},
	}
}

func (rec *txRecord) matches(key, value string) (bool, error) {
	switch key {
	case "tx.hash":
		return rec.result.TxHash == strings.ToUpper(value), nil
	case "tx.height":
		return strconv.FormatInt(rec.height, 10) == value, nil
	case "message.sender":
		return rec.signer.String() == value, nil
	case "message.module":
		return value == "bank" && rec.bank, nil
	case "transfer.recipient":
		for _, addr := range rec.recipients {
			if addr.String() == value {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported search key '%s'", key)
	}
}

func (n *Node) searchTxs(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	limit := 30
	if raw := params.Get("limit"); raw != "" {
		var err error
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "malformed limit")
			return
		}
	}
	params.Del("limit")
	params.Del("page")

	n.mu.Lock()
	defer n.mu.Unlock()

	var matched []map[string]interface{}
	for _, rec := range n.txs {
		ok := true
		for key, values := range params {
			for _, value := range values {
				m, err := rec.matches(key, value)
				if err != nil {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				ok = ok && m
			}
		}
		if ok {
			matched = append(matched, rec.response())
		}
	}

	total := len(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	if matched == nil {
		matched = []map[string]interface{}{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_count": strconv.Itoa(total),
		"count":       strconv.Itoa(len(matched)),
		"page_number": "1",
		"page_total":  "1",
		"limit":       strconv.Itoa(limit),
		"txs":         matched,
	})
}

func (n *Node) broadcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tx   types.StdTx `json:"tx"`
		Mode string      `json:"mode"`
	}
	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode tx: %s", err))
		return
	}

	// Contract logic runs without the lock held.
	rec := n.deliver(&req.Tx)

	n.mu.Lock()
	defer n.mu.Unlock()

	n.height++
	rec.height = n.height
	rec.result.Height = n.height
	n.txs = append(n.txs, rec)

	logger.Debug("delivered transaction",
		"tx_hash", rec.result.TxHash,
		"code", rec.result.Code,
		"height", rec.height,
	)

	writeJSON(w, http.StatusOK, &rec.result)
}

func txHash(tx *types.StdTx) string {
	raw, _ := json.Marshal(tx)
	h := sha256.Sum256(raw)
	return strings.ToUpper(hex.EncodeToString(h[:]))
}

func (n *Node) deliver(tx *types.StdTx) *txRecord {
	rec := &txRecord{
		tx: *tx,
		result: types.BroadcastResult{
			TxHash: txHash(tx),
		},
	}
	reject := func(code uint32, log string) *txRecord {
		rec.result.Code = code
		rec.result.RawLog = log
		return rec
	}

	signer, err := n.authenticate(tx)
	if err != nil {
		return reject(CodeUnauthorized, err.Error())
	}
	rec.signer = signer

	var logs []types.Log
	for i, msg := range tx.Msg {
		l, data, code, err := n.deliverMsg(rec, i, &msg)
		if err != nil {
			return reject(code, err.Error())
		}
		logs = append(logs, *l)
		if data != nil {
			rec.result.Data = hex.EncodeToString(data)
		}
	}
	rec.result.Logs = logs
	raw, _ := json.Marshal(logs)
	rec.result.RawLog = string(raw)
	return rec
}

func (n *Node) authenticate(tx *types.StdTx) (types.Address, error) {
	if len(tx.Signatures) != 1 {
		return types.Address{}, fmt.Errorf("wrong number of signers; expected 1, got %d", len(tx.Signatures))
	}
	sig := tx.Signatures[0]
	var pk secp256k1.PublicKey
	if err := pk.UnmarshalBinary(sig.PubKey.Value); err != nil {
		return types.Address{}, fmt.Errorf("pubkey is invalid: %w", err)
	}
	signer := types.NewAddress(pk)

	n.mu.Lock()
	defer n.mu.Unlock()

	acct := n.accountLocked(signer, false)
	if acct == nil {
		return types.Address{}, fmt.Errorf("account %s does not exist", signer)
	}
	doc := types.NewStdSignDoc(n.chainID, acct.number, acct.seq, tx.Fee, tx.Memo, tx.Msg...)
	signBytes, err := doc.SignBytes()
	if err != nil {
		return types.Address{}, err
	}
	if !pk.Verify(signBytes, sig.Signature) {
		return types.Address{}, fmt.Errorf("signature verification failed; verify correct account sequence and chain-id")
	}
	acct.seq++
	acct.pubKey = &types.PubKey{Type: types.PubKeySecp256k1Type, Value: sig.PubKey.Value}
	return signer, nil
}

func (n *Node) deliverMsg(rec *txRecord, index int, msg *types.Msg) (*types.Log, []byte, uint32, error) {
	l := &types.Log{MsgIndex: index}
	message := types.Event{Type: "message"}
	addAttr := func(ev *types.Event, key, value string) {
		ev.Attributes = append(ev.Attributes, types.Attribute{Key: key, Value: value})
	}

	switch msg.Type {
	case types.MsgTypeSend:
		var m types.MsgSend
		if err := json.Unmarshal(msg.Value, &m); err != nil {
			return nil, nil, CodeInvalidRequest, err
		}
		n.mu.Lock()
		defer n.mu.Unlock()

		from := n.accountLocked(m.FromAddress, false)
		if from == nil || !from.canDebit(m.Amount) {
			return nil, nil, CodeInsufficientFunds, fmt.Errorf("insufficient funds: %s", m.Amount)
		}
		from.debit(m.Amount)
		to := n.accountLocked(m.ToAddress, true)
		for _, c := range m.Amount {
			amount, _ := c.BigInt()
			to.credit(c.Denom, amount)
		}
		rec.bank = true
		rec.recipients = append(rec.recipients, m.ToAddress)

		addAttr(&message, "action", "send")
		addAttr(&message, "sender", m.FromAddress.String())
		addAttr(&message, "module", "bank")
		transfer := types.Event{Type: "transfer"}
		addAttr(&transfer, "recipient", m.ToAddress.String())
		addAttr(&transfer, "amount", m.Amount.String())
		l.Events = []types.Event{message, transfer}
		return l, nil, 0, nil

	case types.MsgTypeStoreCode:
		var m types.MsgStoreCode
		if err := json.Unmarshal(msg.Value, &m); err != nil {
			return nil, nil, CodeInvalidRequest, err
		}
		wasm, err := decompress(m.WASMByteCode)
		if err != nil {
			return nil, nil, CodeInvalidRequest, err
		}
		n.mu.Lock()
		defer n.mu.Unlock()

		c := &code{
			id:      uint64(len(n.codes)) + 1,
			creator: m.Sender,
			hash:    types.NewCodeHash(wasm),
			wasm:    wasm,
			source:  m.Source,
			builder: m.Builder,
		}
		n.codes = append(n.codes, c)

		addAttr(&message, "action", "store-code")
		addAttr(&message, "module", "compute")
		addAttr(&message, "signer", m.Sender.String())
		addAttr(&message, "code_id", strconv.FormatUint(c.id, 10))
		l.Events = []types.Event{message}
		return l, nil, 0, nil

	case types.MsgTypeInstantiateContract:
		var m types.MsgInstantiateContract
		if err := json.Unmarshal(msg.Value, &m); err != nil {
			return nil, nil, CodeInvalidRequest, err
		}
		n.mu.Lock()
		if m.CodeID == 0 || m.CodeID > uint64(len(n.codes)) {
			n.mu.Unlock()
			return nil, nil, CodeInvalidRequest, fmt.Errorf("code %d not found", m.CodeID)
		}
		hash := n.codes[m.CodeID-1].hash
		logic := n.logic[hash]
		n.mu.Unlock()

		call, err := n.openCall(m.InitMsg, hash)
		if err != nil {
			return nil, nil, CodeInvalidRequest, err
		}
		var rsp *Response
		if logic != nil && logic.Init != nil {
			if rsp, err = logic.Init(m.Sender, call.Msg); err != nil {
				return nil, nil, CodeContractFailed, fmt.Errorf("%s", n.contractFailure(call, err))
			}
		}

		n.mu.Lock()
		defer n.mu.Unlock()

		addr := contractAddress(m.CodeID, uint64(len(n.contracts)))
		n.contracts[addr] = &contract{
			address: addr,
			codeID:  m.CodeID,
			creator: m.Sender,
			label:   m.Label,
			initMsg: call.Msg,
			raw:     make(map[string][]byte),
		}

		addAttr(&message, "action", "instantiate")
		addAttr(&message, "module", "compute")
		addAttr(&message, "signer", m.Sender.String())
		addAttr(&message, "code_id", strconv.FormatUint(m.CodeID, 10))
		addAttr(&message, "contract_address", addr.String())
		l.Events = []types.Event{message}
		if ev := n.wasmEvent(call, addr, rsp); ev != nil {
			l.Events = append(l.Events, *ev)
		}
		return l, n.sealData(call, rsp), 0, nil

	case types.MsgTypeExecuteContract:
		var m types.MsgExecuteContract
		if err := json.Unmarshal(msg.Value, &m); err != nil {
			return nil, nil, CodeInvalidRequest, err
		}
		n.mu.Lock()
		c, exists := n.contracts[m.Contract]
		var hash types.CodeHash
		var logic *Logic
		if exists {
			hash = n.codes[c.codeID-1].hash
			logic = n.logic[hash]
		}
		n.mu.Unlock()
		if !exists {
			return nil, nil, CodeInvalidRequest, fmt.Errorf("contract %s not found", m.Contract)
		}

		call, err := n.openCall(m.Msg, hash)
		if err != nil {
			return nil, nil, CodeInvalidRequest, err
		}
		if logic == nil || logic.Handle == nil {
			return nil, nil, CodeContractFailed, fmt.Errorf("%s", n.contractFailure(call, fmt.Errorf("handle not supported")))
		}
		rsp, err := logic.Handle(m.Sender, call.Msg)
		if err != nil {
			return nil, nil, CodeContractFailed, fmt.Errorf("%s", n.contractFailure(call, err))
		}

		addAttr(&message, "action", "execute")
		addAttr(&message, "module", "compute")
		addAttr(&message, "signer", m.Sender.String())
		addAttr(&message, "contract_address", m.Contract.String())
		l.Events = []types.Event{message}
		if ev := n.wasmEvent(call, m.Contract, rsp); ev != nil {
			l.Events = append(l.Events, *ev)
		}
		return l, n.sealData(call, rsp), 0, nil

	default:
		return nil, nil, CodeInvalidRequest, fmt.Errorf("unrecognized message type: %s", msg.Type)
	}
}

func (n *Node) wasmEvent(call *enigma.SealedCall, addr types.Address, rsp *Response) *types.Event {
	if rsp == nil || len(rsp.Attributes) == 0 {
		return nil
	}
	seal := func(s string) string {
		return base64.StdEncoding.EncodeToString(n.enclave.SealOutput(call, []byte(s)))
	}
	ev := &types.Event{Type: "wasm"}
	ev.Attributes = append(ev.Attributes, types.Attribute{Key: "contract_address", Value: addr.String()})
	for _, attr := range rsp.Attributes {
		ev.Attributes = append(ev.Attributes, types.Attribute{Key: seal(attr.Key), Value: seal(attr.Value)})
	}
	return ev
}

func (n *Node) sealData(call *enigma.SealedCall, rsp *Response) []byte {
	if rsp == nil || rsp.Data == nil {
		return nil
	}
	return n.enclave.SealOutput(call, []byte(base64.StdEncoding.EncodeToString(rsp.Data)))
}

func contractAddress(codeID, instance uint64) (addr types.Address) {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], codeID)
	binary.BigEndian.PutUint64(buf[8:], instance)
	h := sha256.Sum256(append([]byte("contract"), buf[:]...))
	copy(addr[:], h[:types.AddressSize])
	return
}

func decompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte{0x1f, 0x8b}) {
		return data, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("malformed gzip: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}
