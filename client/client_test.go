package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrtlabs/secret-sdk-go/callformat"
	"github.com/scrtlabs/secret-sdk-go/crypto/enigma"
	sdkTesting "github.com/scrtlabs/secret-sdk-go/testing"
	"github.com/scrtlabs/secret-sdk-go/testing/lcd"
	"github.com/scrtlabs/secret-sdk-go/types"
)

const testChainID = "secretdev-1"

var counterWasm = []byte("\x00asm\x01\x00\x00\x00 counter contract for tests")

type testEnv struct {
	node    *lcd.Node
	srv     *httptest.Server
	client  *Client
	signing *SigningClient
}

func newTestClient(t *testing.T, srv *httptest.Server, key sdkTesting.TestKey) *Client {
	rest := NewRestClient(srv.URL, srv.Client(), BroadcastModeBlock)
	utils, err := enigma.New(rest, key.EncryptionSeed)
	require.NoError(t, err)
	return New(rest, utils)
}

func newTestEnv(t *testing.T) *testEnv {
	node := lcd.New(testChainID, sdkTesting.NewEnclave())
	node.Fund(sdkTesting.Alice.Address, types.Coin{Denom: "uscrt", Amount: "100000000"})
	registerCounter(node)

	srv := httptest.NewServer(node.Router())
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv, sdkTesting.Alice)
	sc, err := NewSigningClient(c, sdkTesting.Alice.Signer, DefaultFeeTable("uscrt"))
	require.NoError(t, err)

	return &testEnv{
		node:    node,
		srv:     srv,
		client:  c,
		signing: sc,
	}
}

func registerCounter(node *lcd.Node) {
	var (
		mu    sync.Mutex
		count int
	)
	countResult := func() []byte {
		return []byte(fmt.Sprintf(`{"count":%d}`, count))
	}

	node.RegisterLogic(types.NewCodeHash(counterWasm), &lcd.Logic{
		Init: func(_ types.Address, msg json.RawMessage) (*lcd.Response, error) {
			var m struct {
				Count int `json:"count"`
			}
			if err := json.Unmarshal(msg, &m); err != nil {
				return nil, err
			}
			if m.Count < 0 {
				return nil, errors.New("count must not be negative")
			}
			mu.Lock()
			defer mu.Unlock()
			count = m.Count
			return &lcd.Response{Attributes: []types.Attribute{{Key: "init", Value: "ok"}}}, nil
		},
		Handle: func(_ types.Address, msg json.RawMessage) (*lcd.Response, error) {
			var m struct {
				Increment *struct{} `json:"increment"`
			}
			if err := json.Unmarshal(msg, &m); err != nil {
				return nil, err
			}
			if m.Increment == nil {
				return nil, errors.New("unknown handle message")
			}
			mu.Lock()
			defer mu.Unlock()
			count++
			return &lcd.Response{
				Data:       countResult(),
				Attributes: []types.Attribute{{Key: "action", Value: "increment"}},
			}, nil
		},
		Query: func(msg json.RawMessage) (json.RawMessage, error) {
			var m struct {
				GetCount *struct{} `json:"get_count"`
			}
			if err := json.Unmarshal(msg, &m); err != nil {
				return nil, err
			}
			if m.GetCount == nil {
				return nil, errors.New("unknown query")
			}
			mu.Lock()
			defer mu.Unlock()
			return countResult(), nil
		},
	})
}

// deployCounter uploads and instantiates the counter contract.
func (env *testEnv) deployCounter(t *testing.T, initialCount int) types.Address {
	ctx := context.Background()

	upload, err := env.signing.Upload(ctx, counterWasm, &UploadMeta{Source: "https://example.com/counter"}, "")
	require.NoError(t, err)

	inst, err := env.signing.Instantiate(ctx, upload.CodeID, map[string]int{"count": initialCount}, "counter", "", nil)
	require.NoError(t, err)
	return inst.ContractAddress
}

func TestChainID(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	chainID, err := env.client.GetChainID(ctx)
	require.NoError(err)
	require.EqualValues(testChainID, chainID)

	height, err := env.client.GetHeight(ctx)
	require.NoError(err)
	require.EqualValues(1, height)

	blk, err := env.client.GetBlock(ctx, 1)
	require.NoError(err)
	require.EqualValues(testChainID, blk.Header.ChainID)
	require.NotEmpty(blk.ID)

	env.node.SetChainID("")
	_, err = newTestClient(t, env.srv, sdkTesting.Bob).GetChainID(ctx)
	require.Error(err)
	require.EqualValues(types.KindChainIDEmpty, types.KindOf(err))
}

func TestAccounts(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	acct, err := env.client.GetAccount(ctx, sdkTesting.Alice.Address)
	require.NoError(err)
	require.NotNil(acct)
	require.EqualValues(sdkTesting.Alice.Address, acct.Address)
	require.EqualValues(types.Coins{{Denom: "uscrt", Amount: "100000000"}}, acct.Balance)

	seq, err := env.client.GetSequence(ctx, sdkTesting.Alice.Address)
	require.NoError(err)
	require.EqualValues(0, seq.Sequence)

	acct, err = env.client.GetAccount(ctx, sdkTesting.Bob.Address)
	require.NoError(err)
	require.Nil(acct)

	_, err = env.client.GetSequence(ctx, sdkTesting.Bob.Address)
	require.Error(err)
	require.EqualValues(types.KindAccountDoesNotExist, types.KindOf(err))

	_, err = env.signing.SendTokens(ctx, sdkTesting.Bob.Address, types.Coins{{Denom: "uscrt", Amount: "1000"}}, "hello")
	require.NoError(err)

	seq, err = env.client.GetSequence(ctx, sdkTesting.Alice.Address)
	require.NoError(err)
	require.EqualValues(1, seq.Sequence)
	require.EqualValues("1000", env.node.Balance(sdkTesting.Bob.Address, "uscrt").String())
}

func TestContractLifecycle(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	upload, err := env.signing.Upload(ctx, counterWasm, nil, "")
	require.NoError(err)
	require.EqualValues(1, upload.CodeID)
	require.EqualValues(types.NewCodeHash(counterWasm), upload.OriginalChecksum)
	require.EqualValues(len(counterWasm), upload.OriginalSize)
	require.NotEqualValues(upload.OriginalChecksum, upload.CompressedChecksum)

	codes, err := env.client.GetCodes(ctx)
	require.NoError(err)
	require.Len(codes, 1)
	require.EqualValues(upload.OriginalChecksum, codes[0].Checksum)
	require.EqualValues(sdkTesting.Alice.Address, codes[0].Creator)

	details, err := env.client.GetCodeDetails(ctx, upload.CodeID)
	require.NoError(err)
	require.EqualValues(counterWasm, details.Data)

	inst, err := env.signing.Instantiate(ctx, upload.CodeID, map[string]int{"count": 5}, "counter", "", nil)
	require.NoError(err)
	addr := inst.ContractAddress

	attrs := types.FindEvent(inst.Logs, 0, "wasm")
	require.NotNil(attrs, "wasm event should be present")
	v, ok := attrs.FindAttribute("init")
	require.True(ok, "wasm event attributes should be decrypted")
	require.EqualValues("ok", v)

	contract, err := env.client.GetContract(ctx, addr)
	require.NoError(err)
	require.EqualValues("counter", contract.Label)
	require.EqualValues(upload.CodeID, contract.CodeID)
	require.JSONEq(`{"count":5}`, string(contract.InitMsg))

	contracts, err := env.client.GetContracts(ctx, upload.CodeID)
	require.NoError(err)
	require.Len(contracts, 1)
	require.EqualValues(addr, contracts[0].Address)

	result, err := env.client.QueryContractSmart(ctx, addr, map[string]interface{}{"get_count": struct{}{}})
	require.NoError(err)
	require.JSONEq(`{"count":5}`, string(result))

	exec, err := env.signing.Execute(ctx, addr, map[string]interface{}{"increment": struct{}{}}, "", nil)
	require.NoError(err)
	require.JSONEq(`{"count":6}`, string(exec.Data))
	ev := types.FindEvent(exec.Logs, 0, "wasm")
	require.NotNil(ev)
	v, ok = ev.FindAttribute("action")
	require.True(ok)
	require.EqualValues("increment", v)
	v, ok = ev.FindAttribute("contract_address")
	require.True(ok)
	require.EqualValues(addr.String(), v)

	result, err = env.client.QueryContractSmart(ctx, addr, map[string]interface{}{"get_count": struct{}{}})
	require.NoError(err)
	require.JSONEq(`{"count":6}`, string(result))

	require.EqualValues(0, env.node.Hits("/wasm/contract/{address}/code-hash"), "code hash should be known from instantiation")
	require.EqualValues(0, env.node.Hits("/wasm/code/{id:[0-9]+}/hash"), "code hash should be known from upload")

	// A fresh client resolves the code hash once.
	other := newTestClient(t, env.srv, sdkTesting.Bob)
	for i := 0; i < 3; i++ {
		result, err = other.QueryContractSmart(ctx, addr, map[string]interface{}{"get_count": struct{}{}})
		require.NoError(err)
		require.JSONEq(`{"count":6}`, string(result))
	}
	require.EqualValues(1, env.node.Hits("/wasm/contract/{address}/code-hash"))
}

func TestPostTxErrorDecrypt(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	addr := env.deployCounter(t, 0)

	_, err := env.signing.Execute(ctx, addr, map[string]interface{}{"explode": struct{}{}}, "", nil)
	require.Error(err)
	require.EqualValues(types.KindPostTx, types.KindOf(err))

	var pte *PostTxError
	require.True(errors.As(err, &pte))
	require.False(pte.Nonce().IsZero())
	require.True(callformat.ContainsEncryptedError(pte.Response.RawLog))
	require.Empty(pte.Log(), "diagnostic should not be decrypted implicitly")

	log, err := pte.Decrypt(ctx)
	require.NoError(err)
	require.JSONEq(`{"generic_err":{"msg":"unknown handle message"}}`, log)
	require.EqualValues(log, pte.Log())
	require.Contains(pte.Error(), "unknown handle message")

	again, err := pte.Decrypt(ctx)
	require.NoError(err)
	require.EqualValues(log, again)
}

func TestPostTxErrorWithoutEncryptedDiagnostic(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.signing.SendTokens(ctx, sdkTesting.Bob.Address, types.Coins{{Denom: "uscrt", Amount: "100000000000"}}, "")
	require.Error(err)

	var pte *PostTxError
	require.True(errors.As(err, &pte))
	require.EqualValues(lcd.CodeInsufficientFunds, pte.Response.Code)
	require.True(pte.Nonce().IsZero())

	_, err = pte.Decrypt(ctx)
	require.Error(err)
	require.EqualValues(types.KindMessageNotFound, types.KindOf(err))
	require.Contains(pte.Error(), "insufficient funds")
}

func TestQueryFailedDecrypt(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	addr := env.deployCounter(t, 1)

	_, err := env.client.QueryContractSmart(ctx, addr, map[string]interface{}{"get_owner": struct{}{}})
	require.Error(err)
	require.EqualValues(types.KindQueryFailed, types.KindOf(err))

	var qfe *QueryFailedError
	require.True(errors.As(err, &qfe))
	require.EqualValues(addr, qfe.Address)

	log, err := qfe.Decrypt(ctx)
	require.NoError(err)
	require.JSONEq(`{"generic_err":{"msg":"unknown query"}}`, log)
	require.Contains(qfe.Error(), "unknown query")

	again, err := qfe.Decrypt(ctx)
	require.NoError(err)
	require.EqualValues(log, again)
}

func TestQueryErrors(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	addr := env.deployCounter(t, 1)

	var missing types.Address
	missing[0] = 0xff

	_, err := env.client.QueryContractSmart(ctx, missing, map[string]interface{}{"get_count": struct{}{}})
	require.Error(err)
	require.EqualValues(types.KindNoContractFound, types.KindOf(err))

	_, err = env.client.GetContract(ctx, missing)
	require.EqualValues(types.KindNoContractFound, types.KindOf(err))

	_, err = env.client.QueryContractRaw(ctx, missing, []byte("config"))
	require.EqualValues(types.KindNoContractFound, types.KindOf(err))

	_, err = env.client.QueryContractSmart(ctx, addr, func() {})
	require.Error(err)
	require.EqualValues(types.KindInvalidQuery, types.KindOf(err))
}

func TestQueryContractRaw(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	addr := env.deployCounter(t, 1)
	require.NoError(env.node.SetRaw(addr, []byte("config"), []byte(`{"owner":"alice"}`)))

	value, err := env.client.QueryContractRaw(ctx, addr, []byte("config"))
	require.NoError(err)
	require.EqualValues(`{"owner":"alice"}`, string(value))

	value, err = env.client.QueryContractRaw(ctx, addr, []byte("nope"))
	require.NoError(err)
	require.Nil(value)
}

func TestSearchTx(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	sent, err := env.signing.SendTokens(ctx, sdkTesting.Bob.Address, types.Coins{{Denom: "uscrt", Amount: "10"}}, "")
	require.NoError(err)
	env.deployCounter(t, 0)

	txs, err := env.client.SearchTx(ctx, &SearchTxQuery{ID: sent.TransactionHash}, nil)
	require.NoError(err)
	require.Len(txs, 1)
	require.EqualValues(sent.TransactionHash, txs[0].Hash)
	require.EqualValues(sent.Height, txs[0].Height)
	require.Len(txs[0].Tx.Msg, 1)
	require.EqualValues(types.MsgTypeSend, txs[0].Tx.Msg[0].Type)

	txs, err = env.client.SearchTx(ctx, &SearchTxQuery{Height: sent.Height}, nil)
	require.NoError(err)
	require.Len(txs, 1)

	bob := sdkTesting.Bob.Address
	txs, err = env.client.SearchTx(ctx, &SearchTxQuery{SentFromOrTo: &bob}, nil)
	require.NoError(err)
	require.Len(txs, 1)
	require.EqualValues(sent.TransactionHash, txs[0].Hash)

	alice := sdkTesting.Alice.Address
	txs, err = env.client.SearchTx(ctx, &SearchTxQuery{Tags: []SearchTag{{Key: "message.sender", Value: alice.String()}}}, nil)
	require.NoError(err)
	require.Len(txs, 3, "send, upload and instantiate")
	for i := 1; i < len(txs); i++ {
		require.True(txs[i-1].Height <= txs[i].Height)
	}

	txs, err = env.client.SearchTx(ctx, &SearchTxQuery{Tags: []SearchTag{{Key: "message.sender", Value: alice.String()}}}, &SearchTxFilter{MinHeight: sent.Height + 1})
	require.NoError(err)
	require.Len(txs, 2)

	txs, err = env.client.SearchTx(ctx, &SearchTxQuery{Tags: []SearchTag{{Key: "message.sender", Value: alice.String()}}}, &SearchTxFilter{MaxHeight: sent.Height})
	require.NoError(err)
	require.Len(txs, 1)

	_, err = env.client.SearchTx(ctx, &SearchTxQuery{}, nil)
	require.EqualValues(types.KindUnknownQueryType, types.KindOf(err))
	_, err = env.client.SearchTx(ctx, nil, nil)
	require.EqualValues(types.KindUnknownQueryType, types.KindOf(err))
}

// stubTransport overrides selected node responses.
type stubTransport struct {
	Transport

	broadcast *types.BroadcastResult
	search    *SearchTxsResponse
}

func (s *stubTransport) Broadcast(context.Context, *types.StdTx) (*types.BroadcastResult, error) {
	return s.broadcast, nil
}

func (s *stubTransport) SearchTxs(context.Context, url.Values) (*SearchTxsResponse, error) {
	return s.search, nil
}

func TestMalformedNodeResponses(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	stub := &stubTransport{
		broadcast: &types.BroadcastResult{TxHash: "not a hash"},
		search:    &SearchTxsResponse{TotalCount: "101"},
	}
	c := New(stub, nil)

	_, err := c.PostTx(ctx, &types.StdTx{}, types.Nonce{})
	require.Error(err)
	require.EqualValues(types.KindIllFormattedTxHash, types.KindOf(err))

	_, err = c.SearchTx(ctx, &SearchTxQuery{Height: 1}, nil)
	require.Error(err)
	require.EqualValues(types.KindTooManyResults, types.KindOf(err))
	var tmr *TooManyResultsError
	require.True(errors.As(err, &tmr))
	require.EqualValues(101, tmr.Total)
	require.EqualValues(searchLimit, tmr.Limit)
}

func TestDecryptTxError(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	addr := env.deployCounter(t, 0)

	_, err := env.signing.Execute(ctx, addr, map[string]interface{}{"explode": struct{}{}}, "", nil)
	var pte *PostTxError
	require.True(errors.As(err, &pte))

	txs, err := env.client.SearchTx(ctx, &SearchTxQuery{ID: pte.Response.TxHash}, nil)
	require.NoError(err)
	require.Len(txs, 1)

	nonce, err := CallNonce(&txs[0].Tx)
	require.NoError(err)
	require.True(nonce.Equal(pte.Nonce()), "nonce should be recovered from the stored call")

	log, err := env.client.DecryptTxError(ctx, &txs[0])
	require.NoError(err)
	require.JSONEq(`{"generic_err":{"msg":"unknown handle message"}}`, log)

	// Bank transfers carry no encrypted call.
	nonce, err = CallNonce(&types.StdTx{})
	require.NoError(err)
	require.True(nonce.IsZero())
}
