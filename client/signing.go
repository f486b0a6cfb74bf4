package client

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/scrtlabs/secret-sdk-go/callformat"
	"github.com/scrtlabs/secret-sdk-go/crypto/signature"
	"github.com/scrtlabs/secret-sdk-go/crypto/signature/secp256k1"
	"github.com/scrtlabs/secret-sdk-go/types"
)

var gzipMagic = []byte{0x1f, 0x8b}

// FeeTable holds the fees paid for each kind of transaction.
type FeeTable struct {
	Upload types.StdFee
	Init   types.StdFee
	Exec   types.StdFee
	Send   types.StdFee
}

// DefaultFeeTable returns the default fees in the given denomination.
func DefaultFeeTable(denom string) FeeTable {
	fee := func(gas uint64, amount int64) types.StdFee {
		return types.NewStdFee(gas, types.Coin{Denom: denom, Amount: strconv.FormatInt(amount, 10)})
	}
	return FeeTable{
		Upload: fee(1_000_000, 250_000),
		Init:   fee(500_000, 125_000),
		Exec:   fee(200_000, 50_000),
		Send:   fee(80_000, 20_000),
	}
}

// UploadMeta is optional metadata of uploaded code.
type UploadMeta struct {
	// Source is the URL of the source code.
	Source string
	// Builder is the docker image the code was built with.
	Builder string
}

// UploadResult is the result of a code upload.
type UploadResult struct {
	// OriginalSize is the size of the uploaded bytecode in bytes.
	OriginalSize int
	// OriginalChecksum is the hash of the uploaded bytecode, which is also its code hash.
	OriginalChecksum types.CodeHash
	// CompressedSize is the size of the bytecode as sent to the chain.
	CompressedSize int
	// CompressedChecksum is the hash of the bytecode as sent to the chain.
	CompressedChecksum types.CodeHash
	CodeID             uint64
	Logs               []types.Log
	TransactionHash    string
}

// InstantiateResult is the result of a contract instantiation.
type InstantiateResult struct {
	ContractAddress types.Address
	Logs            []types.Log
	TransactionHash string
	Data            []byte
}

// ExecuteResult is the result of a contract execution.
type ExecuteResult struct {
	Logs            []types.Log
	TransactionHash string
	Data            []byte
}

// SigningClient is a client which signs and broadcasts transactions on behalf of an account.
type SigningClient struct {
	*Client

	signer signature.Signer
	sender types.Address
	fees   FeeTable
}

// NewSigningClient creates a new signing client for the account of the given signer.
func NewSigningClient(c *Client, signer signature.Signer, fees FeeTable) (*SigningClient, error) {
	pk, ok := signer.Public().(secp256k1.PublicKey)
	if !ok {
		return nil, fmt.Errorf("client: unsupported signer public key type %T", signer.Public())
	}
	return &SigningClient{
		Client: c,
		signer: signer,
		sender: types.NewAddress(pk),
		fees:   fees,
	}, nil
}

// SenderAddress returns the address of the signing account.
func (sc *SigningClient) SenderAddress() types.Address {
	return sc.sender
}

// Fees returns the fee table.
func (sc *SigningClient) Fees() FeeTable {
	return sc.fees
}

// SignAndPost signs a transaction carrying the given messages and broadcasts it. The nonce is
// that of the encrypted call carried by the messages, if any.
func (sc *SigningClient) SignAndPost(ctx context.Context, msgs []types.Msg, fee types.StdFee, memo string, nonce types.Nonce) (*PostTxResult, error) {
	tx, err := sc.Sign(ctx, msgs, fee, memo)
	if err != nil {
		return nil, err
	}
	return sc.PostTx(ctx, tx, nonce)
}

// Sign signs a transaction carrying the given messages with the next sequence of the account.
func (sc *SigningClient) Sign(ctx context.Context, msgs []types.Msg, fee types.StdFee, memo string) (*types.StdTx, error) {
	chainID, err := sc.GetChainID(ctx)
	if err != nil {
		return nil, err
	}
	seq, err := sc.GetSequence(ctx, sc.sender)
	if err != nil {
		return nil, err
	}

	doc := types.NewStdSignDoc(chainID, seq.AccountNumber, seq.Sequence, fee, memo, msgs...)
	signBytes, err := doc.SignBytes()
	if err != nil {
		return nil, fmt.Errorf("client: failed to encode sign document: %w", err)
	}
	sig, err := sc.signer.Sign(signBytes)
	if err != nil {
		return nil, fmt.Errorf("client: failed to sign transaction: %w", err)
	}
	pk, err := sc.signer.Public().(secp256k1.PublicKey).MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("client: failed to encode signer public key: %w", err)
	}

	return &types.StdTx{
		Msg: msgs,
		Fee: fee,
		Signatures: []types.StdSignature{{
			PubKey:    types.PubKey{Type: types.PubKeySecp256k1Type, Value: pk},
			Signature: sig,
		}},
		Memo: memo,
	}, nil
}

// Upload uploads contract bytecode. Bytecode that is not already gzip compressed is
// compressed before sending.
func (sc *SigningClient) Upload(ctx context.Context, wasm []byte, meta *UploadMeta, memo string) (*UploadResult, error) {
	compressed := wasm
	if !bytes.HasPrefix(wasm, gzipMagic) {
		var err error
		if compressed, err = compress(wasm); err != nil {
			return nil, err
		}
	}

	body := types.MsgStoreCode{
		Sender:       sc.sender,
		WASMByteCode: compressed,
	}
	if meta != nil {
		body.Source = meta.Source
		body.Builder = meta.Builder
	}
	msg, err := types.NewMsg(types.MsgTypeStoreCode, &body)
	if err != nil {
		return nil, err
	}

	result, err := sc.SignAndPost(ctx, []types.Msg{msg}, sc.fees.Upload, memo, types.Nonce{})
	if err != nil {
		return nil, err
	}

	codeID, err := findUintAttribute(result.Logs, "message", "code_id")
	if err != nil {
		return nil, err
	}
	checksum := types.NewCodeHash(wasm)
	sc.codeHashes.Put(codeID, checksum)

	logger.Info("uploaded code",
		"code_id", codeID,
		"code_hash", checksum,
		"tx_hash", result.TransactionHash,
	)

	return &UploadResult{
		OriginalSize:       len(wasm),
		OriginalChecksum:   checksum,
		CompressedSize:     len(compressed),
		CompressedChecksum: types.NewCodeHash(compressed),
		CodeID:             codeID,
		Logs:               result.Logs,
		TransactionHash:    result.TransactionHash,
	}, nil
}

// Instantiate creates a new instance of the code with the given identifier. The init message
// is encrypted for the code.
func (sc *SigningClient) Instantiate(ctx context.Context, codeID uint64, initMsg interface{}, label, memo string, funds types.Coins) (*InstantiateResult, error) {
	codeHash, err := sc.GetCodeHashByCodeID(ctx, codeID)
	if err != nil {
		return nil, err
	}
	payload, err := callformat.EncodeMsg(ctx, sc.cipher, codeHash, initMsg)
	if err != nil {
		return nil, err
	}
	encryptedCalls.WithLabelValues("instantiate").Inc()

	if funds == nil {
		funds = types.Coins{}
	}
	msg, err := types.NewMsg(types.MsgTypeInstantiateContract, &types.MsgInstantiateContract{
		Sender:    sc.sender,
		CodeID:    codeID,
		Label:     label,
		InitMsg:   payload.Ciphertext,
		InitFunds: funds,
	})
	if err != nil {
		return nil, err
	}

	result, err := sc.SignAndPost(ctx, []types.Msg{msg}, sc.fees.Init, memo, payload.Nonce)
	if err != nil {
		return nil, err
	}

	ev := types.FindEvent(result.Logs, 0, "message")
	if ev == nil {
		return nil, fmt.Errorf("client: instantiation result is missing the message event")
	}
	raw, ok := ev.FindAttribute("contract_address")
	if !ok {
		return nil, fmt.Errorf("client: instantiation result is missing the contract address")
	}
	addr, err := types.ParseAddress(raw)
	if err != nil {
		return nil, fmt.Errorf("client: malformed contract address: %w", err)
	}
	sc.codeHashes.PutContract(addr, codeHash)

	return &InstantiateResult{
		ContractAddress: addr,
		Logs:            result.Logs,
		TransactionHash: result.TransactionHash,
		Data:            result.Data,
	}, nil
}

// Execute calls into the contract at the given address. The message is encrypted for the
// contract's code.
func (sc *SigningClient) Execute(ctx context.Context, contract types.Address, handleMsg interface{}, memo string, funds types.Coins) (*ExecuteResult, error) {
	codeHash, err := sc.GetCodeHashByContractAddr(ctx, contract)
	if err != nil {
		return nil, err
	}
	payload, err := callformat.EncodeMsg(ctx, sc.cipher, codeHash, handleMsg)
	if err != nil {
		return nil, err
	}
	encryptedCalls.WithLabelValues("execute").Inc()

	if funds == nil {
		funds = types.Coins{}
	}
	msg, err := types.NewMsg(types.MsgTypeExecuteContract, &types.MsgExecuteContract{
		Sender:    sc.sender,
		Contract:  contract,
		Msg:       payload.Ciphertext,
		SentFunds: funds,
	})
	if err != nil {
		return nil, err
	}

	result, err := sc.SignAndPost(ctx, []types.Msg{msg}, sc.fees.Exec, memo, payload.Nonce)
	if err != nil {
		return nil, err
	}
	return &ExecuteResult{
		Logs:            result.Logs,
		TransactionHash: result.TransactionHash,
		Data:            result.Data,
	}, nil
}

// SendTokens transfers tokens to the recipient.
func (sc *SigningClient) SendTokens(ctx context.Context, recipient types.Address, amount types.Coins, memo string) (*PostTxResult, error) {
	msg, err := types.NewMsg(types.MsgTypeSend, &types.MsgSend{
		FromAddress: sc.sender,
		ToAddress:   recipient,
		Amount:      amount,
	})
	if err != nil {
		return nil, err
	}
	return sc.SignAndPost(ctx, []types.Msg{msg}, sc.fees.Send, memo, types.Nonce{})
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("client: failed to create compressor: %w", err)
	}
	if _, err = w.Write(data); err != nil {
		return nil, fmt.Errorf("client: failed to compress bytecode: %w", err)
	}
	if err = w.Close(); err != nil {
		return nil, fmt.Errorf("client: failed to compress bytecode: %w", err)
	}
	return buf.Bytes(), nil
}

func findUintAttribute(logs []types.Log, eventType, key string) (uint64, error) {
	ev := types.FindEvent(logs, 0, eventType)
	if ev == nil {
		return 0, fmt.Errorf("client: result is missing the %s event", eventType)
	}
	raw, ok := ev.FindAttribute(key)
	if !ok {
		return 0, fmt.Errorf("client: result is missing the %s attribute", key)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("client: malformed %s attribute: %w", key, err)
	}
	return v, nil
}
