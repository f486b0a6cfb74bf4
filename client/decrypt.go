package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scrtlabs/secret-sdk-go/crypto/enigma"
	"github.com/scrtlabs/secret-sdk-go/types"
)

// CallNonce returns the nonce of the first encrypted contract call carried by the transaction.
// The zero nonce is returned for transactions without encrypted calls.
func CallNonce(tx *types.StdTx) (types.Nonce, error) {
	for _, msg := range tx.Msg {
		var ciphertext []byte
		switch msg.Type {
		case types.MsgTypeInstantiateContract:
			var body types.MsgInstantiateContract
			if err := json.Unmarshal(msg.Value, &body); err != nil {
				return types.Nonce{}, fmt.Errorf("client: malformed %s: %w", msg.Type, err)
			}
			ciphertext = body.InitMsg
		case types.MsgTypeExecuteContract:
			var body types.MsgExecuteContract
			if err := json.Unmarshal(msg.Value, &body); err != nil {
				return types.Nonce{}, fmt.Errorf("client: malformed %s: %w", msg.Type, err)
			}
			ciphertext = body.Msg
		default:
			continue
		}

		nonce, _, err := enigma.ParseHeader(ciphertext)
		if err != nil {
			return types.Nonce{}, fmt.Errorf("client: %w", err)
		}
		return nonce, nil
	}
	return types.Nonce{}, nil
}

// DecryptTxError decrypts the diagnostic of a failed transaction found through SearchTx. The
// nonce is recovered from the encrypted call the transaction carries, so this only succeeds
// for calls encrypted with this client's key.
func (c *Client) DecryptTxError(ctx context.Context, tx *types.IndexedTx) (string, error) {
	nonce, err := CallNonce(&tx.Tx)
	if err != nil {
		return "", err
	}

	rsp := &types.BroadcastResult{
		Height: tx.Height,
		TxHash: tx.Hash,
		Code:   tx.Code,
		RawLog: tx.RawLog,
	}
	return newPostTxError(&tx.Tx, rsp, nonce, c.cipher).Decrypt(ctx)
}
