package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/scrtlabs/secret-sdk-go/config"
	"github.com/scrtlabs/secret-sdk-go/crypto/enigma"
)

// DefaultTimeout is the timeout of requests to the node.
const DefaultTimeout = 30 * time.Second

// Connect creates a client for the given network, encrypting calls with the transaction
// encryption key pair derived from the given seed.
//
// The chain identifier reported by the node is compared with the configured one to reject
// mismatches early.
func Connect(ctx context.Context, net *config.Network, seed []byte) (*Client, error) {
	c, err := ConnectNoVerify(net, seed)
	if err != nil {
		return nil, err
	}

	chainID, err := c.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve remote node's chain id: %w", err)
	}
	if chainID != net.ChainID {
		return nil, fmt.Errorf("remote node's chain id mismatch (expected: %s got: %s)", net.ChainID, chainID)
	}
	return c, nil
}

// ConnectNoVerify creates a client for the given network, omitting the chain id check.
func ConnectNoVerify(net *config.Network, seed []byte) (*Client, error) {
	rest := NewRestClient(net.LCD, &http.Client{Timeout: DefaultTimeout}, BroadcastModeBlock)
	utils, err := enigma.New(rest, seed)
	if err != nil {
		return nil, err
	}
	return New(rest, utils), nil
}
