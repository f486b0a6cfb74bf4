package client

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/scrtlabs/secret-sdk-go/types"
)

// CodeHashSource looks up code hashes on chain.
type CodeHashSource interface {
	// CodeHashByCodeID returns the hash of the code with the given identifier.
	CodeHashByCodeID(ctx context.Context, codeID uint64) (types.CodeHash, error)
	// CodeHashByContractAddr returns the hash of the code of the contract at the given
	// address.
	CodeHashByContractAddr(ctx context.Context, address types.Address) (types.CodeHash, error)
}

// CodeHashCache caches code hashes by code identifier and by contract address.
//
// Code hashes are immutable, so entries are never evicted or replaced. Concurrent lookups of a
// missing key share a single fetch. Failed lookups are not cached and not retried.
type CodeHashCache struct {
	source CodeHashSource

	byCodeID   sync.Map // uint64 -> types.CodeHash
	byContract sync.Map // types.Address -> types.CodeHash
	group      singleflight.Group
}

// NewCodeHashCache creates a new cache backed by the given source.
func NewCodeHashCache(source CodeHashSource) *CodeHashCache {
	return &CodeHashCache{source: source}
}

// Get returns the hash of the code with the given identifier.
func (c *CodeHashCache) Get(ctx context.Context, codeID uint64) (types.CodeHash, error) {
	if h, ok := c.byCodeID.Load(codeID); ok {
		codeHashCache.WithLabelValues("hit").Inc()
		return h.(types.CodeHash), nil
	}
	codeHashCache.WithLabelValues("miss").Inc()

	return c.fetch(ctx, "code:"+strconv.FormatUint(codeID, 10), &c.byCodeID, codeID, func(ctx context.Context) (types.CodeHash, error) {
		logger.Debug("fetching code hash", "code_id", codeID)
		return c.source.CodeHashByCodeID(ctx, codeID)
	})
}

// GetByContract returns the hash of the code of the contract at the given address.
func (c *CodeHashCache) GetByContract(ctx context.Context, address types.Address) (types.CodeHash, error) {
	if h, ok := c.byContract.Load(address); ok {
		codeHashCache.WithLabelValues("hit").Inc()
		return h.(types.CodeHash), nil
	}
	codeHashCache.WithLabelValues("miss").Inc()

	return c.fetch(ctx, "contract:"+address.String(), &c.byContract, address, func(ctx context.Context) (types.CodeHash, error) {
		logger.Debug("fetching code hash", "contract", address)
		return c.source.CodeHashByContractAddr(ctx, address)
	})
}

// Put records a known code hash for a code identifier. An existing entry is kept.
func (c *CodeHashCache) Put(codeID uint64, h types.CodeHash) {
	c.byCodeID.LoadOrStore(codeID, h)
}

// PutContract records a known code hash for a contract address. An existing entry is kept.
func (c *CodeHashCache) PutContract(address types.Address, h types.CodeHash) {
	c.byContract.LoadOrStore(address, h)
}

// fetch runs a lookup shared by all concurrent callers of the same key. The shared lookup is
// not bound to the cancellation of any single caller; each caller stops waiting when its own
// context is done.
func (c *CodeHashCache) fetch(ctx context.Context, key string, m *sync.Map, mapKey interface{}, lookup func(context.Context) (types.CodeHash, error)) (types.CodeHash, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if h, ok := m.Load(mapKey); ok {
			return h, nil
		}
		h, err := lookup(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		actual, _ := m.LoadOrStore(mapKey, h)
		return actual, nil
	})

	select {
	case <-ctx.Done():
		return types.CodeHash{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return types.CodeHash{}, res.Err
		}
		return res.Val.(types.CodeHash), nil
	}
}
