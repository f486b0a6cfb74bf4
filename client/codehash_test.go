package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scrtlabs/secret-sdk-go/types"
)

type countingSource struct {
	calls atomic.Int32
	fail  atomic.Bool
	delay time.Duration
}

func (s *countingSource) CodeHashByCodeID(_ context.Context, codeID uint64) (types.CodeHash, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	if s.fail.Load() {
		return types.CodeHash{}, fmt.Errorf("code %d not found", codeID)
	}
	return types.NewCodeHash([]byte(fmt.Sprintf("code %d", codeID))), nil
}

func (s *countingSource) CodeHashByContractAddr(_ context.Context, address types.Address) (types.CodeHash, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	if s.fail.Load() {
		return types.CodeHash{}, &RestError{Status: 404, Message: "not found"}
	}
	return types.NewCodeHash(address[:]), nil
}

func TestCodeHashCacheConcurrentMiss(t *testing.T) {
	require := require.New(t)

	src := &countingSource{delay: 20 * time.Millisecond}
	cache := NewCodeHashCache(src)
	expected := types.NewCodeHash([]byte("code 7"))

	var wg sync.WaitGroup
	results := make([]types.CodeHash, 32)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(context.Background(), 7)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(errs[i])
		require.EqualValues(expected, results[i])
	}
	require.EqualValues(1, src.calls.Load(), "concurrent misses should share a single fetch")

	h, err := cache.Get(context.Background(), 7)
	require.NoError(err)
	require.EqualValues(expected, h)
	require.EqualValues(1, src.calls.Load(), "hits should not fetch")
}

type blockingSource struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (s *blockingSource) CodeHashByCodeID(ctx context.Context, codeID uint64) (types.CodeHash, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
	}
	select {
	case <-ctx.Done():
		return types.CodeHash{}, ctx.Err()
	case <-s.release:
	}
	return types.NewCodeHash([]byte(fmt.Sprintf("code %d", codeID))), nil
}

func (s *blockingSource) CodeHashByContractAddr(ctx context.Context, address types.Address) (types.CodeHash, error) {
	return types.CodeHash{}, fmt.Errorf("not implemented")
}

func TestCodeHashCacheCallerCancellation(t *testing.T) {
	require := require.New(t)

	src := &blockingSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	cache := NewCodeHashCache(src)

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()

	err1 := make(chan error, 1)
	go func() {
		_, err := cache.Get(ctx1, 1)
		err1 <- err
	}()
	<-src.started

	type result struct {
		h   types.CodeHash
		err error
	}
	res2 := make(chan result, 1)
	go func() {
		h, err := cache.Get(context.Background(), 1)
		res2 <- result{h, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel1()
	select {
	case err := <-err1:
		require.ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		require.FailNow("cancelled caller should stop waiting")
	}

	close(src.release)
	select {
	case r := <-res2:
		require.NoError(r.err, "another caller's cancellation should not fail a live caller")
		require.EqualValues(types.NewCodeHash([]byte("code 1")), r.h)
	case <-time.After(5 * time.Second):
		require.FailNow("live caller should receive the shared result")
	}
	require.EqualValues(1, src.calls.Load())

	h, err := cache.Get(context.Background(), 1)
	require.NoError(err)
	require.EqualValues(types.NewCodeHash([]byte("code 1")), h)
	require.EqualValues(1, src.calls.Load())
}

func TestCodeHashCacheFailuresNotCached(t *testing.T) {
	require := require.New(t)

	src := &countingSource{}
	src.fail.Store(true)
	cache := NewCodeHashCache(src)

	var addr types.Address
	addr[0] = 0x42

	_, err := cache.Get(context.Background(), 1)
	require.Error(err)
	_, err = cache.GetByContract(context.Background(), addr)
	require.Error(err)
	require.EqualValues(2, src.calls.Load())

	src.fail.Store(false)
	h, err := cache.Get(context.Background(), 1)
	require.NoError(err)
	require.EqualValues(types.NewCodeHash([]byte("code 1")), h)
	h, err = cache.GetByContract(context.Background(), addr)
	require.NoError(err)
	require.EqualValues(types.NewCodeHash(addr[:]), h)
	require.EqualValues(4, src.calls.Load(), "failed lookups should be fetched again")
}

func TestCodeHashCachePut(t *testing.T) {
	require := require.New(t)

	src := &countingSource{}
	cache := NewCodeHashCache(src)

	first := types.NewCodeHash([]byte("first"))
	second := types.NewCodeHash([]byte("second"))

	cache.Put(3, first)
	cache.Put(3, second)
	h, err := cache.Get(context.Background(), 3)
	require.NoError(err)
	require.EqualValues(first, h, "existing entries should never be replaced")

	var addr types.Address
	cache.PutContract(addr, first)
	cache.PutContract(addr, second)
	h, err = cache.GetByContract(context.Background(), addr)
	require.NoError(err)
	require.EqualValues(first, h)

	require.EqualValues(0, src.calls.Load())
}
