package client

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/scrtlabs/secret-sdk-go/types"
)

// searchLimit is the page size requested from the node. Searches matching more transactions
// fail with a TooManyResultsError.
const searchLimit = 100

// SearchTag is an arbitrary key/value pair passed to the node's search endpoint.
type SearchTag struct {
	Key   string
	Value string
}

// SearchTxQuery selects transactions. Exactly one of the fields is used, in order of
// precedence: ID, Height, SentFromOrTo, Tags.
type SearchTxQuery struct {
	// ID is the hash of the transaction.
	ID string
	// Height is the height of the block containing the transactions.
	Height int64
	// SentFromOrTo selects bank transfers from or to the address.
	SentFromOrTo *types.Address
	// Tags are passed to the node as is.
	Tags []SearchTag
}

// SearchTxFilter restricts search results to an inclusive height range. Zero bounds are open.
type SearchTxFilter struct {
	MinHeight int64
	MaxHeight int64
}

func (f *SearchTxFilter) matches(tx *types.IndexedTx) bool {
	if f == nil {
		return true
	}
	if f.MinHeight > 0 && tx.Height < f.MinHeight {
		return false
	}
	if f.MaxHeight > 0 && tx.Height > f.MaxHeight {
		return false
	}
	return true
}

// Implements CosmWasmClient.
func (c *Client) SearchTx(ctx context.Context, query *SearchTxQuery, filter *SearchTxFilter) ([]types.IndexedTx, error) {
	if query == nil {
		return nil, &UnknownQueryTypeError{}
	}

	var (
		txs []types.IndexedTx
		err error
	)
	switch {
	case query.ID != "":
		txs, err = c.txsQuery(ctx, url.Values{"tx.hash": {query.ID}})
	case query.Height > 0:
		txs, err = c.txsQuery(ctx, url.Values{"tx.height": {strconv.FormatInt(query.Height, 10)}})
	case query.SentFromOrTo != nil:
		addr := query.SentFromOrTo.String()
		var sent, received []types.IndexedTx
		if sent, err = c.txsQuery(ctx, url.Values{"message.module": {"bank"}, "message.sender": {addr}}); err != nil {
			break
		}
		if received, err = c.txsQuery(ctx, url.Values{"transfer.recipient": {addr}}); err != nil {
			break
		}
		txs = mergeByHash(sent, received)
	case len(query.Tags) > 0:
		params := url.Values{}
		for _, tag := range query.Tags {
			params.Add(tag.Key, tag.Value)
		}
		txs, err = c.txsQuery(ctx, params)
	default:
		return nil, &UnknownQueryTypeError{}
	}
	if err != nil {
		return nil, err
	}

	filtered := txs[:0]
	for i := range txs {
		if filter.matches(&txs[i]) {
			filtered = append(filtered, txs[i])
		}
	}
	return filtered, nil
}

func (c *Client) txsQuery(ctx context.Context, params url.Values) ([]types.IndexedTx, error) {
	params.Set("limit", strconv.Itoa(searchLimit))
	rsp, err := c.transport.SearchTxs(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("client: failed to search transactions: %w", err)
	}

	total, err := parseUint(rsp.TotalCount)
	if err != nil {
		return nil, fmt.Errorf("client: malformed total count: %w", err)
	}
	if total > searchLimit {
		return nil, &TooManyResultsError{Total: total, Limit: searchLimit}
	}

	txs := make([]types.IndexedTx, 0, len(rsp.Txs))
	for i := range rsp.Txs {
		tx, err := parseIndexedTx(&rsp.Txs[i])
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, nil
}

func parseIndexedTx(tr *TxResponse) (*types.IndexedTx, error) {
	height, err := strconv.ParseInt(tr.Height, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("client: malformed height of transaction %s: %w", tr.TxHash, err)
	}
	if !txHashPattern.MatchString(tr.TxHash) {
		return nil, &IllFormattedTxHashError{TxHash: tr.TxHash}
	}
	return &types.IndexedTx{
		Height:    height,
		Hash:      tr.TxHash,
		Code:      tr.Code,
		RawLog:    tr.RawLog,
		Logs:      tr.Logs,
		Tx:        tr.Tx.Value,
		Timestamp: tr.Timestamp,
	}, nil
}

// mergeByHash merges transaction lists dropping duplicates, ordered by height.
func mergeByHash(lists ...[]types.IndexedTx) []types.IndexedTx {
	seen := make(map[string]struct{})
	var merged []types.IndexedTx
	for _, list := range lists {
		for _, tx := range list {
			if _, ok := seen[tx.Hash]; ok {
				continue
			}
			seen[tx.Hash] = struct{}{}
			merged = append(merged, tx)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Height < merged[j].Height
	})
	return merged
}
