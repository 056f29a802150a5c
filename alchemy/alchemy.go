// Copyright 2026 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package alchemy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the default base URL of the server. It may be overwritten in tests
// before creating a new client.
var URL = "https://eth-mainnet.g.alchemy.com/v2"

// Endpoint names, relative to the client's base URL.
const (
	CollectionEndpoint = "getNFTsForCollection"
	ContractEndpoint   = "getContractMetadata"
)

// Client for querying the NFT API.
type Client struct {
	baseURL   string // the base URL of the server including the key, ends in '/'
	apiKey    string
	transport *Transport
}

// NewClient creates a new client for the API key. The BaseURL option is
// ignored and derived from URL instead.
func NewClient(apiKey string, opts TransportOptions) (*Client, error) {
	if apiKey == "" {
		return nil, errors.Reason("API key is required")
	}
	opts.BaseURL = strings.TrimSuffix(URL, "/") + "/" + url.PathEscape(apiKey) + "/"
	t, err := NewTransport(opts)
	if err != nil {
		return nil, errors.Annotate(err, "failed to create transport")
	}
	return &Client{baseURL: opts.BaseURL, apiKey: apiKey, transport: t}, nil
}

// keyRedactedError hides the API key in the message of the wrapped error.
type keyRedactedError struct {
	err error
	key string
}

var _ error = &keyRedactedError{}

func (e *keyRedactedError) Error() string {
	msg := e.err.Error()
	msg = strings.ReplaceAll(msg, url.PathEscape(e.key), "<api-key>")
	return strings.ReplaceAll(msg, e.key, "<api-key>")
}

func (e *keyRedactedError) Unwrap() error {
	return e.err
}

// redact the API key in errors of requests made outside of the client's
// transport.
func (c *Client) redact(err error) error {
	if err == nil {
		return nil
	}
	return &keyRedactedError{err: err, key: c.apiKey}
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// UseClient creates a new client based on the API key and injects it into the
// context.
func UseClient(ctx context.Context, apiKey string, opts TransportOptions) (context.Context, error) {
	c, err := NewClient(apiKey, opts)
	if err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, clientContextKey, c), nil
}

// NFTIterator iterates over the NFTs of a collection one by one. Paging is
// handled transparently.
type NFTIterator struct {
	context   context.Context
	query     *NFTQuery
	page      collectionPage
	index     int  // the NFT for Next() to return
	pageCount int  // number of pages fetched so far
	started   bool // if at least one page was requested
	truncated bool // stopped by the page limit with more pages available
}

func newNFTIterator(ctx context.Context, query *NFTQuery) *NFTIterator {
	return &NFTIterator{context: ctx, query: query}
}

// nextPage fetches and populates the iterator with the next page of data. When
// there are no more pages to load, or loading a page results in an error, the
// first return value becomes false.
func (it *NFTIterator) nextPage() (bool, error) {
	if it.started && it.page.NextToken == "" {
		return false, nil
	}
	if it.started {
		if it.query.maxPages > 0 && it.pageCount >= it.query.maxPages {
			it.truncated = true
			logging.Warningf(it.context,
				"NFT API: stopping at the page limit %d; next token: %s",
				it.query.maxPages, it.page.NextToken)
			return false, nil
		}
		it.query = it.query.StartToken(it.page.NextToken)
	}
	it.started = true
	// Clear the page, in case read doesn't overwrite some parts.
	it.page = collectionPage{}
	if err := it.query.readPage(it.context, &it.page); err != nil {
		return false, errors.Annotate(err, "failed to query page %d", it.pageCount+1)
	}
	it.index = 0
	it.pageCount++
	logging.Debugf(it.context, "NFT API: fetched page %d with %d NFTs; next token: %s",
		it.pageCount, len(it.page.NFTs), it.page.NextToken)
	return true, nil
}

// Next loads the next NFT. If there are no more NFTs, the first value is false.
// Empty pages with a next token are skipped.
func (it *NFTIterator) Next(nft *NFT) (bool, error) {
	if it.query == nil {
		return false, nil
	}
	for !it.started || it.index >= len(it.page.NFTs) {
		if ok, err := it.nextPage(); !ok {
			return false, err
		}
	}
	*nft = it.page.NFTs[it.index]
	it.index++
	return true, nil
}

// PageDone is true when the last NFT returned by Next was the last one in its
// page.
func (it *NFTIterator) PageDone() bool {
	return it.started && it.index >= len(it.page.NFTs)
}

// Pages is the number of pages fetched so far.
func (it *NFTIterator) Pages() int {
	return it.pageCount
}

// Truncated is true if the iterator stopped at the page limit while the server
// still had more pages.
func (it *NFTIterator) Truncated() bool {
	return it.truncated
}

// NFTQuery is a builder for a collection query. Builder methods return a copy,
// leaving the original intact.
type NFTQuery struct {
	contract     string
	withMetadata bool
	startToken   string
	limit        int // 0 = server default
	maxPages     int // 0 = unlimited; used by the iterator
}

// NewNFTQuery creates a new query for all NFTs of the contract, with metadata.
func NewNFTQuery(contract string) *NFTQuery {
	return &NFTQuery{contract: contract, withMetadata: true}
}

// Copy creates a copy of the query.
func (q *NFTQuery) Copy() *NFTQuery {
	q2 := *q
	return &q2
}

// WithMetadata sets whether to include token metadata in the response.
func (q *NFTQuery) WithMetadata(v bool) *NFTQuery {
	q2 := q.Copy()
	q2.withMetadata = v
	return q2
}

// StartToken sets the continuation token for a paging query.
func (q *NFTQuery) StartToken(token string) *NFTQuery {
	q2 := q.Copy()
	q2.startToken = token
	return q2
}

// Limit sets the number of NFTs per page, [0..100], 0 being the server
// default.
func (q *NFTQuery) Limit(n int) *NFTQuery {
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	q2 := q.Copy()
	q2.limit = n
	return q2
}

// MaxPages limits the number of pages the iterator fetches; 0 = unlimited.
func (q *NFTQuery) MaxPages(n int) *NFTQuery {
	if n < 0 {
		n = 0
	}
	q2 := q.Copy()
	q2.maxPages = n
	return q2
}

// Values returns the query values for the query. Each call creates a new
// object, so the caller is free to modify it without affecting the query.
func (q *NFTQuery) Values() url.Values {
	v := make(url.Values)
	v.Set("contractAddress", q.contract)
	v.Set("withMetadata", fmt.Sprintf("%t", q.withMetadata))
	if q.startToken != "" {
		v.Set("startToken", q.startToken)
	}
	if q.limit != 0 {
		v.Set("limit", fmt.Sprintf("%d", q.limit))
	}
	return v
}

// collectionPage is the format of a single page of the collection listing.
type collectionPage struct {
	NFTs      []NFT  `json:"nfts"`
	NextToken string `json:"nextToken,omitempty"`
}

// TestCollectionPage generates the JSON string in a format as returned by the
// collection listing API. For use in tests.
func TestCollectionPage(nfts []NFT, nextToken string) (string, error) {
	if nfts == nil {
		nfts = []NFT{}
	}
	bytes, err := json.Marshal(&collectionPage{NFTs: nfts, NextToken: nextToken})
	return string(bytes), err
}

// readPage executes the query using the Client from the context and downloads
// one page of data.
func (q *NFTQuery) readPage(ctx context.Context, page *collectionPage) error {
	client := GetClient(ctx)
	if client == nil {
		return errors.Reason("NFTQuery.Read: no client in context")
	}
	if err := client.transport.GetJSON(ctx, CollectionEndpoint, q.Values(), page); err != nil {
		return errors.Annotate(err, "NFTQuery.Read: failed to fetch %s", CollectionEndpoint)
	}
	return nil
}

// Read sets up the iterator over the NFTs, which will execute the query as
// needed and handle paging transparently.
func (q *NFTQuery) Read(ctx context.Context) *NFTIterator {
	return newNFTIterator(ctx, q)
}

// OpenSeaMetadata is a part of ContractMetadata.
type OpenSeaMetadata struct {
	CollectionName string  `json:"collectionName"`
	FloorPrice     float64 `json:"floorPrice"`
}

// ContractMetadata is the JSON struct for the contract metadata.
type ContractMetadata struct {
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	TotalSupply string          `json:"totalSupply"`
	TokenType   string          `json:"tokenType"`
	OpenSea     OpenSeaMetadata `json:"openSea"`
}

// ContractInfo is the format returned by the contract metadata API.
type ContractInfo struct {
	Address  string           `json:"address"`
	Metadata ContractMetadata `json:"contractMetadata"`
}

// FetchContractMetadata obtains the name, symbol and total supply of the NFT
// contract.
func FetchContractMetadata(ctx context.Context, contract string) (*ContractInfo, error) {
	var info ContractInfo
	client := GetClient(ctx)
	if client == nil {
		return nil, errors.Reason("no client in context")
	}
	uri := client.baseURL + ContractEndpoint
	query := make(url.Values)
	query.Set("contractAddress", contract)
	if err := fetch.FetchJSON(ctx, uri, &info, query, nil); err != nil {
		return nil, errors.Annotate(client.redact(err), "failed to fetch %s", ContractEndpoint)
	}
	return &info, nil
}
