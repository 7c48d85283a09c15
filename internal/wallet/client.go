// Package wallet is a JSON-RPC client for the subset of the wallet RPC the
// ledger reader needs.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/fundwatch/internal/common"
	"github.com/dmitrijs2005/fundwatch/internal/ledger"
	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"github.com/dmitrijs2005/fundwatch/internal/netx"
	"github.com/hashicorp/go-retryablehttp"
)

type Client struct {
	endpoint string
	http     *retryablehttp.Client
	logger   logging.Logger
}

// NewClient returns a client posting to <baseURL>/json_rpc.
func NewClient(baseURL string, http *retryablehttp.Client, logger logging.Logger) *Client {
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/json_rpc",
		http:     http,
		logger:   logger,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: "0", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", method, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrLedgerUnavailable, method, err)
	}
	data, err := netx.ReadBody(resp)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrLedgerUnavailable, method, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug(ctx, "wallet request failed", "method", method, "status", resp.Status, "body", string(data))
		return fmt.Errorf("%w: %s: status %s", common.ErrLedgerUnavailable, method, resp.Status)
	}

	var rpc rpcResponse
	if err := json.Unmarshal(data, &rpc); err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrMalformedResponse, method, err)
	}
	if rpc.Error != nil {
		return fmt.Errorf("%w: %s: rpc error %d: %s", common.ErrLedgerUnavailable, method, rpc.Error.Code, rpc.Error.Message)
	}
	if len(rpc.Result) == 0 || string(rpc.Result) == "null" {
		return fmt.Errorf("%w: %s: empty result", common.ErrMalformedResponse, method)
	}
	if err := json.Unmarshal(rpc.Result, result); err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrMalformedResponse, method, err)
	}
	return nil
}

type incomingParams struct {
	TransferType   string   `json:"transfer_type"`
	AccountIndex   uint32   `json:"account_index"`
	SubaddrIndices []uint32 `json:"subaddr_indices"`
}

type incomingTransfer struct {
	Amount      uint64 `json:"amount"`
	BlockHeight uint64 `json:"block_height"`
	GlobalIndex uint64 `json:"global_index"`
	PubKey      string `json:"pubkey"`
	Spent       bool   `json:"spent"`
	TxHash      string `json:"tx_hash"`
	Unlocked    bool   `json:"unlocked"`
}

// IncomingTransfers lists every confirmed output received on the
// (major, minor) subaddress.
func (c *Client) IncomingTransfers(ctx context.Context, major, minor uint32) ([]ledger.Output, error) {
	var res struct {
		Transfers []incomingTransfer `json:"transfers"`
	}
	params := incomingParams{TransferType: "all", AccountIndex: major, SubaddrIndices: []uint32{minor}}
	if err := c.call(ctx, "incoming_transfers", params, &res); err != nil {
		return nil, err
	}

	out := make([]ledger.Output, 0, len(res.Transfers))
	for _, t := range res.Transfers {
		if t.PubKey == "" || t.TxHash == "" {
			return nil, fmt.Errorf("%w: incoming transfer without pubkey or tx hash", common.ErrMalformedResponse)
		}
		out = append(out, ledger.Output{
			PublicKey:   t.PubKey,
			TxID:        t.TxHash,
			GlobalIndex: t.GlobalIndex,
			Height:      t.BlockHeight,
			Amount:      t.Amount,
			Spent:       t.Spent,
			Unlocked:    t.Unlocked,
		})
	}
	return out, nil
}

type poolParams struct {
	Pool           bool     `json:"pool"`
	AccountIndex   uint32   `json:"account_index"`
	SubaddrIndices []uint32 `json:"subaddr_indices"`
}

type destination struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

type poolTransfer struct {
	TxID            string        `json:"txid"`
	Address         string        `json:"address"`
	Amount          uint64        `json:"amount"`
	Amounts         []uint64      `json:"amounts"`
	Destinations    []destination `json:"destinations"`
	Timestamp       int64         `json:"timestamp"`
	DoubleSpendSeen bool          `json:"double_spend_seen"`
}

// PoolTransfers lists unconfirmed transactions touching the (major, minor)
// subaddress.
func (c *Client) PoolTransfers(ctx context.Context, major, minor uint32) ([]ledger.PoolEntry, error) {
	var res struct {
		Pool []poolTransfer `json:"pool"`
	}
	params := poolParams{Pool: true, AccountIndex: major, SubaddrIndices: []uint32{minor}}
	if err := c.call(ctx, "get_transfers", params, &res); err != nil {
		return nil, err
	}

	out := make([]ledger.PoolEntry, 0, len(res.Pool))
	for _, p := range res.Pool {
		if p.TxID == "" {
			return nil, fmt.Errorf("%w: pool transfer without txid", common.ErrMalformedResponse)
		}
		e := ledger.PoolEntry{
			TxID:            p.TxID,
			Address:         p.Address,
			Amount:          p.Amount,
			Amounts:         p.Amounts,
			Timestamp:       time.Unix(p.Timestamp, 0).UTC(),
			DoubleSpendSeen: p.DoubleSpendSeen,
		}
		for _, d := range p.Destinations {
			e.Destinations = append(e.Destinations, ledger.Destination{Address: d.Address, Amount: d.Amount})
		}
		out = append(out, e)
	}
	return out, nil
}
