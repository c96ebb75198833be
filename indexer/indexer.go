// Package indexer defines the chain-index collaborator the core consumes
// for height, UTXO, and broadcast lookups, plus two concrete
// implementations: an Esplora-style REST client for production use and a
// deterministic in-memory double for tests.
package indexer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/heirvault/core/heirlog"
)

var log = heirlog.Sub("IDX")

// UTXO is the indexer's opaque view of a spendable output.
type UTXO struct {
	Txid             string
	Vout             uint32
	ValueSats        int64
	ScriptPubkeyHex  string
	ConfirmationHeight uint32 // 0 means unconfirmed
}

// Client is the capability set the core depends on. Every facade call that
// touches the indexer is handed one freshly, scoped to that call.
type Client interface {
	Height(ctx context.Context) (uint32, error)
	ListUTXOs(ctx context.Context, address string) ([]UTXO, error)
	Broadcast(ctx context.Context, txHex string) (txid string, err error)
}

var (
	tlsOnce       sync.Once
	sharedTLSConf *tls.Config
)

// installTLSProvider idempotently installs the process-wide TLS
// configuration every HTTPClient shares. Double-install is silently
// tolerated; nothing outside this package ever observes the config.
func installTLSProvider() {
	tlsOnce.Do(func() {
		sharedTLSConf = &tls.Config{MinVersion: tls.VersionTLS12}
	})
}

// HTTPClient is the production Client, talking to an Esplora-style REST
// indexer the same way the reference tool's explorer API helper does.
type HTTPClient struct {
	BaseURL string
	http    *http.Client
}

// NewHTTPClient builds a Client bound to baseURL, e.g.
// "https://blockstream.info/testnet/api".
func NewHTTPClient(baseURL string) *HTTPClient {
	installTLSProvider()

	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: &http.Transport{TLSClientConfig: sharedTLSConf},
		},
	}
}

func (c *HTTPClient) Height(ctx context.Context) (uint32, error) {
	var height uint32
	if err := c.fetchJSON(ctx, "/blocks/tip/height", &height); err != nil {
		return 0, fmt.Errorf("error fetching tip height: %w", err)
	}
	return height, nil
}

type esploraVout struct {
	ScriptPubkey string `json:"scriptpubkey"`
	Value        int64  `json:"value"`
}

type esploraStatus struct {
	Confirmed   bool `json:"confirmed"`
	BlockHeight uint32 `json:"block_height"`
}

type esploraUTXO struct {
	Txid   string        `json:"txid"`
	Vout   uint32        `json:"vout"`
	Status esploraStatus `json:"status"`
	Value  int64         `json:"value"`
}

func (c *HTTPClient) ListUTXOs(ctx context.Context, address string) ([]UTXO, error) {
	var raw []esploraUTXO
	path := fmt.Sprintf("/address/%s/utxo", address)
	if err := c.fetchJSON(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("error fetching utxos: %w", err)
	}

	var txRaw struct {
		Vout []esploraVout `json:"vout"`
	}

	out := make([]UTXO, 0, len(raw))
	for _, u := range raw {
		if err := c.fetchJSON(ctx, "/tx/"+u.Txid, &txRaw); err != nil {
			return nil, fmt.Errorf("error fetching prevout script: %w", err)
		}
		if int(u.Vout) >= len(txRaw.Vout) {
			return nil, fmt.Errorf("indexer returned inconsistent utxo/tx data")
		}

		confHeight := uint32(0)
		if u.Status.Confirmed {
			confHeight = u.Status.BlockHeight
		}

		out = append(out, UTXO{
			Txid:               u.Txid,
			Vout:               u.Vout,
			ValueSats:          u.Value,
			ScriptPubkeyHex:    txRaw.Vout[u.Vout].ScriptPubkey,
			ConfirmationHeight: confHeight,
		})
	}

	return out, nil
}

func (c *HTTPClient) Broadcast(ctx context.Context, txHex string) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.BaseURL+"/tx",
		strings.NewReader(txHex),
	)
	if err != nil {
		return "", fmt.Errorf("error building broadcast request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("error broadcasting transaction: %w", err)
	}
	defer resp.Body.Close()

	body := new(bytes.Buffer)
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return "", fmt.Errorf("error reading broadcast response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("broadcast rejected: %s", body.String())
	}

	txid := strings.TrimSpace(body.String())
	log.Debugf("broadcast transaction %s", txid)

	return txid, nil
}

func (c *HTTPClient) fetchJSON(ctx context.Context, path string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body := new(bytes.Buffer)
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return err
	}

	return json.Unmarshal(body.Bytes(), target)
}

// Mock is a deterministic in-memory Client for tests. Pre-seed it with
// TipHeight and UTXOsByAddress before use; Broadcast records every
// transaction it's handed and echoes a deterministic txid: the double
// SHA-256 of the decoded payload bytes, not a real txid derivation.
type Mock struct {
	TipHeight      uint32
	UTXOsByAddress map[string][]UTXO
	BroadcastErr   error

	mu          sync.Mutex
	Broadcasts  []string
}

func (m *Mock) Height(ctx context.Context) (uint32, error) {
	return m.TipHeight, nil
}

func (m *Mock) ListUTXOs(ctx context.Context, address string) ([]UTXO, error) {
	return m.UTXOsByAddress[address], nil
}

func (m *Mock) Broadcast(ctx context.Context, txHex string) (string, error) {
	if m.BroadcastErr != nil {
		return "", m.BroadcastErr
	}

	m.mu.Lock()
	m.Broadcasts = append(m.Broadcasts, txHex)
	m.mu.Unlock()

	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return "", fmt.Errorf("mock broadcast: invalid hex: %w", err)
	}

	sum := chainhash.DoubleHashH(raw)
	return sum.String(), nil
}
