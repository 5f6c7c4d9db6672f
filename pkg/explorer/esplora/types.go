package esplora

import (
	"encoding/json"
	"fmt"

	"github.com/vaultex-network/vaultex-client/pkg/explorer"
)

// status is the confirmation state esplora attaches to txs and utxos.
type status struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight int    `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	BlockTime   int64  `json:"block_time"`
}

// witnessUtxo is the utxo shape of the /address/:addr/utxo endpoint.
type witnessUtxo struct {
	Txid   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  uint64 `json:"value"`
	Status status `json:"status"`
}

// tx is the implementation of the explorer's Transaction interface
type tx struct {
	TxHash     string `json:"txid"`
	TxVersion  int    `json:"version"`
	TxLocktime int    `json:"locktime"`
	TxSize     int    `json:"size"`
	TxWeight   int    `json:"weight"`
	TxFee      uint64 `json:"fee"`
	TxStatus   status `json:"status"`
}

// NewTxFromJSON is the factory for a Transaction given its JSON format.
func NewTxFromJSON(txJSON string) (explorer.Transaction, error) {
	t := &tx{}
	if err := json.Unmarshal([]byte(txJSON), t); err != nil {
		return nil, fmt.Errorf("invalid tx JSON")
	}
	return t, nil
}

func (t *tx) Hash() string {
	return t.TxHash
}

func (t *tx) Version() int {
	return t.TxVersion
}

func (t *tx) Locktime() int {
	return t.TxLocktime
}

func (t *tx) Size() int {
	return t.TxSize
}

func (t *tx) Weight() int {
	return t.TxWeight
}

func (t *tx) Fee() uint64 {
	return t.TxFee
}

func (t *tx) Confirmed() bool {
	return t.TxStatus.Confirmed
}

func (t *tx) BlockHeight() int {
	if !t.TxStatus.Confirmed {
		return -1
	}
	return t.TxStatus.BlockHeight
}

func (t *tx) BlockTime() int64 {
	if !t.TxStatus.Confirmed {
		return -1
	}
	return t.TxStatus.BlockTime
}
