package explorer

// Utxo represents an unspent transaction output in the bitcoin chain.
type Utxo interface {
	Hash() string
	Index() uint32
	Value() uint64
	Address() string
	Script() []byte
	Confirmations() uint32
	IsConfirmed() bool
}

// Transaction represents a transaction in the bitcoin chain.
type Transaction interface {
	Hash() string
	Version() int
	Locktime() int
	Size() int
	Weight() int
	Fee() uint64
	Confirmed() bool
	BlockHeight() int
	BlockTime() int64
}

// TxStatus is the confirmation state of a transaction.
type TxStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight int    `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	BlockTime   int64  `json:"block_time"`
}

// Service is the representation of an explorer that allows to fetch data from
// the blockchain and to broadcast transactions.
type Service interface {
	// GetUnspents fetches the utxos of the given address.
	GetUnspents(addr string) (unspents []Utxo, err error)
	// GetUnspentsForAddresses fetches the utxos of the given list of
	// addresses.
	GetUnspentsForAddresses(addresses []string) (unspents []Utxo, err error)
	// GetTransactionHex fetches the transaction in hex format given its hash.
	GetTransactionHex(txid string) (txhex string, err error)
	// IsTransactionConfirmed returns whether the tx identified by its hash
	// has been included in the blockchain.
	IsTransactionConfirmed(txid string) (confirmed bool, err error)
	// GetTransactionStatus returns the status of the tx identified by its
	// hash.
	GetTransactionStatus(txid string) (status *TxStatus, err error)
	// GetTransactionsForAddress returns the list of all txs relative to the
	// given address.
	GetTransactionsForAddress(address string) (txs []Transaction, err error)
	// BroadcastTransaction attempts to add the given tx in hex format to the
	// mempool and returns its tx hash.
	BroadcastTransaction(txhex string) (txid string, err error)
	// GetBlockHeight returns the number of blocks of the blockchain.
	GetBlockHeight() (int, error)
	// GetFeeEstimates returns the fee estimates in sat/kvB keyed by
	// confirmation target in blocks.
	GetFeeEstimates() (map[int]uint64, error)
}
