package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrConnection marks transport-level failures. It is the only error
	// class callers may retry; every other error is definitive.
	ErrConnection = errors.New("could not reach the wallet server")
	// ErrNotAuthorized ...
	ErrNotAuthorized = errors.New("not authorized to perform this action")
	// ErrWalletNotFound ...
	ErrWalletNotFound = errors.New("wallet not found on the server")
	// ErrWalletAlreadyExists ...
	ErrWalletAlreadyExists = errors.New("wallet already exists")
	// ErrWalletFull ...
	ErrWalletFull = errors.New("wallet already has all expected copayers")
	// ErrCopayerRegistered ...
	ErrCopayerRegistered = errors.New("copayer already registered in this device")
	// ErrCopayerInWallet ...
	ErrCopayerInWallet = errors.New("copayer already joined this wallet")
	// ErrCopayerVoted ...
	ErrCopayerVoted = errors.New("copayer already voted on this proposal")
	// ErrTxNotPending ...
	ErrTxNotPending = errors.New("proposal is no longer pending")
	// ErrTxAlreadyBroadcasted ...
	ErrTxAlreadyBroadcasted = errors.New("transaction was already broadcasted")
	// ErrTxCannotBeRemoved ...
	ErrTxCannotBeRemoved = errors.New(
		"proposal cannot be removed, another copayer already acted on it",
	)
	// ErrLockedFunds ...
	ErrLockedFunds = errors.New("funds are locked by pending proposals")
	// ErrUnavailableUtxos ...
	ErrUnavailableUtxos = errors.New("utxos are unavailable or already spent")
	// ErrInsufficientFunds ...
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientFundsForFee ...
	ErrInsufficientFundsForFee = errors.New("insufficient funds for fee")
	// ErrDustAmount ...
	ErrDustAmount = errors.New("amount is below the dust threshold")
	// ErrUpgradeNeeded ...
	ErrUpgradeNeeded = errors.New(
		"the server requires a newer client version, please upgrade",
	)
	// ErrAddressGapReached ...
	ErrAddressGapReached = errors.New("main address gap reached")
	// ErrInvalidBackup ...
	ErrInvalidBackup = errors.New("invalid wallet backup")
)

// serverError is the error envelope of the wallet server.
type serverError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// serverErrorCodes maps every known server error code to the client
// taxonomy. Unknown codes surface verbatim so new server versions stay
// debuggable.
var serverErrorCodes = map[string]error{
	"NOT_AUTHORIZED":             ErrNotAuthorized,
	"WALLET_NOT_FOUND":           ErrWalletNotFound,
	"WALLET_ALREADY_EXISTS":      ErrWalletAlreadyExists,
	"WALLET_FULL":                ErrWalletFull,
	"COPAYER_REGISTERED":         ErrCopayerRegistered,
	"COPAYER_IN_WALLET":          ErrCopayerInWallet,
	"COPAYER_VOTED":              ErrCopayerVoted,
	"TX_NOT_PENDING":             ErrTxNotPending,
	"TX_ALREADY_BROADCASTED":     ErrTxAlreadyBroadcasted,
	"TX_CANNOT_REMOVE":           ErrTxCannotBeRemoved,
	"LOCKED_FUNDS":               ErrLockedFunds,
	"UNAVAILABLE_UTXOS":          ErrUnavailableUtxos,
	"INSUFFICIENT_FUNDS":         ErrInsufficientFunds,
	"INSUFFICIENT_FUNDS_FOR_FEE": ErrInsufficientFundsForFee,
	"DUST_AMOUNT":                ErrDustAmount,
	"UPGRADE_NEEDED":             ErrUpgradeNeeded,
	"MAIN_ADDRESS_GAP_REACHED":   ErrAddressGapReached,
	"INVALID_BACKUP":             ErrInvalidBackup,
}

// parseServerError turns a non-2xx response body into a taxonomy error.
func parseServerError(status int, body []byte) error {
	srvErr := &serverError{}
	if err := json.Unmarshal(body, srvErr); err == nil && len(srvErr.Code) > 0 {
		if mapped, ok := serverErrorCodes[srvErr.Code]; ok {
			return mapped
		}
		return fmt.Errorf(
			"server error %s: %s", srvErr.Code, srvErr.Message,
		)
	}
	return fmt.Errorf("server responded with status %d: %s", status, body)
}
