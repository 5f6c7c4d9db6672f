package esplora

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vaultex-network/vaultex-client/pkg/explorer"
)

func (e *esplora) GetTransactionHex(txid string) (string, error) {
	url := fmt.Sprintf("%s/tx/%s/hex", e.apiURL, txid)
	status, resp, err := e.newHTTPRequest("GET", url, "")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf(resp)
	}
	return resp, nil
}

func (e *esplora) IsTransactionConfirmed(txid string) (bool, error) {
	txStatus, err := e.GetTransactionStatus(txid)
	if err != nil {
		return false, err
	}
	return txStatus.Confirmed, nil
}

func (e *esplora) GetTransactionStatus(
	txid string,
) (*explorer.TxStatus, error) {
	url := fmt.Sprintf("%s/tx/%s/status", e.apiURL, txid)
	status, resp, err := e.newHTTPRequest("GET", url, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf(resp)
	}

	txStatus := &explorer.TxStatus{}
	if err := json.Unmarshal([]byte(resp), txStatus); err != nil {
		return nil, err
	}
	return txStatus, nil
}

func (e *esplora) GetTransactionsForAddress(
	addr string,
) ([]explorer.Transaction, error) {
	url := fmt.Sprintf("%s/address/%s/txs", e.apiURL, addr)
	status, resp, err := e.newHTTPRequest("GET", url, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf(resp)
	}

	var txs []*tx
	if err := json.Unmarshal([]byte(resp), &txs); err != nil {
		return nil, err
	}

	transactions := make([]explorer.Transaction, 0, len(txs))
	for _, t := range txs {
		transactions = append(transactions, t)
	}
	return transactions, nil
}

func (e *esplora) BroadcastTransaction(txhex string) (string, error) {
	url := fmt.Sprintf("%s/tx", e.apiURL)
	status, resp, err := e.newHTTPRequest("POST", url, txhex)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf(resp)
	}
	return resp, nil
}
