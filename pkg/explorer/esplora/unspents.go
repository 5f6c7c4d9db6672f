package esplora

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vaultex-network/vaultex-client/pkg/explorer"
)

func (e *esplora) GetUnspents(addr string) ([]explorer.Utxo, error) {
	return e.getUnspents(addr)
}

func (e *esplora) GetUnspentsForAddresses(
	addresses []string,
) ([]explorer.Utxo, error) {
	chUnspents := make(chan []explorer.Utxo)
	chErr := make(chan error, 1)
	unspents := make([]explorer.Utxo, 0)

	for _, addr := range addresses {
		go e.getUnspentsForAddress(addr, chUnspents, chErr)

		select {
		case err := <-chErr:
			close(chErr)
			close(chUnspents)
			return nil, err
		case unspentsForAddress := <-chUnspents:
			unspents = append(unspents, unspentsForAddress...)
		}
	}

	return unspents, nil
}

func (e *esplora) getUnspents(addr string) ([]explorer.Utxo, error) {
	url := fmt.Sprintf("%s/address/%s/utxo", e.apiURL, addr)
	status, resp, err := e.newHTTPRequest("GET", url, "")
	if err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %s", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf(resp)
	}

	var outs []witnessUtxo
	if err := json.Unmarshal([]byte(resp), &outs); err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %s", err)
	}

	tipHeight, err := e.GetBlockHeight()
	if err != nil {
		return nil, err
	}

	unspents := make([]explorer.Utxo, 0, len(outs))
	for _, out := range outs {
		unspents = append(unspents, explorer.NewUtxo(
			out.Txid, out.Vout, out.Value, addr, nil,
			confirmations(out.Status, tipHeight),
		))
	}
	return unspents, nil
}

func (e *esplora) getUnspentsForAddress(
	addr string,
	chUnspents chan []explorer.Utxo,
	chErr chan error,
) {
	unspents, err := e.getUnspents(addr)
	if err != nil {
		chErr <- err
		return
	}
	chUnspents <- unspents
}

func confirmations(s status, tipHeight int) uint32 {
	if !s.Confirmed || s.BlockHeight <= 0 || s.BlockHeight > tipHeight {
		return 0
	}
	return uint32(tipHeight - s.BlockHeight + 1)
}
