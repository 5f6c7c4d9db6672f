package esplora

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

func (e *esplora) GetBlockHeight() (int, error) {
	url := fmt.Sprintf("%v/blocks/tip/height", e.apiURL)
	status, resp, err := e.newHTTPRequest("GET", url, "")
	if err != nil {
		return -1, err
	}
	if status != http.StatusOK {
		return -1, fmt.Errorf(resp)
	}

	blockHeight, err := strconv.Atoi(resp)
	if err != nil {
		return -1, err
	}

	return blockHeight, nil
}

func (e *esplora) GetFeeEstimates() (map[int]uint64, error) {
	url := fmt.Sprintf("%s/fee-estimates", e.apiURL)
	status, resp, err := e.newHTTPRequest("GET", url, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf(resp)
	}

	// esplora returns sat/vB per confirmation target
	rawEstimates := map[string]float64{}
	if err := json.Unmarshal([]byte(resp), &rawEstimates); err != nil {
		return nil, err
	}

	estimates := make(map[int]uint64, len(rawEstimates))
	for rawTarget, satsPerByte := range rawEstimates {
		target, err := strconv.Atoi(rawTarget)
		if err != nil {
			continue
		}
		estimates[target] = uint64(satsPerByte * 1000)
	}
	return estimates, nil
}
