package proposal

import "encoding/json"

// headerInput is the signed view of one spent utxo.
type headerInput struct {
	TxId     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Satoshis uint64 `json:"satoshis"`
}

// headerOutput is the signed view of one output. Field order is fixed so the
// serialization is stable across clients.
type headerOutput struct {
	ToAddress string `json:"toAddress,omitempty"`
	Amount    uint64 `json:"amount"`
	Message   string `json:"message,omitempty"`
	Script    string `json:"script,omitempty"`
}

type header struct {
	Inputs        []headerInput  `json:"inputs"`
	Outputs       []headerOutput `json:"outputs"`
	Fee           uint64         `json:"fee"`
	FeePerKb      uint64         `json:"feePerKb,omitempty"`
	ChangeAddress string         `json:"changeAddress,omitempty"`
	Message       string         `json:"message,omitempty"`
	CustomData    string         `json:"customData,omitempty"`
	PayProUrl     string         `json:"payProUrl,omitempty"`
}

// Header returns the canonical serialization of the proposed spend: the utxos
// consumed, the destinations, amounts and messages, the fee and the change
// destination, with every field in a fixed position. It is what the creator
// signs at publish time and what every copayer re-derives to authenticate the
// proposal. The fee and change address are part of the signed material: a
// server that inflates the fee (shrinking the change output) invalidates the
// signature.
func (t *TxProposal) Header() string {
	ins := make([]headerInput, 0, len(t.Inputs))
	for _, in := range t.Inputs {
		ins = append(ins, headerInput{
			TxId:     in.TxId,
			Vout:     in.Vout,
			Satoshis: in.Satoshis,
		})
	}
	outs := make([]headerOutput, 0, len(t.Outputs))
	for _, out := range t.Outputs {
		outs = append(outs, headerOutput{
			ToAddress: out.ToAddress,
			Amount:    out.Amount,
			Message:   out.Message,
			Script:    out.Script,
		})
	}
	changeAddress := ""
	if t.ChangeAddress != nil {
		changeAddress = t.ChangeAddress.Address
	}
	// marshaling a fixed-field struct cannot fail
	buf, _ := json.Marshal(header{
		Inputs:        ins,
		Outputs:       outs,
		Fee:           t.Fee,
		FeePerKb:      t.FeePerKb,
		ChangeAddress: changeAddress,
		Message:       t.Message,
		CustomData:    t.CustomData,
		PayProUrl:     t.PayProUrl,
	})
	return string(buf)
}
