package explorer

// NewUtxo returns a Utxo from its raw components.
func NewUtxo(
	hash string, index uint32, value uint64,
	address string, script []byte, confirmations uint32,
) Utxo {
	return utxo{
		UHash:          hash,
		UIndex:         index,
		UValue:         value,
		UAddress:       address,
		UScript:        script,
		UConfirmations: confirmations,
	}
}

type utxo struct {
	UHash          string
	UIndex         uint32
	UValue         uint64
	UAddress       string
	UScript        []byte
	UConfirmations uint32
}

func (u utxo) Hash() string {
	return u.UHash
}

func (u utxo) Index() uint32 {
	return u.UIndex
}

func (u utxo) Value() uint64 {
	return u.UValue
}

func (u utxo) Address() string {
	return u.UAddress
}

func (u utxo) Script() []byte {
	return u.UScript
}

func (u utxo) Confirmations() uint32 {
	return u.UConfirmations
}

func (u utxo) IsConfirmed() bool {
	return u.UConfirmations > 0
}
