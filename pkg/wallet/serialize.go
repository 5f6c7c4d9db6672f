package wallet

import "encoding/json"

// keyJSON is the storage shape of a Key. Plain and encrypted fields are both
// carried so an encrypted key round-trips without the password.
type keyJSON struct {
	Id                    string `json:"id"`
	XPrivKey              string `json:"xPrivKey,omitempty"`
	XPrivKeyEncrypted     string `json:"xPrivKeyEncrypted,omitempty"`
	Mnemonic              string `json:"mnemonic,omitempty"`
	MnemonicEncrypted     string `json:"mnemonicEncrypted,omitempty"`
	MnemonicHasPassphrase bool   `json:"mnemonicHasPassphrase,omitempty"`
	Fingerprint           string `json:"fingerprint"`
	CompliantDerivation   bool   `json:"compliantDerivation"`
	Use0ForBCH            bool   `json:"use0ForBCH,omitempty"`
	Use44ForMultisig      bool   `json:"use44ForMultisig,omitempty"`
}

func (k *Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyJSON{
		Id:                    k.id,
		XPrivKey:              k.xPrivKey,
		XPrivKeyEncrypted:     k.xPrivKeyEncrypted,
		Mnemonic:              k.mnemonic,
		MnemonicEncrypted:     k.mnemonicEncrypted,
		MnemonicHasPassphrase: k.mnemonicHasPassphrase,
		Fingerprint:           k.fingerprint,
		CompliantDerivation:   k.compliantDerivation,
		Use0ForBCH:            k.use0ForBCH,
		Use44ForMultisig:      k.use44ForMultisig,
	})
}

func (k *Key) UnmarshalJSON(data []byte) error {
	stored := keyJSON{}
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	if len(stored.XPrivKey) <= 0 && len(stored.XPrivKeyEncrypted) <= 0 {
		return ErrInvalidSeed
	}

	k.id = stored.Id
	k.xPrivKey = stored.XPrivKey
	k.xPrivKeyEncrypted = stored.XPrivKeyEncrypted
	k.mnemonic = stored.Mnemonic
	k.mnemonicEncrypted = stored.MnemonicEncrypted
	k.mnemonicHasPassphrase = stored.MnemonicHasPassphrase
	k.fingerprint = stored.Fingerprint
	k.compliantDerivation = stored.CompliantDerivation
	k.use0ForBCH = stored.Use0ForBCH
	k.use44ForMultisig = stored.Use44ForMultisig
	return nil
}
