package proposal

import (
	"github.com/shopspring/decimal"

	"github.com/vaultex-network/vaultex-client/pkg/address"
)

// SatoshisPerCoin is the number of base units in one coin.
const SatoshisPerCoin = 100_000_000

// FormatAmount renders a satoshi amount in whole-coin units with the ticker
// of the given coin, for human-facing surfaces.
func FormatAmount(satoshis uint64, coin address.Coin) string {
	amount := decimal.NewFromInt(int64(satoshis)).
		Div(decimal.NewFromInt(SatoshisPerCoin))
	return amount.StringFixedBank(8) + " " + coin.String()
}

// RatePerKb converts a satoshi-per-byte rate to the satoshi-per-kilobyte
// shape the protocol exchanges.
func RatePerKb(satsPerByte float64) uint64 {
	rate := decimal.NewFromFloat(satsPerByte).Mul(decimal.NewFromInt(1000))
	return uint64(rate.IntPart())
}
