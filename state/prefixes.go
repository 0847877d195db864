package state

import "encoding/binary"

var (
	accountPrefix        = []byte("account/")
	totalSupplyKeyBytes  = []byte("supply/total")
	loanPrefix           = []byte("loan/record/")
	loanNextIDKeyBytes   = []byte("loan/next-id")
	loanAccountPrefix    = []byte("loan/account/")
	escrowPrefix         = []byte("escrow/record/")
	escrowNextIDKeyBytes = []byte("escrow/next-id")
	escrowAccountPrefix  = []byte("escrow/account/")
	collateralPrefix     = []byte("collateral/balance/")
	collateralApproved   = []byte("collateral/approved/")
	rolePrefix           = []byte("role/")
	pausePrefix          = []byte("params/paused/")

	gasUnitPriceKeyBytes  = []byte("params/gas-unit-price")
	loanRateKeyBytes      = []byte("params/loan/rate-bps")
	loanDurationKeyBytes  = []byte("params/loan/duration")
	loanMaxLTVKeyBytes    = []byte("params/loan/max-ltv-bps")
	paymasterPoolKey      = []byte("paymaster/pool")
	paymasterSpentPrefix  = []byte("paymaster/spent/")
	paymasterCtxPrefix    = []byte("paymaster/ctx/")
	paymasterRelayPrefix  = []byte("paymaster/relayer/")
	paymasterRateKeyBytes = []byte("paymaster/exchange-rate")
	paymasterScaleKey     = []byte("paymaster/scaling-factor")
	paymasterOverheadKey  = []byte("paymaster/overhead")
)

func prefixedKey(prefix []byte, suffix []byte) []byte {
	key := make([]byte, len(prefix)+len(suffix))
	copy(key, prefix)
	copy(key[len(prefix):], suffix)
	return key
}

func prefixedStringKey(prefix []byte, suffix string) []byte {
	return prefixedKey(prefix, []byte(suffix))
}

func idKey(prefix []byte, id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return prefixedKey(prefix, buf)
}
