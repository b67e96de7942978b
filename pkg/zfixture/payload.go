package zfixture

import "github.com/govalues/decimal"

// EncodeBalance renders a demo "balance" column into a tuple's opaque
// payload, giving cmd/zheapctl and pkg/vacuumaudit something
// human-readable to show alongside a raw visibility verdict. The
// visibility engine itself never interprets payload bytes.
func EncodeBalance(balance decimal.Decimal) []byte {
	return []byte(balance.String())
}

// DecodeBalance parses a payload produced by EncodeBalance. Any other
// payload shape returns ok=false.
func DecodeBalance(payload []byte) (decimal.Decimal, bool) {
	d, err := decimal.Parse(string(payload))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
