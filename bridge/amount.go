package bridge

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

var weiPerNative = apd.New(1, 18)

// ParseNativeAmount converts a decimal native-asset amount like "1.5" into
// wei. Amounts with sub-wei precision are rejected.
func ParseNativeAmount(amount string) (*big.Int, error) {
	dec, _, err := apd.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("can't parse amount %q: %w", amount, err)
	}
	if dec.Form != apd.Finite || dec.Sign() <= 0 {
		return nil, ErrNonPositiveAmount
	}
	wei := new(apd.Decimal)
	if _, err = apd.BaseContext.WithPrecision(60).Mul(wei, dec, weiPerNative); err != nil {
		return nil, fmt.Errorf("can't scale amount %q to wei: %w", amount, err)
	}
	wei.Reduce(wei)
	if wei.Exponent < 0 {
		return nil, fmt.Errorf("amount %q has sub-wei precision", amount)
	}
	res := wei.Coeff.MathBigInt()
	if wei.Exponent > 0 {
		res.Mul(res, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(wei.Exponent)), nil))
	}
	return res, nil
}
