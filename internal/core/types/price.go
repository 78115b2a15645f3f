package types

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Price is a non-negative decimal fixed-point value with nine fractional
// digits, stored as an int64 mantissa. 1.0 is represented by PriceOne.
//
// Arithmetic that can discard fractional units (weighting a price) rounds
// half-to-even at the smallest unit, so repeated basket evaluations are
// deterministic and bias-free.
type Price struct {
	mantissa int64
}

// PriceScale is the number of smallest units per 1.0.
const PriceScale int64 = 1_000_000_000

// PriceOne is the fixed-point representation of 1.0.
var PriceOne = Price{mantissa: PriceScale}

// ErrPriceOverflow is returned when a price computation exceeds the
// representable range.
var ErrPriceOverflow = errors.New("price overflow")

var priceScaleBig = big.NewInt(PriceScale)

// NewPrice builds a price from whole and fractional parts, where frac is in
// smallest units (0 <= frac < PriceScale).
func NewPrice(whole uint32, frac uint32) Price {
	return Price{mantissa: int64(whole)*PriceScale + int64(frac)}
}

// PriceFromMantissa builds a price directly from smallest units.
func PriceFromMantissa(m int64) (Price, error) {
	if m < 0 {
		return Price{}, fmt.Errorf("negative price mantissa %d", m)
	}
	return Price{mantissa: m}, nil
}

// Mantissa returns the price in smallest units.
func (p Price) Mantissa() int64 { return p.mantissa }

// IsZero reports whether the price is exactly zero.
func (p Price) IsZero() bool { return p.mantissa == 0 }

// Cmp compares two prices: -1 if p < q, 0 if equal, 1 if p > q.
func (p Price) Cmp(q Price) int {
	switch {
	case p.mantissa < q.mantissa:
		return -1
	case p.mantissa > q.mantissa:
		return 1
	default:
		return 0
	}
}

// Add returns p+q, or ErrPriceOverflow if the sum leaves the int64 range.
func (p Price) Add(q Price) (Price, error) {
	if p.mantissa > math.MaxInt64-q.mantissa {
		return Price{}, ErrPriceOverflow
	}
	return Price{mantissa: p.mantissa + q.mantissa}, nil
}

// Sub returns |p-q|. The caller keeps track of direction via Cmp.
func (p Price) Sub(q Price) Price {
	if p.mantissa >= q.mantissa {
		return Price{mantissa: p.mantissa - q.mantissa}
	}
	return Price{mantissa: q.mantissa - p.mantissa}
}

// Mul returns p×q with round-half-to-even at the smallest unit. The
// intermediate product is computed at full width, so no precision is lost
// before the single final rounding step.
func (p Price) Mul(q Price) (Price, error) {
	prod := new(big.Int).Mul(big.NewInt(p.mantissa), big.NewInt(q.mantissa))
	m, err := divRoundHalfEven(prod, priceScaleBig)
	if err != nil {
		return Price{}, err
	}
	return Price{mantissa: m}, nil
}

// Div returns p/q with round-half-to-even at the smallest unit.
func (p Price) Div(q Price) (Price, error) {
	if q.mantissa == 0 {
		return Price{}, errors.New("division by zero price")
	}
	num := new(big.Int).Mul(big.NewInt(p.mantissa), priceScaleBig)
	m, err := divRoundHalfEven(num, big.NewInt(q.mantissa))
	if err != nil {
		return Price{}, err
	}
	return Price{mantissa: m}, nil
}

// divRoundHalfEven divides num by den, rounding half-to-even, and checks the
// quotient fits an int64 mantissa. Both operands must be non-negative.
func divRoundHalfEven(num, den *big.Int) (int64, error) {
	quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))

	// Compare 2*rem against den to decide the rounding direction.
	twice := new(big.Int).Lsh(rem, 1)
	switch twice.Cmp(den) {
	case 1:
		quo.Add(quo, big.NewInt(1))
	case 0:
		// Exactly half: round to the even neighbour.
		if quo.Bit(0) == 1 {
			quo.Add(quo, big.NewInt(1))
		}
	}

	if !quo.IsInt64() {
		return 0, ErrPriceOverflow
	}
	return quo.Int64(), nil
}

// String renders the price as a decimal with trailing zeros trimmed.
func (p Price) String() string {
	whole := p.mantissa / PriceScale
	frac := p.mantissa % PriceScale
	if frac == 0 {
		return strconv.FormatInt(whole, 10)
	}
	s := fmt.Sprintf("%d.%09d", whole, frac)
	return strings.TrimRight(s, "0")
}

// ParsePrice parses a decimal string ("1.25", "0.003") into a Price.
// At most nine fractional digits are accepted.
func ParsePrice(s string) (Price, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return Price{}, fmt.Errorf("invalid price %q", s)
	}
	var f int64
	if frac != "" {
		if len(frac) > 9 {
			return Price{}, fmt.Errorf("price %q has more than 9 fractional digits", s)
		}
		f, err = strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		if err != nil {
			return Price{}, fmt.Errorf("invalid price %q", s)
		}
	}
	if w > (math.MaxInt64-f)/PriceScale {
		return Price{}, ErrPriceOverflow
	}
	return Price{mantissa: w*PriceScale + f}, nil
}
