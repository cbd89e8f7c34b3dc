// Package tick snaps prices onto the IDX price-fraction grid.
//
// Rounding is done in decimal space: the float input is first fixed to nine
// decimals so that products like 1000*1.02 (1020.0000000000001) land on
// 1020 instead of spilling to the next tick.
package tick

import (
	"math"

	"github.com/shopspring/decimal"
)

// Band is one row of the IDX fraction table: prices below Below trade in
// steps of Size.
type Band struct {
	Below float64
	Size  int64
}

// Bands is the IDX price fraction table, ascending. The last band is open ended.
var Bands = []Band{
	{Below: 200, Size: 1},
	{Below: 500, Size: 2},
	{Below: 2000, Size: 5},
	{Below: 5000, Size: 10},
	{Below: math.Inf(1), Size: 25},
}

const noiseDigits = 9

// Size returns the tick size for price
func Size(price float64) int64 {
	for _, b := range Bands {
		if price < b.Below {
			return b.Size
		}
	}
	return Bands[len(Bands)-1].Size
}

func usable(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0) && price > 0
}

func quantize(price float64, round func(decimal.Decimal) decimal.Decimal) int64 {
	if !usable(price) {
		return 0
	}
	size := decimal.NewFromInt(Size(price))
	steps := round(decimal.NewFromFloat(price).Round(noiseDigits).Div(size))
	return steps.Mul(size).IntPart()
}

// RoundDown returns the largest valid price ≤ price.
// Non-positive or non-finite input yields 0.
func RoundDown(price float64) int64 {
	return quantize(price, decimal.Decimal.Floor)
}

// RoundUp returns the smallest multiple of the input's tick ≥ price.
func RoundUp(price float64) int64 {
	return quantize(price, decimal.Decimal.Ceil)
}

// RoundToTick rounds to the nearest multiple of the input's tick, ties to even.
func RoundToTick(price float64) int64 {
	return quantize(price, func(d decimal.Decimal) decimal.Decimal { return d.RoundBank(0) })
}

// IsValid reports whether price sits on its own band's grid
func IsValid(price int64) bool {
	return price > 0 && price%Size(float64(price)) == 0
}

// Next returns the first valid price strictly above price
func Next(price int64) int64 {
	return RoundUp(float64(price + 1))
}
