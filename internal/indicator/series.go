// Package indicator holds pure functions over price and volume columns.
//
// Every function returns a Series aligned with its input: positions before
// Start are undefined and hold NaN. Inputs are never modified.
package indicator

import "math"

// Series is an indicator column aligned index-for-index with its input.
// Centered windows also leave the trailing positions undefined.
type Series struct {
	Values []float64
	Start  int // first defined index; == len(Values) when nothing is defined
}

func undefined(n int) Series {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return Series{Values: vals, Start: n}
}

// Len returns the series length
func (s Series) Len() int { return len(s.Values) }

// Defined reports whether index i holds a value
func (s Series) Defined(i int) bool {
	return i >= s.Start && i < len(s.Values) && !math.IsNaN(s.Values[i])
}

// At returns the value at i and whether it is defined
func (s Series) At(i int) (float64, bool) {
	if !s.Defined(i) {
		return 0, false
	}
	return s.Values[i], true
}

// Last returns the final value and whether it is defined
func (s Series) Last() (float64, bool) {
	return s.At(len(s.Values) - 1)
}

// FromEnd returns the value k positions before the end (0 = last)
func (s Series) FromEnd(k int) (float64, bool) {
	return s.At(len(s.Values) - 1 - k)
}
