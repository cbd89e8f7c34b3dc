package indicator

import "math"

// EMA computes an exponential moving average with α = 2/(period+1).
// It is seeded with the simple average of the first period values, so the
// first defined index is period-1.
func EMA(values []float64, period int) Series {
	out := undefined(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	k := 2.0 / (float64(period) + 1.0)

	ema := sum / float64(period)
	out.Values[period-1] = ema
	for i := period; i < len(values); i++ {
		ema = values[i]*k + ema*(1-k)
		out.Values[i] = ema
	}
	out.Start = period - 1
	return out
}

// RSI computes Wilder's relative strength index. The first defined index is
// period (period price changes are needed). A zero average loss yields 100.
func RSI(values []float64, period int) Series {
	out := undefined(len(values))
	if period <= 0 || len(values) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := change(values[i-1], values[i])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out.Values[period] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(values); i++ {
		gain, loss := change(values[i-1], values[i])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out.Values[i] = rsiValue(avgGain, avgLoss)
	}
	out.Start = period
	return out
}

func change(prev, cur float64) (gain, loss float64) {
	d := cur - prev
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	v := 100 - 100/(1+avgGain/avgLoss)
	return math.Max(0, math.Min(100, v))
}

// RollingMean is a trailing simple moving average; the first window-1
// positions are undefined.
func RollingMean(values []float64, window int) Series {
	out := undefined(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out.Values[i] = sum / float64(window)
		}
	}
	out.Start = window - 1
	return out
}

// RollingMin is a trailing window minimum
func RollingMin(values []float64, window int) Series {
	return rolling(values, window, 0, math.Min)
}

// RollingMax is a trailing window maximum
func RollingMax(values []float64, window int) Series {
	return rolling(values, window, 0, math.Max)
}

// CenteredRollingMin takes the minimum of a window centred on each index.
// For an even window the extra bar is on the left: a 50-bar window spans
// i-25 .. i+24. Indices without a full window are undefined at both ends.
func CenteredRollingMin(values []float64, window int) Series {
	return rolling(values, window, (window-1)/2, math.Min)
}

// rolling evaluates agg over [i-(window-1-ahead), i+ahead] for each i
func rolling(values []float64, window, ahead int, agg func(a, b float64) float64) Series {
	out := undefined(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	behind := window - 1 - ahead
	first := -1
	for i := behind; i+ahead < len(values); i++ {
		acc := values[i-behind]
		for j := i - behind + 1; j <= i+ahead; j++ {
			acc = agg(acc, values[j])
		}
		out.Values[i] = acc
		if first < 0 {
			first = i
		}
	}
	out.Start = first
	return out
}
