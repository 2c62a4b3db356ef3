package features

import "math"

// Technical indicators computed over a historical price window.
// Every indicator has a defined default when the window is shorter
// than its lookback so the feature vector keeps a constant length.

// SMA returns the simple moving average of the last period prices.
// Falls back to the latest price when the window is too short.
func SMA(prices []float64, period int) float64 {
	n := len(prices)
	if n == 0 {
		return 0
	}
	if n < period {
		return prices[n-1]
	}
	var sum float64
	for _, p := range prices[n-period:] {
		sum += p
	}
	return sum / float64(period)
}

// EMA returns the exponential moving average of the last period prices.
// Falls back to the latest price when the window is too short.
func EMA(prices []float64, period int) float64 {
	n := len(prices)
	if n == 0 {
		return 0
	}
	if n < period {
		return prices[n-1]
	}
	k := 2.0 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*k + ema*(1-k)
	}
	return ema
}

// RSI returns the relative strength index over period. Defaults to the
// neutral 50.0 when the window is too short.
func RSI(prices []float64, period int) float64 {
	n := len(prices)
	if n < period+1 {
		return 50.0
	}

	var gains, losses float64
	for i := n - period; i < n; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	if losses == 0 {
		return 100.0
	}
	rs := (gains / float64(period)) / (losses / float64(period))
	return 100.0 - 100.0/(1.0+rs)
}

// MACD returns the MACD line, signal line and histogram for the
// standard fast/slow/signal periods. All three default to 0.0 when
// the window is shorter than the slow period.
func MACD(prices []float64, fast, slow, signal int) (macd, sig, hist float64) {
	if len(prices) < slow {
		return 0, 0, 0
	}

	macdSeries := make([]float64, 0, len(prices)-slow+1)
	for i := slow; i <= len(prices); i++ {
		window := prices[:i]
		macdSeries = append(macdSeries, EMA(window, fast)-EMA(window, slow))
	}

	macd = macdSeries[len(macdSeries)-1]
	if len(macdSeries) >= signal {
		sig = EMA(macdSeries, signal)
	}
	hist = macd - sig
	return macd, sig, hist
}

// BollingerPosition returns the relative position of the latest price
// inside the Bollinger band: 0 at the lower band, 1 at the upper band.
// Defaults to the midpoint 0.5 when the window is too short or flat.
func BollingerPosition(prices []float64, period int, stddevs float64) float64 {
	n := len(prices)
	if n < period {
		return 0.5
	}

	window := prices[n-period:]
	mean := SMA(prices, period)

	var variance float64
	for _, p := range window {
		d := p - mean
		variance += d * d
	}
	variance /= float64(period)

	sd := math.Sqrt(variance)
	if sd == 0 {
		return 0.5
	}

	upper := mean + stddevs*sd
	lower := mean - stddevs*sd
	pos := (prices[n-1] - lower) / (upper - lower)
	if pos < 0 {
		return 0
	}
	if pos > 1 {
		return 1
	}
	return pos
}

// Stochastic returns %K and %D over the period. Both default to the
// neutral 50.0 when the window is too short.
func Stochastic(prices []float64, period, smooth int) (k, d float64) {
	n := len(prices)
	if n < period {
		return 50.0, 50.0
	}

	kValues := make([]float64, 0, smooth)
	for i := 0; i < smooth && n-i >= period; i++ {
		window := prices[n-period-i : n-i]
		low, high := window[0], window[0]
		for _, p := range window {
			if p < low {
				low = p
			}
			if p > high {
				high = p
			}
		}
		if high == low {
			kValues = append(kValues, 50.0)
			continue
		}
		kValues = append(kValues, 100.0*(window[len(window)-1]-low)/(high-low))
	}

	k = kValues[0]
	var sum float64
	for _, v := range kValues {
		sum += v
	}
	d = sum / float64(len(kValues))
	return k, d
}
