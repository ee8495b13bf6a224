package numeric

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Spread is a NaN-tolerant population mean and standard deviation.
type Spread struct {
	Mean   float64
	StdDev float64
	// Count is the number of non-NaN values that contributed.
	Count int
}

// SpreadErr extends Spread with the standard error of the mean.
type SpreadErr struct {
	Spread
	StdErr float64
}

// MeanStddev computes the population mean and standard deviation of values,
// skipping NaN entries. With no valid values Mean and StdDev are NaN.
func MeanStddev(values []float64) Spread {
	valid := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		valid = append(valid, v)
	}
	if len(valid) == 0 {
		return Spread{Mean: math.NaN(), StdDev: math.NaN()}
	}
	mean, err := stats.Mean(valid)
	if err != nil {
		mean = math.NaN()
	}
	sd, err := stats.StandardDeviationPopulation(valid)
	if err != nil {
		sd = math.NaN()
	}
	return Spread{Mean: mean, StdDev: sd, Count: len(valid)}
}

// MeanStderrStddev is MeanStddev plus StdErr = StdDev / sqrt(Count).
func MeanStderrStddev(values []float64) SpreadErr {
	s := MeanStddev(values)
	return SpreadErr{Spread: s, StdErr: s.StdDev / math.Sqrt(float64(s.Count))}
}
