// Package variate supplies the random variates consumed by the simulation:
// exponential service durations and Poisson inter-arrival gaps.
//
// Inter-arrival gaps are Poisson counts, so they are integers with the requested
// mean rather than exponentially distributed. Exponential is available for
// callers that need continuous gaps.
package variate

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidMean is returned when a distribution is asked for a non-positive
// or non-finite mean.
var ErrInvalidMean = errors.New("mean must be a finite positive number")

// Source generates independent random variates from a mean parameter.
type Source interface {
	// Exponential returns a non-negative sample from an exponential
	// distribution with the given mean.
	Exponential(mean float64) (float64, error)
	// Poisson returns a non-negative integer sample from a Poisson
	// distribution with the given mean.
	Poisson(mean float64) (int64, error)
}

// DistSource is a Source backed by gonum distributions. Exponential samples are
// drawn from the SubsystemService stream and Poisson samples from the
// SubsystemArrival stream.
type DistSource struct {
	rng *PartitionedRNG
}

// NewDistSource creates a DistSource seeded from key.
func NewDistSource(key SimulationKey) *DistSource {
	return &DistSource{rng: NewPartitionedRNG(key)}
}

// Exponential implements Source.
func (d *DistSource) Exponential(mean float64) (float64, error) {
	if err := validateMean(mean); err != nil {
		return 0, fmt.Errorf("exponential: %w", err)
	}
	dist := distuv.Exponential{Rate: 1 / mean, Src: d.rng.ForSubsystem(SubsystemService)}
	return dist.Rand(), nil
}

// Poisson implements Source.
func (d *DistSource) Poisson(mean float64) (int64, error) {
	if err := validateMean(mean); err != nil {
		return 0, fmt.Errorf("poisson: %w", err)
	}
	dist := distuv.Poisson{Lambda: mean, Src: d.rng.ForSubsystem(SubsystemArrival)}
	return int64(math.Round(dist.Rand())), nil
}

// Key returns the key the source was seeded with.
func (d *DistSource) Key() SimulationKey {
	return d.rng.Key()
}

func validateMean(mean float64) error {
	if math.IsNaN(mean) || math.IsInf(mean, 0) || mean <= 0 {
		return fmt.Errorf("%w, got %v", ErrInvalidMean, mean)
	}
	return nil
}
