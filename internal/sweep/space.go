package sweep

import "math"

// Enumerate returns the full cartesian product of the sweep dimensions in a
// fixed order: resource limit outermost, then thread multiplier, then pool
// multiplier.
//
//	workerThreads = round(limit * threadMultiplier)
//	poolSize      = round(workerThreads * poolMultiplier)
//
// Nothing is filtered or de-duplicated. Two multiplier pairs that round to the
// same thread and pool counts yield two configurations, and zero or negative
// results are passed through as computed.
func Enumerate(limits, threadMultipliers, poolMultipliers []float64) []TestConfiguration {
	configs := make([]TestConfiguration, 0, len(limits)*len(threadMultipliers)*len(poolMultipliers))

	for _, limit := range limits {
		for _, tm := range threadMultipliers {
			threads := Round(limit * tm)

			for _, pm := range poolMultipliers {
				configs = append(configs, TestConfiguration{
					ResourceLimit:    limit,
					WorkerThreads:    threads,
					PoolSize:         Round(float64(threads) * pm),
					ThreadMultiplier: tm,
					PoolMultiplier:   pm,
				})
			}
		}
	}

	return configs
}

// Round rounds half to even, so 12.5 becomes 12 and 7.5 becomes 8.
func Round(v float64) int {
	return int(math.RoundToEven(v))
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}
