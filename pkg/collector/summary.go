package collector

import "github.com/beorn7/perks/quantile"

// depthQuantiles are the (quantile -> epsilon) targets tracked for the
// distribution of queue depths within a namespace.
//
var depthQuantiles = map[float64]float64{
	0.50: 0.01,
	0.90: 0.01,
	0.99: 0.001,
	1.00: 0.001,
}

// Summary accumulates observations into the count, sum and quantiles a
// prometheus summary is made of.
//
type Summary struct {
	count     uint64
	sum       float64
	targets   map[float64]float64
	quantiles map[float64]float64

	stream *quantile.Stream
}

func NewSummary(targets map[float64]float64) *Summary {
	return &Summary{
		targets:   targets,
		quantiles: make(map[float64]float64, len(targets)),
		stream:    quantile.NewTargeted(targets),
	}
}

func (s *Summary) Insert(v float64) {
	s.sum += v
	s.count++
	s.stream.Insert(v)
}

func (s *Summary) Count() uint64 {
	return s.count
}

func (s *Summary) Sum() float64 {
	return s.sum
}

// Quantiles queries the stream for every target. With no observations, all
// quantiles are 0.
//
func (s *Summary) Quantiles() map[float64]float64 {
	for phi := range s.targets {
		if s.count == 0 {
			s.quantiles[phi] = 0
			continue
		}

		s.quantiles[phi] = s.stream.Query(phi)
	}

	return s.quantiles
}
