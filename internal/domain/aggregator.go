package domain

// SystemScore is the aggregate human score of one system.
type SystemScore struct {
	// Mean is the headline score used to order systems.
	Mean float64

	// DomainMeans holds the mean score of the system within each domain.
	DomainMeans map[string]float64
}

// ScoreAggregator defines the interface for turning a system's frozen
// per-segment scores into the headline mean that orders systems.
// Implementations provide different averaging strategies such as the
// domain-stratified (macro) mean or the flat (micro) mean.
type ScoreAggregator interface {
	// Name returns the strategy identifier used in configuration.
	Name() string

	// Aggregate computes the score of one system in the dataset.
	//
	// The method should handle edge cases such as:
	//   - Unknown systems (return ErrUnknownSystem)
	//   - Systems with no judged segments (return ErrEmptyValue)
	//
	// Example:
	//
	//	score, err := aggregator.Aggregate(ds, "ONLINE-B")
	//	fmt.Printf("%.1f\n", score.Mean)
	Aggregate(ds *Dataset, systemID string) (SystemScore, error)
}
