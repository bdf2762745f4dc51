package pricing

// Greeks are the sensitivities of the option price to its inputs.
// Theta is per calendar day; Vega and Rho are per 1% change in
// volatility and rate respectively, matching common market convention.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// Interval is a confidence interval around a simulated price.
type Interval struct {
	Low      float64
	High     float64
	StdError float64
}

// Result is produced fresh on every Price call; models never share
// mutable state between calls.
type Result struct {
	Price  float64
	Greeks *Greeks // nil when the model does not compute sensitivities

	// Simulation-only fields.
	Confidence *Interval
	Paths      int

	// EarlyExerciseNodes counts lattice nodes where early exercise was
	// optimal (American binomial only).
	EarlyExerciseNodes int

	// Warning carries a non-fatal diagnostic such as a Monte Carlo
	// standard error above the configured threshold.
	Warning string
}
