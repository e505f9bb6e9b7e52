package validation

// ScoreInput carries the signals combined into one confidence score.
type ScoreInput struct {
	AIConfidence     int
	ProductNameFound bool
	Proximity        int // -1 when the version text was not found
	HasAnomaly       bool
}

// ScorerConfig holds the penalty curve.
type ScorerConfig struct {
	// Beyond NearDistance characters NearPenalty applies, beyond FarDistance FarPenalty.
	NearDistance int `mapstructure:"neardistance"`
	FarDistance  int `mapstructure:"fardistance"`
	NearPenalty  int `mapstructure:"nearpenalty"`
	FarPenalty   int `mapstructure:"farpenalty"`

	// NotFoundPenalty applies when proximity is -1.
	NotFoundPenalty int `mapstructure:"notfoundpenalty"`

	// AnomalyCeiling is the highest score an anomalous transition can reach.
	AnomalyCeiling int `mapstructure:"anomalyceiling"`
}

// DefaultScorerConfig returns the default penalty curve.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		NearDistance:    200,
		FarDistance:     500,
		NearPenalty:     10,
		FarPenalty:      25,
		NotFoundPenalty: 30,
		AnomalyCeiling:  50,
	}
}

// Scorer combines validation and anomaly signals into a 0..100 score.
// The zero value is not usable; construct with NewScorer.
type Scorer struct {
	cfg ScorerConfig
}

// NewScorer creates a scorer with cfg.
func NewScorer(cfg ScorerConfig) Scorer {
	return Scorer{cfg: cfg}
}

// Config returns the scorer's penalty curve.
func (s Scorer) Config() ScorerConfig {
	return s.cfg
}

// Score returns 0 when the product name was not found. Otherwise it starts from
// the model's confidence, subtracts the proximity penalty, caps the result at the
// anomaly ceiling when an anomaly is present and clamps to [0, 100].
func (s Scorer) Score(in ScoreInput) int {
	if !in.ProductNameFound {
		return 0
	}

	score := in.AIConfidence - s.proximityPenalty(in.Proximity)

	if in.HasAnomaly {
		score = min(score, s.cfg.AnomalyCeiling)
	}

	return clamp(score, 0, 100)
}

func (s Scorer) proximityPenalty(proximity int) int {
	switch {
	case proximity < 0:
		return s.cfg.NotFoundPenalty
	case proximity > s.cfg.FarDistance:
		return s.cfg.FarPenalty
	case proximity > s.cfg.NearDistance:
		return s.cfg.NearPenalty
	default:
		return 0
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
