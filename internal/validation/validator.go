package validation

import (
	"fmt"

	"github.com/tphakala/releasewatch/internal/model"
)

// DefaultMinValidScore is the lowest score at which an extraction is valid.
const DefaultMinValidScore = 40

// Validator checks an extraction against the scraped content it came from.
type Validator struct {
	scorer        Scorer
	minValidScore int
}

// NewValidator creates a validator scoring with scorer.
func NewValidator(scorer Scorer, minValidScore int) *Validator {
	return &Validator{scorer: scorer, minValidScore: minValidScore}
}

// ValidateExtraction decides whether extracted describes target according to content.
//
// Without a claimed current version there is nothing to contradict and the model's
// confidence stands. A product name missing from content is a hard rejection with
// confidence 0. Otherwise proximity is scored and compared against the minimum bar.
func (v *Validator) ValidateExtraction(target model.Target, extracted *model.ExtractionResult, content string) model.ValidationOutcome {
	if extracted == nil {
		return model.ValidationOutcome{Reason: "no extraction result", Proximity: -1}
	}

	if !extracted.HasCurrentVersion() {
		return model.ValidationOutcome{
			Valid:            true,
			Confidence:       clamp(extracted.AIConfidence, 0, 100),
			Reason:           "no current version claimed",
			ProductNameFound: ValidateProductName(target.Name, content),
			Proximity:        -1,
		}
	}

	if !ValidateProductName(target.Name, content) {
		return model.ValidationOutcome{
			Valid:      false,
			Confidence: 0,
			Reason:     fmt.Sprintf("product name mismatch: %q not found in page content, likely wrong product", target.Name),
			Proximity:  -1,
		}
	}

	proximity := CalculateProximity(target.Name, extracted.CurrentVersion, content)
	score := v.scorer.Score(ScoreInput{
		AIConfidence:     extracted.AIConfidence,
		ProductNameFound: true,
		Proximity:        proximity,
	})

	outcome := model.ValidationOutcome{
		Valid:            score >= v.minValidScore,
		Confidence:       score,
		ProductNameFound: true,
		Proximity:        proximity,
	}

	switch {
	case !outcome.Valid && proximity < 0:
		outcome.Reason = fmt.Sprintf("version %s not found in page content (score %d below %d)", extracted.CurrentVersion, score, v.minValidScore)
	case !outcome.Valid:
		outcome.Reason = fmt.Sprintf("score %d below minimum %d (version %d characters from product name)", score, v.minValidScore, proximity)
	case proximity < 0:
		outcome.Reason = fmt.Sprintf("version %s not quoted verbatim, accepted on model confidence", extracted.CurrentVersion)
	default:
		outcome.Reason = fmt.Sprintf("version %s found %d characters from product name", extracted.CurrentVersion, proximity)
	}

	return outcome
}

// Score exposes the validator's scorer for the final, anomaly-aware score.
func (v *Validator) Score(in ScoreInput) int {
	return v.scorer.Score(in)
}
