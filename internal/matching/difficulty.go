package matching

import "strings"

// Difficulty is a heuristic estimate of how hard a request will be to
// match well, surfaced to callers so they can refine a request before
// spending a real retrieval call on it.
type Difficulty struct {
	Score           float64  `json:"difficulty_score"`
	Label           string   `json:"difficulty_label"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// EstimateDifficulty scores a request on context quality, constraint
// specificity, exclusion strictness, policy restrictiveness, and
// boost/top_k shape. It never touches the index — purely a function of the
// request as submitted.
func EstimateDifficulty(req Request) Difficulty {
	var score float64
	var factors, recommendations []string

	contextLen := len(strings.TrimSpace(req.ContextText))
	switch {
	case contextLen < 20:
		score += 2.5
		factors = append(factors, "short context (< 20 chars) reduces semantic confidence")
		recommendations = append(recommendations, "provide more context (30+ chars) for better matches")
	case contextLen < 50:
		score += 1.5
		factors = append(factors, "moderate context length")
	default:
		factors = append(factors, "good context length")
	}

	constraintCount := 0
	for _, nonEmpty := range []bool{
		len(req.Constraints.Topics) > 0,
		len(req.Constraints.Verticals) > 0,
		len(req.Constraints.AudienceSegments) > 0,
		req.Constraints.Locale != "",
	} {
		if nonEmpty {
			constraintCount++
		}
	}
	switch {
	case constraintCount == 0:
		score += 0.5
		factors = append(factors, "no constraints specified (very broad)")
		recommendations = append(recommendations, "add topics/verticals/audience_segments for better precision")
	case constraintCount == 1:
		score += 1.0
		factors = append(factors, "single constraint (good balance)")
	case constraintCount >= 3:
		score += 2.0
		factors = append(factors, "multiple constraints (may reduce match rate)")
		recommendations = append(recommendations, "consider relaxing 1-2 constraints if match rate is low")
	}

	exclusionCount := 0
	for _, list := range [][]string{req.Constraints.ExcludeAdvertiser, req.Constraints.ExcludeCampaign, req.Constraints.ExcludeCreative} {
		if len(list) > 0 {
			exclusionCount++
		}
	}
	if exclusionCount > 0 {
		add := float64(exclusionCount)
		if add > 2.0 {
			add = 2.0
		}
		score += add
		factors = append(factors, "excluding creatives by identifier narrows the candidate pool")
	}

	if !req.Constraints.AgeRestrictedOK {
		score += 0.5
		factors = append(factors, "age-restricted campaigns excluded")
	}
	if !req.Constraints.SensitiveOK {
		score += 0.5
		factors = append(factors, "sensitive campaigns excluded")
	}

	if len(req.Boost) > 5 {
		score += 0.5
		factors = append(factors, "many boost keywords may reduce signal")
	}

	if req.TopK > 20 {
		score += 0.5
		factors = append(factors, "high top_k may include low-confidence matches")
		recommendations = append(recommendations, "consider reducing top_k for higher quality matches")
	}

	if score > 10.0 {
		score = 10.0
	}
	label := "easy"
	switch {
	case score >= 6:
		label = "hard"
	case score >= 3:
		label = "moderate"
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "request looks reasonable; no specific recommendations")
	}

	return Difficulty{
		Score:           roundTo1Decimal(score),
		Label:           label,
		Factors:         factors,
		Recommendations: recommendations,
	}
}

func roundTo1Decimal(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
