// Package matching implements the retrieve-filter-pace-rank pipeline: the
// request/response shapes, the boost and difficulty-estimation helpers,
// and the orchestrating service that is the only component calling every
// other port.
package matching

// Constraints carries the declarative targeting and policy-opt-in fields
// of a match request. It has no enabled toggle — constraints are purely
// descriptive of what the caller wants, never of catalog state.
type Constraints struct {
	Topics            []string `json:"topics,omitempty"`
	Verticals         []string `json:"verticals,omitempty"`
	AudienceSegments  []string `json:"audience_segments,omitempty"`
	Keywords          []string `json:"keywords,omitempty"`
	Locale            string   `json:"locale,omitempty"`
	ExcludeAdvertiser []string `json:"exclude_advertiser_ids,omitempty"`
	ExcludeCampaign   []string `json:"exclude_campaign_ids,omitempty"`
	ExcludeCreative   []string `json:"exclude_creative_ids,omitempty"`
	AgeRestrictedOK   bool     `json:"age_restricted_ok"`
	SensitiveOK       bool     `json:"sensitive_ok"`
}

// AsMap renders the constraints for embedding in an audit trace, where
// they are captured as a loosely-typed snapshot rather than re-parsed.
func (c Constraints) AsMap() map[string]any {
	return map[string]any{
		"topics":                  c.Topics,
		"verticals":               c.Verticals,
		"audience_segments":       c.AudienceSegments,
		"keywords":                c.Keywords,
		"locale":                  c.Locale,
		"exclude_advertiser_ids":  c.ExcludeAdvertiser,
		"exclude_campaign_ids":    c.ExcludeCampaign,
		"exclude_creative_ids":    c.ExcludeCreative,
		"age_restricted_ok":       c.AgeRestrictedOK,
		"sensitive_ok":            c.SensitiveOK,
	}
}

// Placement is annotate-only context about where a creative would render.
type Placement struct {
	Placement string `json:"placement"`
	Surface   string `json:"surface"`
}

// knownPlacements is the advertised set; unknown values are accepted but
// flagged, never rejected.
var knownPlacements = map[string]bool{"inline": true, "sidebar": true, "banner": true}

// Request is a single match call's input.
type Request struct {
	ContextText string
	TopK        int
	Placement   Placement
	Constraints Constraints
	Boost       map[string]float64
}

// Candidate is the response-shaped hit.
type Candidate struct {
	CreativeID   string  `json:"creative_id"`
	CampaignID   string  `json:"campaign_id"`
	AdvertiserID string  `json:"advertiser_id"`
	CampaignName string  `json:"campaign_name"`
	Title        string  `json:"title"`
	Body         string  `json:"body"`
	CTAText      string  `json:"cta_text"`
	LandingURL   string  `json:"landing_url"`
	Score        float64 `json:"score"`
	MatchID      string  `json:"match_id"`
	PacingWeight float64 `json:"pacing_weight"`
	PacingReason string  `json:"pacing_reason"`
	BoostApplied float64 `json:"boost_applied"`
}

// Response is a single match call's output.
type Response struct {
	Candidates       []Candidate    `json:"candidates"`
	RequestID        string         `json:"request_id"`
	Placement        string         `json:"placement"`
	Warnings         []string       `json:"warnings"`
	ConstraintImpact map[string]int `json:"constraint_impact"`
	// Difficulty is available to Go callers of Service.Match; it is not
	// serialized, so the JSON envelope holds only the fields above.
	Difficulty *Difficulty `json:"-"`
}
