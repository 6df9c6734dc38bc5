package targeting

// Constraints mirrors a match request's declarative targeting fields.
// Constraints have no enabled toggle — they are purely declarative; the
// enabled check lives in the policy engine and the index adapter.
type Constraints struct {
	Topics            []string
	Locale            string
	Verticals         []string
	AudienceSegments  []string
	Keywords          []string
	ExcludeAdvertiser []string
	ExcludeCampaign   []string
	ExcludeCreative   []string
	AgeRestrictedOK   bool
	SensitiveOK       bool
}

// Placement is annotate-only: it never produces a predicate.
type Placement struct {
	Placement string
	Surface   string
}

// Engine is a pure translator from constraints to a filter expression. It
// performs no I/O and holds no state.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// BuildFilter translates constraints into a VectorFilter per the additive
// rule list: each non-empty constraint list contributes one predicate;
// placement never contributes a predicate; policy booleans are enforced
// post-retrieval by the policy engine, not here.
func (e *Engine) BuildFilter(c Constraints, _ Placement) VectorFilter {
	var f VectorFilter

	if len(c.Topics) > 0 {
		f.Must = append(f.Must, FieldFilter{Key: "topics", Op: AnyOf, Value: c.Topics})
	}
	if c.Locale != "" {
		// The empty string is the catalog's convention for "global" creatives,
		// so a locale constraint must still admit globally-eligible creatives.
		f.Must = append(f.Must, FieldFilter{Key: "locale", Op: AnyOf, Value: []string{c.Locale, ""}})
	}
	if len(c.Verticals) > 0 {
		f.Must = append(f.Must, FieldFilter{Key: "verticals", Op: AnyOf, Value: c.Verticals})
	}
	if len(c.AudienceSegments) > 0 {
		f.Must = append(f.Must, FieldFilter{Key: "audience_segments", Op: AnyOf, Value: c.AudienceSegments})
	}
	if len(c.Keywords) > 0 {
		f.Must = append(f.Must, FieldFilter{Key: "keywords", Op: AnyOf, Value: c.Keywords})
	}

	if len(c.ExcludeAdvertiser) > 0 {
		f.MustNot = append(f.MustNot, FieldFilter{Key: "advertiser_id", Op: NotIn, Value: c.ExcludeAdvertiser})
	}
	if len(c.ExcludeCampaign) > 0 {
		f.MustNot = append(f.MustNot, FieldFilter{Key: "campaign_id", Op: NotIn, Value: c.ExcludeCampaign})
	}
	if len(c.ExcludeCreative) > 0 {
		f.MustNot = append(f.MustNot, FieldFilter{Key: "creative_id", Op: NotIn, Value: c.ExcludeCreative})
	}

	return f
}
