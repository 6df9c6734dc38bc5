package targeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilter_LocaleGlobality(t *testing.T) {
	e := NewEngine()
	f := e.BuildFilter(Constraints{Locale: "en-US"}, Placement{})

	assert.Len(t, f.Must, 1)
	assert.Equal(t, FieldFilter{Key: "locale", Op: AnyOf, Value: []string{"en-US", ""}}, f.Must[0])
	assert.Empty(t, f.MustNot)
}

func TestBuildFilter_TopicsVerticalsAudienceKeywords(t *testing.T) {
	e := NewEngine()
	c := Constraints{
		Topics:           []string{"finance", "travel"},
		Verticals:        []string{"auto"},
		AudienceSegments: []string{"parents"},
		Keywords:         []string{"sale"},
	}
	f := e.BuildFilter(c, Placement{})

	assert.Contains(t, f.Must, FieldFilter{Key: "topics", Op: AnyOf, Value: c.Topics})
	assert.Contains(t, f.Must, FieldFilter{Key: "verticals", Op: AnyOf, Value: c.Verticals})
	assert.Contains(t, f.Must, FieldFilter{Key: "audience_segments", Op: AnyOf, Value: c.AudienceSegments})
	assert.Contains(t, f.Must, FieldFilter{Key: "keywords", Op: AnyOf, Value: c.Keywords})
}

func TestBuildFilter_Exclusions(t *testing.T) {
	e := NewEngine()
	c := Constraints{
		ExcludeAdvertiser: []string{"adv-1"},
		ExcludeCampaign:   []string{"camp-1"},
		ExcludeCreative:   []string{"cr-1"},
	}
	f := e.BuildFilter(c, Placement{})

	assert.Contains(t, f.MustNot, FieldFilter{Key: "advertiser_id", Op: NotIn, Value: c.ExcludeAdvertiser})
	assert.Contains(t, f.MustNot, FieldFilter{Key: "campaign_id", Op: NotIn, Value: c.ExcludeCampaign})
	assert.Contains(t, f.MustNot, FieldFilter{Key: "creative_id", Op: NotIn, Value: c.ExcludeCreative})
}

func TestBuildFilter_EmptyConstraintsProduceEmptyFilter(t *testing.T) {
	e := NewEngine()
	f := e.BuildFilter(Constraints{}, Placement{Placement: "inline", Surface: "feed"})
	assert.True(t, f.IsEmpty())
}

func TestBuildFilter_PlacementNeverFilters(t *testing.T) {
	e := NewEngine()
	withPlacement := e.BuildFilter(Constraints{Topics: []string{"x"}}, Placement{Placement: "sidebar", Surface: "app"})
	withoutPlacement := e.BuildFilter(Constraints{Topics: []string{"x"}}, Placement{})
	assert.Equal(t, withoutPlacement, withPlacement)
}

func TestBuildFilter_PolicyBooleansNeverProducePredicates(t *testing.T) {
	e := NewEngine()
	f := e.BuildFilter(Constraints{AgeRestrictedOK: true, SensitiveOK: true}, Placement{})
	assert.True(t, f.IsEmpty())
}

func TestNewFieldFilter_RejectsUnknownOperator(t *testing.T) {
	_, err := NewFieldFilter("topics", Op("contains"), "x")
	assert.Error(t, err)
}

func TestNewFieldFilter_RejectsEmptyKey(t *testing.T) {
	_, err := NewFieldFilter("", Equals, "x")
	assert.Error(t, err)
}

func TestNewFieldFilter_AllOfAccepted(t *testing.T) {
	f, err := NewFieldFilter("topics", AllOf, []string{"a", "b"})
	assert.NoError(t, err)
	assert.Equal(t, AllOf, f.Op)
}
