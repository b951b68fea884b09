package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrailStringRendersFieldsAndIndices(t *testing.T) {
	trail := Root("msg").Extend(StringQualifier("items")).Extend(IntQualifier(3))
	assert.Equal(t, "msg.items[3]", trail.String())
}

func TestPatternPrefixMatch(t *testing.T) {
	pattern := NewPattern("msg", StringQualifier("items"))
	trail := Root("msg").Extend(StringQualifier("items")).Extend(IntQualifier(3))
	assert.True(t, pattern.Matches(trail))
}

func TestPatternWildcard(t *testing.T) {
	pattern := NewPattern("msg", StringQualifier("items"), Wildcard())
	trail := Root("msg").Extend(StringQualifier("items")).Extend(IntQualifier(7))
	assert.True(t, pattern.Matches(trail))
}

func TestPatternRootMismatch(t *testing.T) {
	pattern := NewPattern("other")
	trail := Root("msg")
	assert.False(t, pattern.Matches(trail))
}

func TestPatternLongerThanTrailDoesNotMatch(t *testing.T) {
	pattern := NewPattern("msg", StringQualifier("items"), StringQualifier("nested"))
	trail := Root("msg").Extend(StringQualifier("items"))
	assert.False(t, pattern.Matches(trail))
}

func TestEmptyTrailNeverMatches(t *testing.T) {
	pattern := NewPattern("msg")
	assert.False(t, pattern.Matches(Empty()))
}
