package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, raw := range []string{"books", "movies", "music"} {
		c, err := ParseCategory(raw)
		require.NoError(t, err)
		assert.Equal(t, Category(raw), c)
	}

	for _, raw := range []string{"", "Books", "games", "book"} {
		_, err := ParseCategory(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseAudienceDefaultsToAdult(t *testing.T) {
	assert.Equal(t, AudienceTeen, ParseAudience("teenager"))
	assert.Equal(t, AudienceStudent, ParseAudience("student"))
	assert.Equal(t, AudienceAdult, ParseAudience("adult"))
	assert.Equal(t, AudienceAdult, ParseAudience(""))
	assert.Equal(t, AudienceAdult, ParseAudience("retiree"))
	assert.Equal(t, AudienceAdult, ParseAudience("Teenager"))
}
