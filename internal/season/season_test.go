package season_test

import (
	"testing"

	"ms-excursions/internal/models"
	"ms-excursions/internal/season"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonForDerivesYear(t *testing.T) {
	for day, want := range map[string]int{
		"2026-02-21": 2026,
		"2026-12-31": 2026,
		"2027-01-01": 2027,
	} {
		got, err := season.SeasonFor(day)
		require.NoError(t, err, "day %q", day)
		assert.Equal(t, want, got)
	}
}

func TestSeasonForRejectsMalformedDay(t *testing.T) {
	for _, day := range []string{"", "2026", "21-02-2026", "2026-13-01", "abcd-02-21"} {
		_, err := season.SeasonFor(day)
		var vErr *models.ValidationError
		require.ErrorAs(t, err, &vErr, "day %q", day)
		assert.Equal(t, "business_day", vErr.Field)
	}
}
