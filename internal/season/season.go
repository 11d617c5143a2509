package season

import (
	"strconv"

	"ms-excursions/internal/models"
	"ms-excursions/internal/utils"
)

// SeasonFor derives the season id from a business day's leading year
// component. Seasons have no creation step; the derivation is the whole
// of their identity.
func SeasonFor(day string) (int, error) {
	if !utils.ValidBusinessDay(day) {
		return 0, &models.ValidationError{Field: "business_day", Reason: "malformed business day " + strconv.Quote(day)}
	}
	year, err := strconv.Atoi(day[:4])
	if err != nil {
		return 0, &models.ValidationError{Field: "business_day", Reason: "malformed year in " + strconv.Quote(day)}
	}
	return year, nil
}
