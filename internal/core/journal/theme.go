package journal

import (
	"strconv"
	"strings"

	"github.com/oppajeom/oppajeom/internal/core/hexagram"
	i18n "github.com/oppajeom/oppajeom/internal/platform/i18n/catalog"
)

// Track names the four-week arc a hexagram follows.
type Track string

const (
	// TrackChange follows the moving lines toward the transformed hexagram.
	TrackChange Track = "change"
	// TrackStill deepens a hexagram without moving lines.
	TrackStill Track = "still"
)

// TrackFor returns the arc for a reading.
func TrackFor(reading hexagram.Reading) Track {
	if reading.TransformedRecord != nil {
		return TrackChange
	}
	return TrackStill
}

// Theme renders the instruction that frames a week in the given locale.
func Theme(locale string, week int, reading hexagram.Reading) (string, error) {
	if err := ValidateWeek(week); err != nil {
		return "", err
	}
	track := TrackFor(reading)
	key := "journal.theme." + string(track) + "." + strconv.Itoa(week)
	p := i18n.Printer(locale)

	switch {
	case week == 1:
		return p.Sprintf(key, reading.Record.Name), nil
	case track == TrackChange && week == 2:
		return p.Sprintf(key, joinPositions(reading.MovingLines)), nil
	case track == TrackChange && week == 3:
		return p.Sprintf(key, reading.TransformedRecord.Name), nil
	default:
		return p.Sprintf(key), nil
	}
}

// ChangedName returns the transformed hexagram's name or the localized
// "no change" label.
func ChangedName(locale string, reading hexagram.Reading) string {
	if reading.TransformedRecord != nil {
		return reading.TransformedRecord.Name
	}
	return i18n.Printer(locale).Sprintf("journal.no_change")
}

func joinPositions(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
