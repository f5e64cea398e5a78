package mapview

import "github.com/benchcutlogic/local-weather/internal/domain"

// UnavailableMessage is rendered when there is no card source at all. The
// fallback surface never renders empty without saying why.
const UnavailableMessage = "Microclimate details are unavailable right now."

// FallbackCard is one entry of the degraded list presentation. Zone is nil
// on the deepest tier, where only the host's static AOI list is available.
type FallbackCard struct {
	Aoi  domain.AoiCard
	Zone *domain.ZoneMetric
}

// FallbackContent derives the fallback card list. The tiers, in order: AOIs
// of the fetched summary with their parent zone's metrics attached; the
// statically supplied geometry-free list when no summary (or an AOI-less
// one) is available; and an explicit unavailable notice when both are empty.
//
// Both the controller and the server-rendered page call this, so the two
// presentations of the same data cannot drift.
func FallbackContent(summary *domain.ZoneSummaryResponse, static []domain.AoiCard) ([]FallbackCard, string) {
	if summary != nil && len(summary.Aois) > 0 {
		cards := make([]FallbackCard, 0, len(summary.Aois))
		for _, a := range summary.Aois {
			// The back-reference always resolves in a validated summary.
			z, ok := summary.ZoneByID(a.ZoneID)
			card := FallbackCard{Aoi: a}
			if ok {
				zone := z
				card.Zone = &zone
			}
			cards = append(cards, card)
		}
		return cards, ""
	}

	if len(static) > 0 {
		cards := make([]FallbackCard, 0, len(static))
		for _, a := range static {
			cards = append(cards, FallbackCard{Aoi: a})
		}
		return cards, ""
	}

	return nil, UnavailableMessage
}
