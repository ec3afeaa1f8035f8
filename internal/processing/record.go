package processing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DeafMist/amendment-radar/internal/models"
)

const (
	// UnknownValue fills sponsor fields the upstream record omits.
	UnknownValue = "Unknown"
	// DefaultStatus is used when a bill has no recorded latest action.
	DefaultStatus = "Introduced"
)

// The defaulting helpers below treat empty and whitespace-only values as
// missing.

// SponsorName picks, in order: full name, plain name, UnknownValue.
func SponsorName(s *models.Sponsor) string {
	if s == nil {
		return UnknownValue
	}
	return firstNonEmpty(s.FullName, s.Name, UnknownValue)
}

// SponsorParty returns the party or UnknownValue.
func SponsorParty(s *models.Sponsor) string {
	if s == nil {
		return UnknownValue
	}
	return firstNonEmpty(s.Party, UnknownValue)
}

// SponsorState returns the state or UnknownValue.
func SponsorState(s *models.Sponsor) string {
	if s == nil {
		return UnknownValue
	}
	return firstNonEmpty(s.State, UnknownValue)
}

// SponsorDistrict returns a copy of the district, or nil when not applicable.
func SponsorDistrict(s *models.Sponsor) *int {
	if s == nil || s.District == nil {
		return nil
	}
	d := *s.District
	return &d
}

// StatusText picks the latest action text, falling back to DefaultStatus.
func StatusText(a *models.LatestAction) string {
	if a == nil {
		return DefaultStatus
	}
	return firstNonEmpty(a.Text, DefaultStatus)
}

// StatusDate picks the latest action date, falling back to the introduction date.
func StatusDate(a *models.LatestAction, introduced string) string {
	if a == nil {
		return introduced
	}
	return firstNonEmpty(a.ActionDate, introduced)
}

// BillNumber renders the display number, e.g. "HJRES 1".
func BillNumber(billType, number string) string {
	return strings.TrimSpace(billType + " " + number)
}

// BillURL builds the public congress.gov page for a bill.
func BillURL(congress int, billType, number string) string {
	slug := strings.ReplaceAll(strings.ToLower(billType), ".", "-")
	return fmt.Sprintf("https://www.congress.gov/bill/%s-congress/%s/%s", Ordinal(congress), slug, number)
}

// Ordinal renders n with its English suffix: 1st, 2nd, 113th, 119th.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// BuildRecord assembles the public record for an enriched candidate.
func BuildRecord(congress int, summary models.BillSummary, detail models.BillDetail, cosponsors int) models.AmendmentRecord {
	sponsor := detail.PrimarySponsor()
	if cosponsors < 0 {
		cosponsors = 0
	}

	return models.AmendmentRecord{
		Number:         BillNumber(summary.Type, summary.Number),
		Title:          summary.Title,
		IntroducedDate: detail.IntroducedDate,
		Sponsor: models.SponsorRecord{
			Name:     SponsorName(sponsor),
			Party:    SponsorParty(sponsor),
			State:    SponsorState(sponsor),
			District: SponsorDistrict(sponsor),
		},
		Status:          StatusText(detail.LatestAction),
		StatusDate:      StatusDate(detail.LatestAction, detail.IntroducedDate),
		CosponsorsCount: cosponsors,
		CongressURL:     BillURL(congress, summary.Type, summary.Number),
	}
}

// SortByIntroducedDesc orders records most recent first. Dates are ISO
// YYYY-MM-DD strings, so lexical order is chronological. Ties keep input order.
func SortByIntroducedDesc(records []models.AmendmentRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].IntroducedDate > records[j].IntroducedDate
	})
}

// firstNonEmpty returns the first value that is not blank after trimming.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
