package processing

import (
	"strings"

	"github.com/DeafMist/amendment-radar/internal/models"
)

// AmendmentMarker is the title phrase carried by every joint resolution
// that proposes a constitutional amendment.
const AmendmentMarker = "Proposing an amendment to the Constitution"

// IsAmendmentProposal reports whether the title marks a constitutional amendment.
func IsAmendmentProposal(title string) bool {
	return title != "" && strings.Contains(title, AmendmentMarker)
}

// FilterAmendments keeps the summaries whose title marks an amendment proposal.
// The input is not modified and order is preserved.
func FilterAmendments(bills []models.BillSummary) []models.BillSummary {
	out := make([]models.BillSummary, 0, len(bills))
	for _, b := range bills {
		if IsAmendmentProposal(b.Title) {
			out = append(out, b)
		}
	}
	return out
}
