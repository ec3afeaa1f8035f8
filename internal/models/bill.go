package models

// BillSummary is one entry of the upstream bill list endpoint.
type BillSummary struct {
	Congress       int    `json:"congress"`
	Type           string `json:"type"`
	Number         string `json:"number"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	OriginChamber  string `json:"originChamber,omitempty"`
	IntroducedDate string `json:"introducedDate,omitempty"`
}

// BillDetail is the subset of the upstream bill record the digest reads.
type BillDetail struct {
	IntroducedDate string        `json:"introducedDate"`
	Sponsors       []Sponsor     `json:"sponsors"`
	LatestAction   *LatestAction `json:"latestAction"`
}

// Sponsor is a legislator entry as returned upstream.
type Sponsor struct {
	BioguideID string `json:"bioguideId"`
	FullName   string `json:"fullName"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Name       string `json:"name"`
	Party      string `json:"party"`
	State      string `json:"state"`
	District   *int   `json:"district"`
}

// LatestAction is the most recent recorded action on a bill.
type LatestAction struct {
	Text       string `json:"text"`
	ActionDate string `json:"actionDate"`
}

// PrimarySponsor returns the first listed sponsor, or nil.
func (d BillDetail) PrimarySponsor() *Sponsor {
	if len(d.Sponsors) == 0 {
		return nil
	}
	return &d.Sponsors[0]
}
