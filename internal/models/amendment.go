package models

import "time"

// AmendmentRecord is the public shape of one proposed amendment.
type AmendmentRecord struct {
	Number          string        `json:"number"`
	Title           string        `json:"title"`
	IntroducedDate  string        `json:"introducedDate"`
	Sponsor         SponsorRecord `json:"sponsor"`
	Status          string        `json:"status"`
	StatusDate      string        `json:"statusDate"`
	CosponsorsCount int           `json:"cosponsorsCount"`
	CongressURL     string        `json:"congressUrl"`
}

// SponsorRecord is the sponsor block of an AmendmentRecord. District is nil
// for seats without one, which encodes as JSON null.
type SponsorRecord struct {
	Name     string `json:"name"`
	Party    string `json:"party"`
	State    string `json:"state"`
	District *int   `json:"district"`
}

// Digest is the payload served by the API.
type Digest struct {
	Count       int               `json:"count"`
	Congress    int               `json:"congress"`
	LastUpdated time.Time         `json:"lastUpdated"`
	Amendments  []AmendmentRecord `json:"amendments"`
}
