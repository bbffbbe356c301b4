package core

import "time"

// PolicySnapshot is an immutable capture of one policy term. Two of
// them back a comparison: the expiring (baseline) term and the
// upcoming renewal term. Snapshots are written once at ingestion and
// never mutated; the next term gets a new comparison instead.
type PolicySnapshot struct {
	Premium        float64          `json:"premium"`
	InsuredName    string           `json:"insured_name"`
	InsuredAddress string           `json:"insured_address"`
	Coverages      []CoverageLine   `json:"coverages"`
	Discounts      []Discount       `json:"discounts"`
	Drivers        []Driver         `json:"drivers"`
	Vehicles       []Vehicle        `json:"vehicles"`
	Mortgagees     []Mortgagee      `json:"mortgagees"`
	Claims         []CanonicalClaim `json:"claims"`
	Property       *PropertyContext `json:"property,omitempty"`
}

type CoverageLine struct {
	Type       string  `json:"type"`
	Limit      float64 `json:"limit"`
	Deductible float64 `json:"deductible"`
}

type Discount struct {
	Name string `json:"name"`
}

type Driver struct {
	Name        string     `json:"name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

type Vehicle struct {
	Description string `json:"description"`
}

type Mortgagee struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	LoanNumber string `json:"loan_number,omitempty"`
}

// CanonicalClaim is a loss record normalized by the upstream document
// pipeline. ClaimDate stays a string here: carriers deliver it in
// several formats and an unparseable date must not sink the snapshot.
type CanonicalClaim struct {
	ClaimNumber string `json:"claim_number,omitempty"`
	ClaimType   string `json:"claim_type,omitempty"`
	ClaimDate   string `json:"claim_date,omitempty"`
}

type PropertyContext struct {
	YearBuilt        int    `json:"year_built"`
	SquareFeet       int    `json:"square_feet"`
	ConstructionType string `json:"construction_type"`
	RoofType         string `json:"roof_type"`
	RoofAge          int    `json:"roof_age"`
}
