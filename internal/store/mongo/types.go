package mongo

import (
	"time"

	"github.com/mdelaney/renewal-ops/internal/core"
)

const (
	ColComparisons = "renewal_comparisons"
)

type SnapshotDoc struct {
	Premium        float64             `bson:"premium"`
	InsuredName    string              `bson:"insured_name"`
	InsuredAddress string              `bson:"insured_address"`
	Coverages      []CoverageLineDoc   `bson:"coverages,omitempty"`
	Discounts      []string            `bson:"discounts,omitempty"`
	Drivers        []DriverDoc         `bson:"drivers,omitempty"`
	Vehicles       []string            `bson:"vehicles,omitempty"`
	Mortgagees     []MortgageeDoc      `bson:"mortgagees,omitempty"`
	Claims         []ClaimDoc          `bson:"claims,omitempty"`
	Property       *PropertyContextDoc `bson:"property,omitempty"`
}

type CoverageLineDoc struct {
	Type       string  `bson:"type"`
	Limit      float64 `bson:"limit"`
	Deductible float64 `bson:"deductible"`
}

type DriverDoc struct {
	Name        string     `bson:"name"`
	DateOfBirth *time.Time `bson:"date_of_birth,omitempty"`
}

type MortgageeDoc struct {
	Name       string `bson:"name"`
	Type       string `bson:"type"`
	LoanNumber string `bson:"loan_number,omitempty"`
}

type ClaimDoc struct {
	ClaimNumber string `bson:"claim_number,omitempty"`
	ClaimType   string `bson:"claim_type,omitempty"`
	ClaimDate   string `bson:"claim_date,omitempty"`
}

type PropertyContextDoc struct {
	YearBuilt        int    `bson:"year_built"`
	SquareFeet       int    `bson:"square_feet"`
	ConstructionType string `bson:"construction_type"`
	RoofType         string `bson:"roof_type"`
	RoofAge          int    `bson:"roof_age"`
}

type MaterialChangeDoc struct {
	Category       string   `bson:"category"`
	Field          string   `bson:"field,omitempty"`
	Description    string   `bson:"description"`
	Classification string   `bson:"classification"`
	ChangeAmount   *float64 `bson:"change_amount,omitempty"`
}

type CheckResultDoc struct {
	RuleID      string     `bson:"rule_id"`
	Category    string     `bson:"category"`
	Field       string     `bson:"field"`
	Severity    string     `bson:"severity"`
	Message     string     `bson:"message"`
	Change      string     `bson:"change"`
	AgentAction string     `bson:"agent_action,omitempty"`
	Reviewed    bool       `bson:"reviewed"`
	ReviewedBy  string     `bson:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `bson:"reviewed_at,omitempty"`
}

type CheckSummaryDoc struct {
	PipelineHalted bool     `bson:"pipeline_halted"`
	BlockerRuleIDs []string `bson:"blocker_rule_ids,omitempty"`
}

type DecisionDoc struct {
	Kind      string    `bson:"kind"`
	Notes     string    `bson:"notes,omitempty"`
	DecidedBy string    `bson:"decided_by"`
	DecidedAt time.Time `bson:"decided_at"`
}

type ComparisonDoc struct {
	ID                   string              `bson:"_id"`
	PolicyNumber         string              `bson:"policy_number"`
	LineOfBusiness       string              `bson:"line_of_business"`
	Line                 string              `bson:"line"`
	Baseline             *SnapshotDoc        `bson:"baseline,omitempty"`
	Renewal              SnapshotDoc         `bson:"renewal"`
	Changes              []MaterialChangeDoc `bson:"changes,omitempty"`
	Checks               []CheckResultDoc    `bson:"checks,omitempty"`
	Summary              CheckSummaryDoc     `bson:"summary"`
	PremiumChangePercent *float64            `bson:"premium_change_percent,omitempty"`
	PremiumChangeAmount  *float64            `bson:"premium_change_amount,omitempty"`
	Status               string              `bson:"status"`
	StatusSynced         bool                `bson:"status_synced"`
	Decision             *DecisionDoc        `bson:"decision,omitempty"`
	DecisionHistory      []DecisionDoc       `bson:"decision_history,omitempty"`
	CreatedAt            time.Time           `bson:"created_at"`
	UpdatedAt            time.Time           `bson:"updated_at"`
}

func toSnapshotDoc(s core.PolicySnapshot) SnapshotDoc {
	doc := SnapshotDoc{
		Premium:        s.Premium,
		InsuredName:    s.InsuredName,
		InsuredAddress: s.InsuredAddress,
	}
	for _, c := range s.Coverages {
		doc.Coverages = append(doc.Coverages, CoverageLineDoc(c))
	}
	for _, d := range s.Discounts {
		doc.Discounts = append(doc.Discounts, d.Name)
	}
	for _, d := range s.Drivers {
		doc.Drivers = append(doc.Drivers, DriverDoc(d))
	}
	for _, v := range s.Vehicles {
		doc.Vehicles = append(doc.Vehicles, v.Description)
	}
	for _, m := range s.Mortgagees {
		doc.Mortgagees = append(doc.Mortgagees, MortgageeDoc(m))
	}
	for _, c := range s.Claims {
		doc.Claims = append(doc.Claims, ClaimDoc(c))
	}
	if s.Property != nil {
		p := PropertyContextDoc(*s.Property)
		doc.Property = &p
	}
	return doc
}

func fromSnapshotDoc(doc SnapshotDoc) core.PolicySnapshot {
	s := core.PolicySnapshot{
		Premium:        doc.Premium,
		InsuredName:    doc.InsuredName,
		InsuredAddress: doc.InsuredAddress,
	}
	for _, c := range doc.Coverages {
		s.Coverages = append(s.Coverages, core.CoverageLine(c))
	}
	for _, d := range doc.Discounts {
		s.Discounts = append(s.Discounts, core.Discount{Name: d})
	}
	for _, d := range doc.Drivers {
		s.Drivers = append(s.Drivers, core.Driver(d))
	}
	for _, v := range doc.Vehicles {
		s.Vehicles = append(s.Vehicles, core.Vehicle{Description: v})
	}
	for _, m := range doc.Mortgagees {
		s.Mortgagees = append(s.Mortgagees, core.Mortgagee(m))
	}
	for _, c := range doc.Claims {
		s.Claims = append(s.Claims, core.CanonicalClaim(c))
	}
	if doc.Property != nil {
		p := core.PropertyContext(*doc.Property)
		s.Property = &p
	}
	return s
}

func toDecisionDoc(d core.Decision) DecisionDoc {
	return DecisionDoc{
		Kind:      string(d.Kind),
		Notes:     d.Notes,
		DecidedBy: d.DecidedBy,
		DecidedAt: d.DecidedAt,
	}
}

func fromDecisionDoc(doc DecisionDoc) core.Decision {
	return core.Decision{
		Kind:      core.DecisionKind(doc.Kind),
		Notes:     doc.Notes,
		DecidedBy: doc.DecidedBy,
		DecidedAt: doc.DecidedAt,
	}
}

func toComparisonDoc(c core.RenewalComparison) ComparisonDoc {
	doc := ComparisonDoc{
		ID:                   c.ID,
		PolicyNumber:         c.PolicyNumber,
		LineOfBusiness:       c.LineOfBusiness,
		Line:                 string(c.Line),
		Renewal:              toSnapshotDoc(c.Renewal),
		Summary:              CheckSummaryDoc(c.Summary),
		PremiumChangePercent: c.PremiumChangePercent,
		PremiumChangeAmount:  c.PremiumChangeAmount,
		Status:               string(c.Status),
		StatusSynced:         c.StatusSynced,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
	if c.Baseline != nil {
		b := toSnapshotDoc(*c.Baseline)
		doc.Baseline = &b
	}
	for _, ch := range c.Changes {
		doc.Changes = append(doc.Changes, MaterialChangeDoc{
			Category:       string(ch.Category),
			Field:          ch.Field,
			Description:    ch.Description,
			Classification: string(ch.Classification),
			ChangeAmount:   ch.ChangeAmount,
		})
	}
	for _, cr := range c.Checks {
		doc.Checks = append(doc.Checks, CheckResultDoc{
			RuleID:      cr.RuleID,
			Category:    cr.Category,
			Field:       cr.Field,
			Severity:    string(cr.Severity),
			Message:     cr.Message,
			Change:      cr.Change,
			AgentAction: cr.AgentAction,
			Reviewed:    cr.Reviewed,
			ReviewedBy:  cr.ReviewedBy,
			ReviewedAt:  cr.ReviewedAt,
		})
	}
	if c.Decision != nil {
		d := toDecisionDoc(*c.Decision)
		doc.Decision = &d
	}
	for _, d := range c.DecisionHistory {
		doc.DecisionHistory = append(doc.DecisionHistory, toDecisionDoc(d))
	}
	return doc
}

func fromComparisonDoc(doc ComparisonDoc) core.RenewalComparison {
	c := core.RenewalComparison{
		ID:                   doc.ID,
		PolicyNumber:         doc.PolicyNumber,
		LineOfBusiness:       doc.LineOfBusiness,
		Line:                 core.LineKind(doc.Line),
		Renewal:              fromSnapshotDoc(doc.Renewal),
		Summary:              core.CheckSummary(doc.Summary),
		PremiumChangePercent: doc.PremiumChangePercent,
		PremiumChangeAmount:  doc.PremiumChangeAmount,
		Status:               core.ComparisonStatus(doc.Status),
		StatusSynced:         doc.StatusSynced,
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}
	if doc.Baseline != nil {
		b := fromSnapshotDoc(*doc.Baseline)
		c.Baseline = &b
	}
	for _, ch := range doc.Changes {
		c.Changes = append(c.Changes, core.MaterialChange{
			Category:       core.ChangeCategory(ch.Category),
			Field:          ch.Field,
			Description:    ch.Description,
			Classification: core.ChangeClass(ch.Classification),
			ChangeAmount:   ch.ChangeAmount,
		})
	}
	for _, cr := range doc.Checks {
		c.Checks = append(c.Checks, core.CheckResult{
			RuleID:      cr.RuleID,
			Category:    cr.Category,
			Field:       cr.Field,
			Severity:    core.CheckSeverity(cr.Severity),
			Message:     cr.Message,
			Change:      cr.Change,
			AgentAction: cr.AgentAction,
			Reviewed:    cr.Reviewed,
			ReviewedBy:  cr.ReviewedBy,
			ReviewedAt:  cr.ReviewedAt,
		})
	}
	if doc.Decision != nil {
		d := fromDecisionDoc(*doc.Decision)
		c.Decision = &d
	}
	for _, d := range doc.DecisionHistory {
		c.DecisionHistory = append(c.DecisionHistory, fromDecisionDoc(d))
	}
	return c
}
