package core

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/mdelaney/renewal-ops/internal/surcharge"
)

func TestPremiumDelta(t *testing.T) {
	pct, amount := PremiumDelta(&PolicySnapshot{Premium: 1840}, PolicySnapshot{Premium: 2310})
	if amount == nil || *amount != 470 {
		t.Fatalf("amount = %v, want 470", amount)
	}
	if pct == nil || math.Abs(*pct-25.543478) > 0.001 {
		t.Fatalf("pct = %v, want ~25.54", pct)
	}

	// First-term policies have no baseline and no delta.
	pct, amount = PremiumDelta(nil, PolicySnapshot{Premium: 2310})
	if pct != nil || amount != nil {
		t.Errorf("delta without baseline = (%v, %v), want (nil, nil)", pct, amount)
	}

	// A zero baseline premium has an amount but no meaningful percent.
	pct, amount = PremiumDelta(&PolicySnapshot{Premium: 0}, PolicySnapshot{Premium: 900})
	if pct != nil {
		t.Errorf("pct with zero baseline = %v, want nil", pct)
	}
	if amount == nil || *amount != 900 {
		t.Errorf("amount with zero baseline = %v, want 900", amount)
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		lob  string
		want LineKind
	}{
		{"Homeowners HO3", LineHome},
		{"HO5 Premier", LineHome},
		{"DP3 Landlord", LineHome},
		{"Dwelling Fire", LineHome},
		{"Personal Auto", LineAuto},
		{"Commercial Vehicle", LineAuto},
		{"Umbrella", LineOther},
		{"", LineOther},
	}

	for _, tc := range tests {
		if got := ClassifyLine(tc.lob); got != tc.want {
			t.Errorf("ClassifyLine(%q) = %s, want %s", tc.lob, got, tc.want)
		}
	}
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewComparisonService(repo, surcharge.DefaultSchedule())

	c, err := svc.Ingest(ctx, IngestInput{
		PolicyNumber:   "HO3-4481920",
		LineOfBusiness: "Homeowners HO3",
		Baseline:       &PolicySnapshot{Premium: 1840},
		Renewal:        PolicySnapshot{Premium: 2310},
		Changes:        []MaterialChange{{Category: ChangeDiscountRemoved, Description: "Claim Free removed"}},
		Checks:         []CheckResult{{RuleID: "H-012", Severity: SeverityRemoved}},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if c.ID == "" {
		t.Errorf("ingest did not assign an ID")
	}
	if c.Line != LineHome {
		t.Errorf("line = %s, want %s", c.Line, LineHome)
	}
	if c.Status != StatusPending {
		t.Errorf("status = %s, want %s", c.Status, StatusPending)
	}
	if c.PremiumChangeAmount == nil || *c.PremiumChangeAmount != 470 {
		t.Errorf("premium change amount = %v, want 470", c.PremiumChangeAmount)
	}
	if !c.StatusSynced {
		t.Errorf("a fresh comparison needs no CRM replay")
	}

	stored, err := repo.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get after ingest: %v", err)
	}
	if stored.PolicyNumber != "HO3-4481920" {
		t.Errorf("stored policy number = %q", stored.PolicyNumber)
	}
}

func TestIngest_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewComparisonService(newMemRepo(), surcharge.DefaultSchedule())

	tests := []struct {
		name  string
		input IngestInput
	}{
		{"missing policy number", IngestInput{Renewal: PolicySnapshot{Premium: 100}}},
		{"non-positive premium", IngestInput{PolicyNumber: "P-1"}},
		{"change without category", IngestInput{
			PolicyNumber: "P-1",
			Renewal:      PolicySnapshot{Premium: 100},
			Changes:      []MaterialChange{{Description: "mystery"}},
		}},
		{"check without rule ID", IngestInput{
			PolicyNumber: "P-1",
			Renewal:      PolicySnapshot{Premium: 100},
			Checks:       []CheckResult{{Field: "Dwelling"}},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Ingest(ctx, tc.input); !errors.Is(err, ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewComparisonService(repo, surcharge.DefaultSchedule())

	seedComparison(t, repo, "cmp-1", nil)

	c, err := svc.Cancel(ctx, "cmp-1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if c.Status != StatusCancelled {
		t.Errorf("status = %s, want %s", c.Status, StatusCancelled)
	}

	// Cancelling again is an invalid transition.
	if _, err := svc.Cancel(ctx, "cmp-1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on double cancel, got %v", err)
	}
}

func TestAgingView(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	schedule, err := surcharge.Parse([]byte("default_years: 3\nby_type:\n  at_fault_accident: 5\n"))
	if err != nil {
		t.Fatalf("parse schedule: %v", err)
	}
	svc := NewComparisonService(repo, schedule)

	c, err := svc.Ingest(ctx, IngestInput{
		PolicyNumber:   "PA-1",
		LineOfBusiness: "Personal Auto",
		Renewal: PolicySnapshot{
			Premium: 1500,
			Claims: []CanonicalClaim{
				{ClaimNumber: "C-1", ClaimType: "At Fault Accident", ClaimDate: "2023-08-17"},
				{ClaimNumber: "C-2", ClaimType: "glass", ClaimDate: "garbled"},
			},
		},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	views, err := svc.Aging(ctx, c.ID)
	if err != nil {
		t.Fatalf("aging: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d aging views, want one per claim", len(views))
	}

	dated := views[0]
	if dated.Aging == nil {
		t.Fatalf("dated claim has no timeline")
	}
	if got := dated.Aging.FallOffDate.Year(); got != 2028 {
		t.Errorf("at-fault claim should use the 5-year schedule entry: fall off year = %d", got)
	}

	// The garbled claim is listed without a timeline rather than dropped.
	if views[1].Aging != nil {
		t.Errorf("unparseable claim date should yield a nil timeline, got %+v", views[1].Aging)
	}
	if views[1].Claim.ClaimNumber != "C-2" {
		t.Errorf("unparseable claim missing from the view")
	}
}
