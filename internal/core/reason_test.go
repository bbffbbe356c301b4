package core

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var reasonNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func amt(v float64) *float64 { return &v }

func TestClassifyReasons_Deterministic(t *testing.T) {
	changes := []MaterialChange{
		{Category: ChangeDiscountRemoved, Description: "Claim Free discount removed", Classification: ClassMaterialNegative},
		{Category: ChangeVehicleAdded, Description: "Vehicle added: 2014 Toyota Corolla LE", Classification: ClassMaterialNegative},
		{Category: ChangeClaim, Description: "New claim: wind/hail 2023-08-17", Classification: ClassMaterialNegative},
	}

	first := ClassifyReasons(changes, nil, PolicySnapshot{}, nil, 12, LineAuto, reasonNow)
	second := ClassifyReasons(changes, nil, PolicySnapshot{}, nil, 12, LineAuto, reasonNow)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("classification not deterministic:\n%s", diff)
	}

	wantTags := []string{ReasonVehicleAdded, ReasonDiscountRemoved, ReasonNewClaim}
	gotTags := make([]string, 0, len(first))
	for _, r := range first {
		gotTags = append(gotTags, r.Tag)
	}
	if diff := cmp.Diff(wantTags, gotTags); diff != "" {
		t.Errorf("reason order mismatch:\n%s", diff)
	}
}

func TestClassifyReasons_FallbackOnlyWhenNothingFires(t *testing.T) {
	tests := []struct {
		name string
		pct  float64
		want Reason
	}{
		{"increase", 5, Reason{Tag: ReasonRateIncrease, Color: ColorRed}},
		{"decrease", -3, Reason{Tag: ReasonRateDecrease, Color: ColorGreen}},
		{"flat", 0, Reason{Tag: ReasonRateAdjustment, Color: ColorGray}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyReasons(nil, nil, PolicySnapshot{}, nil, tc.pct, LineOther, reasonNow)
			if len(got) != 1 {
				t.Fatalf("expected exactly one fallback reason, got %d", len(got))
			}
			if diff := cmp.Diff(tc.want, got[0]); diff != "" {
				t.Errorf("fallback mismatch:\n%s", diff)
			}
		})
	}

	// Any explained movement suppresses the fallback entirely.
	changes := []MaterialChange{{Category: ChangeDeductible, Description: "Deductible raised to $2,500"}}
	got := ClassifyReasons(changes, nil, PolicySnapshot{}, nil, 8, LineAuto, reasonNow)
	for _, r := range got {
		if r.Tag == ReasonRateIncrease || r.Tag == ReasonRateDecrease || r.Tag == ReasonRateAdjustment {
			t.Errorf("fallback reason %q emitted alongside explained changes", r.Tag)
		}
	}
}

func TestClassifyReasons_YoungDriver(t *testing.T) {
	dob := time.Date(2007, 3, 1, 0, 0, 0, 0, time.UTC) // 18 at reasonNow
	renewal := PolicySnapshot{
		Drivers: []Driver{
			{Name: "Devon Harrell"},
			{Name: "Marcus Harrell", DateOfBirth: &dob},
		},
	}
	changes := []MaterialChange{
		{Category: ChangeDriverAdded, Description: "Driver added: Marcus Harrell"},
	}

	got := ClassifyReasons(changes, nil, renewal, nil, 20, LineAuto, reasonNow)
	if len(got) != 1 || got[0].Tag != ReasonYoungDriverAdded {
		t.Fatalf("expected %q, got %+v", ReasonYoungDriverAdded, got)
	}

	// Same driver without a date of birth stays a plain addition.
	renewal.Drivers[1].DateOfBirth = nil
	got = ClassifyReasons(changes, nil, renewal, nil, 20, LineAuto, reasonNow)
	if len(got) != 1 || got[0].Tag != ReasonDriverAdded {
		t.Fatalf("expected %q, got %+v", ReasonDriverAdded, got)
	}
}

func TestClassifyReasons_InflationGuardSuppressesDwellingLimit(t *testing.T) {
	changes := []MaterialChange{
		{
			Category:     ChangeCoverageLimit,
			Field:        "Dwelling (Cov A)",
			Description:  "Dwelling limit increased $385,000 -> $413,500",
			ChangeAmount: amt(28500),
		},
	}

	got := ClassifyReasons(changes, nil, PolicySnapshot{}, nil, 10, LineHome, reasonNow)
	if len(got) != 1 || got[0].Tag != ReasonInflationGuard {
		t.Fatalf("expected only %q on a home line, got %+v", ReasonInflationGuard, got)
	}

	// On an auto line the same change is a generic limits change.
	got = ClassifyReasons(changes, nil, PolicySnapshot{}, nil, 10, LineAuto, reasonNow)
	if len(got) != 1 || got[0].Tag != ReasonCoverageLimits {
		t.Fatalf("expected %q on an auto line, got %+v", ReasonCoverageLimits, got)
	}
}

func TestClassifyReasons_InflationGuardFromCheckResult(t *testing.T) {
	checks := []CheckResult{
		{RuleID: "H-046", Field: "Dwelling (Cov A)", Severity: SeverityWarning, Change: "+$28,500"},
	}

	got := ClassifyReasons(nil, checks, PolicySnapshot{}, nil, 10, LineHome, reasonNow)
	if len(got) != 1 || got[0].Tag != ReasonInflationGuard {
		t.Fatalf("expected %q from the rule finding, got %+v", ReasonInflationGuard, got)
	}
	if got[0].Detail != "+$28,500" {
		t.Errorf("detail = %q, want the change display string", got[0].Detail)
	}
}

func TestClassifyReasons_PropertyConcernHomeOnly(t *testing.T) {
	checks := []CheckResult{
		{RuleID: "H-043", Field: "Roof Age", Severity: SeverityWarning, Message: "Roof is 14 years old"},
	}

	got := ClassifyReasons(nil, checks, PolicySnapshot{}, nil, 10, LineHome, reasonNow)
	if len(got) != 1 || got[0].Tag != ReasonPropertyConcern {
		t.Fatalf("expected %q, got %+v", ReasonPropertyConcern, got)
	}
	if got[0].Detail != "Roof is 14 years old" {
		t.Errorf("detail = %q, want the rule message", got[0].Detail)
	}

	got = ClassifyReasons(nil, checks, PolicySnapshot{}, nil, 10, LineAuto, reasonNow)
	for _, r := range got {
		if r.Tag == ReasonPropertyConcern {
			t.Errorf("property concern emitted on an auto line")
		}
	}
}

func TestClassifyReasons_CountVersusDescription(t *testing.T) {
	one := []MaterialChange{
		{Category: ChangeVehicleAdded, Description: "Vehicle added: 2014 Toyota Corolla LE"},
	}
	got := ClassifyReasons(one, nil, PolicySnapshot{}, nil, 0, LineAuto, reasonNow)
	if got[0].Detail != "Vehicle added: 2014 Toyota Corolla LE" {
		t.Errorf("single change detail = %q, want its description", got[0].Detail)
	}

	two := append(one, MaterialChange{Category: ChangeVehicleAdded, Description: "Vehicle added: 2019 Ford F-150"})
	got = ClassifyReasons(two, nil, PolicySnapshot{}, nil, 0, LineAuto, reasonNow)
	if got[0].Detail != "2 vehicles added" {
		t.Errorf("multi change detail = %q, want a count", got[0].Detail)
	}
}

func TestSummarize(t *testing.T) {
	reasons := []Reason{
		{Tag: ReasonVehicleAdded},
		{Tag: ReasonDiscountRemoved},
		{Tag: ReasonNewClaim},
	}

	got := Summarize(reasons, 12, 180)
	want := "Premium increased $180 due to Vehicle Added + Discount Removed"
	if got != want {
		t.Errorf("Summarize = %q, want %q", got, want)
	}

	got = Summarize(reasons, -4, -1250)
	want = "Premium decreased $1,250 due to Vehicle Added + Discount Removed"
	if got != want {
		t.Errorf("Summarize = %q, want %q", got, want)
	}

	if got := Summarize(nil, 0, 0); got != "Premium is unchanged" {
		t.Errorf("flat premium summary = %q", got)
	}

	if got := Summarize(nil, 3, 50); got != "Premium increased $50" {
		t.Errorf("reasonless summary = %q", got)
	}
}
