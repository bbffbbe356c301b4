package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type ReasonColor string

const (
	ColorRed   ReasonColor = "red"
	ColorGreen ReasonColor = "green"
	ColorAmber ReasonColor = "amber"
	ColorBlue  ReasonColor = "blue"
	ColorGray  ReasonColor = "gray"
)

// Reason is one colored tag explaining part of the premium movement.
// Reasons are derived on every read and never persisted, so they are
// always consistent with the underlying changes and check results.
type Reason struct {
	Tag    string      `json:"tag"`
	Detail string      `json:"detail,omitempty"`
	Color  ReasonColor `json:"color"`
}

const (
	ReasonVehicleAdded     = "Vehicle Added"
	ReasonVehicleRemoved   = "Vehicle Removed"
	ReasonYoungDriverAdded = "Young Driver Added"
	ReasonDriverAdded      = "Driver Added"
	ReasonDriverRemoved    = "Driver Removed"
	ReasonDiscountRemoved  = "Discount Removed"
	ReasonDiscountAdded    = "Discount Added"
	ReasonInflationGuard   = "Inflation Guard"
	ReasonCoverageRemoved  = "Coverage Removed"
	ReasonCoverageAdded    = "Coverage Added"
	ReasonCoverageLimits   = "Coverage Limits Changed"
	ReasonDeductible       = "Deductible Changed"
	ReasonNewClaim         = "New Claim"
	ReasonPropertyConcern  = "Property Concern"
	ReasonEndorsement      = "Endorsement Changed"
	ReasonRateIncrease     = "Rate Increase"
	ReasonRateDecrease     = "Rate Decrease"
	ReasonRateAdjustment   = "Rate Adjustment"
)

// Rule identifiers from the property-risk collaborator.
const (
	rulePropertyCondition = "H-043"
	ruleDwellingLimit     = "H-046"
)

// ClassifyReasons maps detector changes and rule-engine findings to
// the ordered reason list explaining the premium delta. Pure and
// deterministic: identical inputs always yield the identical list.
// Rules run in a fixed order and each appends at most one reason for
// its tag; if nothing fires, the sign of pct synthesizes exactly one
// fallback reason.
func ClassifyReasons(changes []MaterialChange, checks []CheckResult, renewal PolicySnapshot, baseline *PolicySnapshot, pct float64, line LineKind, now time.Time) []Reason {
	var reasons []Reason

	// 1. Vehicles
	if added := byCategory(changes, ChangeVehicleAdded); len(added) > 0 {
		reasons = append(reasons, Reason{ReasonVehicleAdded, countOrDescription(added, "vehicles added"), ColorRed})
	}
	if removed := byCategory(changes, ChangeVehicleRemoved); len(removed) > 0 {
		reasons = append(reasons, Reason{ReasonVehicleRemoved, countOrDescription(removed, "vehicles removed"), ColorGreen})
	}

	// 2. Drivers
	if added := byCategory(changes, ChangeDriverAdded); len(added) > 0 {
		young := false
		for _, ch := range added {
			if isYoungDriver(ch.Description, renewal.Drivers, now) {
				young = true
				break
			}
		}
		if young {
			reasons = append(reasons, Reason{Tag: ReasonYoungDriverAdded, Color: ColorRed})
		} else {
			reasons = append(reasons, Reason{ReasonDriverAdded, countOrDescription(added, "drivers added"), ColorAmber})
		}
	}
	if removed := byCategory(changes, ChangeDriverRemoved); len(removed) > 0 {
		reasons = append(reasons, Reason{ReasonDriverRemoved, countOrDescription(removed, "drivers removed"), ColorAmber})
	}

	// 3. Discounts
	if removed := byCategory(changes, ChangeDiscountRemoved); len(removed) > 0 {
		reasons = append(reasons, Reason{ReasonDiscountRemoved, countOrDescription(removed, "discounts removed"), ColorRed})
	}
	if added := byCategory(changes, ChangeDiscountAdded); len(added) > 0 {
		reasons = append(reasons, Reason{ReasonDiscountAdded, countOrDescription(added, "discounts added"), ColorGreen})
	}

	// 4. Inflation guard (home lines only). A dwelling limit bump is
	// the carrier's automatic inflation adjustment, not an agent
	// endorsement, so it gets its own tag and suppresses the generic
	// coverage-limits reason for the dwelling field.
	if line == LineHome {
		guard := false
		var detail string
		for _, ch := range byCategory(changes, ChangeCoverageLimit) {
			if isDwellingField(ch.Field) && ch.ChangeAmount != nil && *ch.ChangeAmount > 0 {
				guard = true
				detail = ch.Description
				break
			}
		}
		if !guard {
			for _, cr := range checks {
				if cr.RuleID != ruleDwellingLimit && !strings.Contains(strings.ToLower(cr.Field), "dwelling") {
					continue
				}
				if cr.Change != NoChange && strings.Contains(cr.Change, "+") {
					guard = true
					detail = cr.Change
					break
				}
			}
		}
		if guard {
			reasons = append(reasons, Reason{ReasonInflationGuard, detail, ColorAmber})
		}
	}

	// 5. Coverages
	if removed := byCategory(changes, ChangeCoverageRemoved); len(removed) > 0 {
		reasons = append(reasons, Reason{ReasonCoverageRemoved, countOrDescription(removed, "coverages removed"), ColorRed})
	}
	if added := byCategory(changes, ChangeCoverageAdded); len(added) > 0 {
		reasons = append(reasons, Reason{ReasonCoverageAdded, countOrDescription(added, "coverages added"), ColorAmber})
	}
	var limits []MaterialChange
	for _, ch := range byCategory(changes, ChangeCoverageLimit) {
		if !isDwellingField(ch.Field) {
			limits = append(limits, ch)
		}
	}
	if len(limits) > 0 {
		reasons = append(reasons, Reason{ReasonCoverageLimits, countOrDescription(limits, "coverage limits changed"), ColorAmber})
	}

	// 6. Deductibles
	if ded := byCategory(changes, ChangeDeductible); len(ded) > 0 {
		reasons = append(reasons, Reason{ReasonDeductible, countOrDescription(ded, "deductibles changed"), ColorAmber})
	}

	// 7. Claims
	if claims := byCategory(changes, ChangeClaim); len(claims) > 0 {
		reasons = append(reasons, Reason{ReasonNewClaim, countOrDescription(claims, "new claims"), ColorRed})
	}

	// 8. Property concern (home lines only)
	if line == LineHome {
		for _, cr := range checks {
			if cr.RuleID == rulePropertyCondition && (cr.Severity == SeverityCritical || cr.Severity == SeverityWarning) {
				reasons = append(reasons, Reason{ReasonPropertyConcern, cr.Message, ColorRed})
				break
			}
		}
	}

	// 9. Endorsements
	endo := byCategory(changes, ChangeEndorsement)
	endo = append(endo, byCategory(changes, ChangeEndorsementAdded)...)
	endo = append(endo, byCategory(changes, ChangeEndorsementRemoved)...)
	if len(endo) > 0 {
		reasons = append(reasons, Reason{ReasonEndorsement, countOrDescription(endo, "endorsements changed"), ColorAmber})
	}

	// 10. Fallback: the premium moved but nothing above explains it.
	if len(reasons) == 0 {
		switch {
		case pct > 0:
			reasons = append(reasons, Reason{Tag: ReasonRateIncrease, Color: ColorRed})
		case pct < 0:
			reasons = append(reasons, Reason{Tag: ReasonRateDecrease, Color: ColorGreen})
		default:
			reasons = append(reasons, Reason{Tag: ReasonRateAdjustment, Color: ColorGray})
		}
	}

	return reasons
}

// Summarize composes the one-line explanation shown at the top of the
// review workspace. Only the first two reasons make the sentence; the
// full list is still rendered below it.
func Summarize(reasons []Reason, pct, amount float64) string {
	if pct == 0 && amount == 0 {
		return "Premium is unchanged"
	}

	direction := "unchanged"
	switch {
	case pct > 0:
		direction = "increased"
	case pct < 0:
		direction = "decreased"
	}

	p := message.NewPrinter(language.English)
	amountStr := p.Sprintf("$%.0f", math.Abs(amount))

	var tags []string
	for i, r := range reasons {
		if i == 2 {
			break
		}
		tags = append(tags, r.Tag)
	}
	if len(tags) == 0 {
		return fmt.Sprintf("Premium %s %s", direction, amountStr)
	}
	return fmt.Sprintf("Premium %s %s due to %s", direction, amountStr, strings.Join(tags, " + "))
}

func byCategory(changes []MaterialChange, cat ChangeCategory) []MaterialChange {
	var out []MaterialChange
	for _, ch := range changes {
		if ch.Category == cat {
			out = append(out, ch)
		}
	}
	return out
}

func countOrDescription(changes []MaterialChange, plural string) string {
	if len(changes) == 1 {
		return changes[0].Description
	}
	return fmt.Sprintf("%d %s", len(changes), plural)
}

func isDwellingField(field string) bool {
	f := strings.ToLower(field)
	return strings.Contains(f, "dwelling") || strings.Contains(f, "cov a")
}
