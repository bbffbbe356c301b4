package core

type ChangeCategory string
type ChangeClass string

const (
	ChangeVehicleAdded       ChangeCategory = "vehicle_added"
	ChangeVehicleRemoved     ChangeCategory = "vehicle_removed"
	ChangeDriverAdded        ChangeCategory = "driver_added"
	ChangeDriverRemoved      ChangeCategory = "driver_removed"
	ChangeCoverageAdded      ChangeCategory = "coverage_added"
	ChangeCoverageRemoved    ChangeCategory = "coverage_removed"
	ChangeCoverageLimit      ChangeCategory = "coverage_limit"
	ChangeDeductible         ChangeCategory = "deductible"
	ChangeDiscountAdded      ChangeCategory = "discount_added"
	ChangeDiscountRemoved    ChangeCategory = "discount_removed"
	ChangeClaim              ChangeCategory = "claim"
	ChangeEndorsementAdded   ChangeCategory = "endorsement_added"
	ChangeEndorsementRemoved ChangeCategory = "endorsement_removed"
	ChangeEndorsement        ChangeCategory = "endorsement"
	ChangePremium            ChangeCategory = "premium"
)

const (
	ClassMaterialPositive ChangeClass = "material_positive"
	ClassMaterialNegative ChangeClass = "material_negative"
	ClassNeutral          ChangeClass = "neutral"
)

// MaterialChange is one substantive difference between the baseline
// and renewal snapshots, produced by the upstream change detector at
// ingestion. Read-only afterward.
type MaterialChange struct {
	Category       ChangeCategory `json:"category"`
	Field          string         `json:"field,omitempty"`
	Description    string         `json:"description"`
	Classification ChangeClass    `json:"classification"`
	ChangeAmount   *float64       `json:"change_amount,omitempty"`
}
