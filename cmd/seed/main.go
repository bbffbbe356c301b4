package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mdelaney/renewal-ops/internal/core"
	"github.com/mdelaney/renewal-ops/internal/platform/config"
	"github.com/mdelaney/renewal-ops/internal/platform/logging"
	"github.com/mdelaney/renewal-ops/internal/store/mongo"
	"github.com/mdelaney/renewal-ops/internal/surcharge"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Env)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.NewClient(cfg)
	if err != nil {
		log.Error("failed to connect to MongoDB", "err", err)
		return
	}
	defer client.Close(ctx)

	if err := mongo.EnsureIndexes(ctx, client.DB); err != nil {
		log.Error("failed to ensure indexes", "err", err)
		return
	}

	repo := mongo.NewComparisonRepo(client.DB, 5*time.Second)
	svc := core.NewComparisonService(repo, surcharge.DefaultSchedule())

	log.Info("seeding renewal comparisons")
	seedComparisons(ctx, svc)
	log.Info("done seeding")
}

func seedComparisons(ctx context.Context, svc core.ComparisonService) {
	dwellingUp := 28500.0
	youngDOB := time.Now().AddDate(-19, -2, 0)

	inputs := []core.IngestInput{
		{
			PolicyNumber:   "HO3-4481920",
			LineOfBusiness: "HO3 Homeowners",
			Baseline: &core.PolicySnapshot{
				Premium:        1840,
				InsuredName:    "Margaret Ellison",
				InsuredAddress: "114 Willow Bend Dr, Round Rock TX",
				Coverages: []core.CoverageLine{
					{Type: "Dwelling (Cov A)", Limit: 385000, Deductible: 2500},
					{Type: "Personal Property (Cov C)", Limit: 192500, Deductible: 2500},
				},
				Discounts: []core.Discount{{Name: "Claim Free"}},
			},
			Renewal: core.PolicySnapshot{
				Premium:        2310,
				InsuredName:    "Margaret Ellison",
				InsuredAddress: "114 Willow Bend Dr, Round Rock TX",
				Coverages: []core.CoverageLine{
					{Type: "Dwelling (Cov A)", Limit: 413500, Deductible: 2500},
					{Type: "Personal Property (Cov C)", Limit: 206750, Deductible: 2500},
				},
				Claims: []core.CanonicalClaim{
					{ClaimNumber: "CLM-20230817-03", ClaimType: "wind/hail", ClaimDate: "2023-08-17"},
				},
				Property: &core.PropertyContext{
					YearBuilt:        2004,
					SquareFeet:       2650,
					ConstructionType: "frame",
					RoofType:         "composition shingle",
					RoofAge:          14,
				},
			},
			Changes: []core.MaterialChange{
				{
					Category:       core.ChangeCoverageLimit,
					Field:          "Dwelling (Cov A)",
					Description:    "Dwelling limit increased $385,000 -> $413,500",
					Classification: core.ClassNeutral,
					ChangeAmount:   &dwellingUp,
				},
				{
					Category:       core.ChangeDiscountRemoved,
					Description:    "Claim Free discount removed",
					Classification: core.ClassMaterialNegative,
				},
			},
			Checks: []core.CheckResult{
				{
					RuleID:   "H-046",
					Category: "coverage",
					Field:    "Dwelling (Cov A)",
					Severity: core.SeverityWarning,
					Message:  "Dwelling limit moved with the inflation guard",
					Change:   "+$28,500",
				},
				{
					RuleID:   "H-043",
					Category: "property",
					Field:    "Roof Age",
					Severity: core.SeverityWarning,
					Message:  "Roof is 14 years old; surcharge schedule may apply",
					Change:   "No change",
				},
				{
					RuleID:   "H-012",
					Category: "discount",
					Field:    "Claim Free",
					Severity: core.SeverityRemoved,
					Message:  "Claim Free discount dropped after wind/hail loss",
					Change:   "removed",
				},
			},
			Summary: core.CheckSummary{},
		},
		{
			PolicyNumber:   "PA-2295013",
			LineOfBusiness: "Personal Auto",
			Baseline: &core.PolicySnapshot{
				Premium:     1420,
				InsuredName: "Devon Harrell",
				Drivers: []core.Driver{
					{Name: "Devon Harrell"},
					{Name: "Renee Harrell"},
				},
				Vehicles: []core.Vehicle{
					{Description: "2021 Honda CR-V EX"},
				},
			},
			Renewal: core.PolicySnapshot{
				Premium:     2180,
				InsuredName: "Devon Harrell",
				Drivers: []core.Driver{
					{Name: "Devon Harrell"},
					{Name: "Renee Harrell"},
					{Name: "Marcus Harrell", DateOfBirth: &youngDOB},
				},
				Vehicles: []core.Vehicle{
					{Description: "2021 Honda CR-V EX"},
					{Description: "2014 Toyota Corolla LE"},
				},
			},
			Changes: []core.MaterialChange{
				{
					Category:       core.ChangeDriverAdded,
					Description:    "Driver added: Marcus Harrell",
					Classification: core.ClassMaterialNegative,
				},
				{
					Category:       core.ChangeVehicleAdded,
					Description:    "Vehicle added: 2014 Toyota Corolla LE",
					Classification: core.ClassMaterialNegative,
				},
			},
			Checks: []core.CheckResult{
				{
					RuleID:   "A-007",
					Category: "driver",
					Field:    "Drivers",
					Severity: core.SeverityAdded,
					Message:  "New driver Marcus Harrell added at renewal",
					Change:   "added",
				},
				{
					RuleID:   "A-015",
					Category: "vehicle",
					Field:    "Vehicles",
					Severity: core.SeverityAdded,
					Message:  "New vehicle 2014 Toyota Corolla LE added at renewal",
					Change:   "added",
				},
				{
					RuleID:   "A-001",
					Category: "coverage",
					Field:    "Bodily Injury",
					Severity: core.SeverityUnchanged,
					Message:  "Bodily injury limits unchanged",
					Change:   core.NoChange,
				},
			},
			Summary: core.CheckSummary{},
		},
	}

	for _, in := range inputs {
		c, err := svc.Ingest(ctx, in)
		if err != nil {
			fmt.Printf("failed to seed %s: %v\n", in.PolicyNumber, err)
		} else {
			fmt.Printf("seeded: %s (%s)\n", c.PolicyNumber, c.ID)
		}
	}
}
