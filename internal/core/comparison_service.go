package core

import (
	"context"
	"fmt"
	"time"

	"github.com/mdelaney/renewal-ops/internal/platform/ids"
	"github.com/mdelaney/renewal-ops/internal/surcharge"
)

type ComparisonService interface {
	// Ingest creates a comparison from already-normalized snapshots
	// plus the change detector and rule engine output.
	Ingest(ctx context.Context, input IngestInput) (RenewalComparison, error)

	// Get retrieves a comparison by ID.
	Get(ctx context.Context, id string) (RenewalComparison, error)

	// List returns the review queue with optional filtering.
	List(ctx context.Context, filter ComparisonFilter, limit, offset int) ([]RenewalComparison, int64, error)

	// Reasons classifies the premium movement and composes the summary
	// line. Recomputed per call, never stored.
	Reasons(ctx context.Context, id string) (ReasonView, error)

	// Aging returns the surcharge decay timeline per claim.
	Aging(ctx context.Context, id string) ([]ClaimAgingView, error)

	// Review returns acknowledgement progress.
	Review(ctx context.Context, id string) (ReviewView, error)

	// Actions returns the decision actions currently offered.
	Actions(ctx context.Context, id string) (ActionsView, error)

	// Cancel transitions a pending comparison to cancelled.
	Cancel(ctx context.Context, id string) (RenewalComparison, error)
}

type IngestInput struct {
	PolicyNumber   string           `json:"policy_number"`
	LineOfBusiness string           `json:"line_of_business"`
	Baseline       *PolicySnapshot  `json:"baseline,omitempty"`
	Renewal        PolicySnapshot   `json:"renewal"`
	Changes        []MaterialChange `json:"changes"`
	Checks         []CheckResult    `json:"checks"`
	Summary        CheckSummary     `json:"summary"`
}

func (in IngestInput) Validate() error {
	if in.PolicyNumber == "" {
		return fmt.Errorf("%w: policy number is required", ErrValidation)
	}
	if in.Renewal.Premium <= 0 {
		return fmt.Errorf("%w: renewal premium must be positive", ErrValidation)
	}
	for _, ch := range in.Changes {
		if ch.Category == "" {
			return fmt.Errorf("%w: material change category is required", ErrValidation)
		}
	}
	for _, cr := range in.Checks {
		if cr.RuleID == "" {
			return fmt.Errorf("%w: check result rule ID is required", ErrValidation)
		}
	}
	return nil
}

type ReasonView struct {
	Reasons []Reason `json:"reasons"`
	Summary string   `json:"summary"`
}

type ClaimAgingView struct {
	Claim CanonicalClaim `json:"claim"`
	// Aging is nil when the claim date is missing or unparseable; the
	// claim is listed anyway so the agent sees it.
	Aging *ClaimAging `json:"aging,omitempty"`
}

type ReviewView struct {
	ReviewableCount int `json:"reviewable_count"`
	ReviewedCount   int `json:"reviewed_count"`
	Progress        int `json:"progress"`
}

type ActionsView struct {
	Phase    DecisionPhase  `json:"phase"`
	Actions  []DecisionKind `json:"actions"`
	ReadOnly bool           `json:"read_only"`
	Progress int            `json:"progress"`
}

type comparisonService struct {
	repo     ComparisonRepo
	schedule surcharge.Schedule
	clock    func() time.Time
}

func NewComparisonService(repo ComparisonRepo, schedule surcharge.Schedule) ComparisonService {
	return &comparisonService{
		repo:     repo,
		schedule: schedule,
		clock:    time.Now,
	}
}

func (s *comparisonService) Ingest(ctx context.Context, input IngestInput) (RenewalComparison, error) {
	if err := input.Validate(); err != nil {
		return RenewalComparison{}, err
	}

	now := s.clock()
	pct, amount := PremiumDelta(input.Baseline, input.Renewal)

	c := RenewalComparison{
		ID:                   ids.New(),
		PolicyNumber:         input.PolicyNumber,
		LineOfBusiness:       input.LineOfBusiness,
		Line:                 ClassifyLine(input.LineOfBusiness),
		Baseline:             input.Baseline,
		Renewal:              input.Renewal,
		Changes:              input.Changes,
		Checks:               input.Checks,
		Summary:              input.Summary,
		PremiumChangePercent: pct,
		PremiumChangeAmount:  amount,
		Status:               StatusPending,
		StatusSynced:         true, // the CRM created the pipeline entry; only transitions need replay
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return RenewalComparison{}, err
	}
	return c, nil
}

func (s *comparisonService) Get(ctx context.Context, id string) (RenewalComparison, error) {
	if id == "" {
		return RenewalComparison{}, fmt.Errorf("%w: missing comparison ID", ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *comparisonService) List(ctx context.Context, filter ComparisonFilter, limit, offset int) ([]RenewalComparison, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *comparisonService) Reasons(ctx context.Context, id string) (ReasonView, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return ReasonView{}, err
	}

	reasons := ClassifyReasons(c.Changes, c.Checks, c.Renewal, c.Baseline, c.pctOrZero(), c.Line, s.clock())
	return ReasonView{
		Reasons: reasons,
		Summary: Summarize(reasons, c.pctOrZero(), c.amountOrZero()),
	}, nil
}

func (s *comparisonService) Aging(ctx context.Context, id string) ([]ClaimAgingView, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	views := make([]ClaimAgingView, 0, len(c.Renewal.Claims))
	for _, claim := range c.Renewal.Claims {
		years := s.schedule.YearsFor(claim.ClaimType)
		views = append(views, ClaimAgingView{
			Claim: claim,
			Aging: AgeClaim(claim.ClaimDate, years, now),
		})
	}
	return views, nil
}

func (s *comparisonService) Review(ctx context.Context, id string) (ReviewView, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return ReviewView{}, err
	}

	reviewable := ReviewableChecks(c.Checks)
	reviewed := 0
	for _, cr := range reviewable {
		if cr.Reviewed {
			reviewed++
		}
	}
	return ReviewView{
		ReviewableCount: len(reviewable),
		ReviewedCount:   reviewed,
		Progress:        ReviewProgress(c.Checks, c.Changes),
	}, nil
}

func (s *comparisonService) Actions(ctx context.Context, id string) (ActionsView, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return ActionsView{}, err
	}

	phase := PhaseOf(c.Status, c.Decision)
	progress := ReviewProgress(c.Checks, c.Changes)
	actions := AvailableActions(phase, progress)
	if actions == nil {
		actions = []DecisionKind{}
	}
	return ActionsView{
		Phase:    phase,
		Actions:  actions,
		ReadOnly: len(actions) == 0,
		Progress: progress,
	}, nil
}

func (s *comparisonService) Cancel(ctx context.Context, id string) (RenewalComparison, error) {
	if id == "" {
		return RenewalComparison{}, fmt.Errorf("%w: missing comparison ID", ErrValidation)
	}
	if err := s.repo.Cancel(ctx, id, s.clock()); err != nil {
		return RenewalComparison{}, err
	}
	return s.repo.Get(ctx, id)
}
