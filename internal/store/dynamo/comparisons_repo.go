package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mdelaney/renewal-ops/internal/core"
)

// Sync states for the sync_state GSI (GSI keys cannot be booleans).
const (
	syncPending = "pending"
	syncDone    = "done"
)

// comparisonPayload is the immutable-plus-checks body of the
// aggregate, stored as one JSON attribute. The workflow fields that
// conditional writes guard (status, sync state, decision kind) live as
// top-level item attributes instead.
type comparisonPayload struct {
	Baseline             *core.PolicySnapshot  `json:"baseline,omitempty"`
	Renewal              core.PolicySnapshot   `json:"renewal"`
	Changes              []core.MaterialChange `json:"changes,omitempty"`
	Checks               []core.CheckResult    `json:"checks,omitempty"`
	Summary              core.CheckSummary     `json:"summary"`
	PremiumChangePercent *float64              `json:"premium_change_percent,omitempty"`
	PremiumChangeAmount  *float64              `json:"premium_change_amount,omitempty"`
}

type decisionTrail struct {
	Current *core.Decision  `json:"current,omitempty"`
	History []core.Decision `json:"history,omitempty"`
}

type ComparisonItem struct {
	ID             string `dynamodbav:"id"`
	PolicyNumber   string `dynamodbav:"policy_number"`
	LineOfBusiness string `dynamodbav:"line_of_business"`
	Line           string `dynamodbav:"line"`
	Status         string `dynamodbav:"status"`
	SyncState      string `dynamodbav:"sync_state"`
	DecisionKind   string `dynamodbav:"decision_kind,omitempty"`
	Decisions      string `dynamodbav:"decisions,omitempty"`
	Payload        string `dynamodbav:"payload"`
	CreatedAt      string `dynamodbav:"created_at"`
	UpdatedAt      string `dynamodbav:"updated_at"`
}

func itemFromCore(c core.RenewalComparison) (ComparisonItem, error) {
	payload, err := json.Marshal(comparisonPayload{
		Baseline:             c.Baseline,
		Renewal:              c.Renewal,
		Changes:              c.Changes,
		Checks:               c.Checks,
		Summary:              c.Summary,
		PremiumChangePercent: c.PremiumChangePercent,
		PremiumChangeAmount:  c.PremiumChangeAmount,
	})
	if err != nil {
		return ComparisonItem{}, fmt.Errorf("comparisons.marshalPayload: %w", err)
	}

	item := ComparisonItem{
		ID:             c.ID,
		PolicyNumber:   c.PolicyNumber,
		LineOfBusiness: c.LineOfBusiness,
		Line:           string(c.Line),
		Status:         string(c.Status),
		SyncState:      syncDone,
		Payload:        string(payload),
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
	}
	if !c.StatusSynced {
		item.SyncState = syncPending
	}
	if c.Decision != nil {
		item.DecisionKind = string(c.Decision.Kind)
	}
	if c.Decision != nil || len(c.DecisionHistory) > 0 {
		trail, err := json.Marshal(decisionTrail{Current: c.Decision, History: c.DecisionHistory})
		if err != nil {
			return ComparisonItem{}, fmt.Errorf("comparisons.marshalDecisions: %w", err)
		}
		item.Decisions = string(trail)
	}
	return item, nil
}

func (i ComparisonItem) ToCore() (core.RenewalComparison, error) {
	var payload comparisonPayload
	if err := json.Unmarshal([]byte(i.Payload), &payload); err != nil {
		return core.RenewalComparison{}, fmt.Errorf("comparisons.unmarshalPayload: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339, i.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, i.UpdatedAt)

	c := core.RenewalComparison{
		ID:                   i.ID,
		PolicyNumber:         i.PolicyNumber,
		LineOfBusiness:       i.LineOfBusiness,
		Line:                 core.LineKind(i.Line),
		Baseline:             payload.Baseline,
		Renewal:              payload.Renewal,
		Changes:              payload.Changes,
		Checks:               payload.Checks,
		Summary:              payload.Summary,
		PremiumChangePercent: payload.PremiumChangePercent,
		PremiumChangeAmount:  payload.PremiumChangeAmount,
		Status:               core.ComparisonStatus(i.Status),
		StatusSynced:         i.SyncState == syncDone,
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
	}
	if i.Decisions != "" {
		var trail decisionTrail
		if err := json.Unmarshal([]byte(i.Decisions), &trail); err != nil {
			return core.RenewalComparison{}, fmt.Errorf("comparisons.unmarshalDecisions: %w", err)
		}
		c.Decision = trail.Current
		c.DecisionHistory = trail.History
	}
	return c, nil
}

type ComparisonRepo struct {
	client *dynamodb.Client
}

func NewComparisonRepo(client *dynamodb.Client) *ComparisonRepo {
	return &ComparisonRepo{client: client}
}

func (r *ComparisonRepo) Create(ctx context.Context, c core.RenewalComparison) error {
	item, err := itemFromCore(c)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("comparisons.marshal: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("comparisons.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TableComparisons),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrComparisonExists
		}
		return fmt.Errorf("comparisons.put: %w", err)
	}
	return nil
}

func (r *ComparisonRepo) Get(ctx context.Context, id string) (core.RenewalComparison, error) {
	item, err := r.getItem(ctx, id)
	if err != nil {
		return core.RenewalComparison{}, err
	}
	return item.ToCore()
}

func (r *ComparisonRepo) getItem(ctx context.Context, id string) (ComparisonItem, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableComparisons),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return ComparisonItem{}, fmt.Errorf("comparisons.get: %w", err)
	}
	if out.Item == nil {
		return ComparisonItem{}, core.ErrComparisonNotFound
	}

	var item ComparisonItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return ComparisonItem{}, fmt.Errorf("comparisons.unmarshal: %w", err)
	}
	return item, nil
}

func (r *ComparisonRepo) List(ctx context.Context, filter core.ComparisonFilter, limit, offset int) ([]core.RenewalComparison, int64, error) {
	items, err := r.collect(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(items))
	if offset >= len(items) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	comparisons := make([]core.RenewalComparison, 0, end-offset)
	for _, item := range items[offset:end] {
		c, err := item.ToCore()
		if err != nil {
			return nil, 0, err
		}
		comparisons = append(comparisons, c)
	}
	return comparisons, total, nil
}

// collect pulls matching items newest first. Status filters hit the
// status GSI; line-only filters fall back to a scan.
func (r *ComparisonRepo) collect(ctx context.Context, filter core.ComparisonFilter) ([]ComparisonItem, error) {
	var items []ComparisonItem

	if filter.Status != "" {
		keyCond := expression.Key("status").Equal(expression.Value(string(filter.Status)))
		builder := expression.NewBuilder().WithKeyCondition(keyCond)
		if filter.Line != "" {
			builder = builder.WithFilter(expression.Name("line").Equal(expression.Value(string(filter.Line))))
		}
		expr, err := builder.Build()
		if err != nil {
			return nil, fmt.Errorf("comparisons.buildExpr: %w", err)
		}

		paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
			TableName:                 aws.String(TableComparisons),
			IndexName:                 aws.String(GSIComparisonsStatus),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(false), // newest first
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("comparisons.query: %w", err)
			}
			var pageItems []ComparisonItem
			if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
				return nil, fmt.Errorf("comparisons.unmarshalList: %w", err)
			}
			items = append(items, pageItems...)
		}
		return items, nil
	}

	input := &dynamodb.ScanInput{TableName: aws.String(TableComparisons)}
	if filter.Line != "" {
		expr, err := expression.NewBuilder().
			WithFilter(expression.Name("line").Equal(expression.Value(string(filter.Line)))).
			Build()
		if err != nil {
			return nil, fmt.Errorf("comparisons.buildExpr: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("comparisons.scan: %w", err)
		}
		var pageItems []ComparisonItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("comparisons.unmarshalList: %w", err)
		}
		items = append(items, pageItems...)
	}

	// Scan order is arbitrary; sort newest first to match the queue view
	sortByCreatedDesc(items)
	return items, nil
}

func sortByCreatedDesc(items []ComparisonItem) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].CreatedAt > items[j-1].CreatedAt; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

func (r *ComparisonRepo) SetCheckReview(ctx context.Context, id, ruleID, field string, reviewed bool, by string, at *time.Time, updatedAt time.Time) error {
	item, err := r.getItem(ctx, id)
	if err != nil {
		return err
	}

	var payload comparisonPayload
	if err := json.Unmarshal([]byte(item.Payload), &payload); err != nil {
		return fmt.Errorf("comparisons.unmarshalPayload: %w", err)
	}

	idx := -1
	for i, cr := range payload.Checks {
		if cr.RuleID == ruleID && cr.Field == field {
			idx = i
			break
		}
	}
	if idx == -1 {
		return core.ErrCheckNotFound
	}

	payload.Checks[idx].Reviewed = reviewed
	payload.Checks[idx].ReviewedBy = by
	payload.Checks[idx].ReviewedAt = at

	newPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("comparisons.marshalPayload: %w", err)
	}

	// Guard on updated_at so a concurrent writer's payload is never
	// silently overwritten
	cond := expression.Name("updated_at").Equal(expression.Value(item.UpdatedAt))
	update := expression.
		Set(expression.Name("payload"), expression.Value(string(newPayload))).
		Set(expression.Name("updated_at"), expression.Value(updatedAt.Format(time.RFC3339)))
	expr, err := expression.NewBuilder().WithCondition(cond).WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("comparisons.buildExpr: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(TableComparisons),
		Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		ConditionExpression:       expr.Condition(),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%w: comparison was updated concurrently", core.ErrConflict)
		}
		return fmt.Errorf("comparisons.setCheckReview: %w", err)
	}
	return nil
}

func (r *ComparisonRepo) RecordDecision(ctx context.Context, id string, d core.Decision, from, to core.ComparisonStatus) error {
	item, err := r.getItem(ctx, id)
	if err != nil {
		return err
	}
	if item.Status != string(from) {
		return core.ErrDecisionConflict
	}

	var trail decisionTrail
	if item.Decisions != "" {
		if err := json.Unmarshal([]byte(item.Decisions), &trail); err != nil {
			return fmt.Errorf("comparisons.unmarshalDecisions: %w", err)
		}
	}
	trail.Current = &d
	trail.History = append(trail.History, d)
	newTrail, err := json.Marshal(trail)
	if err != nil {
		return fmt.Errorf("comparisons.marshalDecisions: %w", err)
	}

	// At-most-one final decision: the write lands only while no
	// decision kind is recorded or the recorded one is recoverable,
	// and never on a terminal status. The updated_at guard protects
	// the trail append.
	recoverable := core.RecoverableDecisionKinds()
	kindOK := expression.AttributeNotExists(expression.Name("decision_kind")).
		Or(expression.Name("decision_kind").In(
			expression.Value(string(recoverable[0])),
			expression.Value(string(recoverable[1])),
			expression.Value(string(recoverable[2])),
		))
	notTerminal := expression.Name("status").In(
		expression.Value(string(core.StatusCompleted)),
		expression.Value(string(core.StatusCancelled)),
	).Not()
	seen := expression.Name("updated_at").Equal(expression.Value(item.UpdatedAt))
	cond := kindOK.And(notTerminal).And(seen)

	update := expression.
		Set(expression.Name("decision_kind"), expression.Value(string(d.Kind))).
		Set(expression.Name("decisions"), expression.Value(string(newTrail))).
		Set(expression.Name("status"), expression.Value(string(to))).
		Set(expression.Name("updated_at"), expression.Value(d.DecidedAt.Format(time.RFC3339)))
	// Only a real stage transition queues a CRM replay.
	if from != to {
		update = update.Set(expression.Name("sync_state"), expression.Value(syncPending))
	}

	expr, err := expression.NewBuilder().WithCondition(cond).WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("comparisons.buildExpr: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(TableComparisons),
		Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		ConditionExpression:       expr.Condition(),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrDecisionConflict
		}
		return fmt.Errorf("comparisons.recordDecision: %w", err)
	}
	return nil
}

func (r *ComparisonRepo) Cancel(ctx context.Context, id string, now time.Time) error {
	cond := expression.Name("status").Equal(expression.Value(string(core.StatusPending)))
	update := expression.
		Set(expression.Name("status"), expression.Value(string(core.StatusCancelled))).
		Set(expression.Name("sync_state"), expression.Value(syncPending)).
		Set(expression.Name("updated_at"), expression.Value(now.Format(time.RFC3339)))

	expr, err := expression.NewBuilder().WithCondition(cond).WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("comparisons.buildExpr: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(TableComparisons),
		Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		ConditionExpression:       expr.Condition(),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if _, getErr := r.getItem(ctx, id); getErr != nil {
				return getErr
			}
			return fmt.Errorf("%w: only pending comparisons can be cancelled", core.ErrInvalidState)
		}
		return fmt.Errorf("comparisons.cancel: %w", err)
	}
	return nil
}

func (r *ComparisonRepo) FindUnsynced(ctx context.Context, limit int) ([]core.RenewalComparison, error) {
	keyCond := expression.Key("sync_state").Equal(expression.Value(syncPending))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("comparisons.buildExpr: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(TableComparisons),
		IndexName:                 aws.String(GSIComparisonsSync),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("comparisons.queryUnsynced: %w", err)
	}

	var items []ComparisonItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("comparisons.unmarshalList: %w", err)
	}

	comparisons := make([]core.RenewalComparison, 0, len(items))
	for _, item := range items {
		c, err := item.ToCore()
		if err != nil {
			return nil, err
		}
		comparisons = append(comparisons, c)
	}
	return comparisons, nil
}

func (r *ComparisonRepo) MarkSynced(ctx context.Context, id string, status core.ComparisonStatus) error {
	// Conditional on the status so a move that raced the replay keeps
	// its pending sync state for the next poll
	cond := expression.Name("status").Equal(expression.Value(string(status)))
	update := expression.Set(expression.Name("sync_state"), expression.Value(syncDone))

	expr, err := expression.NewBuilder().WithCondition(cond).WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("comparisons.buildExpr: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(TableComparisons),
		Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		ConditionExpression:       expr.Condition(),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Status moved again; leave it for the next replay
			return nil
		}
		return fmt.Errorf("comparisons.markSynced: %w", err)
	}
	return nil
}
