package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalog-cache/application/ports"
	"catalog-cache/domain/core/entities"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	reviewEntityType = "REVIEW_CACHE"
	reviewsGSI1PK    = "REVIEWS"
)

// ReviewCacheRepository stores content reviews in the single table. Reviews carry no TTL.
type ReviewCacheRepository struct {
	client    API
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewReviewCacheRepository creates a new ReviewCacheRepository
func NewReviewCacheRepository(client API, tableName, indexName string, logger *zap.Logger) *ReviewCacheRepository {
	return &ReviewCacheRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

var _ ports.ReviewCacheRepository = (*ReviewCacheRepository)(nil)

type reviewItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	GSI1PK         string `dynamodbav:"GSI1PK"`
	GSI1SK         string `dynamodbav:"GSI1SK"`
	EntityType     string `dynamodbav:"EntityType"`
	ID             string `dynamodbav:"ID"`
	EntityID       string `dynamodbav:"EntityID"`
	Review         string `dynamodbav:"Review"`
	CachedAt       int64  `dynamodbav:"CachedAt"`
	TimesReused    int    `dynamodbav:"TimesReused"`
	LastAccessedAt int64  `dynamodbav:"LastAccessedAt"`
}

func reviewPK(entityID string) string {
	return "REVIEW#" + entityID
}

func newReviewItem(entry *entities.ReviewEntry) (reviewItem, error) {
	body, err := json.Marshal(entry.Review)
	if err != nil {
		return reviewItem{}, err
	}
	sk := entrySortKey(entry.CachedAt, entry.ID)
	return reviewItem{
		PK:             reviewPK(entry.EntityID),
		SK:             sk,
		GSI1PK:         reviewsGSI1PK,
		GSI1SK:         sk,
		EntityType:     reviewEntityType,
		ID:             entry.ID,
		EntityID:       entry.EntityID,
		Review:         string(body),
		CachedAt:       entry.CachedAt.UnixMilli(),
		TimesReused:    entry.TimesReused,
		LastAccessedAt: entry.LastAccessedAt.UnixMilli(),
	}, nil
}

func (item reviewItem) toEntry() (*entities.ReviewEntry, error) {
	var review entities.ContentReview
	if err := json.Unmarshal([]byte(item.Review), &review); err != nil {
		return nil, fmt.Errorf("row %s/%s: %w", item.PK, item.SK, err)
	}
	return &entities.ReviewEntry{
		ID:             item.ID,
		EntityID:       item.EntityID,
		Review:         review,
		CachedAt:       time.UnixMilli(item.CachedAt).UTC(),
		TimesReused:    item.TimesReused,
		LastAccessedAt: time.UnixMilli(item.LastAccessedAt).UTC(),
	}, nil
}

// Lookup returns the newest review of an entity
func (r *ReviewCacheRepository) Lookup(ctx context.Context, entityID string) (*entities.ReviewEntry, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(reviewPK(entityID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build review lookup expression: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 table(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, classifyError("review lookup", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var item reviewItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal review: %w", err)
	}
	return item.toEntry()
}

// RecordHit bumps the reuse counter of one review row
func (r *ReviewCacheRepository) RecordHit(ctx context.Context, entry *entities.ReviewEntry, now time.Time) error {
	return recordHit(ctx, r.client, r.tableName,
		primaryKey(reviewPK(entry.EntityID), entrySortKey(entry.CachedAt, entry.ID)), now, "review record hit")
}

// Insert appends a review row
func (r *ReviewCacheRepository) Insert(ctx context.Context, entry *entities.ReviewEntry) error {
	item, err := newReviewItem(entry)
	if err != nil {
		return fmt.Errorf("failed to encode review: %w", err)
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build insert condition: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                table(r.tableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	}); err != nil {
		return classifyError("review insert", err)
	}
	return nil
}

// Delete removes every review row of an entity
func (r *ReviewCacheRepository) Delete(ctx context.Context, entityID string) (int, error) {
	keys, err := collectKeys(ctx, r.client, r.tableName, "", "PK", reviewPK(entityID))
	if err != nil {
		return 0, classifyError("review delete", err)
	}
	deleted, err := batchDelete(ctx, r.client, r.tableName, keys, r.logger)
	if err != nil {
		return deleted, classifyError("review delete", err)
	}
	return deleted, nil
}

// DeleteAll removes every review row
func (r *ReviewCacheRepository) DeleteAll(ctx context.Context) (int, error) {
	keys, err := collectKeys(ctx, r.client, r.tableName, r.indexName, "GSI1PK", reviewsGSI1PK)
	if err != nil {
		return 0, classifyError("review delete all", err)
	}
	deleted, err := batchDelete(ctx, r.client, r.tableName, keys, r.logger)
	if err != nil {
		return deleted, classifyError("review delete all", err)
	}
	return deleted, nil
}

// Stats counts review rows and their reuses
func (r *ReviewCacheRepository) Stats(ctx context.Context) (ports.ReviewStats, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(reviewsGSI1PK))
	proj := expression.NamesList(expression.Name("TimesReused"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithProjection(proj).Build()
	if err != nil {
		return ports.ReviewStats{}, fmt.Errorf("failed to build stats expression: %w", err)
	}

	var stats ports.ReviewStats
	err = queryPages(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 table(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, func(items []map[string]types.AttributeValue) bool {
		for _, av := range items {
			var row struct {
				TimesReused int `dynamodbav:"TimesReused"`
			}
			if err := attributevalue.UnmarshalMap(av, &row); err != nil {
				continue
			}
			stats.Entries++
			stats.TotalReuses += row.TimesReused
		}
		return true
	})
	if err != nil {
		return ports.ReviewStats{}, classifyError("review stats", err)
	}
	return stats, nil
}
