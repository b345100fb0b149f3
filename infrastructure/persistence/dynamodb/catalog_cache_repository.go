package dynamodb

import (
	"context"
	"fmt"
	"time"

	"catalog-cache/application/ports"
	"catalog-cache/domain/core/entities"
	"catalog-cache/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	catalogEntityType = "CATALOG_CACHE"
	lookupPageSize    = 10
)

// CatalogCacheRepository stores catalog cache generations in the single table
type CatalogCacheRepository struct {
	client    API
	tableName string
	indexName string
	retention time.Duration
	logger    *zap.Logger
}

// NewCatalogCacheRepository creates a new CatalogCacheRepository. Expired rows get a
// DynamoDB TTL attribute retention after they expire.
func NewCatalogCacheRepository(client API, tableName, indexName string, retention time.Duration, logger *zap.Logger) *CatalogCacheRepository {
	return &CatalogCacheRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		retention: retention,
		logger:    logger,
	}
}

var _ ports.CatalogCacheRepository = (*CatalogCacheRepository)(nil)

// catalogItem represents the DynamoDB item structure for a cache generation
type catalogItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	GSI1PK         string `dynamodbav:"GSI1PK"` // CATALOGTYPE#<searchType>
	GSI1SK         string `dynamodbav:"GSI1SK"`
	EntityType     string `dynamodbav:"EntityType"`
	ID             string `dynamodbav:"ID"`
	SearchType     string `dynamodbav:"SearchType"`
	Query          string `dynamodbav:"Query,omitempty"`
	MaxResults     int    `dynamodbav:"MaxResults,omitempty"`
	ChannelID      string `dynamodbav:"ChannelID,omitempty"`
	Payload        string `dynamodbav:"Payload"`
	CachedAt       int64  `dynamodbav:"CachedAt"`
	ExpiresAt      int64  `dynamodbav:"ExpiresAt"`
	TimesReused    int    `dynamodbav:"TimesReused"`
	LastAccessedAt int64  `dynamodbav:"LastAccessedAt"`
	TTL            int64  `dynamodbav:"TTL,omitempty"`
}

func catalogPK(key valueobjects.SearchKey) string {
	return "CATALOG#" + key.Composite()
}

func catalogTypePK(searchType valueobjects.SearchType) string {
	return "CATALOGTYPE#" + string(searchType)
}

func (r *CatalogCacheRepository) toItem(entry *entities.CacheEntry) (catalogItem, error) {
	payload, err := entities.EncodePayload(entry.Payload)
	if err != nil {
		return catalogItem{}, err
	}
	sk := entrySortKey(entry.CachedAt, entry.ID)
	item := catalogItem{
		PK:             catalogPK(entry.Key),
		SK:             sk,
		GSI1PK:         catalogTypePK(entry.Key.SearchType),
		GSI1SK:         sk,
		EntityType:     catalogEntityType,
		ID:             entry.ID,
		SearchType:     string(entry.Key.SearchType),
		Query:          entry.Key.Query,
		MaxResults:     entry.Key.MaxResults,
		ChannelID:      entry.Key.ChannelID,
		Payload:        string(payload),
		CachedAt:       entry.CachedAt.UnixMilli(),
		ExpiresAt:      entry.ExpiresAt.UnixMilli(),
		TimesReused:    entry.TimesReused,
		LastAccessedAt: entry.LastAccessedAt.UnixMilli(),
	}
	if r.retention > 0 {
		item.TTL = entry.ExpiresAt.Add(r.retention).Unix()
	}
	return item, nil
}

func (item catalogItem) toEntry() (*entities.CacheEntry, error) {
	searchType := valueobjects.SearchType(item.SearchType)
	key := valueobjects.SearchKey{
		SearchType: searchType,
		Query:      item.Query,
		MaxResults: item.MaxResults,
		ChannelID:  item.ChannelID,
	}
	if catalogPK(key) != item.PK {
		return nil, fmt.Errorf("row %s/%s: key fields do not match partition key", item.PK, item.SK)
	}
	payload, err := entities.DecodePayload(searchType, []byte(item.Payload))
	if err != nil {
		return nil, fmt.Errorf("row %s/%s: %w", item.PK, item.SK, err)
	}
	return &entities.CacheEntry{
		ID:             item.ID,
		Key:            key,
		Payload:        payload,
		CachedAt:       time.UnixMilli(item.CachedAt).UTC(),
		ExpiresAt:      time.UnixMilli(item.ExpiresAt).UTC(),
		TimesReused:    item.TimesReused,
		LastAccessedAt: time.UnixMilli(item.LastAccessedAt).UTC(),
	}, nil
}

// Lookup returns the freshest generation that is still valid at now
func (r *CatalogCacheRepository) Lookup(ctx context.Context, key valueobjects.SearchKey, now time.Time) (*entities.CacheEntry, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(catalogPK(key)))
	filter := expression.Name("ExpiresAt").GreaterThan(expression.Value(now.UnixMilli()))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 table(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(lookupPageSize),
	}

	var found *entities.CacheEntry
	err = queryPages(ctx, r.client, input, func(items []map[string]types.AttributeValue) bool {
		for _, av := range items {
			var item catalogItem
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				r.logger.Warn("Skipping unreadable cache row", zap.String("key", key.Composite()), zap.Error(err))
				continue
			}
			entry, err := item.toEntry()
			if err != nil {
				r.logger.Warn("Skipping corrupt cache row", zap.String("key", key.Composite()), zap.Error(err))
				continue
			}
			if entry.IsValid(now) {
				found = entry
				return false
			}
		}
		return true
	})
	if err != nil {
		return nil, classifyError("catalog lookup", err)
	}
	return found, nil
}

// RecordHit bumps the reuse counter of one row without touching its payload
func (r *CatalogCacheRepository) RecordHit(ctx context.Context, entry *entities.CacheEntry, now time.Time) error {
	return recordHit(ctx, r.client, r.tableName,
		primaryKey(catalogPK(entry.Key), entrySortKey(entry.CachedAt, entry.ID)), now, "catalog record hit")
}

// Insert appends a new generation. It never overwrites an existing row.
func (r *CatalogCacheRepository) Insert(ctx context.Context, entry *entities.CacheEntry) error {
	item, err := r.toItem(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build insert condition: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                table(r.tableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	}); err != nil {
		return classifyError("catalog insert", err)
	}

	r.logger.Debug("Inserted cache entry",
		zap.String("PK", item.PK),
		zap.String("SK", item.SK),
	)
	return nil
}

// DeleteKey removes every generation of one key
func (r *CatalogCacheRepository) DeleteKey(ctx context.Context, key valueobjects.SearchKey) (int, error) {
	keys, err := collectKeys(ctx, r.client, r.tableName, "", "PK", catalogPK(key))
	if err != nil {
		return 0, classifyError("catalog delete key", err)
	}
	deleted, err := batchDelete(ctx, r.client, r.tableName, keys, r.logger)
	if err != nil {
		return deleted, classifyError("catalog delete key", err)
	}
	return deleted, nil
}

// DeleteAll removes every row of a search type, or every catalog row when searchType is empty
func (r *CatalogCacheRepository) DeleteAll(ctx context.Context, searchType valueobjects.SearchType) (int, error) {
	searchTypes := valueobjects.AllSearchTypes
	if searchType != "" {
		searchTypes = []valueobjects.SearchType{searchType}
	}

	total := 0
	for _, t := range searchTypes {
		keys, err := collectKeys(ctx, r.client, r.tableName, r.indexName, "GSI1PK", catalogTypePK(t))
		if err != nil {
			return total, classifyError("catalog delete all", err)
		}
		deleted, err := batchDelete(ctx, r.client, r.tableName, keys, r.logger)
		total += deleted
		if err != nil {
			return total, classifyError("catalog delete all", err)
		}
	}
	return total, nil
}

// Stats counts rows per search type
func (r *CatalogCacheRepository) Stats(ctx context.Context, now time.Time) (map[valueobjects.SearchType]ports.TypeStats, error) {
	proj := expression.NamesList(expression.Name("ExpiresAt"), expression.Name("TimesReused"))
	stats := make(map[valueobjects.SearchType]ports.TypeStats, len(valueobjects.AllSearchTypes))

	for _, t := range valueobjects.AllSearchTypes {
		keyCond := expression.Key("GSI1PK").Equal(expression.Value(catalogTypePK(t)))
		expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithProjection(proj).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build stats expression: %w", err)
		}

		var st ports.TypeStats
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
					ExpiresAt   int64 `dynamodbav:"ExpiresAt"`
					TimesReused int   `dynamodbav:"TimesReused"`
				}
				if err := attributevalue.UnmarshalMap(av, &row); err != nil {
					continue
				}
				st.Total++
				st.TotalReuses += row.TimesReused
				if now.UnixMilli() < row.ExpiresAt {
					st.Valid++
				}
			}
			return true
		})
		if err != nil {
			return nil, classifyError("catalog stats", err)
		}
		stats[t] = st
	}
	return stats, nil
}

// recordHit increments TimesReused and stamps LastAccessedAt on an existing row
func recordHit(ctx context.Context, client API, tableName string, key map[string]types.AttributeValue, now time.Time, operation string) error {
	update := expression.
		Add(expression.Name("TimesReused"), expression.Value(1)).
		Set(expression.Name("LastAccessedAt"), expression.Value(now.UnixMilli()))
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build hit expression: %w", err)
	}

	_, err = client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 table(tableName),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return classifyError(operation, err)
}

// collectKeys returns the primary keys of every row under one partition of the table or an index
func collectKeys(ctx context.Context, client API, tableName, indexName, attr, value string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key(attr).Equal(expression.Value(value))
	proj := expression.NamesList(expression.Name("PK"), expression.Name("SK"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithProjection(proj).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 table(tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if indexName != "" {
		input.IndexName = aws.String(indexName)
	}

	var keys []map[string]types.AttributeValue
	err = queryPages(ctx, client, input, func(items []map[string]types.AttributeValue) bool {
		for _, item := range items {
			keys = append(keys, keyOf(item))
		}
		return true
	})
	return keys, err
}
