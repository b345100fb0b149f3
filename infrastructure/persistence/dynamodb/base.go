package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "catalog-cache/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// BatchWriteItem accepts at most this many requests per call
const maxBatchWrite = 25

const maxBatchRetries = 5

// ErrDuplicateEntry is returned when an insert collides with an existing row
var ErrDuplicateEntry = errors.New("cache entry already exists")

// API is the subset of the DynamoDB client the repositories use
type API interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// entrySortKey orders generations by creation time; the id breaks ties
func entrySortKey(cachedAt time.Time, id string) string {
	return fmt.Sprintf("ENTRY#%013d#%s", cachedAt.UnixMilli(), id)
}

func primaryKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// classifyError converts SDK failures into application errors
func classifyError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return apperrors.NewDatabaseError(operation, err)
	}

	switch ae.ErrorCode() {
	case "ConditionalCheckFailedException":
		return apperrors.NewDatabaseError(operation, fmt.Errorf("%w: %s", ErrDuplicateEntry, ae.ErrorMessage())).
			WithCode(ae.ErrorCode())
	case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
		return apperrors.NewThrottledError("dynamodb", err).WithCode(ae.ErrorCode())
	case "ResourceNotFoundException":
		return apperrors.NewConfigurationError("dynamodb table not found: " + ae.ErrorMessage()).WithCause(err)
	default:
		return apperrors.NewDatabaseError(operation, err).WithCode(ae.ErrorCode())
	}
}

// queryPages runs a query to exhaustion, handing every page to fn. fn returns false to stop early.
func queryPages(ctx context.Context, client API, input *dynamodb.QueryInput, fn func(items []map[string]types.AttributeValue) bool) error {
	for {
		out, err := client.Query(ctx, input)
		if err != nil {
			return err
		}
		if !fn(out.Items) || len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// batchDelete removes keys in chunks of 25, resubmitting unprocessed requests with backoff
func batchDelete(ctx context.Context, client API, tableName string, keys []map[string]types.AttributeValue, logger *zap.Logger) (int, error) {
	deleted := 0
	for start := 0; start < len(keys); start += maxBatchWrite {
		end := start + maxBatchWrite
		if end > len(keys) {
			end = len(keys)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, key := range keys[start:end] {
			requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
		}

		for attempt := 0; len(requests) > 0; attempt++ {
			if attempt > maxBatchRetries {
				return deleted, fmt.Errorf("%d delete requests still unprocessed after %d retries", len(requests), maxBatchRetries)
			}
			if attempt > 0 {
				backoff := time.Duration(1<<attempt) * 25 * time.Millisecond
				select {
				case <-ctx.Done():
					return deleted, ctx.Err()
				case <-time.After(backoff):
				}
			}

			out, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{tableName: requests},
			})
			if err != nil {
				return deleted, err
			}

			unprocessed := out.UnprocessedItems[tableName]
			deleted += len(requests) - len(unprocessed)
			if len(unprocessed) > 0 {
				logger.Warn("Retrying unprocessed deletes",
					zap.Int("unprocessed", len(unprocessed)),
					zap.Int("attempt", attempt+1),
				)
			}
			requests = unprocessed
		}
	}
	return deleted, nil
}

func keyOf(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"PK": item["PK"], "SK": item["SK"]}
}

func table(name string) *string { return aws.String(name) }
