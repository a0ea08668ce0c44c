package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// RateWindowRepo counts requests per (scope, identity) in fixed time windows.
// Items are keyed scope#identity#bucketStart and reaped by TTL once the window
// elapses. Fixed windows admit up to 2x the limit across a bucket boundary;
// that imprecision is accepted over tracking per-request timestamps.
type RateWindowRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRateWindowRepo(client *dynamodb.Client, tableName string) *RateWindowRepo {
	return &RateWindowRepo{client: client, tableName: tableName}
}

// Allow atomically increments the current window's counter and reports whether
// the request is within limit. The increment happens before the comparison, so
// a denied attempt is still recorded. retryAfter is how long until the window
// resets, for the Retry-After hint; counts are never exposed to callers.
func (r *RateWindowRepo) Allow(ctx context.Context, scope, identity string, windowSeconds, limit int) (allowed bool, retryAfter time.Duration, err error) {
	bucket := windowBucket(time.Now().Unix(), windowSeconds)
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("window_key", windowKey(scope, identity, bucket)),
		UpdateExpression: aws.String("SET #exp = if_not_exists(#exp, :exp) ADD #n :one"),
		ExpressionAttributeNames: map[string]string{
			"#n":   fieldRequestCount,
			"#exp": fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":exp": &types.AttributeValueMemberN{Value: strconv.FormatInt(bucket+int64(windowSeconds), 10)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return false, 0, fmt.Errorf("increment rate window: %w", err)
	}
	count, err := attrInt(out.Attributes, fieldRequestCount)
	if err != nil {
		return false, 0, err
	}
	if count > int64(limit) {
		reset := time.Unix(bucket+int64(windowSeconds), 0)
		return false, time.Until(reset), nil
	}
	return true, 0, nil
}

// Refund gives back one slot in the current window. Non-force gates call it
// when the guarded operation fails, permitting a retry within the same window.
// A missing item (already reaped) is not an error.
func (r *RateWindowRepo) Refund(ctx context.Context, scope, identity string, windowSeconds int) error {
	bucket := windowBucket(time.Now().Unix(), windowSeconds)
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("window_key", windowKey(scope, identity, bucket)),
		UpdateExpression:         aws.String("ADD #n :minus"),
		ConditionExpression:      aws.String("attribute_exists(window_key)"),
		ExpressionAttributeNames: map[string]string{"#n": fieldRequestCount},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":minus": &types.AttributeValueMemberN{Value: "-1"},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil
		}
		return err
	}
	return nil
}

// windowBucket truncates now to the start of its fixed window.
func windowBucket(now int64, windowSeconds int) int64 {
	w := int64(windowSeconds)
	return now - now%w
}

func windowKey(scope, identity string, bucket int64) string {
	return fmt.Sprintf("%s#%s#%d", scope, identity, bucket)
}

func attrInt(attrs map[string]types.AttributeValue, name string) (int64, error) {
	n, ok := attrs[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute %s missing from update result", name)
	}
	return strconv.ParseInt(n.Value, 10, 64)
}
