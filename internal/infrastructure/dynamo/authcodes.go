package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-nosql/internal/domain"
)

// AuthCodeRepo stores outstanding verification codes.
// PK: identifier, SK: type — one live code per (identifier, type).
type AuthCodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAuthCodeRepo(client *dynamodb.Client, tableName string) *AuthCodeRepo {
	return &AuthCodeRepo{client: client, tableName: tableName}
}

// Put unconditionally replaces any existing code for the same (identifier, type).
// A previously issued, unconsumed code for that scope stops verifying the moment
// the new item lands, even if it had time left.
func (r *AuthCodeRepo) Put(ctx context.Context, v *domain.AuthCode) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal auth code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Consume atomically checks and deletes the code for (identifier, codeType).
// The conditional delete is the single mutual-exclusion point: of two concurrent
// calls with the correct code, exactly one delete succeeds and the other fails
// the condition. Expiry is enforced here at read time; the table's TTL reaper is
// an optimization, never relied on for correctness.
//
// Every failure mode — wrong code, expired, already consumed, never issued —
// collapses into domain.ErrInvalidCode so callers cannot enumerate codes.
func (r *AuthCodeRepo) Consume(ctx context.Context, identifier string, codeType domain.CodeType, code string, now time.Time) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("identifier", identifier, "type", string(codeType)),
		ConditionExpression: aws.String("#c = :c AND #exp > :now"),
		ExpressionAttributeNames: map[string]string{
			"#c":   "code",
			"#exp": fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c":   &types.AttributeValueMemberS{Value: code},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return domain.ErrInvalidCode
		}
		return err
	}
	return nil
}
