package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-nosql/internal/domain"
)

// AccountRepo provides typed DynamoDB operations for the accounts table and the
// cross-table provisioning transaction. Accounts are keyed by username; the
// key schema itself is the uniqueness constraint.
type AccountRepo struct {
	client      *dynamodb.Client
	accountsTbl string
	teamsTbl    string
	membersTbl  string
}

func NewAccountRepo(client *dynamodb.Client, accountsTbl, teamsTbl, membersTbl string) *AccountRepo {
	return &AccountRepo{client: client, accountsTbl: accountsTbl, teamsTbl: teamsTbl, membersTbl: membersTbl}
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.accountsTbl),
		Key:       strKey("username", username),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.accountsTbl),
		IndexName:              aws.String("account_id-index"),
		KeyConditionExpression: aws.String("account_id = :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: accountID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateWithDefaultTeam writes the account, its default team and the owning
// membership in a single TransactWriteItems. Either all three items become
// visible together or none do. The condition on the account item enforces
// username uniqueness at commit time; the service-layer pre-check is only a
// fast path, and losing the race here surfaces as ErrAccountExists, not as a
// generic transaction failure.
func (r *AccountRepo) CreateWithDefaultTeam(ctx context.Context, a *domain.Account, t *domain.Team, m *domain.TeamMember) error {
	accItem, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	teamItem, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal team: %w", err)
	}
	memberItem, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal team member: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.accountsTbl),
				Item:                accItem,
				ConditionExpression: aws.String("attribute_not_exists(username)"),
			}},
			{Put: &types.Put{
				TableName: aws.String(r.teamsTbl),
				Item:      teamItem,
			}},
			{Put: &types.Put{
				TableName: aws.String(r.membersTbl),
				Item:      memberItem,
			}},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for _, reason := range tce.CancellationReasons {
				if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
					return fmt.Errorf("username taken: %w", domain.ErrAccountExists)
				}
			}
		}
		return fmt.Errorf("provisioning transaction: %w: %v", domain.ErrTransactionFailed, err)
	}
	return nil
}

// UpdateLastActiveMembership records the membership the account last acted as.
// Best-effort post-commit denormalization; callers tolerate failure.
func (r *AccountRepo) UpdateLastActiveMembership(ctx context.Context, username, tmbID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldLastTmbID: tmbID,
		"updated_at":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.accountsTbl),
		Key:                       strKey("username", username),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
