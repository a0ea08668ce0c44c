package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-nosql/internal/domain"
)

// TeamRepo reads teams and memberships. Writes happen only through the
// provisioning transaction in AccountRepo.
type TeamRepo struct {
	client     *dynamodb.Client
	teamsTbl   string
	membersTbl string
}

func NewTeamRepo(client *dynamodb.Client, teamsTbl, membersTbl string) *TeamRepo {
	return &TeamRepo{client: client, teamsTbl: teamsTbl, membersTbl: membersTbl}
}

func (r *TeamRepo) Get(ctx context.Context, teamID string) (*domain.Team, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.teamsTbl),
		Key:       strKey("team_id", teamID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("team not found: %w", domain.ErrNotFound)
	}
	var t domain.Team
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeamRepo) GetMembership(ctx context.Context, tmbID string) (*domain.TeamMember, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.membersTbl),
		Key:       strKey("tmb_id", tmbID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("membership not found: %w", domain.ErrNotFound)
	}
	var m domain.TeamMember
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMembershipByAccount returns the account's membership via the
// account_id-index GSI. Registration creates exactly one.
func (r *TeamRepo) GetMembershipByAccount(ctx context.Context, accountID string) (*domain.TeamMember, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.membersTbl),
		IndexName:              aws.String("account_id-index"),
		KeyConditionExpression: aws.String("account_id = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: accountID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("membership not found: %w", domain.ErrNotFound)
	}
	var m domain.TeamMember
	if err := attributevalue.UnmarshalMap(out.Items[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}
