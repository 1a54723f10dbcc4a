// Package ddb stores connections in a single DynamoDB table.
package ddb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"imet-backend/internal/domain"
	"imet-backend/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	entityType  = "Connection"
	metadataKey = "METADATA"
	keyPrefix   = "CONNECTION#"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// item is the stored shape of a connection.
type item struct {
	PK              string   `dynamodbav:"PK"`
	SK              string   `dynamodbav:"SK"`
	EntityType      string   `dynamodbav:"EntityType"`
	ID              string   `dynamodbav:"ID"`
	Name            *string  `dynamodbav:"Name,omitempty"`
	MeetingLocation *string  `dynamodbav:"MeetingLocation,omitempty"`
	MeetingDate     *string  `dynamodbav:"MeetingDate,omitempty"`
	Interests       []string `dynamodbav:"Interests"`
	Tags            []string `dynamodbav:"Tags"`
	Summary         *string  `dynamodbav:"Summary,omitempty"`
	Notes           *string  `dynamodbav:"Notes,omitempty"`
	FunFacts        []string `dynamodbav:"FunFacts"`
	Email           *string  `dynamodbav:"Email,omitempty"`
	Phone           *string  `dynamodbav:"Phone,omitempty"`
	LinkedIn        *string  `dynamodbav:"LinkedIn,omitempty"`
	RawInput        *string  `dynamodbav:"RawInput,omitempty"`
	CreatedAt       string   `dynamodbav:"CreatedAt"`
	UpdatedAt       string   `dynamodbav:"UpdatedAt"`
	Version         int      `dynamodbav:"Version"`
}

// Store is a ConnectionRepository backed by DynamoDB. Every write is a conditional
// PutItem or DeleteItem on the record's own key.
type Store struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewStore creates a store for tableName.
func NewStore(client API, tableName string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, tableName: tableName, logger: logger}
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: keyPrefix + id},
		"SK": &types.AttributeValueMemberS{Value: metadataKey},
	}
}

// List scans every connection and orders them by CreatedAt, then ID.
func (s *Store) List(ctx context.Context) ([]domain.Connection, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityType))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, repository.NewStorage("build scan expression", err)
	}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})

	out := make([]domain.Connection, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.storageError("list connections", err)
		}
		for _, raw := range page.Items {
			conn, err := fromItem(raw)
			if err != nil {
				return nil, repository.NewStorage("decode connection", err)
			}
			out = append(out, conn)
		}
	}

	repository.SortConnections(out)
	return out, nil
}

// FindByID returns the connection with id.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.Connection, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, s.storageError("get connection", err)
	}
	if len(resp.Item) == 0 {
		return nil, repository.NewNotFound(id)
	}

	conn, err := fromItem(resp.Item)
	if err != nil {
		return nil, repository.NewStorage("decode connection", err)
	}
	return &conn, nil
}

// Insert adds a new connection; an existing id is a conflict.
func (s *Store) Insert(ctx context.Context, conn domain.Connection) error {
	cond := expression.Name("PK").AttributeNotExists()
	err := s.put(ctx, conn, cond)

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return repository.NewConflict(conn.ID, "already exists")
	}
	if err != nil {
		return s.storageError("create connection", err)
	}

	s.logger.Debug("Connection created", zap.String("connectionID", conn.ID))
	return nil
}

// Save replaces a connection if the stored version still equals expectedVersion.
func (s *Store) Save(ctx context.Context, conn domain.Connection, expectedVersion int) error {
	cond := expression.Name("PK").AttributeExists().
		And(expression.Name("Version").Equal(expression.Value(expectedVersion)))
	err := s.put(ctx, conn, cond)

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		// ALL_OLD returns the current item when the check fails; none means it is gone.
		if len(ccf.Item) == 0 {
			return repository.NewNotFound(conn.ID)
		}
		return repository.NewConflict(conn.ID, "version mismatch")
	}
	if err != nil {
		return s.storageError("update connection", err)
	}

	s.logger.Debug("Connection saved",
		zap.String("connectionID", conn.ID),
		zap.Int("version", conn.Version),
	)
	return nil
}

func (s *Store) put(ctx context.Context, conn domain.Connection, cond expression.ConditionBuilder) error {
	av, err := attributevalue.MarshalMap(toItem(conn))
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                           aws.String(s.tableName),
		Item:                                av,
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	return err
}

// Delete removes a connection.
func (s *Store) Delete(ctx context.Context, id string) error {
	expr, err := expression.NewBuilder().WithCondition(expression.Name("PK").AttributeExists()).Build()
	if err != nil {
		return repository.NewStorage("build delete expression", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      key(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return repository.NewNotFound(id)
	}
	if err != nil {
		return s.storageError("delete connection", err)
	}
	return nil
}

// Ping checks that the table is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key("__ping__"),
	})
	if err != nil {
		return s.storageError("ping table", err)
	}
	return nil
}

// storageError logs the AWS error code and wraps err as a storage failure.
func (s *Store) storageError(operation string, err error) error {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("table", s.tableName),
		zap.Error(err),
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields,
			zap.String("errorCode", apiErr.ErrorCode()),
			zap.String("fault", apiErr.ErrorFault().String()),
		)
	}
	s.logger.Error("DynamoDB operation failed", fields...)
	return repository.NewStorage(operation, err)
}

func toItem(c domain.Connection) item {
	f := c.ConnectionFields.Normalize()
	return item{
		PK:              keyPrefix + c.ID,
		SK:              metadataKey,
		EntityType:      entityType,
		ID:              c.ID,
		Name:            f.Name,
		MeetingLocation: f.MeetingLocation,
		MeetingDate:     f.MeetingDate,
		Interests:       f.Interests,
		Tags:            f.Tags,
		Summary:         f.Summary,
		Notes:           f.Notes,
		FunFacts:        f.FunFacts,
		Email:           f.Email,
		Phone:           f.Phone,
		LinkedIn:        f.LinkedIn,
		RawInput:        f.RawInput,
		CreatedAt:       c.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       c.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Version:         c.Version,
	}
}

func fromItem(av map[string]types.AttributeValue) (domain.Connection, error) {
	var it item
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return domain.Connection{}, err
	}

	id := it.ID
	if id == "" {
		id = strings.TrimPrefix(it.PK, keyPrefix)
	}
	created, err := time.Parse(time.RFC3339Nano, it.CreatedAt)
	if err != nil {
		return domain.Connection{}, fmt.Errorf("invalid CreatedAt for %s: %w", id, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	if err != nil {
		return domain.Connection{}, fmt.Errorf("invalid UpdatedAt for %s: %w", id, err)
	}

	fields := domain.ConnectionFields{
		Name:            it.Name,
		MeetingLocation: it.MeetingLocation,
		MeetingDate:     it.MeetingDate,
		Interests:       it.Interests,
		Tags:            it.Tags,
		Summary:         it.Summary,
		Notes:           it.Notes,
		FunFacts:        it.FunFacts,
		Email:           it.Email,
		Phone:           it.Phone,
		LinkedIn:        it.LinkedIn,
		RawInput:        it.RawInput,
	}
	return domain.Connection{
		ID:               id,
		ConnectionFields: fields.Normalize(),
		CreatedAt:        created,
		UpdatedAt:        updated,
		Version:          it.Version,
	}, nil
}
