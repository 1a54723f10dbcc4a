package ddb

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"imet-backend/internal/repository"
	"imet-backend/internal/repository/repotest"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items in memory and understands the condition shapes the store builds.
type fakeDynamo struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	failWith error
	scans    int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue), pageSize: 2}
}

func pk(key map[string]types.AttributeValue) string {
	return key["PK"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &dynamodb.GetItemOutput{Item: f.items[pk(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	id := pk(in.Item)
	existing, exists := f.items[id]
	if err := f.check(in.ConditionExpression, in.ExpressionAttributeValues, existing, exists, in.ReturnValuesOnConditionCheckFailure); err != nil {
		return nil, err
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	id := pk(in.Key)
	existing, exists := f.items[id]
	if err := f.check(in.ConditionExpression, in.ExpressionAttributeValues, existing, exists, ""); err != nil {
		return nil, err
	}
	delete(f.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) check(
	cond *string,
	values map[string]types.AttributeValue,
	existing map[string]types.AttributeValue,
	exists bool,
	ret types.ReturnValuesOnConditionCheckFailure,
) error {
	if cond == nil {
		return nil
	}
	fail := func() error {
		ccf := &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		if ret == types.ReturnValuesOnConditionCheckFailureAllOld {
			ccf.Item = existing
		}
		return ccf
	}

	switch {
	case strings.Contains(*cond, "attribute_not_exists"):
		if exists {
			return fail()
		}
	case strings.Contains(*cond, "attribute_exists"):
		if !exists {
			return fail()
		}
		for _, v := range values {
			want := v.(*types.AttributeValueMemberN).Value
			got := existing["Version"].(*types.AttributeValueMemberN).Value
			if want != got {
				return fail()
			}
		}
	}
	return nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.scans++

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		start, _ = strconv.Atoi(in.ExclusiveStartKey["offset"].(*types.AttributeValueMemberN).Value)
	}
	end := start + f.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, f.items[k])
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"offset": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
		}
	}
	return out, nil
}

func TestStoreContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.ConnectionRepository {
		return NewStore(newFakeDynamo(), "imet-test", nil)
	})
}

func TestListFollowsPagination(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := NewStore(fake, "imet-test", nil)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"e", "d", "c", "b", "a"} {
		require.NoError(t, store.Insert(ctx, repotest.Sample(id, strings.ToUpper(id), base.Add(time.Duration(i)*time.Minute))))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "e", list[0].ID)
	assert.Equal(t, "a", list[4].ID)
	assert.Equal(t, 3, fake.scans)
}

func TestItemKeysAndTimestamps(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	conn := repotest.Sample("abc", "Jane", created)

	it := toItem(conn)
	assert.Equal(t, "CONNECTION#abc", it.PK)
	assert.Equal(t, "METADATA", it.SK)
	assert.Equal(t, "Connection", it.EntityType)
	assert.Equal(t, "2024-05-01T12:00:00.123456789Z", it.CreatedAt)
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	fake.failWith = &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException", Message: "slow down"}
	store := NewStore(fake, "imet-test", nil)

	_, err := store.FindByID(ctx, "c1")
	require.Error(t, err)
	assert.False(t, repository.IsNotFound(err))

	var apiErr smithy.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "ProvisionedThroughputExceededException", apiErr.ErrorCode())

	assert.Error(t, store.Ping(ctx))
	_, err = store.List(ctx)
	assert.Error(t, err)
}
