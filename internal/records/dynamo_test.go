package records

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	items   map[string]map[string]ddbtypes.AttributeValue
	updates []*dynamodb.UpdateItemInput
	queries int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]ddbtypes.AttributeValue{}}
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[str(in.Key, "id")]}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	id := str(in.Item, "id")
	if _, ok := f.items[id]; ok {
		return nil, &ddbtypes.ConditionalCheckFailedException{}
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if _, ok := f.items[str(in.Key, "id")]; !ok {
		return nil, &ddbtypes.ConditionalCheckFailedException{}
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(f.items, str(in.Key, "id"))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries++
	owner := str(in.ExpressionAttributeValues, ":u")
	var items []map[string]ddbtypes.AttributeValue
	for _, item := range f.items {
		if str(item, "user") == owner {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return str(items[i], "id") < str(items[j], "id") })
	// serve one item per page to exercise pagination
	if in.ExclusiveStartKey == nil && len(items) > 1 {
		return &dynamodb.QueryOutput{Items: items[:1], LastEvaluatedKey: key("cursor")}, nil
	}
	if in.ExclusiveStartKey != nil {
		return &dynamodb.QueryOutput{Items: items[1:]}, nil
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func TestDynamoStoreUpdateExpression(t *testing.T) {
	f := newFakeDynamo()
	store := NewDynamoStore(f, "extensions", "")
	require.NoError(t, store.Create(t.Context(), Record{Path: "my-ext", Owner: "user-1", PriceRef: "price_1"}))

	err := store.Update(t.Context(), "my-ext", []Change{
		{Field: FieldDescription, Value: "desc"},
		{Field: FieldPrice, Remove: true},
	})
	require.NoError(t, err)
	require.Len(t, f.updates, 1)

	in := f.updates[0]
	assert.Equal(t, "SET #description = :description REMOVE #price", aws.ToString(in.UpdateExpression))
	assert.Equal(t, "attribute_exists(#id)", aws.ToString(in.ConditionExpression))
	assert.Equal(t, map[string]string{"#id": "id", "#description": "description", "#price": "price"}, in.ExpressionAttributeNames)
	assert.Equal(t, "desc", str(in.ExpressionAttributeValues, ":description"))
}

func TestDynamoStoreUpdateMissing(t *testing.T) {
	store := NewDynamoStore(newFakeDynamo(), "extensions", "")
	err := store.Update(t.Context(), "ghost", []Change{{Field: FieldSrc, Value: "x"}})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDynamoStoreGetAndCreate(t *testing.T) {
	store := NewDynamoStore(newFakeDynamo(), "extensions", "")
	ctx := t.Context()

	_, err := store.Get(ctx, "my-ext")
	assert.ErrorIs(t, err, ErrNotFound)

	rec := Record{Path: "my-ext", Owner: "user-1", State: StateLive, Src: "https://x"}
	require.NoError(t, store.Create(ctx, rec))
	assert.ErrorIs(t, store.Create(ctx, rec), ErrExists)

	got, err := store.Get(ctx, "my-ext")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDynamoStoreQueryByOwnerPaginates(t *testing.T) {
	f := newFakeDynamo()
	store := NewDynamoStore(f, "extensions", "user-index")
	ctx := t.Context()
	require.NoError(t, store.Create(ctx, Record{Path: "b-ext", Owner: "user-1"}))
	require.NoError(t, store.Create(ctx, Record{Path: "a-ext", Owner: "user-1"}))
	require.NoError(t, store.Create(ctx, Record{Path: "c-ext", Owner: "user-2"}))

	got, err := store.QueryByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a-ext", got[0].Path)
	assert.Equal(t, "b-ext", got[1].Path)
	assert.Equal(t, 2, f.queries)
}
