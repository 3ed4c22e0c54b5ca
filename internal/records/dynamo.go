package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore implements Store on a DynamoDB table keyed by "id" with a
// secondary index on "user".
type DynamoStore struct {
	client    DynamoAPI
	table     string
	userIndex string
}

// NewDynamoStore returns a store for table. userIndex defaults to "user-index".
func NewDynamoStore(client DynamoAPI, table, userIndex string) *DynamoStore {
	if userIndex == "" {
		userIndex = "user-index"
	}
	return &DynamoStore{client: client, table: table, userIndex: userIndex}
}

func key(path string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{"id": &ddbtypes.AttributeValueMemberS{Value: path}}
}

// Get reads the item for path.
func (s *DynamoStore) Get(ctx context.Context, path string) (Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key(path),
	})
	if err != nil {
		return Record{}, fmt.Errorf("get record %s: %w", path, err)
	}
	if out.Item == nil {
		return Record{}, ErrNotFound
	}
	return fromItem(out.Item), nil
}

// Update issues one conditional UpdateItem carrying SET and REMOVE clauses.
func (s *DynamoStore) Update(ctx context.Context, path string, changes []Change) error {
	if len(changes) == 0 {
		return nil
	}
	var sets, removes []string
	names := map[string]string{"#id": "id"}
	values := map[string]ddbtypes.AttributeValue{}
	for _, c := range changes {
		if !validChange(c) {
			return fmt.Errorf("update record %s: unknown field %q", path, c.Field)
		}
		name := "#" + string(c.Field)
		names[name] = string(c.Field)
		if c.Remove {
			removes = append(removes, name)
			continue
		}
		v := ":" + string(c.Field)
		values[v] = &ddbtypes.AttributeValueMemberS{Value: c.Value}
		sets = append(sets, name+" = "+v)
	}

	var expr []string
	if len(sets) > 0 {
		expr = append(expr, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		expr = append(expr, "REMOVE "+strings.Join(removes, ", "))
	}

	in := &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.table),
		Key:                      key(path),
		UpdateExpression:         aws.String(strings.Join(expr, " ")),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: names,
	}
	if len(values) > 0 {
		in.ExpressionAttributeValues = values
	}

	if _, err := s.client.UpdateItem(ctx, in); err != nil {
		var ccf *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("update record %s: %w", path, err)
	}
	return nil
}

// Create puts the item if the path is free.
func (s *DynamoStore) Create(ctx context.Context, r Record) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     toItem(r),
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if err != nil {
		var ccf *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrExists
		}
		return fmt.Errorf("create record %s: %w", r.Path, err)
	}
	return nil
}

// Delete removes the item.
func (s *DynamoStore) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       key(path),
	})
	if err != nil {
		return fmt.Errorf("delete record %s: %w", path, err)
	}
	return nil
}

// QueryByOwner pages through the user index.
func (s *DynamoStore) QueryByOwner(ctx context.Context, owner string) ([]Record, error) {
	var (
		out   []Record
		start map[string]ddbtypes.AttributeValue
	)
	for {
		res, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			IndexName:                 aws.String(s.userIndex),
			KeyConditionExpression:    aws.String("#u = :u"),
			ExpressionAttributeNames:  map[string]string{"#u": "user"},
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{":u": &ddbtypes.AttributeValueMemberS{Value: owner}},
			ExclusiveStartKey:         start,
		})
		if err != nil {
			return nil, fmt.Errorf("query records for %s: %w", owner, err)
		}
		for _, item := range res.Items {
			out = append(out, fromItem(item))
		}
		if len(res.LastEvaluatedKey) == 0 {
			break
		}
		start = res.LastEvaluatedKey
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Close is a no-op; the client is owned by the caller.
func (s *DynamoStore) Close() error { return nil }

func str(item map[string]ddbtypes.AttributeValue, name string) string {
	if v, ok := item[name].(*ddbtypes.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func fromItem(item map[string]ddbtypes.AttributeValue) Record {
	return Record{
		Path:        str(item, "id"),
		Description: str(item, "description"),
		Src:         str(item, "src"),
		State:       State(str(item, "state")),
		Owner:       str(item, "user"),
		PriceRef:    str(item, "price"),
	}
}

func toItem(r Record) map[string]ddbtypes.AttributeValue {
	item := key(r.Path)
	set := func(name, v string) {
		if v != "" {
			item[name] = &ddbtypes.AttributeValueMemberS{Value: v}
		}
	}
	set("description", r.Description)
	set("src", r.Src)
	set("state", string(r.State))
	set("user", r.Owner)
	set("price", r.PriceRef)
	return item
}
