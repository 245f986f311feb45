package repository_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readify/repository"
)

type fakeDynamo struct {
	updates  []*dynamodb.UpdateItemInput
	updateFn func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	items    map[string]map[string]types.AttributeValue
	scanOut  *dynamodb.ScanOutput
	scanIn   *dynamodb.ScanInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	id := in.Key["book_id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	id := in.Item["book_id"].(*types.AttributeValueMemberS).Value
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if f.updateFn != nil {
		return f.updateFn(in)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) BatchGetItem(_ context.Context, in *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	out := &dynamodb.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{}}
	for table, ka := range in.RequestItems {
		for _, key := range ka.Keys {
			id := key["book_id"].(*types.AttributeValueMemberS).Value
			if item, ok := f.items[id]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanIn = in
	return f.scanOut, nil
}

func stockItem(id string, available, reserved, threshold int) map[string]types.AttributeValue {
	n := func(v int) types.AttributeValue { return &types.AttributeValueMemberN{Value: strconv.Itoa(v)} }
	return map[string]types.AttributeValue{
		"book_id":    &types.AttributeValueMemberS{Value: id},
		"available":  n(available),
		"reserved":   n(reserved),
		"threshold":  n(threshold),
		"updated_at": &types.AttributeValueMemberS{Value: "2026-01-02T03:04:05Z"},
	}
}

func TestStockRepository_Get(t *testing.T) {
	fake := &fakeDynamo{items: map[string]map[string]types.AttributeValue{"b1": stockItem("b1", 7, 2, 3)}}
	repo := repository.NewDynamoStockRepository(fake, "stock", 5)

	s, err := repo.Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 7, s.Available)
	assert.Equal(t, 2, s.Reserved)
	assert.Equal(t, 2026, s.UpdatedAt.Year())

	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStockRepository_GetMany_SkipsMissing(t *testing.T) {
	fake := &fakeDynamo{items: map[string]map[string]types.AttributeValue{
		"b1": stockItem("b1", 1, 0, 5),
		"b2": stockItem("b2", 9, 0, 5),
	}}
	repo := repository.NewDynamoStockRepository(fake, "stock", 5)

	got, err := repo.GetMany(context.Background(), []string{"b1", "b2", "b3", "b1"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 9, got["b2"].Available)
}

func TestStockRepository_Reserve_ConditionFailure(t *testing.T) {
	fake := &fakeDynamo{
		updateFn: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("failed")}
		},
	}
	repo := repository.NewDynamoStockRepository(fake, "stock", 5)

	err := repo.Reserve(context.Background(), "b1", 3)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	require.Len(t, fake.updates, 1)
	assert.Equal(t, "#avail >= :qty", *fake.updates[0].ConditionExpression)
	assert.Equal(t, "3", fake.updates[0].ExpressionAttributeValues[":qty"].(*types.AttributeValueMemberN).Value)
}

func TestStockRepository_Confirm_OnlyTouchesReserved(t *testing.T) {
	fake := &fakeDynamo{}
	repo := repository.NewDynamoStockRepository(fake, "stock", 5)

	require.NoError(t, repo.Confirm(context.Background(), "b1", 2))
	in := fake.updates[0]
	assert.Equal(t, "#resv >= :qty", *in.ConditionExpression)
	assert.NotContains(t, *in.UpdateExpression, "#avail")
	_, hasAvail := in.ExpressionAttributeNames["#avail"]
	assert.False(t, hasAvail)
}

func TestStockRepository_Adjust_NegativeIsConditional(t *testing.T) {
	fake := &fakeDynamo{
		updateFn: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return &dynamodb.UpdateItemOutput{Attributes: stockItem("b1", 4, 0, 5)}, nil
		},
	}
	repo := repository.NewDynamoStockRepository(fake, "stock", 5)

	s, err := repo.Adjust(context.Background(), "b1", -2, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Available)

	in := fake.updates[0]
	require.NotNil(t, in.ConditionExpression)
	assert.Equal(t, "2", in.ExpressionAttributeValues[":need"].(*types.AttributeValueMemberN).Value)
	assert.Contains(t, *in.UpdateExpression, "if_not_exists(#thr, :thr)")

	threshold := 8
	_, err = repo.Adjust(context.Background(), "b1", 5, &threshold)
	require.NoError(t, err)
	assert.Nil(t, fake.updates[1].ConditionExpression)
	assert.Contains(t, *fake.updates[1].UpdateExpression, "#thr = :thr")
}

func TestStockRepository_Set_ReturnsPrevious(t *testing.T) {
	fake := &fakeDynamo{
		updateFn: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return &dynamodb.UpdateItemOutput{Attributes: stockItem("b1", 10, 1, 4)}, nil
		},
	}
	repo := repository.NewDynamoStockRepository(fake, "stock", 5)

	prev, s, err := repo.Set(context.Background(), "b1", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, prev)
	assert.Equal(t, 3, s.Available)
	assert.Equal(t, 1, s.Reserved)
	assert.Equal(t, 4, s.Threshold)
}

func TestStockRepository_Scan_Paginates(t *testing.T) {
	fake := &fakeDynamo{scanOut: &dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{stockItem("b1", 1, 0, 5)},
		LastEvaluatedKey: map[string]types.AttributeValue{"book_id": &types.AttributeValueMemberS{Value: "b1"}},
	}}
	repo := repository.NewDynamoStockRepository(fake, "stock", 5)

	page, err := repo.Scan(context.Background(), 1, "b0")
	require.NoError(t, err)
	assert.Equal(t, "b1", page.NextToken)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, "b0", fake.scanIn.ExclusiveStartKey["book_id"].(*types.AttributeValueMemberS).Value)
}
