package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"readify/models"
)

// ErrInsufficientStock is returned when a conditional stock update would go negative.
var ErrInsufficientStock = errors.New("insufficient stock")

// DynamoAPI is the part of the DynamoDB client the stock repository uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// StockRepository is the data access for per-book stock levels.
type StockRepository interface {
	Get(ctx context.Context, bookID string) (*models.Stock, error)
	GetMany(ctx context.Context, bookIDs []string) (map[string]models.Stock, error)
	Scan(ctx context.Context, limit int32, startAfter string) (*models.StockPage, error)
	Put(ctx context.Context, stock *models.Stock) error
	// Adjust adds delta to available, creating the record when absent.
	// A result below zero fails with ErrInsufficientStock.
	Adjust(ctx context.Context, bookID string, delta int, threshold *int) (*models.Stock, error)
	// Set overwrites available and returns the level it replaced.
	Set(ctx context.Context, bookID string, available int, threshold *int) (previous int, stock *models.Stock, err error)
	Reserve(ctx context.Context, bookID string, quantity int) error
	Release(ctx context.Context, bookID string, quantity int) error
	Confirm(ctx context.Context, bookID string, quantity int) error
}

type DynamoStockRepository struct {
	client           DynamoAPI
	table            string
	defaultThreshold int
}

func NewDynamoStockRepository(client DynamoAPI, table string, defaultThreshold int) *DynamoStockRepository {
	return &DynamoStockRepository{client: client, table: table, defaultThreshold: defaultThreshold}
}

type ddbStock struct {
	BookID    string `dynamodbav:"book_id"`
	Available int    `dynamodbav:"available"`
	Reserved  int    `dynamodbav:"reserved"`
	Threshold int    `dynamodbav:"threshold"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func (d ddbStock) toModel() models.Stock {
	s := models.Stock{
		BookID:    d.BookID,
		Available: d.Available,
		Reserved:  d.Reserved,
		Threshold: d.Threshold,
	}
	if t, err := time.Parse(time.RFC3339, d.UpdatedAt); err == nil {
		s.UpdatedAt = t
	}
	return s
}

func stockKey(bookID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"book_id": &types.AttributeValueMemberS{Value: bookID}}
}

func intAV(n int) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", n)}
}

func nowAV() types.AttributeValue {
	return &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)}
}

func (r *DynamoStockRepository) Get(ctx context.Context, bookID string) (*models.Stock, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &r.table,
		Key:            stockKey(bookID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var d ddbStock
	if err := attributevalue.UnmarshalMap(out.Item, &d); err != nil {
		return nil, fmt.Errorf("unmarshal stock: %w", err)
	}
	s := d.toModel()
	return &s, nil
}

// GetMany returns the records that exist; missing books are absent from the map.
func (r *DynamoStockRepository) GetMany(ctx context.Context, bookIDs []string) (map[string]models.Stock, error) {
	result := make(map[string]models.Stock, len(bookIDs))
	seen := make(map[string]bool, len(bookIDs))
	var keys []map[string]types.AttributeValue
	for _, id := range bookIDs {
		if !seen[id] {
			seen[id] = true
			keys = append(keys, stockKey(id))
		}
	}

	const batchSize = 100
	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		pending := map[string]types.KeysAndAttributes{r.table: {Keys: keys[start:end]}}
		for attempt := 0; len(pending) > 0 && attempt < 5; attempt++ {
			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
			if err != nil {
				return nil, fmt.Errorf("dynamodb BatchGetItem failed: %w", err)
			}
			for _, item := range out.Responses[r.table] {
				var d ddbStock
				if err := attributevalue.UnmarshalMap(item, &d); err != nil {
					return nil, fmt.Errorf("unmarshal stock: %w", err)
				}
				result[d.BookID] = d.toModel()
			}
			pending = out.UnprocessedKeys
		}
		if len(pending) > 0 {
			return nil, fmt.Errorf("dynamodb BatchGetItem left %d keys unprocessed", len(pending[r.table].Keys))
		}
	}
	return result, nil
}

func (r *DynamoStockRepository) Scan(ctx context.Context, limit int32, startAfter string) (*models.StockPage, error) {
	in := &dynamodb.ScanInput{TableName: &r.table, Limit: aws.Int32(limit)}
	if startAfter != "" {
		in.ExclusiveStartKey = stockKey(startAfter)
	}
	out, err := r.client.Scan(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("dynamodb Scan failed: %w", err)
	}

	page := &models.StockPage{Items: make([]models.Stock, 0, len(out.Items))}
	for _, item := range out.Items {
		var d ddbStock
		if err := attributevalue.UnmarshalMap(item, &d); err != nil {
			return nil, fmt.Errorf("unmarshal stock: %w", err)
		}
		page.Items = append(page.Items, d.toModel())
	}
	if id, ok := out.LastEvaluatedKey["book_id"].(*types.AttributeValueMemberS); ok {
		page.NextToken = id.Value
	}
	return page, nil
}

func (r *DynamoStockRepository) Put(ctx context.Context, stock *models.Stock) error {
	item, err := attributevalue.MarshalMap(ddbStock{
		BookID:    stock.BookID,
		Available: stock.Available,
		Reserved:  stock.Reserved,
		Threshold: stock.Threshold,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal stock: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &r.table, Item: item}); err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (r *DynamoStockRepository) thresholdValue(threshold *int) (string, types.AttributeValue) {
	if threshold != nil {
		return "#thr = :thr", intAV(*threshold)
	}
	return "#thr = if_not_exists(#thr, :thr)", intAV(r.defaultThreshold)
}

func (r *DynamoStockRepository) Adjust(ctx context.Context, bookID string, delta int, threshold *int) (*models.Stock, error) {
	thrExpr, thrAV := r.thresholdValue(threshold)
	expr := "SET #avail = if_not_exists(#avail, :zero) + :delta, #resv = if_not_exists(#resv, :zero), " + thrExpr + ", updated_at = :now"

	in := &dynamodb.UpdateItemInput{
		TableName:        &r.table,
		Key:              stockKey(bookID),
		UpdateExpression: &expr,
		ExpressionAttributeNames: map[string]string{
			"#avail": "available",
			"#resv":  "reserved",
			"#thr":   "threshold",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":  intAV(0),
			":delta": intAV(delta),
			":thr":   thrAV,
			":now":   nowAV(),
		},
		ReturnValues: types.ReturnValueAllNew,
	}
	if delta < 0 {
		in.ConditionExpression = aws.String("#avail >= :need")
		in.ExpressionAttributeValues[":need"] = intAV(-delta)
	}

	out, err := r.client.UpdateItem(ctx, in)
	if err != nil {
		return nil, mapConditional(err, "adjust")
	}
	return decodeAttributes(out.Attributes)
}

func (r *DynamoStockRepository) Set(ctx context.Context, bookID string, available int, threshold *int) (int, *models.Stock, error) {
	thrExpr, thrAV := r.thresholdValue(threshold)
	expr := "SET #avail = :avail, #resv = if_not_exists(#resv, :zero), " + thrExpr + ", updated_at = :now"

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        &r.table,
		Key:              stockKey(bookID),
		UpdateExpression: &expr,
		ExpressionAttributeNames: map[string]string{
			"#avail": "available",
			"#resv":  "reserved",
			"#thr":   "threshold",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":avail": intAV(available),
			":zero":  intAV(0),
			":thr":   thrAV,
			":now":   nowAV(),
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("set stock failed: %w", err)
	}

	var old ddbStock
	if len(out.Attributes) > 0 {
		if err := attributevalue.UnmarshalMap(out.Attributes, &old); err != nil {
			return 0, nil, fmt.Errorf("unmarshal stock: %w", err)
		}
	} else {
		old.Threshold = r.defaultThreshold
	}
	stock := &models.Stock{
		BookID:    bookID,
		Available: available,
		Reserved:  old.Reserved,
		Threshold: old.Threshold,
		UpdatedAt: time.Now().UTC(),
	}
	if threshold != nil {
		stock.Threshold = *threshold
	}
	return old.Available, stock, nil
}

// Reserve atomically moves quantity from available to reserved.
func (r *DynamoStockRepository) Reserve(ctx context.Context, bookID string, quantity int) error {
	return r.move(ctx, bookID, quantity,
		"SET #avail = #avail - :qty, #resv = #resv + :qty, updated_at = :now",
		"#avail >= :qty", "reserve")
}

// Release atomically moves quantity from reserved back to available.
func (r *DynamoStockRepository) Release(ctx context.Context, bookID string, quantity int) error {
	return r.move(ctx, bookID, quantity,
		"SET #avail = #avail + :qty, #resv = #resv - :qty, updated_at = :now",
		"#resv >= :qty", "release")
}

// Confirm removes sold quantity from reserved.
func (r *DynamoStockRepository) Confirm(ctx context.Context, bookID string, quantity int) error {
	return r.move(ctx, bookID, quantity,
		"SET #resv = #resv - :qty, updated_at = :now",
		"#resv >= :qty", "confirm")
}

func (r *DynamoStockRepository) move(ctx context.Context, bookID string, quantity int, expr, cond, op string) error {
	names := map[string]string{"#resv": "reserved"}
	if op != "confirm" {
		names["#avail"] = "available"
	}
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                &r.table,
		Key:                      stockKey(bookID),
		UpdateExpression:         &expr,
		ConditionExpression:      &cond,
		ExpressionAttributeNames: names,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":qty": intAV(quantity),
			":now": nowAV(),
		},
	})
	if err != nil {
		return mapConditional(err, op)
	}
	return nil
}

func mapConditional(err error, op string) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrInsufficientStock
	}
	return fmt.Errorf("%s failed: %w", op, err)
}

func decodeAttributes(attrs map[string]types.AttributeValue) (*models.Stock, error) {
	var d ddbStock
	if err := attributevalue.UnmarshalMap(attrs, &d); err != nil {
		return nil, fmt.Errorf("unmarshal stock: %w", err)
	}
	s := d.toModel()
	return &s, nil
}
