package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoStore implements Store on DynamoDB. Each collection maps to its own
// table named prefix+collection with a string partition key "id". Conditional
// increments use a ConditionExpression so the stock guard is evaluated
// server-side in a single request.
type DynamoStore struct {
	client *dynamodb.Client
	prefix string
}

func NewDynamoStore(client *dynamodb.Client, tablePrefix string) *DynamoStore {
	return &DynamoStore{client: client, prefix: tablePrefix}
}

// ConnectDynamo builds a DynamoDB client from the ambient AWS configuration.
// A non-empty endpoint points the client at a local instance with static
// credentials (dynamodb-local in development).
func ConnectDynamo(ctx context.Context, endpoint string) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if endpoint != "" {
		opts = append(opts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
			awsconfig.WithRegion("us-east-1"),
		)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func (s *DynamoStore) table(collection string) *string {
	return aws.String(s.prefix + collection)
}

func (s *DynamoStore) Insert(ctx context.Context, collection, id string, doc any) error {
	item, err := marshalItem(doc)
	if err != nil {
		return err
	}
	item["id"] = &types.AttributeValueMemberS{Value: id}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           s.table(collection),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if isConditionalCheckFailed(err) {
		return ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, collection, id string, out any) error {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      s.table(collection),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if len(result.Item) == 0 {
		return ErrNotFound
	}
	return unmarshalItem(result.Item, out)
}

func (s *DynamoStore) Find(ctx context.Context, collection string, filter map[string]any, out any) error {
	input := &dynamodb.ScanInput{TableName: s.table(collection)}

	if len(filter) > 0 {
		expr := ""
		names := make(map[string]string, len(filter))
		values := make(map[string]types.AttributeValue, len(filter))
		i := 0
		for field, want := range filter {
			if expr != "" {
				expr += " AND "
			}
			nameKey := fmt.Sprintf("#f%d", i)
			valueKey := fmt.Sprintf(":v%d", i)
			expr += nameKey + " = " + valueKey
			names[nameKey] = field
			av, err := marshalValue(want)
			if err != nil {
				return err
			}
			values[valueKey] = av
			i++
		}
		input.FilterExpression = aws.String(expr)
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	var items []map[string]types.AttributeValue
	for {
		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return fmt.Errorf("scan %s: %w", collection, err)
		}
		items = append(items, result.Items...)
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	decoded := make([]map[string]any, 0, len(items))
	for _, item := range items {
		var doc map[string]any
		if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
			return err
		}
		decoded = append(decoded, doc)
	}
	raw, err := json.Marshal(decoded)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *DynamoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	expr := ""
	names := make(map[string]string, len(fields))
	values := make(map[string]types.AttributeValue, len(fields))
	i := 0
	for field, value := range fields {
		if expr != "" {
			expr += ", "
		}
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		expr += nameKey + " = " + valueKey
		names[nameKey] = field
		av, err := marshalValue(value)
		if err != nil {
			return err
		}
		values[valueKey] = av
		i++
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 s.table(collection),
		Key:                       idKey(id),
		UpdateExpression:          aws.String("SET " + expr),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if isConditionalCheckFailed(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *DynamoStore) IncrementIf(ctx context.Context, collection, id, field string, delta, min int) (int, error) {
	// DynamoDB reports a missing item and a failed guard with the same
	// conditional failure; callers that need to tell them apart re-read.
	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                s.table(collection),
		Key:                      idKey(id),
		UpdateExpression:         aws.String("SET #f = #f + :d"),
		ConditionExpression:      aws.String("attribute_exists(id) AND #f >= :min"),
		ExpressionAttributeNames: map[string]string{"#f": field},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d":   &types.AttributeValueMemberN{Value: strconv.Itoa(delta)},
			":min": &types.AttributeValueMemberN{Value: strconv.Itoa(min)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if isConditionalCheckFailed(err) {
		return 0, ErrConditionFailed
	}
	if err != nil {
		return 0, fmt.Errorf("conditional increment %s/%s: %w", collection, id, err)
	}
	return attributeInt(result.Attributes, field)
}

func (s *DynamoStore) Increment(ctx context.Context, collection, id, field string, delta int) (int, error) {
	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                s.table(collection),
		Key:                      idKey(id),
		UpdateExpression:         aws.String("SET #f = #f + :d"),
		ConditionExpression:      aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{"#f": field},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d": &types.AttributeValueMemberN{Value: strconv.Itoa(delta)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if isConditionalCheckFailed(err) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment %s/%s: %w", collection, id, err)
	}
	return attributeInt(result.Attributes, field)
}

func (s *DynamoStore) Close() error { return nil }

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// marshalItem converts a document through JSON so attribute names follow the
// struct json tags, matching what the other backends persist.
func marshalItem(doc any) (map[string]types.AttributeValue, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var plain map[string]any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return attributevalue.MarshalMap(plain)
}

func marshalValue(v any) (types.AttributeValue, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return attributevalue.Marshal(plain)
}

func unmarshalItem(item map[string]types.AttributeValue, out any) error {
	var doc map[string]any
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func attributeInt(attrs map[string]types.AttributeValue, field string) (int, error) {
	n, ok := attrs[field].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("field %q is not numeric", field)
	}
	value, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
