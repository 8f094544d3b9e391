package profilestore

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultProfileProjection is the attribute set a profile read usually needs.
// Pass it to GetProfile to avoid transferring activity payloads; pass nothing
// to retrieve the full item.
var DefaultProfileProjection = []string{"userId", "email", "firstName", "lastName", "loginCount"}

// CreateProfileInput describes the profile item to create. Extra attributes
// pass through to the stored item unmodified, so callers can persist fields
// this package does not know about.
type CreateProfileInput struct {
	Key       Key
	Email     string
	FirstName string
	LastName  string
	Extra     map[string]any
}

// MarshalCreate marshals the input into a conditional put item request. The
// condition requires both primary key attributes to be absent, so the put can
// never silently replace an existing item.
func (t *Table) MarshalCreate(in CreateProfileInput) (*dynamodb.PutItemInput, error) {
	if err := in.Key.validate(); err != nil {
		return nil, err
	}

	item, err := attributevalue.MarshalMap(in.Extra)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extra attributes: %w", err)
	}
	if item == nil {
		item = Item{}
	}

	// Required fields overwrite any colliding extras.
	item[t.PartitionKeyName] = &types.AttributeValueMemberS{Value: in.Key.UserID}
	item[t.SortKeyName] = &types.AttributeValueMemberS{Value: in.Key.Timestamp}
	item[t.EmailKeyName] = &types.AttributeValueMemberS{Value: in.Email}
	item["firstName"] = &types.AttributeValueMemberS{Value: in.FirstName}
	item["lastName"] = &types.AttributeValueMemberS{Value: in.LastName}

	// Attribute names go through the expression builder so reserved words like
	// "timestamp" are aliased rather than rejected by the store.
	cond := expression.AttributeNotExists(expression.Name(t.PartitionKeyName)).
		And(expression.AttributeNotExists(expression.Name(t.SortKeyName)))

	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return &dynamodb.PutItemInput{
		TableName:                 aws.String(t.TableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

// MarshalGet marshals a point lookup for the given key. An optional
// projection limits which attributes the store returns; omitting attributes
// only shrinks the response, it never causes the lookup to fail.
func (t *Table) MarshalGet(key Key, projection ...string) (*dynamodb.GetItemInput, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(t.TableName),
		Key:       t.keyAttributes(key),
	}

	if len(projection) > 0 {
		proj := expression.NamesList(expression.Name(projection[0]))
		for _, attr := range projection[1:] {
			proj = proj.AddNames(expression.Name(attr))
		}
		expr, err := expression.NewBuilder().WithProjection(proj).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build projection: %w", err)
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}

	return input, nil
}

// MarshalIncrement marshals an atomic counter update. The store applies ADD
// server side, so concurrent increments all land; a missing counter attribute
// starts from zero. Only the updated attribute is returned.
func (t *Table) MarshalIncrement(key Key, counter string, delta int64) (*dynamodb.UpdateItemInput, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	if counter == "" {
		return nil, fmt.Errorf("counter name is required")
	}

	update := expression.Add(expression.Name(counter), expression.Value(delta))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.TableName),
		Key:                       t.keyAttributes(key),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	}, nil
}

// PreferenceUpdate enumerates the nested preference fields that can change.
// Nil fields are left untouched on the stored item.
type PreferenceUpdate struct {
	Theme         *string
	Notifications *bool
}

func (u PreferenceUpdate) isEmpty() bool {
	return u.Theme == nil && u.Notifications == nil
}

// MarshalPreferences marshals a partial update of the nested preferences
// attribute. Only the supplied fields appear in the update expression, so
// sibling fields set by concurrent writers survive. Returns ErrNoUpdates when
// the update is empty.
func (t *Table) MarshalPreferences(key Key, update PreferenceUpdate) (*dynamodb.UpdateItemInput, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	if update.isEmpty() {
		return nil, ErrNoUpdates
	}

	var builder expression.UpdateBuilder
	if update.Theme != nil {
		builder = builder.Set(expression.Name("preferences.theme"), expression.Value(*update.Theme))
	}
	if update.Notifications != nil {
		builder = builder.Set(expression.Name("preferences.notifications"), expression.Value(*update.Notifications))
	}

	expr, err := expression.NewBuilder().WithUpdate(builder).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.TableName),
		Key:                       t.keyAttributes(key),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	}, nil
}

// MarshalDelete marshals a conditional delete requiring the item to exist.
// The request asks for the item's prior state so callers can audit or
// compensate after the delete.
func (t *Table) MarshalDelete(key Key) (*dynamodb.DeleteItemInput, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	cond := expression.AttributeExists(expression.Name(t.PartitionKeyName))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return &dynamodb.DeleteItemInput{
		TableName:                 aws.String(t.TableName),
		Key:                       t.keyAttributes(key),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllOld,
	}, nil
}

// MarshalBatchGet marshals a single batch get request. The key count must not
// exceed the table's BatchGetLimit; Client.BatchGetProfiles chunks larger key
// sets before calling this.
func (t *Table) MarshalBatchGet(keys []Key) (*dynamodb.BatchGetItemInput, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one key is required")
	}
	if len(keys) > t.BatchGetLimit {
		return nil, fmt.Errorf("batch get limited to %d keys, got %d", t.BatchGetLimit, len(keys))
	}

	attrs := make([]Item, 0, len(keys))
	for _, key := range keys {
		if err := key.validate(); err != nil {
			return nil, err
		}
		attrs = append(attrs, t.keyAttributes(key))
	}

	return &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			t.TableName: {Keys: attrs},
		},
	}, nil
}

// MarshalQuery marshals the input into a query request against this table,
// setting the index name when the query resolves through the email GSI.
func (t *Table) MarshalQuery(in QueryMarshaler) (*dynamodb.QueryInput, error) {
	input, err := in.MarshalQuery(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	input.TableName = aws.String(t.TableName)
	if in.UseEmailIndex() {
		input.IndexName = aws.String(t.EmailIndexName)
	}

	return input, nil
}
