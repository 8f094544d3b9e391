package profilestore

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// QueryMarshaler can marshal input into a dynamodb query request.
type QueryMarshaler interface {
	MarshalQuery(t *Table) (*dynamodb.QueryInput, error)
	UseEmailIndex() bool
}

// ActivityQuery is a QueryMarshaler that searches one partition for activity
// records within an optional sort key range. Results come back in ascending
// sort key order unless SortDescending is set. Cost scales with the matching
// range, never with total table size, because this is a key-condition query
// against the table's native index.
type ActivityQuery struct {
	UserID         string // The partition to search. Required.
	Start          string // Inclusive lower sort key bound. Empty means unbounded.
	End            string // Inclusive upper sort key bound. Empty means unbounded.
	Limit          int    // Maximum number of items per page
	Cursor         string // Continuation cursor from a previous Page
	SortDescending bool   // Scan direction (default: false, ascending)
}

// MarshalQuery implements QueryMarshaler for ActivityQuery.
func (q *ActivityQuery) MarshalQuery(t *Table) (*dynamodb.QueryInput, error) {
	if q.UserID == "" {
		return nil, fmt.Errorf("query user id is required")
	}

	keyCondition := expression.Key(t.PartitionKeyName).Equal(expression.Value(q.UserID))

	sortKey := expression.Key(t.SortKeyName)
	switch {
	case q.Start != "" && q.End != "":
		keyCondition = keyCondition.And(sortKey.Between(expression.Value(q.Start), expression.Value(q.End)))
	case q.Start != "":
		keyCondition = keyCondition.And(sortKey.GreaterThanEqual(expression.Value(q.Start)))
	case q.End != "":
		keyCondition = keyCondition.And(sortKey.LessThanEqual(expression.Value(q.End)))
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!q.SortDescending),
	}

	if q.Limit > 0 {
		input.Limit = aws.Int32(int32(q.Limit))
	}

	startKey, err := decodeCursor(q.Cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	input.ExclusiveStartKey = startKey

	return input, nil
}

// EmailQuery is a QueryMarshaler that resolves profiles by email through the
// email GSI. Multiple profiles may share one email; result ordering is
// index-defined, not sort key order.
type EmailQuery struct {
	Email  string // The email to look up. Required.
	Limit  int    // Maximum number of items per page
	Cursor string // Continuation cursor from a previous Page
}

// MarshalQuery implements QueryMarshaler for EmailQuery.
func (q *EmailQuery) MarshalQuery(t *Table) (*dynamodb.QueryInput, error) {
	if q.Email == "" {
		return nil, fmt.Errorf("query email is required")
	}

	keyCondition := expression.Key(t.EmailKeyName).Equal(expression.Value(q.Email))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if q.Limit > 0 {
		input.Limit = aws.Int32(int32(q.Limit))
	}

	startKey, err := decodeCursor(q.Cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	input.ExclusiveStartKey = startKey

	return input, nil
}

func (*ActivityQuery) UseEmailIndex() bool { return false }
func (*EmailQuery) UseEmailIndex() bool    { return true }
