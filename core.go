// Package profilestore provides a thin access-pattern layer over the AWS SDK
// for Go v2 DynamoDB client, for tables holding user profile and activity
// records keyed by (userId, timestamp).
package profilestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	// ErrConditionFailed is returned when a conditional write's predicate was
	// not satisfied by the store. Callers should branch on it with errors.Is;
	// the underlying SDK error remains reachable with errors.As.
	ErrConditionFailed = errors.New("conditional request failed")

	// ErrProfileExists is returned by CreateProfile when an item with the same
	// primary key already exists. Wraps ErrConditionFailed.
	ErrProfileExists = fmt.Errorf("profile already exists: %w", ErrConditionFailed)

	// ErrProfileNotFound is returned by DeleteProfile when no item exists for
	// the given key. Wraps ErrConditionFailed.
	ErrProfileNotFound = fmt.Errorf("profile not found: %w", ErrConditionFailed)

	// ErrNoUpdates is returned by UpdatePreferences when the update specifies
	// no fields to change. The store is not contacted in that case.
	ErrNoUpdates = errors.New("no updates specified")
)

// Table contains DynamoDB table configuration: the table and index identity
// plus the attribute names that make up the key schema.
type Table struct {
	TableName        string // Main table name
	EmailIndexName   string // GSI keyed by the email attribute. Default is "email-index".
	PartitionKeyName string // Partition key attribute. Default is "userId".
	SortKeyName      string // Sort key attribute. Default is "timestamp".
	EmailKeyName     string // GSI partition key attribute. Default is "email".
	BatchGetLimit    int    // Per-request key cap for BatchGetItem. Default is 100.
	BatchWriteLimit  int    // Per-request item cap for BatchWriteItem. Default is 25.
}

// NewTable creates a new Table with default configuration.
func NewTable(tableName string) *Table {
	return &Table{
		TableName:        tableName,
		EmailIndexName:   "email-index",
		PartitionKeyName: "userId",
		SortKeyName:      "timestamp",
		EmailKeyName:     "email",
		BatchGetLimit:    100,
		BatchWriteLimit:  25,
	}
}

// Key is the composite primary key of an item. Both parts are required;
// together they identify at most one item for its entire lifecycle.
type Key struct {
	UserID    string // Partition key value
	Timestamp string // Sort key value, a lexicographically ordered timestamp string
}

func (k Key) validate() error {
	if k.UserID == "" {
		return fmt.Errorf("key user id is required")
	}
	if k.Timestamp == "" {
		return fmt.Errorf("key timestamp is required")
	}
	return nil
}

// keyAttributes marshals the key into its DynamoDB attribute form using the
// table's key schema.
func (t *Table) keyAttributes(k Key) Item {
	return Item{
		t.PartitionKeyName: &types.AttributeValueMemberS{Value: k.UserID},
		t.SortKeyName:      &types.AttributeValueMemberS{Value: k.Timestamp},
	}
}

// Item is an alias for the dynamodb attribute value map.
type Item = map[string]types.AttributeValue

// Page is a single page of query results. NextCursor is an opaque
// continuation token; it is empty once the query is exhausted.
type Page struct {
	Items      []Item
	NextCursor string
}

// DynamoDBClient is the store driver consumed by this package: the subset of
// the AWS SDK v2 DynamoDB client surface the access patterns need, narrowed
// for easier testing and connection management.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}
