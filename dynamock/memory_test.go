package dynamock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nisimpson/profilestore"
)

func testKey(userID string) profilestore.Key {
	return profilestore.Key{UserID: userID, Timestamp: "2024-01-15T10:30:00Z"}
}

func putProfile(t *testing.T, client *MemoryClient, table *profilestore.Table, input profilestore.CreateProfileInput) {
	t.Helper()
	putInput, err := table.MarshalCreate(input)
	if err != nil {
		t.Fatalf("Failed to marshal create: %v", err)
	}
	if _, err := client.PutItem(context.Background(), putInput); err != nil {
		t.Fatalf("Failed to put profile: %v", err)
	}
}

func TestMemoryClientConditionalPut(t *testing.T) {
	ctx := context.Background()
	table := profilestore.NewTable("test-table")
	client := NewMemoryClient(table)

	input := NewProfile(WithUserID("user123")).Build()
	putProfile(t, client, table, input)

	if client.Len() != 1 {
		t.Fatalf("Expected 1 stored item, got %d", client.Len())
	}

	// Same key again must trip the not-exists condition.
	putInput, err := table.MarshalCreate(input)
	if err != nil {
		t.Fatalf("Failed to marshal create: %v", err)
	}

	_, err = client.PutItem(ctx, putInput)
	var condErr *types.ConditionalCheckFailedException
	if !errors.As(err, &condErr) {
		t.Fatalf("Expected ConditionalCheckFailedException, got %v", err)
	}

	// An unconditional put overwrites.
	putInput.ConditionExpression = nil
	putInput.ExpressionAttributeNames = nil
	if _, err := client.PutItem(ctx, putInput); err != nil {
		t.Errorf("Expected unconditional put to succeed, got %v", err)
	}
}

func TestMemoryClientConditionalDelete(t *testing.T) {
	ctx := context.Background()
	table := profilestore.NewTable("test-table")
	client := NewMemoryClient(table)

	putProfile(t, client, table, NewProfile(WithUserID("user123")).Build())

	deleteInput, err := table.MarshalDelete(testKey("user123"))
	if err != nil {
		t.Fatalf("Failed to marshal delete: %v", err)
	}

	out, err := client.DeleteItem(ctx, deleteInput)
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if out.Attributes == nil {
		t.Fatal("Expected prior item attributes with ALL_OLD")
	}
	if client.Len() != 0 {
		t.Errorf("Expected empty store after delete, got %d items", client.Len())
	}

	// Deleting again fails the exists condition.
	_, err = client.DeleteItem(ctx, deleteInput)
	var condErr *types.ConditionalCheckFailedException
	if !errors.As(err, &condErr) {
		t.Errorf("Expected ConditionalCheckFailedException, got %v", err)
	}
}

func TestMemoryClientUpdateUpsert(t *testing.T) {
	ctx := context.Background()
	table := profilestore.NewTable("test-table")
	client := NewMemoryClient(table)

	// ADD to a missing item creates it, like the real service.
	updateInput, err := table.MarshalIncrement(testKey("user123"), "loginCount", 4)
	if err != nil {
		t.Fatalf("Failed to marshal increment: %v", err)
	}

	out, err := client.UpdateItem(ctx, updateInput)
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	count, ok := out.Attributes["loginCount"].(*types.AttributeValueMemberN)
	if !ok || count.Value != "4" {
		t.Errorf("Expected counter value 4, got %v", out.Attributes["loginCount"])
	}
	if client.Len() != 1 {
		t.Errorf("Expected update to create the item, store has %d items", client.Len())
	}

	// UPDATED_NEW returns only the touched attribute, not the keys.
	if _, ok := out.Attributes[table.PartitionKeyName]; ok {
		t.Error("Did not expect key attributes in UPDATED_NEW result")
	}
}

func TestMemoryClientNestedSet(t *testing.T) {
	ctx := context.Background()
	table := profilestore.NewTable("test-table")
	client := NewMemoryClient(table)

	putProfile(t, client, table, NewProfile(
		WithUserID("user123"),
		WithPreferences("light", true),
	).Build())

	updateInput, err := table.MarshalPreferences(testKey("user123"), profilestore.PreferenceUpdate{
		Theme: aws.String("dark"),
	})
	if err != nil {
		t.Fatalf("Failed to marshal preferences: %v", err)
	}

	out, err := client.UpdateItem(ctx, updateInput)
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	prefs, ok := out.Attributes["preferences"].(*types.AttributeValueMemberM)
	if !ok {
		t.Fatalf("Expected preferences map, got %v", out.Attributes["preferences"])
	}
	theme, _ := prefs.Value["theme"].(*types.AttributeValueMemberS)
	if theme == nil || theme.Value != "dark" {
		t.Errorf("Expected theme 'dark', got %v", prefs.Value["theme"])
	}
	notifications, _ := prefs.Value["notifications"].(*types.AttributeValueMemberBOOL)
	if notifications == nil || !notifications.Value {
		t.Errorf("Expected notifications to survive the nested set, got %v", prefs.Value["notifications"])
	}
}

func TestMemoryClientQueryPaging(t *testing.T) {
	ctx := context.Background()
	table := profilestore.NewTable("test-table")
	client := NewMemoryClient(table)

	for _, ts := range []string{
		"2024-01-01T00:00:00Z",
		"2024-01-02T00:00:00Z",
		"2024-01-03T00:00:00Z",
	} {
		putProfile(t, client, table, NewProfile(WithKey("user123", ts)).Build())
	}

	query := &profilestore.ActivityQuery{UserID: "user123", Limit: 2}
	queryInput, err := table.MarshalQuery(query)
	if err != nil {
		t.Fatalf("Failed to marshal query: %v", err)
	}

	out, err := client.Query(ctx, queryInput)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(out.Items) != 2 {
		t.Fatalf("Expected 2 items on first page, got %d", len(out.Items))
	}
	if out.LastEvaluatedKey == nil {
		t.Fatal("Expected last evaluated key when more results remain")
	}

	// Continue from the reported key.
	queryInput.ExclusiveStartKey = out.LastEvaluatedKey
	out, err = client.Query(ctx, queryInput)
	if err != nil {
		t.Fatalf("Failed to query second page: %v", err)
	}
	if len(out.Items) != 1 {
		t.Errorf("Expected 1 item on final page, got %d", len(out.Items))
	}
	if out.LastEvaluatedKey != nil {
		t.Errorf("Expected no last evaluated key on final page, got %v", out.LastEvaluatedKey)
	}
}

func TestMemoryClientBatchLimits(t *testing.T) {
	ctx := context.Background()
	table := profilestore.NewTable("test-table")
	client := NewMemoryClient(table)

	t.Run("batch get cap", func(t *testing.T) {
		keys := make([]profilestore.Item, 101)
		for i := range keys {
			keys[i] = profilestore.Item{
				table.PartitionKeyName: &types.AttributeValueMemberS{Value: "user123"},
				table.SortKeyName:      &types.AttributeValueMemberS{Value: "2024-01-01T00:00:00Z"},
			}
		}

		_, err := client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				table.TableName: {Keys: keys},
			},
		})
		if err == nil {
			t.Error("Expected error beyond the 100 key cap")
		}
	})

	t.Run("batch write cap", func(t *testing.T) {
		requests := make([]types.WriteRequest, 26)
		for i := range requests {
			requests[i] = types.WriteRequest{
				PutRequest: &types.PutRequest{Item: profilestore.Item{
					table.PartitionKeyName: &types.AttributeValueMemberS{Value: "user123"},
					table.SortKeyName:      &types.AttributeValueMemberS{Value: "2024-01-01T00:00:00Z"},
				}},
			}
		}

		_, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{table.TableName: requests},
		})
		if err == nil {
			t.Error("Expected error beyond the 25 item cap")
		}
	})
}

func TestMemoryClientBatchGet(t *testing.T) {
	ctx := context.Background()
	table := profilestore.NewTable("test-table")
	client := NewMemoryClient(table)

	putProfile(t, client, table, NewProfile(WithUserID("user1")).Build())
	putProfile(t, client, table, NewProfile(WithUserID("user2")).Build())

	batchInput, err := table.MarshalBatchGet([]profilestore.Key{
		testKey("user1"),
		testKey("user2"),
		testKey("ghost"),
	})
	if err != nil {
		t.Fatalf("Failed to marshal batch get: %v", err)
	}

	out, err := client.BatchGetItem(ctx, batchInput)
	if err != nil {
		t.Fatalf("Failed to batch get: %v", err)
	}
	if len(out.Responses[table.TableName]) != 2 {
		t.Errorf("Expected 2 items, missing keys omitted, got %d", len(out.Responses[table.TableName]))
	}
}
