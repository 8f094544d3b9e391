package profilestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// LoadSeedData reads a JSON array of items from r and writes them to the
// table with batched puts, resetting the table to a known state. Items are
// written as-is; the loader does not validate or transform them beyond
// attribute marshalling. Requests are chunked at the store's batch write cap
// and unprocessed items are resubmitted until every item lands. Returns the
// number of items written.
func (c *Client) LoadSeedData(ctx context.Context, r io.Reader) (int, error) {
	var records []map[string]any
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("failed to parse seed data: %w", err)
	}

	items := make([]Item, 0, len(records))
	for i, record := range records {
		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal seed item %d: %w", i, err)
		}
		items = append(items, item)
	}

	written := 0
	for start := 0; start < len(items); start += c.table.BatchWriteLimit {
		end := min(start+c.table.BatchWriteLimit, len(items))

		chunk := items[start:end]
		requests := make([]types.WriteRequest, 0, len(chunk))
		for _, item := range chunk {
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		requestItems := map[string][]types.WriteRequest{
			c.table.TableName: requests,
		}

		for len(requestItems) > 0 {
			out, err := c.ddb.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: requestItems,
			})
			if err != nil {
				return written, fmt.Errorf("batch write failed: %w", err)
			}
			requestItems = out.UnprocessedItems
		}

		written += len(chunk)
	}

	return written, nil
}
