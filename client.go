package profilestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Client composes the store driver's primitive operations into safe,
// intention-revealing access patterns against a single profile table. The
// client holds no mutable state, so one instance may serve any number of
// concurrent callers; every method is a single request/response cycle and
// honors context cancellation by abandoning the in-flight request.
type Client struct {
	ddb   DynamoDBClient
	table *Table
}

// New creates a Client for the given driver and table configuration.
func New(ddb DynamoDBClient, table *Table) *Client {
	return &Client{ddb: ddb, table: table}
}

// Table returns the client's table configuration.
func (c *Client) Table() *Table { return c.table }

// CreateProfile writes a new profile item, merging the required fields with
// any extra attributes the caller supplies. The put is conditional on the
// primary key not existing, so it never overwrites a concurrent write; when
// the key is taken the call fails with ErrProfileExists and the stored item
// is left unmodified. Returns the item as written.
func (c *Client) CreateProfile(ctx context.Context, in CreateProfileInput) (Item, error) {
	input, err := c.table.MarshalCreate(in)
	if err != nil {
		return nil, err
	}

	if _, err := c.ddb.PutItem(ctx, input); err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, fmt.Errorf("%w: %w", ErrProfileExists, err)
		}
		return nil, fmt.Errorf("failed to put profile: %w", err)
	}

	return input.Item, nil
}

// GetProfile performs a point lookup for the given key. An optional
// projection limits the attributes transferred; see
// DefaultProfileProjection. Returns a nil item and nil error when no item
// exists for the key, since an absent record is an expected outcome, not a
// fault.
func (c *Client) GetProfile(ctx context.Context, key Key, projection ...string) (Item, error) {
	input, err := c.table.MarshalGet(key, projection...)
	if err != nil {
		return nil, err
	}

	out, err := c.ddb.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if out.Item == nil {
		return nil, nil
	}
	return out.Item, nil
}

// QueryActivity returns one page of activity records for the query's
// partition, bounded by its optional sort key range. The page carries a
// continuation cursor when the store reports more results; feed it back via
// ActivityQuery.Cursor to fetch the next page.
func (c *Client) QueryActivity(ctx context.Context, q ActivityQuery) (*Page, error) {
	return c.queryPage(ctx, &q)
}

// QueryByEmail returns one page of profiles matching the email, resolved
// through the email GSI rather than a table scan, so cost is proportional to
// the number of matching items.
func (c *Client) QueryByEmail(ctx context.Context, q EmailQuery) (*Page, error) {
	return c.queryPage(ctx, &q)
}

func (c *Client) queryPage(ctx context.Context, qm QueryMarshaler) (*Page, error) {
	input, err := c.table.MarshalQuery(qm)
	if err != nil {
		return nil, err
	}

	out, err := c.ddb.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	cursor, err := encodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cursor: %w", err)
	}

	return &Page{Items: out.Items, NextCursor: cursor}, nil
}

// IncrementCounter atomically adds delta to a numeric attribute on the item
// and returns the new value. The addition happens server side, so concurrent
// increments are never lost; a missing counter is created with value delta.
func (c *Client) IncrementCounter(ctx context.Context, key Key, counter string, delta int64) (int64, error) {
	input, err := c.table.MarshalIncrement(key, counter, delta)
	if err != nil {
		return 0, err
	}

	out, err := c.ddb.UpdateItem(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("failed to update counter: %w", err)
	}

	attr, ok := out.Attributes[counter].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("counter %q missing from updated attributes", counter)
	}

	value, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter %q is not an integer: %w", counter, err)
	}

	return value, nil
}

// UpdatePreferences applies a partial update to the item's nested
// preferences attribute, touching only the fields the update supplies.
// Returns the item's new state. When the update is empty the call
// short-circuits with ErrNoUpdates before contacting the store.
func (c *Client) UpdatePreferences(ctx context.Context, key Key, update PreferenceUpdate) (Item, error) {
	input, err := c.table.MarshalPreferences(key, update)
	if err != nil {
		return nil, err
	}

	out, err := c.ddb.UpdateItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}

	return out.Attributes, nil
}

// DeleteProfile removes the item for the given key, requiring it to exist.
// Returns the deleted item's full prior state. A missing item fails the
// condition and surfaces as ErrProfileNotFound, distinct from transport
// errors.
func (c *Client) DeleteProfile(ctx context.Context, key Key) (Item, error) {
	input, err := c.table.MarshalDelete(key)
	if err != nil {
		return nil, err
	}

	out, err := c.ddb.DeleteItem(ctx, input)
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, fmt.Errorf("%w: %w", ErrProfileNotFound, err)
		}
		return nil, fmt.Errorf("failed to delete profile: %w", err)
	}

	return out.Attributes, nil
}

// BatchGetProfiles retrieves many items in as few round trips as the
// driver's per-request cap allows; key sets beyond the cap are chunked
// transparently. Keys with no stored item are omitted from the result, and
// result order is unspecified. Keys the store leaves unprocessed are
// resubmitted until the batch completes.
func (c *Client) BatchGetProfiles(ctx context.Context, keys ...Key) ([]Item, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	var items []Item

	for start := 0; start < len(keys); start += c.table.BatchGetLimit {
		end := min(start+c.table.BatchGetLimit, len(keys))

		input, err := c.table.MarshalBatchGet(keys[start:end])
		if err != nil {
			return nil, err
		}

		requestItems := input.RequestItems
		for len(requestItems) > 0 {
			out, err := c.ddb.BatchGetItem(ctx, input)
			if err != nil {
				return nil, fmt.Errorf("batch get failed: %w", err)
			}

			items = append(items, out.Responses[c.table.TableName]...)

			requestItems = out.UnprocessedKeys
			input.RequestItems = requestItems
		}
	}

	return items, nil
}
