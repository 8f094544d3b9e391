package dynamock

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nisimpson/profilestore"
)

// MemoryClient is an in-process fake of the DynamoDB operations profilestore
// generates. Unlike MockClient it has real storage semantics: conditional
// writes raise ConditionalCheckFailedException, ADD updates are applied
// atomically, nested SET paths leave sibling fields alone, and queries honor
// key condition ranges, scan direction, limits and start keys.
//
// It evaluates only the expression shapes this library produces; it is a test
// double, not a DynamoDB emulator. Safe for concurrent use.
type MemoryClient struct {
	table *profilestore.Table

	mu    sync.Mutex
	items map[string]profilestore.Item
}

var _ DynamoDBAPI = (*MemoryClient)(nil)

// NewMemoryClient creates an empty in-memory store for the given table
// configuration.
func NewMemoryClient(table *profilestore.Table) *MemoryClient {
	return &MemoryClient{
		table: table,
		items: make(map[string]profilestore.Item),
	}
}

// Len returns the number of stored items.
func (m *MemoryClient) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *MemoryClient) storageKey(item profilestore.Item) (string, error) {
	pk, ok := item[m.table.PartitionKeyName].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("item missing partition key %q", m.table.PartitionKeyName)
	}
	sk, ok := item[m.table.SortKeyName].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("item missing sort key %q", m.table.SortKeyName)
	}
	return pk.Value + "\x1f" + sk.Value, nil
}

// PutItem stores the item, first evaluating any condition expression against
// the current item under the same key.
func (m *MemoryClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key, err := m.storageKey(params.Item)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.items[key]
	ok, err := evalCondition(params.ConditionExpression, params.ExpressionAttributeNames, existing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{
			Message: aws.String("The conditional request failed"),
		}
	}

	m.items[key] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// GetItem retrieves the item for the request key, applying any projection.
func (m *MemoryClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	key, err := m.storageKey(params.Key)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}

	result := copyItem(item)
	if params.ProjectionExpression != nil {
		projected := profilestore.Item{}
		for _, token := range strings.Split(*params.ProjectionExpression, ",") {
			name := resolveName(strings.TrimSpace(token), params.ExpressionAttributeNames)
			if attr, ok := result[name]; ok {
				projected[name] = attr
			}
		}
		result = projected
	}

	return &dynamodb.GetItemOutput{Item: result}, nil
}

// DeleteItem removes the item for the request key after evaluating any
// condition expression, returning the prior item when asked for ALL_OLD.
func (m *MemoryClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	key, err := m.storageKey(params.Key)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.items[key]
	ok, err := evalCondition(params.ConditionExpression, params.ExpressionAttributeNames, existing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{
			Message: aws.String("The conditional request failed"),
		}
	}

	delete(m.items, key)

	out := &dynamodb.DeleteItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld && existing != nil {
		out.Attributes = copyItem(existing)
	}
	return out, nil
}

// UpdateItem applies the update expression to the stored item, creating the
// item from the request key when absent, and returns attributes according to
// the requested return mode.
func (m *MemoryClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	key, err := m.storageKey(params.Key)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		item = copyItem(params.Key)
	}

	touched, err := applyUpdate(item, params.UpdateExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	m.items[key] = item

	out := &dynamodb.UpdateItemOutput{}
	switch params.ReturnValues {
	case types.ReturnValueAllNew:
		out.Attributes = copyItem(item)
	case types.ReturnValueUpdatedNew:
		updated := profilestore.Item{}
		for _, name := range touched {
			if attr, ok := item[name]; ok {
				updated[name] = copyAttr(attr)
			}
		}
		out.Attributes = updated
	}
	return out, nil
}

// Query evaluates the key condition expression over stored items, honoring
// scan direction, limit and exclusive start key, and reports a last evaluated
// key when more results remain.
func (m *MemoryClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	cond, err := parseKeyCondition(params.KeyConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []profilestore.Item
	for _, item := range m.items {
		if cond.matches(item) {
			matched = append(matched, copyItem(item))
		}
	}

	// Table queries order by sort key; index queries have index-defined
	// order, modeled here as sort key order for determinism.
	sortAttr := m.table.SortKeyName
	forward := params.ScanIndexForward == nil || *params.ScanIndexForward
	sort.Slice(matched, func(i, j int) bool {
		a := stringAttr(matched[i], sortAttr) + "\x1f" + stringAttr(matched[i], m.table.PartitionKeyName)
		b := stringAttr(matched[j], sortAttr) + "\x1f" + stringAttr(matched[j], m.table.PartitionKeyName)
		if forward {
			return a < b
		}
		return a > b
	})

	start := 0
	if params.ExclusiveStartKey != nil {
		for i, item := range matched {
			if stringAttr(item, m.table.PartitionKeyName) == stringAttr(params.ExclusiveStartKey, m.table.PartitionKeyName) &&
				stringAttr(item, m.table.SortKeyName) == stringAttr(params.ExclusiveStartKey, m.table.SortKeyName) {
				start = i + 1
				break
			}
		}
	}

	end := len(matched)
	if params.Limit != nil && start+int(*params.Limit) < end {
		end = start + int(*params.Limit)
	}

	out := &dynamodb.QueryOutput{Items: matched[start:end]}
	if end < len(matched) {
		last := matched[end-1]
		out.LastEvaluatedKey = profilestore.Item{
			m.table.PartitionKeyName: copyAttr(last[m.table.PartitionKeyName]),
			m.table.SortKeyName:      copyAttr(last[m.table.SortKeyName]),
		}
	}
	return out, nil
}

// BatchGetItem retrieves up to 100 keys per request, omitting missing items.
func (m *MemoryClient) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := &dynamodb.BatchGetItemOutput{
		Responses: make(map[string][]profilestore.Item),
	}

	for tableName, request := range params.RequestItems {
		if len(request.Keys) > 100 {
			return nil, fmt.Errorf("too many items requested for the BatchGetItem call: %d", len(request.Keys))
		}
		for _, key := range request.Keys {
			storageKey, err := m.storageKey(key)
			if err != nil {
				return nil, err
			}
			if item, ok := m.items[storageKey]; ok {
				out.Responses[tableName] = append(out.Responses[tableName], copyItem(item))
			}
		}
	}

	return out, nil
}

// BatchWriteItem applies up to 25 unconditional put or delete requests.
func (m *MemoryClient) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, requests := range params.RequestItems {
		if len(requests) > 25 {
			return nil, fmt.Errorf("too many items requested for the BatchWriteItem call: %d", len(requests))
		}
		for _, request := range requests {
			switch {
			case request.PutRequest != nil:
				key, err := m.storageKey(request.PutRequest.Item)
				if err != nil {
					return nil, err
				}
				m.items[key] = copyItem(request.PutRequest.Item)
			case request.DeleteRequest != nil:
				key, err := m.storageKey(request.DeleteRequest.Key)
				if err != nil {
					return nil, err
				}
				delete(m.items, key)
			}
		}
	}

	return &dynamodb.BatchWriteItemOutput{}, nil
}

// expression evaluation helpers

// resolveName substitutes a single #alias through the expression names map.
func resolveName(token string, names map[string]string) string {
	if name, ok := names[token]; ok {
		return name
	}
	return token
}

// resolvePath substitutes each segment of a possibly dotted document path.
func resolvePath(token string, names map[string]string) []string {
	segments := strings.Split(token, ".")
	for i, segment := range segments {
		segments[i] = resolveName(segment, names)
	}
	return segments
}

// evalCondition evaluates the attribute_exists / attribute_not_exists
// conjunctions profilestore generates against the current item. A nil
// expression always passes; a nil item fails attribute_exists.
func evalCondition(expr *string, names map[string]string, item profilestore.Item) (bool, error) {
	if expr == nil {
		return true, nil
	}

	for _, clause := range strings.Split(*expr, " AND ") {
		fields := strings.Fields(strings.NewReplacer("(", " ", ")", " ").Replace(clause))
		if len(fields) != 2 {
			return false, fmt.Errorf("unsupported condition clause: %q", clause)
		}

		name := resolveName(fields[1], names)
		_, exists := item[name]

		switch fields[0] {
		case "attribute_exists":
			if item == nil || !exists {
				return false, nil
			}
		case "attribute_not_exists":
			if exists {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported condition function: %q", fields[0])
		}
	}
	return true, nil
}

// applyUpdate applies the SET and ADD sections profilestore generates,
// mutating item in place. Returns the top-level attribute names touched.
func applyUpdate(item profilestore.Item, expr *string, names map[string]string, values map[string]types.AttributeValue) ([]string, error) {
	if expr == nil {
		return nil, fmt.Errorf("update expression is required")
	}

	var touched []string

	for _, section := range strings.Split(strings.TrimSpace(*expr), "\n") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		keyword, rest, ok := strings.Cut(section, " ")
		if !ok {
			return nil, fmt.Errorf("unsupported update section: %q", section)
		}

		for _, clause := range strings.Split(rest, ",") {
			fields := strings.Fields(clause)

			switch keyword {
			case "SET":
				// "#0.#1 = :0"
				if len(fields) != 3 || fields[1] != "=" {
					return nil, fmt.Errorf("unsupported SET clause: %q", clause)
				}
				path := resolvePath(fields[0], names)
				value, ok := values[fields[2]]
				if !ok {
					return nil, fmt.Errorf("unbound value %q", fields[2])
				}
				if err := setPath(item, path, copyAttr(value)); err != nil {
					return nil, err
				}
				touched = append(touched, path[0])

			case "ADD":
				// "#0 :0"
				if len(fields) != 2 {
					return nil, fmt.Errorf("unsupported ADD clause: %q", clause)
				}
				path := resolvePath(fields[0], names)
				value, ok := values[fields[1]]
				if !ok {
					return nil, fmt.Errorf("unbound value %q", fields[1])
				}
				if err := addNumber(item, path, value); err != nil {
					return nil, err
				}
				touched = append(touched, path[0])

			default:
				return nil, fmt.Errorf("unsupported update keyword: %q", keyword)
			}
		}
	}

	return touched, nil
}

// setPath assigns value at a nested document path, creating intermediate maps
// as needed.
func setPath(item profilestore.Item, path []string, value types.AttributeValue) error {
	current := item
	for _, segment := range path[:len(path)-1] {
		next, ok := current[segment].(*types.AttributeValueMemberM)
		if !ok {
			if _, exists := current[segment]; exists {
				return fmt.Errorf("attribute %q is not a map", segment)
			}
			next = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}}
			current[segment] = next
		}
		current = next.Value
	}
	current[path[len(path)-1]] = value
	return nil
}

// addNumber applies a numeric ADD: a missing attribute starts from zero.
func addNumber(item profilestore.Item, path []string, value types.AttributeValue) error {
	delta, ok := value.(*types.AttributeValueMemberN)
	if !ok {
		return fmt.Errorf("ADD value must be numeric, got %T", value)
	}
	deltaN, err := strconv.ParseInt(delta.Value, 10, 64)
	if err != nil {
		return fmt.Errorf("ADD value is not an integer: %w", err)
	}

	current := item
	for _, segment := range path[:len(path)-1] {
		next, ok := current[segment].(*types.AttributeValueMemberM)
		if !ok {
			return fmt.Errorf("attribute %q is not a map", segment)
		}
		current = next.Value
	}

	name := path[len(path)-1]
	var base int64
	if existing, ok := current[name]; ok {
		n, ok := existing.(*types.AttributeValueMemberN)
		if !ok {
			return fmt.Errorf("attribute %q is not numeric", name)
		}
		base, err = strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("attribute %q is not an integer: %w", name, err)
		}
	}

	current[name] = &types.AttributeValueMemberN{Value: strconv.FormatInt(base+deltaN, 10)}
	return nil
}

// keyCondition is a parsed key condition: partition equality plus an optional
// sort key range.
type keyCondition struct {
	pkName string
	pkVal  string
	skName string
	skOp   string // "", "=", ">=", "<=", "BETWEEN"
	skLo   string
	skHi   string
}

func parseKeyCondition(expr *string, names map[string]string, values map[string]types.AttributeValue) (*keyCondition, error) {
	if expr == nil {
		return nil, fmt.Errorf("key condition expression is required")
	}

	stringValue := func(token string) (string, error) {
		attr, ok := values[token]
		if !ok {
			return "", fmt.Errorf("unbound value %q", token)
		}
		s, ok := attr.(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("key value %q must be a string, got %T", token, attr)
		}
		return s.Value, nil
	}

	fields := strings.Fields(strings.NewReplacer("(", " ", ")", " ").Replace(*expr))
	if len(fields) < 3 || fields[1] != "=" {
		return nil, fmt.Errorf("unsupported key condition: %q", *expr)
	}

	cond := &keyCondition{pkName: resolveName(fields[0], names)}
	value, err := stringValue(fields[2])
	if err != nil {
		return nil, err
	}
	cond.pkVal = value

	rest := fields[3:]
	if len(rest) == 0 {
		return cond, nil
	}
	if rest[0] != "AND" {
		return nil, fmt.Errorf("unsupported key condition: %q", *expr)
	}
	rest = rest[1:]

	switch {
	case len(rest) == 3 && (rest[1] == ">=" || rest[1] == "<=" || rest[1] == "="):
		cond.skName = resolveName(rest[0], names)
		cond.skOp = rest[1]
		if cond.skLo, err = stringValue(rest[2]); err != nil {
			return nil, err
		}
	case len(rest) == 5 && rest[1] == "BETWEEN" && rest[3] == "AND":
		cond.skName = resolveName(rest[0], names)
		cond.skOp = "BETWEEN"
		if cond.skLo, err = stringValue(rest[2]); err != nil {
			return nil, err
		}
		if cond.skHi, err = stringValue(rest[4]); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported sort key condition: %q", *expr)
	}

	return cond, nil
}

func (c *keyCondition) matches(item profilestore.Item) bool {
	if stringAttr(item, c.pkName) != c.pkVal {
		return false
	}
	if c.skOp == "" {
		return true
	}

	sk := stringAttr(item, c.skName)
	switch c.skOp {
	case "=":
		return sk == c.skLo
	case ">=":
		return sk >= c.skLo
	case "<=":
		return sk <= c.skLo
	case "BETWEEN":
		return sk >= c.skLo && sk <= c.skHi
	}
	return false
}

func stringAttr(item profilestore.Item, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// copyItem deep-copies an item so stored state never aliases caller state.
func copyItem(item profilestore.Item) profilestore.Item {
	if item == nil {
		return nil
	}
	result := make(profilestore.Item, len(item))
	for name, attr := range item {
		result[name] = copyAttr(attr)
	}
	return result
}

func copyAttr(attr types.AttributeValue) types.AttributeValue {
	switch v := attr.(type) {
	case *types.AttributeValueMemberS:
		return &types.AttributeValueMemberS{Value: v.Value}
	case *types.AttributeValueMemberN:
		return &types.AttributeValueMemberN{Value: v.Value}
	case *types.AttributeValueMemberBOOL:
		return &types.AttributeValueMemberBOOL{Value: v.Value}
	case *types.AttributeValueMemberNULL:
		return &types.AttributeValueMemberNULL{Value: v.Value}
	case *types.AttributeValueMemberB:
		return &types.AttributeValueMemberB{Value: append([]byte(nil), v.Value...)}
	case *types.AttributeValueMemberSS:
		return &types.AttributeValueMemberSS{Value: append([]string(nil), v.Value...)}
	case *types.AttributeValueMemberNS:
		return &types.AttributeValueMemberNS{Value: append([]string(nil), v.Value...)}
	case *types.AttributeValueMemberM:
		inner := make(map[string]types.AttributeValue, len(v.Value))
		for name, member := range v.Value {
			inner[name] = copyAttr(member)
		}
		return &types.AttributeValueMemberM{Value: inner}
	case *types.AttributeValueMemberL:
		inner := make([]types.AttributeValue, len(v.Value))
		for i, member := range v.Value {
			inner[i] = copyAttr(member)
		}
		return &types.AttributeValueMemberL{Value: inner}
	default:
		return attr
	}
}
