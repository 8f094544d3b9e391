// Package assert provides fluent assertion utilities for testing DynamoDB
// operations and profile items. It makes tests more readable and maintainable
// by providing expressive assertion methods.
//
// # Usage
//
//	import "github.com/nisimpson/profilestore/dynamock/assert"
//
//	// Assert on DynamoDB items
//	assert.Items(t, page.Items).
//		HasCount(3).
//		ContainsProfile("user123", "2024-01-15T10:30:00Z").
//		InAscendingTimestampOrder()
//
//	// Assert on a single item
//	assert.Item(t, profile).
//		HasString("email", "jane.smith@example.com").
//		HasNumber("loginCount", 6).
//		HasPreference("theme", "dark")
package assert

import (
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/profilestore"
)

// ItemsAssertion provides fluent assertions for DynamoDB items.
type ItemsAssertion struct {
	t     *testing.T
	items []profilestore.Item
}

// Items creates a new ItemsAssertion for the given DynamoDB items.
func Items(t *testing.T, items []profilestore.Item) *ItemsAssertion {
	return &ItemsAssertion{
		t:     t,
		items: items,
	}
}

// HasCount asserts that the items collection has the expected count.
func (a *ItemsAssertion) HasCount(expected int) *ItemsAssertion {
	if len(a.items) != expected {
		a.t.Errorf("expected %d items, got %d", expected, len(a.items))
	}
	return a
}

// IsEmpty asserts that the items collection is empty.
func (a *ItemsAssertion) IsEmpty() *ItemsAssertion {
	return a.HasCount(0)
}

// IsNotEmpty asserts that the items collection is not empty.
func (a *ItemsAssertion) IsNotEmpty() *ItemsAssertion {
	if len(a.items) == 0 {
		a.t.Error("expected items to not be empty")
	}
	return a
}

// ContainsProfile asserts that the items contain a profile with the given
// user ID and timestamp.
func (a *ItemsAssertion) ContainsProfile(userID, timestamp string) *ItemsAssertion {
	for _, item := range a.items {
		if stringValue(item, "userId") == userID && stringValue(item, "timestamp") == timestamp {
			return a // Found the profile
		}
	}

	a.t.Errorf("expected to find profile %s@%s in items", userID, timestamp)
	return a
}

// ContainsEmail asserts that the items contain a profile with the given email.
func (a *ItemsAssertion) ContainsEmail(email string) *ItemsAssertion {
	for _, item := range a.items {
		if stringValue(item, "email") == email {
			return a // Found the email
		}
	}

	a.t.Errorf("expected to find profile with email %s in items", email)
	return a
}

// HasAttribute asserts that at least one item has the specified string
// attribute with the expected value.
func (a *ItemsAssertion) HasAttribute(attributeName, expectedValue string) *ItemsAssertion {
	for _, item := range a.items {
		if stringValue(item, attributeName) == expectedValue {
			return a // Found the attribute
		}
	}

	a.t.Errorf("expected to find attribute %s with value %s in items", attributeName, expectedValue)
	return a
}

// InAscendingTimestampOrder asserts that items are sorted by timestamp,
// oldest first.
func (a *ItemsAssertion) InAscendingTimestampOrder() *ItemsAssertion {
	for i := 1; i < len(a.items); i++ {
		prev := stringValue(a.items[i-1], "timestamp")
		curr := stringValue(a.items[i], "timestamp")
		if prev > curr {
			a.t.Errorf("items out of ascending timestamp order: %s before %s", prev, curr)
			return a
		}
	}
	return a
}

// InDescendingTimestampOrder asserts that items are sorted by timestamp,
// newest first.
func (a *ItemsAssertion) InDescendingTimestampOrder() *ItemsAssertion {
	for i := 1; i < len(a.items); i++ {
		prev := stringValue(a.items[i-1], "timestamp")
		curr := stringValue(a.items[i], "timestamp")
		if prev < curr {
			a.t.Errorf("items out of descending timestamp order: %s before %s", prev, curr)
			return a
		}
	}
	return a
}

// ItemAssertion provides fluent assertions for individual DynamoDB items.
type ItemAssertion struct {
	t    *testing.T
	item profilestore.Item
}

// Item creates a new ItemAssertion for the given item.
func Item(t *testing.T, item profilestore.Item) *ItemAssertion {
	return &ItemAssertion{
		t:    t,
		item: item,
	}
}

// HasKey asserts that the item carries the given profile key.
func (a *ItemAssertion) HasKey(userID, timestamp string) *ItemAssertion {
	return a.HasString("userId", userID).HasString("timestamp", timestamp)
}

// HasString asserts that the item has the specified string attribute with the
// expected value.
func (a *ItemAssertion) HasString(attrName, expectedValue string) *ItemAssertion {
	if attr, exists := a.item[attrName]; !exists {
		a.t.Errorf("item missing attribute %s", attrName)
	} else if attrStr, ok := attr.(*types.AttributeValueMemberS); !ok {
		a.t.Errorf("attribute %s is not a string", attrName)
	} else if attrStr.Value != expectedValue {
		a.t.Errorf("attribute %s expected %s, got %s", attrName, expectedValue, attrStr.Value)
	}
	return a
}

// HasNumber asserts that the item has the specified numeric attribute with the
// expected integer value.
func (a *ItemAssertion) HasNumber(attrName string, expected int64) *ItemAssertion {
	attr, exists := a.item[attrName]
	if !exists {
		a.t.Errorf("item missing attribute %s", attrName)
		return a
	}

	attrN, ok := attr.(*types.AttributeValueMemberN)
	if !ok {
		a.t.Errorf("attribute %s is not a number", attrName)
		return a
	}

	actual, err := strconv.ParseInt(attrN.Value, 10, 64)
	if err != nil {
		a.t.Errorf("attribute %s is not an integer: %v", attrName, err)
		return a
	}

	if actual != expected {
		a.t.Errorf("attribute %s expected %d, got %d", attrName, expected, actual)
	}
	return a
}

// HasBool asserts that the item has the specified boolean attribute with the
// expected value.
func (a *ItemAssertion) HasBool(attrName string, expected bool) *ItemAssertion {
	if attr, exists := a.item[attrName]; !exists {
		a.t.Errorf("item missing attribute %s", attrName)
	} else if attrBool, ok := attr.(*types.AttributeValueMemberBOOL); !ok {
		a.t.Errorf("attribute %s is not a boolean", attrName)
	} else if attrBool.Value != expected {
		a.t.Errorf("attribute %s expected %v, got %v", attrName, expected, attrBool.Value)
	}
	return a
}

// HasAttribute asserts that the item has the specified attribute, regardless
// of value.
func (a *ItemAssertion) HasAttribute(attrName string) *ItemAssertion {
	if _, exists := a.item[attrName]; !exists {
		a.t.Errorf("item missing attribute %s", attrName)
	}
	return a
}

// DoesNotHaveAttribute asserts that the item lacks the specified attribute.
func (a *ItemAssertion) DoesNotHaveAttribute(attrName string) *ItemAssertion {
	if _, exists := a.item[attrName]; exists {
		a.t.Errorf("item should not have attribute %s", attrName)
	}
	return a
}

// HasPreference asserts that the item's preferences map contains the
// specified string field.
func (a *ItemAssertion) HasPreference(fieldName, expectedValue string) *ItemAssertion {
	prefs, ok := a.preferences()
	if !ok {
		return a
	}

	fieldAttr, exists := prefs[fieldName]
	if !exists {
		a.t.Errorf("preferences missing field %s", fieldName)
		return a
	}

	if fieldStr, ok := fieldAttr.(*types.AttributeValueMemberS); ok {
		if fieldStr.Value != expectedValue {
			a.t.Errorf("preference %s expected %s, got %s", fieldName, expectedValue, fieldStr.Value)
		}
	} else {
		a.t.Errorf("preference %s is not a string", fieldName)
	}

	return a
}

// HasBoolPreference asserts that the item's preferences map contains the
// specified boolean field.
func (a *ItemAssertion) HasBoolPreference(fieldName string, expected bool) *ItemAssertion {
	prefs, ok := a.preferences()
	if !ok {
		return a
	}

	fieldAttr, exists := prefs[fieldName]
	if !exists {
		a.t.Errorf("preferences missing field %s", fieldName)
		return a
	}

	if fieldBool, ok := fieldAttr.(*types.AttributeValueMemberBOOL); ok {
		if fieldBool.Value != expected {
			a.t.Errorf("preference %s expected %v, got %v", fieldName, expected, fieldBool.Value)
		}
	} else {
		a.t.Errorf("preference %s is not a boolean", fieldName)
	}

	return a
}

func (a *ItemAssertion) preferences() (map[string]types.AttributeValue, bool) {
	prefsAttr, exists := a.item["preferences"]
	if !exists {
		a.t.Error("item missing preferences attribute")
		return nil, false
	}

	prefsMap, ok := prefsAttr.(*types.AttributeValueMemberM)
	if !ok {
		a.t.Error("preferences attribute is not a map")
		return nil, false
	}

	return prefsMap.Value, true
}

// stringValue extracts a string attribute value, or empty when absent or not
// a string.
func stringValue(item profilestore.Item, name string) string {
	if attr, ok := item[name].(*types.AttributeValueMemberS); ok {
		return attr.Value
	}
	return ""
}
