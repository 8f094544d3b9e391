package assert

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/profilestore"
)

func profileItem(userID, timestamp, email string) profilestore.Item {
	return profilestore.Item{
		"userId":    &types.AttributeValueMemberS{Value: userID},
		"timestamp": &types.AttributeValueMemberS{Value: timestamp},
		"email":     &types.AttributeValueMemberS{Value: email},
	}
}

func TestItemsAssertions(t *testing.T) {
	items := []profilestore.Item{
		profileItem("user123", "2024-01-15T10:30:00Z", "john.doe@example.com"),
		profileItem("user456", "2024-02-20T14:45:00Z", "jane.smith@example.com"),
	}

	Items(t, items).
		HasCount(2).
		IsNotEmpty().
		ContainsProfile("user123", "2024-01-15T10:30:00Z").
		ContainsEmail("jane.smith@example.com").
		HasAttribute("userId", "user456").
		InAscendingTimestampOrder()
}

func TestItemsOrderAssertions(t *testing.T) {
	descending := []profilestore.Item{
		profileItem("user123", "2024-02-20T14:45:00Z", "a@example.com"),
		profileItem("user123", "2024-01-15T10:30:00Z", "a@example.com"),
	}

	Items(t, descending).InDescendingTimestampOrder()
	Items(t, nil).IsEmpty()
}

func TestItemAssertions(t *testing.T) {
	item := profilestore.Item{
		"userId":     &types.AttributeValueMemberS{Value: "user123"},
		"timestamp":  &types.AttributeValueMemberS{Value: "2024-01-15T10:30:00Z"},
		"email":      &types.AttributeValueMemberS{Value: "john.doe@example.com"},
		"loginCount": &types.AttributeValueMemberN{Value: "6"},
		"active":     &types.AttributeValueMemberBOOL{Value: true},
		"preferences": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"theme":         &types.AttributeValueMemberS{Value: "dark"},
			"notifications": &types.AttributeValueMemberBOOL{Value: true},
		}},
	}

	Item(t, item).
		HasKey("user123", "2024-01-15T10:30:00Z").
		HasString("email", "john.doe@example.com").
		HasNumber("loginCount", 6).
		HasBool("active", true).
		HasAttribute("preferences").
		DoesNotHaveAttribute("lastLogin").
		HasPreference("theme", "dark").
		HasBoolPreference("notifications", true)
}
