package profilestore

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func init() {
	// Register DynamoDB types with gob
	gob.Register(map[string]types.AttributeValue{})
	gob.Register(&types.AttributeValueMemberS{})
	gob.Register(&types.AttributeValueMemberN{})
	gob.Register(&types.AttributeValueMemberB{})
	gob.Register(&types.AttributeValueMemberSS{})
	gob.Register(&types.AttributeValueMemberNS{})
	gob.Register(&types.AttributeValueMemberBS{})
	gob.Register(&types.AttributeValueMemberM{})
	gob.Register(&types.AttributeValueMemberL{})
	gob.Register(&types.AttributeValueMemberNULL{})
	gob.Register(&types.AttributeValueMemberBOOL{})
}

// encodeCursor converts a query's last evaluated key into an opaque string
// token clients can hand back to continue paging. A nil or empty key encodes
// to the empty token, which callers read as "no more pages".
func encodeCursor(lastkey Item) (string, error) {
	if len(lastkey) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(lastkey); err != nil {
		return "", fmt.Errorf("failed to encode last key: %w", err)
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// decodeCursor converts a client token back into an exclusive start key.
// The empty token decodes to a nil key, which starts the query from the top.
func decodeCursor(cursor string) (Item, error) {
	if cursor == "" {
		return nil, nil
	}

	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cursor: %w", err)
	}

	decoder := gob.NewDecoder(bytes.NewReader(raw))

	var startKey Item
	if err := decoder.Decode(&startKey); err != nil {
		return nil, fmt.Errorf("failed to decode start key: %w", err)
	}

	return startKey, nil
}
