// Package profilestore encapsulates correct, efficient access patterns for a
// DynamoDB table of user profile and activity records with a composite
// primary key (userId, timestamp) and an email GSI.
//
// The package translates domain intents into correctly constructed requests
// against the store's primitive operations: conditional puts that never
// clobber existing records, atomic counter updates, partial nested-field
// updates, sort key range queries, index lookups, and chunked batch
// retrieval. Request construction is separated from execution, so every
// request shape can be tested without a network.
//
// # Basic Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	table := profilestore.NewTable("user-profiles")
//	client := profilestore.New(dynamodb.NewFromConfig(cfg), table)
//
//	created, err := client.CreateProfile(ctx, profilestore.CreateProfileInput{
//	    Key:       profilestore.Key{UserID: "user789", Timestamp: "1698768000"},
//	    Email:     "user789@example.com",
//	    FirstName: "Alice",
//	    LastName:  "Johnson",
//	    Extra:     map[string]any{"loginCount": 0},
//	})
//	if errors.Is(err, profilestore.ErrProfileExists) {
//	    // expected outcome, not a fault; the stored item is untouched
//	}
//
// # Error Handling
//
// Failed condition checks are classified, never swallowed: CreateProfile
// reports ErrProfileExists and DeleteProfile reports ErrProfileNotFound, both
// detectable with errors.Is(err, ErrConditionFailed), with the driver's
// original error still reachable via errors.As. A point lookup that finds
// nothing returns a nil item and a nil error. Transport errors propagate
// wrapped; retry policy belongs to the driver.
//
// # Querying
//
// QueryActivity ranges over one partition's sort key and QueryByEmail
// resolves profiles through the email GSI; neither ever scans the table.
// Both return a single page together with an opaque continuation cursor:
//
//	page, err := client.QueryActivity(ctx, profilestore.ActivityQuery{
//	    UserID: "user123",
//	    Start:  "1698700000",
//	})
//	for page.NextCursor != "" {
//	    page, err = client.QueryActivity(ctx, profilestore.ActivityQuery{
//	        UserID: "user123",
//	        Start:  "1698700000",
//	        Cursor: page.NextCursor,
//	    })
//	}
//
// # Testing
//
// The dynamock subpackage provides an expectation-based mock driver, an
// in-process fake with real conditional write and counter semantics, and
// DynamoDB Local helpers.
package profilestore
