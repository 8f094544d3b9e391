// Package dynamock provides testing utilities for the profilestore library.
//
// This package includes:
//   - Expectation-based mock DynamoDB client for unit testing
//   - In-memory fake with real conditional write and query semantics
//   - Local DynamoDB integration utilities
//   - Profile test data builders with functional options
//   - Test data seeding helpers
//   - Integration test utilities with automatic cleanup
//
// # Mock Client
//
// The MockClient provides an expectation-based mock implementation where you set
// expectations for specific operations:
//
//	mock := dynamock.NewMockClient(t)
//
//	// Set expectation for PutItem
//	mock.PutFunc = func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
//		// Verify the operation parameters
//		return &dynamodb.PutItemOutput{}, nil
//	}
//
//	// Use mock in your tests
//	table := profilestore.NewTable("test-table")
//	putInput, _ := table.MarshalCreate(input)
//	_, err := mock.PutItem(ctx, putInput)
//
// # Memory Client
//
// The MemoryClient is an in-process fake that stores items and honors the
// request semantics this library generates, so behavior tests run without any
// DynamoDB endpoint:
//
//	table := profilestore.NewTable("profiles")
//	store := profilestore.New(dynamock.NewMemoryClient(table), table)
//
//	_, err := store.CreateProfile(ctx, input)
//	// A second create under the same key fails with ErrProfileExists,
//	// exactly as it would against the service.
//
// # Test Data Builders
//
// Profiles are built through functional options:
//
//	input := dynamock.NewProfile(
//		dynamock.WithKey("user456", "2024-02-20T14:45:00Z"),
//		dynamock.WithEmail("jane.smith@example.com"),
//		dynamock.WithName("Jane", "Smith"),
//		dynamock.WithPreferences("dark", true),
//	).Build()
//
//	// Quick helper for tests that just need distinct rows
//	other := dynamock.QuickProfile("user789", "2024-03-01T09:00:00Z")
//
// # Local DynamoDB
//
// For integration testing, the package provides utilities to work with
// local DynamoDB instances:
//
//	// Simple client creation
//	client := dynamock.NewLocalClient(8000)
//
//	// Full local DynamoDB instance with utilities
//	local := dynamock.NewLocalDynamoDB(8000)
//	if local.IsAvailable(ctx) {
//		table := profilestore.NewTable("test-profiles")
//		err := local.CreateProfileTable(ctx, table)
//		// ... run tests
//		err = local.DeleteTable(ctx, table.TableName)
//	}
//
// # Integration Test Helpers
//
// The package provides several helpers for integration testing:
//
//	// Isolated table that's automatically cleaned up
//	dynamock.WithIsolatedTable(t, client, func(table *profilestore.Table) {
//		// Your test code here
//	})
//
//	// Full integration test runner
//	dynamock.RunIntegrationTest(t, nil, func(local *LocalDynamoDB, table *profilestore.Table) {
//		// Your integration test code here
//	})
//
// # Test Data Seeding
//
// Easily seed test data into tables:
//
//	seeder := dynamock.NewSeedTestData(client, table)
//
//	// Seed a single profile
//	err := seeder.SeedProfile(ctx, input)
//
//	// Seed multiple profiles
//	err := seeder.SeedProfiles(ctx, input1, input2, input3)
//
//	// Seed raw JSON fixtures
//	count, err := seeder.SeedJSON(ctx, fixtureFile)
//
// # Table Management
//
// Automatic table lifecycle management for tests:
//
//	tm := dynamock.NewTableManager(client)
//
//	// Create tables (automatically tracked)
//	err := tm.CreateTestTable(ctx, profilestore.NewTable("table1"))
//	err := tm.CreateTestTable(ctx, profilestore.NewTable("table2"))
//
//	// Cleanup all created tables
//	defer tm.Cleanup(ctx)
package dynamock
