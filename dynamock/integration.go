package dynamock

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nisimpson/profilestore"
)

// TableManager manages DynamoDB tables for testing, providing automatic cleanup.
type TableManager struct {
	client *dynamodb.Client
	tables []string // track created tables for cleanup
}

// NewTableManager creates a new table manager with the given DynamoDB client.
func NewTableManager(client *dynamodb.Client) *TableManager {
	return &TableManager{
		client: client,
		tables: make([]string, 0),
	}
}

// CreateTestTable creates a table with the profile store schema and tracks it
// for cleanup.
func (tm *TableManager) CreateTestTable(ctx context.Context, table *profilestore.Table) error {
	local := &LocalDynamoDB{Client: tm.client}

	err := local.CreateProfileTable(ctx, table)
	if err != nil {
		return err
	}

	// Track the table for cleanup
	tm.tables = append(tm.tables, table.TableName)
	return nil
}

// Cleanup deletes all tables created by this manager.
func (tm *TableManager) Cleanup(ctx context.Context) error {
	local := &LocalDynamoDB{Client: tm.client}

	for _, tableName := range tm.tables {
		if err := local.DeleteTable(ctx, tableName); err != nil {
			return fmt.Errorf("failed to delete table %s: %w", tableName, err)
		}
	}

	tm.tables = tm.tables[:0] // Clear the slice
	return nil
}

// GetTableNames returns the names of all tables managed by this manager.
func (tm *TableManager) GetTableNames() []string {
	names := make([]string, len(tm.tables))
	copy(names, tm.tables)
	return names
}

// WithIsolatedTable runs a test function with an isolated table that is automatically cleaned up.
// The table name is generated to be unique for the test.
func WithIsolatedTable(t *testing.T, client *dynamodb.Client, fn func(table *profilestore.Table)) {
	ctx := context.Background()
	table := profilestore.NewTable(fmt.Sprintf("test-%s-%d", t.Name(), time.Now().UnixNano()))

	// Create table manager for cleanup
	tm := NewTableManager(client)

	// Ensure cleanup happens even if test panics
	defer func() {
		if err := tm.Cleanup(ctx); err != nil {
			t.Errorf("Failed to cleanup table %s: %v", table.TableName, err)
		}
	}()

	// Create the test table
	err := tm.CreateTestTable(ctx, table)
	if err != nil {
		t.Fatalf("Failed to create test table %s: %v", table.TableName, err)
	}

	// Run the test function
	fn(table)
}

// WithLocalDynamoDB runs a test function with a local DynamoDB instance.
// It checks if DynamoDB Local is available and skips the test if not.
func WithLocalDynamoDB(t *testing.T, port int, fn func(local *LocalDynamoDB)) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	local := NewLocalDynamoDB(port)
	ctx := context.Background()

	// Check if DynamoDB Local is available
	if !local.IsAvailable(ctx) {
		t.Skipf("DynamoDB Local not available on port %d", port)
	}

	// Run the test function
	fn(local)
}

// WithDefaultLocalDynamoDB runs a test function with the default local DynamoDB instance (port 8000).
func WithDefaultLocalDynamoDB(t *testing.T, fn func(local *LocalDynamoDB)) {
	WithLocalDynamoDB(t, DefaultLocalPort, fn)
}

// NewTestTable generates a unique table name for testing.
func NewTestTable(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// SeedTestData is a helper for seeding test data into a table.
type SeedTestData struct {
	client *dynamodb.Client
	table  *profilestore.Table
}

// NewSeedTestData creates a new test data seeder.
func NewSeedTestData(client *dynamodb.Client, table *profilestore.Table) *SeedTestData {
	return &SeedTestData{
		client: client,
		table:  table,
	}
}

// SeedProfile seeds a single profile into the table, overwriting any existing
// item under the same key.
func (s *SeedTestData) SeedProfile(ctx context.Context, input profilestore.CreateProfileInput) error {
	putInput, err := s.table.MarshalCreate(input)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	// Seeding is unconditional
	putInput.ConditionExpression = nil
	putInput.ExpressionAttributeNames = nil

	_, err = s.client.PutItem(ctx, putInput)
	if err != nil {
		return fmt.Errorf("failed to put profile: %w", err)
	}

	return nil
}

// SeedProfiles seeds multiple profiles into the table.
func (s *SeedTestData) SeedProfiles(ctx context.Context, inputs ...profilestore.CreateProfileInput) error {
	for _, input := range inputs {
		if err := s.SeedProfile(ctx, input); err != nil {
			return err
		}
	}
	return nil
}

// SeedJSON seeds raw JSON items from r via batched writes, returning the
// number of items written.
func (s *SeedTestData) SeedJSON(ctx context.Context, r io.Reader) (int, error) {
	return profilestore.New(s.client, s.table).LoadSeedData(ctx, r)
}

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	Port             int
	SkipIfNotRunning bool
	TablePrefix      string
	CleanupTimeout   time.Duration
}

// DefaultIntegrationTestConfig returns a default configuration for integration tests.
func DefaultIntegrationTestConfig() *IntegrationTestConfig {
	return &IntegrationTestConfig{
		Port:             DefaultLocalPort,
		SkipIfNotRunning: true,
		TablePrefix:      "integration-test",
		CleanupTimeout:   30 * time.Second,
	}
}

// RunIntegrationTest runs an integration test with the given configuration.
func RunIntegrationTest(t *testing.T, config *IntegrationTestConfig, fn func(local *LocalDynamoDB, table *profilestore.Table)) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	if config == nil {
		config = DefaultIntegrationTestConfig()
	}

	local := NewLocalDynamoDB(config.Port)
	ctx := context.Background()

	// Check if DynamoDB Local is available
	if !local.IsAvailable(ctx) {
		if config.SkipIfNotRunning {
			t.Skipf("DynamoDB Local not available on port %d", config.Port)
		} else {
			t.Fatalf("DynamoDB Local not available on port %d", config.Port)
		}
	}

	// Generate unique table name
	table := profilestore.NewTable(NewTestTable(config.TablePrefix))

	// Create the test table
	err := local.CreateProfileTable(ctx, table)
	if err != nil {
		t.Fatalf("Failed to create test table %s: %v", table.TableName, err)
	}

	// Ensure cleanup happens
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), config.CleanupTimeout)
		defer cancel()

		if err := local.DeleteTable(cleanupCtx, table.TableName); err != nil {
			t.Errorf("Failed to cleanup table %s: %v", table.TableName, err)
		}
	}()

	// Run the test function
	fn(local, table)
}

// AssertTableExists verifies that a table exists.
func AssertTableExists(t *testing.T, client *dynamodb.Client, tableName string) {
	ctx := context.Background()

	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: &tableName,
	})

	if err != nil {
		t.Errorf("Table %s does not exist: %v", tableName, err)
	}
}

// AssertTableNotExists verifies that a table does not exist.
func AssertTableNotExists(t *testing.T, client *dynamodb.Client, tableName string) {
	ctx := context.Background()

	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: &tableName,
	})

	if err == nil {
		t.Errorf("Table %s should not exist but it does", tableName)
	}
}
