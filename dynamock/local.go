package dynamock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nisimpson/profilestore"
)

// DefaultLocalPort is the default port for DynamoDB Local.
const DefaultLocalPort = 8000

// pollInterval controls how often the wait helpers re-check state.
const pollInterval = time.Second

// LocalDynamoDB wraps a client pointed at a DynamoDB Local instance and
// adds table lifecycle helpers for integration tests.
type LocalDynamoDB struct {
	Client   *dynamodb.Client
	Endpoint string
	Port     int
}

func localEndpoint(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

func localResolver(endpoint string) aws.EndpointResolverWithOptionsFunc {
	return func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:           endpoint,
			SigningRegion: region,
		}, nil
	}
}

// NewLocalClient creates a DynamoDB client that talks to DynamoDB Local on
// the given port. The client uses anonymous credentials; DynamoDB Local
// does not validate them.
//
//	client := dynamock.NewLocalClient(8000)
func NewLocalClient(port int) *dynamodb.Client {
	cfg := aws.Config{
		Region:                      "us-east-1",
		Credentials:                 aws.AnonymousCredentials{},
		EndpointResolverWithOptions: localResolver(localEndpoint(port)),
	}
	return dynamodb.NewFromConfig(cfg)
}

// NewLocalClientFromConfig is like NewLocalClient but starts from the
// caller's AWS config, keeping any retry or logging middleware it carries.
func NewLocalClientFromConfig(cfg aws.Config, port int) *dynamodb.Client {
	cfg.EndpointResolverWithOptions = localResolver(localEndpoint(port))
	cfg.Credentials = aws.AnonymousCredentials{}
	return dynamodb.NewFromConfig(cfg)
}

// MustNewLocalClient creates a local client and panics if DynamoDB Local is
// not reachable. Useful in test setup that should fail fast.
func MustNewLocalClient(port int) *dynamodb.Client {
	client := NewLocalClient(port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.ListTables(ctx, &dynamodb.ListTablesInput{}); err != nil {
		panic(fmt.Sprintf("failed to connect to DynamoDB Local on port %d: %v", port, err))
	}
	return client
}

// NewLocalDynamoDB creates a LocalDynamoDB for the given port.
func NewLocalDynamoDB(port int) *LocalDynamoDB {
	return &LocalDynamoDB{
		Client:   NewLocalClient(port),
		Endpoint: localEndpoint(port),
		Port:     port,
	}
}

// NewDefaultLocalClient creates a local client on DefaultLocalPort.
func NewDefaultLocalClient() *dynamodb.Client {
	return NewLocalClient(DefaultLocalPort)
}

// NewDefaultLocalDynamoDB creates a LocalDynamoDB on DefaultLocalPort.
func NewDefaultLocalDynamoDB() *LocalDynamoDB {
	return NewLocalDynamoDB(DefaultLocalPort)
}

// IsAvailable reports whether DynamoDB Local is running on the configured
// port. It checks both the TCP port and a ListTables round trip, so a
// different service squatting on the port does not count.
func (l *LocalDynamoDB) IsAvailable(ctx context.Context) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", l.Port), 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()

	_, err = l.Client.ListTables(ctx, &dynamodb.ListTablesInput{})
	return err == nil
}

// WaitForAvailable blocks until DynamoDB Local responds or the timeout
// elapses.
func (l *LocalDynamoDB) WaitForAvailable(ctx context.Context, timeout time.Duration) error {
	err := poll(ctx, timeout, 500*time.Millisecond, func() (bool, error) {
		return l.IsAvailable(ctx), nil
	})
	if errors.Is(err, errPollTimeout) {
		return fmt.Errorf("DynamoDB Local not available at %s after %v", l.Endpoint, timeout)
	}
	return err
}

// CreateProfileTable creates a table matching the profile store layout: a
// string partition and sort key named after the table config, plus a global
// secondary index over the email attribute projecting all attributes. It
// waits for the table to become active before returning.
func (l *LocalDynamoDB) CreateProfileTable(ctx context.Context, table *profilestore.Table) error {
	throughput := &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(5),
		WriteCapacityUnits: aws.Int64(5),
	}

	stringAttr := func(name string) types.AttributeDefinition {
		return types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: types.ScalarAttributeTypeS,
		}
	}

	input := &dynamodb.CreateTableInput{
		TableName: aws.String(table.TableName),
		AttributeDefinitions: []types.AttributeDefinition{
			stringAttr(table.PartitionKeyName),
			stringAttr(table.SortKeyName),
			stringAttr(table.EmailKeyName),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(table.PartitionKeyName), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(table.SortKeyName), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(table.EmailIndexName),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(table.EmailKeyName), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{
					ProjectionType: types.ProjectionTypeAll,
				},
				ProvisionedThroughput: throughput,
			},
		},
		ProvisionedThroughput: throughput,
	}

	if _, err := l.Client.CreateTable(ctx, input); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table.TableName, err)
	}
	return l.WaitForTableActive(ctx, table.TableName, 30*time.Second)
}

// WaitForTableActive blocks until the table reports ACTIVE status.
func (l *LocalDynamoDB) WaitForTableActive(ctx context.Context, tableName string, timeout time.Duration) error {
	err := poll(ctx, timeout, pollInterval, func() (bool, error) {
		out, err := l.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			return false, fmt.Errorf("failed to describe table %s: %w", tableName, err)
		}
		return out.Table.TableStatus == types.TableStatusActive, nil
	})
	if errors.Is(err, errPollTimeout) {
		return fmt.Errorf("table %s did not become active within %v", tableName, timeout)
	}
	return err
}

// DeleteTable deletes a table and waits until DynamoDB no longer knows it.
func (l *LocalDynamoDB) DeleteTable(ctx context.Context, tableName string) error {
	if _, err := l.Client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	}); err != nil {
		return fmt.Errorf("failed to delete table %s: %w", tableName, err)
	}
	return l.WaitForTableDeleted(ctx, tableName, 30*time.Second)
}

// WaitForTableDeleted blocks until DescribeTable reports the table gone.
func (l *LocalDynamoDB) WaitForTableDeleted(ctx context.Context, tableName string, timeout time.Duration) error {
	err := poll(ctx, timeout, pollInterval, func() (bool, error) {
		_, err := l.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})
		if err == nil {
			return false, nil
		}
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return true, nil
		}
		return false, fmt.Errorf("error checking table deletion status: %w", err)
	})
	if errors.Is(err, errPollTimeout) {
		return fmt.Errorf("table %s was not deleted within %v", tableName, timeout)
	}
	return err
}

// ListTables returns all table names in the local instance.
func (l *LocalDynamoDB) ListTables(ctx context.Context) ([]string, error) {
	out, err := l.Client.ListTables(ctx, &dynamodb.ListTablesInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return out.TableNames, nil
}

// Cleanup deletes every table in the local instance.
func (l *LocalDynamoDB) Cleanup(ctx context.Context) error {
	tables, err := l.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables for cleanup: %w", err)
	}
	for _, tableName := range tables {
		if err := l.DeleteTable(ctx, tableName); err != nil {
			return fmt.Errorf("failed to delete table %s during cleanup: %w", tableName, err)
		}
	}
	return nil
}

var errPollTimeout = errors.New("poll timed out")

// poll invokes check every interval until it returns true, fails, the
// context is canceled, or the timeout elapses.
func poll(ctx context.Context, timeout, interval time.Duration, check func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return errPollTimeout
}
