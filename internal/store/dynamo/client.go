package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const (
	maxPingAttempts = 5
	initialBackoff  = 1 * time.Second
	maxBackoff      = 30 * time.Second
)

// Client wraps the DynamoDB service client.
type Client struct {
	DB *dynamodb.Client
}

// Config carries the connection settings. Endpoint and the static
// credentials exist for DynamoDB Local; deployed environments leave
// them empty and rely on IAM roles.
type Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewClient builds a DynamoDB client and verifies connectivity before
// handing it out.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}

	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				if service == dynamodb.ServiceID {
					return aws.Endpoint{URL: cfg.Endpoint, SigningRegion: cfg.Region}, nil
				}
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			})
		opts = append(opts, config.WithEndpointResolverWithOptions(resolver))

		// Static credentials keep the SDK from probing the AWS
		// metadata service when pointed at a local endpoint.
		accessKey, secretKey := cfg.AccessKeyID, cfg.SecretAccessKey
		if accessKey == "" {
			accessKey = "local"
		}
		if secretKey == "" {
			secretKey = "local"
		}
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	if err := verifyConnectivity(ctx, client); err != nil {
		return nil, err
	}
	return &Client{DB: client}, nil
}

// verifyConnectivity pings the endpoint with exponential backoff so a
// DynamoDB Local container that is still starting does not fail the
// process.
func verifyConnectivity(ctx context.Context, client *dynamodb.Client) error {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := client.ListTables(pingCtx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
		cancel()
		if err == nil {
			return nil
		}
		if attempt == maxPingAttempts {
			return fmt.Errorf("dynamodb ping failed after %d attempts: %w", maxPingAttempts, err)
		}
		slog.Warn("dynamodb ping failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"err", err)
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
}

// Ping lists one table as the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.DB.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	return err
}
