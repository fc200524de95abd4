package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// DynamoDB key layout: one item per storage event, keyed by object location
// with the correlation id as sort key so redeliveries never overwrite the
// original attempt.
const (
	pkPrefix = "VIDEO#"
	skPrefix = "VALIDATION#"
)

// DynamoStore implements ValidationStore using AWS DynamoDB.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// Compile-time interface check.
var _ ValidationStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table.
// The client should be initialized from the shared AWS config.
func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// videoPK returns the partition key for an object location.
func videoPK(bucket, key string) string {
	return pkPrefix + bucket + "/" + key
}

// PutValidation writes one validation record with PK, SK, and TTL.
func (s *DynamoStore) PutValidation(ctx context.Context, rec *ValidationRecord) error {
	if rec.ProcessedAt == "" {
		rec.ProcessedAt = time.Now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	pk := videoPK(rec.Bucket, rec.Key)
	sk := skPrefix + rec.CorrelationID
	item["PK"] = &types.AttributeValueMemberS{Value: pk}
	item["SK"] = &types.AttributeValueMemberS{Value: sk}
	item["expiresAt"] = &types.AttributeValueMemberN{
		Value: strconv.FormatInt(time.Now().Add(RecordTTL).Unix(), 10),
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem PK=%s SK=%s: %w", pk, sk, err)
	}

	log.Debug().
		Str("bucket", rec.Bucket).
		Str("key", rec.Key).
		Str("correlationId", rec.CorrelationID).
		Str("status", rec.Status).
		Msg("Validation record persisted")
	return nil
}
