// Package history persists chat transcripts in DynamoDB, one item per
// message, keyed by patient ID and timestamp.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/keatteoh99/medrock/pkg"
)

// DefaultTable is the table name used when none is configured.
const DefaultTable = "MedicalAI_ChatHistory"

// DynamoAPI is the slice of the DynamoDB client the store uses.
// *dynamodb.Client satisfies it.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store reads and writes chat records for one table.
type Store struct {
	api   DynamoAPI
	table string
}

// NewStore creates a store over the given table.
func NewStore(api DynamoAPI, table string) (*Store, error) {
	if api == nil {
		return nil, errors.New("history: nil api")
	}
	if table == "" {
		table = DefaultTable
	}
	return &Store{api: api, table: table}, nil
}

// Append writes one record. Timestamp, conversation ID and creation time
// are filled in when the caller left them empty, so the write path never
// produces an item without a sort key.
func (s *Store) Append(ctx context.Context, rec pkg.ChatRecord) error {
	if rec.PatientID == "" {
		return errors.New("append record: patient id is required")
	}
	now := time.Now().UTC()
	if rec.Timestamp == "" {
		rec.Timestamp = now.Format(time.RFC3339Nano)
	}
	if rec.ConversationID == "" {
		rec.ConversationID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

// Recent returns up to limit records for the patient, most recent first.
func (s *Store) Recent(ctx context.Context, patientID string, limit int) ([]pkg.ChatRecord, error) {
	if patientID == "" {
		return nil, errors.New("query records: patient id is required")
	}
	if limit <= 0 {
		limit = 20
	}
	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("patient_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: patientID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	records := make([]pkg.ChatRecord, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	return records, nil
}
