package actiondao

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/savaki/ddb/v2"
	"github.com/savaki/entity-builder/internal/models"
	"github.com/savaki/entity-builder/internal/orchestrator"
	"github.com/segmentio/ksuid"
)

// ID identifies a history record in format {uid}:{ksuid}
type ID string

func (id ID) String() string {
	return string(id)
}

// NewID constructs an ID from the entity uid and sort key
func NewID(uid, sk string) ID {
	return ID(fmt.Sprintf("%s:%s", uid, sk))
}

// Record is a lifecycle action started for an entity
type Record struct {
	UID       string `ddb:"hash" dynamodbav:"uid"`  // entity uid - DynamoDB partition key
	SK        string `ddb:"range" dynamodbav:"sk"` // KSUID - DynamoDB sort key
	Namespace string `dynamodbav:"namespace,omitempty"`
	Name      string `dynamodbav:"name,omitempty"`
	Action    string `dynamodbav:"action,omitempty"`
	BuildID   string `dynamodbav:"build_id,omitempty"`
	BuildArn  string `dynamodbav:"build_arn,omitempty"`
	CreatedAt int64  `dynamodbav:"created_at,omitempty"` // Unix epoch milliseconds of creation
}

// GetID returns the record ID
func (r Record) GetID() ID {
	return NewID(r.UID, r.SK)
}

// GetAction returns the recorded action
func (r Record) GetAction() models.Action {
	return models.Action(r.Action)
}

// DAO records the lifecycle actions started for entities
type DAO struct {
	table *ddb.Table
}

// New creates a new DAO instance
func New(client *dynamodb.Client, tableName string) *DAO {
	db := ddb.New(client)
	return &DAO{
		table: db.MustTable(tableName, &Record{}),
	}
}

// RecordBuild stores a started build
func (d *DAO) RecordBuild(ctx context.Context, input orchestrator.RecordInput) error {
	record := Record{
		UID:       input.Entity.UID,
		SK:        ksuid.New().String(),
		Namespace: input.Entity.GetNamespace(),
		Name:      input.Entity.Name,
		Action:    input.Action.String(),
		BuildID:   input.BuildID,
		BuildArn:  input.BuildArn,
		CreatedAt: time.Now().UnixMilli(),
	}

	if err := d.table.Put(&record).RunWithContext(ctx); err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}
	return nil
}

// Query returns the recorded actions for an entity ordered by creation time,
// most recent first. Records created in the same millisecond are ordered by
// sort key.
func (d *DAO) Query(ctx context.Context, uid string) ([]Record, error) {
	var records []Record

	err := d.table.Query("#UID = ?", uid).
		FindAllWithContext(ctx, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	sortRecords(records)
	return records, nil
}

func sortRecords(records []Record) {
	slices.SortFunc(records, func(a, b Record) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.SK, a.SK)
	})
}
