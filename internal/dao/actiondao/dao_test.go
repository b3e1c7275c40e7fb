package actiondao

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/savaki/ddb/v2"
	"github.com/savaki/ddb/v2/ddbtest"
	"github.com/savaki/entity-builder/internal/models"
	"github.com/savaki/entity-builder/internal/orchestrator"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
)

func TestRecord_GetID(t *testing.T) {
	record := Record{UID: "0f8d6c1e", SK: "2HFj3kLmNoPqRsTuVwXy"}
	assert.Equal(t, ID("0f8d6c1e:2HFj3kLmNoPqRsTuVwXy"), record.GetID())
	assert.Equal(t, "0f8d6c1e:2HFj3kLmNoPqRsTuVwXy", record.GetID().String())
}

func TestSortRecords(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    []string
	}{
		{
			name: "by creation time",
			records: []Record{
				{SK: "c", CreatedAt: 1000},
				{SK: "a", CreatedAt: 3000},
				{SK: "b", CreatedAt: 2000},
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "same millisecond falls back to sort key",
			records: []Record{
				{SK: "x", CreatedAt: 1000},
				{SK: "z", CreatedAt: 1000},
				{SK: "y", CreatedAt: 1000},
				{SK: "w", CreatedAt: 999},
			},
			want: []string{"z", "y", "x", "w"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sortRecords(tt.records)

			var got []string
			for _, r := range tt.records {
				got = append(got, r.SK)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

type Data struct {
	DAO *DAO
}

func setup(t *testing.T) (ctx context.Context, data Data, cleanup func()) {
	ctx = context.Background()

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion("us-west-2"),
		config.WithBaseEndpoint("http://localhost:8000"),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("blah", "blah", ""),
		),
	)
	assert.NoError(t, err)

	var (
		client    = dynamodb.NewFromConfig(cfg)
		db        = ddb.New(client)
		tableName = fmt.Sprintf("table-%v", ksuid.New().String())
		table     = db.MustTable(tableName, Record{})
		dao       = New(client, tableName)
	)

	err = table.CreateTableIfNotExists(ctx)
	assert.NoError(t, err)

	return ctx, Data{DAO: dao}, func() {
		_ = table.DeleteTableIfExists(ctx)
	}
}

func TestDAO(t *testing.T) {
	ddbtest.WithTable[Data](t, setup, func(t *testing.T, ctx context.Context, data Data) {
		dao := data.DAO
		entity := models.Entity{UID: ksuid.New().String(), Name: "cms-sample"}

		for i, action := range models.Actions {
			err := dao.RecordBuild(ctx, orchestrator.RecordInput{
				Entity:   entity,
				Action:   action,
				BuildID:  fmt.Sprintf("acdp-default:%d", i),
				BuildArn: fmt.Sprintf("arn:aws:codebuild:us-west-2:111111111111:build/acdp-default:%d", i),
			})
			assert.NoError(t, err)
		}

		records, err := dao.Query(ctx, entity.UID)
		assert.NoError(t, err)
		assert.Len(t, records, 3)

		var actions []models.Action
		for _, record := range records {
			actions = append(actions, record.GetAction())
		}
		assert.ElementsMatch(t, models.Actions, actions)
		assert.Equal(t, "default", records[0].Namespace)
		assert.Equal(t, "cms-sample", records[0].Name)
		assert.NotZero(t, records[0].CreatedAt)

		others, err := dao.Query(ctx, "someone-else")
		assert.NoError(t, err)
		assert.Empty(t, others)
	})
}
