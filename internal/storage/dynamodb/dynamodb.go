// Package dynamodb implements the work order store on an Amazon DynamoDB
// table keyed by "id". Change notifications come from the table's stream,
// consumed outside this package.
package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/juju/loggo"

	"github.com/example/workorders/internal/attr"
	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/storage"
)

var logger = loggo.GetLogger("workorders.storage.dynamodb")

// API is the subset of the DynamoDB client the store needs.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	dynamodb.ScanAPIClient
}

// item is the stored shape of a work order. A nil cancellation reason is
// written as NULL, matching records produced by earlier deployments.
type item struct {
	ID                 string  `dynamodbav:"id"`
	CreatedAt          string  `dynamodbav:"createdAt"`
	Description        string  `dynamodbav:"description"`
	DeliveryDate       string  `dynamodbav:"deliveryDate"`
	Status             string  `dynamodbav:"status"`
	CancellationReason *string `dynamodbav:"cancellationReason"`
}

// Store implements storage.Store on a DynamoDB table.
type Store struct {
	client API
	table  string
}

var _ storage.Store = (*Store)(nil)

// New creates a Store for the named table.
func New(client API, table string) *Store {
	return &Store{client: client, table: table}
}

// Put writes wo. PutItem replaces an existing item wholesale, so
// re-putting an identical record is harmless.
func (s *Store) Put(ctx context.Context, wo *domain.WorkOrder) error {
	av, err := attributevalue.MarshalMap(toItem(wo))
	if err != nil {
		return storage.Wrap("put", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	return storage.Wrap("put", err)
}

// Scan reads the whole table, following LastEvaluatedKey until the last
// page, and returns the aggregated items.
func (s *Store) Scan(ctx context.Context) (*storage.ScanResult, error) {
	result := &storage.ScanResult{Items: []*domain.WorkOrder{}}
	pages := 0

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storage.Wrap("scan", err)
		}
		pages++

		var items []item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, storage.Wrap("scan", err)
		}
		for i := range items {
			wo, err := fromItem(&items[i])
			if err != nil {
				return nil, storage.Wrap("scan", err)
			}
			result.Items = append(result.Items, wo)
		}
	}

	result.Total = len(result.Items)
	logger.Debugf("scanned %d work orders from %s in %d pages", result.Total, s.table, pages)
	return result, nil
}

// Close is a no-op; the SDK client holds no connections that need release.
func (s *Store) Close() error {
	return nil
}

func toItem(wo *domain.WorkOrder) *item {
	return &item{
		ID:                 wo.ID,
		CreatedAt:          wo.CreatedAt.UTC().Format(attr.CreatedAtLayout),
		Description:        wo.Description,
		DeliveryDate:       wo.DeliveryDate,
		Status:             string(wo.Status),
		CancellationReason: wo.CancellationReason,
	}
}

func fromItem(it *item) (*domain.WorkOrder, error) {
	wo := &domain.WorkOrder{
		ID:                 it.ID,
		Description:        it.Description,
		DeliveryDate:       it.DeliveryDate,
		Status:             domain.Status(it.Status),
		CancellationReason: it.CancellationReason,
	}
	if it.CreatedAt != "" {
		created, err := attr.ParseCreatedAt(it.CreatedAt)
		if err != nil {
			return nil, err
		}
		wo.CreatedAt = created
	}
	return wo, nil
}
