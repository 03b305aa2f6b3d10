package cdc

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	qt "github.com/frankban/quicktest"

	"github.com/example/workorders/internal/attr"
	"github.com/example/workorders/internal/domain"
	"github.com/example/workorders/internal/storage"
)

func streamImage(id, status string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"id":                 events.NewStringAttribute(id),
		"createdAt":          events.NewStringAttribute("2025-02-01T08:00:00.123456"),
		"description":        events.NewStringAttribute("Inspect valve"),
		"deliveryDate":       events.NewStringAttribute("2025-02-14T12:00:00Z"),
		"status":             events.NewStringAttribute(status),
		"cancellationReason": events.NewNullAttribute(),
	}
}

func streamRecord(name, seq, id, status string) events.DynamoDBEventRecord {
	r := events.DynamoDBEventRecord{
		EventName: name,
		Change: events.DynamoDBStreamRecord{
			Keys:                        map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute(id)},
			SequenceNumber:              seq,
			ApproximateCreationDateTime: events.SecondsEpochTime{Time: time.Unix(1738396800, 0)},
		},
	}
	if name != EventRemove {
		r.Change.NewImage = streamImage(id, status)
	}
	return r
}

func TestFromDynamoDBEvent(t *testing.T) {
	c := qt.New(t)

	records := FromDynamoDBEvent(events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		streamRecord(EventInsert, "100", "wo-1", "received"),
		streamRecord(EventModify, "200", "wo-1", "in_progress"),
		streamRecord(EventRemove, "300", "wo-1", ""),
	}})
	c.Assert(records, qt.HasLen, 3)

	c.Assert(records[0].Kind, qt.Equals, storage.OperationCreated)
	c.Assert(records[0].Sequence, qt.Equals, int64(100))
	c.Assert(records[0].Key, qt.Equals, "wo-1")
	c.Assert(records[0].Image["status"], qt.Equals, attr.String("received"))
	c.Assert(records[0].Image["cancellationReason"], qt.Equals, attr.Null())

	c.Assert(records[1].Kind, qt.Equals, storage.OperationUpdated)
	c.Assert(records[2].Kind, qt.Equals, storage.OperationRemoved)
	c.Assert(records[2].Image, qt.IsNil)

	wo, err := attr.DecodeWorkOrder(records[1].Image)
	c.Assert(err, qt.IsNil)
	c.Assert(wo.Status, qt.Equals, domain.StatusInProgress)
	c.Assert(wo.CancellationReason, qt.IsNil)
}

func TestFromDynamoDBEventNonScalar(t *testing.T) {
	c := qt.New(t)

	r := streamRecord(EventInsert, "not-a-number", "wo-1", "received")
	r.Change.NewImage["status"] = events.NewStringSetAttribute([]string{"received", "completed"})
	records := FromDynamoDBEvent(events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{r}})

	c.Assert(records[0].Sequence, qt.Equals, int64(1))
	_, err := attr.DecodeWorkOrder(records[0].Image)
	c.Assert(err, qt.ErrorMatches, `decode attribute "status": unrecognized tag "SS"`)
}

func TestStreamHandler(t *testing.T) {
	c := qt.New(t)
	router := &fakeRouter{}
	h := NewStreamHandler(NewAdapter(router, nil))

	res, err := h.Handle(context.Background(), events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		streamRecord(EventInsert, "1", "wo-1", "received"),
		streamRecord(EventRemove, "2", "wo-1", ""),
		streamRecord(EventInsert, "3", "wo-2", "canceled"),
	}})
	c.Assert(err, qt.IsNil)
	c.Assert(res, qt.Equals, BatchResult{Processed: 3, Published: 2, Skipped: 1})
	c.Assert(router.routed, qt.HasLen, 2)
}
