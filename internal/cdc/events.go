package cdc

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/example/workorders/internal/attr"
	"github.com/example/workorders/internal/storage"
)

// DynamoDB stream event names.
const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
	EventRemove = "REMOVE"
)

// FromDynamoDBEvent converts a DynamoDB stream batch into change records.
// Event names other than INSERT, MODIFY and REMOVE keep their raw name as
// the kind so the adapter skips them.
func FromDynamoDBEvent(ev events.DynamoDBEvent) []*storage.ChangeRecord {
	records := make([]*storage.ChangeRecord, 0, len(ev.Records))
	for i, r := range ev.Records {
		rec := &storage.ChangeRecord{
			Kind:       operationKind(r.EventName),
			RecordedAt: r.Change.ApproximateCreationDateTime.Time,
		}
		if seq, err := strconv.ParseInt(r.Change.SequenceNumber, 10, 64); err == nil {
			rec.Sequence = seq
		} else {
			rec.Sequence = int64(i + 1)
		}
		if key, ok := r.Change.Keys["id"]; ok && key.DataType() == events.DataTypeString {
			rec.Key = key.String()
		}
		if len(r.Change.NewImage) > 0 {
			rec.Image = imageOf(r.Change.NewImage)
		}
		records = append(records, rec)
	}
	return records
}

func operationKind(eventName string) storage.OperationKind {
	switch eventName {
	case EventInsert:
		return storage.OperationCreated
	case EventModify:
		return storage.OperationUpdated
	case EventRemove:
		return storage.OperationRemoved
	}
	return storage.OperationKind(eventName)
}

func imageOf(in map[string]events.DynamoDBAttributeValue) attr.Image {
	img := make(attr.Image, len(in))
	for name, v := range in {
		img[name] = valueOf(v)
	}
	return img
}

// valueOf maps the scalar stream types onto attribute tags. Sets, lists,
// maps and binary values get a tag that fails to decode.
func valueOf(v events.DynamoDBAttributeValue) attr.Value {
	switch v.DataType() {
	case events.DataTypeString:
		return attr.String(v.String())
	case events.DataTypeNumber:
		return attr.Number(v.Number())
	case events.DataTypeBoolean:
		return attr.Bool(v.Boolean())
	case events.DataTypeNull:
		return attr.Null()
	case events.DataTypeBinary:
		return attr.Value{Tag: "B"}
	case events.DataTypeBinarySet:
		return attr.Value{Tag: "BS"}
	case events.DataTypeList:
		return attr.Value{Tag: "L"}
	case events.DataTypeMap:
		return attr.Value{Tag: "M"}
	case events.DataTypeNumberSet:
		return attr.Value{Tag: "NS"}
	case events.DataTypeStringSet:
		return attr.Value{Tag: "SS"}
	}
	return attr.Value{Tag: attr.Tag(fmt.Sprintf("type%d", v.DataType()))}
}

// StreamHandler is the Lambda handler for DynamoDB stream batches.
type StreamHandler struct {
	adapter *Adapter
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(adapter *Adapter) *StreamHandler {
	return &StreamHandler{adapter: adapter}
}

// Handle processes one stream batch. Per-record failures are logged by the
// adapter and never fail the invocation.
func (h *StreamHandler) Handle(ctx context.Context, ev events.DynamoDBEvent) (BatchResult, error) {
	res := h.adapter.Process(ctx, FromDynamoDBEvent(ev))
	logger.Infof("stream batch: processed=%d published=%d skipped=%d failed=%d",
		res.Processed, res.Published, res.Skipped, res.Failed)
	return res, nil
}
