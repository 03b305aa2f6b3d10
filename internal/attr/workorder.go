package attr

import (
	"fmt"
	"time"

	"github.com/example/workorders/internal/domain"
)

// CreatedAtLayout is the stored form of WorkOrder.CreatedAt.
const CreatedAtLayout = time.RFC3339Nano

// Images written by older deployments store createdAt without a zone.
const legacyCreatedAtLayout = "2006-01-02T15:04:05.999999"

// EncodeWorkOrder renders wo as a record image. An absent cancellation
// reason is stored as NULL.
func EncodeWorkOrder(wo *domain.WorkOrder) Image {
	img := Image{
		"id":           String(wo.ID),
		"createdAt":    String(wo.CreatedAt.UTC().Format(CreatedAtLayout)),
		"description":  String(wo.Description),
		"deliveryDate": String(wo.DeliveryDate),
		"status":       String(string(wo.Status)),
	}
	if wo.CancellationReason != nil {
		img["cancellationReason"] = String(*wo.CancellationReason)
	} else {
		img["cancellationReason"] = Null()
	}
	return img
}

// DecodeWorkOrder turns a record image back into a WorkOrder. Only the id is
// mandatory; the status is not checked here, routing rejects unknown ones.
func DecodeWorkOrder(img Image) (*domain.WorkOrder, error) {
	plain, err := DecodeImage(img)
	if err != nil {
		return nil, err
	}

	wo := &domain.WorkOrder{}
	if wo.ID, err = stringField(plain, "id", true); err != nil {
		return nil, err
	}
	if wo.Description, err = stringField(plain, "description", false); err != nil {
		return nil, err
	}
	if wo.DeliveryDate, err = stringField(plain, "deliveryDate", false); err != nil {
		return nil, err
	}
	status, err := stringField(plain, "status", false)
	if err != nil {
		return nil, err
	}
	wo.Status = domain.Status(status)

	created, err := stringField(plain, "createdAt", false)
	if err != nil {
		return nil, err
	}
	if created != "" {
		if wo.CreatedAt, err = ParseCreatedAt(created); err != nil {
			return nil, &DecodeError{Attribute: "createdAt", Reason: err.Error()}
		}
	}

	if v, ok := plain["cancellationReason"]; ok && v != nil {
		reason, ok := v.(string)
		if !ok {
			return nil, &DecodeError{Attribute: "cancellationReason", Reason: fmt.Sprintf("got %T, want string", v)}
		}
		wo.CancellationReason = &reason
	}
	return wo, nil
}

func stringField(plain map[string]any, name string, required bool) (string, error) {
	v, ok := plain[name]
	if !ok || v == nil {
		if required {
			return "", &DecodeError{Attribute: name, Reason: "missing"}
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &DecodeError{Attribute: name, Reason: fmt.Sprintf("got %T, want string", v)}
	}
	return s, nil
}

// ParseCreatedAt parses a stored creation timestamp.
func ParseCreatedAt(s string) (time.Time, error) {
	t, err := time.Parse(CreatedAtLayout, s)
	if err == nil {
		return t.UTC(), nil
	}
	if legacy, lerr := time.Parse(legacyCreatedAtLayout, s); lerr == nil {
		return legacy.UTC(), nil
	}
	return time.Time{}, err
}
