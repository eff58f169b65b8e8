package services

import (
	"bakery_backend/internal/models"
	"bakery_backend/pkg/utils"
)

// Notifier receives low-stock alerts for raw materials. Implementations must
// not block the request path for long; failures are logged, never surfaced
// to the API caller.
type Notifier interface {
	NotifyLowStock(material models.RawMaterial, recipient string)
}

// logNotifier is the default Notifier. It records the alert in the log; the
// actual email delivery is intentionally left out and can be swapped in by
// providing another implementation.
type logNotifier struct{}

// NewLogNotifier creates the logging Notifier.
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) NotifyLowStock(material models.RawMaterial, recipient string) {
	utils.LogWarn("Low stock alert", map[string]interface{}{
		"material_id":      material.ID,
		"material_name":    material.Name,
		"quantity":         material.Quantity,
		"warning_quantity": material.WarningQuantity,
		"unit_type":        material.UnitType,
		"recipient":        recipient,
	})
}
