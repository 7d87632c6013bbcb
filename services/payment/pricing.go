package payment

import (
	"context"
	"regexp"
	"strings"
)

// Time-slot classifications passed to the pricing catalog.
const (
	SlotInHour    = "in-hour"
	SlotOutOfHour = "out-of-hour"
	SlotStandard  = "standard"
)

// ServicePrice is a catalog price for a service in a given slot classification.
type ServicePrice struct {
	Amount   float64
	Currency string
}

// PricingResolver is the external pricing catalog collaborator. It returns
// nil (no error) when the service has no configured price.
type PricingResolver interface {
	GetServicePrice(ctx context.Context, baseServiceName, classification string) (*ServicePrice, error)
}

// priceAnnotation matches display-name suffixes like "(from €80)" or "(€150)".
var priceAnnotation = regexp.MustCompile(`\s*\((?:from\s*)?€\s*\d+(?:\.\d+)?\)`)

var outOfHourMarkers = []string{"out of hours", "out-of-hours", "out of hour", "out-of-hour"}
var inHourMarkers = []string{"in hours", "in-hours", "in hour", "in-hour"}

// ParseServiceDescriptor splits a raw service display string into the catalog
// base name and the time-slot classification. Display strings carry price
// annotations and slot markers, e.g.
// "Emergency Exam (from €80) - out of hours" -> ("Emergency Exam", "out-of-hour").
func ParseServiceDescriptor(raw string) (baseName, classification string) {
	name := priceAnnotation.ReplaceAllString(raw, "")
	classification = SlotStandard

	lower := strings.ToLower(name)
	for _, marker := range outOfHourMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 {
			name = name[:idx] + name[idx+len(marker):]
			classification = SlotOutOfHour
			break
		}
	}
	if classification == SlotStandard {
		for _, marker := range inHourMarkers {
			if idx := strings.Index(lower, marker); idx >= 0 {
				name = name[:idx] + name[idx+len(marker):]
				classification = SlotInHour
				break
			}
		}
	}

	name = strings.Trim(name, " -–—:,")
	name = strings.Join(strings.Fields(name), " ")
	return name, classification
}
