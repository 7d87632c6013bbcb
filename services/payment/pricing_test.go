package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseServiceDescriptor(t *testing.T) {
	cases := []struct {
		raw      string
		wantName string
		wantSlot string
	}{
		{"New Patient Exam", "New Patient Exam", SlotStandard},
		{"New Patient Exam (from €80)", "New Patient Exam", SlotStandard},
		{"New Patient Exam (€150)", "New Patient Exam", SlotStandard},
		{"Emergency Exam (from €80) - out of hours", "Emergency Exam", SlotOutOfHour},
		{"Emergency Exam - Out-Of-Hours", "Emergency Exam", SlotOutOfHour},
		{"Emergency Exam - in hours", "Emergency Exam", SlotInHour},
		{"Dental Cleaning (from €62.50)", "Dental Cleaning", SlotStandard},
		{"  Vaccination  (from €30)  ", "Vaccination", SlotStandard},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			name, slot := ParseServiceDescriptor(tc.raw)
			assert.Equal(t, tc.wantName, name)
			assert.Equal(t, tc.wantSlot, slot)
		})
	}
}
