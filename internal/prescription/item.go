package prescription

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Dispensing units considered containers: one container per prescription
// line regardless of dose slots.
var containerUnits = map[string]bool{
	"chai": true,
	"tuýp": true,
	"lọ":   true,
}

// Administration routes with discrete-unit dosing. Everything else is
// dosed per application and has no derivable total quantity.
var countableUsages = map[string]bool{
	"uống":           true,
	"ngậm dưới lưỡi": true,
	"nhai":           true,
}

const (
	DefaultUsage = "uống"
	DefaultUnit  = "viên"
)

// FlexString accepts both JSON strings and numbers. Historical prescription
// snapshots carry dose values in either representation.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// Item is one prescription line. The slot fields (morning..evening) are the
// current schema; Frequency/Quantity belong to the retired schema and are
// only read back from historical revenue snapshots.
type Item struct {
	ID            string     `json:"id"`
	DrugName      string     `json:"drugName"`
	Morning       FlexString `json:"morning,omitempty"`
	Noon          FlexString `json:"noon,omitempty"`
	Afternoon     FlexString `json:"afternoon,omitempty"`
	Evening       FlexString `json:"evening,omitempty"`
	Duration      int        `json:"duration,omitempty"`
	TotalQuantity int        `json:"totalQuantity,omitempty"`
	Usage         string     `json:"usage,omitempty"`
	Unit          string     `json:"unit,omitempty"`

	// Legacy schema fields, never written by this code.
	Frequency FlexString `json:"frequency,omitempty"`
	Quantity  FlexString `json:"quantity,omitempty"`
}

func (it Item) usageOrDefault() string {
	if it.Usage == "" {
		return DefaultUsage
	}
	return it.Usage
}

func (it Item) unitOrDefault() string {
	if it.Unit == "" {
		return DefaultUnit
	}
	return it.Unit
}

// hasSlotFields reports whether the item uses the current slot-based schema.
func (it Item) hasSlotFields() bool {
	return it.Morning != "" || it.Noon != "" || it.Afternoon != "" || it.Evening != ""
}

// IsCountable reports whether the route is dosed in discrete units.
// An empty usage counts as oral.
func IsCountable(usage string) bool {
	if usage == "" {
		usage = DefaultUsage
	}
	return countableUsages[usage]
}

// IsContainerUnit reports whether unit is dispensed as a whole container.
func IsContainerUnit(unit string) bool {
	return containerUnits[unit]
}

// ParseFraction converts a dose value into a number. Accepted forms: empty
// (0), a plain number, or a two-part fraction "a/b" with a non-zero
// denominator. Anything else yields 0.
func ParseFraction(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if strings.Contains(value, "/") {
		parts := strings.Split(value, "/")
		if len(parts) == 2 {
			num, errN := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			den, errD := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if errN == nil && errD == nil && den != 0 {
				return num / den
			}
		}
		return 0
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return n
}
