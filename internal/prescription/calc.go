package prescription

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// slotSum adds the four per-time-of-day doses.
func slotSum(it Item) float64 {
	return ParseFraction(it.Morning.String()) +
		ParseFraction(it.Noon.String()) +
		ParseFraction(it.Afternoon.String()) +
		ParseFraction(it.Evening.String())
}

// DeriveTotalQuantity computes the dispensable total for a line. Countable
// routes multiply the slot sum by the duration and round up; non-countable
// routes always dispense 1.
func DeriveTotalQuantity(it Item) int {
	if !IsCountable(it.usageOrDefault()) {
		return 1
	}
	return int(math.Ceil(slotSum(it) * float64(it.Duration)))
}

// Normalize fills defaults and derives missing total quantities. A positive
// TotalQuantity supplied by the caller is a manual override and is kept
// verbatim.
func Normalize(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		it.Usage = it.usageOrDefault()
		it.Unit = it.unitOrDefault()
		if it.TotalQuantity <= 0 {
			it.TotalQuantity = DeriveTotalQuantity(it)
		}
		out[i] = it
	}
	return out
}

// PriceInfo is the slice of the drug master list the engine needs.
type PriceInfo struct {
	Price float64
	Unit  string
}

// PriceKey normalizes a drug name for case-insensitive lookup.
func PriceKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DrugCost sums totalQuantity × unit price over the lines. Unmatched drug
// names and non-positive quantities contribute nothing.
func DrugCost(items []Item, prices map[string]PriceInfo) float64 {
	var total float64
	for _, it := range items {
		info, ok := prices[PriceKey(it.DrugName)]
		if !ok {
			continue
		}
		if it.TotalQuantity > 0 {
			total += float64(it.TotalQuantity) * info.Price
		}
	}
	return total
}

// CapitalCost prices historical prescription snapshots, which may predate
// the slot-based schema or lack a usable totalQuantity. The fallback chain:
// stored quantity, container unit (one container), slot-formula recompute,
// legacy frequency×quantity×duration.
func CapitalCost(items []Item, prices map[string]PriceInfo) float64 {
	var total float64
	for _, it := range items {
		info, ok := prices[PriceKey(it.DrugName)]
		if !ok {
			continue
		}
		if it.TotalQuantity > 0 {
			total += float64(it.TotalQuantity) * info.Price
			continue
		}
		var qty float64
		switch {
		case IsContainerUnit(info.Unit):
			qty = 1
		case it.hasSlotFields():
			if sum := slotSum(it); it.Duration > 0 && sum > 0 {
				qty = sum * float64(it.Duration)
			}
		default:
			qty = legacyQuantity(it)
		}
		total += math.Ceil(qty) * info.Price
	}
	return total
}

// legacyQuantity is the compatibility shim for the retired
// frequency/quantity/duration schema.
func legacyQuantity(it Item) float64 {
	freq, err := strconv.Atoi(strings.TrimSpace(it.Frequency.String()))
	if err != nil || freq <= 0 {
		return 0
	}
	qty := ParseFraction(it.Quantity.String())
	if qty <= 0 || it.Duration <= 0 {
		return 0
	}
	return float64(freq) * qty * float64(it.Duration)
}

// InstructionText renders the localized, human-readable description of a
// prescription, one numbered line per item, as printed on the toa thuốc and
// pushed to the spreadsheet.
func InstructionText(items []Item) string {
	lines := make([]string, 0, len(items))
	for i, it := range items {
		usage := it.usageOrDefault()
		suffix := " lần"
		if IsCountable(usage) {
			suffix = " " + it.unitOrDefault()
		}
		var parts []string
		if it.Morning != "" {
			parts = append(parts, "sáng "+it.Morning.String()+suffix)
		}
		if it.Noon != "" {
			parts = append(parts, "trưa "+it.Noon.String()+suffix)
		}
		if it.Afternoon != "" {
			parts = append(parts, "chiều "+it.Afternoon.String()+suffix)
		}
		if it.Evening != "" {
			parts = append(parts, "tối "+it.Evening.String()+suffix)
		}
		instructions := usage
		if len(parts) > 0 {
			instructions = usage + " " + strings.Join(parts, ", ")
		}
		qty := "N/A"
		if it.TotalQuantity > 0 {
			qty = strconv.Itoa(it.TotalQuantity)
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s. (Tổng SL: %s)", i+1, it.DrugName, instructions, qty))
	}
	return strings.Join(lines, "\n")
}
