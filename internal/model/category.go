package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is the closed set of component kinds held by the catalog.
type Category int

const (
	CPU Category = iota
	Cooler
	Motherboard
	RAM
	GPU
	SSD
	HDD
	Case
	PSU
)

// SpecSegment lists alternate spec keys for one digest segment; the first
// non-empty value wins.
type SpecSegment []string

type categoryInfo struct {
	label      string // catalog storage label
	name       string
	filterable []string
	digest     []SpecSegment
}

// categoryTable is indexed by Category. Every variant has exactly one row.
var categoryTable = [...]categoryInfo{
	CPU: {
		label:      "CPU",
		name:       "CPU",
		filterable: []string{"manufacturer", "codename", "cpu_series", "cpu_class", "socket", "cores", "threads", "integrated_graphics"},
		digest:     []SpecSegment{{"cores"}, {"threads"}, {"socket"}},
	},
	Cooler: {
		label:      "쿨러",
		name:       "Cooler",
		filterable: []string{"manufacturer", "product_type", "cooling_method", "air_cooling_form", "cooler_height", "radiator_length", "fan_size", "fan_connector"},
	},
	Motherboard: {
		label:      "메인보드",
		name:       "Motherboard",
		filterable: []string{"manufacturer", "socket", "chipset", "form_factor", "memory_spec", "memory_slots", "vga_connection", "m2_slots", "wireless_lan"},
	},
	RAM: {
		label:      "RAM",
		name:       "RAM",
		filterable: []string{"manufacturer", "device_type", "product_class", "capacity", "ram_count", "clock_speed", "ram_timing", "heatsink_presence"},
		digest:     []SpecSegment{{"capacity"}, {"clock_speed"}, {"product_class"}},
	},
	GPU: {
		label:      "그래픽카드",
		name:       "GPU",
		filterable: []string{"manufacturer", "nvidia_chipset", "amd_chipset", "intel_chipset", "gpu_interface", "gpu_memory_capacity", "output_ports", "recommended_psu", "fan_count", "gpu_length"},
		digest:     []SpecSegment{{"nvidia_chipset", "amd_chipset"}, {"gpu_memory_capacity"}},
	},
	SSD: {
		label:      "SSD",
		name:       "SSD",
		filterable: []string{"manufacturer", "form_factor", "ssd_interface", "capacity", "memory_type", "ram_mounted", "sequential_read", "sequential_write"},
	},
	HDD: {
		label:      "HDD",
		name:       "HDD",
		filterable: []string{"manufacturer", "hdd_series", "disk_capacity", "rotation_speed", "buffer_capacity", "hdd_warranty"},
	},
	Case: {
		label:      "케이스",
		name:       "Case",
		filterable: []string{"manufacturer", "product_type", "case_size", "supported_board", "side_panel", "psu_length", "vga_length", "cpu_cooler_height_limit"},
	},
	PSU: {
		label:      "파워",
		name:       "PSU",
		filterable: []string{"manufacturer", "product_type", "rated_output", "eighty_plus_cert", "eta_cert", "cable_connection", "pcie_16pin"},
	},
}

// Categories returns every variant in declaration order.
func Categories() []Category {
	out := make([]Category, len(categoryTable))
	for i := range categoryTable {
		out[i] = Category(i)
	}
	return out
}

// MainCategories are the components a full build is assembled from.
func MainCategories() []Category {
	return []Category{CPU, Motherboard, RAM, GPU, SSD, PSU, Case}
}

// Valid reports whether c is one of the declared variants.
func (c Category) Valid() bool {
	return c >= 0 && int(c) < len(categoryTable)
}

// Label is the value stored in the catalog's category column.
func (c Category) Label() string {
	if !c.Valid() {
		return ""
	}
	return categoryTable[c].label
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryTable[c].name
}

// FilterableFields is the attribute allow-list for equality and membership filters.
func (c Category) FilterableFields() []string {
	if !c.Valid() {
		return nil
	}
	return append([]string(nil), categoryTable[c].filterable...)
}

// IsFilterable reports whether field is on the category's allow-list.
func (c Category) IsFilterable(field string) bool {
	if !c.Valid() {
		return false
	}
	for _, f := range categoryTable[c].filterable {
		if f == field {
			return true
		}
	}
	return false
}

// DigestProjection is the ordered spec projection used for summaries. Nil
// means the category has no projection.
func (c Category) DigestProjection() []SpecSegment {
	if !c.Valid() {
		return nil
	}
	return categoryTable[c].digest
}

// ParseCategory accepts a storage label or an English name.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for i, info := range categoryTable {
		if s == info.label || strings.EqualFold(s, info.name) {
			return Category(i), true
		}
	}
	return 0, false
}

// MarshalJSON writes the storage label.
func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("model: invalid category %d", int(c))
	}
	return json.Marshal(c.Label())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseCategory(s)
	if !ok {
		return fmt.Errorf("model: unknown category %q", s)
	}
	*c = parsed
	return nil
}
