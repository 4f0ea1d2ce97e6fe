package models

// Drug is one entry of the clinic's drug master list. The name is the key
// (case-insensitive); prescription lines reference drugs by name only.
type Drug struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Usage string  `json:"usage,omitempty"`
	Unit  string  `json:"unit,omitempty"`
}

// Units the clinic dispenses in.
var Units = []string{"viên", "gói", "ống", "chai", "tuýp", "lọ"}

// SeedDrugs is the catalog a fresh install starts with.
var SeedDrugs = []Drug{
	{Name: "Paracetamol 500mg", Price: 500, Usage: "uống", Unit: "viên"},
	{Name: "Vitamin C 500mg", Price: 1000, Usage: "uống", Unit: "viên"},
	{Name: "Berberin", Price: 500, Usage: "uống", Unit: "lọ"},
	{Name: "Oresol", Price: 2000, Usage: "uống", Unit: "gói"},
	{Name: "Amoxicillin 500mg", Price: 1500, Usage: "uống", Unit: "viên"},
	{Name: "Natri clorid 0.9%", Price: 5000, Usage: "nhỏ mắt", Unit: "chai"},
}

// SeedDiagnoses is the starting diagnosis master list.
var SeedDiagnoses = []string{
	"Viêm họng cấp",
	"Viêm phế quản",
	"Tăng huyết áp",
	"Rối loạn tiêu hóa",
	"Cảm cúm",
	"Viêm dạ dày",
}
