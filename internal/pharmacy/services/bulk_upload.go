package services

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/phongkham/phongkham-backend/internal/pharmacy/models"
)

var ErrNoDrugData = errors.New("không tìm thấy dữ liệu thuốc hợp lệ")

// templateHeader is the column order of the upload workbook. The header row
// is skipped on parse; columns are positional, not looked up by name.
var templateHeader = []string{"Tên thuốc", "Đơn giá", "Cách dùng", "Đơn vị"}

var templateSamples = [][]interface{}{
	{"Paracetamol 500mg", 500, "uống", "viên"},
	{"Vitamin C 500mg", 1000, "uống", "viên"},
	{"Berberin", 500, "uống", "lọ"},
	{"Oresol", 2000, "uống", "gói"},
}

// ParseWorkbook reads a drug batch from an xlsx upload: first sheet, header
// row skipped, columns name/price/usage/unit. Rows without a name or a
// numeric price are dropped.
func ParseWorkbook(content []byte) ([]models.Drug, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("không đọc được file Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoDrugData
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("không đọc được file Excel: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("file Excel không có dữ liệu hoặc định dạng không đúng")
	}

	var drugs []models.Drug
	for _, row := range rows[1:] {
		drug, ok := drugFromFields(row)
		if ok {
			drugs = append(drugs, drug)
		}
	}
	if len(drugs) == 0 {
		return nil, ErrNoDrugData
	}
	return drugs, nil
}

// ParseDelimited reads the plain-text upload format, one
// "name,price[,usage[,unit]]" line per drug.
func ParseDelimited(text string) ([]models.Drug, error) {
	var drugs []models.Drug
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(strings.TrimSpace(line), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) < 2 {
			continue
		}
		drug, ok := drugFromFields(fields)
		if ok {
			drugs = append(drugs, drug)
		}
	}
	if len(drugs) == 0 {
		return nil, ErrNoDrugData
	}
	return drugs, nil
}

func drugFromFields(fields []string) (models.Drug, bool) {
	get := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}
	name := get(0)
	price, err := strconv.ParseFloat(get(1), 64)
	if name == "" || err != nil {
		return models.Drug{}, false
	}
	return withDefaults(models.Drug{
		Name:  name,
		Price: price,
		Usage: get(2),
		Unit:  get(3),
	}), true
}

// TemplateWorkbook builds the sample import workbook offered for download.
func TemplateWorkbook() ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Mau_Nhap_Thuoc"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	for col, title := range templateHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheetName, cell, title)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	for r, sample := range templateSamples {
		for c, v := range sample {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}
	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "B", "D", 15)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, err
	}
	f.Close()
	return buf.Bytes(), nil
}
