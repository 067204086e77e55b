package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/celltrack/celltrack-backend-go/internal/apperr"
	"github.com/celltrack/celltrack-backend-go/internal/models"
)

// Row is one normalized upload row after column mapping and type coercion
type Row struct {
	SubscriberID    string
	DeviceID        string
	Timestamp       time.Time
	TowerID         string
	Latitude        float64
	Longitude       float64
	CallDuration    *int
	CallType        string
	ConnectedNumber string
	DeviceInfo      string
}

// requiredColumns must all be present in the upload header
var requiredColumns = []string{"subscriber_id", "timestamp", "tower_id", "latitude", "longitude"}

// synonyms maps normalized header spellings to canonical column names.
// Operator exports disagree on naming; the canonical set is fixed.
var synonyms = map[string]string{
	"subscriber_id":    "subscriber_id",
	"mobile_number":    "subscriber_id",
	"msisdn":           "subscriber_id",
	"timestamp":        "timestamp",
	"date_time":        "timestamp",
	"tower_id":         "tower_id",
	"cell_id":          "tower_id",
	"latitude":         "latitude",
	"lat":              "latitude",
	"longitude":        "longitude",
	"lon":              "longitude",
	"lng":              "longitude",
	"device_id":        "device_id",
	"imei":             "device_id",
	"call_duration":    "call_duration",
	"duration":         "call_duration",
	"call_type":        "call_type",
	"connected_number": "connected_number",
	"b_party":          "connected_number",
	"device_info":      "device_info",
}

var spaceRE = regexp.MustCompile(`\s+`)

// norm lower-cases a header cell and collapses whitespace to underscores
func norm(s string) string {
	return spaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
}

// timestampLayouts lists the accepted timestamp formats, tried in order
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
}

// ParseFile reads an uploaded CSV or XLSX batch into normalized rows.
// Missing required columns or uncoercible cells reject the whole file with
// a validation error naming the offending columns.
func ParseFile(filename string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(r)
	case ".xlsx", ".xls":
		return parseXLSX(r)
	default:
		return nil, apperr.NewValidation("unsupported file type", filepath.Ext(filename))
	}
}

func parseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var table [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperr.NewValidation(fmt.Sprintf("malformed CSV: %v", err))
		}
		table = append(table, record)
	}

	return parseTable(table)
}

func parseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.NewValidation(fmt.Sprintf("malformed workbook: %v", err))
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, apperr.NewValidation("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperr.NewValidation(fmt.Sprintf("failed to read sheet %q: %v", sheet, err))
	}

	return parseTable(rows)
}

// parseTable maps the header, validates required columns, and coerces each
// data row
func parseTable(table [][]string) ([]Row, error) {
	if len(table) == 0 {
		return nil, apperr.NewValidation("file contains no rows")
	}

	columns := make(map[string]int)
	for i, cell := range table[0] {
		if canonical, ok := synonyms[norm(cell)]; ok {
			if _, taken := columns[canonical]; !taken {
				columns[canonical] = i
			}
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.NewValidation("missing required columns", missing...)
	}

	if len(table) == 1 {
		return nil, apperr.NewValidation("file contains no data rows")
	}

	rows := make([]Row, 0, len(table)-1)
	for i, record := range table[1:] {
		row, err := parseRow(record, columns, i+2)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseRow(record []string, columns map[string]int, line int) (Row, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var row Row
	row.SubscriberID = cell("subscriber_id")
	row.TowerID = cell("tower_id")
	if row.SubscriberID == "" || row.TowerID == "" {
		var fields []string
		if row.SubscriberID == "" {
			fields = append(fields, "subscriber_id")
		}
		if row.TowerID == "" {
			fields = append(fields, "tower_id")
		}
		return row, apperr.NewValidation(fmt.Sprintf("row %d has empty required fields", line), fields...)
	}

	ts, err := parseTimestamp(cell("timestamp"))
	if err != nil {
		return row, apperr.NewValidation(fmt.Sprintf("row %d: %v", line, err), "timestamp")
	}
	row.Timestamp = ts

	row.Latitude, err = strconv.ParseFloat(cell("latitude"), 64)
	if err != nil {
		return row, apperr.NewValidation(fmt.Sprintf("row %d has non-numeric latitude", line), "latitude")
	}
	row.Longitude, err = strconv.ParseFloat(cell("longitude"), 64)
	if err != nil {
		return row, apperr.NewValidation(fmt.Sprintf("row %d has non-numeric longitude", line), "longitude")
	}

	row.DeviceID = cell("device_id")
	row.ConnectedNumber = cell("connected_number")
	row.DeviceInfo = cell("device_info")

	if v := cell("call_duration"); v != "" {
		duration, err := strconv.Atoi(v)
		if err != nil || duration < 0 {
			return row, apperr.NewValidation(fmt.Sprintf("row %d has invalid call duration", line), "call_duration")
		}
		row.CallDuration = &duration
	}

	if v := strings.ToLower(cell("call_type")); v != "" {
		switch v {
		case models.CallIncoming, models.CallOutgoing, models.CallMissed:
			row.CallType = v
		default:
			return row, apperr.NewValidation(fmt.Sprintf("row %d has unknown call type %q", line, v), "call_type")
		}
	}

	return row, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
