package transfer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"haoshi-console/internal/derive"
	"haoshi-console/internal/models"
)

// ErrNothingToExport is returned when the export would be empty.
var ErrNothingToExport = errors.New("no listings to export")

// BackupVersion is written into every backup envelope.
const BackupVersion = "2.0"

// ExportHeaders are the listing export columns.
var ExportHeaders = []string{
	"社區名稱", "建商", "完工年份", "總戶數", "坪數範圍",
	"總價萬", "總坪數", "車位坪數", "房屋坪數", "車位價格萬", "房屋單價萬坪",
	"樓層", "地址", "狀態", "格局", "備註",
	"建立者", "建立時間", "維護者", "維護時間",
}

// ExportRecords renders listings as export rows, joined with their
// community by name.
func ExportRecords(props []models.Property, communities []models.Community) [][]string {
	out := make([][]string, 0, len(props))
	for i := range props {
		p := &props[i]
		c := derive.FindCommunity(communities, p.CommunityName)
		if c == nil {
			c = &models.Community{}
		}

		unit := "0"
		if v, ok := derive.UnitPrice(p); ok {
			unit = derive.FormatNumber(v, 1)
		}

		out = append(out, []string{
			p.CommunityName,
			c.Builder,
			c.CompletionDate.String(),
			c.TotalUnits.String(),
			c.UnitAreaRange,
			numberOrZero(p.TotalPrice),
			numberOrZero(p.TotalPing),
			numberOrZero(p.ParkingPing),
			derive.FormatNumber(derive.HouseArea(p), 1),
			numberOrZero(p.ParkingPrice),
			unit,
			p.FloorInfo,
			p.Address,
			p.Status,
			p.Layout,
			p.Notes,
			p.Agent,
			p.CreatedAtSource,
			p.Maintainer,
			p.UpdatedAtSource,
		})
	}
	return out
}

func numberOrZero(n models.Numeric) string {
	if n.String() == "" {
		return "0"
	}
	return n.String()
}

// WriteCSV writes listings as UTF-8 CSV with a byte order mark so
// spreadsheet programs detect the encoding.
func WriteCSV(w io.Writer, props []models.Property, communities []models.Community) error {
	if len(props) == 0 {
		return ErrNothingToExport
	}

	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)
	if err := cw.Write(ExportHeaders); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(ExportRecords(props, communities)); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return tw.Close()
}

// WriteXLSX writes listings as a single-sheet workbook.
func WriteXLSX(w io.Writer, props []models.Property, communities []models.Community) error {
	if len(props) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "物件資料"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSheetRow(f, sheet, 1, ExportHeaders); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(ExportHeaders), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, rec := range ExportRecords(props, communities) {
		if err := writeSheetRow(f, sheet, i+2, rec); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// BackupData holds the collections of a backup.
type BackupData struct {
	Properties  []models.Property  `json:"properties"`
	Communities []models.Community `json:"communities"`
	Users       []models.User      `json:"users"`
}

// Backup is the full-system JSON backup envelope.
type Backup struct {
	ExportDate string     `json:"exportDate"`
	Version    string     `json:"version"`
	Data       BackupData `json:"data"`
}

// NewBackup builds a backup. Users are included only when includeUsers is
// set; otherwise the list is empty.
func NewBackup(props []models.Property, communities []models.Community, users []models.User, includeUsers bool, now time.Time) Backup {
	b := Backup{
		ExportDate: now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Version:    BackupVersion,
		Data: BackupData{
			Properties:  nonNil(props),
			Communities: nonNil(communities),
			Users:       []models.User{},
		},
	}
	if includeUsers {
		b.Data.Users = nonNil(users)
	}
	return b
}

// WriteJSON writes the backup indented by two spaces.
func (b Backup) WriteJSON(w io.Writer) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// File names of the three exports, dated in local time.
func CSVFileName(now time.Time) string    { return "物件資料_" + now.Format("20060102") + ".csv" }
func XLSXFileName(now time.Time) string   { return "物件資料_" + now.Format("20060102") + ".xlsx" }
func BackupFileName(now time.Time) string { return "系統備份_" + now.Format("20060102") + ".json" }
