package service

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/photo-platform/internal/apperr"
	"github.com/iliyamo/photo-platform/internal/model"
)

// ExportFormat is one of csv, json, xlsx.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
	ExportXLSX ExportFormat = "xlsx"
)

// ParseExportFormat validates a format path parameter.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(s); f {
	case ExportCSV, ExportJSON, ExportXLSX:
		return f, nil
	}
	return "", apperr.Validation("invalid_format", "format must be one of csv, json, xlsx")
}

// ContentType is the response media type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportCSV:
		return "text/csv; charset=utf-8"
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Filename is the attachment name for an export taken at now.
func (f ExportFormat) Filename(now time.Time) string {
	return "submissions_export_" + now.UTC().Format("20060102_150405") + "." + string(f)
}

var exportHeader = []string{
	"ID", "User ID", "Name", "Age", "Gender", "Location", "Country", "Description",
	"Photo Filename", "Photo Size (bytes)", "Classification Status",
	"Classification Result", "Classification Confidence", "Created At", "Classified At",
}

func exportRow(s model.Submission) []string {
	var desc, label, conf, classified string
	if s.Description != nil {
		desc = *s.Description
	}
	if top, ok := s.ClassificationResults.Top(); ok {
		label = top.Label
		conf = strconv.FormatFloat(top.Confidence, 'f', -1, 64)
	}
	if s.ClassifiedAt != nil {
		classified = s.ClassifiedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		s.ID, s.UserID, s.Name, strconv.Itoa(s.Age), s.Gender, s.Location, s.Country, desc,
		s.PhotoFilename, strconv.FormatInt(s.PhotoSize, 10), string(s.ClassificationStatus),
		label, conf, s.CreatedAt.UTC().Format(time.RFC3339), classified,
	}
}

type exporter interface {
	Write(model.Submission) error
	Close() error
}

func newExporter(f ExportFormat, w io.Writer) (exporter, error) {
	switch f {
	case ExportCSV:
		e := &csvExporter{w: csv.NewWriter(w)}
		return e, e.w.Write(exportHeader)
	case ExportJSON:
		return &jsonExporter{w: w}, nil
	case ExportXLSX:
		return newXLSXExporter(w)
	}
	return nil, apperr.Validation("invalid_format", "format must be one of csv, json, xlsx")
}

type csvExporter struct{ w *csv.Writer }

func (e *csvExporter) Write(s model.Submission) error {
	if err := e.w.Write(exportRow(s)); err != nil {
		return err
	}
	e.w.Flush()
	return e.w.Error()
}

func (e *csvExporter) Close() error {
	e.w.Flush()
	return e.w.Error()
}

// jsonExporter writes a JSON array one element at a time.
type jsonExporter struct {
	w     io.Writer
	count int
}

func (e *jsonExporter) Write(s model.Submission) error {
	sep := ","
	if e.count == 0 {
		sep = "["
	}
	if _, err := io.WriteString(e.w, sep); err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	e.count++
	_, err = e.w.Write(b)
	return err
}

func (e *jsonExporter) Close() error {
	end := "]"
	if e.count == 0 {
		end = "[]"
	}
	_, err := io.WriteString(e.w, end+"\n")
	return err
}

// xlsxExporter streams rows into the sheet; the workbook itself is a zip
// archive and is written to w on Close.
type xlsxExporter struct {
	w    io.Writer
	file *excelize.File
	sw   *excelize.StreamWriter
	row  int
}

const xlsxSheet = "Sheet1"

func newXLSXExporter(w io.Writer) (*xlsxExporter, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	e := &xlsxExporter{w: w, file: f, sw: sw, row: 1}
	if err := e.setRow(exportHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	return e, nil
}

func (e *xlsxExporter) setRow(values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, e.row)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	e.row++
	return e.sw.SetRow(cell, row)
}

func (e *xlsxExporter) Write(s model.Submission) error {
	return e.setRow(exportRow(s))
}

func (e *xlsxExporter) Close() error {
	defer e.file.Close()
	if err := e.sw.Flush(); err != nil {
		return err
	}
	return e.file.Write(e.w)
}
