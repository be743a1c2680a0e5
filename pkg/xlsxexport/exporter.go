// Package xlsxexport renders bound data into a workbook laid out by a YAML
// template. Sheets are written with excelize stream writers.
package xlsxexport

import (
	"fmt"
	"io"
	"reflect"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"
)

// Formatter turns a field value into a cell value.
type Formatter func(interface{}) interface{}

// Exporter binds data to the sections of a template.
type Exporter struct {
	template   *ReportTemplate
	data       map[string]interface{}
	formatters map[string]Formatter
}

// NewFromYAML parses the layout. The "date" formatter is registered by default.
func NewFromYAML(yamlConfig string) (*Exporter, error) {
	tmpl, err := ParseTemplate(yamlConfig)
	if err != nil {
		return nil, err
	}
	e := &Exporter{
		template:   tmpl,
		data:       make(map[string]interface{}),
		formatters: make(map[string]Formatter),
	}
	e.RegisterFormatter("date", FormatDate)
	return e, nil
}

// BindSectionData binds a slice (or a single struct) to a section ID.
func (e *Exporter) BindSectionData(id string, data interface{}) *Exporter {
	e.data[id] = data
	return e
}

// RegisterFormatter registers a formatter referenced by name in the YAML.
func (e *Exporter) RegisterFormatter(name string, f Formatter) *Exporter {
	e.formatters[name] = f
	return e
}

// FormatDate renders civil dates as YYYY-MM-DD and a nil date as empty.
func FormatDate(v interface{}) interface{} {
	switch d := v.(type) {
	case civil.Date:
		return d.String()
	case *civil.Date:
		if d == nil {
			return ""
		}
		return d.String()
	}
	return v
}

// Build renders every sheet into a new file. The caller closes it.
func (e *Exporter) Build() (*excelize.File, error) {
	f := excelize.NewFile()
	for i, sheet := range e.template.Sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, err
		}
		if err := e.renderSheet(f, sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
	}
	return f, nil
}

// ToWriter exports the workbook directly to a writer.
func (e *Exporter) ToWriter(w io.Writer) error {
	f, err := e.Build()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func (e *Exporter) renderSheet(f *excelize.File, sheet SheetTemplate) error {
	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return err
	}

	// Column widths must be set before any row is written.
	widths := map[int]float64{}
	for _, sec := range sheet.Sections {
		for i, col := range sec.Columns {
			if col.Width > widths[i+1] {
				widths[i+1] = col.Width
			}
		}
	}
	for col, width := range widths {
		if err := sw.SetColWidth(col, col, width); err != nil {
			return err
		}
	}

	row := 1
	for _, sec := range sheet.Sections {
		next, err := e.renderSection(f, sw, sec, row)
		if err != nil {
			return fmt.Errorf("section %q: %w", sec.ID, err)
		}
		row = next + 1
	}
	return sw.Flush()
}

// renderSection writes one section starting at row and returns the next free row.
func (e *Exporter) renderSection(f *excelize.File, sw *excelize.StreamWriter, sec SectionConfig, row int) (int, error) {
	titleStyle, err := createStyle(f, orDefault(sec.TitleStyle, defaultTitleStyle))
	if err != nil {
		return row, err
	}
	headerStyle, err := createStyle(f, orDefault(sec.HeaderStyle, defaultHeaderStyle))
	if err != nil {
		return row, err
	}
	dataStyle, err := createStyle(f, sec.DataStyle)
	if err != nil {
		return row, err
	}

	if sec.Title != "" {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := sw.SetRow(cell, []interface{}{excelize.Cell{Value: sec.Title, StyleID: titleStyle}}); err != nil {
			return row, err
		}
		row++
	}

	if sec.ShowHeader {
		cells := make([]interface{}, len(sec.Columns))
		for i, col := range sec.Columns {
			header := col.Header
			if header == "" {
				header = col.FieldName
			}
			cells[i] = excelize.Cell{Value: header, StyleID: headerStyle}
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := sw.SetRow(cell, cells); err != nil {
			return row, err
		}
		row++
	}

	items := rows(e.data[sec.ID])
	for _, item := range items {
		cells := make([]interface{}, len(sec.Columns))
		for i, col := range sec.Columns {
			v := extractValue(item, col.FieldName)
			if col.FormatterName != "" {
				fn, ok := e.formatters[col.FormatterName]
				if !ok {
					return row, fmt.Errorf("unknown formatter %q", col.FormatterName)
				}
				v = fn(v)
			}
			cells[i] = excelize.Cell{Value: v, StyleID: dataStyle}
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := sw.SetRow(cell, cells); err != nil {
			return row, err
		}
		row++
	}
	return row, nil
}

func orDefault(tmpl *StyleTemplate, def func() *StyleTemplate) *StyleTemplate {
	if tmpl != nil {
		return tmpl
	}
	return def()
}

// rows normalises bound data into a list of struct or map values.
func rows(data interface{}) []reflect.Value {
	if data == nil {
		return nil
	}
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []reflect.Value{v}
	}
	out := make([]reflect.Value, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		for item.Kind() == reflect.Ptr || item.Kind() == reflect.Interface {
			if item.IsNil() {
				break
			}
			item = item.Elem()
		}
		out = append(out, item)
	}
	return out
}

func extractValue(item reflect.Value, fieldName string) interface{} {
	switch item.Kind() {
	case reflect.Struct:
		f := item.FieldByName(fieldName)
		if f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	case reflect.Map:
		val := item.MapIndex(reflect.ValueOf(fieldName))
		if val.IsValid() {
			return val.Interface()
		}
	}
	return ""
}
