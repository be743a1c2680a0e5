package xlsxexport

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// ReportTemplate represents the YAML structure.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate represents a sheet in the YAML. Sections are stacked top to
// bottom with one blank row between them.
type SheetTemplate struct {
	Name     string          `yaml:"name"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig defines a section of data in a sheet.
type SectionConfig struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	ShowHeader  bool           `yaml:"show_header"`
	TitleStyle  *StyleTemplate `yaml:"title_style"`
	HeaderStyle *StyleTemplate `yaml:"header_style"`
	DataStyle   *StyleTemplate `yaml:"data_style"`
	Columns     []ColumnConfig `yaml:"columns"`
}

// ColumnConfig defines a column in a section.
type ColumnConfig struct {
	FieldName     string  `yaml:"field_name"` // Struct field name or map key
	Header        string  `yaml:"header"`
	Width         float64 `yaml:"width"`
	FormatterName string  `yaml:"formatter"`
}

// StyleTemplate defines basic styling.
type StyleTemplate struct {
	Font      *FontTemplate      `yaml:"font"`
	Fill      *FillTemplate      `yaml:"fill"`
	Alignment *AlignmentTemplate `yaml:"alignment"`
}

type AlignmentTemplate struct {
	Horizontal string `yaml:"horizontal"`
	Vertical   string `yaml:"vertical"`
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"` // Hex color
}

type FillTemplate struct {
	Color string `yaml:"color"` // Hex color
}

// ParseTemplate decodes and checks a YAML layout.
func ParseTemplate(yamlConfig string) (*ReportTemplate, error) {
	if strings.TrimSpace(yamlConfig) == "" {
		return nil, fmt.Errorf("yaml config is empty")
	}
	var tmpl ReportTemplate
	if err := yaml.Unmarshal([]byte(yamlConfig), &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(tmpl.Sheets) == 0 {
		return nil, fmt.Errorf("template has no sheets")
	}
	seen := map[string]bool{}
	for _, sheet := range tmpl.Sheets {
		if sheet.Name == "" {
			return nil, fmt.Errorf("sheet without a name")
		}
		for _, sec := range sheet.Sections {
			if sec.ID == "" {
				return nil, fmt.Errorf("sheet %q: section without an id", sheet.Name)
			}
			if seen[sec.ID] {
				return nil, fmt.Errorf("duplicate section id %q", sec.ID)
			}
			seen[sec.ID] = true
		}
	}
	return &tmpl, nil
}

func defaultHeaderStyle() *StyleTemplate {
	return &StyleTemplate{
		Font: &FontTemplate{Bold: true},
		Fill: &FillTemplate{Color: "E0E0E0"},
	}
}

func defaultTitleStyle() *StyleTemplate {
	return &StyleTemplate{Font: &FontTemplate{Bold: true}}
}

func createStyle(f *excelize.File, tmpl *StyleTemplate) (int, error) {
	if tmpl == nil {
		return 0, nil
	}

	style := &excelize.Style{}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
		}
	}
	if tmpl.Fill != nil {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	if tmpl.Alignment != nil {
		style.Alignment = &excelize.Alignment{
			Horizontal: tmpl.Alignment.Horizontal,
			Vertical:   tmpl.Alignment.Vertical,
		}
	}
	return f.NewStyle(style)
}
