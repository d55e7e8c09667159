package data_import

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNoHeader = errors.New("file has no header row with recognised columns")

// buildRows turns a table into import rows. The first non-empty line is the header; blank lines are skipped
// but counted in total, the number of lines after the header.
// Cells that cannot be parsed are reported and the row is kept with the field empty.
func buildRows(table [][]string, loc *time.Location) (rows []Row, total int, rowErrors []RowError, err error) {
	headerAt := -1
	for i, cells := range table {
		if !isBlank(cells) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, 0, nil, ErrNoHeader
	}
	header := table[headerAt]
	columns := mapHeader(header)
	if len(columns) == 0 {
		return nil, 0, nil, ErrNoHeader
	}

	total = len(table) - headerAt - 1
	rows = make([]Row, 0, total)
	rowErrors = make([]RowError, 0)
	for i := headerAt + 1; i < len(table); i++ {
		cells := table[i]
		if isBlank(cells) {
			continue
		}
		p := rowParser{line: i + 1, header: header, cells: cells, columns: columns, loc: loc}
		rows = append(rows, p.parse())
		rowErrors = append(rowErrors, p.errors...)
	}
	return rows, total, rowErrors, nil
}

type rowParser struct {
	line    int
	header  []string
	cells   []string
	columns map[field]int
	loc     *time.Location
	errors  []RowError
}

func (p *rowParser) get(f field) string {
	idx, ok := p.columns[f]
	if !ok || idx >= len(p.cells) {
		return ""
	}
	return strings.TrimSpace(p.cells[idx])
}

func (p *rowParser) fail(f field, err error) {
	p.errors = append(p.errors, RowError{Row: p.line, Column: p.header[p.columns[f]], Message: err.Error()})
}

// firstOf returns the first of the fields holding a value.
func (p *rowParser) firstOf(fields ...field) (field, string) {
	for _, f := range fields {
		if v := p.get(f); v != "" {
			return f, v
		}
	}
	return fields[0], ""
}

func (p *rowParser) dateTime(fields ...field) *time.Time {
	f, value := p.firstOf(fields...)
	t, err := parseDateTime(value, p.loc)
	if err != nil {
		p.fail(f, err)
		return nil
	}
	return t
}

func (p *rowParser) number(f field, parse func(string) (*decimal.Decimal, error)) *decimal.Decimal {
	d, err := parse(p.get(f))
	if err != nil {
		p.fail(f, err)
		return nil
	}
	return d
}

func (p *rowParser) parse() Row {
	row := Row{
		RowNumber:          p.line,
		Identifier:         p.get(fieldIdentifier),
		ClientExternalId:   p.get(fieldClientExternalId),
		ClientFirstName:    p.get(fieldClientFirstName),
		ClientLastName:     p.get(fieldClientLastName),
		TaxCode:            strings.ToUpper(p.get(fieldTaxCode)),
		OperatorExternalId: p.get(fieldOperatorExternalId),
		OperatorFirstName:  p.get(fieldOperatorFirstName),
		OperatorLastName:   p.get(fieldOperatorLastName),
		ServiceType:        p.get(fieldServiceType),
		Raw:                map[string]string{},
	}
	if row.ClientFirstName == "" && row.ClientLastName == "" {
		row.ClientFirstName, row.ClientLastName = splitName(p.get(fieldClientName))
	}
	if row.OperatorFirstName == "" && row.OperatorLastName == "" {
		row.OperatorFirstName, row.OperatorLastName = splitName(p.get(fieldOperatorName))
	}
	row.ScheduledStart = p.dateTime(fieldScheduledStart, fieldRecordedStart)
	row.ScheduledEnd = p.dateTime(fieldScheduledEnd, fieldRecordedEnd)
	row.Duration = p.number(fieldDuration, parseHours)
	row.Kilometers = p.number(fieldKilometers, parseNumber)
	row.Value = p.number(fieldValue, parseNumber)

	for i, h := range p.header {
		h = strings.TrimSpace(h)
		if h == "" || i >= len(p.cells) {
			continue
		}
		if v := strings.TrimSpace(p.cells[i]); v != "" {
			row.Raw[h] = v
		}
	}
	return row
}
