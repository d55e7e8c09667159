package data_import

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCsv = "\xef\xbb\xbfIdentificativo;ID. assistito;Nome assistito;Cognome assistito;Codice fiscale;Operatore;Tipo prestazione;Inizio programmato;Fine programmata;Durata;Km;Valore\n" +
	"A-1;C10;Maria;Rossi;rssmra50a41h501x;Luca Bianchi;Assistenza domiciliare;05/03/2024 08:30;05/03/2024 10:00;1:30;12,5;€ 37,50\n" +
	";;;;;;;;;;;\n" +
	"A-2;C11;Giulia;Verdi;;Luca Bianchi;Assistenza domiciliare;domani;;2;;\n"

func TestBuildRows_Csv(t *testing.T) {
	loc := rome(t)
	table, err := readTable("marzo.csv", []byte(sampleCsv))
	require.NoError(t, err)

	rows, total, rowErrors, err := buildRows(table, loc)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 2, first.RowNumber)
	assert.Equal(t, "A-1", first.Identifier)
	assert.Equal(t, "C10", first.ClientExternalId)
	assert.Equal(t, "Maria", first.ClientFirstName)
	assert.Equal(t, "Rossi", first.ClientLastName)
	assert.Equal(t, "RSSMRA50A41H501X", first.TaxCode)
	assert.Equal(t, "Luca", first.OperatorFirstName)
	assert.Equal(t, "Bianchi", first.OperatorLastName)
	require.NotNil(t, first.ScheduledStart)
	assert.True(t, time.Date(2024, 3, 5, 8, 30, 0, 0, loc).Equal(*first.ScheduledStart))
	assert.Equal(t, "1.5", first.Duration.String())
	assert.Equal(t, "12.5", first.Kilometers.String())
	assert.Equal(t, "37.5", first.Value.String())
	assert.Equal(t, "Rossi", first.Raw["Cognome assistito"])

	second := rows[1]
	assert.Equal(t, 4, second.RowNumber)
	assert.Nil(t, second.ScheduledStart)
	assert.Nil(t, second.Kilometers)

	require.Len(t, rowErrors, 1)
	assert.Equal(t, 4, rowErrors[0].Row)
	assert.Equal(t, "Inizio programmato", rowErrors[0].Column)
}

func TestBuildRows_RecordedStartFallback(t *testing.T) {
	table := [][]string{
		{"Identifier", "Scheduled Start", "Recorded Start"},
		{"X", "", "2024-03-05 09:00"},
	}
	rows, _, rowErrors, err := buildRows(table, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 1)
	assert.Equal(t, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), *rows[0].ScheduledStart)
}

func TestBuildRows_TotalCountsBlankLines(t *testing.T) {
	table := [][]string{
		{"", ""},
		{"Identifier", "Duration"},
		{"A", "1"},
		{"", " "},
		{"B", "2"},
	}
	rows, total, rowErrors, err := buildRows(table, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	assert.Equal(t, 3, total)
	require.Len(t, rows, 2)
	assert.Equal(t, 5, rows[1].RowNumber)
}

func TestBuildRows_NoHeader(t *testing.T) {
	_, _, _, err := buildRows([][]string{{"", ""}}, time.UTC)
	assert.ErrorIs(t, err, ErrNoHeader)

	_, _, _, err = buildRows([][]string{{"foo", "bar"}, {"1", "2"}}, time.UTC)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadTable_Xlsx(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Identifier", "Client Name", "Scheduled Start", "Duration"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"B-7", "Anna De Luca", 45356.5, 2}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := readTable("export.XLSX", buf.Bytes())
	require.NoError(t, err)
	rows, _, rowErrors, err := buildRows(table, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 1)
	assert.Equal(t, "Anna", rows[0].ClientFirstName)
	assert.Equal(t, "De Luca", rows[0].ClientLastName)
	assert.Equal(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), *rows[0].ScheduledStart)
	assert.Equal(t, "2", rows[0].Duration.String())
}

func TestReadTable_Unsupported(t *testing.T) {
	_, err := readTable("notes.pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestReadCsv_CommaSeparated(t *testing.T) {
	table, err := readCsv([]byte("Identifier,Value\nA,\"1,5\"\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Identifier", "Value"}, {"A", "1,5"}}, table)
}
