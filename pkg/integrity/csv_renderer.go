package integrity

import (
	"bytes"
	"encoding/csv"
	"strconv"

	log "github.com/sirupsen/logrus"
)

type Renderer interface {
	RenderReports(reports []Report) (string, error)
}

type CsvRendererImpl struct {
}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

var csvHeader = []string{
	"Year", "Period", "Excel_Records", "DB_Records", "Matched", "Integrity_%", "Duplicates_%", "Missing_Data_%",
	"Import_Errors", "Sync_Errors", "Structural_Gaps",
}

func (r *CsvRendererImpl) RenderReports(reports []Report) (string, error) {
	data := make([][]string, 0, len(reports)+1)
	data = append(data, csvHeader)
	for _, report := range reports {
		data = append(data, []string{
			strconv.Itoa(report.Year),
			report.Period(),
			strconv.Itoa(report.ExcelRecords),
			strconv.Itoa(report.DbRecords),
			strconv.Itoa(report.MatchedRecords),
			formatPercent(report.IntegrityPercentage),
			formatPercent(report.DuplicatesPercentage),
			formatPercent(report.MissingDataPercentage),
			strconv.Itoa(report.FailureCauses.ImportErrors),
			strconv.Itoa(report.FailureCauses.SyncErrors),
			strconv.Itoa(report.FailureCauses.StructuralGaps),
		})
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
