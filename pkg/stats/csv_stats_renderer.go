package stats

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

type StatsRenderer interface {
	RenderYear(stats YearStats) (string, error)
}

type CsvStatsRendererImpl struct {
}

func NewCsvStatsRenderer() *CsvStatsRendererImpl {
	return &CsvStatsRendererImpl{}
}

// RenderYear writes one line per month with the hours of each service type, then a Total line.
func (t *CsvStatsRendererImpl) RenderYear(stats YearStats) (string, error) {
	typeNames := make([]string, 0, len(stats.ByType))
	for _, typeStats := range stats.ByType {
		typeNames = append(typeNames, typeStats.ServiceType)
	}

	header := make([]string, 0, len(typeNames)+4)
	header = append(header, "Month")
	header = append(header, typeNames...)
	header = append(header, "Hours", "Services", "Mileage")

	data := make([][]string, 0, len(stats.Months)+2)
	data = append(data, header)
	for _, month := range stats.Months {
		line := make([]string, 0, len(header))
		line = append(line, fmt.Sprintf("%04d-%02d", stats.Year, int(month.Month)))
		line = append(line, hoursByType(month.ByType, typeNames)...)
		line = append(line, month.Hours.StringFixed(2), strconv.Itoa(month.Services), month.Mileage.StringFixed(2))
		data = append(data, line)
	}

	total := make([]string, 0, len(header))
	total = append(total, "Total")
	total = append(total, hoursByType(stats.ByType, typeNames)...)
	total = append(total, stats.Hours.StringFixed(2), strconv.Itoa(stats.Services), stats.Mileage.StringFixed(2))
	data = append(data, total)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
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

// hoursByType expects byType sorted by service type.
func hoursByType(byType []ServiceTypeStats, typeNames []string) []string {
	cells := make([]string, 0, len(typeNames))
	for _, name := range typeNames {
		idx, found := slices.BinarySearchFunc(byType, name, func(s ServiceTypeStats, name string) int {
			return strings.Compare(s.ServiceType, name)
		})
		if found {
			cells = append(cells, byType[idx].Hours.StringFixed(2))
		} else {
			cells = append(cells, "0.00")
		}
	}
	return cells
}
