package integrity

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type Service interface {
	// Reports compares import rows with time logs month by month. A zero year includes every year.
	Reports(ctx context.Context, year int) ([]Report, Summary, error)
	ImportTable(ctx context.Context) ([]ImportYear, error)
}

type ServiceImpl struct {
	repo     Repository
	location *time.Location
}

func NewService(repo Repository, location *time.Location) *ServiceImpl {
	return &ServiceImpl{repo: repo, location: location}
}

func (s *ServiceImpl) Reports(ctx context.Context, year int) ([]Report, Summary, error) {
	rows, err := s.repo.ImportedRows(ctx)
	if err != nil {
		return nil, Summary{}, err
	}
	logs, err := s.repo.LoggedServices(ctx)
	if err != nil {
		return nil, Summary{}, err
	}
	reports := BuildReports(rows, logs, s.location)
	if year != 0 {
		filtered := make([]Report, 0, len(reports))
		for _, r := range reports {
			if r.Year == year {
				filtered = append(filtered, r)
			}
		}
		reports = filtered
	}
	summary := Summarize(reports)
	log.Debugf("Integrity check over %d rows and %d time logs: %d reports, average %.2f%%",
		len(rows), len(logs), summary.Reports, summary.AverageIntegrity)
	return reports, summary, nil
}

func (s *ServiceImpl) ImportTable(ctx context.Context) ([]ImportYear, error) {
	counts, err := s.repo.ImportCounts(ctx)
	if err != nil {
		return nil, err
	}
	return BuildImportTable(counts, s.location), nil
}
