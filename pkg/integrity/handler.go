package integrity

import (
	"net/http"
	"strconv"

	"github.com/homecare-coop/backoffice/internal/rest"
	log "github.com/sirupsen/logrus"
)

type FailureCausesDTO struct {
	ImportErrors   int `json:"importErrors"`
	SyncErrors     int `json:"syncErrors"`
	StructuralGaps int `json:"structuralGaps"`
}

type DetailsDTO struct {
	UnmatchedExcel       []string            `json:"unmatchedExcel"`
	UnmatchedDb          []string            `json:"unmatchedDb"`
	DuplicateIdentifiers []string            `json:"duplicateIdentifiers"`
	MissingFields        map[string][]string `json:"missingFields"`
}

type ReportDTO struct {
	Year                  int              `json:"year"`
	Month                 int              `json:"month"`
	Period                string           `json:"period"`
	ExcelRecords          int              `json:"excelRecords"`
	DbRecords             int              `json:"dbRecords"`
	MatchedRecords        int              `json:"matchedRecords"`
	IntegrityPercentage   float64          `json:"integrityPercentage"`
	DuplicatesCount       int              `json:"duplicatesCount"`
	DuplicatesPercentage  float64          `json:"duplicatesPercentage"`
	MissingDataCount      int              `json:"missingDataCount"`
	MissingDataPercentage float64          `json:"missingDataPercentage"`
	FieldDiscrepancies    map[string]int   `json:"fieldDiscrepancies"`
	FailureCauses         FailureCausesDTO `json:"failureCauses"`
	Details               DetailsDTO       `json:"details"`
}

type YearSummaryDTO struct {
	Year             int     `json:"year"`
	Reports          int     `json:"reports"`
	ExcelRecords     int     `json:"excelRecords"`
	DbRecords        int     `json:"dbRecords"`
	MatchedRecords   int     `json:"matchedRecords"`
	AverageIntegrity float64 `json:"averageIntegrity"`
}

type SummaryDTO struct {
	Reports          int              `json:"reports"`
	AverageIntegrity float64          `json:"averageIntegrity"`
	ExcelRecords     int              `json:"excelRecords"`
	DbRecords        int              `json:"dbRecords"`
	MatchedRecords   int              `json:"matchedRecords"`
	Years            []YearSummaryDTO `json:"years"`
}

type ReportsDTO struct {
	Reports []ReportDTO `json:"reports"`
	Summary SummaryDTO  `json:"summary"`
}

type ImportPeriodDTO struct {
	Period          string   `json:"period"`
	Files           []string `json:"files"`
	ExpectedRecords int      `json:"expectedRecords"`
	ActualDbRecords int      `json:"actualDbRecords"`
	SyncRate        int      `json:"syncRate"`
	Status          string   `json:"status"`
}

type ImportYearDTO struct {
	Year    int               `json:"year"`
	Periods []ImportPeriodDTO `json:"periods"`
}

type Handler struct {
	service     Service
	csvRenderer Renderer
}

func NewHandler(service Service, csvRenderer Renderer) *Handler {
	return &Handler{service: service, csvRenderer: csvRenderer}
}

func reportToDTO(r Report) ReportDTO {
	return ReportDTO{
		Year:                  r.Year,
		Month:                 int(r.Month),
		Period:                r.Period(),
		ExcelRecords:          r.ExcelRecords,
		DbRecords:             r.DbRecords,
		MatchedRecords:        r.MatchedRecords,
		IntegrityPercentage:   r.IntegrityPercentage,
		DuplicatesCount:       r.DuplicatesCount,
		DuplicatesPercentage:  r.DuplicatesPercentage,
		MissingDataCount:      r.MissingDataCount,
		MissingDataPercentage: r.MissingDataPercentage,
		FieldDiscrepancies:    r.FieldDiscrepancies,
		FailureCauses: FailureCausesDTO{
			ImportErrors:   r.FailureCauses.ImportErrors,
			SyncErrors:     r.FailureCauses.SyncErrors,
			StructuralGaps: r.FailureCauses.StructuralGaps,
		},
		Details: DetailsDTO{
			UnmatchedExcel:       r.Details.UnmatchedExcel,
			UnmatchedDb:          r.Details.UnmatchedDb,
			DuplicateIdentifiers: r.Details.DuplicateIdentifiers,
			MissingFields:        r.Details.MissingFields,
		},
	}
}

func summaryToDTO(s Summary) SummaryDTO {
	years := make([]YearSummaryDTO, 0, len(s.Years))
	for _, y := range s.Years {
		years = append(years, YearSummaryDTO(y))
	}
	return SummaryDTO{
		Reports:          s.Reports,
		AverageIntegrity: s.AverageIntegrity,
		ExcelRecords:     s.ExcelRecords,
		DbRecords:        s.DbRecords,
		MatchedRecords:   s.MatchedRecords,
		Years:            years,
	}
}

// GetReports godoc
// @Summary Compare imported rows with time logs per month
// @Description Responds with CSV when the Accept header is text/csv
// @Tags Integrity
// @Produce json,text/csv
// @Param year query int false "Only this year"
// @Success 200 {object} ReportsDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid year"
// @Router /api/integrity/reports [get]
func (h *Handler) GetReports(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Accept") == "text/csv" {
		h.GetReportsCsv(w, r)
		return
	}
	reports, summary, ok := h.reports(w, r)
	if !ok {
		return
	}
	result := make([]ReportDTO, 0, len(reports))
	for _, report := range reports {
		result = append(result, reportToDTO(report))
	}
	rest.WriteJSON(w, http.StatusOK, ReportsDTO{Reports: result, Summary: summaryToDTO(summary)})
}

// GetReportsCsv godoc
// @Summary Monthly integrity reports as a CSV download
// @Tags Integrity
// @Produce text/csv
// @Param year query int false "Only this year"
// @Success 200 {string} string "CSV"
// @Failure 400 {object} rest.ErrorResponse "Invalid year"
// @Router /api/integrity/reports/csv [get]
func (h *Handler) GetReportsCsv(w http.ResponseWriter, r *http.Request) {
	reports, _, ok := h.reports(w, r)
	if !ok {
		return
	}
	csv, err := h.csvRenderer.RenderReports(reports)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="integrity_report.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		log.Errorf("failed to write csv response: %v", err)
	}
}

func (h *Handler) reports(w http.ResponseWriter, r *http.Request) ([]Report, Summary, bool) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1900 {
			rest.WriteError(w, http.StatusBadRequest, "Invalid year", raw)
			return nil, Summary{}, false
		}
		year = parsed
	}
	reports, summary, err := h.service.Reports(r.Context(), year)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, Summary{}, false
	}
	return reports, summary, true
}

// GetImportTable godoc
// @Summary Share of imported rows turned into time logs, per file period
// @Tags Integrity
// @Produce json
// @Success 200 {array} ImportYearDTO
// @Router /api/integrity/imports [get]
func (h *Handler) GetImportTable(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.ImportTable(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	result := make([]ImportYearDTO, 0, len(years))
	for _, y := range years {
		periods := make([]ImportPeriodDTO, 0, len(y.Periods))
		for _, p := range y.Periods {
			periods = append(periods, ImportPeriodDTO{
				Period:          p.Period,
				Files:           p.Files,
				ExpectedRecords: p.ExpectedRecords,
				ActualDbRecords: p.ActualDbRecords,
				SyncRate:        p.SyncRate,
				Status:          string(p.Status),
			})
		}
		result = append(result, ImportYearDTO{Year: y.Year, Periods: periods})
	}
	rest.WriteJSON(w, http.StatusOK, result)
}
