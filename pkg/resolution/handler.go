package resolution

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/homecare-coop/backoffice/internal/rest"
	"github.com/homecare-coop/backoffice/pkg/data_import"
	"github.com/homecare-coop/backoffice/pkg/staff"
	log "github.com/sirupsen/logrus"
)

type ResolutionDTO struct {
	RowId       int    `json:"rowId"`
	RowNumber   int    `json:"rowNumber"`
	Identifier  string `json:"identifier,omitempty"`
	ClientId    *int   `json:"clientId"`
	ClientName  string `json:"clientName,omitempty"`
	ClientMatch string `json:"clientMatch"`
	StaffId     *int   `json:"staffId"`
	StaffName   string `json:"staffName,omitempty"`
	StaffMatch  string `json:"staffMatch"`
}

type SummaryDTO struct {
	TotalRows int            `json:"totalRows"`
	Resolved  int            `json:"resolved"`
	Clients   map[string]int `json:"clients"`
	Staff     map[string]int `json:"staff"`
}

type PreviewDTO struct {
	Rows    []ResolutionDTO `json:"rows"`
	Summary SummaryDTO      `json:"summary"`
}

type SyncRequestDTO struct {
	CreateMissing bool   `json:"createMissing"`
	StaffType     string `json:"staffType,omitempty"`
}

type SyncResultDTO struct {
	ImportId        string      `json:"importId"`
	TimeLogsCreated int         `json:"timeLogsCreated"`
	ClientsCreated  int         `json:"clientsCreated"`
	StaffCreated    int         `json:"staffCreated"`
	Skipped         int         `json:"skipped"`
	Errors          []SyncError `json:"errors"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func optionalId(id int) *int {
	if id == 0 {
		return nil
	}
	return &id
}

func resolutionToDTO(r Resolution) ResolutionDTO {
	return ResolutionDTO{
		RowId:       r.RowId,
		RowNumber:   r.RowNumber,
		Identifier:  r.Identifier,
		ClientId:    optionalId(r.ClientId),
		ClientName:  r.ClientName,
		ClientMatch: string(r.ClientMatch),
		StaffId:     optionalId(r.StaffId),
		StaffName:   r.StaffName,
		StaffMatch:  string(r.StaffMatch),
	}
}

func countsToDTO(counts map[MatchKind]int) map[string]int {
	result := map[string]int{}
	for _, kind := range []MatchKind{MatchIdentifier, MatchTaxCode, MatchName, MatchNone} {
		result[string(kind)] = counts[kind]
	}
	return result
}

// Preview godoc
// @Summary Show how the rows of an import match existing clients and staff
// @Tags Data import
// @Produce json
// @Param importId path string true "Import ID"
// @Success 200 {object} PreviewDTO
// @Failure 404 {object} rest.ErrorResponse "Import not found"
// @Router /api/data/imports/{importId}/resolution [get]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	importId, ok := data_import.ImportIdFromPath(w, r)
	if !ok {
		return
	}
	resolutions, summary, err := h.service.Preview(r.Context(), importId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rows := make([]ResolutionDTO, 0, len(resolutions))
	for _, res := range resolutions {
		rows = append(rows, resolutionToDTO(res))
	}
	rest.WriteJSON(w, http.StatusOK, PreviewDTO{
		Rows: rows,
		Summary: SummaryDTO{
			TotalRows: summary.TotalRows,
			Resolved:  summary.Resolved,
			Clients:   countsToDTO(summary.ClientsByKey),
			Staff:     countsToDTO(summary.StaffByKey),
		},
	})
}

// Sync godoc
// @Summary Create time logs from an import
// @Description Rows whose identifier already exists as a time log are skipped
// @Tags Data import
// @Accept json
// @Produce json
// @Param importId path string true "Import ID"
// @Param options body SyncRequestDTO false "Sync options"
// @Success 200 {object} SyncResultDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid options"
// @Failure 404 {object} rest.ErrorResponse "Import not found"
// @Failure 409 {object} rest.ErrorResponse "Import not completed"
// @Router /api/data/imports/{importId}/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	importId, ok := data_import.ImportIdFromPath(w, r)
	if !ok {
		return
	}
	var req SyncRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	staffType := staff.Type(req.StaffType)
	if staffType != "" && !staffType.Valid() {
		rest.WriteError(w, http.StatusBadRequest, "Invalid staff type", req.StaffType)
		return
	}
	log.Debugf("Syncing import %s (createMissing=%t)", importId, req.CreateMissing)

	result, err := h.service.Sync(r.Context(), importId, SyncOptions{CreateMissing: req.CreateMissing, StaffType: staffType})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, SyncResultDTO{
		ImportId:        result.ImportId,
		TimeLogsCreated: result.TimeLogsCreated,
		ClientsCreated:  result.ClientsCreated,
		StaffCreated:    result.StaffCreated,
		Skipped:         result.Skipped,
		Errors:          result.Errors,
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, data_import.ErrImportNotFound):
		rest.WriteError(w, http.StatusNotFound, "Import not found", "")
	case errors.Is(err, ErrImportNotCompleted):
		rest.WriteError(w, http.StatusConflict, "Import cannot be synchronized", err.Error())
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
