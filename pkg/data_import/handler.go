package data_import

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/homecare-coop/backoffice/internal/rest"
	"github.com/homecare-coop/backoffice/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type RecordDTO struct {
	Id            string     `json:"id"`
	Filename      string     `json:"filename"`
	UploadedBy    *int       `json:"uploadedBy,omitempty"`
	Status        string     `json:"status"`
	TotalRows     int        `json:"totalRows"`
	ProcessedRows int        `json:"processedRows"`
	ErrorLog      []RowError `json:"errorLog"`
	SyncStatus    string     `json:"syncStatus"`
	UploadedAt    time.Time  `json:"uploadedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

type RowDTO struct {
	Id                 int               `json:"id"`
	RowNumber          int               `json:"rowNumber"`
	Identifier         string            `json:"identifier,omitempty"`
	ClientExternalId   string            `json:"clientExternalId,omitempty"`
	ClientFirstName    string            `json:"clientFirstName,omitempty"`
	ClientLastName     string            `json:"clientLastName,omitempty"`
	TaxCode            string            `json:"taxCode,omitempty"`
	OperatorExternalId string            `json:"operatorExternalId,omitempty"`
	OperatorFirstName  string            `json:"operatorFirstName,omitempty"`
	OperatorLastName   string            `json:"operatorLastName,omitempty"`
	ServiceType        string            `json:"serviceType,omitempty"`
	ScheduledStart     *time.Time        `json:"scheduledStart,omitempty"`
	ScheduledEnd       *time.Time        `json:"scheduledEnd,omitempty"`
	Duration           *decimal.Decimal  `json:"duration,omitempty"`
	Kilometers         *decimal.Decimal  `json:"kilometers,omitempty"`
	Value              *decimal.Decimal  `json:"value,omitempty"`
	Raw                map[string]string `json:"raw"`
}

// FailedImportResponse is the 422 body of an upload the file could not be read from.
type FailedImportResponse struct {
	Error   string    `json:"error"`
	Details string    `json:"details,omitempty"`
	Import  RecordDTO `json:"import"`
}

type Handler struct {
	service     Service
	maxUploadMB int
}

func NewHandler(service Service, maxUploadMB int) *Handler {
	return &Handler{service: service, maxUploadMB: maxUploadMB}
}

func RecordToDTO(rec Record) RecordDTO {
	return RecordDTO{
		Id:            rec.Id,
		Filename:      rec.Filename,
		UploadedBy:    rec.UploadedBy,
		Status:        string(rec.Status),
		TotalRows:     rec.TotalRows,
		ProcessedRows: rec.ProcessedRows,
		ErrorLog:      rec.ErrorLog,
		SyncStatus:    string(rec.SyncStatus),
		UploadedAt:    rec.UploadedAt,
		CompletedAt:   rec.CompletedAt,
	}
}

func RowToDTO(row Row) RowDTO {
	return RowDTO{
		Id:                 row.Id,
		RowNumber:          row.RowNumber,
		Identifier:         row.Identifier,
		ClientExternalId:   row.ClientExternalId,
		ClientFirstName:    row.ClientFirstName,
		ClientLastName:     row.ClientLastName,
		TaxCode:            row.TaxCode,
		OperatorExternalId: row.OperatorExternalId,
		OperatorFirstName:  row.OperatorFirstName,
		OperatorLastName:   row.OperatorLastName,
		ServiceType:        row.ServiceType,
		ScheduledStart:     row.ScheduledStart,
		ScheduledEnd:       row.ScheduledEnd,
		Duration:           row.Duration,
		Kilometers:         row.Kilometers,
		Value:              row.Value,
		Raw:                row.Raw,
	}
}

// Upload godoc
// @Summary Import a spreadsheet of services
// @Description Accepts .xlsx, .xls and .csv files in the multipart field "file"
// @Tags Data import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Spreadsheet"
// @Success 201 {object} RecordDTO
// @Failure 400 {object} rest.ErrorResponse "Missing or oversized file"
// @Failure 422 {object} FailedImportResponse "Unreadable file"
// @Router /api/data/imports [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := int64(h.maxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid upload", err.Error())
		return
	}
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Missing file", err.Error())
		return
	}
	defer file.Close()
	if fileHeader.Size > limit {
		rest.WriteError(w, http.StatusBadRequest, "File too large", "")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Could not read file", err.Error())
		return
	}
	log.Debugf("Received upload %s (%d bytes)", fileHeader.Filename, len(data))

	var uploadedBy *int
	if id, err := user.CurrentId(r.Context()); err == nil {
		uploadedBy = &id
	}
	rec, err := h.service.Import(r.Context(), fileHeader.Filename, data, uploadedBy)
	if err != nil {
		if errors.Is(err, ErrImportFailed) {
			rest.WriteJSON(w, http.StatusUnprocessableEntity, FailedImportResponse{
				Error:   "Import failed",
				Details: err.Error(),
				Import:  RecordToDTO(rec),
			})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, RecordToDTO(rec))
}

// ListImports godoc
// @Summary List imports, newest first
// @Tags Data import
// @Produce json
// @Success 200 {array} RecordDTO
// @Router /api/data/imports [get]
func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	result := make([]RecordDTO, 0, len(records))
	for _, rec := range records {
		result = append(result, RecordToDTO(rec))
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// GetImport godoc
// @Summary Get an import
// @Tags Data import
// @Produce json
// @Param importId path string true "Import ID"
// @Success 200 {object} RecordDTO
// @Failure 404 {object} rest.ErrorResponse "Import not found"
// @Router /api/data/imports/{importId} [get]
func (h *Handler) GetImport(w http.ResponseWriter, r *http.Request) {
	id, ok := ImportIdFromPath(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, RecordToDTO(rec))
}

// ListRows godoc
// @Summary List the rows read from an import
// @Tags Data import
// @Produce json
// @Param importId path string true "Import ID"
// @Success 200 {array} RowDTO
// @Failure 404 {object} rest.ErrorResponse "Import not found"
// @Router /api/data/imports/{importId}/rows [get]
func (h *Handler) ListRows(w http.ResponseWriter, r *http.Request) {
	id, ok := ImportIdFromPath(w, r)
	if !ok {
		return
	}
	rows, err := h.service.Rows(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	result := make([]RowDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, RowToDTO(row))
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// DeleteImport godoc
// @Summary Delete an import with its rows
// @Description Time logs created from the import are kept
// @Tags Data import
// @Param importId path string true "Import ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Import not found"
// @Router /api/data/imports/{importId} [delete]
func (h *Handler) DeleteImport(w http.ResponseWriter, r *http.Request) {
	id, ok := ImportIdFromPath(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportIdFromPath reads the importId route variable, writing a 400 when it is not a uuid.
func ImportIdFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(mux.Vars(r)["importId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid import id", err.Error())
		return "", false
	}
	return id.String(), true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrImportNotFound):
		rest.WriteError(w, http.StatusNotFound, "Import not found", "")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
