package time_log

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/homecare-coop/backoffice/internal/rest"
	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type TimeLogDTO struct {
	Id                 int             `json:"id"`
	ClientId           int             `json:"clientId"`
	StaffId            int             `json:"staffId"`
	ServiceDate        string          `json:"serviceDate,omitempty"`
	ScheduledStart     *time.Time      `json:"scheduledStart,omitempty"`
	ScheduledEnd       *time.Time      `json:"scheduledEnd,omitempty"`
	Hours              decimal.Decimal `json:"hours"`
	ServiceType        string          `json:"serviceType"`
	Mileage            decimal.Decimal `json:"mileage"`
	Notes              string          `json:"notes,omitempty"`
	ImportId           string          `json:"importId,omitempty"`
	ExternalIdentifier string          `json:"externalIdentifier,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func TimeLogToDTO(t TimeLog) TimeLogDTO {
	return TimeLogDTO{
		Id:                 t.Id,
		ClientId:           t.ClientId,
		StaffId:            t.StaffId,
		ServiceDate:        t.ServiceDate.Format(utils.DateLayout),
		ScheduledStart:     t.ScheduledStart,
		ScheduledEnd:       t.ScheduledEnd,
		Hours:              t.Hours,
		ServiceType:        t.ServiceType,
		Mileage:            t.Mileage,
		Notes:              t.Notes,
		ImportId:           t.ImportId,
		ExternalIdentifier: t.ExternalIdentifier,
	}
}

func DTOToTimeLog(dto TimeLogDTO) (TimeLog, error) {
	t := TimeLog{
		Id:                 dto.Id,
		ClientId:           dto.ClientId,
		StaffId:            dto.StaffId,
		ScheduledStart:     dto.ScheduledStart,
		ScheduledEnd:       dto.ScheduledEnd,
		Hours:              dto.Hours,
		ServiceType:        dto.ServiceType,
		Mileage:            dto.Mileage,
		Notes:              dto.Notes,
		ExternalIdentifier: dto.ExternalIdentifier,
	}
	if dto.ServiceDate != "" {
		serviceDate, err := utils.ParseDate(dto.ServiceDate)
		if err != nil {
			return TimeLog{}, err
		}
		t.ServiceDate = serviceDate
	}
	return t, nil
}

// ListTimeLogs godoc
// @Summary List time logs
// @Tags TimeLog
// @Produce json
// @Param staffId query int false "Staff ID"
// @Param clientId query int false "Client ID"
// @Param from query string false "First service date (YYYY-MM-DD)"
// @Param to query string false "Last service date (YYYY-MM-DD)"
// @Success 200 {array} TimeLogDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid filter"
// @Router /api/time-logs [get]
func (h *Handler) ListTimeLogs(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing time logs")
	filter, err := filterFromQuery(r)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	logs, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]TimeLogDTO, 0, len(logs))
	for _, t := range logs {
		dtos = append(dtos, TimeLogToDTO(t))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func filterFromQuery(r *http.Request) (Filter, error) {
	var filter Filter
	query := r.URL.Query()
	var err error
	if v := query.Get("staffId"); v != "" {
		if filter.StaffId, err = strconv.Atoi(v); err != nil {
			return Filter{}, err
		}
	}
	if v := query.Get("clientId"); v != "" {
		if filter.ClientId, err = strconv.Atoi(v); err != nil {
			return Filter{}, err
		}
	}
	if v := query.Get("from"); v != "" {
		if filter.From, err = utils.ParseDate(v); err != nil {
			return Filter{}, err
		}
	}
	if v := query.Get("to"); v != "" {
		if filter.To, err = utils.ParseDate(v); err != nil {
			return Filter{}, err
		}
	}
	return filter, nil
}

// GetTimeLog godoc
// @Summary Get a time log
// @Tags TimeLog
// @Produce json
// @Param timeLogId path int true "Time log ID"
// @Success 200 {object} TimeLogDTO
// @Failure 404 {object} rest.ErrorResponse "Time log not found"
// @Router /api/time-logs/{timeLogId} [get]
func (h *Handler) GetTimeLog(w http.ResponseWriter, r *http.Request) {
	id, ok := timeLogIdFromPath(w, r)
	if !ok {
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TimeLogToDTO(t))
}

// CreateTimeLog godoc
// @Summary Record a service
// @Description Hours are derived from the schedule when omitted
// @Tags TimeLog
// @Accept json
// @Produce json
// @Param timeLog body TimeLogDTO true "Time log"
// @Success 201 {object} TimeLogDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid time log"
// @Failure 409 {object} rest.ErrorResponse "Duplicate identifier"
// @Router /api/time-logs [post]
func (h *Handler) CreateTimeLog(w http.ResponseWriter, r *http.Request) {
	t, ok := decodeTimeLog(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), t)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, TimeLogToDTO(created))
}

// UpdateTimeLog godoc
// @Summary Update a time log
// @Tags TimeLog
// @Accept json
// @Produce json
// @Param timeLogId path int true "Time log ID"
// @Param timeLog body TimeLogDTO true "Time log"
// @Success 200 {object} TimeLogDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid time log"
// @Failure 404 {object} rest.ErrorResponse "Time log not found"
// @Failure 409 {object} rest.ErrorResponse "Time log belongs to a paid compensation"
// @Router /api/time-logs/{timeLogId} [put]
func (h *Handler) UpdateTimeLog(w http.ResponseWriter, r *http.Request) {
	id, ok := timeLogIdFromPath(w, r)
	if !ok {
		return
	}
	t, ok := decodeTimeLog(w, r)
	if !ok {
		return
	}
	t.Id = id
	updated, err := h.service.Update(r.Context(), t)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TimeLogToDTO(updated))
}

// DeleteTimeLog godoc
// @Summary Delete a time log
// @Tags TimeLog
// @Param timeLogId path int true "Time log ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Time log not found"
// @Failure 409 {object} rest.ErrorResponse "Time log belongs to a paid compensation"
// @Router /api/time-logs/{timeLogId} [delete]
func (h *Handler) DeleteTimeLog(w http.ResponseWriter, r *http.Request) {
	id, ok := timeLogIdFromPath(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeTimeLog(w http.ResponseWriter, r *http.Request) (TimeLog, bool) {
	var dto TimeLogDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return TimeLog{}, false
	}
	t, err := DTOToTimeLog(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid service date", err.Error())
		return TimeLog{}, false
	}
	return t, true
}

func timeLogIdFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["timeLogId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid time log id", err.Error())
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTimeLogDataInvalid), errors.Is(err, ErrUnknownReference):
		rest.WriteError(w, http.StatusBadRequest, "Invalid time log", err.Error())
	case errors.Is(err, ErrTimeLogNotFound):
		rest.WriteError(w, http.StatusNotFound, "Time log not found", "")
	case errors.Is(err, ErrDuplicateIdentifier):
		rest.WriteError(w, http.StatusConflict, "Duplicate identifier", err.Error())
	case errors.Is(err, ErrTimeLogLocked):
		rest.WriteError(w, http.StatusConflict, "Time log is locked", err.Error())
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
