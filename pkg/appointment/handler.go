package appointment

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/homecare-coop/backoffice/internal/rest"
	log "github.com/sirupsen/logrus"
)

type AppointmentDTO struct {
	Id          string    `json:"id"`
	ClientId    int       `json:"clientId"`
	StaffId     *int      `json:"staffId,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	ServiceType string    `json:"serviceType"`
	Notes       string    `json:"notes,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func appointmentToDTO(a Appointment) AppointmentDTO {
	return AppointmentDTO(a)
}

func dtoToAppointment(dto AppointmentDTO) Appointment {
	return Appointment(dto)
}

// ListAppointments godoc
// @Summary List appointments overlapping a period
// @Tags Appointment
// @Produce json
// @Param from query string true "Period start (RFC3339)"
// @Param to query string true "Period end (RFC3339)"
// @Success 200 {array} AppointmentDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid period"
// @Router /api/appointments [get]
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from (date) format", "'from' must be in RFC3339 format")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to (date) format", "'to' must be in RFC3339 format")
		return
	}

	appointments, err := h.service.List(r.Context(), from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]AppointmentDTO, 0, len(appointments))
	for _, a := range appointments {
		dtos = append(dtos, appointmentToDTO(a))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// GetAppointment godoc
// @Summary Get an appointment
// @Tags Appointment
// @Produce json
// @Param appointmentId path string true "Appointment ID"
// @Success 200 {object} AppointmentDTO
// @Failure 404 {object} rest.ErrorResponse "Appointment not found"
// @Router /api/appointments/{appointmentId} [get]
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentIdFromPath(w, r)
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, appointmentToDTO(a))
}

// CreateAppointment godoc
// @Summary Create an appointment
// @Tags Appointment
// @Accept json
// @Produce json
// @Param appointment body AppointmentDTO true "Appointment"
// @Success 201 {object} AppointmentDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid appointment"
// @Router /api/appointments [post]
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating appointment")
	var dto AppointmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), dtoToAppointment(dto))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, appointmentToDTO(created))
}

// UpdateAppointment godoc
// @Summary Update an appointment
// @Tags Appointment
// @Accept json
// @Produce json
// @Param appointmentId path string true "Appointment ID"
// @Param appointment body AppointmentDTO true "Appointment"
// @Success 200 {object} AppointmentDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid appointment"
// @Failure 404 {object} rest.ErrorResponse "Appointment not found"
// @Router /api/appointments/{appointmentId} [put]
func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentIdFromPath(w, r)
	if !ok {
		return
	}
	var dto AppointmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	a := dtoToAppointment(dto)
	a.Id = id
	updated, err := h.service.Update(r.Context(), a)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, appointmentToDTO(updated))
}

// DeleteAppointment godoc
// @Summary Delete an appointment
// @Tags Appointment
// @Param appointmentId path string true "Appointment ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Appointment not found"
// @Router /api/appointments/{appointmentId} [delete]
func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentIdFromPath(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func appointmentIdFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(mux.Vars(r)["appointmentId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid appointment id", err.Error())
		return "", false
	}
	return id.String(), true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAppointmentDataInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid appointment data", err.Error())
	case errors.Is(err, ErrUnknownReference):
		rest.WriteError(w, http.StatusBadRequest, "Unknown client or staff member", err.Error())
	case errors.Is(err, ErrAppointmentNotFound):
		rest.WriteError(w, http.StatusNotFound, "Appointment not found", "")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
