package assignment

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/homecare-coop/backoffice/internal/rest"
	"github.com/homecare-coop/backoffice/internal/utils"
	log "github.com/sirupsen/logrus"
)

type AssignmentDTO struct {
	Id             int    `json:"id"`
	ClientId       int    `json:"clientId"`
	ClientName     string `json:"clientName,omitempty"`
	StaffId        int    `json:"staffId"`
	StaffName      string `json:"staffName,omitempty"`
	AssignmentType string `json:"assignmentType"`
	StartDate      string `json:"startDate,omitempty"`
	EndDate        string `json:"endDate,omitempty"`
	// IsActive defaults to true when omitted.
	IsActive *bool `json:"isActive,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func assignmentToDTO(a Assignment) AssignmentDTO {
	active := a.IsActive
	dto := AssignmentDTO{
		Id:             a.Id,
		ClientId:       a.ClientId,
		ClientName:     a.ClientName,
		StaffId:        a.StaffId,
		StaffName:      a.StaffName,
		AssignmentType: string(a.Type),
		IsActive:       &active,
	}
	if a.StartDate != nil {
		dto.StartDate = a.StartDate.Format(utils.DateLayout)
	}
	if a.EndDate != nil {
		dto.EndDate = a.EndDate.Format(utils.DateLayout)
	}
	return dto
}

func dtoToAssignment(dto AssignmentDTO) (Assignment, error) {
	a := Assignment{
		ClientId: dto.ClientId,
		StaffId:  dto.StaffId,
		Type:     Type(dto.AssignmentType),
		IsActive: dto.IsActive == nil || *dto.IsActive,
	}
	var err error
	if a.StartDate, err = optionalDate(dto.StartDate); err != nil {
		return Assignment{}, err
	}
	if a.EndDate, err = optionalDate(dto.EndDate); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func optionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := utils.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func toDTOs(assignments []Assignment) []AssignmentDTO {
	dtos := make([]AssignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		dtos = append(dtos, assignmentToDTO(a))
	}
	return dtos
}

// ListAssignments godoc
// @Summary List client and staff assignments
// @Tags Assignment
// @Produce json
// @Param clientId query int false "Client ID"
// @Param staffId query int false "Staff ID"
// @Param includeInactive query bool false "Include inactive assignments"
// @Success 200 {array} AssignmentDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid filter"
// @Router /api/assignments [get]
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	assignments, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTOs(assignments))
}

func filterFromQuery(r *http.Request) (Filter, error) {
	var filter Filter
	query := r.URL.Query()
	var err error
	if v := query.Get("clientId"); v != "" {
		if filter.ClientId, err = strconv.Atoi(v); err != nil {
			return Filter{}, fmt.Errorf("invalid clientId %q", v)
		}
	}
	if v := query.Get("staffId"); v != "" {
		if filter.StaffId, err = strconv.Atoi(v); err != nil {
			return Filter{}, fmt.Errorf("invalid staffId %q", v)
		}
	}
	if v := query.Get("includeInactive"); v != "" {
		if filter.IncludeInactive, err = strconv.ParseBool(v); err != nil {
			return Filter{}, fmt.Errorf("invalid includeInactive %q", v)
		}
	}
	return filter, nil
}

// ListClientAssignments godoc
// @Summary List the staff assigned to a client
// @Tags Assignment
// @Produce json
// @Param clientId path int true "Client ID"
// @Success 200 {array} AssignmentDTO
// @Router /api/clients/{clientId}/assignments [get]
func (h *Handler) ListClientAssignments(w http.ResponseWriter, r *http.Request) {
	clientId, ok := intFromPath(w, r, "clientId")
	if !ok {
		return
	}
	assignments, err := h.service.ListByClient(r.Context(), clientId)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTOs(assignments))
}

// ListStaffAssignments godoc
// @Summary List the clients assigned to a staff member
// @Tags Assignment
// @Produce json
// @Param staffId path int true "Staff ID"
// @Success 200 {array} AssignmentDTO
// @Router /api/staff/{staffId}/assignments [get]
func (h *Handler) ListStaffAssignments(w http.ResponseWriter, r *http.Request) {
	staffId, ok := intFromPath(w, r, "staffId")
	if !ok {
		return
	}
	assignments, err := h.service.ListByStaff(r.Context(), staffId)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTOs(assignments))
}

// GetAssignment godoc
// @Summary Get an assignment
// @Tags Assignment
// @Produce json
// @Param assignmentId path int true "Assignment ID"
// @Success 200 {object} AssignmentDTO
// @Failure 404 {object} rest.ErrorResponse "Assignment not found"
// @Router /api/assignments/{assignmentId} [get]
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := intFromPath(w, r, "assignmentId")
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, assignmentToDTO(a))
}

// CreateAssignment godoc
// @Summary Assign a staff member to a client
// @Tags Assignment
// @Accept json
// @Produce json
// @Param assignment body AssignmentDTO true "Assignment"
// @Success 201 {object} AssignmentDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid assignment"
// @Failure 409 {object} rest.ErrorResponse "Already assigned"
// @Router /api/assignments [post]
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating assignment")
	a, ok := decodeAssignment(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), a)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, assignmentToDTO(created))
}

// UpdateAssignment godoc
// @Summary Update an assignment
// @Tags Assignment
// @Accept json
// @Produce json
// @Param assignmentId path int true "Assignment ID"
// @Param assignment body AssignmentDTO true "Assignment"
// @Success 200 {object} AssignmentDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid assignment"
// @Failure 404 {object} rest.ErrorResponse "Assignment not found"
// @Failure 409 {object} rest.ErrorResponse "Already assigned"
// @Router /api/assignments/{assignmentId} [put]
func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := intFromPath(w, r, "assignmentId")
	if !ok {
		return
	}
	a, ok := decodeAssignment(w, r)
	if !ok {
		return
	}
	a.Id = id
	updated, err := h.service.Update(r.Context(), a)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, assignmentToDTO(updated))
}

// DeleteAssignment godoc
// @Summary Delete an assignment
// @Tags Assignment
// @Param assignmentId path int true "Assignment ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Assignment not found"
// @Router /api/assignments/{assignmentId} [delete]
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := intFromPath(w, r, "assignmentId")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeAssignment(w http.ResponseWriter, r *http.Request) (Assignment, bool) {
	var dto AssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return Assignment{}, false
	}
	a, err := dtoToAssignment(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid assignment data", err.Error())
		return Assignment{}, false
	}
	return a, true
}

func intFromPath(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid "+name, err.Error())
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAssignmentDataInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid assignment data", err.Error())
	case errors.Is(err, ErrUnknownReference):
		rest.WriteError(w, http.StatusBadRequest, "Unknown client or staff member", err.Error())
	case errors.Is(err, ErrDuplicateAssignment):
		rest.WriteError(w, http.StatusConflict, "Staff member is already assigned to this client", "")
	case errors.Is(err, ErrAssignmentNotFound):
		rest.WriteError(w, http.StatusNotFound, "Assignment not found", "")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
