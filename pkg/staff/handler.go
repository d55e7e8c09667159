package staff

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

type StaffDTO struct {
	Id         int        `json:"id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	ExternalId string     `json:"externalId,omitempty"`
	HireDate   string     `json:"hireDate,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

type RateDTO struct {
	Id                 int             `json:"id"`
	StaffId            int             `json:"staffId"`
	WeekdayRate        decimal.Decimal `json:"weekdayRate"`
	WeekendRate        decimal.Decimal `json:"weekendRate"`
	HolidayRate        decimal.Decimal `json:"holidayRate"`
	MileageRate        decimal.Decimal `json:"mileageRate"`
	OvertimeMultiplier decimal.Decimal `json:"overtimeMultiplier"`
	EffectiveFrom      string          `json:"effectiveFrom"`
	IsActive           *bool           `json:"isActive,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func StaffToDTO(s Staff) StaffDTO {
	dto := StaffDTO{
		Id:         s.Id,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		Email:      s.Email,
		Phone:      s.Phone,
		Type:       string(s.Type),
		Status:     string(s.Status),
		ExternalId: s.ExternalId,
	}
	if s.HireDate != nil {
		dto.HireDate = s.HireDate.Format(utils.DateLayout)
	}
	if !s.CreatedAt.IsZero() {
		createdAt := s.CreatedAt
		dto.CreatedAt = &createdAt
	}
	return dto
}

func DTOToStaff(dto StaffDTO) (Staff, error) {
	s := Staff{
		Id:         dto.Id,
		FirstName:  dto.FirstName,
		LastName:   dto.LastName,
		Email:      dto.Email,
		Phone:      dto.Phone,
		Type:       Type(dto.Type),
		Status:     Status(dto.Status),
		ExternalId: dto.ExternalId,
	}
	if dto.HireDate != "" {
		hireDate, err := utils.ParseDate(dto.HireDate)
		if err != nil {
			return Staff{}, err
		}
		s.HireDate = &hireDate
	}
	return s, nil
}

func RateToDTO(r Rate) RateDTO {
	isActive := r.IsActive
	return RateDTO{
		Id:                 r.Id,
		StaffId:            r.StaffId,
		WeekdayRate:        r.WeekdayRate,
		WeekendRate:        r.WeekendRate,
		HolidayRate:        r.HolidayRate,
		MileageRate:        r.MileageRate,
		OvertimeMultiplier: r.OvertimeMultiplier,
		EffectiveFrom:      r.EffectiveFrom.Format(utils.DateLayout),
		IsActive:           &isActive,
	}
}

// DTOToRate converts a rate payload. A missing isActive means active.
func DTOToRate(dto RateDTO) (Rate, error) {
	effectiveFrom, err := utils.ParseDate(dto.EffectiveFrom)
	if err != nil {
		return Rate{}, err
	}
	isActive := true
	if dto.IsActive != nil {
		isActive = *dto.IsActive
	}
	return Rate{
		Id:                 dto.Id,
		StaffId:            dto.StaffId,
		WeekdayRate:        dto.WeekdayRate,
		WeekendRate:        dto.WeekendRate,
		HolidayRate:        dto.HolidayRate,
		MileageRate:        dto.MileageRate,
		OvertimeMultiplier: dto.OvertimeMultiplier,
		EffectiveFrom:      effectiveFrom,
		IsActive:           isActive,
	}, nil
}

// ListStaff godoc
// @Summary List staff members
// @Tags Staff
// @Produce json
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type (internal, external)"
// @Param search query string false "Search by name or external id"
// @Success 200 {array} StaffDTO
// @Router /api/staff [get]
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing staff")
	filter := Filter{
		Status: Status(r.URL.Query().Get("status")),
		Type:   Type(r.URL.Query().Get("type")),
		Search: r.URL.Query().Get("search"),
	}
	members, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]StaffDTO, 0, len(members))
	for _, s := range members {
		dtos = append(dtos, StaffToDTO(s))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// GetStaff godoc
// @Summary Get a staff member
// @Tags Staff
// @Produce json
// @Param staffId path int true "Staff ID"
// @Success 200 {object} StaffDTO
// @Failure 404 {object} rest.ErrorResponse "Staff member not found"
// @Router /api/staff/{staffId} [get]
func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := intFromPath(w, r, "staffId")
	if !ok {
		return
	}
	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, StaffToDTO(s))
}

// CreateStaff godoc
// @Summary Create a staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param staff body StaffDTO true "Staff member"
// @Success 201 {object} StaffDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid staff data"
// @Failure 409 {object} rest.ErrorResponse "Duplicate external id"
// @Router /api/staff [post]
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var dto StaffDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	s, err := DTOToStaff(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid hire date", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), s)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, StaffToDTO(created))
}

// UpdateStaff godoc
// @Summary Update a staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param staffId path int true "Staff ID"
// @Param staff body StaffDTO true "Staff member"
// @Success 200 {object} StaffDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid staff data"
// @Failure 404 {object} rest.ErrorResponse "Staff member not found"
// @Router /api/staff/{staffId} [put]
func (h *Handler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := intFromPath(w, r, "staffId")
	if !ok {
		return
	}
	var dto StaffDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	s, err := DTOToStaff(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid hire date", err.Error())
		return
	}
	s.Id = id
	updated, err := h.service.Update(r.Context(), s)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, StaffToDTO(updated))
}

// DeleteStaff godoc
// @Summary Delete a staff member
// @Tags Staff
// @Param staffId path int true "Staff ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Staff member not found"
// @Failure 409 {object} rest.ErrorResponse "Staff member in use"
// @Router /api/staff/{staffId} [delete]
func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := intFromPath(w, r, "staffId")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRates godoc
// @Summary List the rate history of a staff member
// @Tags Staff
// @Produce json
// @Param staffId path int true "Staff ID"
// @Success 200 {array} RateDTO
// @Failure 404 {object} rest.ErrorResponse "Staff member not found"
// @Router /api/staff/{staffId}/rates [get]
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	staffId, ok := intFromPath(w, r, "staffId")
	if !ok {
		return
	}
	rates, err := h.service.ListRates(r.Context(), staffId)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]RateDTO, 0, len(rates))
	for _, rate := range rates {
		dtos = append(dtos, RateToDTO(rate))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateRate godoc
// @Summary Add a rate version for a staff member
// @Description The overtime multiplier defaults to 1.5 when omitted
// @Tags Staff
// @Accept json
// @Produce json
// @Param staffId path int true "Staff ID"
// @Param rate body RateDTO true "Rate"
// @Success 201 {object} RateDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid rate"
// @Failure 404 {object} rest.ErrorResponse "Staff member not found"
// @Router /api/staff/{staffId}/rates [post]
func (h *Handler) CreateRate(w http.ResponseWriter, r *http.Request) {
	staffId, ok := intFromPath(w, r, "staffId")
	if !ok {
		return
	}
	rate, ok := decodeRate(w, r)
	if !ok {
		return
	}
	rate.StaffId = staffId
	created, err := h.service.AddRate(r.Context(), rate)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, RateToDTO(created))
}

// UpdateRate godoc
// @Summary Update a rate version
// @Tags Staff
// @Accept json
// @Produce json
// @Param staffId path int true "Staff ID"
// @Param rateId path int true "Rate ID"
// @Param rate body RateDTO true "Rate"
// @Success 200 {object} RateDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid rate"
// @Failure 404 {object} rest.ErrorResponse "Rate not found"
// @Router /api/staff/{staffId}/rates/{rateId} [put]
func (h *Handler) UpdateRate(w http.ResponseWriter, r *http.Request) {
	staffId, ok := intFromPath(w, r, "staffId")
	if !ok {
		return
	}
	rateId, ok := intFromPath(w, r, "rateId")
	if !ok {
		return
	}
	rate, ok := decodeRate(w, r)
	if !ok {
		return
	}
	rate.Id = rateId
	rate.StaffId = staffId
	updated, err := h.service.UpdateRate(r.Context(), rate)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, RateToDTO(updated))
}

// DeleteRate godoc
// @Summary Delete a rate version
// @Tags Staff
// @Param staffId path int true "Staff ID"
// @Param rateId path int true "Rate ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Rate not found"
// @Router /api/staff/{staffId}/rates/{rateId} [delete]
func (h *Handler) DeleteRate(w http.ResponseWriter, r *http.Request) {
	staffId, ok := intFromPath(w, r, "staffId")
	if !ok {
		return
	}
	rateId, ok := intFromPath(w, r, "rateId")
	if !ok {
		return
	}
	if err := h.service.DeleteRate(r.Context(), staffId, rateId); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeRate(w http.ResponseWriter, r *http.Request) (Rate, bool) {
	var dto RateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return Rate{}, false
	}
	rate, err := DTOToRate(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid effective from date", err.Error())
		return Rate{}, false
	}
	return rate, true
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
	case errors.Is(err, ErrStaffDataInvalid), errors.Is(err, ErrRateDataInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid staff data", err.Error())
	case errors.Is(err, ErrStaffNotFound):
		rest.WriteError(w, http.StatusNotFound, "Staff member not found", "")
	case errors.Is(err, ErrRateNotFound):
		rest.WriteError(w, http.StatusNotFound, "Rate not found", "")
	case errors.Is(err, ErrDuplicateExternalId):
		rest.WriteError(w, http.StatusConflict, "Duplicate external id", err.Error())
	case errors.Is(err, ErrStaffInUse):
		rest.WriteError(w, http.StatusConflict, "Staff member is referenced by time logs or compensations", "")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
