package compensation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/homecare-coop/backoffice/internal/rest"
	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/homecare-coop/backoffice/pkg/staff"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type LineDTO struct {
	Id            int             `json:"id,omitempty"`
	TimeLogId     int             `json:"timeLogId"`
	ClientId      int             `json:"clientId"`
	ServiceType   string          `json:"serviceType"`
	ServiceDate   string          `json:"serviceDate"`
	DayKind       string          `json:"dayKind"`
	Hours         decimal.Decimal `json:"hours"`
	OvertimeHours decimal.Decimal `json:"overtimeHours"`
	Mileage       decimal.Decimal `json:"mileage"`
	Cost          decimal.Decimal `json:"cost"`
}

type AppliedRateDTO struct {
	WeekdayRate        decimal.Decimal `json:"weekdayRate"`
	WeekendRate        decimal.Decimal `json:"weekendRate"`
	HolidayRate        decimal.Decimal `json:"holidayRate"`
	MileageRate        decimal.Decimal `json:"mileageRate"`
	OvertimeMultiplier decimal.Decimal `json:"overtimeMultiplier"`
}

type CompensationDTO struct {
	Id                int             `json:"id,omitempty"`
	StaffId           int             `json:"staffId"`
	StaffName         string          `json:"staffName"`
	PeriodStart       string          `json:"periodStart"`
	PeriodEnd         string          `json:"periodEnd"`
	RegularHours      decimal.Decimal `json:"regularHours"`
	OvertimeHours     decimal.Decimal `json:"overtimeHours"`
	WeekendHours      decimal.Decimal `json:"weekendHours"`
	HolidayHours      decimal.Decimal `json:"holidayHours"`
	TotalMileage      decimal.Decimal `json:"totalMileage"`
	RegularAmount     decimal.Decimal `json:"regularAmount"`
	OvertimeAmount    decimal.Decimal `json:"overtimeAmount"`
	WeekendAmount     decimal.Decimal `json:"weekendAmount"`
	HolidayAmount     decimal.Decimal `json:"holidayAmount"`
	MileageAmount     decimal.Decimal `json:"mileageAmount"`
	TotalCompensation decimal.Decimal `json:"totalCompensation"`
	AppliedRate       AppliedRateDTO  `json:"appliedRate"`
	Status            string          `json:"status"`
	PaidAt            *time.Time      `json:"paidAt,omitempty"`
	AllocatedAt       *time.Time      `json:"allocatedAt,omitempty"`
	Lines             []LineDTO       `json:"lines,omitempty"`
}

type PeriodRequest struct {
	StaffId     int    `json:"staffId,omitempty"`
	StaffType   string `json:"staffType,omitempty"`
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
}

type MarkPaidRequest struct {
	PaidAt *time.Time `json:"paidAt,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func CompensationToDTO(c Compensation) CompensationDTO {
	dto := CompensationDTO{
		Id:                c.Id,
		StaffId:           c.StaffId,
		StaffName:         c.StaffName,
		PeriodStart:       c.PeriodStart.Format(utils.DateLayout),
		PeriodEnd:         c.PeriodEnd.Format(utils.DateLayout),
		RegularHours:      c.RegularHours,
		OvertimeHours:     c.OvertimeHours,
		WeekendHours:      c.WeekendHours,
		HolidayHours:      c.HolidayHours,
		TotalMileage:      c.TotalMileage,
		RegularAmount:     c.RegularAmount,
		OvertimeAmount:    c.OvertimeAmount,
		WeekendAmount:     c.WeekendAmount,
		HolidayAmount:     c.HolidayAmount,
		MileageAmount:     c.MileageAmount,
		TotalCompensation: c.TotalCompensation,
		AppliedRate: AppliedRateDTO{
			WeekdayRate:        c.Rate.WeekdayRate,
			WeekendRate:        c.Rate.WeekendRate,
			HolidayRate:        c.Rate.HolidayRate,
			MileageRate:        c.Rate.MileageRate,
			OvertimeMultiplier: c.Rate.OvertimeMultiplier,
		},
		Status:      string(c.Status),
		PaidAt:      c.PaidAt,
		AllocatedAt: c.AllocatedAt,
	}
	for _, l := range c.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			Id:            l.Id,
			TimeLogId:     l.TimeLogId,
			ClientId:      l.ClientId,
			ServiceType:   l.ServiceType,
			ServiceDate:   l.ServiceDate.Format(utils.DateLayout),
			DayKind:       string(l.DayKind),
			Hours:         l.Hours,
			OvertimeHours: l.OvertimeHours,
			Mileage:       l.Mileage,
			Cost:          l.Cost,
		})
	}
	return dto
}

func toDTOs(comps []Compensation) []CompensationDTO {
	dtos := make([]CompensationDTO, 0, len(comps))
	for _, c := range comps {
		dtos = append(dtos, CompensationToDTO(c))
	}
	return dtos
}

func decodePeriod(w http.ResponseWriter, r *http.Request) (PeriodRequest, time.Time, time.Time, bool) {
	var req PeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return PeriodRequest{}, time.Time{}, time.Time{}, false
	}
	start, err := utils.ParseDate(req.PeriodStart)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid period start", err.Error())
		return PeriodRequest{}, time.Time{}, time.Time{}, false
	}
	end, err := utils.ParseDate(req.PeriodEnd)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid period end", err.Error())
		return PeriodRequest{}, time.Time{}, time.Time{}, false
	}
	return req, start, end, true
}

// CalculateCompensations godoc
// @Summary Preview compensations for a period
// @Description Calculates without storing. With staffId only that staff member is calculated, otherwise every active staff member with time logs, optionally filtered by staffType.
// @Tags Compensation
// @Accept json
// @Produce json
// @Param request body PeriodRequest true "Period"
// @Success 200 {array} CompensationDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid period"
// @Router /api/compensations/calculate [post]
func (h *Handler) CalculateCompensations(w http.ResponseWriter, r *http.Request) {
	log.Debug("Calculating compensations")
	req, start, end, ok := decodePeriod(w, r)
	if !ok {
		return
	}
	if req.StaffType != "" && !staff.Type(req.StaffType).Valid() {
		rest.WriteError(w, http.StatusBadRequest, "Invalid staff type", req.StaffType)
		return
	}
	if req.StaffId != 0 {
		comp, err := h.service.Calculate(r.Context(), req.StaffId, start, end)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		rest.WriteJSON(w, http.StatusOK, []CompensationDTO{CompensationToDTO(comp)})
		return
	}
	comps, err := h.service.Preview(r.Context(), start, end, staff.Type(req.StaffType))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTOs(comps))
}

// CreateCompensation godoc
// @Summary Create an approved compensation
// @Tags Compensation
// @Accept json
// @Produce json
// @Param request body PeriodRequest true "Staff and period"
// @Success 201 {object} CompensationDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Staff member not found"
// @Failure 409 {object} rest.ErrorResponse "Compensation already exists"
// @Router /api/compensations [post]
func (h *Handler) CreateCompensation(w http.ResponseWriter, r *http.Request) {
	req, start, end, ok := decodePeriod(w, r)
	if !ok {
		return
	}
	if req.StaffId == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Staff id is required", "")
		return
	}
	created, err := h.service.Create(r.Context(), req.StaffId, start, end)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, CompensationToDTO(created))
}

// ListCompensations godoc
// @Summary List compensations overlapping a period
// @Tags Compensation
// @Produce json
// @Param from query string false "Period from (YYYY-MM-DD)"
// @Param to query string false "Period to (YYYY-MM-DD)"
// @Param staffId query int false "Staff ID"
// @Param status query string false "approved or paid"
// @Success 200 {array} CompensationDTO
// @Router /api/compensations [get]
func (h *Handler) ListCompensations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := Filter{Status: Status(query.Get("status"))}
	var err error
	if v := query.Get("from"); v != "" {
		if filter.From, err = utils.ParseDate(v); err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid 'from' date", err.Error())
			return
		}
	}
	if v := query.Get("to"); v != "" {
		if filter.To, err = utils.ParseDate(v); err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid 'to' date", err.Error())
			return
		}
	}
	if v := query.Get("staffId"); v != "" {
		if filter.StaffId, err = strconv.Atoi(v); err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid staff id", err.Error())
			return
		}
	}
	comps, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTOs(comps))
}

// GetCompensation godoc
// @Summary Get a compensation with its service lines
// @Tags Compensation
// @Produce json
// @Param compensationId path int true "Compensation ID"
// @Success 200 {object} CompensationDTO
// @Failure 404 {object} rest.ErrorResponse "Compensation not found"
// @Router /api/compensations/{compensationId} [get]
func (h *Handler) GetCompensation(w http.ResponseWriter, r *http.Request) {
	id, ok := CompensationIdFromPath(w, r)
	if !ok {
		return
	}
	comp, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, CompensationToDTO(comp))
}

// DeleteCompensation godoc
// @Summary Delete an approved, unallocated compensation
// @Tags Compensation
// @Param compensationId path int true "Compensation ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Compensation not found"
// @Failure 409 {object} rest.ErrorResponse "Compensation is paid or allocated"
// @Router /api/compensations/{compensationId} [delete]
func (h *Handler) DeleteCompensation(w http.ResponseWriter, r *http.Request) {
	id, ok := CompensationIdFromPath(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkPaid godoc
// @Summary Mark a compensation as paid
// @Description paidAt defaults to now
// @Tags Compensation
// @Accept json
// @Produce json
// @Param compensationId path int true "Compensation ID"
// @Param request body MarkPaidRequest false "Payment time"
// @Success 200 {object} CompensationDTO
// @Failure 404 {object} rest.ErrorResponse "Compensation not found"
// @Failure 409 {object} rest.ErrorResponse "Compensation already paid"
// @Router /api/compensations/{compensationId}/pay [post]
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := CompensationIdFromPath(w, r)
	if !ok {
		return
	}
	var req MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	paid, err := h.service.MarkPaid(r.Context(), id, req.PaidAt)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, CompensationToDTO(paid))
}

// CompensationIdFromPath reads the compensationId route variable, writing a 400 when it is not a number.
func CompensationIdFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["compensationId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid compensation id", err.Error())
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCompensationDataInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid compensation request", err.Error())
	case errors.Is(err, ErrCompensationNotFound):
		rest.WriteError(w, http.StatusNotFound, "Compensation not found", "")
	case errors.Is(err, staff.ErrStaffNotFound):
		rest.WriteError(w, http.StatusNotFound, "Staff member not found", "")
	case errors.Is(err, ErrCompensationExists), errors.Is(err, ErrTimeLogsAlreadyCompensated):
		rest.WriteError(w, http.StatusConflict, "Compensation already exists", err.Error())
	case errors.Is(err, ErrTimeLogsChanged):
		rest.WriteError(w, http.StatusConflict, "Time logs changed, calculate again", err.Error())
	case errors.Is(err, ErrAlreadyPaid):
		rest.WriteError(w, http.StatusConflict, "Compensation is already paid", "")
	case errors.Is(err, ErrCompensationAllocated):
		rest.WriteError(w, http.StatusConflict, "Compensation has budget allocations", "")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
