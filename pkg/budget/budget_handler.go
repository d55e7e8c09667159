package budget

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

type BudgetTypeDTO struct {
	Id                   int             `json:"id"`
	Code                 string          `json:"code"`
	Name                 string          `json:"name"`
	Description          string          `json:"description,omitempty"`
	DefaultWeekdayRate   decimal.Decimal `json:"defaultWeekdayRate"`
	DefaultHolidayRate   decimal.Decimal `json:"defaultHolidayRate"`
	DefaultKilometerRate decimal.Decimal `json:"defaultKilometerRate"`
	CanFundMileage       bool            `json:"canFundMileage"`
}

type AllocationDTO struct {
	Id             int             `json:"id"`
	ClientId       int             `json:"clientId"`
	BudgetTypeId   int             `json:"budgetTypeId"`
	BudgetTypeCode string          `json:"budgetTypeCode,omitempty"`
	BudgetTypeName string          `json:"budgetTypeName,omitempty"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	UsedAmount     decimal.Decimal `json:"usedAmount"`
	Available      decimal.Decimal `json:"available"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
}

type WarningDTO struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	AllocationId int    `json:"allocationId,omitempty"`
}

type AvailabilityDTO struct {
	ClientId           int             `json:"clientId"`
	RequestedAmount    decimal.Decimal `json:"requestedAmount"`
	TotalAvailable     decimal.Decimal `json:"totalAvailable"`
	HasAvailableCredit bool            `json:"hasAvailableCredit"`
	Allocations        []AllocationDTO `json:"allocations"`
	Warnings           []WarningDTO    `json:"warnings"`
}

type BudgetHandler struct {
	budgetService BudgetService
}

func NewBudgetHandler(budgetService BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService}
}

// ListTypes godoc
// @Summary List budget types
// @Tags Budget
// @Produce json
// @Success 200 {array} BudgetTypeDTO
// @Router /api/budget-types [get]
func (handler *BudgetHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := handler.budgetService.ListTypes(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	typesDTO := make([]BudgetTypeDTO, 0, len(types))
	for _, t := range types {
		typesDTO = append(typesDTO, BudgetTypeDTO{
			Id:                   t.Id,
			Code:                 t.Code,
			Name:                 t.Name,
			Description:          t.Description,
			DefaultWeekdayRate:   t.DefaultWeekdayRate,
			DefaultHolidayRate:   t.DefaultHolidayRate,
			DefaultKilometerRate: t.DefaultKilometerRate,
			CanFundMileage:       t.CanFundMileage,
		})
	}
	rest.WriteJSON(w, http.StatusOK, typesDTO)
}

// ListAllocations godoc
// @Summary List client budget allocations
// @Tags Budget
// @Produce json
// @Param clientId query int false "Client ID"
// @Param from query string false "Active from (YYYY-MM-DD)"
// @Param to query string false "Active to (YYYY-MM-DD)"
// @Success 200 {array} AllocationDTO
// @Router /api/budget-allocations [get]
func (handler *BudgetHandler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter AllocationFilter
	var err error
	if v := query.Get("clientId"); v != "" {
		if filter.ClientId, err = strconv.Atoi(v); err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid client id", err.Error())
			return
		}
	}
	if v := query.Get("from"); v != "" {
		if filter.ActiveFrom, err = utils.ParseDate(v); err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid 'from' date", err.Error())
			return
		}
	}
	if v := query.Get("to"); v != "" {
		if filter.ActiveTo, err = utils.ParseDate(v); err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid 'to' date", err.Error())
			return
		}
	}
	allocations, err := handler.budgetService.ListAllocations(r.Context(), filter)
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, allocationsToDTO(allocations))
}

// GetAllocation godoc
// @Summary Get a client budget allocation
// @Tags Budget
// @Produce json
// @Param allocationId path int true "Allocation ID"
// @Success 200 {object} AllocationDTO
// @Failure 404 {object} rest.ErrorResponse "Allocation not found"
// @Router /api/budget-allocations/{allocationId} [get]
func (handler *BudgetHandler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	allocationId, ok := allocationIdFromPath(w, r)
	if !ok {
		return
	}
	allocation, err := handler.budgetService.GetAllocation(r.Context(), allocationId)
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, AllocationToDTO(allocation))
}

// CreateAllocation godoc
// @Summary Grant a budget to a client
// @Tags Budget
// @Accept json
// @Produce json
// @Param allocation body AllocationDTO true "Allocation"
// @Success 201 {object} AllocationDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid allocation"
// @Router /api/budget-allocations [post]
func (handler *BudgetHandler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	log.Debug("Registering new budget allocation")
	allocation, ok := decodeAllocation(w, r)
	if !ok {
		return
	}
	created, err := handler.budgetService.CreateAllocation(r.Context(), allocation)
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, AllocationToDTO(created))
}

// UpdateAllocation godoc
// @Summary Update a client budget allocation
// @Description The used amount cannot be changed and the total cannot drop below it
// @Tags Budget
// @Accept json
// @Produce json
// @Param allocationId path int true "Allocation ID"
// @Param allocation body AllocationDTO true "Allocation"
// @Success 200 {object} AllocationDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid allocation"
// @Failure 404 {object} rest.ErrorResponse "Allocation not found"
// @Router /api/budget-allocations/{allocationId} [put]
func (handler *BudgetHandler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	allocationId, ok := allocationIdFromPath(w, r)
	if !ok {
		return
	}
	allocation, ok := decodeAllocation(w, r)
	if !ok {
		return
	}
	allocation.Id = allocationId
	updated, err := handler.budgetService.UpdateAllocation(r.Context(), allocation)
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, AllocationToDTO(updated))
}

// DeleteAllocation godoc
// @Summary Delete an unused client budget allocation
// @Tags Budget
// @Param allocationId path int true "Allocation ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Allocation not found"
// @Failure 409 {object} rest.ErrorResponse "Allocation in use"
// @Router /api/budget-allocations/{allocationId} [delete]
func (handler *BudgetHandler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	allocationId, ok := allocationIdFromPath(w, r)
	if !ok {
		return
	}
	if err := handler.budgetService.DeleteAllocation(r.Context(), allocationId); err != nil {
		handler.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckAvailability godoc
// @Summary Check whether a client's budgets cover an amount
// @Tags Budget
// @Produce json
// @Param clientId path int true "Client ID"
// @Param amount query string true "Requested amount"
// @Param date query string false "Service date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} AvailabilityDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid amount or date"
// @Router /api/clients/{clientId}/budget-availability [get]
func (handler *BudgetHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	clientId, err := strconv.Atoi(mux.Vars(r)["clientId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid client id", err.Error())
		return
	}
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid amount", err.Error())
		return
	}
	on := time.Now()
	if v := r.URL.Query().Get("date"); v != "" {
		if on, err = utils.ParseDate(v); err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid date", err.Error())
			return
		}
	}
	availability, err := handler.budgetService.CheckAvailability(r.Context(), clientId, amount, on)
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	dto := AvailabilityDTO{
		ClientId:           availability.ClientId,
		RequestedAmount:    availability.RequestedAmount,
		TotalAvailable:     availability.TotalAvailable,
		HasAvailableCredit: availability.HasAvailableCredit,
		Allocations:        allocationsToDTO(availability.Allocations),
		Warnings:           make([]WarningDTO, 0, len(availability.Warnings)),
	}
	for _, warning := range availability.Warnings {
		dto.Warnings = append(dto.Warnings, WarningDTO{
			Code:         string(warning.Code),
			Message:      warning.Message,
			AllocationId: warning.AllocationId,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dto)
}

func decodeAllocation(w http.ResponseWriter, r *http.Request) (Allocation, bool) {
	var allocationDTO AllocationDTO
	if err := json.NewDecoder(r.Body).Decode(&allocationDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return Allocation{}, false
	}
	allocation, err := DTOToAllocation(allocationDTO)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid allocation dates", err.Error())
		return Allocation{}, false
	}
	return allocation, true
}

func allocationIdFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	allocationId, err := strconv.Atoi(mux.Vars(r)["allocationId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid allocation id", err.Error())
		return 0, false
	}
	return allocationId, true
}

func (handler *BudgetHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAllocationDataInvalid), errors.Is(err, ErrBudgetTypeNotFound), errors.Is(err, ErrUnknownClient):
		rest.WriteError(w, http.StatusBadRequest, "Invalid budget allocation", err.Error())
	case errors.Is(err, ErrAllocationNotFound):
		rest.WriteError(w, http.StatusNotFound, "Budget allocation not found", "")
	case errors.Is(err, ErrAllocationInUse):
		rest.WriteError(w, http.StatusConflict, "Budget allocation is in use", "")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func AllocationToDTO(allocation Allocation) AllocationDTO {
	return AllocationDTO{
		Id:             allocation.Id,
		ClientId:       allocation.ClientId,
		BudgetTypeId:   allocation.BudgetTypeId,
		BudgetTypeCode: allocation.BudgetTypeCode,
		BudgetTypeName: allocation.BudgetTypeName,
		TotalAmount:    allocation.TotalAmount,
		UsedAmount:     allocation.UsedAmount,
		Available:      allocation.Available(),
		StartDate:      allocation.StartDate.Format(utils.DateLayout),
		EndDate:        allocation.EndDate.Format(utils.DateLayout),
	}
}

func allocationsToDTO(allocations []Allocation) []AllocationDTO {
	allocationsDTO := make([]AllocationDTO, 0, len(allocations))
	for _, allocation := range allocations {
		allocationsDTO = append(allocationsDTO, AllocationToDTO(allocation))
	}
	return allocationsDTO
}

func DTOToAllocation(allocationDTO AllocationDTO) (Allocation, error) {
	startDate, err := utils.ParseDate(allocationDTO.StartDate)
	if err != nil {
		return Allocation{}, err
	}
	endDate, err := utils.ParseDate(allocationDTO.EndDate)
	if err != nil {
		return Allocation{}, err
	}
	return Allocation{
		Id:           allocationDTO.Id,
		ClientId:     allocationDTO.ClientId,
		BudgetTypeId: allocationDTO.BudgetTypeId,
		TotalAmount:  allocationDTO.TotalAmount,
		StartDate:    startDate,
		EndDate:      endDate,
	}, nil
}
