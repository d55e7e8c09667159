package allocation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/homecare-coop/backoffice/internal/rest"
	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/homecare-coop/backoffice/pkg/budget"
	"github.com/homecare-coop/backoffice/pkg/client"
	"github.com/homecare-coop/backoffice/pkg/compensation"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type GroupDTO struct {
	ClientId    int                    `json:"clientId"`
	ClientName  string                 `json:"clientName"`
	ServiceType string                 `json:"serviceType"`
	TimeLogIds  []int                  `json:"timeLogIds"`
	TotalHours  decimal.Decimal        `json:"totalHours"`
	TotalCost   decimal.Decimal        `json:"totalCost"`
	Options     []budget.AllocationDTO `json:"budgetOptions"`
}

type AvailabilityDTO struct {
	CompensationId    int             `json:"compensationId"`
	StaffId           int             `json:"staffId"`
	StaffName         string          `json:"staffName"`
	PeriodStart       string          `json:"periodStart"`
	PeriodEnd         string          `json:"periodEnd"`
	TotalCompensation decimal.Decimal `json:"totalCompensation"`
	Allocated         bool            `json:"allocated"`
	Groups            []GroupDTO      `json:"groups"`
}

type RequestDTO struct {
	ClientId     int              `json:"clientId"`
	ServiceType  string           `json:"serviceType"`
	AllocationId int              `json:"allocationId"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
}

type ApprovalDTO struct {
	Allocations               []RequestDTO `json:"allocations"`
	AcknowledgeBudgetExceeded bool         `json:"acknowledgeBudgetExceeded"`
}

type GroupOutcomeDTO struct {
	ClientId     int             `json:"clientId"`
	ServiceType  string          `json:"serviceType"`
	AllocationId int             `json:"allocationId,omitempty"`
	TotalCost    decimal.Decimal `json:"totalCost"`
	Allocated    decimal.Decimal `json:"allocated"`
	ClientOwes   decimal.Decimal `json:"clientOwes"`
}

type RecordDTO struct {
	Id                 int             `json:"id"`
	TimeLogId          int             `json:"timeLogId"`
	BudgetAllocationId int             `json:"clientBudgetAllocationId"`
	ClientId           int             `json:"clientId"`
	ServiceType        string          `json:"serviceType"`
	Amount             decimal.Decimal `json:"amount"`
	Hours              decimal.Decimal `json:"hours"`
}

type ResultDTO struct {
	CompensationId      int               `json:"compensationId"`
	TotalCompensation   decimal.Decimal   `json:"totalCompensation"`
	TotalAllocated      decimal.Decimal   `json:"totalAllocated"`
	RemainingToAllocate decimal.Decimal   `json:"remainingToAllocate"`
	Groups              []GroupOutcomeDTO `json:"groups"`
	Records             []RecordDTO       `json:"allocations"`
}

type ClientDebtDTO struct {
	ClientId   int               `json:"clientId"`
	ClientName string            `json:"clientName"`
	Groups     []GroupOutcomeDTO `json:"groups"`
	TotalOwed  decimal.Decimal   `json:"totalOwed"`
}

type ExceededDTO struct {
	ClientId     int             `json:"clientId"`
	ServiceType  string          `json:"serviceType"`
	AllocationId int             `json:"allocationId"`
	Requested    decimal.Decimal `json:"requested"`
	Available    decimal.Decimal `json:"available"`
}

// BudgetExceededResponse is the 409 body of an approval asking for more than the budgets hold.
type BudgetExceededResponse struct {
	Error   string        `json:"error"`
	Details string        `json:"details,omitempty"`
	Groups  []ExceededDTO `json:"exceeded"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func outcomesToDTO(groups []GroupOutcome) []GroupOutcomeDTO {
	result := make([]GroupOutcomeDTO, 0, len(groups))
	for _, g := range groups {
		result = append(result, GroupOutcomeDTO{
			ClientId:     g.ClientId,
			ServiceType:  g.ServiceType,
			AllocationId: g.AllocationId,
			TotalCost:    g.TotalCost,
			Allocated:    g.Allocated,
			ClientOwes:   g.ClientOwes,
		})
	}
	return result
}

func ResultToDTO(result Result) ResultDTO {
	records := make([]RecordDTO, 0, len(result.Records))
	for _, r := range result.Records {
		records = append(records, RecordDTO{
			Id:                 r.Id,
			TimeLogId:          r.TimeLogId,
			BudgetAllocationId: r.BudgetAllocationId,
			ClientId:           r.ClientId,
			ServiceType:        r.ServiceType,
			Amount:             r.Amount,
			Hours:              r.Hours,
		})
	}
	return ResultDTO{
		CompensationId:      result.CompensationId,
		TotalCompensation:   result.TotalCompensation,
		TotalAllocated:      result.TotalAllocated,
		RemainingToAllocate: result.RemainingToAllocate,
		Groups:              outcomesToDTO(result.Groups),
		Records:             records,
	}
}

// GetAvailability godoc
// @Summary Show the budgets that can cover a compensation
// @Tags Allocation
// @Produce json
// @Param compensationId path int true "Compensation ID"
// @Success 200 {object} AvailabilityDTO
// @Failure 404 {object} rest.ErrorResponse "Compensation not found"
// @Router /api/compensations/{compensationId}/availability [get]
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := compensation.CompensationIdFromPath(w, r)
	if !ok {
		return
	}
	availability, err := h.service.Availability(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	groups := make([]GroupDTO, 0, len(availability.Groups))
	for _, g := range availability.Groups {
		options := make([]budget.AllocationDTO, 0, len(g.Options))
		for _, o := range g.Options {
			options = append(options, budget.AllocationToDTO(o))
		}
		groups = append(groups, GroupDTO{
			ClientId:    g.ClientId,
			ClientName:  g.ClientName,
			ServiceType: g.ServiceType,
			TimeLogIds:  g.TimeLogIds,
			TotalHours:  g.TotalHours,
			TotalCost:   g.TotalCost,
			Options:     options,
		})
	}
	rest.WriteJSON(w, http.StatusOK, AvailabilityDTO{
		CompensationId:    availability.CompensationId,
		StaffId:           availability.StaffId,
		StaffName:         availability.StaffName,
		PeriodStart:       availability.PeriodStart.Format(utils.DateLayout),
		PeriodEnd:         availability.PeriodEnd.Format(utils.DateLayout),
		TotalCompensation: availability.TotalCompensation,
		Allocated:         availability.Allocated,
		Groups:            groups,
	})
}

// Approve godoc
// @Summary Charge a compensation to client budgets
// @Description Groups requested above their allocation balance are rejected unless acknowledgeBudgetExceeded is set
// @Tags Allocation
// @Accept json
// @Produce json
// @Param compensationId path int true "Compensation ID"
// @Param approval body ApprovalDTO true "Group to allocation mapping"
// @Success 200 {object} ResultDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} BudgetExceededResponse "Budget exceeded or already allocated"
// @Router /api/compensations/{compensationId}/allocate [post]
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := compensation.CompensationIdFromPath(w, r)
	if !ok {
		return
	}
	log.Debugf("Allocating compensation %d", id)
	var req ApprovalDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	approval := Approval{AcknowledgeBudgetExceeded: req.AcknowledgeBudgetExceeded}
	for _, a := range req.Allocations {
		approval.Requests = append(approval.Requests, Request{
			ClientId:     a.ClientId,
			ServiceType:  a.ServiceType,
			AllocationId: a.AllocationId,
			Amount:       a.Amount,
		})
	}
	result, err := h.service.Approve(r.Context(), id, approval)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ResultToDTO(result))
}

// ListAllocations godoc
// @Summary List the budget charges of a compensation
// @Tags Allocation
// @Produce json
// @Param compensationId path int true "Compensation ID"
// @Success 200 {object} ResultDTO
// @Failure 404 {object} rest.ErrorResponse "Compensation not found"
// @Router /api/compensations/{compensationId}/allocations [get]
func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	id, ok := compensation.CompensationIdFromPath(w, r)
	if !ok {
		return
	}
	result, err := h.service.Allocations(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ResultToDTO(result))
}

// ListClientDebts godoc
// @Summary Amounts clients owe directly for a compensation
// @Tags Allocation
// @Produce json
// @Param compensationId path int true "Compensation ID"
// @Success 200 {array} ClientDebtDTO
// @Failure 404 {object} rest.ErrorResponse "Compensation not found"
// @Router /api/compensations/{compensationId}/client-debts [get]
func (h *Handler) ListClientDebts(w http.ResponseWriter, r *http.Request) {
	id, ok := compensation.CompensationIdFromPath(w, r)
	if !ok {
		return
	}
	debts, err := h.service.ClientDebts(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	result := make([]ClientDebtDTO, 0, len(debts))
	for _, d := range debts {
		result = append(result, ClientDebtDTO{
			ClientId:   d.ClientId,
			ClientName: d.ClientName,
			Groups:     outcomesToDTO(d.Groups),
			TotalOwed:  d.TotalOwed,
		})
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var exceeded *BudgetExceededError
	switch {
	case errors.As(err, &exceeded):
		groups := make([]ExceededDTO, 0, len(exceeded.Groups))
		for _, g := range exceeded.Groups {
			groups = append(groups, ExceededDTO{
				ClientId:     g.ClientId,
				ServiceType:  g.ServiceType,
				AllocationId: g.AllocationId,
				Requested:    g.Requested,
				Available:    g.Available,
			})
		}
		rest.WriteJSON(w, http.StatusConflict, BudgetExceededResponse{
			Error:   "Budget exceeded",
			Details: "Confirm with acknowledgeBudgetExceeded to allocate beyond the available balance",
			Groups:  groups,
		})
	case errors.Is(err, ErrAllocationDataInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid allocation request", err.Error())
	case errors.Is(err, compensation.ErrCompensationNotFound):
		rest.WriteError(w, http.StatusNotFound, "Compensation not found", "")
	case errors.Is(err, budget.ErrAllocationNotFound):
		rest.WriteError(w, http.StatusBadRequest, "Budget allocation not found", err.Error())
	case errors.Is(err, client.ErrClientNotFound):
		rest.WriteError(w, http.StatusNotFound, "Client not found", "")
	case errors.Is(err, ErrAlreadyAllocated):
		rest.WriteError(w, http.StatusConflict, "Compensation has already been allocated", "")
	case errors.Is(err, ErrCompensationPaid):
		rest.WriteError(w, http.StatusConflict, "Compensation is already paid", "")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
