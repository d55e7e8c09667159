package client

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

type ClientDTO struct {
	Id            int             `json:"id"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Address       string          `json:"address,omitempty"`
	DateOfBirth   string          `json:"dateOfBirth,omitempty"`
	ServiceType   string          `json:"serviceType"`
	Status        string          `json:"status"`
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
	Notes         string          `json:"notes,omitempty"`
	ExternalId    string          `json:"externalId,omitempty"`
	TaxCode       string          `json:"taxCode,omitempty"`
	CreatedAt     *time.Time      `json:"createdAt,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func ClientToDTO(c Client) ClientDTO {
	dto := ClientDTO{
		Id:            c.Id,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       c.Address,
		ServiceType:   c.ServiceType,
		Status:        string(c.Status),
		MonthlyBudget: c.MonthlyBudget,
		Notes:         c.Notes,
		ExternalId:    c.ExternalId,
		TaxCode:       c.TaxCode,
	}
	if c.DateOfBirth != nil {
		dto.DateOfBirth = c.DateOfBirth.Format(utils.DateLayout)
	}
	if !c.CreatedAt.IsZero() {
		createdAt := c.CreatedAt
		dto.CreatedAt = &createdAt
	}
	return dto
}

func DTOToClient(dto ClientDTO) (Client, error) {
	c := Client{
		Id:            dto.Id,
		FirstName:     dto.FirstName,
		LastName:      dto.LastName,
		Email:         dto.Email,
		Phone:         dto.Phone,
		Address:       dto.Address,
		ServiceType:   dto.ServiceType,
		Status:        Status(dto.Status),
		MonthlyBudget: dto.MonthlyBudget,
		Notes:         dto.Notes,
		ExternalId:    dto.ExternalId,
		TaxCode:       dto.TaxCode,
	}
	if dto.DateOfBirth != "" {
		dob, err := utils.ParseDate(dto.DateOfBirth)
		if err != nil {
			return Client{}, err
		}
		c.DateOfBirth = &dob
	}
	return c, nil
}

// ListClients godoc
// @Summary List clients
// @Tags Client
// @Produce json
// @Param status query string false "Filter by status"
// @Param search query string false "Search by name, external id or tax code"
// @Success 200 {array} ClientDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid filter"
// @Router /api/clients [get]
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing clients")
	filter := Filter{
		Status: Status(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
	}
	clients, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]ClientDTO, 0, len(clients))
	for _, c := range clients {
		dtos = append(dtos, ClientToDTO(c))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// GetClient godoc
// @Summary Get a client
// @Tags Client
// @Produce json
// @Param clientId path int true "Client ID"
// @Success 200 {object} ClientDTO
// @Failure 404 {object} rest.ErrorResponse "Client not found"
// @Router /api/clients/{clientId} [get]
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIdFromPath(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ClientToDTO(c))
}

// CreateClient godoc
// @Summary Create a client
// @Description Status defaults to active when omitted
// @Tags Client
// @Accept json
// @Produce json
// @Param client body ClientDTO true "Client"
// @Success 201 {object} ClientDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid client"
// @Failure 409 {object} rest.ErrorResponse "Duplicate external id"
// @Router /api/clients [post]
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating client")
	var dto ClientDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	c, err := DTOToClient(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date of birth", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), c)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ClientToDTO(created))
}

// UpdateClient godoc
// @Summary Update a client
// @Tags Client
// @Accept json
// @Produce json
// @Param clientId path int true "Client ID"
// @Param client body ClientDTO true "Client"
// @Success 200 {object} ClientDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid client"
// @Failure 404 {object} rest.ErrorResponse "Client not found"
// @Router /api/clients/{clientId} [put]
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIdFromPath(w, r)
	if !ok {
		return
	}
	var dto ClientDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	c, err := DTOToClient(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date of birth", err.Error())
		return
	}
	c.Id = id
	updated, err := h.service.Update(r.Context(), c)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ClientToDTO(updated))
}

// DeleteClient godoc
// @Summary Delete a client
// @Tags Client
// @Param clientId path int true "Client ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Client not found"
// @Failure 409 {object} rest.ErrorResponse "Client in use"
// @Router /api/clients/{clientId} [delete]
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := clientIdFromPath(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func clientIdFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["clientId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid client id", err.Error())
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrClientDataInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid client data", err.Error())
	case errors.Is(err, ErrClientNotFound):
		rest.WriteError(w, http.StatusNotFound, "Client not found", "")
	case errors.Is(err, ErrDuplicateExternalId):
		rest.WriteError(w, http.StatusConflict, "Duplicate external id", err.Error())
	case errors.Is(err, ErrClientInUse):
		rest.WriteError(w, http.StatusConflict, "Client is referenced by time logs or budgets", "")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
