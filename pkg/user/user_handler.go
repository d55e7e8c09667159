package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/homecare-coop/backoffice/internal/auth"
	"github.com/homecare-coop/backoffice/internal/rest"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Id        int    `json:"id"`
	Uid       string `json:"uid"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	// Password is write only: accepted on create and update, never returned.
	Password string `json:"password,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionTokens interface {
	Issue(userUid string, role auth.Role) (string, time.Time, error)
}

type CookieSettings struct {
	Name   string
	Secure bool
}

type Handler struct {
	userService Service
	tokens      SessionTokens
	cookie      CookieSettings
}

func NewHandler(userService Service, tokens SessionTokens, cookie CookieSettings) *Handler {
	return &Handler{
		userService: userService,
		tokens:      tokens,
		cookie:      cookie,
	}
}

func userToDTO(user User) UserDTO {
	return UserDTO{
		Id:        user.Id,
		Uid:       user.Uid,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
	}
}

// Login godoc
// @Summary Log in
// @Description Verify credentials and set the session cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 401 {object} rest.ErrorResponse "Invalid credentials"
// @Router /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log.Debug("Logging in")

	var request LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if request.Email == "" || request.Password == "" {
		rest.WriteError(w, http.StatusBadRequest, "Email and password are required", "")
		return
	}

	authenticated, err := h.userService.Authenticate(r.Context(), request.Email, request.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			rest.WriteError(w, http.StatusUnauthorized, "Invalid credentials", "")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.tokens.Issue(authenticated.Uid, authenticated.Role)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	rest.WriteJSON(w, http.StatusOK, userToDTO(authenticated))
}

// Logout godoc
// @Summary Log out
// @Description Clear the session cookie
// @Tags Auth
// @Success 204 "No Content"
// @Router /api/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// CurrentUser godoc
// @Summary Get current user
// @Tags Auth
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 401 {object} rest.ErrorResponse "Not authenticated"
// @Router /api/auth/user [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	current, err := CurrentUser(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(current))
}

// ListUsers godoc
// @Summary List users
// @Tags User
// @Produce json
// @Success 200 {array} UserDTO
// @Router /api/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing users")
	users, err := h.userService.GetAllUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, userToDTO(u))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateUser godoc
// @Summary Create a new user
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 201 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Email taken"
// @Router /api/users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating user")

	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}

	created, err := h.userService.CreateUser(r.Context(), NewUser{
		Email:     dto.Email,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Role:      auth.Role(dto.Role),
		Password:  dto.Password,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, userToDTO(created))
}

// UpdateUser godoc
// @Summary Update a user
// @Tags User
// @Accept json
// @Produce json
// @Param userId path int true "User ID"
// @Param user body UserDTO true "User"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "User not found"
// @Router /api/users/{userId} [put]
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userId, err := strconv.Atoi(mux.Vars(r)["userId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid user id", err.Error())
		return
	}
	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	updated, err := h.userService.UpdateUser(r.Context(), User{
		Id:        userId,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Role:      auth.Role(dto.Role),
	}, dto.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(updated))
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags User
// @Param userId path int true "User ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "User not found"
// @Failure 409 {object} rest.ErrorResponse "Cannot delete yourself"
// @Router /api/users/{userId} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userId, err := strconv.Atoi(mux.Vars(r)["userId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid user id", err.Error())
		return
	}
	if err := h.userService.DeleteUser(r.Context(), userId); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserDataInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid user data", err.Error())
	case errors.Is(err, ErrUserNotFound):
		rest.WriteError(w, http.StatusNotFound, "User not found", "")
	case errors.Is(err, ErrEmailTaken):
		rest.WriteError(w, http.StatusConflict, "Email already registered", "")
	case errors.Is(err, ErrDeletingSelf):
		rest.WriteError(w, http.StatusConflict, "Cannot delete the current user", "")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
