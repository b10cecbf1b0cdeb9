package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/njprem/User_Hub_APP_BackEnd/internal/media"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/repository/ports"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/service"
	"github.com/njprem/User_Hub_APP_BackEnd/internal/util"
)

type UserHandler struct {
	accounts     *service.AccountService
	imageUploads bool
}

// RegisterUsers mounts the account lifecycle routes. imageUploads gates
// the profile-image endpoint, which needs object storage.
func RegisterUsers(e *echo.Echo, accounts *service.AccountService, imageUploads bool) {
	handler := &UserHandler{accounts: accounts, imageUploads: imageUploads}

	users := e.Group("/users")
	users.POST("", handler.register)
	users.GET("", handler.list, RequireAuth(accounts))
	users.GET("/me", handler.me, RequireAuth(accounts))
	users.GET("/verify/:code", handler.verify)
	users.POST("/login", handler.login)
	users.POST("/reset_password", handler.requestPasswordReset)
	users.POST("/reset_password/:code", handler.confirmPasswordReset)
	users.GET("/:id", handler.get, RequireAuth(accounts))
	users.PUT("/:id", handler.update, RequireAuth(accounts))
	users.DELETE("/:id", handler.remove, RequireAuth(accounts))
	if imageUploads {
		users.PUT("/:id/image", handler.updateImage, RequireAuth(accounts))
	}
}

func (h *UserHandler) list(c echo.Context) error {
	users, err := h.accounts.List(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	user, err := h.accounts.Register(c.Request().Context(), service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Country:      req.Country,
		Image:        req.Image,
		FrontBaseURL: req.FrontBaseURL,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("id must be numeric"))
	}
	user, err := h.accounts.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("id must be numeric"))
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	user, err := h.accounts.UpdateProfile(c.Request().Context(), id, ports.UserUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Country:   req.Country,
		Image:     req.Image,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) remove(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("id must be numeric"))
	}
	if err := h.accounts.Delete(c.Request().Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) verify(c echo.Context) error {
	user, err := h.accounts.Verify(c.Request().Context(), c.Param("code"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	result, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"user":  result.User,
		"token": result.Token,
	})
}

func (h *UserHandler) requestPasswordReset(c echo.Context) error {
	var req PasswordResetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	user, err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email, req.FrontBaseURL)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) confirmPasswordReset(c echo.Context) error {
	var req PasswordResetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	user, err := h.accounts.ConfirmPasswordReset(c.Request().Context(), c.Param("code"), req.Password)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"message": "Password updated successfully",
		"user":    user,
	})
}

func (h *UserHandler) me(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) updateImage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("id must be numeric"))
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("image file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("unable to read image file"))
	}
	defer file.Close()

	user, err := h.accounts.UpdateImage(c.Request().Context(), id, media.Upload{
		Reader:   file,
		Size:     fileHeader.Size,
		FileName: fileHeader.Filename,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func parseID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// serviceError maps service sentinels onto HTTP statuses.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, service.ErrImageInvalid):
		return c.JSON(http.StatusBadRequest, util.Error("invalid image upload"))
	case errors.Is(err, service.ErrEmailAlreadyUsed):
		return c.JSON(http.StatusConflict, util.Error("email already registered"))
	case errors.Is(err, service.ErrInvalidLogin):
		return c.JSON(http.StatusUnauthorized, util.Error("invalid login"))
	case errors.Is(err, service.ErrAccountNotVerified):
		return c.JSON(http.StatusUnauthorized, util.Error("account not verified"))
	case errors.Is(err, service.ErrInvalidPassword):
		return c.JSON(http.StatusUnauthorized, util.Error("invalid password"))
	case errors.Is(err, service.ErrInvalidCode):
		return c.JSON(http.StatusUnauthorized, util.Error("Invalid code"))
	case errors.Is(err, service.ErrAccountNotFound):
		return c.JSON(http.StatusUnauthorized, util.Error("account does not exist"))
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, util.Error("invalid or expired token"))
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, util.Error("user not found"))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("internal server error"))
	}
}
