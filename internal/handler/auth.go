package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/apperr"
    "github.com/iliyamo/photo-platform/internal/auth"
    "github.com/iliyamo/photo-platform/internal/middleware"
    "github.com/iliyamo/photo-platform/internal/model"
    "github.com/iliyamo/photo-platform/internal/service"
)

// AuthHandler serves /v1/auth and /v1/users.
type AuthHandler struct {
    Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
    return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type registerReq struct {
    Email    string  `json:"email" validate:"required,email,max=255"`
    Username string  `json:"username" validate:"required,username"`
    Password string  `json:"password" validate:"required,strongpassword,max=72"`
    FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

type loginReq struct {
    Username string `json:"username" validate:"required,max=255"`
    Password string `json:"password" validate:"required,max=72"`
}

type refreshReq struct {
    RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutReq struct {
    RefreshToken string `json:"refresh_token"`
}

type registerResp struct {
    User model.User `json:"user"`
    auth.Pair
}

var errInvalidBody = apperr.Validation("invalid_body", "invalid request body")

// bind decodes the JSON body into req and validates it.
func bind(c echo.Context, req interface{}) error {
    if err := c.Bind(req); err != nil {
        return errInvalidBody
    }
    return c.Validate(req)
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, pair, err := h.Auth.Register(ctx, service.RegisterInput{
        Email:    strings.TrimSpace(req.Email),
        Username: req.Username,
        Password: req.Password,
        FullName: req.FullName,
    }, middleware.Meta(c))
    if err != nil {
        return err
    }
    return respond(c, http.StatusCreated, "User registered successfully", registerResp{User: u, Pair: pair})
}

// Login accepts a username or an email in the username field.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    pair, _, err := h.Auth.Login(ctx, strings.TrimSpace(req.Username), req.Password, middleware.Meta(c))
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, "Login successful", pair)
}

// Refresh rotates the refresh token; the presented one is revoked.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    pair, err := h.Auth.Refresh(ctx, req.RefreshToken, middleware.Meta(c))
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, "Token refreshed successfully", pair)
}

// Logout blacklists the bearer token and revokes the refresh token in the
// body, if any.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req logoutReq
    if c.Request().ContentLength != 0 {
        if err := c.Bind(&req); err != nil {
            return errInvalidBody
        }
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Auth.Logout(ctx, middleware.Claims(c), req.RefreshToken, middleware.Meta(c)); err != nil {
        return err
    }
    return respond(c, http.StatusOK, "Logout successful", nil)
}
