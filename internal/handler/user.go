package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/middleware"
)

type updateProfileReq struct {
    FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

type changePasswordReq struct {
    CurrentPassword string `json:"current_password" validate:"required,max=72"`
    NewPassword     string `json:"new_password" validate:"required,strongpassword,max=72"`
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Auth.Profile(ctx, middleware.Actor(c).UserID)
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, "Profile retrieved successfully", u)
}

// UpdateMe changes the display name.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
    var req updateProfileReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Auth.UpdateProfile(ctx, middleware.Actor(c), req.FullName, middleware.Meta(c))
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, "Profile updated successfully", u)
}

// ChangePassword signs the user out of every session.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
    var req changePasswordReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Auth.ChangePassword(ctx, middleware.Actor(c), req.CurrentPassword, req.NewPassword, middleware.Meta(c)); err != nil {
        return err
    }
    return respond(c, http.StatusOK, "Password changed successfully. Please login again.", nil)
}
