package handler

import (
    "errors"
    "mime"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/apperr"
    "github.com/iliyamo/photo-platform/internal/middleware"
    "github.com/iliyamo/photo-platform/internal/model"
    "github.com/iliyamo/photo-platform/internal/repository"
    "github.com/iliyamo/photo-platform/internal/service"
)

// SubmissionHandler serves the owner-facing /v1/submissions routes.
type SubmissionHandler struct {
    Submissions *service.SubmissionService
}

func NewSubmissionHandler(s *service.SubmissionService) *SubmissionHandler {
    return &SubmissionHandler{Submissions: s}
}

// Upload accepts multipart/form-data with the metadata fields and a photo
// part. The submission is returned as pending; classification runs later.
func (h *SubmissionHandler) Upload(c echo.Context) error {
    fh, err := c.FormFile("photo")
    if err != nil {
        if tooLarge(err) {
            return apperr.Validation(apperr.CodeTooLarge, "photo exceeds the maximum upload size")
        }
        return apperr.Validation("missing_photo", "photo is required")
    }
    age, err := strconv.Atoi(strings.TrimSpace(c.FormValue("age")))
    if err != nil {
        return apperr.Validation("invalid_age", "age must be a number between 1 and 150")
    }
    var desc *string
    if v := c.FormValue("description"); v != "" {
        desc = &v
    }

    f, err := fh.Open()
    if err != nil {
        return apperr.Wrap(apperr.KindValidation, "unreadable_file", "photo could not be read", err)
    }
    defer f.Close()

    sub, err := h.Submissions.Upload(c.Request().Context(), middleware.Actor(c), service.UploadInput{
        Name:        c.FormValue("name"),
        Age:         age,
        Gender:      c.FormValue("gender"),
        Location:    c.FormValue("location"),
        Country:     c.FormValue("country"),
        Description: desc,
        File: service.UploadFile{
            Filename:    fh.Filename,
            ContentType: fh.Header.Get(echo.HeaderContentType),
            Size:        fh.Size,
            Content:     f,
        },
    }, middleware.Meta(c))
    if err != nil {
        return err
    }
    return respond(c, http.StatusCreated, "Submission uploaded successfully; classification is pending", sub)
}

func tooLarge(err error) bool {
    var mbe *http.MaxBytesError
    return errors.As(err, &mbe) || errors.Is(err, echo.ErrStatusRequestEntityTooLarge)
}

// pageParams reads page and page_size; bad values fall back to defaults.
func pageParams(c echo.Context) repository.Page {
    n, _ := strconv.Atoi(c.QueryParam("page"))
    size, _ := strconv.Atoi(c.QueryParam("page_size"))
    return repository.NewPage(n, size)
}

// List pages through the caller's submissions, newest first.
func (h *SubmissionHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    status := model.SubmissionStatus(strings.ToLower(strings.TrimSpace(c.QueryParam("status"))))
    list, err := h.Submissions.List(ctx, middleware.Actor(c), status, pageParams(c))
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, "", list)
}

// Get returns one of the caller's submissions.
func (h *SubmissionHandler) Get(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    sub, err := h.Submissions.Get(ctx, middleware.Actor(c), c.Param("id"))
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, "", sub)
}

// Delete soft-deletes one of the caller's submissions.
func (h *SubmissionHandler) Delete(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Submissions.Delete(ctx, middleware.Actor(c), c.Param("id"), middleware.Meta(c)); err != nil {
        return err
    }
    return respond(c, http.StatusOK, "Submission deleted successfully", nil)
}

// Photo streams the stored image.
func (h *SubmissionHandler) Photo(c echo.Context) error {
    rc, sub, err := h.Submissions.Photo(c.Request().Context(), middleware.Actor(c), c.Param("id"))
    if err != nil {
        return err
    }
    defer rc.Close()

    c.Response().Header().Set("Cache-Control", "private, max-age=3600")
    c.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("inline", map[string]string{"filename": sub.PhotoFilename}))
    return c.Stream(http.StatusOK, sub.PhotoMimeType, rc)
}
