package handler

import (
    "mime"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/photo-platform/internal/middleware"
    "github.com/iliyamo/photo-platform/internal/service"
)

// Export streams the filtered submissions as an attachment in the format
// named by the :format path parameter. An optional limit caps the rows.
func (h *AdminHandler) Export(c echo.Context) error {
    format, err := service.ParseExportFormat(c.Param("format"))
    if err != nil {
        return err
    }
    f, err := filterParams(c)
    if err != nil {
        return err
    }
    limit, err := optInt(c, "limit")
    if err != nil {
        return err
    }
    n := 0
    if limit != nil {
        n = *limit
    }

    hdr := c.Response().Header()
    hdr.Set(echo.HeaderContentType, format.ContentType())
    hdr.Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": format.Filename(h.now())}))

    // no request timeout: exports stream for as long as the cursor runs
    err = h.Admin.Export(c.Request().Context(), middleware.Actor(c), format, f, sortParams(c), n, c.Response(), middleware.Meta(c))
    if err != nil && !c.Response().Committed {
        hdr.Del(echo.HeaderContentDisposition)
    }
    return err
}
