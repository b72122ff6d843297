package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hackdesk/hackdesk/internal/perms"
)

func (v *View) registerFileHandlers(g *echo.Group) {
	g.GET(
		"/v0/files/:file/content", v.observeFileContent,
		v.extractAuth(v.sessionAuth, v.guestAuth),
		v.requirePermission(perms.ObserveFileContentRole),
	)
}

func (v *View) observeFileContent(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("file"), 10, 64)
	if err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid file ID."),
		}
	}
	if v.files == nil {
		return errorResponse{
			Code:    http.StatusServiceUnavailable,
			Message: localize(c, "File storage is not configured."),
		}
	}
	file, err := v.core.Files.Get(getContext(c), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return errorResponse{
				Code:    http.StatusNotFound,
				Message: localize(c, "File not found."),
			}
		}
		return err
	}
	content, err := v.files.DownloadFile(getContext(c), file.ID)
	if err != nil {
		return err
	}
	defer func() { _ = content.Close() }()
	name := "file"
	contentType := "application/octet-stream"
	if meta, err := file.GetMeta(); err == nil && meta.Name != "" {
		name = meta.Name
	}
	c.Response().Header().Set(
		"Content-Disposition",
		`attachment; filename="`+name+`"`,
	)
	return c.Stream(http.StatusOK, contentType, content)
}
