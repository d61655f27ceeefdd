package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateBackup runs a full database dump. Admin only.
func (h *Handler) CreateBackup(c *gin.Context) {
	info, err := h.backups.Create(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	created(c, info)
}

// ListBackups returns stored dumps, newest first. Admin only.
func (h *Handler) ListBackups(c *gin.Context) {
	infos, err := h.backups.List()
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, infos)
}

type restoreRequest struct {
	Name string `json:"name" binding:"required"`
}

// RestoreBackup replays a stored dump into the database. Admin only.
func (h *Handler) RestoreBackup(c *gin.Context) {
	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.backups.Restore(c.Request.Context(), req.Name); err != nil {
		fail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	ok(c, nil)
}

// DownloadBackup streams a stored dump file. Admin only.
func (h *Handler) DownloadBackup(c *gin.Context) {
	f, err := h.backups.Open(c.Param("name"))
	if err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		failErr(c, err)
		return
	}
	c.DataFromReader(http.StatusOK, st.Size(), "application/sql",
		f, map[string]string{
			"Content-Disposition": "attachment; filename=" + st.Name(),
		})
}
