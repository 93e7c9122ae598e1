package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	backup "profitpro/internal/store"
)

// Undo 撤销上一次修改
// POST /api/undo
func (h *Handler) Undo(c *gin.Context) {
	if err := h.manager.UndoLast(); err != nil {
		h.fail(c, err)
		return
	}
	h.entry(c).Info("last change undone")
	success(c, h.store.Snapshot())
}

// ListBackups 历史快照列表
// GET /api/backups?limit=50
func (h *Handler) ListBackups(c *gin.Context) {
	if h.backups == nil {
		success(c, []backup.Snapshot{})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.backups.List(limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, list)
}

// RestoreBackup 恢复历史快照（可撤销）
// POST /api/backups/:id/restore
func (h *Handler) RestoreBackup(c *gin.Context) {
	if h.backups == nil {
		errorResponse(c, http.StatusNotFound, "Backups are disabled")
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorResponse(c, http.StatusBadRequest, "Invalid backup id")
		return
	}
	snap, err := h.backups.Get(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.manager.Restore(fmt.Sprintf("restore backup %d", id), snap.Document); err != nil {
		h.fail(c, err)
		return
	}
	h.entry(c).WithField("backup", id).Info("backup restored")
	success(c, gin.H{"restored": id, "createdAt": snap.CreatedAt})
}

// DownloadDocument 下载完整数据文件
// GET /api/document
func (h *Handler) DownloadDocument(c *gin.Context) {
	data, err := h.manager.Document()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", contentDisposition("menus.json"))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// GetStatus 数据文件状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	success(c, h.manager.Status())
}
