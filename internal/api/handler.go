package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"profitpro/internal/model"
	"profitpro/internal/service/excel"
	"profitpro/internal/service/project"
	memstore "profitpro/internal/service/store"
	backup "profitpro/internal/store"
)

// RequestIDKey 请求 ID 在 gin.Context 中的键
const RequestIDKey = "request_id"

// maxUploadSize 价目表上传大小上限
const maxUploadSize = 10 << 20

// BackupReader 历史快照查询
type BackupReader interface {
	List(limit int) ([]backup.Snapshot, error)
	Get(id int64) (*backup.Snapshot, error)
}

// Options 处理器依赖
type Options struct {
	Manager *project.Manager
	Backups BackupReader
	// ExportDir 为空时导出文件直接写入响应
	ExportDir string
	// LegacyMenu /api/ingredients 旧接口写入的菜单
	LegacyMenu string
	TopN       int
	Logger     *logrus.Logger
}

// Handler 菜单 API 处理器
type Handler struct {
	manager    *project.Manager
	store      *memstore.MemoryStore
	backups    BackupReader
	exporter   *excel.Exporter
	exportDir  string
	legacyMenu string
	topN       int
	log        *logrus.Logger
}

// NewHandler 创建处理器
func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.LegacyMenu == "" {
		if menus := opts.Manager.Defaults().Menus; len(menus) > 0 {
			opts.LegacyMenu = menus[0]
		}
	}
	return &Handler{
		manager:    opts.Manager,
		store:      opts.Manager.Store(),
		backups:    opts.Backups,
		exporter:   excel.NewExporter(),
		exportDir:  opts.ExportDir,
		legacyMenu: opts.LegacyMenu,
		topN:       opts.TopN,
		log:        opts.Logger,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 菜单
	router.GET("/menus", h.ListMenus)
	router.POST("/menus", h.CreateMenu)
	router.GET("/menus/:menu", h.GetMenu)
	router.PATCH("/menus/:menu/config", h.UpdateMenuConfig)

	// 菜品
	router.GET("/menus/:menu/dishes", h.ListDishes)
	router.POST("/menus/:menu/dishes", h.CreateDish)
	router.PUT("/menus/:menu/dishes/:id", h.UpdateDish)
	router.DELETE("/menus/:menu/dishes/:id", h.DeleteDish)

	// 原料
	router.GET("/menus/:menu/ingredients", h.ListIngredients)
	router.POST("/menus/:menu/ingredients", h.CreateIngredient)
	router.POST("/menus/:menu/ingredients/import", h.ImportIngredients)
	router.PUT("/menus/:menu/ingredients/:name", h.UpdateIngredient)
	router.DELETE("/menus/:menu/ingredients/:name", h.DeleteIngredient)

	// 旧版原料接口（固定写入默认菜单）
	router.POST("/ingredients", h.legacy(h.CreateIngredient))
	router.PUT("/ingredients/:name", h.legacy(h.UpdateIngredient))
	router.DELETE("/ingredients/:name", h.legacy(h.DeleteIngredient))

	// 成本与分析
	router.POST("/menus/:menu/cost", h.PreviewCost)
	router.GET("/menus/:menu/analysis", h.GetAnalysis)
	router.GET("/menus/:menu/export", h.ExportAnalysis)

	// 数据文件
	router.POST("/undo", h.Undo)
	router.GET("/backups", h.ListBackups)
	router.POST("/backups/:id/restore", h.RestoreBackup)
	router.GET("/status", h.GetStatus)
	router.GET("/document", h.DownloadDocument)
}

// legacy 旧接口没有 :menu 参数，补为默认菜单
func (h *Handler) legacy(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Params = append(c.Params, gin.Param{Key: "menu", Value: h.legacyMenu})
		next(c)
	}
}

// Response 通用响应
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Error: message})
}

// fail 按错误类型返回状态码；500 记录日志且不向客户端暴露细节
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.entry(c).WithError(err).Error("request failed")
		errorResponse(c, status, "Internal server error")
		return
	}
	errorResponse(c, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalid),
		errors.Is(err, excel.ErrNoHeader),
		errors.Is(err, excel.ErrNoSheet):
		return http.StatusBadRequest
	case errors.Is(err, memstore.ErrMenuNotFound),
		errors.Is(err, memstore.ErrItemNotFound),
		errors.Is(err, memstore.ErrIngredientNotFound),
		errors.Is(err, backup.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, memstore.ErrMenuExists),
		errors.Is(err, project.ErrNoUndo):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) entry(c *gin.Context) *logrus.Entry {
	return h.log.WithFields(logrus.Fields{
		"request_id": c.GetString(RequestIDKey),
		"path":       c.FullPath(),
	})
}

// mutate 执行修改并记录日志
func (h *Handler) mutate(c *gin.Context, reason string, cmd memstore.Command) error {
	if err := h.manager.Mutate(reason, cmd); err != nil {
		return err
	}
	h.entry(c).WithField("reason", reason).Info("menus updated")
	return nil
}

func badRequest(c *gin.Context, err error) {
	errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
}
