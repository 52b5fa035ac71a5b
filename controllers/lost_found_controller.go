package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"campuslink/app"
	"campuslink/db"
	"campuslink/logger"
	"campuslink/lostfound"
	"campuslink/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// Reporter files a submission and runs the match scan.
type Reporter interface {
	Report(ctx context.Context, in lostfound.NewReport) (*lostfound.MatchResult, error)
}

// ItemRepo is the read/modify side of the item repository.
type ItemRepo interface {
	ListItems(ctx context.Context) ([]models.LostFoundItem, error)
	ListItemsByReporter(ctx context.Context, reporterID string) ([]models.LostFoundItem, error)
	FindItemByID(ctx context.Context, id string) (*models.LostFoundItem, error)
	UpdateItem(ctx context.Context, it *models.LostFoundItem, p db.ItemPatch) error
	DeleteItem(ctx context.Context, id string) error
}

type LostFoundController struct {
	svc  Reporter
	repo ItemRepo
	log  *zap.Logger
}

func NewLostFoundController(svc Reporter, repo ItemRepo) *LostFoundController {
	return &LostFoundController{svc: svc, repo: repo, log: logger.Named("lostfound_http")}
}

type createItemReq struct {
	Type           models.ItemType `json:"type" binding:"required,oneof=lost found"`
	Item           string          `json:"item" binding:"required"`
	Category       string          `json:"category" binding:"required"`
	Description    string          `json:"description" binding:"required"`
	Location       string          `json:"location" binding:"required"`
	ImageURL       string          `json:"imageUrl"`
	GeminiAnalysis string          `json:"geminiAnalysis"`
}

// trim 去掉首尾空白；之后重新校验，纯空白的必填字段按缺失处理
func (r *createItemReq) trim() {
	r.Item = strings.TrimSpace(r.Item)
	r.Category = strings.TrimSpace(r.Category)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	r.GeminiAnalysis = strings.TrimSpace(r.GeminiAnalysis)
}

type updateItemReq struct {
	Type           models.ItemType `json:"type" binding:"omitempty,oneof=lost found"`
	Item           string          `json:"item"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	Location       string          `json:"location"`
	ImageURL       string          `json:"imageUrl"`
	GeminiAnalysis string          `json:"geminiAnalysis"`
}

// GET /api/lost-and-found
func (lc *LostFoundController) List(c *gin.Context) {
	items, err := lc.repo.ListItems(c.Request.Context())
	if err != nil {
		lc.log.Error("list items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /api/lost-and-found/mine
func (lc *LostFoundController) Mine(c *gin.Context) {
	items, err := lc.repo.ListItemsByReporter(c.Request.Context(), app.UserID(c))
	if err != nil {
		lc.log.Error("list own items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /api/lost-and-found
// found 类型的提交会同步扫描 lost 记录并通知匹配者
func (lc *LostFoundController) Create(c *gin.Context) {
	var req createItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "bad request: " + err.Error()})
		return
	}
	req.trim()
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "bad request: " + err.Error()})
		return
	}

	res, err := lc.svc.Report(c.Request.Context(), lostfound.NewReport{
		Type:           req.Type,
		Item:           req.Item,
		Category:       req.Category,
		Description:    req.Description,
		Location:       req.Location,
		ImageURL:       req.ImageURL,
		GeminiAnalysis: req.GeminiAnalysis,
		ReporterID:     app.UserID(c),
	})
	if err != nil {
		lc.log.Error("create item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusCreated, res)
}

// 只有发布者本人或管理员可以修改/删除
func (lc *LostFoundController) loadOwned(c *gin.Context) (*models.LostFoundItem, bool) {
	it, err := lc.repo.FindItemByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
		return nil, false
	}
	if err != nil {
		lc.log.Error("find item", zap.String("item_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return nil, false
	}
	if !it.OwnedBy(app.UserID(c)) && !c.GetBool("isAdmin") {
		c.JSON(http.StatusForbidden, app.H{"error": "not authorized to modify this item"})
		return nil, false
	}
	return it, true
}

// PUT /api/lost-and-found/:id
func (lc *LostFoundController) Update(c *gin.Context) {
	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "bad request: " + err.Error()})
		return
	}
	it, ok := lc.loadOwned(c)
	if !ok {
		return
	}
	patch := db.ItemPatch{
		Type:           req.Type,
		Item:           strings.TrimSpace(req.Item),
		Category:       strings.TrimSpace(req.Category),
		Description:    strings.TrimSpace(req.Description),
		Location:       strings.TrimSpace(req.Location),
		ImageURL:       strings.TrimSpace(req.ImageURL),
		GeminiAnalysis: strings.TrimSpace(req.GeminiAnalysis),
	}
	if err := lc.repo.UpdateItem(c.Request.Context(), it, patch); err != nil {
		lc.log.Error("update item", zap.String("item_id", it.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, it)
}

// DELETE /api/lost-and-found/:id
func (lc *LostFoundController) Delete(c *gin.Context) {
	it, ok := lc.loadOwned(c)
	if !ok {
		return
	}
	if err := lc.repo.DeleteItem(c.Request.Context(), it.ID); err != nil {
		if errors.Is(err, db.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
			return
		}
		lc.log.Error("delete item", zap.String("item_id", it.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, app.H{"msg": "Item removed"})
}
