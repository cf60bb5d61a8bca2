package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"reviewlens/orchestrator"
	"reviewlens/store"
	"reviewlens/types"
)

// RegisterProductRoutes registers product and pipeline endpoints.
func RegisterProductRoutes(r *gin.Engine, s store.Store, orch *orchestrator.Orchestrator) {
	pc := &productController{store: s, orch: orch}

	g := r.Group("/api/v1/products")
	g.POST("", pc.create)
	g.GET("", pc.list)
	g.GET("/:id", pc.get)
	g.POST("/:id/analyze", pc.analyze)
	g.GET("/:id/status", pc.status)
}

type productController struct {
	store store.Store
	orch  *orchestrator.Orchestrator
}

// CreateProductRequest is the body of POST /api/v1/products.
type CreateProductRequest struct {
	ProductName string            `json:"product_name" binding:"required"`
	Metadata    map[string]string `json:"metadata"`
}

// create registers a product. The id is a slug of the name, so creating the
// same product twice returns the existing record instead of a duplicate.
func (pc *productController) create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, types.E(types.KindValidation, "invalid request body: %v", err))
		return
	}
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		writeError(c, types.E(types.KindValidation, "product_name must not be blank"))
		return
	}
	id := types.ProductID(name)
	if id == "" {
		writeError(c, types.E(types.KindValidation, "product_name %q contains no usable characters", name))
		return
	}

	if existing, err := pc.store.GetProduct(c.Request.Context(), id); err == nil {
		c.JSON(http.StatusOK, existing)
		return
	} else if !types.IsKind(err, types.KindNotFound) {
		writeError(c, err)
		return
	}

	p := &types.Product{
		ID:        id,
		Name:      name,
		Status:    types.StatusPending,
		CreatedAt: time.Now().UTC(),
		Metadata:  req.Metadata,
	}
	if err := pc.store.PutProduct(c.Request.Context(), p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (pc *productController) list(c *gin.Context) {
	products, err := pc.store.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// get returns the product, embedding the analysis once one exists.
func (pc *productController) get(c *gin.Context) {
	id := c.Param("id")
	p, err := pc.store.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"product": p}
	if p.Status == types.StatusCompleted {
		analysis, err := pc.store.GetAnalysis(c.Request.Context(), id)
		if err == nil {
			resp["analysis"] = analysis
		} else if !types.IsKind(err, types.KindNotFound) {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// analyze queues a pipeline run and returns immediately.
func (pc *productController) analyze(c *gin.Context) {
	id := c.Param("id")
	if err := pc.orch.StartAnalysis(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"product_id": id,
		"status":     string(types.StatusProcessing),
		"message":    "Analysis started",
	})
}

func (pc *productController) status(c *gin.Context) {
	report, err := pc.orch.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
