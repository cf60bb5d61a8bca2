package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewlens/compare"
	"reviewlens/types"
)

// RegisterCompareRoutes registers comparison endpoints.
func RegisterCompareRoutes(r *gin.Engine, engine *compare.Engine) {
	cc := &compareController{engine: engine}

	g := r.Group("/api/v1/compare")
	g.POST("", cc.create)
	g.GET("/:id", cc.get)
}

type compareController struct {
	engine *compare.Engine
}

// CompareRequest is the body of POST /api/v1/compare.
type CompareRequest struct {
	ProductIDs []string `json:"product_ids" binding:"required"`
}

func (cc *compareController) create(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, types.E(types.KindValidation, "invalid request body: %v", err))
		return
	}
	comparison, err := cc.engine.Compare(c.Request.Context(), req.ProductIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comparison)
}

func (cc *compareController) get(c *gin.Context) {
	comparison, err := cc.engine.GetComparison(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}
