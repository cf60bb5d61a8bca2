// Package api exposes the pipeline over HTTP with Gin.
package api

import (
	"github.com/gin-gonic/gin"

	"reviewlens/compare"
	"reviewlens/orchestrator"
	"reviewlens/store"
)

// Deps are the collaborators the HTTP layer delegates to.
type Deps struct {
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
	Compare      *compare.Engine
}

// NewRouter constructs a Gin engine with all routes registered.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterProductRoutes(r, deps.Store, deps.Orchestrator)
	RegisterCompareRoutes(r, deps.Compare)
	RegisterHealthRoutes(r)
	return r
}
