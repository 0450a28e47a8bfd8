package http

import "github.com/gin-gonic/gin"

// Register registers the test entity routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	d, v := h.dispatcher, h.validator

	rg.GET("/test-entities", d.Handle(h.List, v.Stage(listSchema)))
	rg.GET("/test-entities/:id", d.Handle(h.Get, v.Stage(idSchema)))
	rg.POST("/test-entities", d.Handle(h.Create, v.Stage(createSchema)))
	rg.PUT("/test-entities/:id", d.Handle(h.Update, v.Stage(updateSchema)))
	rg.DELETE("/test-entities/:id", d.Handle(h.Delete, v.Stage(idSchema)))
}
