package routes

import (
	"github.com/gin-gonic/gin"

	"conversiq-server/internal/interfaces/httpserver/handlers"
)

// Routes registers the /api endpoints.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all routes under /api. Paths keep their trailing slash;
// gin redirects the slash-less form.
func (r *Routes) Register(router gin.IRouter) {
	api := router.Group("/api")

	conversations := api.Group("/conversations")
	conversations.GET("/", r.handlers.Conversations.List)
	conversations.POST("/", r.handlers.Conversations.Create)
	conversations.GET("/:id/", r.handlers.Conversations.Get)
	conversations.PATCH("/:id/", r.handlers.Conversations.Update)
	conversations.DELETE("/:id/", r.handlers.Conversations.Delete)
	conversations.POST("/:id/add_message/", r.handlers.Conversations.AddMessage)
	conversations.POST("/:id/end/", r.handlers.Conversations.End)

	api.GET("/search/", r.handlers.Search.Search)
	api.GET("/recall/", r.handlers.Search.Recall)
}
