package router

import (
	"restaurant_pos_backend/internal/handlers"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes sets up the authentication routes that require no
// token.
func SetupPublicAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh-token", authHandler.Refresh)
	}
}

// SetupAuthenticatedAuthRoutes sets up the auth routes behind the JWT check.
func SetupAuthenticatedAuthRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := authenticatedGroup.Group("/auth")
	{
		authRoutes.GET("/me", authHandler.Me)
	}
}

// SetupWarehouseRoutes sets up the stock ledger routes. Reads are open to all
// staff; mutations are limited to admins and managers because every mutation
// lands in the audit trail under the caller's name.
func SetupWarehouseRoutes(authenticatedGroup *gin.RouterGroup, warehouseHandler *handlers.WarehouseHandler) {
	warehouseRoutes := authenticatedGroup.Group("/warehouse")
	{
		warehouseRoutes.GET("/items", warehouseHandler.GetItems)
		warehouseRoutes.GET("/items/:id", warehouseHandler.GetItemByID)
		warehouseRoutes.GET("/low-stock", warehouseHandler.LowStock)
		warehouseRoutes.GET("/value", warehouseHandler.TotalValue)
		warehouseRoutes.GET("/operations", warehouseHandler.GetOperations)

		mutating := warehouseRoutes.Group("")
		mutating.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager))
		{
			mutating.POST("/items", warehouseHandler.CreateItem)
			mutating.POST("/items/:id/incoming", warehouseHandler.Incoming)
			mutating.POST("/items/:id/outgoing", warehouseHandler.Outgoing)
			mutating.POST("/items/:id/write-off", warehouseHandler.WriteOff)
		}
	}
}

// SetupRecipeRoutes sets up the recipe catalog routes. Authoring is limited
// to admins and managers; every staff member may read.
func SetupRecipeRoutes(authenticatedGroup *gin.RouterGroup, recipeHandler *handlers.RecipeHandler) {
	recipeRoutes := authenticatedGroup.Group("/recipes")
	{
		recipeRoutes.GET("", recipeHandler.GetRecipes)
		recipeRoutes.GET("/dish/:dishId", recipeHandler.GetRecipeForDish)

		authoring := recipeRoutes.Group("")
		authoring.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager))
		{
			authoring.POST("", recipeHandler.CreateRecipe)
			authoring.PUT("/:id", recipeHandler.ReviseRecipe)
			authoring.DELETE("/:id", recipeHandler.DeleteRecipe)
		}
	}
}

// SetupMenuRoutes sets up the read-only menu routes.
func SetupMenuRoutes(authenticatedGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menuRoutes := authenticatedGroup.Group("/menu")
	{
		menuRoutes.GET("", menuHandler.GetDishes)
		menuRoutes.GET("/:id", menuHandler.GetDishByID)
	}
}

// SetupOrderRoutes sets up the order routes. All staff roles take orders.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager, models.RoleWaiter))
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.POST("/:id/items", orderHandler.AddLine)
		orderRoutes.PUT("/:id/items/:lineId", orderHandler.UpdateLine)
		orderRoutes.DELETE("/:id/items/:lineId", orderHandler.RemoveLine)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateStatus)
		orderRoutes.POST("/:id/cancel", orderHandler.CancelOrder)
	}
}
