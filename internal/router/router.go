package router

import (
	"database/sql"

	"restaurant_pos_backend/internal/handlers"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup wires repositories, services and handlers and registers all routes.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Repositories
	authRepo := repositories.NewAuthRepository(db)
	warehouseRepo := repositories.NewWarehouseRepository(db)
	recipeRepo := repositories.NewRecipeRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	txManager := repositories.NewTxManager(db)

	// Services
	authService := services.NewAuthService(authRepo, db)
	warehouseService := services.NewWarehouseService(warehouseRepo, txManager, db)
	recipeService := services.NewRecipeService(recipeRepo, menuRepo, warehouseRepo, txManager, db)
	reservationEngine := services.NewReservationEngine(recipeRepo, warehouseRepo)
	orderService := services.NewOrderService(orderRepo, menuRepo, reservationEngine, txManager, db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	warehouseHandler := handlers.NewWarehouseHandler(warehouseService)
	recipeHandler := handlers.NewRecipeHandler(recipeService)
	menuHandler := handlers.NewMenuHandler(menuRepo)
	orderHandler := handlers.NewOrderHandler(orderService)

	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1, authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated, authHandler)
		SetupWarehouseRoutes(authenticated, warehouseHandler)
		SetupRecipeRoutes(authenticated, recipeHandler)
		SetupMenuRoutes(authenticated, menuHandler)
		SetupOrderRoutes(authenticated, orderHandler)
	}
}
