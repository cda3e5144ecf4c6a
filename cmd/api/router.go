package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"flux/internal/handlers"
	"flux/internal/middleware"
	"flux/internal/services"

	_ "flux/internal/docs" // Import swagger docs
)

// routerDeps are the services behind the HTTP surface.
type routerDeps struct {
	Users      services.UserServicer
	Expenses   services.ExpenseServicer
	Incomes    services.IncomeServicer
	Balances   services.BalanceServicer
	Assistant  services.AssistantServicer
	Calendar   services.CalendarServicer
	Ping       func(ctx context.Context) error
	CORSOrigin string
}

// newRouter wires middleware, handlers and routes.
func newRouter(deps routerDeps) *gin.Engine {
	authHandler := handlers.NewAuthHandler(deps.Users)
	userHandler := handlers.NewUserHandler(deps.Users)
	expenseHandler := handlers.NewExpenseHandler(deps.Expenses)
	incomeHandler := handlers.NewIncomeHandler(deps.Incomes)
	balanceHandler := handlers.NewBalanceHandler(deps.Balances)
	assistantHandler := handlers.NewAssistantHandler(deps.Assistant)
	calendarHandler := handlers.NewCalendarHandler(deps.Calendar)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(deps.CORSOrigin))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.Users))

	users := protected.Group("/users")
	users.GET("", userHandler.ListUsers)
	users.GET("/me", userHandler.Me)
	users.GET("/email", userHandler.GetUserByEmail)
	users.GET("/:id", userHandler.GetUserByID)
	users.PUT("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.POST("/batch", expenseHandler.CreateExpenses)
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.DELETE("/clear", expenseHandler.ClearExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	incomes := protected.Group("/incomes")
	incomes.POST("", incomeHandler.CreateIncome)
	incomes.POST("/batch", incomeHandler.CreateIncomes)
	incomes.GET("", incomeHandler.ListIncomes)
	incomes.DELETE("/clear", incomeHandler.ClearIncomes)
	incomes.GET("/:id", incomeHandler.GetIncome)
	incomes.PUT("/:id", incomeHandler.UpdateIncome)
	incomes.DELETE("/:id", incomeHandler.DeleteIncome)

	balances := protected.Group("/balances")
	balances.GET("/current", balanceHandler.CurrentBalance)
	balances.GET("/history", balanceHandler.History)
	balances.GET("/history/period", balanceHandler.HistoryByPeriod)
	balances.GET("/expenses-incomes", balanceHandler.ExpensesAndIncomes)
	balances.POST("/calculate", balanceHandler.Calculate)
	balances.DELETE("/clear", balanceHandler.Clear)

	assistant := protected.Group("/assistant")
	assistant.POST("", assistantHandler.Ask)
	assistant.GET("/history", assistantHandler.History)
	assistant.DELETE("/history", assistantHandler.ClearHistory)

	calendarRoutes := protected.Group("/calendar")
	calendarRoutes.GET("/events", calendarHandler.ListEvents)
	calendarRoutes.POST("/events", calendarHandler.CreateEvent)
	calendarRoutes.PUT("/events/:eventId", calendarHandler.UpdateEvent)
	calendarRoutes.DELETE("/events/:eventId", calendarHandler.DeleteEvent)

	return router
}
