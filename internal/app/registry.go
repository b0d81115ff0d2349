package app

import (
	"database/sql"
	"os"
	"path/filepath"

	"go-expensio/internal/approval"
	"go-expensio/internal/approvalrule"
	"go-expensio/internal/auth"
	"go-expensio/internal/company"
	"go-expensio/internal/currency"
	"go-expensio/internal/expense"
	"go-expensio/internal/messaging/kafka"
	"go-expensio/internal/ocr"
	"go-expensio/internal/rbac"
	"go-expensio/internal/rbac/infra"
	"go-expensio/internal/shared/counter"
	"go-expensio/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	companyRepo := company.NewRepository(gormDB)
	userRepo := user.NewRepository(gormDB)
	ruleRepo := approvalrule.NewRepository(gormDB)
	expenseRepo := expense.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	companyService := company.NewService(companyRepo)
	ruleService := approvalrule.NewService(db, ruleRepo, userRepo)
	userService := user.NewService(db, userRepo, ruleService)
	authService := auth.NewService(db, userRepo, companyRepo, rbacService)
	currencyService := currency.NewService(rdb, os.Getenv("EXCHANGE_RATE_BASE_URL"))
	expenseService := expense.NewService(db, expenseRepo, userRepo, companyRepo, counterRepo, outboxRepo, currencyService)
	approvalService := approval.NewService(db, expenseRepo, ruleRepo, userRepo, outboxRepo)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService)
	companyHandler := company.NewHandler(companyService)
	userHandler := user.NewHandler(userService)
	ruleHandler := approvalrule.NewHandler(ruleService)
	expenseHandler := expense.NewHandlerWithRedis(expenseService, rdb)
	approvalHandler := approval.NewHandler(approvalService)
	currencyHandler := currency.NewHandler(currencyService)
	ocrHandler := ocr.NewHandler()

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		company.RegisterRoutes(api, companyHandler, rbacService)
		user.RegisterRoutes(api, userHandler, rbacService)
		approvalrule.RegisterRoutes(api, ruleHandler, rbacService)
		expense.RegisterRoutes(api, expenseHandler, rbacService, rdb)
		approval.RegisterRoutes(api, approvalHandler, rbacService)
		currency.RegisterRoutes(api, currencyHandler)
		ocr.RegisterRoutes(api, ocrHandler)
	}

	return nil
}
