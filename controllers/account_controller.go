package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"readify/models"
	"readify/services"
)

type AccountController struct {
	accounts services.AccountService
}

func NewAccountController(accounts services.AccountService) *AccountController {
	return &AccountController{accounts: accounts}
}

// ListAccounts handles GET /admin/account
func (ac *AccountController) ListAccounts(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	filter := models.AccountFilter{
		Query:  strings.TrimSpace(c.Query("q")),
		Role:   models.Role(c.Query("role")),
		Status: models.AccountStatus(c.Query("status")),
	}
	switch filter.Role {
	case "", models.RoleCustomer, models.RoleStaff, models.RoleAdmin:
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}
	switch filter.Status {
	case "", models.AccountActive, models.AccountBanned:
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	accounts, total, err := ac.accounts.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse("accounts", accounts, page, limit, total))
}

// GetAccount handles GET /admin/account/:id
func (ac *AccountController) GetAccount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	account, err := ac.accounts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// CreateAccount handles POST /admin/account
func (ac *AccountController) CreateAccount(c *gin.Context) {
	var req models.CreateAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := ac.accounts.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// UpdateAccount handles PUT /admin/account/:id
func (ac *AccountController) UpdateAccount(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := ac.accounts.Update(c.Request.Context(), p.AccountID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateAccountStatus handles PATCH /admin/account/:id/status
func (ac *AccountController) UpdateAccountStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateAccountStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := ac.accounts.UpdateStatus(c.Request.Context(), p.AccountID, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DeleteAccount handles DELETE /admin/account/:id
func (ac *AccountController) DeleteAccount(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := ac.accounts.Delete(c.Request.Context(), p.AccountID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
