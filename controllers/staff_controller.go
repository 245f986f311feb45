package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"readify/models"
	"readify/services"
)

type StaffController struct {
	staff services.StaffService
}

func NewStaffController(staff services.StaffService) *StaffController {
	return &StaffController{staff: staff}
}

// ListStaff handles GET /admin/staff
func (sc *StaffController) ListStaff(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	staff, total, err := sc.staff.List(c.Request.Context(), strings.TrimSpace(c.Query("q")), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse("staff", staff, page, limit, total))
}

// GetStaff handles GET /admin/staff/:id
func (sc *StaffController) GetStaff(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	member, err := sc.staff.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": member})
}

// CreateStaff handles POST /admin/staff
func (sc *StaffController) CreateStaff(c *gin.Context) {
	var req models.CreateStaffRequest
	if !bindJSON(c, &req) {
		return
	}
	member, err := sc.staff.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"staff": member})
}

// UpdateStaff handles PUT /admin/staff/:id
func (sc *StaffController) UpdateStaff(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateStaffRequest
	if !bindJSON(c, &req) {
		return
	}
	member, err := sc.staff.Update(c.Request.Context(), p.AccountID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": member})
}

// DeleteStaff handles DELETE /admin/staff/:id
func (sc *StaffController) DeleteStaff(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := sc.staff.Delete(c.Request.Context(), p.AccountID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff member deleted"})
}
