package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/uni-admin/enrollment-api/internal/models"
	"github.com/uni-admin/enrollment-api/internal/service"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
	"github.com/uni-admin/enrollment-api/pkg/response"
)

// CourseHandler exposes catalog browsing and admin course management.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List godoc
// @Summary Browse the course catalog
// @Tags Courses
// @Produce json
// @Param search query string false "Search by code, name or professor"
// @Param department query string false "Filter by department"
// @Param status query string false "Filter by status (admins and professors only)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Department = c.Query("department")
	filter.Status = models.CourseStatus(strings.ToLower(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	// Anonymous and student callers browse the approved catalog only;
	// admins and professors may filter any status.
	claims := claimsFromContext(c)
	if claims == nil || claims.Role == models.RoleStudent {
		filter.Status = models.CourseStatusApproved
	}

	courses, pagination := h.courses.List(c.Request.Context(), filter)
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get a course
// @Tags Courses
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/{code} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Add a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Course fields"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Edit a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param code path string true "Course code"
// @Param payload body service.CourseRequest true "Course fields"
// @Success 200 {object} response.Envelope
// @Router /courses/{code} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Approve godoc
// @Summary Approve a pending course
// @Tags Courses
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/{code}/approve [put]
func (h *CourseHandler) Approve(c *gin.Context) {
	if err := h.courses.Approve(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"course_code": c.Param("code"), "status": models.CourseStatusApproved}, nil)
}

// Reject godoc
// @Summary Reject a pending course
// @Tags Courses
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/{code}/reject [put]
func (h *CourseHandler) Reject(c *gin.Context) {
	if err := h.courses.Reject(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"course_code": c.Param("code"), "status": models.CourseStatusRejected}, nil)
}

// Delete godoc
// @Summary Delete a course and cascade its enrollments
// @Tags Courses
// @Produce json
// @Param code path string true "Course code"
// @Success 204 "No Content"
// @Router /courses/{code} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
