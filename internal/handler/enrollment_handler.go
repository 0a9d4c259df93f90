package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-admin/enrollment-api/internal/models"
	"github.com/uni-admin/enrollment-api/internal/service"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
	"github.com/uni-admin/enrollment-api/pkg/response"
)

// EnrollmentHandler exposes enroll and drop endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// bindSelfService decodes the pair and forces students to act on their own
// enrollments; admins may act on any student.
func bindSelfService(c *gin.Context) (service.EnrollRequest, error) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	claims := claimsFromContext(c)
	if claims != nil && claims.Role == models.RoleStudent {
		if req.StudentID == "" {
			req.StudentID = claims.UserID
		} else if req.StudentID != claims.UserID {
			return req, appErrors.Clone(appErrors.ErrForbidden, "students may only manage their own enrollments")
		}
	}
	if req.StudentID == "" || req.CourseCode == "" {
		return req, appErrors.Clone(appErrors.ErrValidation, "student_id and course_code are required")
	}
	return req, nil
}

// Create godoc
// @Summary Enroll a student in a course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment pair"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	req, err := bindSelfService(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Delete godoc
// @Summary Drop a student's course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment pair"
// @Success 204 "No Content"
// @Router /enrollments [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	req, err := bindSelfService(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.enrollments.Drop(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
