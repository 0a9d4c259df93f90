package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-admin/enrollment-api/internal/models"
	"github.com/uni-admin/enrollment-api/internal/service"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
	"github.com/uni-admin/enrollment-api/pkg/response"
)

// RosterHandler exposes the professor panel views: taught courses, course
// rosters and roster export.
type RosterHandler struct {
	rosters *service.RosterService
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(rosters *service.RosterService) *RosterHandler {
	return &RosterHandler{rosters: rosters}
}

// professorScope rejects professors peeking at a colleague's panel; admins
// pass through.
func professorScope(c *gin.Context, professorID string) error {
	claims := claimsFromContext(c)
	if claims != nil && claims.Role == models.RoleProfessor && claims.UserID != professorID {
		return appErrors.Clone(appErrors.ErrForbidden, "professors may only view their own courses")
	}
	return nil
}

// Courses godoc
// @Summary List courses taught by a professor
// @Tags Rosters
// @Produce json
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /professors/{id}/courses [get]
func (h *RosterHandler) Courses(c *gin.Context) {
	professorID := c.Param("id")
	if err := professorScope(c, professorID); err != nil {
		response.Error(c, err)
		return
	}
	courses, err := h.rosters.ProfessorCourses(professorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Roster godoc
// @Summary List students enrolled in a course
// @Tags Rosters
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /rosters/{code} [get]
func (h *RosterHandler) Roster(c *gin.Context) {
	course, err := h.rosters.Course(c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := professorScope(c, course.ProfessorID); err != nil {
		response.Error(c, err)
		return
	}
	roster, err := h.rosters.CourseRoster(c.Request.Context(), course.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Export godoc
// @Summary Export a course roster as CSV or PDF
// @Tags Rosters
// @Produce octet-stream
// @Param code path string true "Course code"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /rosters/{code}/export [get]
func (h *RosterHandler) Export(c *gin.Context) {
	course, err := h.rosters.Course(c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := professorScope(c, course.ProfessorID); err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.rosters.Export(c.Request.Context(), course.Code, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
