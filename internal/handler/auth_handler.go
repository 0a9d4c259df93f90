package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-admin/enrollment-api/internal/models"
	"github.com/uni-admin/enrollment-api/internal/service"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
	"github.com/uni-admin/enrollment-api/pkg/response"
)

// AuthHandler exposes login and student self-registration endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	students *service.StudentService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService, students *service.StudentService) *AuthHandler {
	return &AuthHandler{auth: auth, students: students}
}

// Login godoc
// @Summary Authenticate a student, professor or admin
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.auth.Login(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Register godoc
// @Summary Register a new student account
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body service.RegisterStudentRequest true "Student fields"
// @Success 201 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}
