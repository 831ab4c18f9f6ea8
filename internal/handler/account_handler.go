package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/school-attendance-api/internal/models"
	"github.com/noah-isme/school-attendance-api/internal/service"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
	"github.com/noah-isme/school-attendance-api/pkg/response"
	"github.com/noah-isme/school-attendance-api/pkg/storage"
)

// AccountHandler exposes admin account CRUD and the self-service profile.
// Create and update accept either a JSON body or a multipart form carrying a
// "payload" JSON field plus an optional "image" file.
type AccountHandler struct {
	accounts    *service.AccountService
	storage     *storage.LocalStorage
	maxFileSize int64
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(accounts *service.AccountService, store *storage.LocalStorage, maxFileSize int64) *AccountHandler {
	return &AccountHandler{accounts: accounts, storage: store, maxFileSize: maxFileSize}
}

// ListStudents returns a paged student list.
func (h *AccountHandler) ListStudents(c *gin.Context) {
	students, pagination, err := h.accounts.ListStudents(c.Request.Context(), parseListFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// GetStudent returns one student record.
func (h *AccountHandler) GetStudent(c *gin.Context) {
	student, err := h.accounts.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// CreateStudent registers a student account.
func (h *AccountHandler) CreateStudent(c *gin.Context) {
	var req service.CreateStudentRequest
	imageURL, err := h.bindWithImage(c, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.accounts.CreateStudent(c.Request.Context(), req, imageURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// UpdateStudent modifies a student account.
func (h *AccountHandler) UpdateStudent(c *gin.Context) {
	var req service.CreateStudentRequest
	imageURL, err := h.bindWithImage(c, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.accounts.UpdateStudent(c.Request.Context(), c.Param("id"), req, imageURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// DeleteStudent removes a student account.
func (h *AccountHandler) DeleteStudent(c *gin.Context) {
	if err := h.accounts.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTeachers returns a paged teacher list.
func (h *AccountHandler) ListTeachers(c *gin.Context) {
	teachers, pagination, err := h.accounts.ListTeachers(c.Request.Context(), parseListFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// GetTeacher returns one teacher record.
func (h *AccountHandler) GetTeacher(c *gin.Context) {
	teacher, err := h.accounts.GetTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// CreateTeacher registers a teacher account.
func (h *AccountHandler) CreateTeacher(c *gin.Context) {
	var req service.CreateTeacherRequest
	imageURL, err := h.bindWithImage(c, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.accounts.CreateTeacher(c.Request.Context(), req, imageURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// UpdateTeacher modifies a teacher account.
func (h *AccountHandler) UpdateTeacher(c *gin.Context) {
	var req service.CreateTeacherRequest
	imageURL, err := h.bindWithImage(c, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.accounts.UpdateTeacher(c.Request.Context(), c.Param("id"), req, imageURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// DeleteTeacher removes a teacher account.
func (h *AccountHandler) DeleteTeacher(c *gin.Context) {
	if err := h.accounts.DeleteTeacher(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListEmployees returns a paged employee list.
func (h *AccountHandler) ListEmployees(c *gin.Context) {
	employees, pagination, err := h.accounts.ListEmployees(c.Request.Context(), parseListFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination)
}

// GetEmployee returns one employee record.
func (h *AccountHandler) GetEmployee(c *gin.Context) {
	employee, err := h.accounts.GetEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// CreateEmployee registers an employee account.
func (h *AccountHandler) CreateEmployee(c *gin.Context) {
	var req service.CreateEmployeeRequest
	imageURL, err := h.bindWithImage(c, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	employee, err := h.accounts.CreateEmployee(c.Request.Context(), req, imageURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// UpdateEmployee modifies an employee account.
func (h *AccountHandler) UpdateEmployee(c *gin.Context) {
	var req service.CreateEmployeeRequest
	imageURL, err := h.bindWithImage(c, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	employee, err := h.accounts.UpdateEmployee(c.Request.Context(), c.Param("id"), req, imageURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// DeleteEmployee removes an employee account.
func (h *AccountHandler) DeleteEmployee(c *gin.Context) {
	if err := h.accounts.DeleteEmployee(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Profile returns the caller's own directory record.
func (h *AccountHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.accounts.Profile(c.Request.Context(), claims.Role, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateProfile applies the caller's self-service contact changes.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateProfileRequest
	imageURL, err := h.bindWithImage(c, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	profile, err := h.accounts.UpdateProfile(c.Request.Context(), claims.Role, claims.UserID, req, imageURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// bindWithImage decodes the request payload and stores an uploaded image if
// one was attached. It returns the public URL of the stored image, empty
// when none was sent.
func (h *AccountHandler) bindWithImage(c *gin.Context, dst interface{}) (string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(dst); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
		}
		return "", nil
	}

	payload := c.PostForm("payload")
	if payload == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "missing payload field")
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return h.saveImage(c)
}

func (h *AccountHandler) saveImage(c *gin.Context) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid image upload")
	}
	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		return "", appErrors.Clone(appErrors.ErrValidation, "image exceeds the maximum allowed size")
	}

	src, err := file.Open()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read image upload")
	}
	defer closeMultipart(src)

	filename := filepath.Join("profiles", uuid.NewString()+filepath.Ext(file.Filename))
	stored, err := h.storage.SaveStream(filename, src)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image upload")
	}
	return "/uploads/" + filepath.ToSlash(stored), nil
}

func closeMultipart(f multipart.File) {
	_ = f.Close()
}

func parseListFilter(c *gin.Context) models.ListFilter {
	var filter models.ListFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}
