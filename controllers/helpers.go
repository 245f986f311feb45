package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "readify/common/errors"
	"readify/middleware"
	"readify/services"
)

func init() {
	// Report json names ("full_name") instead of Go field names in validation errors.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	}
}

// bindJSON binds the body into dst and writes a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error) {
	body := gin.H{"error": "Invalid request", "details": err.Error()}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body["fields"] = fieldErrors(verrs)
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Namespace()
		if _, rest, ok := strings.Cut(name, "."); ok {
			name = rest
		}
		fields[name] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "alphanum":
		return "must contain only letters and digits"
	case "startswith":
		return "must start with " + fe.Param()
	default:
		return "is invalid"
	}
}

// respondError renders a service error. A stale cart version carries the current cart.
func respondError(c *gin.Context, err error) {
	var conflict *services.CartConflictError
	if errors.As(err, &conflict) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error": conflict.Error(),
			"cart":  conflict.Cart,
		})
		return
	}
	apperrors.Respond(c, err)
}

// principal returns the authenticated caller. Routes using it sit behind RequireAuth.
func principal(c *gin.Context) (*services.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return nil, false
	}
	return p, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// parsePaginationParams reads page and limit, defaulting to 1 and 10 (max 100).
func parsePaginationParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return services.NormalizePage(page, limit)
}

func pageMeta(page, limit int, total int64) gin.H {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return gin.H{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": totalPages,
		"has_more":    total > int64(page)*int64(limit),
	}
}

func listResponse[T any](key string, items []T, page, limit int, total int64) gin.H {
	if items == nil {
		items = []T{}
	}
	return gin.H{key: items, "meta": pageMeta(page, limit, total)}
}

func optionalFloat(c *gin.Context, key string) (*float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + key})
		return nil, false
	}
	return &v, true
}

// versionHeader reads If-Match as a cart version. A quoted ETag form is accepted.
func versionHeader(c *gin.Context) (*int64, bool) {
	raw := strings.Trim(strings.TrimPrefix(c.GetHeader("If-Match"), "W/"), `"`)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid If-Match version"})
		return nil, false
	}
	return &v, true
}
