package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/machashop/students-ms/internal/middleware"
	"github.com/machashop/students-ms/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

func pageParams(c *gin.Context) (page, size int) {
	page = 1
	size = 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 {
		size = v
	}
	return page, size
}

func statusParam(raw string) models.Status {
	s := models.Status(strings.ToUpper(strings.TrimSpace(raw)))
	if s.Valid() {
		return s
	}
	return ""
}
