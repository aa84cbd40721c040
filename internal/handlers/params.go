package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tablostudio/guestflow/internal/services"
	"github.com/tablostudio/guestflow/internal/services/export"
	"github.com/tablostudio/guestflow/pkg/response"
	"gorm.io/gorm"
)

// uintParam reads a positive numeric path parameter.
func uintParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, response.NewBadRequest("invalid " + name)
	}
	return uint(v), nil
}

// scope reads the project and gallery of a gallery scoped route.
func scope(c *gin.Context) (projectID, galleryID uint, err error) {
	if projectID, err = uintParam(c, "project_id"); err != nil {
		return 0, 0, err
	}
	if galleryID, err = uintParam(c, "gallery_id"); err != nil {
		return 0, 0, err
	}
	return projectID, galleryID, nil
}

// fail maps domain errors onto API errors.
func fail(c *gin.Context, err error) {
	var invalid *export.InvalidOptionError
	switch {
	case errors.As(err, &invalid):
		err = response.NewBadRequest(invalid.Error())
	case errors.Is(err, services.ErrPersonNotFound):
		err = response.NewNotFound("person not found")
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = response.NewNotFound("project not found")
	case errors.Is(err, export.ErrJobNotFound):
		err = response.NewNotFound("export job not found")
	}
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		c.Error(err)
	}
	response.Error(c, err)
}
