package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/ctx"
)

// maxImageSize bounds a menu image upload.
const maxImageSize = 5 << 20

type MenuController struct {
	menu *services.MenuService
}

func NewMenuController(menu *services.MenuService) *MenuController {
	return &MenuController{menu: menu}
}

func (mc *MenuController) Index(c *ctx.Context) {
	list, err := mc.menu.List(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (mc *MenuController) Store(c *ctx.Context) {
	var in models.MenuItemInput
	if !c.BindJSON(&in) {
		return
	}
	item, err := mc.menu.Create(c.Context(), c.Subject(), c.Role(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(item)
}

func (mc *MenuController) Update(c *ctx.Context) {
	var in models.MenuItemInput
	if !c.BindJSON(&in) {
		return
	}
	item, err := mc.menu.Update(c.Context(), c.Subject(), c.Role(), c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(item)
}

func (mc *MenuController) Destroy(c *ctx.Context) {
	if err := mc.menu.Delete(c.Context(), c.Subject(), c.Role(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage takes the "image" part of a multipart form.
func (mc *MenuController) UploadImage(c *ctx.Context) {
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, maxImageSize)
	file, header, err := c.R.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Fail(apperr.Field("image", "The image may not be larger than 5 MB."))
			return
		}
		c.Fail(apperr.Field("image", "The image field is required."))
		return
	}
	defer file.Close()

	item, err := mc.menu.UploadImage(c.Context(), c.Subject(), c.Role(), c.Param("id"), header.Header.Get("Content-Type"), file)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(item)
}
