package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mobileplanet/internal/apperr"
	applog "mobileplanet/internal/log"
	"mobileplanet/internal/services"
	"mobileplanet/internal/validate"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

type categoryInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// GET /category
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(cats)
}

// GET /category/:name
func (h *CategoryHandler) Products(c *fiber.Ctx) error {
	name, ok := validate.Name(c.Params("name"))
	if !ok {
		return apperr.InvalidInput.With("name is invalid")
	}
	prods, err := h.Catalog.ListByCategory(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(prods)
}

// POST /category
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in categoryInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	name, ok := validate.Name(in.Name)
	if !ok {
		return apperr.InvalidInput.With("name is invalid")
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), name)
	if err != nil {
		return err
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "admin.category.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return c.JSON(cat)
}

// DELETE /category/:id
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	applog.Audit(c, "admin.category.delete", map[string]any{"category_id": id})
	return c.JSON(fiber.Map{"deleted": true})
}
