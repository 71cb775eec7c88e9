package server

import (
	"strconv"
	"strings"

	"mundotango/internal/models"
	"mundotango/internal/repository"
	"mundotango/internal/resource"

	"github.com/gofiber/fiber/v2"
)

// restController serves the five standard endpoints of one resource.
type restController[T any] struct {
	s    *Server
	repo repository.RestRepository[T]
	res  *resource.Resource[T]
}

// registerResource mounts /api/<name>/store|get|get/:id|update/:id|delete/:id.
// Every route checks the API token and authenticates before the controller.
func registerResource[T any](s *Server, api fiber.Router, name string, repo repository.RestRepository[T], res *resource.Resource[T]) {
	ctl := &restController[T]{s: s, repo: repo, res: res}
	g := api.Group("/" + name)
	g.Post("/store", s.guarded(ctl.Store)...)
	g.Get("/get", s.guarded(ctl.List)...)
	g.Get("/get/:id", s.guarded(ctl.Show)...)
	g.Patch("/update/:id", s.guarded(ctl.Update)...)
	g.Put("/update/:id", s.guarded(ctl.Update)...)
	g.Delete("/delete/:id", s.guarded(ctl.Delete)...)
}

func (ctl *restController[T]) name() string {
	return ctl.repo.Model().Name
}

// Store handles POST /api/<resource>/store
// @Summary Create a record
// @Tags resources
// @Accept json
// @Produce json
// @Param resource path string true "Resource name, e.g. event"
// @Param request body object true "Assignable fields"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /{resource}/store [post]
func (ctl *restController[T]) Store(c *fiber.Ctx) error {
	actor, err := ctl.s.actor(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	attrs, err := bodyAttrs(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	record, err := ctl.repo.Create(c.UserContext(), actor, attrs)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return sendShaped(c, ctl.res, ctl.s.env(), record, ctl.name()+" created successfully")
}

// List handles GET /api/<resource>/get
// @Summary List records
// @Description Paginated with limit and offset; other query keys filter by column equality.
// @Tags resources
// @Produce json
// @Param resource path string true "Resource name"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Response
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /{resource}/get [get]
func (ctl *restController[T]) List(c *fiber.Ctx) error {
	actor, err := ctl.s.actor(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	q := repository.ListQuery{
		Limit:   c.QueryInt("limit", repository.DefaultPageSize),
		Offset:  c.QueryInt("offset", 0),
		Filters: map[string]string{},
		Actor:   actor,
	}
	for key, value := range c.Queries() {
		if key != "limit" && key != "offset" && strings.TrimSpace(value) != "" {
			q.Filters[key] = value
		}
	}

	records, total, err := ctl.repo.List(c.UserContext(), q)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	c.Set("X-Total-Count", strconv.FormatInt(total, 10))
	return sendShaped(c, ctl.res, ctl.s.env(), records, ctl.name()+" list")
}

// Show handles GET /api/<resource>/get/:id
// @Summary Get a record
// @Tags resources
// @Produce json
// @Param resource path string true "Resource name"
// @Param id path int true "Record ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /{resource}/get/{id} [get]
func (ctl *restController[T]) Show(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	actor, err := ctl.s.actor(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	record, err := ctl.repo.Show(c.UserContext(), actor, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return sendShaped(c, ctl.res, ctl.s.env(), record, ctl.name()+" retrieved successfully")
}

// Update handles PATCH|PUT /api/<resource>/update/:id
// @Summary Update a record
// @Tags resources
// @Accept json
// @Produce json
// @Param resource path string true "Resource name"
// @Param id path int true "Record ID"
// @Param request body object true "Fields to change"
// @Success 200 {object} models.Response
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /{resource}/update/{id} [patch]
func (ctl *restController[T]) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	actor, err := ctl.s.actor(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	attrs, err := bodyAttrs(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	record, err := ctl.repo.Update(c.UserContext(), actor, id, attrs)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return sendShaped(c, ctl.res, ctl.s.env(), record, ctl.name()+" updated successfully")
}

// Delete handles DELETE /api/<resource>/delete/:id
// @Summary Soft-delete a record
// @Tags resources
// @Produce json
// @Param resource path string true "Resource name"
// @Param id path int true "Record ID"
// @Success 200 {object} models.Response
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /{resource}/delete/{id} [delete]
func (ctl *restController[T]) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	actor, err := ctl.s.actor(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := ctl.repo.Delete(c.UserContext(), actor, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.SendResponse(c, fiber.Map{"id": id}, ctl.name()+" deleted successfully")
}
