package handlers

import (
	"github.com/civix-app/civix-server/internal/dto"
	"github.com/civix-app/civix-server/internal/feed"
	"github.com/civix-app/civix-server/internal/middleware"
	"github.com/civix-app/civix-server/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reports   *services.ReportService
	mutations *services.MutationCoordinator
}

func NewReportHandler(reports *services.ReportService, mutations *services.MutationCoordinator) *ReportHandler {
	return &ReportHandler{reports: reports, mutations: mutations}
}

// List serves the feed. All query parameters are optional; following=true
// needs a bearer token.
func (h *ReportHandler) List(c *fiber.Ctx) error {
	p := feed.Params{
		City:         c.Query("city"),
		State:        c.Query("state"),
		User:         c.Query("user"),
		Lat:          c.Query("lat"),
		Lng:          c.Query("lng"),
		Radius:       c.Query("radius"),
		Query:        c.Query("q"),
		Category:     c.Query("category"),
		Status:       c.Query("status"),
		Sort:         c.Query("sort"),
		Following:    c.Query("following"),
		ActingUserID: middleware.OptionalUserID(c),
	}

	res, err := h.reports.Feed(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Count: res.Count, Data: res.Data})
}

func (h *ReportHandler) Trending(c *fiber.Ctx) error {
	top, err := h.reports.Trending(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Count: len(top), Data: top})
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.reports.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: r})
}

func (h *ReportHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	r, err := h.reports.Create(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DataResponse{Success: true, Data: r})
}

func (h *ReportHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, err)
	}
	var req dto.UpdateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	r, err := h.reports.Update(c.UserContext(), userID, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: r})
}

func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.reports.Delete(c.UserContext(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "Report removed"})
}

func (h *ReportHandler) Upvote(c *fiber.Ctx) error {
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.mutations.Upvote(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: r})
}

func (h *ReportHandler) Share(c *fiber.Ctx) error {
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.mutations.Share(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: r})
}

func (h *ReportHandler) Comment(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, err)
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comments, err := h.mutations.AddComment(c.UserContext(), id, userID, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: comments})
}

// Verify toggles the official flag. Mounted under the admin group.
func (h *ReportHandler) Verify(c *fiber.Ctx) error {
	id, err := paramID(c, "report")
	if err != nil {
		return respondError(c, err)
	}
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil || req.IsVerified == nil {
		return badRequest(c, "isVerified is required")
	}

	r, err := h.reports.SetVerified(c.UserContext(), id, *req.IsVerified)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: r})
}
