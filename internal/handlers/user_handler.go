package handlers

import (
	"github.com/civix-app/civix-server/internal/dto"
	"github.com/civix-app/civix-server/internal/middleware"
	"github.com/civix-app/civix-server/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users     *services.UserService
	mutations *services.MutationCoordinator
}

func NewUserHandler(users *services.UserService, mutations *services.MutationCoordinator) *UserHandler {
	return &UserHandler{users: users, mutations: mutations}
}

func (h *UserHandler) Follow(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	target, err := paramID(c, "user")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.mutations.Follow(c.UserContext(), userID, target); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "User followed"})
}

func (h *UserHandler) Unfollow(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	target, err := paramID(c, "user")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.mutations.Unfollow(c.UserContext(), userID, target); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "User unfollowed"})
}

func (h *UserHandler) Profile(c *fiber.Ctx) error {
	id, err := paramID(c, "user")
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.users.Profile(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: p})
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	p, err := h.users.Profile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: p})
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	u, err := h.users.UpdateProfile(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: u})
}

func (h *UserHandler) ToggleBookmark(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	reportID, err := paramID(c, "report")
	if err != nil {
		return respondError(c, err)
	}

	on, ids, err := h.mutations.ToggleBookmark(c.UserContext(), userID, reportID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BookmarkToggleResponse{Success: true, Bookmarked: on, Bookmarks: ids})
}

func (h *UserHandler) Bookmarks(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	reports, err := h.users.Bookmarks(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Count: len(reports), Data: reports})
}
