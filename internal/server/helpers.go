// Package server contains the HTTP handlers for the listing marketplace API.
package server

import (
	"context"
	"errors"

	"hearth/internal/models"
	"hearth/internal/repository"
	"hearth/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters. startIndex is
// accepted as an alias for offset for older clients.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset == 0 {
		offset = c.QueryInt("startIndex", 0)
	}
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// viewer returns the authenticated viewer for handlers behind AuthRequired.
func (s *Server) viewer(c *fiber.Ctx) models.Viewer {
	userID, _ := c.Locals("userID").(uint)
	isAdmin, _ := c.Locals("isAdmin").(bool)
	return models.Viewer{ID: userID, IsAdmin: isAdmin}
}

// isAdmin checks whether the given user has admin privileges.
func (s *Server) isAdmin(c *fiber.Ctx, userID uint) (bool, error) {
	return s.isAdminByUserID(c.Context(), userID)
}

func (s *Server) isAdminByUserID(ctx context.Context, userID uint) (bool, error) {
	return s.userRepo.IsAdmin(ctx, userID)
}

// respondServiceError maps service-layer errors onto HTTP responses using
// the AppError code taxonomy.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return models.RespondWithError(c, models.StatusForAppError(appErr), appErr)
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewInternalError(err))
}

// browseInputFromQuery builds the service browse input from the request's
// query string and viewer.
func browseInputFromQuery(c *fiber.Ctx, viewer models.Viewer) service.BrowseListingsInput {
	p := parsePagination(c, repository.DefaultBrowseLimit)

	in := service.BrowseListingsInput{
		Viewer:     viewer,
		OwnerID:    uint(c.QueryInt("owner_id", c.QueryInt("userRef", 0))),
		Offer:      c.QueryBool("offer", false),
		Furnished:  c.QueryBool("furnished", false),
		Parking:    c.QueryBool("parking", false),
		Type:       c.Query("type"),
		SearchTerm: c.Query("searchTerm", c.Query("search")),
		SortField:  c.Query("sort"),
		SortOrder:  c.Query("order"),
		Limit:      p.Limit,
		Offset:     p.Offset,
	}

	// Explicit approval filter; only honored for admin viewers downstream.
	if raw := c.Query("approved"); raw != "" {
		approved := c.QueryBool("approved", false)
		in.Approved = &approved
	}

	return in
}
