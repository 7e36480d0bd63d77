// Package server contains the HTTP handlers for the listing marketplace API.
package server

import (
	"hearth/internal/models"
	"hearth/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// GetPendingListings handles GET /api/listings/pending. Admins get the
// moderation queue; any other authenticated caller falls back to the public
// approved-only result set rather than an error.
func (s *Server) GetPendingListings(c *fiber.Ctx) error {
	viewer := s.viewer(c)

	// Re-check the claim so a stale admin token cannot read the queue.
	admin, err := s.isAdmin(c, viewer.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	viewer.IsAdmin = admin

	p := parsePagination(c, repository.DefaultBrowseLimit)
	listings, err := s.listingService.Pending(c.Context(), viewer, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"listings": listings,
	})
}

// ApproveListing handles POST /api/listings/:id/approve
func (s *Server) ApproveListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewer := s.viewer(c)
	listing, err := s.listingService.Approve(c.Context(), viewer.ID, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(listing)
}

// RejectListing handles POST /api/listings/:id/reject
func (s *Server) RejectListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// An empty or missing body is fine; the default reason applies.
	_ = c.BodyParser(&req)

	viewer := s.viewer(c)
	listing, err := s.listingService.Reject(c.Context(), viewer.ID, id, req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(listing)
}

// BulkApproveListings handles POST /api/listings/bulk-approve
func (s *Server) BulkApproveListings(c *fiber.Ctx) error {
	viewer := s.viewer(c)
	modified, err := s.listingService.BulkApprove(c.Context(), viewer.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"modified_count": modified,
	})
}
