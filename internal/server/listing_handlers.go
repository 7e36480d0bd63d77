// Package server contains the HTTP handlers for the listing marketplace API.
package server

import (
	"hearth/internal/models"
	"hearth/internal/service"

	"github.com/gofiber/fiber/v2"
)

// listingRequest is the JSON body for create and update. Pointer fields
// distinguish "absent" from zero values so updates can be partial.
type listingRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Address         *string  `json:"address"`
	Type            *string  `json:"type"`
	Bedrooms        *int     `json:"bedrooms"`
	Bathrooms       *int     `json:"bathrooms"`
	RegularPrice    *float64 `json:"regular_price"`
	DiscountPrice   *float64 `json:"discount_price"`
	Offer           *bool    `json:"offer"`
	Furnished       *bool    `json:"furnished"`
	Parking         *bool    `json:"parking"`
	ImageURLs       []string `json:"image_urls"`
	Approved        *bool    `json:"approved"`
	RejectionReason *string  `json:"rejection_reason"`
}

// BrowseListings handles GET /api/listings
func (s *Server) BrowseListings(c *fiber.Ctx) error {
	viewer := s.optionalViewer(c)
	in := browseInputFromQuery(c, viewer)

	listings, total, err := s.listingService.Browse(c.Context(), in)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"total":    total,
	})
}

// GetListingStats handles GET /api/listings/stats
func (s *Server) GetListingStats(c *fiber.Ctx) error {
	stats, err := s.listingService.Stats(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// GetRecentListings handles GET /api/listings/recent
func (s *Server) GetRecentListings(c *fiber.Ctx) error {
	viewer := s.optionalViewer(c)
	listings, err := s.listingService.Recent(c.Context(), viewer)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"listings": listings,
	})
}

// GetListing handles GET /api/listings/:id
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewer := s.optionalViewer(c)
	listing, err := s.listingService.Get(c.Context(), id, viewer)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(listing)
}

// CreateListing handles POST /api/listings
func (s *Server) CreateListing(c *fiber.Ctx) error {
	var req listingRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	viewer := s.viewer(c)
	in := service.CreateListingInput{
		OwnerID:   viewer.ID,
		ImageURLs: req.ImageURLs,
		Approved:  req.Approved,
	}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Address != nil {
		in.Address = *req.Address
	}
	if req.Type != nil {
		in.Type = *req.Type
	}
	if req.Bedrooms != nil {
		in.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		in.Bathrooms = *req.Bathrooms
	}
	if req.RegularPrice != nil {
		in.RegularPrice = *req.RegularPrice
	}
	if req.DiscountPrice != nil {
		in.DiscountPrice = *req.DiscountPrice
	}
	if req.Offer != nil {
		in.Offer = *req.Offer
	}
	if req.Furnished != nil {
		in.Furnished = *req.Furnished
	}
	if req.Parking != nil {
		in.Parking = *req.Parking
	}

	listing, err := s.listingService.Create(c.Context(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// UpdateListing handles POST and PUT /api/listings/:id
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req listingRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	viewer := s.viewer(c)
	listing, err := s.listingService.Update(c.Context(), viewer.ID, id, service.UpdateListingInput{
		Name:            req.Name,
		Description:     req.Description,
		Address:         req.Address,
		Type:            req.Type,
		Bedrooms:        req.Bedrooms,
		Bathrooms:       req.Bathrooms,
		RegularPrice:    req.RegularPrice,
		DiscountPrice:   req.DiscountPrice,
		Offer:           req.Offer,
		Furnished:       req.Furnished,
		Parking:         req.Parking,
		ImageURLs:       req.ImageURLs,
		Approved:        req.Approved,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(listing)
}

// DeleteListing handles DELETE /api/listings/:id
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewer := s.viewer(c)
	if err := s.listingService.Delete(c.Context(), viewer.ID, id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Listing deleted successfully",
	})
}

// GetOwnerContact handles GET /api/listings/:id/contact
func (s *Server) GetOwnerContact(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewer := s.viewer(c)
	owner, err := s.listingService.OwnerContact(c.Context(), viewer, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"username": owner.Username,
		"email":    owner.Email,
	})
}

// ContactOwner handles POST /api/listings/:id/contact
func (s *Server) ContactOwner(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Message string `json:"message"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	viewer := s.viewer(c)
	if err := s.listingService.SendOwnerMessage(c.Context(), viewer, id, req.Message); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Message sent to the listing owner",
	})
}
