package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"propertyagent/internal/model"
	"propertyagent/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListingReader reads saved listings back from the catalog
type ListingReader interface {
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
}

// ListingHandler serves saved listings
type ListingHandler struct {
	catalog ListingReader
}

func NewListingHandler(catalog ListingReader) *ListingHandler {
	return &ListingHandler{catalog: catalog}
}

// GetListing handles GET /api/v1/listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	listing, err := h.catalog.GetListing(c.Request.Context(), listingID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, listing)
}
