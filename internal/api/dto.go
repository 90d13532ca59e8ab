package api

import (
	"time"

	"github.com/starford/bbp/internal/models"
)

// BookSummary is one book in the catalog as returned over HTTP.
type BookSummary struct {
	Name          string    `json:"name" example:"bbp" validate:"required"`
	ItemCount     int       `json:"item_count" example:"12"`
	LinkCount     int       `json:"link_count" example:"4"`
	NextID        int       `json:"next_id" example:"13"`
	ItemsChecksum string    `json:"items_checksum" example:"abc123..."`
	LinksChecksum string    `json:"links_checksum" example:"def456..."`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BookListResponse wraps the catalog listing.
type BookListResponse struct {
	Books []BookSummary `json:"books" validate:"required"`
	Total int           `json:"total" example:"3" validate:"required"`
}

func toSummary(b models.BookInfo) BookSummary {
	return BookSummary{
		Name:          b.Name,
		ItemCount:     b.ItemCount,
		LinkCount:     b.LinkCount,
		NextID:        b.NextID,
		ItemsChecksum: b.ItemsChecksum,
		LinksChecksum: b.LinksChecksum,
		UpdatedAt:     b.UpdatedAt,
	}
}
