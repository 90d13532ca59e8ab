// Package models defines the domain types for the book builder.
package models

import "time"

// ItemType classifies an item. The zero value is QUOTE.
type ItemType int

const (
	Quote ItemType = iota
	Plot
	Phil
	Char
	Theme

	// NumItemTypes is the number of defined item types.
	NumItemTypes
)

var itemTypeNames = [NumItemTypes]string{
	Quote: "QUOTE",
	Plot:  "PLOT",
	Phil:  "PHIL",
	Char:  "CHAR",
	Theme: "THEME",
}

// String returns the wire token for t, or "UNKNOWN".
func (t ItemType) String() string {
	if t < 0 || t >= NumItemTypes {
		return "UNKNOWN"
	}
	return itemTypeNames[t]
}

// Valid reports whether t is one of the defined item types.
func (t ItemType) Valid() bool {
	return t >= 0 && t < NumItemTypes
}

// ParseItemType maps an exact (case-sensitive) wire token to its ItemType.
func ParseItemType(s string) (ItemType, bool) {
	for i, name := range itemTypeNames {
		if s == name {
			return ItemType(i), true
		}
	}
	return 0, false
}

// ItemTypes returns every item type in declaration order.
func ItemTypes() []ItemType {
	out := make([]ItemType, NumItemTypes)
	for i := range out {
		out[i] = ItemType(i)
	}
	return out
}

// Item is a typed title+body record. Fields never change after creation.
type Item struct {
	ID    int      `json:"id"`
	Type  ItemType `json:"type"`
	Title string   `json:"title"`
	Body  string   `json:"body"`
}

// Link is an undirected edge between two items, stored with A < B.
type Link struct {
	A int `json:"a"`
	B int `json:"b"`
}

// NewLink returns the canonical form of the edge between x and y.
func NewLink(x, y int) Link {
	if x > y {
		x, y = y, x
	}
	return Link{A: x, B: y}
}

// FileMetadata describes one file in the books directory.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookInfo is the catalog record for one book on disk.
type BookInfo struct {
	Name          string    `json:"name"`
	ItemsChecksum string    `json:"items_checksum"`
	LinksChecksum string    `json:"links_checksum"`
	ItemCount     int       `json:"item_count"`
	LinkCount     int       `json:"link_count"`
	NextID        int       `json:"next_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}
