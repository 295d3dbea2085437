/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Structural validation (JSON shape, numeric quantity) happens in
  handlers; business validation (blank name, positive quantity,
  sufficient stock) lives in the ledger engine.
*/
package api

import (
	"github.com/gudang/stock-engine/ledger"
	"github.com/gudang/stock-engine/report"
)

// =============================================================================
// AUTH
// =============================================================================

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// =============================================================================
// STOCK MOVEMENTS
// =============================================================================

// MovementRequest is the body for stock-in and stock-out. CategoryID is
// only consulted on stock-in, and only when the movement creates a new item.
type MovementRequest struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	CategoryID string `json:"category_id,omitempty"`
}

type MovementDTO struct {
	ID         string `json:"id"`
	ItemName   string `json:"item_name"`
	Quantity   int    `json:"quantity"`
	RecordedAt string `json:"recorded_at"`
	Direction  string `json:"direction"`
}

// =============================================================================
// ITEMS
// =============================================================================

type ItemDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	CategoryID   string `json:"category_id,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	UpdatedAt    string `json:"updated_at"`
}

type QuantityDTO struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Found    bool   `json:"found"`
}

// =============================================================================
// HISTORY & CATEGORIES
// =============================================================================

type HistoryEntryDTO struct {
	ID         string `json:"id"`
	ItemName   string `json:"item_name"`
	Quantity   int    `json:"quantity"`
	Timestamp  string `json:"timestamp"`
	Direction  string `json:"direction"`
	CategoryID string `json:"category_id,omitempty"`
}

type CategoryDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Fixed bool   `json:"fixed"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toHistoryEntryDTOs(entries []report.Entry) []HistoryEntryDTO {
	dtos := make([]HistoryEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = HistoryEntryDTO{
			ID:         entry.ID,
			ItemName:   entry.ItemName,
			Quantity:   entry.Quantity,
			Timestamp:  entry.Timestamp,
			Direction:  string(entry.Direction),
			CategoryID: entry.CategoryID,
		}
	}
	return dtos
}

func toCategoryDTOs(cats []ledger.Category) []CategoryDTO {
	dtos := make([]CategoryDTO, len(cats))
	for i, cat := range cats {
		dtos[i] = CategoryDTO{ID: cat.ID, Name: cat.Name, Fixed: cat.Fixed}
	}
	return dtos
}
