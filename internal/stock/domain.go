package stock

import (
	"errors"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementInbound represents stock arriving at a location.
	MovementInbound MovementType = "inbound"
	// MovementOutbound represents stock leaving a location.
	MovementOutbound MovementType = "outbound"
	// MovementTransfer moves stock between two locations.
	MovementTransfer MovementType = "transfer"
	// MovementAdjustment records a manual correction.
	MovementAdjustment MovementType = "adjustment"
)

// AdjustmentType classifies the direction of a manual correction.
type AdjustmentType string

const (
	AdjustmentAdd      AdjustmentType = "add"
	AdjustmentSubtract AdjustmentType = "subtract"
)

// Level is the authoritative current stock quantity per (product, location).
// Quantities never go below zero; adjustments are floor-clamped.
type Level struct {
	ID          int64
	ProductID   int64
	LocationID  int64
	Quantity    int64
	LastUpdated time.Time
}

// Movement is one append-only audit entry explaining a ledger change.
type Movement struct {
	ID              int64
	ProductID       int64
	LocationID      int64
	Type            MovementType
	Quantity        int64
	UnitType        string
	FromLocationID  int64
	ToLocationID    int64
	OrderID         int64
	ReferenceNumber string
	Notes           string
	PerformedBy     int64
	MovementDate    time.Time
}

// Correction is an append-only record of a manual quantity adjustment.
type Correction struct {
	ID             int64
	ProductID      int64
	LocationID     int64
	OldQuantity    int64
	NewQuantity    int64
	Adjustment     int64
	Type           AdjustmentType
	Reason         string
	PerformedBy    int64
	CorrectionDate time.Time
}

// LevelWithDetails joins product and location attributes for listings.
type LevelWithDetails struct {
	Level
	ProductSKU   string
	ProductName  string
	LocationName string
	ReorderLevel int64
}

// InboundInput describes a goods-receipt posting.
type InboundInput struct {
	ProductID       int64
	LocationID      int64
	Quantity        int64
	UnitType        string
	ReferenceNumber string
	Notes           string
	ActorID         int64
}

// OutboundInput describes stock issued out of a location.
type OutboundInput struct {
	ProductID  int64
	LocationID int64
	Quantity   int64
	UnitType   string
	OrderID    int64
	Notes      string
	ActorID    int64
}

// TransferInput describes a transfer between two locations.
type TransferInput struct {
	ProductID      int64
	FromLocationID int64
	ToLocationID   int64
	Quantity       int64
	UnitType       string
	Notes          string
	ActorID        int64
}

// CorrectionInput describes a manual, reason-justified adjustment.
type CorrectionInput struct {
	ProductID  int64
	LocationID int64
	Delta      int64
	Reason     string
	ActorID    int64
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	ProductID  int64
	LocationID int64
	Type       MovementType
	Limit      int
}

var (
	// ErrInvalidQuantity indicates a non-positive movement quantity.
	ErrInvalidQuantity = errors.New("stock: quantity must be positive")
	// ErrInvalidAdjustment indicates a zero or otherwise unusable delta.
	ErrInvalidAdjustment = errors.New("stock: adjustment must be non-zero")
	// ErrNoSuchStock is returned when a negative adjustment targets a
	// (product, location) pair that was never stocked.
	ErrNoSuchStock = errors.New("stock: cannot reduce untracked stock")
	// ErrLevelNotFound indicates a missing stock level row.
	ErrLevelNotFound = errors.New("stock: level not found")
	// ErrMovementNotFound indicates the movement record does not exist.
	ErrMovementNotFound = errors.New("stock: movement not found")
	// ErrSameLocation rejects transfers whose endpoints match.
	ErrSameLocation = errors.New("stock: source and destination location must differ")
	// ErrReasonRequired rejects corrections without a justification.
	ErrReasonRequired = errors.New("stock: correction reason is required")
)
