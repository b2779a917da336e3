// Package cart holds the session-scoped shopping cart.
package cart

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/food_order/internal/models"
)

var (
	ErrInvalidSize  = errors.New("invalid size")
	ErrInvalidDelta = errors.New("delta must be -1 or +1")
)

// Line is one (product, size) entry. Product is a copy taken when the line was added.
type Line struct {
	ID       uuid.UUID
	Product  models.Product
	Size     models.Size
	Quantity int
}

func (l Line) Total() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart keeps lines newest first.
type Cart struct {
	mu    sync.Mutex
	lines []Line
	newID func() uuid.UUID
}

func New() *Cart {
	return &Cart{newID: uuid.New}
}

// AddItem merges into an existing (product, size) line or prepends a new one.
func (c *Cart) AddItem(p models.Product, size models.Size) (Line, error) {
	if !size.Valid() {
		return Line{}, ErrInvalidSize
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID && c.lines[i].Size == size {
			c.lines[i].Quantity++
			return c.lines[i], nil
		}
	}

	line := Line{ID: c.newID(), Product: p, Size: size, Quantity: 1}
	c.lines = append([]Line{line}, c.lines...)
	return line, nil
}

// UpdateQuantity applies delta and drops the line at zero. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(lineID uuid.UUID, delta int) error {
	if delta != -1 && delta != 1 {
		return ErrInvalidDelta
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ID != lineID {
			continue
		}
		c.lines[i].Quantity += delta
		if c.lines[i].Quantity <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		}
		return nil
	}
	return nil
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}

func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Subtract removes the given quantities from the matching lines and keeps anything added since.
func (c *Cart) Subtract(lines []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range lines {
		for i := range c.lines {
			if c.lines[i].ID != sub.ID {
				continue
			}
			c.lines[i].Quantity -= sub.Quantity
			if c.lines[i].Quantity <= 0 {
				c.lines = append(c.lines[:i], c.lines[i+1:]...)
			}
			break
		}
	}
}

// Snapshot is a consistent copy of the lines and their total.
type Snapshot struct {
	Lines []Line
	Total decimal.Decimal
}

func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]Line, len(c.lines))
	copy(lines, c.lines)

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return Snapshot{Lines: lines, Total: total}
}
