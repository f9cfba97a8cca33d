package domain

import "time"

type ItemStatus string

const (
	ItemActive   ItemStatus = "active"
	ItemInactive ItemStatus = "inactive"
)

func ParseItemStatus(s string) (ItemStatus, bool) {
	switch ItemStatus(s) {
	case ItemActive, ItemInactive:
		return ItemStatus(s), true
	default:
		return "", false
	}
}

// Departure is one dated time slot of a tour with its own seat stock.
type Departure struct {
	ID       int64     `json:"id"`
	DepartAt time.Time `json:"departAt"`
	Stock    int       `json:"stock"`
}

type Tour struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Thumbnail   string      `json:"thumbnail"`
	Images      []string    `json:"images"`
	Price       int64       `json:"price"`
	Discount    int         `json:"discount"`
	Status      ItemStatus  `json:"status"`
	Position    int         `json:"position"`
	Departures  []Departure `json:"departures"`
	Deleted     bool        `json:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// DiscountedPrice applies a whole-number percentage discount in minor units,
// rounding down.
func DiscountedPrice(price int64, percent int) int64 {
	if percent <= 0 {
		return price
	}
	if percent >= 100 {
		return 0
	}
	return price * int64(100-percent) / 100
}

func (t *Tour) UnitPrice() int64 {
	return DiscountedPrice(t.Price, t.Discount)
}

func (t *Tour) IsBookable() bool {
	return t != nil && !t.Deleted && t.Status == ItemActive
}

// Departure finds the slot departing at exactly at.
func (t *Tour) Departure(at time.Time) (*Departure, bool) {
	for i := range t.Departures {
		if t.Departures[i].DepartAt.Equal(at) {
			return &t.Departures[i], true
		}
	}
	return nil, false
}

type DepartureInput struct {
	DepartAt time.Time `json:"departAt"`
	Stock    int       `json:"stock"`
}

type TourInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Thumbnail   string           `json:"thumbnail"`
	Images      []string         `json:"images"`
	Price       int64            `json:"price"`
	Discount    int              `json:"discount"`
	Status      ItemStatus       `json:"status"`
	Position    int              `json:"position"`
	Departures  []DepartureInput `json:"departures"`
}

func (in *TourInput) Validate() error {
	if in.Title == "" {
		return Invalid("title is required")
	}
	if in.Price < 0 {
		return Invalid("price must not be negative")
	}
	if in.Discount < 0 || in.Discount > 100 {
		return Invalid("discount must be between 0 and 100")
	}
	if in.Status == "" {
		in.Status = ItemActive
	}
	if _, ok := ParseItemStatus(string(in.Status)); !ok {
		return Invalid("invalid status %q", in.Status)
	}
	seen := map[int64]bool{}
	for _, d := range in.Departures {
		if d.DepartAt.IsZero() {
			return Invalid("departure time is required")
		}
		if d.Stock < 0 {
			return Invalid("departure stock must not be negative")
		}
		k := d.DepartAt.UnixNano()
		if seen[k] {
			return Invalid("duplicate departure %s", d.DepartAt.Format(time.RFC3339))
		}
		seen[k] = true
	}
	return nil
}

type TourFilter struct {
	Keyword  string
	Sort     string // price_asc, price_desc, position (default)
	Status   string
	OnlyLive bool
	Limit    int
	Offset   int
}
