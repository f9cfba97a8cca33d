package domain

import "time"

type Room struct {
	ID        int64      `json:"id"`
	HotelID   int64      `json:"hotelId"`
	Name      string     `json:"name"`
	Price     int64      `json:"price"`
	Available int        `json:"available"`
	Status    ItemStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Hotel struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Thumbnail   string     `json:"thumbnail"`
	Images      []string   `json:"images"`
	Status      ItemStatus `json:"status"`
	Rooms       []Room     `json:"rooms"`
	Deleted     bool       `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (h *Hotel) IsBookable() bool {
	return h != nil && !h.Deleted && h.Status == ItemActive
}

func (h *Hotel) Room(id int64) (*Room, bool) {
	for i := range h.Rooms {
		if h.Rooms[i].ID == id {
			return &h.Rooms[i], true
		}
	}
	return nil, false
}

type HotelInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Thumbnail   string     `json:"thumbnail"`
	Images      []string   `json:"images"`
	Status      ItemStatus `json:"status"`
}

func (in *HotelInput) Validate() error {
	if in.Name == "" {
		return Invalid("name is required")
	}
	if in.Status == "" {
		in.Status = ItemActive
	}
	if _, ok := ParseItemStatus(string(in.Status)); !ok {
		return Invalid("invalid status %q", in.Status)
	}
	return nil
}

type RoomInput struct {
	Name      string     `json:"name"`
	Price     int64      `json:"price"`
	Available int        `json:"available"`
	Status    ItemStatus `json:"status"`
}

func (in *RoomInput) Validate() error {
	if in.Name == "" {
		return Invalid("room name is required")
	}
	if in.Price < 0 {
		return Invalid("price must not be negative")
	}
	if in.Available < 0 {
		return Invalid("available must not be negative")
	}
	if in.Status == "" {
		in.Status = ItemActive
	}
	if _, ok := ParseItemStatus(string(in.Status)); !ok {
		return Invalid("invalid status %q", in.Status)
	}
	return nil
}

type HotelFilter struct {
	Keyword  string
	City     string
	Status   string
	OnlyLive bool
	Limit    int
	Offset   int
}
