package domain

import "time"

type CartTour struct {
	TourID   int64     `json:"tourId"`
	DepartAt time.Time `json:"departAt"`
	Quantity int       `json:"quantity"`
}

type CartRoom struct {
	HotelID  int64     `json:"hotelId"`
	RoomID   int64     `json:"roomId"`
	Quantity int       `json:"quantity"`
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
}

// Nights is the number of whole nights between check-in and check-out dates.
func Nights(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return int(out.Sub(in).Hours() / 24)
}

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Tours     []CartTour `json:"tours"`
	Rooms     []CartRoom `json:"rooms"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.Tours) == 0 && len(c.Rooms) == 0
}

func (c *Cart) FindTour(tourID int64, at time.Time) int {
	for i, l := range c.Tours {
		if l.TourID == tourID && l.DepartAt.Equal(at) {
			return i
		}
	}
	return -1
}

func (c *Cart) FindRoom(roomID int64, in, out time.Time) int {
	for i, l := range c.Rooms {
		if l.RoomID == roomID && l.CheckIn.Equal(in) && l.CheckOut.Equal(out) {
			return i
		}
	}
	return -1
}

// SetTour replaces the quantity of a tour line, appending it if absent.
func (c *Cart) SetTour(line CartTour) {
	if i := c.FindTour(line.TourID, line.DepartAt); i >= 0 {
		c.Tours[i].Quantity = line.Quantity
		return
	}
	c.Tours = append(c.Tours, line)
}

func (c *Cart) SetRoom(line CartRoom) {
	if i := c.FindRoom(line.RoomID, line.CheckIn, line.CheckOut); i >= 0 {
		c.Rooms[i].Quantity = line.Quantity
		return
	}
	c.Rooms = append(c.Rooms, line)
}

func (c *Cart) RemoveTour(tourID int64, at time.Time) bool {
	i := c.FindTour(tourID, at)
	if i < 0 {
		return false
	}
	c.Tours = append(c.Tours[:i:i], c.Tours[i+1:]...)
	return true
}

func (c *Cart) RemoveRoom(roomID int64, in, out time.Time) bool {
	i := c.FindRoom(roomID, in, out)
	if i < 0 {
		return false
	}
	c.Rooms = append(c.Rooms[:i:i], c.Rooms[i+1:]...)
	return true
}

// RemoveOrdered drops every line that the order bought. Lines added after
// checkout stay.
func (c *Cart) RemoveOrdered(o *Order) {
	for _, t := range o.Tours {
		c.RemoveTour(t.TourID, t.DepartAt)
	}
	for _, r := range o.Rooms {
		c.RemoveRoom(r.RoomID, r.CheckIn, r.CheckOut)
	}
}

type AddTourRequest struct {
	TourID   int64     `json:"tourId"`
	DepartAt time.Time `json:"departAt"`
	Quantity int       `json:"quantity"`
}

type RemoveTourRequest struct {
	TourID   int64     `json:"tourId"`
	DepartAt time.Time `json:"departAt"`
}

type AddRoomRequest struct {
	HotelID  int64     `json:"hotelId"`
	RoomID   int64     `json:"roomId"`
	Quantity int       `json:"quantity"`
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
}

type RemoveRoomRequest struct {
	RoomID   int64     `json:"roomId"`
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
}

// CartTourLine is a cart tour line joined with live catalogue data.
type CartTourLine struct {
	CartTour
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Thumbnail string `json:"thumbnail"`
	UnitPrice int64  `json:"unitPrice"`
	Stock     int    `json:"stock"`
	LineTotal int64  `json:"lineTotal"`
	Available bool   `json:"available"`
}

type CartRoomLine struct {
	CartRoom
	HotelName string `json:"hotelName"`
	RoomName  string `json:"roomName"`
	Nights    int    `json:"nights"`
	UnitPrice int64  `json:"unitPrice"`
	Stock     int    `json:"stock"`
	LineTotal int64  `json:"lineTotal"`
	Available bool   `json:"available"`
}

type CartDetail struct {
	ID    int64          `json:"id"`
	Tours []CartTourLine `json:"tours"`
	Rooms []CartRoomLine `json:"rooms"`
	Total int64          `json:"total"`
}
