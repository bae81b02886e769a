package room

// Room describes one bookable studio room. Prices are whole rupiah per hour;
// rooms are immutable reference data.
type Room struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PricePerHour int64  `json:"price_per_hour"`
	Capacity     int    `json:"capacity"`
	Description  string `json:"description"`
}

// Catalog is a fixed lookup of rooms keyed by ID.
type Catalog struct {
	rooms map[string]Room
	order []string
}

// DefaultRooms returns the studio's room list.
func DefaultRooms() []Room {
	return []Room{
		{ID: "POD", Name: "Ruang Podcast", PricePerHour: 100000, Capacity: 4, Description: "Recording & podcast sessions"},
		{ID: "MEET", Name: "Ruang Rapat", PricePerHour: 150000, Capacity: 8, Description: "Team meetings & presentations"},
		{ID: "KRJ", Name: "Ruang Kerja", PricePerHour: 200000, Capacity: 6, Description: "Coworking & group work"},
		{ID: "STD", Name: "Studio", PricePerHour: 250000, Capacity: 12, Description: "Production studio"},
	}
}

// NewCatalog builds a catalog from the given rooms.
func NewCatalog(rooms []Room) *Catalog {
	c := &Catalog{rooms: make(map[string]Room, len(rooms))}
	for _, r := range rooms {
		c.rooms[r.ID] = r
		c.order = append(c.order, r.ID)
	}
	return c
}

// NewDefaultCatalog builds a catalog with the studio's standard rooms.
func NewDefaultCatalog() *Catalog {
	return NewCatalog(DefaultRooms())
}

// Get returns the room with the given ID.
func (c *Catalog) Get(id string) (Room, bool) {
	r, ok := c.rooms[id]
	return r, ok
}

// All returns every room in declaration order.
func (c *Catalog) All() []Room {
	out := make([]Room, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.rooms[id])
	}
	return out
}
