package models

import "time"

// Bus is a campus shuttle. CurrentStop is the driver-reported position,
// a free-form stop name resolved to coordinates on demand.
type Bus struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Route       string     `json:"route" db:"route"`
	CurrentStop *string    `json:"current_stop,omitempty" db:"current_stop"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Driver operates one bus. Position updates are authenticated by device
// API key and scoped to the driver's bus.
type Driver struct {
	ID       string `json:"id" db:"id"`
	FullName string `json:"full_name" db:"full_name"`
	BusID    string `json:"bus_id" db:"bus_id"`
}

// Location is a geocoded stop.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// BusPositionUpdate is pushed over the WebSocket feed when a driver
// reports a new stop.
type BusPositionUpdate struct {
	BusID       string    `json:"bus_id"`
	Name        string    `json:"name"`
	Route       string    `json:"route"`
	CurrentStop string    `json:"current_stop"`
	UpdatedAt   time.Time `json:"updated_at"`
}
