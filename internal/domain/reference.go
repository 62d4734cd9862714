package domain

type VehicleMake struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type VehicleModel struct {
	ID        int    `json:"id"`
	MakeID    int    `json:"make_id"`
	Name      string `json:"name"`
	FirstYear int    `json:"first_year"`
	LastYear  int    `json:"last_year"`
}

// Years devuelve los años del modelo en orden descendente.
func (m VehicleModel) Years() []int {
	if m.LastYear < m.FirstYear {
		return nil
	}
	years := make([]int, 0, m.LastYear-m.FirstYear+1)
	for y := m.LastYear; y >= m.FirstYear; y-- {
		years = append(years, y)
	}
	return years
}

type ZipCode struct {
	Code        string  `json:"code"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	MarketIndex float64 `json:"market_index"`
}
