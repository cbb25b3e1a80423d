package battleship

const FleetSize = 5

const (
	ShipCarrier    = "carrier"
	ShipBattleship = "battleship"
	ShipCruiser    = "cruiser"
	ShipSubmarine  = "submarine"
	ShipDestroyer  = "destroyer"
)

// shipSizes is the fixed fleet composition. Ship ids are unique
// within one player's fleet, not globally.
var shipSizes = map[string]int{
	ShipCarrier:    5,
	ShipBattleship: 4,
	ShipCruiser:    3,
	ShipSubmarine:  3,
	ShipDestroyer:  2,
}

type Ship struct {
	Id        string     `json:"id"`
	Size      int        `json:"size"`
	Positions []Position `json:"positions"`
	IsPlaced  bool       `json:"isPlaced"`
	IsSunk    bool       `json:"isSunk"`
}

func NewShip(id string, size int) *Ship {
	return &Ship{
		Id:        id,
		Size:      size,
		Positions: make([]Position, 0, size),
	}
}

// NewFleet creates the default unplaced 5-ship fleet.
func NewFleet() map[string]*Ship {
	fleet := make(map[string]*Ship, FleetSize)
	for id, size := range shipSizes {
		fleet[id] = NewShip(id, size)
	}
	return fleet
}
