package models

// Game представляет игровую дисциплину (CS2, Valorant, Dota 2 и т.д.).
type Game struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}

// Region представляет игровой регион, соответствует ENUM в БД.
type Region string

const (
	RegionEU   Region = "eu"
	RegionNA   Region = "na"
	RegionSA   Region = "sa"
	RegionAsia Region = "asia"
	RegionOCE  Region = "oce"
)

func (r Region) Valid() bool {
	switch r {
	case RegionEU, RegionNA, RegionSA, RegionAsia, RegionOCE:
		return true
	}
	return false
}
