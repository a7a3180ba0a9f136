package models

// CatalogItem covers the flat lookup tables: application locations,
// payment types and correction types.
type CatalogItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type MedalTier struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}
