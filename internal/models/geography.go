package models

// Region is a top-level administrative region. Reference data created by
// bulk import, immutable at runtime.
type Region struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// District belongs to exactly one region.
type District struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	RegionID string `db:"region_id" json:"region_id"`
}

// DistrictDetail includes the owning region name for list views.
type DistrictDetail struct {
	District
	RegionName string `db:"region_name" json:"region_name"`
}
