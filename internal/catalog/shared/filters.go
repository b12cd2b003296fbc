package shared

const (
	DefaultPage  = 1
	DefaultLimit = 50
)

// ListFilters represents standard list filters for catalog entities.
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool

	// Entity specific filters
	ClientID     *int64
	LocationType string
}
