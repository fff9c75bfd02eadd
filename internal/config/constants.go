package config

// Default paths and route prefixes shared across packages.
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bookstore.db"

	// AuthRoutePrefix marks routes that get the stricter auth rate limit
	AuthRoutePrefix = "/auth/"
)
