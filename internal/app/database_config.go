package app

import "github.com/charlesng35/termfolio/internal/database"

// OpenConfig converts the database settings into the connection parameters
// expected by database.Open.
func (c DatabaseConfig) OpenConfig() database.Config {
	return database.Config{
		Driver:   c.Driver,
		Path:     c.Path,
		DSN:      c.DSN,
		Host:     c.Host,
		Port:     c.Port,
		Name:     c.Name,
		User:     c.User,
		Password: c.Password,
	}
}
