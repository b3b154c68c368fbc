package knowledgelearning

// Command is a discrete application operation selected on the command line.
// Each implementation carries the options for its operation; shared
// database and server settings travel in [Config].
type Command interface {
	// Name returns the subcommand identifier used for routing.
	Name() string
}

// MigrateCommand initializes or updates the schema of every active store:
// GORM AutoMigrate for PostgreSQL, unique index definitions for SurrealDB.
// Safe to run repeatedly.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string { return "migrate" }

// RunCommand starts the HTTP server.
type RunCommand struct{}

func (c *RunCommand) Name() string { return "run" }
