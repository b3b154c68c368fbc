package knowledgelearning

import (
	"flag"
	"fmt"
)

// Parse parses command line arguments into the command to execute and the
// application configuration. Flags override what the environment provides.
func Parse(args []string) (Command, *Config, error) {
	flagSet := flag.NewFlagSet("knowledgelearning", flag.ContinueOnError)

	var (
		mode = flagSet.String("mode", "", "Store mode: relational, document or both (overrides KL_STORE_MODE)")
		port = flagSet.String("port", "", "Server port (overrides KL_PORT)")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	remainingArgs := flagSet.Args()
	if len(remainingArgs) == 0 {
		return nil, nil, fmt.Errorf(`subcommand required

Usage: knowledgelearning [flags] <command>

Commands:
  run       Start the Knowledge Learning server
  migrate   Run schema migrations on the active stores

Examples:
  knowledgelearning run                      # Relational store only (default)
  knowledgelearning -mode document run       # Document store only
  knowledgelearning -mode both run           # Both stores with identity mirroring
  knowledgelearning -mode both migrate       # Migrate both stores
  knowledgelearning -port 8090 run`)
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if *mode != "" {
		switch StoreMode(*mode) {
		case ModeRelational, ModeDocument, ModeBoth:
			config.Mode = StoreMode(*mode)
		default:
			return nil, nil, fmt.Errorf("invalid store mode: %s (must be relational, document or both)", *mode)
		}
	}
	if *port != "" {
		config.ServerPort = *port
	}

	var cmd Command
	switch remainingArgs[0] {
	case "run":
		cmd = &RunCommand{}
	case "migrate":
		cmd = &MigrateCommand{}
	default:
		return nil, nil, fmt.Errorf("unknown command: %s\n\nValid commands: run, migrate", remainingArgs[0])
	}

	return cmd, config, nil
}
