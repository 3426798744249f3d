package app

// Command is the application launch mode.
type Command string

const (
	// CommandServe starts the API server.
	CommandServe Command = "serve"
	// CommandHealthcheck probes the running server's /health endpoint.
	// Used as the Docker health check in distroless images.
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand parses the subcommand from the command-line arguments.
// Empty or unknown arguments default to CommandServe.
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
