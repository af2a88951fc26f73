// Package application provides the application interface for obrabotka commands.
//
// The Application interface is the contract between the application layer and
// command implementations, so commands and the HTTP server can be tested with
// a Mock instead of a fully configured App.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            client, err := app.Client()
//	            if err != nil {
//	                return err
//	            }
//	            session, err := client.NewSession()
//	            // ...
//	        },
//	    }
//	}
package application

import (
	"context"

	"github.com/rs/zerolog"

	obrabotka "github.com/EvTKi/Obrabotka-Jeka-remake"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// Matcher is the matching backend with its preview and health checks.
type Matcher interface {
	workflow.Collaborator
	workflow.Previewer
	Health(ctx context.Context) error
}

// Application provides the application interface that commands need.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the session client, creating it lazily on first use.
	Client() (obrabotka.Client, error)

	// Matcher returns the configured matching backend.
	Matcher() (Matcher, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// SessionDir returns the directory CLI session files are kept in.
	SessionDir() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
