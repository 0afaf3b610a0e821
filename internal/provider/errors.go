package provider

import "errors"

// The failure taxonomy scripts signal to the orchestrator. Anything raised
// before a script reaches Authenticated() is an authentication failure,
// anything after is a fetch failure; scripts wrap their root causes with %w
// around these sentinels.
var (
	// ErrAuthenticationFailed marks an unrecoverable login failure.
	ErrAuthenticationFailed = errors.New("authenticationFailed")

	// ErrFetchFailed marks a failure after authentication completed.
	ErrFetchFailed = errors.New("failedToFetchDocuments")

	// ErrUnsupportedProvider is raised by the registry when no script is
	// registered for an account's provider key. It touches neither persisted
	// failure flag.
	ErrUnsupportedProvider = errors.New("websiteIsNotSupported")
)
