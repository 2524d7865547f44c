package linear

import "errors"

// Sentinel errors for the CLI domain.
var (
	ErrNotFound        = errors.New("not found")
	ErrNoTeams         = errors.New("you are not a member of any teams")
	ErrMissingAPIKey   = errors.New("missing API key: set LINEAR_API_KEY or api.key in the config file")
	ErrInvalidIssueRef = errors.New("invalid issue reference")
	ErrInvalidState    = errors.New("invalid state")
)
