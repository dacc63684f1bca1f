package auth

import (
	"errors"

	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
)

var (
	MissingCredentialsErr = cterrors.ErrMissingCredentials
	NoClientErr           = errors.New("api client is required")
)
