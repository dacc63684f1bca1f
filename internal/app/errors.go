package app

import (
	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
	"github.com/pkg/errors"
)

var ErrLoginRequired = errors.Wrap(cterrors.ErrNotAuthenticated, "run `campaign login` first")
