package selectors

import (
	"fmt"

	"log-analyzer/internal/shared/svcerrors"
)

const (
	codeInvalidDirectory = "SEL_1000"
)

// errInvalidDirectory returns an error when the log directory is missing or is not a directory.
func errInvalidDirectory(dir string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidDirectory, fmt.Sprintf("invalid log directory %q", dir), cause)
}
