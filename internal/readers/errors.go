package readers

import (
	"fmt"

	"log-analyzer/internal/shared/svcerrors"
)

const (
	codeInternalOpenLogfileFailed = "RDR_9000"
)

// errOpenLogfileFailed returns an error when the selected logfile cannot be opened or decompressed.
func errOpenLogfileFailed(path string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalOpenLogfileFailed, fmt.Errorf("openLogfileFailed %s: %w", path, cause))
}
