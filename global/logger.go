package global

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

var logger hclog.Logger

func init() {
	logger = hclog.New(&hclog.LoggerOptions{
		Name:   "vault-rbac",
		Level:  hclog.LevelFromString(os.Getenv("LOG_LEVEL")),
		Output: os.Stderr,
	})
}

// Logger returns the shared process logger. Packages keep a package-level
// reference the same way the sync plugins do.
func Logger() hclog.Logger {
	return logger
}
