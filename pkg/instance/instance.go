package instance

import (
	"os"
	"strings"
)

// ID names this process in logs: the platform dyno, the container hostname, or "local".
func ID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
