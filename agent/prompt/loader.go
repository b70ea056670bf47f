package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/supervisor.txt
var supervisorRaw string

// Supervisor returns the trimmed system prompt for the banking supervisor.
func Supervisor() string {
	return strings.TrimSpace(supervisorRaw)
}
