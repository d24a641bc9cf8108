package gitx

import (
	"strings"

	"github.com/skaphos/testbed/internal/model"
)

// ParseSubmoduleStatus parses `git submodule status --recursive` output.
//
// Each line is `<state><sha1> <path> (<describe>)` where state is one of
// ' ' (initialized, at the recorded commit), '-' (not initialized),
// '+' (checked out to a different commit), or 'U' (merge conflicts).
func ParseSubmoduleStatus(out string) []model.Submodule {
	var subs []model.Submodule
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		state := byte(' ')
		if line[0] == '-' || line[0] == '+' || line[0] == 'U' {
			state = line[0]
			line = line[1:]
		} else if line[0] == ' ' {
			line = line[1:]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		subs = append(subs, model.Submodule{
			Revision:           fields[0],
			Path:               fields[1],
			Initialized:        state != '-',
			AtRecordedRevision: state == ' ',
		})
	}
	return subs
}
