package constants

import "strings"

type WorkMode string

const (
	WorkModeRemote  WorkMode = "remote"
	WorkModeHybrid  WorkMode = "hybrid"
	WorkModeOnsite  WorkMode = "onsite"
	WorkModeUnknown WorkMode = ""
)

// InferWorkMode guesses the work arrangement from free text such as a location line.
func InferWorkMode(texts ...string) WorkMode {
	s := strings.ToLower(strings.Join(texts, " "))
	switch {
	case strings.Contains(s, "hybrid"):
		return WorkModeHybrid
	case strings.Contains(s, "remote"), strings.Contains(s, "work from home"), strings.Contains(s, "wfh"):
		return WorkModeRemote
	case strings.Contains(s, "on-site"), strings.Contains(s, "onsite"), strings.Contains(s, "in office"), strings.Contains(s, "in-office"):
		return WorkModeOnsite
	}
	return WorkModeUnknown
}
