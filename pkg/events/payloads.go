package events

import "time"

// FileOperation enumerates the kinds of file-system change a
// FileEvent can carry.
type FileOperation string

const (
	FileOpCreate FileOperation = "create"
	FileOpModify FileOperation = "modify"
	FileOpDelete FileOperation = "delete"
	FileOpRename FileOperation = "rename"
	FileOpSave   FileOperation = "save"
)

// FilePayload is the payload of a KindFile event.
type FilePayload struct {
	Operation   FileOperation
	Path        string
	FileType    string // derived from extension
	OldPath     string // required iff Operation == FileOpRename
	ContentHash string // optional
	Size        *int64 // optional
}

// Comparator enumerates the comparisons a ThresholdDescriptor supports.
type Comparator string

const (
	ComparatorGt  Comparator = "gt"
	ComparatorLt  Comparator = "lt"
	ComparatorGte Comparator = "gte"
	ComparatorLte Comparator = "lte"
	ComparatorEq  Comparator = "eq"
	ComparatorNeq Comparator = "neq"
)

// ThresholdDescriptor describes the condition that fired a
// MetricThresholdEvent.
type ThresholdDescriptor struct {
	Value      float64
	Comparator Comparator
	Duration   *time.Duration // optional "for" duration
}

// MetricThresholdPayload is the payload of a KindMetricThreshold event.
type MetricThresholdPayload struct {
	MetricName string
	Value      float64
	Threshold  ThresholdDescriptor
	Labels     map[string]string // optional
}

// SystemPayload is the payload of a KindSystem event.
type SystemPayload struct {
	Component        string
	Status           string
	Details          string
	AffectedServices []string
}

// GitPayload is the payload of a KindGit event.
type GitPayload struct {
	Repository   string
	Branch       string
	CommitHash   string
	Author       string
	Message      string
	FilesChanged []string
}

// BuildPayload is the payload of a KindBuild event.
type BuildPayload struct {
	Project   string
	BuildID   string
	Type      string
	Duration  *time.Duration // optional
	Artifacts []string
	Errors    []string
}

// DependencyPayload is the payload of a KindDependency event.
type DependencyPayload struct {
	Package         string
	Version         string
	PreviousVersion string
	Ecosystem       string
	Vulnerabilities []string
}

// LifecycleAction enumerates the container lifecycle transitions a
// LifecycleEvent can report.
type LifecycleAction string

const (
	LifecycleCreate       LifecycleAction = "create"
	LifecycleStart        LifecycleAction = "start"
	LifecycleStop         LifecycleAction = "stop"
	LifecycleRestart      LifecycleAction = "restart"
	LifecycleDie          LifecycleAction = "die"
	LifecycleKill         LifecycleAction = "kill"
	LifecyclePause        LifecycleAction = "pause"
	LifecycleUnpause      LifecycleAction = "unpause"
	LifecycleDestroy      LifecycleAction = "destroy"
	LifecycleHealthStatus LifecycleAction = "health_status"
)

// LifecyclePayload is the payload of a KindLifecycle event.
type LifecyclePayload struct {
	ContainerID   string
	ContainerName string
	Image         string
	Action        LifecycleAction
	Timestamp     time.Time
	ExitCode      *int
	Signal        *string
}

// LogPatternPayload is the payload of a KindLogPattern event — a
// private extension carrying a matched log line, not part of the
// core event-kind contract guarantees.
type LogPatternPayload struct {
	ContainerID string
	Pattern     string
	Line        string
	MatchCount  int
}
