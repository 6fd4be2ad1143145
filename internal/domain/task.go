package domain

import "time"

type Task struct {
	ID   int
	Name string

	Start           *time.Time
	Finish          *time.Time
	DurationMin     *int
	PercentComplete *int

	// Hierarchy
	OutlineLevel int
	ParentID     *int

	CalendarID *int
	Milestone  bool
}

type Resource struct {
	ID         int
	Name       string
	CalendarID *int
	MaxUnits   *float64
}

// Assignment links a resource to a task. At most one assignment exists per pair.
type Assignment struct {
	TaskID     int
	ResourceID int
	WorkMin    *int
	Units      *float64
}

// Dependency is a precedence link. Cycles are kept as data; self-loops are not.
type Dependency struct {
	PredecessorID int
	SuccessorID   int
	Type          LinkType
	LagMin        int
}
