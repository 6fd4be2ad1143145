package domain

type LinkType string

const (
	LinkFinishToFinish LinkType = "finish_to_finish"
	LinkFinishToStart  LinkType = "finish_to_start"
	LinkStartToFinish  LinkType = "start_to_finish"
	LinkStartToStart   LinkType = "start_to_start"
)

// ValidLinkTypes is the canonical set of accepted link type strings.
var ValidLinkTypes = map[LinkType]bool{
	LinkFinishToFinish: true,
	LinkFinishToStart:  true,
	LinkStartToFinish:  true,
	LinkStartToStart:   true,
}

type NoteCode string

const (
	NoteDanglingTask            NoteCode = "dangling_task"
	NoteDanglingResource        NoteCode = "dangling_resource"
	NoteDanglingParent          NoteCode = "dangling_parent"
	NoteParentCycle             NoteCode = "parent_cycle"
	NoteOutlineAdjusted         NoteCode = "outline_adjusted"
	NoteDanglingCalendar        NoteCode = "dangling_calendar"
	NoteDuplicateAssignment     NoteCode = "duplicate_assignment"
	NoteDuplicateDependency     NoteCode = "duplicate_dependency"
	NoteSelfLoop                NoteCode = "self_loop"
	NoteCalendarFlattened       NoteCode = "calendar_flattened"
	NoteCalendarCycle           NoteCode = "calendar_cycle"
	NoteTemplateProgressCleared NoteCode = "template_progress_cleared"
)

type ConversionStatus string

const (
	ConversionSucceeded ConversionStatus = "succeeded"
	ConversionFailed    ConversionStatus = "failed"
)
