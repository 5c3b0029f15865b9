package taskgroup

import "errors"

var (
	// ErrInvalidFile indicates a task group file could not be decoded.
	ErrInvalidFile = errors.New("taskgroup: invalid task file")

	// ErrDuplicateGroup indicates a group name is already in use.
	ErrDuplicateGroup = errors.New("taskgroup: duplicate group")

	// ErrDuplicateTask indicates a task ID is already in use.
	ErrDuplicateTask = errors.New("taskgroup: duplicate task")

	// ErrGroupNotFound indicates no group has the given name.
	ErrGroupNotFound = errors.New("taskgroup: group not found")

	// ErrTaskNotFound indicates no task has the given ID.
	ErrTaskNotFound = errors.New("taskgroup: task not found")

	// ErrGroupMismatch indicates a task move between an enabled and a
	// disabled group.
	ErrGroupMismatch = errors.New("taskgroup: groups differ in enabled state")
)
