package services

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

type ActionKind string

const (
	ActionKeepRow        ActionKind = "keep-row"
	ActionMergeFile      ActionKind = "merge-file"
	ActionDeleteRow      ActionKind = "delete-row"
	ActionDeactivateFile ActionKind = "deactivate-file"
	ActionDeleteArtifact ActionKind = "delete-artifact"
	ActionRestoreFile    ActionKind = "restore-file"
	ActionFetch          ActionKind = "fetch"
	ActionSkip           ActionKind = "skip"
)

type Action struct {
	Kind   ActionKind
	Detail string
}

// ActionLog records every mutating decision. In dry-run mode the log is the
// entire output of a run: Note returns false and the caller performs nothing.
// The entries for a given database+dataset state are identical in both modes.
type ActionLog struct {
	DryRun  bool
	Entries []Action
}

// Note appends an action and reports whether the caller should execute it.
func (l *ActionLog) Note(kind ActionKind, format string, args ...any) bool {
	detail := fmt.Sprintf(format, args...)
	l.Entries = append(l.Entries, Action{Kind: kind, Detail: detail})

	if l.DryRun {
		log.Infof("[dry-run] %s: %s", kind, detail)
		return false
	}
	log.Infof("%s: %s", kind, detail)
	return true
}
