package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CollisionAction selects how an upload colliding with an existing
// filename in the owner's namespace is handled.
type CollisionAction string

const (
	// ActionDefault rejects the upload and reports the duplicate
	ActionDefault CollisionAction = "default"
	// ActionReplace overwrites the existing file and its record
	ActionReplace CollisionAction = "replace"
	// ActionKeepBoth stores the upload under a derived unique name
	ActionKeepBoth CollisionAction = "keep_both"
)

// Valid reports whether the action is one of the known policies
func (a CollisionAction) Valid() bool {
	switch a {
	case ActionDefault, ActionReplace, ActionKeepBoth:
		return true
	}
	return false
}

var (
	ErrDuplicateName = errors.New("a file with this name already exists")
	ErrInvalidAction = errors.New("invalid collision action")
)

// splitName splits a filename into stem and extension, keeping the dot
// with the extension: "report.pdf" -> ("report", ".pdf").
func splitName(name string) (stem, ext string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}

// nextAvailableName probes "stem (1)ext", "stem (2)ext", ... until it
// finds a name that is free both in the metadata store and on disk for
// this owner. Terminates because existing collisions are finite.
func (uc *FileUseCase) nextAvailableName(ctx context.Context, owner, desired string) (string, error) {
	stem, ext := splitName(desired)

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)

		existing, err := uc.repo.GetByOwnerAndName(ctx, owner, candidate)
		if err != nil && !errors.Is(err, ErrFileNotFound) {
			return "", err
		}
		if existing != nil {
			continue
		}
		if uc.store.Exists(uc.store.PathFor(owner, candidate)) {
			continue
		}
		return candidate, nil
	}
}

// resolveName applies the collision policy for a desired filename.
// It returns the final name to store under, whether an existing record
// must be replaced, and that record when one exists.
func (uc *FileUseCase) resolveName(ctx context.Context, owner, desired string, action CollisionAction) (finalName string, replace *FileRecord, err error) {
	if !action.Valid() {
		return "", nil, ErrInvalidAction
	}

	existing, err := uc.repo.GetByOwnerAndName(ctx, owner, desired)
	if err != nil && !errors.Is(err, ErrFileNotFound) {
		return "", nil, err
	}

	if existing == nil {
		return desired, nil, nil
	}

	switch action {
	case ActionDefault:
		return "", nil, ErrDuplicateName
	case ActionReplace:
		return desired, existing, nil
	case ActionKeepBoth:
		name, err := uc.nextAvailableName(ctx, owner, desired)
		if err != nil {
			return "", nil, err
		}
		return name, nil, nil
	default:
		return "", nil, ErrInvalidAction
	}
}
