package app

import "travel-journal/internal/model"

// CanCreate reports whether actorID may create entries: any resolved
// identity may.
func CanCreate(actorID string) bool {
	return actorID != ""
}

// CanRead always holds; entries are public.
func CanRead() bool {
	return true
}

// CanToggleLike requires a resolved identity. Owners may like their own
// entries.
func CanToggleLike(actorID string) bool {
	return actorID != ""
}

// CanDelete holds only for the entry's owner.
func CanDelete(actorID string, entry *model.Entry) bool {
	return actorID != "" && entry != nil && actorID == entry.OwnerID()
}
