package repo

// UpdatePolicy selects what Check treats as "advanced": every push to the
// branch, or the newest tag matching a glob. A closed two-variant sum type,
// spec.md §3's --on=push|tag:<glob> flag.
type UpdatePolicy interface {
	isUpdatePolicy()
}

// OnPush accepts any fast-forward of the tracked branch.
type OnPush struct{}

func (OnPush) isUpdatePolicy() {}

// OnTag accepts only the newest tag matching Glob that is new since the
// last check.
type OnTag struct {
	Glob string
}

func (OnTag) isUpdatePolicy() {}
