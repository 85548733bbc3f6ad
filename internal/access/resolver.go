package access

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frahmantamala/calendar-sharing/internal/permission"
)

// Resolver computes the single effective permission a caller holds over a
// calendar or (calendar, sub-calendar) pair. It only reads, so it is safe
// for unlimited concurrent callers.
type Resolver struct {
	repo   Reader
	logger *slog.Logger
}

func NewResolver(repo Reader, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

// Resolve combines ownership, direct grants, group-derived grants and
// link-derived grants, reducing to the maximum level. Absence of permission
// is the NoAccess value, never an error. The calendar is assumed to exist.
func (r *Resolver) Resolve(ctx context.Context, calendarID uuid.UUID, caller Caller, subCalendarID *uuid.UUID) (permission.Permission, error) {
	var perms []permission.Permission

	if caller.UserID != nil {
		ownerID, err := r.repo.CalendarOwnerID(ctx, calendarID)
		if err != nil {
			return permission.NoAccess, err
		}
		if ownerID == *caller.UserID {
			// Owner bypass. Never stored as a grant row.
			return permission.Administrator, nil
		}

		userPerms, err := r.repo.UserPermissions(ctx, calendarID, *caller.UserID, subCalendarID)
		if err != nil {
			return permission.NoAccess, err
		}
		perms = append(perms, userPerms...)
	}

	if caller.LinkToken != "" {
		link, err := r.repo.ActiveLinkByToken(ctx, calendarID, caller.LinkToken)
		if err != nil {
			return permission.NoAccess, err
		}
		if link != nil {
			// A link normally has exactly one grant row, but a row-less link
			// must contribute nothing rather than fail.
			linkPerms, err := r.repo.LinkPermissions(ctx, link.ID, subCalendarID)
			if err != nil {
				return permission.NoAccess, err
			}
			perms = append(perms, linkPerms...)
		}
	}

	effective := permission.Highest(perms)
	r.logger.Debug("resolved effective permission",
		"calendar_id", calendarID,
		"has_user", caller.UserID != nil,
		"has_link_token", caller.LinkToken != "",
		"permission", effective)

	return effective, nil
}
