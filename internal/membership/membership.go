// Package membership verifies that a user belongs to every required group.
package membership

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/gogermany/gobot/core/logger"
)

const component = "svc.membership"

// Status is the membership role reported by the transport.
type Status string

const (
	StatusCreator       Status = "creator"
	StatusAdministrator Status = "administrator"
	StatusMember        Status = "member"
	StatusRestricted    Status = "restricted"
	StatusLeft          Status = "left"
	StatusKicked        Status = "kicked"
)

// Counts reports whether the status satisfies a subscription requirement.
func (s Status) Counts() bool {
	switch s {
	case StatusCreator, StatusAdministrator, StatusMember:
		return true
	}
	return false
}

// Lookup fetches one user's status in one group.
type Lookup interface {
	MemberStatus(ctx context.Context, groupID string, userID int64) (Status, error)
}

// Group is a required group with the invite link shown to users.
type Group struct {
	ID   string
	Link string
}

// Result aggregates the per-group checks. Missing holds groups the user is
// definitely not in; Unverified holds groups whose lookup failed.
type Result struct {
	Missing    []Group
	Unverified []Group
}

// Satisfied reports whether every group was verified and joined.
func (r Result) Satisfied() bool {
	return len(r.Missing) == 0 && len(r.Unverified) == 0
}

// Checker queries all required groups concurrently.
type Checker struct {
	lookup Lookup
	groups []Group
}

// NewChecker builds a Checker over the configured groups. Groups with an
// empty id are skipped.
func NewChecker(lookup Lookup, groups ...Group) *Checker {
	kept := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.ID != "" {
			kept = append(kept, g)
		}
	}
	return &Checker{lookup: lookup, groups: kept}
}

// Groups returns the required groups in configuration order.
func (c *Checker) Groups() []Group {
	return append([]Group(nil), c.groups...)
}

// Check looks the user up in every group. A failed lookup is reported in
// Unverified and never counted as a plain non-membership.
func (c *Checker) Check(ctx context.Context, userID int64) Result {
	statuses := make([]Status, len(c.groups))
	errs := make([]error, len(c.groups))

	var g errgroup.Group
	for i, group := range c.groups {
		g.Go(func() error {
			statuses[i], errs[i] = c.lookup.MemberStatus(ctx, group.ID, userID)
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for i, group := range c.groups {
		switch {
		case errs[i] != nil:
			logger.Warn(ctx, component, "membership.lookup_failed",
				slog.String("group", group.ID),
				slog.Int64("user_id", userID),
				slog.String("err", errs[i].Error()),
			)
			res.Unverified = append(res.Unverified, group)
		case !statuses[i].Counts():
			res.Missing = append(res.Missing, group)
		}
	}
	logger.Debug(ctx, component, "membership.checked",
		slog.Int64("user_id", userID),
		slog.Int("groups", len(c.groups)),
		slog.Int("missing", len(res.Missing)),
		slog.Int("unverified", len(res.Unverified)),
	)
	return res
}
