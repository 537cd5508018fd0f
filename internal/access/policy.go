package access

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
)

type Operation int

const (
	ViewProfile Operation = iota + 1
	LinkCorporation
	AssignSkill
	ListSkills
	CreateSkill
	ListProjects
	ViewProject
	CreateProject
	UpdateProject
	DeleteProject
	JoinProject
	ListEvents
	ViewEvent
	CreateEvent
	RegisterForEvent
)

var operationNames = map[Operation]string{
	ViewProfile:      "view profile",
	LinkCorporation:  "link corporation",
	AssignSkill:      "assign skill",
	ListSkills:       "list skills",
	CreateSkill:      "create skill",
	ListProjects:     "list projects",
	ViewProject:      "view project",
	CreateProject:    "create project",
	UpdateProject:    "update project",
	DeleteProject:    "delete project",
	JoinProject:      "join project",
	ListEvents:       "list events",
	ViewEvent:        "view event",
	CreateEvent:      "create event",
	RegisterForEvent: "register for event",
}

func (o Operation) String() string {
	if n, ok := operationNames[o]; ok {
		return n
	}
	return "unknown operation"
}

// Request describes an attempted operation. OwnerID is the owning user of
// the target resource, when the operation is owner-restricted.
type Request struct {
	Op      Operation
	OwnerID int64
}

const msgRepresentativeOnly = "only corporation representatives can create events"

// Authorize returns nil when caller may perform req, an authentication error
// when there is no caller, and an authorization error otherwise.
func Authorize(c Caller, req Request) error {
	if c == nil {
		return apperr.Authentication("authentication credentials were not provided")
	}
	switch req.Op {
	case CreateEvent:
		if _, ok := c.(CorporateRepresentative); !ok {
			return apperr.Authorization(msgRepresentativeOnly)
		}
	case UpdateProject, DeleteProject:
		if c.Account().ID != req.OwnerID {
			return apperr.Authorization("only the project owner can " + req.Op.String())
		}
	case 0:
		return apperr.Authorization("unknown operation")
	}
	return nil
}

// Require loads the caller from ctx and authorizes req.
func Require(ctx context.Context, req Request) (Caller, error) {
	c, _ := FromContext(ctx)
	if err := Authorize(c, req); err != nil {
		return nil, err
	}
	return c, nil
}

// RequireRepresentative is Require for operations reserved to corporate
// representatives; it returns the narrowed caller.
func RequireRepresentative(ctx context.Context, op Operation) (CorporateRepresentative, error) {
	c, err := Require(ctx, Request{Op: op})
	if err != nil {
		return CorporateRepresentative{}, err
	}
	rep, ok := c.(CorporateRepresentative)
	if !ok {
		return CorporateRepresentative{}, apperr.Authorization(msgRepresentativeOnly)
	}
	return rep, nil
}
