package models

import "fmt"

// Actor is the authenticated caller. The set of implementations is closed:
// StudentActor, SchoolAdminActor and CentralAdminActor.
type Actor interface {
	ActorID() string
	Role() UserRole
	actor()
}

// StudentActor is a verified student account.
type StudentActor struct {
	ID string
}

// SchoolAdminActor administers a single complaint category.
type SchoolAdminActor struct {
	ID       string
	Category Category
}

// CentralAdminActor oversees every category, user and audit row.
type CentralAdminActor struct {
	ID string
}

func (a StudentActor) ActorID() string      { return a.ID }
func (a SchoolAdminActor) ActorID() string  { return a.ID }
func (a CentralAdminActor) ActorID() string { return a.ID }

func (StudentActor) Role() UserRole      { return RoleStudent }
func (SchoolAdminActor) Role() UserRole  { return RoleSchoolAdmin }
func (CentralAdminActor) Role() UserRole { return RoleCentralAdmin }

func (StudentActor) actor()      {}
func (SchoolAdminActor) actor()  {}
func (CentralAdminActor) actor() {}

// ActorFor derives the actor variant from a loaded user.
func ActorFor(user *User) (Actor, error) {
	if user == nil {
		return nil, fmt.Errorf("nil user")
	}
	switch user.Role {
	case RoleStudent:
		return StudentActor{ID: user.ID}, nil
	case RoleSchoolAdmin:
		if user.Category == nil || !user.Category.Valid() {
			return nil, fmt.Errorf("school admin %s has no category", user.ID)
		}
		return SchoolAdminActor{ID: user.ID, Category: *user.Category}, nil
	case RoleCentralAdmin:
		return CentralAdminActor{ID: user.ID}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", user.Role)
	}
}
