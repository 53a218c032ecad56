package internal

import (
	"context"
	"strings"
)

// ActionFunc runs an action on a controller built by the injector.
type ActionFunc func(ctx context.Context, controller any, args Args) (Outcome, error)

// ActionSpec declares an action: its name, its parameters and how to call it.
type ActionSpec struct {
	Invoke ActionFunc
	Name   string
	Params []Param
}

// ControllerSpec lists the actions of the controller registered in the
// injector under Type.
//
// Example:
//
//	internal.ControllerSpec{
//	    Type: internal.ControllerType("Discussion", "Post"),
//	    Actions: []internal.ActionSpec{{
//	        Name:   "index",
//	        Params: []internal.Param{{Name: "pageNumber", Kind: internal.KindInt}},
//	        Invoke: func(ctx context.Context, c any, args internal.Args) (internal.Outcome, error) {
//	            return c.(*PostController).Index(ctx, args.Int(0))
//	        },
//	    }},
//	}
type ControllerSpec struct {
	Type    TypeID
	Actions []ActionSpec
}

// Action finds an action by name, ignoring case.
func (s *ControllerSpec) Action(name string) (*ActionSpec, bool) {
	for i := range s.Actions {
		if strings.EqualFold(s.Actions[i].Name, name) {
			return &s.Actions[i], true
		}
	}
	return nil, false
}

// ControllerType is the injector type of the controller for a module and
// controller name pair, e.g. "Discussion.Post".
func ControllerType(module, controller string) TypeID {
	return TypeID(module + "." + controller)
}
