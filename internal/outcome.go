package internal

// Outcome is what an action asks the router to do next. It is one of
// Render, Redirect or Forward.
type Outcome interface {
	outcome()
}

// Render shows View with Data.
type Render struct {
	Data map[string]any
	View string
}

// Redirect sends the client to URL.
type Redirect struct {
	URL string
}

// Forward runs another action within the same request, without re-routing
// the URL. Params are bound to the target action by name.
type Forward struct {
	Params     map[string]any
	Controller TypeID
	Action     string
}

func (Render) outcome()   {}
func (Redirect) outcome() {}
func (Forward) outcome()  {}
