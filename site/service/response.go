package service

import (
	"context"
	"maps"
	"strings"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/pkg/session"
)

// Flash keys shared by controllers and views.
const (
	FlashErrors   = "errors"
	FlashMessages = "messages"
	FlashPost     = "post"
)

// Response builds the outcomes controllers return. It carries flash
// messages and submitted forms from one page to the next.
type Response struct{}

// NewResponse creates a Response.
func NewResponse() *Response {
	return &Response{}
}

// Render shows view with data. Pending flash messages are merged into the
// data and cleared, and a submitted form is passed along under "post".
func (r *Response) Render(ctx context.Context, view string, data map[string]any) candlewax.Render {
	out := make(map[string]any, len(data)+2)
	maps.Copy(out, data)
	if sess := session.FromContext(ctx); sess != nil {
		maps.Copy(out, sess.Flashes())
	}
	if form := submittedForm(ctx); len(form) > 0 {
		out[FlashPost] = form
	}
	return candlewax.Render{View: view, Data: out}
}

// Redirect sends the client to url. A submitted form is flashed so the
// next page can refill it.
func (r *Response) Redirect(ctx context.Context, url string) candlewax.Redirect {
	if form := submittedForm(ctx); len(form) > 0 {
		r.Flash(ctx, FlashPost, form)
	}
	return candlewax.Redirect{URL: url}
}

// Forward runs another action within the request.
func (r *Response) Forward(controller, action string, params map[string]any) candlewax.Forward {
	return candlewax.Forward{Controller: candlewax.TypeID(controller), Action: action, Params: params}
}

// Flash queues messages under key for the next render. It is a no-op
// without a session.
func (r *Response) Flash(ctx context.Context, key string, messages any) {
	if sess := session.FromContext(ctx); sess != nil {
		sess.Flash(key, messages)
	}
}

// submittedForm returns the posted fields minus passwords and their
// confirmations, which never leave the request.
func submittedForm(ctx context.Context) map[string]string {
	req := candlewax.RequestFromContext(ctx)
	if req == nil {
		return nil
	}
	form := make(map[string]string, len(req.Form))
	for k, v := range req.Form {
		if strings.Contains(k, "password") || strings.HasSuffix(k, "confirm") {
			continue
		}
		form[k] = v
	}
	return form
}
