package view

import (
	"github.com/a-h/templ"

	"github.com/candlewaxgames/candlewax/site/service"
)

func (s *Site) home(map[string]any) templ.Component {
	return homePage(s.name)
}

func (s *Site) notFound(map[string]any) templ.Component {
	return notFoundPage()
}

func (s *Site) postIndex(data map[string]any) templ.Component {
	posts, _ := data["posts"].([]service.Post)
	loggedIn, _ := data["loggedIn"].(bool)
	return postIndexPage(s, posts, pageLinks(data, "/discussion"), loggedIn)
}

func (s *Site) blogIndex(data map[string]any) templ.Component {
	posts, _ := data["posts"].([]service.Post)
	return blogIndexPage(s, posts, pageLinks(data, "/blog"))
}

func (s *Site) postView(data map[string]any) templ.Component {
	article, _ := data["article"].(service.Post)
	replies, _ := data["replies"].([]service.Reply)
	canReply := currentUsername(data) != ""
	return postViewPage(s, article, replies, canReply, formField(data, "textarea", "content", "Reply"))
}

func (s *Site) postCreate(data map[string]any) templ.Component {
	return postCreatePage(
		formField(data, "text", "title", "Title"),
		formField(data, "textarea", "content", "Content"),
	)
}

func (s *Site) postNotFound(data map[string]any) templ.Component {
	slug, _ := data["slug"].(string)
	return postNotFoundPage(slug)
}

func (s *Site) catalogueIndex(data map[string]any) templ.Component {
	games, _ := data["games"].([]service.Game)
	thumbs, _ := data["thumbnails"].(map[int64]service.Screenshot)
	return catalogueIndexPage(s, games, thumbs)
}

func (s *Site) catalogueView(data map[string]any) templ.Component {
	game, _ := data["game"].(service.Game)
	shots, _ := data["screenshots"].([]service.Screenshot)
	return catalogueViewPage(s, game, shots)
}

func (s *Site) login(data map[string]any) templ.Component {
	return loginPage(
		[]field{
			formField(data, "email", "email", "Email"),
			formField(data, "password", "password", "Password"),
		},
		[]field{
			formField(data, "text", "username", "Username"),
			formField(data, "email", "email", "Email"),
			formField(data, "password", "password", "Password"),
			formField(data, "password", "confirm", "Confirm password"),
		},
	)
}

func (s *Site) accountEdit(data map[string]any) templ.Component {
	user, _ := data["user"].(service.User)
	profile, _ := data["profile"].(*service.Profile)
	if formValue(data, "username") == "" {
		data = withForm(data, map[string]string{"username": user.Username, "email": user.Email})
	}

	var avatar, bio string
	if profile != nil {
		avatar, bio = profile.Image, profile.Bio
	}
	return accountEditPage(s,
		[]field{
			formField(data, "text", "username", "Username"),
			formField(data, "email", "email", "Email"),
			formField(data, "password", "password", "Current password"),
		},
		[]field{
			formField(data, "password", "old_password", "Current password"),
			formField(data, "password", "new_password", "New password"),
			formField(data, "password", "new_confirm", "Confirm new password"),
		},
		avatar, bio, errorsFor(data, "image"),
	)
}

func (s *Site) profile(data map[string]any) templ.Component {
	p, _ := data["user"].(service.Profile)
	return profilePage(s, p)
}

func (s *Site) profileNotFound(data map[string]any) templ.Component {
	name, _ := data["username"].(string)
	return profileNotFoundPage(name)
}

// withForm returns a copy of data whose form fields default to defaults.
func withForm(data map[string]any, defaults map[string]string) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	form := make(map[string]string, len(defaults))
	for k, v := range defaults {
		form[k] = v
	}
	switch prev := data[service.FlashPost].(type) {
	case map[string]string:
		for k, v := range prev {
			form[k] = v
		}
	case map[string]any:
		for k, v := range prev {
			if s, ok := v.(string); ok {
				form[k] = s
			}
		}
	}
	out[service.FlashPost] = form
	return out
}

// excerpt cuts s to at most n runes, ending with an ellipsis when cut.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
