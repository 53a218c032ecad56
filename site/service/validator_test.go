package service_test

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax/pkg/storage"
	"github.com/candlewaxgames/candlewax/pkg/validator"
	"github.com/candlewaxgames/candlewax/site/service"
)

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	v := service.NewValidator(storage.DefaultImageRules())
	form := map[string]string{"title": "", "content": "body", "extra": "x"}

	data, errs := v.Validate(form, validator.Rules{
		"title":   {validator.Required("The post must have a title.")},
		"content": {validator.Required("The post must have content.")},
	})
	assert.Equal(t, map[string][]string{"title": {"The post must have a title."}}, errs)
	assert.NotContains(t, data, "extra")
	assert.Contains(t, form, "extra", "the submitted form is left alone")

	_, errs = v.Validate(map[string]string{"title": "ok"}, validator.Rules{
		"title": {validator.Required("missing")},
	})
	assert.Nil(t, errs)
}

func TestValidator_ValidateImage(t *testing.T) {
	t.Parallel()

	v := service.NewValidator(storage.DefaultImageRules())

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	assert.NoError(t, v.ValidateImage(upload(t, "a.png", png)))
	assert.ErrorIs(t, v.ValidateImage(upload(t, "a.png", []byte("plain text"))), storage.ErrInvalidType)
}

func upload(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}
