package service

import (
	"maps"
	"mime/multipart"

	"github.com/candlewaxgames/candlewax/pkg/storage"
	"github.com/candlewaxgames/candlewax/pkg/validator"
)

// Validator checks submitted forms and uploads.
type Validator struct {
	images storage.ImageRules
}

// NewValidator creates a Validator accepting images that pass rules.
func NewValidator(rules storage.ImageRules) *Validator {
	return &Validator{images: rules}
}

// Validate applies rules to a copy of form. The copy holds exactly the ruled
// fields, and errors are grouped by field. A nil error map means the form
// is valid.
func (v *Validator) Validate(form map[string]string, rules validator.Rules) (map[string]string, map[string][]string) {
	data := maps.Clone(form)
	if data == nil {
		data = make(map[string]string)
	}
	if errs := validator.Validate(data, rules); errs != nil {
		return data, errs.Map()
	}
	return data, nil
}

// ValidateImage checks the size and content type of an upload.
func (v *Validator) ValidateImage(fh *multipart.FileHeader) error {
	_, err := storage.ValidateImage(fh, v.images)
	return err
}

// ImageRules returns the rules uploads are held to.
func (v *Validator) ImageRules() storage.ImageRules {
	return v.images
}
