package publish

import (
	"strings"
	"unicode/utf8"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// MaxDescriptionLength is the longest description accepted, in characters.
const MaxDescriptionLength = 128

// Caller-facing validation messages.
const (
	MsgMissingContent     = `Missing documentation content. Create a "Documentation" block on your extensions page and nest the content under it.`
	MsgMissingDescription = `Missing extension description. Create a "Description" block on your extensions page and nest the extension description under it.`
	MsgDescriptionTooLong = "Description is too long. Please keep it 128 characters or fewer."
	MsgMissingPath        = "Missing extension path."
	MsgInvalidPath        = "Invalid extension path."
	MsgInvalidBody        = "Invalid request body."
)

// Validate checks a request before anything is written.
func Validate(r Request) error {
	if err := ValidatePath(r.Path); err != nil {
		return err
	}
	if len(r.Blocks) == 0 {
		return derrors.ValidationError(MsgMissingContent).Build()
	}
	if r.Description == "" {
		return derrors.ValidationError(MsgMissingDescription).Build()
	}
	if utf8.RuneCountInString(r.Description) > MaxDescriptionLength {
		return derrors.ValidationError(MsgDescriptionTooLong).
			WithContext("length", utf8.RuneCountInString(r.Description)).Build()
	}
	return checkSubpageNames(r.Subpages)
}

// ValidatePath checks an extension path on its own.
func ValidatePath(path string) error {
	if path == "" {
		return derrors.ValidationError(MsgMissingPath).Build()
	}
	// path is used verbatim inside storage keys
	if strings.ContainsAny(path, `/\`) || path == "." || path == ".." {
		return derrors.ValidationError(MsgInvalidPath).Build()
	}
	return nil
}
