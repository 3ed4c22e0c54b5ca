// Package publish runs the documentation publish pipeline: validation,
// authorization, version archiving, monetization, metadata sync, subpage
// reconciliation, asset upload, deploy trigger and bundle publication.
package publish

import (
	"encoding/json"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docpublish/internal/content"
	"git.home.luguber.info/inful/docpublish/internal/markup"
	"git.home.luguber.info/inful/docpublish/internal/monetization"
	"git.home.luguber.info/inful/docpublish/internal/refs"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Request is the body of a publish call.
type Request struct {
	Path           string                   `json:"path"`
	Blocks         []content.Node           `json:"blocks"`
	ViewType       content.ViewType         `json:"viewType,omitempty"`
	Description    string                   `json:"description"`
	Contributors   []string                 `json:"contributors,omitempty"`
	Subpages       content.SubpageSet       `json:"subpages,omitempty"`
	Thumbnail      string                   `json:"thumbnail,omitempty"`
	Entry          string                   `json:"entry,omitempty"`
	Implementation string                   `json:"implementation,omitempty"`
	Premium        *monetization.Descriptor `json:"premium,omitempty"`
	References     map[string]refs.Block    `json:"references,omitempty"`

	raw []byte
}

// DecodeRequest parses a request body and keeps the bytes for archiving.
func DecodeRequest(body []byte) (Request, error) {
	var r Request
	if err := json.Unmarshal(body, &r); err != nil {
		return Request{}, derrors.WrapError(err, derrors.CategoryValidation, MsgInvalidBody).
			UserAction().Build()
	}
	r.raw = append([]byte(nil), body...)
	return r, nil
}

// Raw returns the request exactly as received. Requests built in code are
// encoded on demand.
func (r Request) Raw() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	return json.Marshal(r)
}

var thumbnailImage = regexp.MustCompile(`!\[(?:.*?)\]\((.*?)\)`)

// ThumbnailURL returns the thumbnail source. The editor setting may be a
// bare URL or a markdown image.
func (r Request) ThumbnailURL() string {
	t := strings.TrimSpace(r.Thumbnail)
	if m := thumbnailImage.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}
	return t
}

// PublishesBundle reports whether the request carries an inline
// implementation to host. A custom entry URL means the author hosts it.
func (r Request) PublishesBundle() bool {
	return r.Implementation != "" && r.Entry == ""
}

var (
	fenceOpen  = regexp.MustCompile("^" + markup.Space + "*```javascript(\n)?")
	fenceClose = regexp.MustCompile("(\n)?```" + markup.Space + "*$")
	inlineCode = regexp.MustCompile("^" + markup.Space + "*`([^`]+)`" + markup.Space + "*$")
)

// CodeFromBlock strips the javascript fence or the single pair of inline
// backticks the editor wraps an implementation block in. Anything else,
// including backticks that belong to the code, is returned untouched.
func CodeFromBlock(s string) string {
	if loc := fenceOpen.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
		if loc := fenceClose.FindStringIndex(s); loc != nil {
			s = s[:loc[0]]
		}
		return s
	}
	if m := inlineCode.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
