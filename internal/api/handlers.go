package api

import (
	"context"
	"io"
	"net/http"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/publish"
	"git.home.luguber.info/inful/docpublish/internal/records"
)

// PublishSummary is the data of a successful publish response.
type PublishSummary struct {
	PublishID       string   `json:"publishId"`
	Version         string   `json:"version"`
	ETag            string   `json:"etag,omitempty"`
	DeletedSubpages []string `json:"deletedSubpages,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// PathSummary is one entry of the caller's paths listing.
type PathSummary struct {
	Path        string        `json:"path"`
	State       records.State `json:"state,omitempty"`
	Description string        `json:"description,omitempty"`
	Premium     bool          `json:"premium"`
}

// handlePublish runs the pipeline for PUT /developer-path. The publish is
// detached from the request context so a dropped connection does not abort
// it half way.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	who, _ := IdentityFrom(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.Error(w, r, derrors.WrapError(err, derrors.CategoryValidation, publish.MsgInvalidBody).Build())
		return
	}
	req, err := publish.DecodeRequest(body)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	rep, err := s.deps.Publisher.Publish(context.WithoutCancel(r.Context()), who, req)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if s.deps.Paths != nil {
		s.deps.Paths.Invalidate(who.ID)
	}
	s.Success(w, http.StatusOK, summarize(rep))
}

func summarize(rep *publish.Report) PublishSummary {
	sum := PublishSummary{
		PublishID:       rep.PublishID,
		Version:         rep.Version,
		ETag:            rep.ETag,
		DeletedSubpages: rep.DeletedSubpages,
	}
	for _, w := range rep.LinkWarnings {
		sum.Warnings = append(sum.Warnings, w.String())
	}
	for _, st := range rep.Warnings() {
		sum.Warnings = append(sum.Warnings, string(st.Stage)+": "+st.Error)
	}
	return sum
}

// handleListPaths serves GET /developer-path.
func (s *Server) handleListPaths(w http.ResponseWriter, r *http.Request) {
	who, _ := IdentityFrom(r.Context())
	if s.deps.Paths == nil {
		s.Success(w, http.StatusOK, map[string]any{"paths": []PathSummary{}})
		return
	}
	recs, err := s.deps.Paths.Paths(r.Context(), who.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list paths", logfields.Owner(who.ID), logfields.Error(err))
		s.Error(w, r, derrors.WrapError(err, derrors.CategoryRecords, "Failed to get the user's current extensions").Build())
		return
	}
	paths := make([]PathSummary, 0, len(recs))
	for _, rec := range recs {
		paths = append(paths, PathSummary{
			Path:        rec.Path,
			State:       rec.State,
			Description: rec.Description,
			Premium:     rec.Premium(),
		})
	}
	s.Success(w, http.StatusOK, map[string]any{"paths": paths})
}
