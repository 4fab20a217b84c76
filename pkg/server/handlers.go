package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	bverrors "github.com/matzehuels/binvis/pkg/errors"
	"github.com/matzehuels/binvis/pkg/pipeline"
	"github.com/matzehuels/binvis/pkg/points"
	"github.com/matzehuels/binvis/pkg/render"
	"github.com/matzehuels/binvis/pkg/stats"
)

const topN = 16

type thresholdResponse struct {
	Session   string  `json:"session"`
	Threshold uint8   `json:"threshold"`
	Transform string  `json:"transform"`
	Points    int     `json:"points"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

func (s *Server) thresholdState() thresholdResponse {
	snap := s.sess.Snapshot()
	return thresholdResponse{
		Session:   snap.ID,
		Threshold: snap.Threshold,
		Transform: snap.Transform,
		Points:    len(snap.Points),
		ElapsedMs: float64(snap.Elapsed) / float64(time.Millisecond),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sum := stats.Compute(s.sess.Histogram(), topN)
	e, transform := s.sess.Extractor()
	sum.AddBrightness(e, transform, s.sess.Threshold())
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleGetThreshold(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.thresholdState())
}

func (s *Server) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	t, err := bverrors.ParseThreshold(chi.URLParam(r, "value"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.sess.SetThreshold(t) {
		s.logger.Debug("threshold changed", "threshold", t, "request_id", RequestID(r.Context()))
	}
	writeJSON(w, http.StatusOK, s.thresholdState())
}

func (s *Server) handleSetTransform(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.sess.SetTransform(name); err != nil {
		s.writeError(w, r, bverrors.Wrap(bverrors.ErrCodeInvalidTransform, err, "invalid transform %q", name))
		return
	}
	writeJSON(w, http.StatusOK, s.thresholdState())
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, bverrors.Wrap(bverrors.ErrCodeInvalidFormat, err, "unsupported format"))
		return
	}

	opts, err := s.renderOptions(r, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pts, err := s.pointsFor(r, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := s.sess.Histogram()
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), s.inputHash, h.Dims(), pts, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Binvis-Points", strconv.Itoa(len(pts)))
	w.Header().Set("X-Binvis-Threshold", strconv.Itoa(int(opts.Threshold)))
	if hit {
		w.Header().Set("X-Binvis-Cache", "hit")
	} else {
		w.Header().Set("X-Binvis-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[string(format)])
}

// renderOptions merges the session state, server defaults and query
// parameters into pipeline options for one render.
func (s *Server) renderOptions(r *http.Request, format render.Format) (pipeline.Options, error) {
	snap := s.sess.Snapshot()
	opts := s.defaults
	opts.Logger = s.logger
	opts.Dims = int(s.sess.Histogram().Dims())
	opts.Formats = []string{string(format)}
	opts.Threshold = snap.Threshold
	opts.Transform = snap.Transform

	q := r.URL.Query()
	if v := q.Get("threshold"); v != "" {
		t, err := bverrors.ParseThreshold(v)
		if err != nil {
			return opts, err
		}
		opts.Threshold = t
	}
	if v := q.Get("transform"); v != "" {
		opts.Transform = v
	}
	if v := q.Get("palette"); v != "" {
		opts.Palette = v
	}
	if v := q.Get("scale"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, bverrors.New(bverrors.ErrCodeInvalidInput, "scale must be an integer: %q", v)
		}
		opts.Scale = n
	}
	if v := q.Get("quality"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, bverrors.New(bverrors.ErrCodeInvalidInput, "quality must be an integer: %q", v)
		}
		opts.Quality = n
	}
	if err := opts.ValidateForExtract(); err != nil {
		return opts, err
	}
	if err := opts.ValidateForRender(); err != nil {
		return opts, err
	}
	return opts, nil
}

// pointsFor returns the session's points when opts match the session, and
// runs a one-off extraction otherwise.
func (s *Server) pointsFor(r *http.Request, opts pipeline.Options) ([]points.Point, error) {
	snap := s.sess.Snapshot()
	if opts.Threshold == snap.Threshold && opts.Transform == snap.Transform {
		return snap.Points, nil
	}
	return s.runner.Extract(r.Context(), s.sess.Histogram(), opts)
}
