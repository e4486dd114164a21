package main

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"doc-rater/internal/app"
	"doc-rater/internal/httputil"
	"doc-rater/internal/rating"
	"doc-rater/internal/store"
)

type statusResponse struct {
	Document store.Document `json:"document"`
	Progress int            `json:"progress"`
	Jobs     []store.Job    `json:"jobs"`
	Error    string         `json:"error,omitempty"`
}

type resultResponse struct {
	store.DocumentResult
	Status     store.DocumentStatus `json:"status"`
	RatingName string               `json:"ratingName"`
}

type documentListItem struct {
	store.DocumentSummary
	RatingName string `json:"ratingName,omitempty"`
}

func listDocumentsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := deps.Store.ListDocuments(r.Context(), listDocumentsMax)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list documents", err, http.StatusInternalServerError)
			return
		}
		items := make([]documentListItem, 0, len(docs))
		for _, d := range docs {
			item := documentListItem{DocumentSummary: d}
			if d.OverallRating != nil {
				item.RatingName = rating.Name(*d.OverallRating)
			}
			items = append(items, item)
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"documents": items})
	}
}

func statusHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID, ok := documentID(w, r, deps.Log)
		if !ok {
			return
		}
		log := deps.Log.With("document_id", docID)

		doc, ok := lookupDocument(deps, w, r, docID)
		if !ok {
			return
		}
		jobs, err := deps.Store.ListJobs(r.Context(), docID)
		if err != nil {
			httputil.Fail(log, w, "failed to load jobs", err, http.StatusInternalServerError)
			return
		}
		if jobs == nil {
			jobs = []store.Job{}
		}

		httputil.WriteJSON(w, http.StatusOK, statusResponse{
			Document: doc,
			Progress: overallProgress(jobs),
			Jobs:     jobs,
			Error:    lastJobError(jobs),
		})
	}
}

func resultHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID, ok := documentID(w, r, deps.Log)
		if !ok {
			return
		}
		log := deps.Log.With("document_id", docID)

		doc, ok := lookupDocument(deps, w, r, docID)
		if !ok {
			return
		}

		switch doc.Status {
		case store.StatusCompleted:
			res, err := deps.Store.GetDocumentResult(r.Context(), docID)
			if errors.Is(err, store.ErrResultNotFound) {
				httputil.WriteJSON(w, http.StatusNotFound, map[string]any{
					"error":  "result not ready",
					"status": doc.Status,
				})
				return
			}
			if err != nil {
				httputil.Fail(log, w, "failed to load result", err, http.StatusInternalServerError)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, resultResponse{
				DocumentResult: res,
				Status:         doc.Status,
				RatingName:     rating.Name(res.OverallRating),
			})
		case store.StatusFailed:
			jobs, err := deps.Store.ListJobs(r.Context(), docID)
			if err != nil {
				httputil.Fail(log, w, "failed to load jobs", err, http.StatusInternalServerError)
				return
			}
			httputil.WriteJSON(w, http.StatusConflict, map[string]any{
				"error":  lastJobError(jobs),
				"status": doc.Status,
			})
		default:
			httputil.WriteJSON(w, http.StatusNotFound, map[string]any{
				"error":  "result not ready",
				"status": doc.Status,
			})
		}
	}
}

func lookupDocument(deps app.Deps, w http.ResponseWriter, r *http.Request, docID uuid.UUID) (store.Document, bool) {
	doc, err := deps.Store.GetDocument(r.Context(), docID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		httputil.Fail(deps.Log, w, "document not found", err, http.StatusNotFound)
		return store.Document{}, false
	}
	if err != nil {
		httputil.Fail(deps.Log, w, "failed to load document", err, http.StatusInternalServerError)
		return store.Document{}, false
	}
	return doc, true
}

// overallProgress is the mean progress of the document's jobs.
func overallProgress(jobs []store.Job) int {
	if len(jobs) == 0 {
		return 0
	}
	total := 0
	for _, j := range jobs {
		total += j.Progress
	}
	return total / len(jobs)
}

// lastJobError returns the error of the most recently updated job that has one.
func lastJobError(jobs []store.Job) string {
	var last *store.Job
	for i := range jobs {
		if jobs[i].Error == "" {
			continue
		}
		if last == nil || jobs[i].UpdatedAt.After(last.UpdatedAt) {
			last = &jobs[i]
		}
	}
	if last == nil {
		return ""
	}
	return last.Error
}
