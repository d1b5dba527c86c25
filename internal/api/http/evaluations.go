package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
	"github.com/mind-engage/mindengage-sheetgrader/internal/extract"
	"github.com/mind-engage/mindengage-sheetgrader/internal/report"
)

// POST /keys/{keyID}/evaluations  body: student sheet JSON
func GradeSheetHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyID := strings.TrimSpace(chi.URLParam(r, "keyID"))
		body, err := readBody(w, r)
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		sheet, err := extract.DecodeSheet(body)
		if err != nil {
			writeErr(w, "decode sheet", err)
			return
		}
		ev, err := svc.Grade(r.Context(), keyID, sheet, "")
		if err != nil {
			writeErr(w, "grade", err)
			return
		}
		writeJSON(w, http.StatusCreated, ev)
	}
}

// GET /keys/{keyID}/evaluations?roll_number=&limit=&offset=
func ListKeyEvaluationsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyID := strings.TrimSpace(chi.URLParam(r, "keyID"))
		if _, err := svc.Store().GetKey(r.Context(), keyID); err != nil {
			writeErr(w, "get key", err)
			return
		}
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		evs, err := svc.Store().ListEvaluations(r.Context(), exam.EvaluationListOpts{
			KeyID:      keyID,
			RollNumber: strings.TrimSpace(q.Get("roll_number")),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			writeErr(w, "list evaluations", err)
			return
		}
		writeJSON(w, http.StatusOK, evs)
	}
}

// GET /evaluations/{evaluationID}
func GetEvaluationHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "evaluationID"))
		ev, err := svc.Store().GetEvaluation(r.Context(), id)
		if err != nil {
			writeErr(w, "get evaluation", err)
			return
		}
		writeJSON(w, http.StatusOK, ev)
	}
}

// GET /evaluations/{evaluationID}/report  -> text/plain table
func EvaluationReportHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "evaluationID"))
		ev, err := svc.Store().GetEvaluation(r.Context(), id)
		if err != nil {
			writeErr(w, "get evaluation", err)
			return
		}
		k, err := svc.Store().GetKey(r.Context(), ev.KeyID)
		if err != nil {
			writeErr(w, "get key", err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := report.RenderEvaluation(w, k, ev); err != nil {
			http.Error(w, "render: "+err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /evaluate  body: {"key": <answer key>, "sheet": <student sheet>}
// Grades without storing anything.
func PreviewHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if !gjson.ValidBytes(body) {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		k, err := extract.DecodeKey([]byte(gjson.GetBytes(body, "key").Raw))
		if err != nil {
			writeErr(w, "decode key", err)
			return
		}
		sheet, err := extract.DecodeSheet([]byte(gjson.GetBytes(body, "sheet").Raw))
		if err != nil {
			writeErr(w, "decode sheet", err)
			return
		}
		res, err := svc.Preview(k, sheet)
		if err != nil {
			writeErr(w, "evaluate", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"roll_number": sheet.RollNumber,
			"section":     sheet.Section,
			"result":      res,
			"percentage":  res.Percentage(),
		})
	}
}
