package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	coczefla "github.com/VanaKraus/CoCzeFLA"
	"github.com/VanaKraus/CoCzeFLA/internal/logging"
)

// maxBody bounds request bodies; transcripts are a few hundred kilobytes.
const maxBody = 16 << 20

// ---- JSON request and response types ------------------------------------

type transcriptRequest struct {
	Text        string   `json:"text"`
	Fix         bool     `json:"fix,omitempty"`
	Convert     bool     `json:"convert,omitempty"`
	Corrections []string `json:"corrections,omitempty"`
}

type diagnosticJSON struct {
	Line     int    `json:"line"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Fixed    bool   `json:"fixed,omitempty"`
}

type convertResponse struct {
	Output      string           `json:"output"`
	Status      coczefla.Status  `json:"status"`
	Diagnostics []diagnosticJSON `json:"diagnostics"`
}

type validateResponse struct {
	Status      coczefla.Status  `json:"status"`
	Diagnostics []diagnosticJSON `json:"diagnostics"`
}

type annotateResponse struct {
	Output      string           `json:"output"`
	Status      coczefla.Status  `json:"status"`
	Diagnostics []diagnosticJSON `json:"diagnostics"`
	Annotated   int              `json:"annotated"`
	Failed      int              `json:"failed"`
	Skipped     int              `json:"skipped"`
	Corrected   int              `json:"corrected,omitempty"`
}

type plainTextRequest struct {
	Content string `json:"content"`
}

type plainTextResponse struct {
	Plain    string               `json:"plain"`
	Annotate bool                 `json:"annotate"`
	Words    []coczefla.PlainWord `json:"words"`
}

type encodeRequest struct {
	Plain  string                 `json:"plain"`
	Tokens []coczefla.TaggedToken `json:"tokens"`
}

type encodeResponse struct {
	Mor           string `json:"mor"`
	LowConfidence []int  `json:"low_confidence,omitempty"`
	Unreliable    bool   `json:"unreliable,omitempty"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Tagger  string `json:"tagger,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---- helpers ------------------------------------------------------------

func toDiagnosticsJSON(ds coczefla.Diagnostics) []diagnosticJSON {
	out := make([]diagnosticJSON, 0, len(ds))
	for _, d := range ds {
		sev := "error"
		if d.Severity == coczefla.SeverityWarning {
			sev = "warning"
		}
		out = append(out, diagnosticJSON{
			Line:     d.Line,
			Code:     string(d.Code),
			Severity: sev,
			Message:  d.Message,
			Fixed:    d.Fixed,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeBody reads a JSON body into v, answering the request itself when
// it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "body must be JSON: "+err.Error())
		return false
	}
	return true
}

// writeParseError maps a transcript parse error to a response.
func writeParseError(w http.ResponseWriter, err error) {
	if errors.Is(err, coczefla.ErrStructural) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// ---- handlers -----------------------------------------------------------

func handleConvert() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body transcriptRequest
		if !decodeBody(w, r, &body) {
			return
		}
		res, err := coczefla.ConvertString(body.Text, coczefla.ConvertOptions{Fix: body.Fix})
		if err != nil {
			writeParseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, convertResponse{
			Output:      res.Output,
			Status:      coczefla.StatusOf(res.Diagnostics),
			Diagnostics: toDiagnosticsJSON(res.Diagnostics),
		})
	}
}

func handleValidate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body transcriptRequest
		if !decodeBody(w, r, &body) {
			return
		}
		ds, err := coczefla.Validate(strings.NewReader(body.Text))
		if err != nil {
			writeParseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, validateResponse{
			Status:      coczefla.StatusOf(ds),
			Diagnostics: toDiagnosticsJSON(ds),
		})
	}
}

func handlePlainText() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body plainTextRequest
		if !decodeBody(w, r, &body) {
			return
		}
		plain, err := coczefla.PlainText(body.Content)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		resp := plainTextResponse{Plain: plain, Annotate: coczefla.ShouldAnnotate(plain)}
		if resp.Annotate {
			resp.Words = coczefla.PlainWords(plain)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleEncode(enc *coczefla.Encoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body encodeRequest
		if !decodeBody(w, r, &body) {
			return
		}
		if body.Plain == "" || len(body.Tokens) == 0 {
			writeError(w, http.StatusBadRequest, "'plain' and 'tokens' are required")
			return
		}
		tokens := make([]coczefla.TaggedToken, len(body.Tokens))
		for i, tok := range body.Tokens {
			tok.Lemma = coczefla.StripLemmaID(tok.Lemma)
			tokens[i] = tok
		}
		res := enc.Encode(coczefla.PlainWords(body.Plain), tokens)
		writeJSON(w, http.StatusOK, encodeResponse{
			Mor:           res.Mor,
			LowConfidence: res.LowConfidence,
			Unreliable:    res.Unreliable,
		})
	}
}

func handleAnnotate(ann *coczefla.Annotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body transcriptRequest
		if !decodeBody(w, r, &body) {
			return
		}
		if ann == nil {
			writeError(w, http.StatusServiceUnavailable, "no tagger configured")
			return
		}
		corrections, err := coczefla.ParseCorrections(body.Corrections)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		t, err := coczefla.ParseString(body.Text)
		if err != nil {
			writeParseError(w, err)
			return
		}
		if body.Convert || body.Fix {
			t = coczefla.ConvertTranscript(t, coczefla.ConvertOptions{Fix: body.Fix}).Transcript
		}

		ctx := r.Context()
		res, err := ann.Annotate(ctx, t)
		if err != nil {
			logging.FromContext(ctx).Warn("annotation aborted", "error", err)
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		resp := annotateResponse{
			Output:    res.Output,
			Annotated: res.Annotated,
			Failed:    res.Failed,
			Skipped:   res.Skipped,
		}
		ds := res.Diagnostics
		if len(corrections) > 0 {
			cres, err := ann.Correct(ctx, res.Transcript, corrections...)
			if err != nil {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			resp.Output = cres.Output
			resp.Corrected = cres.Changed
			ds = cres.Diagnostics
		}
		resp.Status = coczefla.StatusOf(ds)
		resp.Diagnostics = toDiagnosticsJSON(ds)
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleHealth(tagger string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "GET required")
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: version, Tagger: tagger})
	}
}
