package main

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	coczefla "github.com/VanaKraus/CoCzeFLA"
	"github.com/VanaKraus/CoCzeFLA/internal/logging"
)

const wsWriteWait = 10 * time.Second

// wsMessage is sent once per utterance, then once more with Done set.
type wsMessage struct {
	Type string `json:"type"`
	*coczefla.UtteranceResult
	Error string `json:"error,omitempty"`

	Output      string           `json:"output,omitempty"`
	Status      coczefla.Status  `json:"status,omitempty"`
	Diagnostics []diagnosticJSON `json:"diagnostics,omitempty"`
}

func newUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  64 << 10,
		WriteBufferSize: 64 << 10,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
		},
	}
}

// handleAnnotateStream reads one transcriptRequest from the socket and
// answers with a message per utterance as soon as it is tagged, followed
// by the complete output.
func handleAnnotateStream(ann *coczefla.Annotator, up *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ann == nil {
			writeError(w, http.StatusServiceUnavailable, "no tagger configured")
			return
		}
		ctx := r.Context()
		log := logging.FromContext(ctx)
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()
		conn.SetReadLimit(maxBody)

		send := func(m wsMessage) error {
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			return conn.WriteJSON(m)
		}
		fail := func(msg string) {
			send(wsMessage{Type: "error", Error: msg})
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseUnsupportedData, msg), time.Now().Add(wsWriteWait))
		}

		var body transcriptRequest
		if err := conn.ReadJSON(&body); err != nil {
			fail("request must be JSON: " + err.Error())
			return
		}
		corrections, err := coczefla.ParseCorrections(body.Corrections)
		if err != nil {
			fail(err.Error())
			return
		}
		t, err := coczefla.ParseString(body.Text)
		if err != nil {
			fail(err.Error())
			return
		}
		if body.Convert || body.Fix {
			t = coczefla.ConvertTranscript(t, coczefla.ConvertOptions{Fix: body.Fix}).Transcript
		}
		t = t.Clone()

		for _, u := range t.Utterances {
			ur, err := ann.AnnotateUtterance(ctx, u)
			if err != nil {
				log.Info("annotation stream aborted", "error", err)
				return
			}
			m := wsMessage{Type: "utterance", UtteranceResult: ur}
			if ur.Err != nil {
				m.Error = ur.Err.Error()
			}
			if err := send(m); err != nil {
				log.Info("annotation stream closed by client", "error", err)
				return
			}
		}

		if len(corrections) > 0 {
			res, err := ann.Correct(ctx, t, corrections...)
			if err != nil {
				return
			}
			t = res.Transcript
		}
		ds := t.AllDiagnostics()
		send(wsMessage{
			Type:        "done",
			Output:      coczefla.Format(t),
			Status:      coczefla.StatusOf(ds),
			Diagnostics: toDiagnosticsJSON(ds),
		})
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
	}
}
