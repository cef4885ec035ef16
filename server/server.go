package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"recursive_protocol_reviewer/refiner"
)

//go:embed templates/index.html
var templateFS embed.FS

// One session can spend up to ten iterations of three model calls
// each, so the request budget is far larger than a single call's.
const sessionTimeout = 15 * time.Minute

const emptyDocumentMsg = "Please provide document text for critique."

const clientNotReadyMsg = "The LLM client could not be initialized at startup, so critiques " +
	"cannot be generated. Check the startup diagnostics below for the " +
	"recorded error and verify your OPENAI_API_KEY."

// Server is the web boundary around the refinement loop: an HTML form
// for people and a JSON endpoint for programs. ctrl may be nil when
// the model client could not be initialized at startup; requests are
// then answered with the recorded startup error instead of running.
type Server struct {
	ctrl        *refiner.Controller
	diag        *Diagnostics
	clientError string
	tmpl        *template.Template
}

func New(ctrl *refiner.Controller, diag *Diagnostics, clientError string) (*Server, error) {
	if diag == nil {
		return nil, errors.New("diagnostics required")
	}
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Server{ctrl: ctrl, diag: diag, clientError: clientError, tmpl: tmpl}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/critique", s.handleCritique)
	mux.HandleFunc("/api/refine", s.handleAPIRefine)
	return logMiddleware(mux)
}

// --- View model ---

type loopView struct {
	Iteration    int
	CritiqueHTML template.HTML
	RevisionHTML template.HTML
	Evaluation   string
}

type pageData struct {
	DocumentText       string
	Loops              []loopView
	FinalDocumentHTML  template.HTML
	LogFile            string
	StopReason         string
	RefinementComplete bool
	ErrorMessage       string
	StartupMessages    []StartupEvent
	ClientError        string
}

func (s *Server) newPageData() pageData {
	return pageData{
		StartupMessages: s.diag.Warnings(),
		ClientError:     s.clientError,
	}
}

func (s *Server) fillSession(data *pageData, sess *refiner.Session) {
	if sess == nil {
		return
	}
	for _, rec := range sess.Loops {
		data.Loops = append(data.Loops, loopView{
			Iteration:    rec.Iteration,
			CritiqueHTML: renderMarkdown(rec.Critique),
			RevisionHTML: renderMarkdown(rec.Revision),
			Evaluation:   rec.Evaluation,
		})
	}
	data.FinalDocumentHTML = renderMarkdown(sess.FinalDocument)
	data.LogFile = sess.LogFilename
	data.StopReason = sess.StopReason
	data.RefinementComplete = sess.RefinementComplete
}

// --- Handlers ---

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.render(w, s.newPageData())
}

func (s *Server) handleCritique(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	document := strings.TrimSpace(r.FormValue("document_text"))
	data := s.newPageData()

	switch {
	case document == "":
		data.ErrorMessage = emptyDocumentMsg
	case s.ctrl == nil:
		data.ErrorMessage = clientNotReadyMsg
		data.DocumentText = document
	default:
		ctx, cancel := context.WithTimeout(r.Context(), sessionTimeout)
		defer cancel()
		sess, err := s.ctrl.Run(ctx, document)
		s.fillSession(&data, sess)
		if err != nil {
			data.ErrorMessage = "An error occurred while refining the document: " + err.Error()
			data.DocumentText = document
		}
	}
	s.render(w, data)
}

type refineReq struct {
	Document string `json:"document"`
}

type refineResp struct {
	Session *refiner.Session `json:"session,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func (s *Server) handleAPIRefine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req refineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, refineResp{Error: err.Error()})
		return
	}
	if s.ctrl == nil {
		writeJSON(w, http.StatusServiceUnavailable, refineResp{Error: clientNotReadyMsg})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sessionTimeout)
	defer cancel()
	sess, err := s.ctrl.Run(ctx, req.Document)
	switch {
	case errors.Is(err, refiner.ErrEmptyDocument):
		writeJSON(w, http.StatusBadRequest, refineResp{Error: emptyDocumentMsg})
	case err != nil:
		// Partial session included: recorded iterations are never dropped.
		writeJSON(w, http.StatusBadGateway, refineResp{Session: sess, Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, refineResp{Session: sess})
	}
}

// --- Helpers ---

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		log.Printf("[server] template render failed: %v", err)
	}
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(md) + "</pre>")
	}
	return template.HTML(buf.String())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[http] %s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
