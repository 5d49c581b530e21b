// Package api exposes the webhook relay and the risk/scan operations over HTTP.
package api

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/metrics"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/monitor"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/notifier"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/risk"
)

// Operations is the orchestrator surface the HTTP layer drives.
type Operations interface {
	ScanNow(ctx context.Context) monitor.Pass
	ReportFill(ctx context.Context, f risk.Fill) (model.RiskState, bool, error)
	ResetSession() model.RiskState
	Status() model.RiskState
}

// Sender delivers a message and returns the delivery error, if any.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Server holds the HTTP handlers.
type Server struct {
	ops     Operations
	sender  Sender
	metrics *metrics.Metrics
	secret  string
	tzLabel string
}

// NewServer creates a Server. An empty secret disables the secret check.
func NewServer(ops Operations, sender Sender, m *metrics.Metrics, secret, tzLabel string) *Server {
	return &Server{ops: ops, sender: sender, metrics: m, secret: secret, tzLabel: tzLabel}
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "msg": "pong"})
	})
	mux.HandleFunc("/test", s.handleTest)
	mux.HandleFunc("/hook", s.handleHook)
	mux.HandleFunc("/scan", s.handleScan)
	mux.HandleFunc("/fill", s.handleFill)
	mux.HandleFunc("/reset", s.handleReset)
	mux.HandleFunc("/state", s.handleState)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
		http.Error(w, `{"ok":false,"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// authorized checks the shared secret from the query string or the
// X-Shared-Secret header.
func (s *Server) authorized(r *http.Request) bool {
	if s.secret == "" {
		return true
	}
	got := r.URL.Query().Get("secret")
	if got == "" {
		got = r.Header.Get("X-Shared-Secret")
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) == 1
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Write([]byte("TV2TG Alerts Bot is Running ✅"))
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}
	msg := r.URL.Query().Get("msg")
	if msg == "" {
		msg = "Test message sent to Telegram!"
	}
	s.relay(w, r, notifier.FormatTestMessage(msg))
}

// handleHook relays a charting-tool alert. A wrong secret gets the same 405
// as a wrong method.
func (s *Server) handleHook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !s.authorized(r) {
		if r.Method == http.MethodPost {
			s.metrics.IncWebhook("rejected")
		}
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
		s.metrics.IncWebhook("rejected")
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	alert := model.WebhookAlert{
		Symbol:        field(data, "symbol"),
		Side:          field(data, "side"),
		Entry:         field(data, "entry"),
		StopLoss:      field(data, "sl"),
		TakeProfit1:   field(data, "tp1"),
		TakeProfit2:   field(data, "tp2"),
		RiskUSD:       field(data, "risk_usd"),
		PositionUnits: field(data, "position_units"),
	}
	log.Printf("[INFO] webhook alert: %s %s", alert.Symbol, alert.Side)
	if s.relay(w, r, notifier.FormatWebhookAlert(alert, s.tzLabel)) {
		s.metrics.IncWebhook("sent")
	} else {
		s.metrics.IncWebhook("failed")
	}
}

// field renders a JSON value as display text; numbers keep their JSON form.
func field(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return fmt.Sprint(v)
	}
}

func (s *Server) relay(w http.ResponseWriter, r *http.Request, text string) bool {
	if err := s.sender.Send(r.Context(), text); err != nil {
		s.metrics.IncNotifyFailure()
		log.Printf("[ERROR] relay to telegram: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	return true
}

func (s *Server) guard(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return false
	}
	if !s.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return false
	}
	return true
}

type scanResponse struct {
	Started    string             `json:"started"`
	DurationMS int64              `json:"duration_ms"`
	Results    []model.EvalResult `json:"results"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodPost) {
		return
	}
	pass := s.ops.ScanNow(r.Context())
	writeJSON(w, http.StatusOK, scanResponse{
		Started:    pass.Started.UTC().Format("2006-01-02T15:04:05Z"),
		DurationMS: pass.Duration.Milliseconds(),
		Results:    pass.Results,
	})
}

type fillRequest struct {
	PnL    *decimal.Decimal `json:"pnl"`
	Symbol string           `json:"symbol"`
	Note   string           `json:"note"`
}

type fillResponse struct {
	State       model.RiskState `json:"state"`
	StopTrading bool            `json:"stop_trading"`
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodPost) {
		return
	}
	var req fillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PnL == nil {
		writeError(w, http.StatusBadRequest, "pnl is required")
		return
	}
	f := risk.Fill{PnL: *req.PnL, Symbol: strings.ToUpper(strings.TrimSpace(req.Symbol)), Note: req.Note}
	state, stop, err := s.ops.ReportFill(r.Context(), f)
	if err != nil {
		if errors.Is(err, risk.ErrInvalidFill) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fillResponse{State: state, StopTrading: stop})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodPost) {
		return
	}
	writeJSON(w, http.StatusOK, s.ops.ResetSession())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.ops.Status())
}
