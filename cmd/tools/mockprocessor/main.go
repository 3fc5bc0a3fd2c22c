// mockprocessor runs a fake payment processor speaking the mockpay wire API:
// bearer-token auth, refund creation, refund status. Useful for exercising
// the full dispatch path locally without a real gateway.
//
// Outcome control: amounts ending in 99 are declined with code "51", amounts
// ending in 42 come back with a wrong echoed amount (integrity tamper),
// everything else succeeds after one pending poll.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
)

type refund struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`

	polls int
}

type server struct {
	token string

	mu      sync.Mutex
	seq     int
	refunds map[string]*refund // by refund_id
	byRef   map[string]string  // reference -> refund_id (processor-side idempotency)
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	token := flag.String("token", "tok_mockpay_local", "bearer token issued by /v1/oauth/token")
	flag.Parse()

	s := &server{token: *token, refunds: map[string]*refund{}, byRef: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth/token", s.handleToken)
	mux.HandleFunc("POST /v1/refunds", s.handleCreate)
	mux.HandleFunc("GET /v1/refunds/{id}", s.handleGet)

	log.Printf("mockprocessor listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

func (s *server) handleToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ClientID == "" {
		writeError(w, http.StatusUnauthorized, "AUTH_01", "invalid client credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_token": s.token, "expires_in": 3600})
}

func (s *server) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+s.token
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "AUTH_02", "missing or invalid bearer token")
		return
	}

	var req struct {
		Reference     string `json:"reference"`
		TransactionID string `json:"transaction_id"`
		Amount        int64  `json:"amount"`
		Currency      string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reference == "" || req.TransactionID == "" {
		writeError(w, http.StatusBadRequest, "REQ_01", "malformed refund request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// idempotent on reference
	if id, ok := s.byRef[req.Reference]; ok {
		writeJSON(w, http.StatusOK, s.refunds[id])
		return
	}

	if req.Amount%100 == 99 {
		writeError(w, http.StatusPaymentRequired, "51", "insufficient_funds")
		return
	}

	s.seq++
	rf := &refund{
		RefundID: fmt.Sprintf("R-%d", s.seq),
		Status:   "pending",
		Amount:   req.Amount,
		Currency: strings.ToUpper(req.Currency),
	}
	if req.Amount%100 == 42 {
		rf.Amount = req.Amount + 1 // tampered echo, trips the integrity check
	}
	s.refunds[rf.RefundID] = rf
	s.byRef[req.Reference] = rf.RefundID

	writeJSON(w, http.StatusOK, rf)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "AUTH_02", "missing or invalid bearer token")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rf, ok := s.refunds[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "REF_404", "refund not found")
		return
	}

	// settle after the first poll
	rf.polls++
	if rf.Status == "pending" && rf.polls > 1 {
		rf.Status = "succeeded"
	}

	writeJSON(w, http.StatusOK, rf)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": message}})
}
