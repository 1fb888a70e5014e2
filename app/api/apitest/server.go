// Package apitest runs an in-memory fake of the portal API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"pressroom/app/commenttree"
	"pressroom/app/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"
)

// Prefix is the path the fake API is mounted under.
const Prefix = "/api"

type account struct {
	user     models.User
	password string
}

type failure struct {
	status  int
	network bool
	times   int
}

// Server is a fake portal API. The exported helpers seed data and script
// failures; everything else is reached over HTTP.
type Server struct {
	srv *httptest.Server
	t   testing.TB

	mu        sync.Mutex
	accounts  map[string]*account // by email
	byID      map[string]string   // user id -> email
	access    map[string]string   // access token -> user id
	refresh   map[string]string   // refresh token -> user id
	verify    map[string]string   // verification token -> user id
	reset     map[string]string   // reset token -> user id
	posts     map[string]*models.Post
	postOrder []string
	postLikes map[string]map[string]bool
	bookmarks map[string]map[string]bool // user id -> post ids
	comments  map[string]commenttree.Tree
	releases  []models.Release
	reports   []models.WhistleblowerReport
	flagged   map[string][]models.ContentReport
	uploads   map[string][]byte
	failures  map[string]*failure
	gates     map[string]chan struct{}
	hits      map[string]int
	seq       int

	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL time.Duration
}

var signingKey = []byte("apitest")

// New starts a fake API and stops it when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		t:         t,
		accounts:  map[string]*account{},
		byID:      map[string]string{},
		access:    map[string]string{},
		refresh:   map[string]string{},
		verify:    map[string]string{},
		reset:     map[string]string{},
		posts:     map[string]*models.Post{},
		postLikes: map[string]map[string]bool{},
		bookmarks: map[string]map[string]bool{},
		comments:  map[string]commenttree.Tree{},
		flagged:   map[string][]models.ContentReport{},
		uploads:   map[string][]byte{},
		failures:  map[string]*failure{},
		gates:     map[string]chan struct{}{},
		hits:      map[string]int{},
		TokenTTL:  time.Hour,
	}
	s.srv = httptest.NewServer(s.router())
	t.Cleanup(func() {
		s.mu.Lock()
		for k, g := range s.gates {
			close(g)
			delete(s.gates, k)
		}
		s.mu.Unlock()
		s.srv.Close()
	})
	return s
}

// URL is the API base URL.
func (s *Server) URL() string {
	return s.srv.URL + Prefix
}

// Hits returns how many requests reached route, e.g. "POST /auth/refresh".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Fail makes the next times requests to route answer with status.
func (s *Server) Fail(route string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{status: status, times: times}
}

// FailNetwork makes the next times requests to route drop the connection.
func (s *Server) FailNetwork(route string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{network: true, times: times}
}

// Hold blocks requests to route until the returned release func is called.
func (s *Server) Hold(route string) (release func()) {
	g := make(chan struct{})
	s.mu.Lock()
	if old, ok := s.gates[route]; ok {
		close(old)
	}
	s.gates[route] = g
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gates[route] == g {
			delete(s.gates, route)
			close(g)
		}
	}
}

// ExpireTokens invalidates every access token issued so far. Refresh tokens
// stay valid.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = map[string]string{}
}

// RevokeRefreshTokens invalidates every refresh token.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = map[string]string{}
}

// AddUser seeds an account. A missing ID is generated.
func (s *Server) AddUser(u models.User, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = s.nextID("u")
	}
	s.accounts[strings.ToLower(u.Email)] = &account{user: u, password: password}
	s.byID[u.ID] = strings.ToLower(u.Email)
	return u
}

// User returns the stored account for email.
func (s *Server) User(email string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return models.User{}, false
	}
	return a.user, true
}

// IssueToken logs userID in without a round trip and returns the tokens.
func (s *Server) IssueToken(userID string) (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue(userID)
}

// AddPost seeds a post. A missing ID is generated.
func (s *Server) AddPost(p models.Post) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = s.nextID("p")
	}
	cp := p
	s.posts[p.ID] = &cp
	s.postOrder = append(s.postOrder, p.ID)
	return p
}

// Post returns the stored post.
func (s *Server) Post(id string) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return models.Post{}, false
	}
	return *p, true
}

// AddComment seeds a comment under parentID ("" for top level).
func (s *Server) AddComment(postID, parentID string, c models.Comment) models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = s.nextID("c")
	}
	c.PostID = postID
	c.ParentID = parentID
	c.BeforeCreate()
	s.comments[postID] = appendComment(s.comments[postID], parentID, c)
	return c
}

// Comments returns the stored tree of a post.
func (s *Server) Comments(postID string) commenttree.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comments[postID]
}

// AddRelease seeds a release.
func (s *Server) AddRelease(r models.Release) models.Release {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = s.nextID("r")
	}
	if r.Status == "" {
		r.Status = models.ReleasePending
	}
	s.releases = append(s.releases, r)
	return r
}

// AddReport seeds a whistleblower report.
func (s *Server) AddReport(r models.WhistleblowerReport) models.WhistleblowerReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = s.nextID("w")
	}
	if r.Status == "" {
		r.Status = models.ReportNew
	}
	s.reports = append(s.reports, r)
	return r
}

// ContentReports returns reports filed against a post.
func (s *Server) ContentReports(postID string) []models.ContentReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flagged[postID]
}

// Upload returns the last CSV uploaded for kind.
func (s *Server) Upload(kind string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads[kind]
}

// VerificationToken returns the pending email verification token of email.
func (s *Server) VerificationToken(email string) string {
	return s.tokenFor(s.verify, email)
}

// ResetToken returns the pending password reset token of email.
func (s *Server) ResetToken(email string) string {
	return s.tokenFor(s.reset, email)
}

func (s *Server) tokenFor(m map[string]string, email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return ""
	}
	for tok, id := range m {
		if id == a.user.ID {
			return tok
		}
	}
	return ""
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return prefix + strconv.Itoa(s.seq)
}

func (s *Server) issue(userID string) (string, string) {
	s.seq++
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(s.TokenTTL).Unix(),
		"jti": strconv.Itoa(s.seq),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		s.t.Errorf("apitest: sign token: %v", err)
	}
	refresh := fmt.Sprintf("refresh-%s-%d", userID, s.seq)
	s.access[access] = userID
	s.refresh[refresh] = userID
	return access, refresh
}

// control applies scripted failures and holds, and counts hits.
func (s *Server) control(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r)

		s.mu.Lock()
		s.hits[key]++
		gate := s.gates[key]
		f := s.failures[key]
		var fire *failure
		if f != nil && f.times > 0 {
			f.times--
			cp := *f
			fire = &cp
		}
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if fire != nil {
			if fire.network {
				dropConnection(w)
				return
			}
			writeError(w, fire.status, "scripted failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func routeKey(r *http.Request) string {
	tpl := r.URL.Path
	if route := mux.CurrentRoute(r); route != nil {
		if t, err := route.GetPathTemplate(); err == nil {
			tpl = t
		}
	}
	return r.Method + " " + strings.TrimPrefix(tpl, Prefix)
}

func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "cannot hijack", http.StatusInternalServerError)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetLinger(0)
	}
	conn.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
