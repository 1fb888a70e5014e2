package apitest

import (
	"io"
	"net/http"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"

	"pressroom/app/commenttree"
	"pressroom/app/models"

	"github.com/gorilla/mux"
)

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix(Prefix).Subrouter()
	api.Use(s.control)

	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", s.refreshToken).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify-email", s.verifyEmail).Methods(http.MethodPost)
	api.HandleFunc("/auth/resend-verification", s.resendVerification).Methods(http.MethodPost)
	api.HandleFunc("/auth/forgot-password", s.forgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-password", s.resetPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.authed(s.logout)).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", s.authed(s.me)).Methods(http.MethodGet)

	api.HandleFunc("/blog/posts", s.optional(s.listPosts)).Methods(http.MethodGet)
	api.HandleFunc("/blog/posts/{id}", s.optional(s.getPost)).Methods(http.MethodGet)
	api.HandleFunc("/blog/posts/{id}/like", s.authed(s.likePost)).Methods(http.MethodPost)
	api.HandleFunc("/blog/posts/{id}/share", s.optional(s.sharePost)).Methods(http.MethodPost)
	api.HandleFunc("/blog/posts/{id}/bookmark", s.authed(s.bookmarkPost)).Methods(http.MethodPost)
	api.HandleFunc("/blog/bookmarks", s.authed(s.listBookmarks)).Methods(http.MethodGet)
	api.HandleFunc("/blog/posts/{id}/report", s.authed(s.reportPost)).Methods(http.MethodPost)
	api.HandleFunc("/blog/posts/{id}/comments", s.optional(s.listComments)).Methods(http.MethodGet)
	api.HandleFunc("/blog/posts/{id}/comments", s.optional(s.addComment)).Methods(http.MethodPost)
	api.HandleFunc("/blog/comments/{id}", s.authed(s.editComment)).Methods(http.MethodPut)
	api.HandleFunc("/blog/comments/{id}", s.authed(s.deleteComment)).Methods(http.MethodDelete)
	api.HandleFunc("/blog/comments/{id}/like", s.authed(s.likeComment)).Methods(http.MethodPost)

	api.HandleFunc("/admin/users", s.role(models.RoleAdmin, s.listUsers)).Methods(http.MethodGet)
	api.HandleFunc("/admin/users/{id}/status", s.role(models.RoleAdmin, s.setUserStatus)).Methods(http.MethodPatch)
	api.HandleFunc("/admin/releases", s.role(models.RoleAdmin, s.listReleases)).Methods(http.MethodGet)
	api.HandleFunc("/admin/releases/{id}/status", s.role(models.RoleAdmin, s.setReleaseStatus)).Methods(http.MethodPatch)
	api.HandleFunc("/admin/whistleblower", s.role(models.RoleAdmin, s.listReports)).Methods(http.MethodGet)
	api.HandleFunc("/admin/whistleblower/{id}", s.role(models.RoleAdmin, s.setReportStatus)).Methods(http.MethodPatch)

	api.HandleFunc("/releases/mine", s.role(models.RoleComms, s.myReleases)).Methods(http.MethodGet)
	api.HandleFunc("/releases", s.role(models.RoleComms, s.createRelease)).Methods(http.MethodPost)

	api.HandleFunc("/bulk/{kind:releases|journalists}", s.role(models.RoleAdmin, s.bulkUpload)).Methods(http.MethodPost)
	return r
}

// caller resolves the bearer token. ok is false with no or an unknown token.
func (s *Server) caller(r *http.Request) (models.User, bool) {
	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return models.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.access[raw]
	if !ok {
		return models.User{}, false
	}
	a, ok := s.accounts[s.byID[id]]
	if !ok {
		return models.User{}, false
	}
	return a.user, true
}

func (s *Server) authed(h func(http.ResponseWriter, *http.Request, models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.caller(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		h(w, r, u)
	}
}

func (s *Server) role(role models.Role, h func(http.ResponseWriter, *http.Request, models.User)) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, u models.User) {
		if u.Role != role {
			writeError(w, http.StatusForbidden, "insufficient role")
			return
		}
		h(w, r, u)
	})
}

// optional passes the caller when a valid token was sent and a zero user
// otherwise.
func (s *Server) optional(h func(http.ResponseWriter, *http.Request, models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := s.caller(r)
		h(w, r, u)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(req.Email)]
	if !ok || a.password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	access, refresh := s.issue(a.user.ID)
	writeJSON(w, http.StatusOK, map[string]any{"token": access, "refreshToken": refresh, "user": a.user})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string      `json:"email"`
		Password     string      `json:"password"`
		FirstName    string      `json:"firstName"`
		LastName     string      `json:"lastName"`
		Role         models.Role `json:"role"`
		Organization string      `json:"organization"`
		JobTitle     string      `json:"jobTitle"`
		Phone        string      `json:"phone"`
		Country      string      `json:"country"`
		Interests    []string    `json:"interests"`
		AcceptTerms  bool        `json:"acceptTerms"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil || len(req.Password) < 8 || !req.AcceptTerms {
		writeError(w, http.StatusUnprocessableEntity, "invalid registration")
		return
	}
	if req.Role != models.RoleJournalist && req.Role != models.RoleComms {
		writeError(w, http.StatusBadRequest, "role cannot self register")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(req.Email)
	if _, exists := s.accounts[key]; exists {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	u := models.User{
		ID:           s.nextID("u"),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Status:       models.StatusActive,
		Organization: req.Organization,
		JobTitle:     req.JobTitle,
		Phone:        req.Phone,
		Country:      req.Country,
		Interests:    req.Interests,
		CreatedAt:    time.Now().UTC(),
	}
	s.accounts[key] = &account{user: u, password: req.Password}
	s.byID[u.ID] = key
	s.verify["verify-"+u.ID] = u.ID
	writeJSON(w, http.StatusCreated, map[string]any{"message": "check your inbox", "user": u})
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.refresh[req.RefreshToken]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	delete(s.refresh, req.RefreshToken)
	access, refresh := s.issue(id)
	writeJSON(w, http.StatusOK, map[string]string{"token": access, "refreshToken": refresh})
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.verify[req.Token]
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid verification token")
		return
	}
	delete(s.verify, req.Token)
	s.accounts[s.byID[id]].user.IsVerified = true
	writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

func (s *Server) resendVerification(w http.ResponseWriter, r *http.Request) {
	s.emailToken(w, r, s.verify, "verify-")
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	s.emailToken(w, r, s.reset, "reset-")
}

// emailToken answers 200 for unknown addresses too, so accounts cannot be
// probed.
func (s *Server) emailToken(w http.ResponseWriter, r *http.Request, m map[string]string, prefix string) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[strings.ToLower(req.Email)]; ok {
		m[prefix+a.user.ID] = a.user.ID
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "sent"})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "password too short")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.reset[req.Token]
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid reset token")
		return
	}
	delete(s.reset, req.Token)
	s.accounts[s.byID[id]].password = req.Password
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, id := range s.access {
		if id == u.ID {
			delete(s.access, tok)
		}
	}
	for tok, id := range s.refresh {
		if id == u.ID {
			delete(s.refresh, tok)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, u models.User) {
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// view returns a copy of post id as seen by userID.
func (s *Server) view(id, userID string) models.Post {
	p := *s.posts[id]
	p.UserLiked = userID != "" && s.postLikes[id][userID]
	p.Bookmarked = userID != "" && s.bookmarks[userID][id]
	return p
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request, u models.User) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), 10)
	category := q.Get("category")
	search := strings.ToLower(q.Get("search"))

	s.mu.Lock()
	defer s.mu.Unlock()
	match := []models.Post{}
	for _, id := range s.postOrder {
		p := s.posts[id]
		if category != "" && p.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		match = append(match, s.view(id, u.ID))
	}
	total := len(match)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":      match[start:end],
		"page":       page,
		"totalPages": (total + limit - 1) / limit,
		"total":      total,
	})
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request, u models.User) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	p.Views++
	writeJSON(w, http.StatusOK, s.view(id, u.ID))
}

func (s *Server) likePost(w http.ResponseWriter, r *http.Request, u models.User) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	likes := s.postLikes[id]
	if likes == nil {
		likes = map[string]bool{}
		s.postLikes[id] = likes
	}
	if likes[u.ID] {
		delete(likes, u.ID)
		p.LikesCount--
	} else {
		likes[u.ID] = true
		p.LikesCount++
	}
	writeJSON(w, http.StatusOK, map[string]any{"likesCount": p.LikesCount, "userLiked": likes[u.ID]})
}

func (s *Server) sharePost(w http.ResponseWriter, r *http.Request, _ models.User) {
	id := mux.Vars(r)["id"]
	var req struct {
		Platform models.SharePlatform `json:"platform"`
	}
	if err := decode(r, &req); err != nil || !req.Platform.Valid() {
		writeError(w, http.StatusBadRequest, "unknown platform")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	p.Shares++
	writeJSON(w, http.StatusOK, map[string]int{"shares": p.Shares})
}

func (s *Server) bookmarkPost(w http.ResponseWriter, r *http.Request, u models.User) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	marks := s.bookmarks[u.ID]
	if marks == nil {
		marks = map[string]bool{}
		s.bookmarks[u.ID] = marks
	}
	if marks[id] {
		delete(marks, id)
	} else {
		marks[id] = true
	}
	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": marks[id]})
}

func (s *Server) listBookmarks(w http.ResponseWriter, _ *http.Request, u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := []models.Post{}
	for _, id := range s.postOrder {
		if s.bookmarks[u.ID][id] {
			posts = append(posts, s.view(id, u.ID))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (s *Server) reportPost(w http.ResponseWriter, r *http.Request, _ models.User) {
	id := mux.Vars(r)["id"]
	var rep models.ContentReport
	if err := decode(r, &rep); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := rep.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	s.flagged[id] = append(s.flagged[id], rep)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request, u models.User) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	tree := markLiked(s.comments[id], u.ID)
	if tree == nil {
		tree = commenttree.Tree{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": tree})
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request, u models.User) {
	postID := mux.Vars(r)["id"]
	var req struct {
		Content    string `json:"content"`
		ParentID   string `json:"parentId"`
		GuestName  string `json:"guestName"`
		GuestEmail string `json:"guestEmail"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	c := models.Comment{
		ID:       s.nextID("c"),
		PostID:   postID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if u.ID != "" {
		c.Author = models.Author{ID: u.ID, Name: u.DisplayName()}
	} else {
		c.Author = models.Author{GuestName: req.GuestName, GuestEmail: req.GuestEmail}
	}
	c.BeforeCreate()
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tree := s.comments[postID]
	if req.ParentID != "" {
		if _, ok := commenttree.Find(tree, req.ParentID); !ok {
			writeError(w, http.StatusNotFound, "parent comment not found")
			return
		}
	}
	s.comments[postID] = appendComment(tree, req.ParentID, c)
	writeJSON(w, http.StatusCreated, c)
}

// findComment returns the post holding comment id.
func (s *Server) findComment(id string) (string, models.Comment, bool) {
	for postID, tree := range s.comments {
		if c, ok := commenttree.Find(tree, id); ok {
			return postID, c, true
		}
	}
	return "", models.Comment{}, false
}

func (s *Server) editComment(w http.ResponseWriter, r *http.Request, u models.User) {
	id := mux.Vars(r)["id"]
	var req struct {
		Content string `json:"content"`
	}
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusUnprocessableEntity, "content is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	postID, c, ok := s.findComment(id)
	if !ok {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	if c.Author.ID != u.ID {
		writeError(w, http.StatusForbidden, "not your comment")
		return
	}
	tree := commenttree.Edit(s.comments[postID], id, req.Content)
	c, _ = commenttree.Find(tree, id)
	c.UpdatedAt = time.Now().UTC()
	tree = commenttree.Replace(tree, c)
	s.comments[postID] = tree
	c.Replies = nil
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request, u models.User) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	postID, c, ok := s.findComment(id)
	if !ok {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	if c.Author.ID != u.ID && u.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "not your comment")
		return
	}
	s.comments[postID] = commenttree.Remove(s.comments[postID], id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) likeComment(w http.ResponseWriter, r *http.Request, u models.User) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	postID, _, ok := s.findComment(id)
	if !ok {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	tree := commenttree.ToggleLike(s.comments[postID], id, u.ID)
	s.comments[postID] = tree
	c, _ := commenttree.Find(tree, id)
	writeJSON(w, http.StatusOK, map[string]any{"likesCount": c.LikesCount, "userLiked": c.LikedBy(u.ID)})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ models.User) {
	q := r.URL.Query()
	s.mu.Lock()
	defer s.mu.Unlock()
	users := []models.User{}
	for _, a := range s.accounts {
		if role := q.Get("role"); role != "" && string(a.user.Role) != role {
			continue
		}
		if status := q.Get("status"); status != "" && a.user.Status != status {
			continue
		}
		users = append(users, a.user)
	}
	slices.SortFunc(users, func(a, b models.User) int { return strings.Compare(a.Email, b.Email) })
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) setUserStatus(w http.ResponseWriter, r *http.Request, _ models.User) {
	id := mux.Vars(r)["id"]
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	switch req.Status {
	case models.StatusActive, models.StatusPending, models.StatusSuspended, models.StatusInactive:
	default:
		writeError(w, http.StatusUnprocessableEntity, "unknown status")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[s.byID[id]]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	a.user.Status = req.Status
	writeJSON(w, http.StatusOK, a.user)
}

func (s *Server) listReleases(w http.ResponseWriter, r *http.Request, _ models.User) {
	status := r.URL.Query().Get("status")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Release{}
	for _, rel := range s.releases {
		if status == "" || rel.Status == status {
			out = append(out, rel)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"releases": out})
}

func (s *Server) setReleaseStatus(w http.ResponseWriter, r *http.Request, _ models.User) {
	id := mux.Vars(r)["id"]
	var req struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.releases, func(rel models.Release) bool { return rel.ID == id })
	if i < 0 {
		writeError(w, http.StatusNotFound, "release not found")
		return
	}
	rel := &s.releases[i]
	if !releaseTransition(rel.Status, req.Status) {
		writeError(w, http.StatusConflict, "cannot move release from "+rel.Status+" to "+req.Status)
		return
	}
	rel.Status = req.Status
	writeJSON(w, http.StatusOK, *rel)
}

func releaseTransition(from, to string) bool {
	switch to {
	case models.ReleaseApproved, models.ReleaseRejected:
		return from == models.ReleasePending
	case models.ReleasePublished:
		return from == models.ReleaseApproved
	}
	return false
}

func (s *Server) listReports(w http.ResponseWriter, _ *http.Request, _ models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.WhistleblowerReport{}, s.reports...)
	writeJSON(w, http.StatusOK, map[string]any{"reports": out})
}

func (s *Server) setReportStatus(w http.ResponseWriter, r *http.Request, _ models.User) {
	id := mux.Vars(r)["id"]
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.reports, func(rep models.WhistleblowerReport) bool { return rep.ID == id })
	if i < 0 {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	next := s.reports[i]
	next.Status = req.Status
	if err := next.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.reports[i] = next
	writeJSON(w, http.StatusOK, next)
}

func (s *Server) myReleases(w http.ResponseWriter, _ *http.Request, u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Release{}
	for _, rel := range s.releases {
		if rel.CreatedBy == u.ID {
			out = append(out, rel)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"releases": out})
}

func (s *Server) createRelease(w http.ResponseWriter, r *http.Request, u models.User) {
	var rel models.Release
	if err := decode(r, &rel); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := rel.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rel.ID = s.nextID("r")
	rel.Status = models.ReleasePending
	rel.CreatedBy = u.ID
	rel.CreatedAt = time.Now().UTC()
	s.releases = append(s.releases, rel)
	writeJSON(w, http.StatusCreated, rel)
}

func (s *Server) bulkUpload(w http.ResponseWriter, r *http.Request, _ models.User) {
	kind := mux.Vars(r)["kind"]
	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable file")
		return
	}
	rows := 0
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if strings.TrimSpace(line) != "" {
			rows++
		}
	}
	s.mu.Lock()
	s.uploads[kind] = data
	s.mu.Unlock()
	// The header row is not a record.
	writeJSON(w, http.StatusOK, map[string]any{"created": max(rows-1, 0), "failed": 0})
}

func appendComment(t commenttree.Tree, parentID string, c models.Comment) commenttree.Tree {
	if parentID == "" {
		return append(slices.Clone(t), c)
	}
	return commenttree.InsertReply(t, parentID, c)
}

func markLiked(t []models.Comment, userID string) []models.Comment {
	if t == nil {
		return nil
	}
	out := make([]models.Comment, len(t))
	for i, c := range t {
		c.UserLiked = userID != "" && c.LikedBy(userID)
		c.Replies = markLiked(c.Replies, userID)
		out[i] = c
	}
	return out
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
