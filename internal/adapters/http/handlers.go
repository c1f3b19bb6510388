package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"atelier/internal/adapters/http/middleware"
	"atelier/internal/adapters/storage/content"
	"atelier/internal/application/editsession"
	"atelier/internal/application/normalize"
	"atelier/internal/application/orchestrators"
	"atelier/internal/application/projections"
	"atelier/internal/domain/bilingual"
	"atelier/internal/domain/course"
	"atelier/internal/domain/gallery"
	"atelier/internal/domain/member"
)

//go:embed templates/*.html
var templatesFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// requestIdentity derives the acting member from the request context.
// It is re-consulted by the edit session before every mutating call.
type requestIdentity struct{}

func (requestIdentity) AuthenticatedMemberID(ctx context.Context) string {
	return middleware.SessionMemberID(ctx)
}

func (requestIdentity) AuthToken(ctx context.Context) (string, error) {
	memberID := middleware.SessionMemberID(ctx)
	if memberID == "" {
		return "", editsession.ErrAuthenticationRequired
	}
	return tokens.Issue(memberID)
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	lang := middleware.GetLangFromContext(r.Context())
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())

	funcMap := template.FuncMap{
		"lang":        func() string { return lang },
		"dir":         func() string { return textDirection(lang) },
		"isLoggedIn":  func() bool { return loggedIn },
		"ownMemberID": func() string { return sess.MemberID },
		"csrfToken":   func() string { return csrf.Token(r) },
		"resolve": func(t bilingual.Text) string {
			return t.In(lang)
		},
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
	}

	tmpl, err := template.New(templateName).Funcs(funcMap).ParseFS(templatesFS, "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		slog.Error("template_execute_failed", "template", templateName, "error", err)
	}
}

// textDirection returns the writing direction for the html dir attribute.
func textDirection(lang string) string {
	if lang == bilingual.LangHebrew {
		return "rtl"
	}
	return "ltr"
}

// registerRoutes wires all application routes onto the mux.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/members", handleMembers)
	mux.HandleFunc("/members/", handleMemberDetail)
	mux.HandleFunc("/courses", handleCourses)
	mux.HandleFunc("/gallery", handleGallery)
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/logout", handleLogout)
	mux.HandleFunc("/healthz", handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/api/edit/enter", middleware.RequireAuth(http.HandlerFunc(handleEditEnter)))
	mux.Handle("/api/edit/field", middleware.RequireAuth(http.HandlerFunc(handleEditField)))
	mux.Handle("/api/edit/teacher-toggle", middleware.RequireAuth(http.HandlerFunc(handleEditTeacherToggle)))
	mux.Handle("/api/edit/state", middleware.RequireAuth(http.HandlerFunc(handleEditState)))
	mux.Handle("/api/edit/commit", middleware.RequireAuth(http.HandlerFunc(handleEditCommit)))
	mux.Handle("/api/edit/cancel", middleware.RequireAuth(http.HandlerFunc(handleEditCancel)))
	mux.Handle("/api/gallery", middleware.RequireAuth(http.HandlerFunc(handleGalleryCreate)))
	mux.Handle("/api/gallery/", middleware.RequireAuth(http.HandlerFunc(handleGalleryItem)))
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// memberView carries one member row for the list page.
type memberView struct {
	ID       string
	Name     string
	Role     string
	ImageURL string
	Category string
}

// handleMembers renders the members list.
func handleMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	lang := middleware.GetLangFromContext(r.Context())

	raws, err := stores.ContentStore.FetchAllMembers(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	members, skipped := normalize.Members(raws)
	if skipped > 0 {
		slog.Warn("member_records_skipped", "count", skipped)
	}

	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView{
			ID:       m.ID,
			Name:     m.Name.In(lang),
			Role:     m.Role.In(lang),
			ImageURL: m.ImageURL,
			Category: m.Category,
		})
	}
	renderTemplate(w, r, "members.html", map[string]any{"Members": views})
}

// handleMemberDetail renders one member's profile with their taught
// courses and artworks.
func handleMemberDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/members/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	result, err := projections.QueryGetMemberProfile(r.Context(),
		projections.GetMemberProfileQuery{MemberID: id},
		projections.GetMemberProfileDeps{ContentStore: stores.ContentStore})
	if err != nil {
		var malformed *normalize.MalformedRecordError
		if errors.Is(err, content.ErrNotFound) || errors.As(err, &malformed) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	isOwner := middleware.SessionMemberID(r.Context()) == result.Member.ID
	renderTemplate(w, r, "member.html", map[string]any{
		"Member":  result.Member,
		"Courses": result.Courses,
		"Gallery": result.GalleryItems,
		"IsOwner": isOwner,
	})
}

// handleCourses renders the course catalogue.
func handleCourses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawCourses, err := stores.ContentStore.FetchAllCourses(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	courses, skipped := normalize.Courses(rawCourses)
	if skipped > 0 {
		slog.Warn("course_records_skipped", "count", skipped)
	}

	rawMembers, err := stores.ContentStore.FetchAllMembers(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	members, _ := normalize.Members(rawMembers)

	type courseView struct {
		Course   course.Course
		Teachers []member.Member
	}
	views := make([]courseView, 0, len(courses))
	for _, c := range courses {
		views = append(views, courseView{
			Course:   c,
			Teachers: projections.TeachersOf(c, members),
		})
	}
	renderTemplate(w, r, "courses.html", map[string]any{"Courses": views})
}

// handleGallery renders the full gallery.
func handleGallery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raws, err := stores.ContentStore.FetchAllGalleryItems(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	items, skipped := normalize.GalleryItems(raws)
	if skipped > 0 {
		slog.Warn("gallery_records_skipped", "count", skipped)
	}

	rawMembers, err := stores.ContentStore.FetchAllMembers(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	members, _ := normalize.Members(rawMembers)
	byID := make(map[string]member.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	type itemView struct {
		Item   gallery.Item
		Artist *member.Member
	}
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		view := itemView{Item: item}
		if artist, ok := byID[item.ArtistID]; ok {
			view.Artist = &artist
		}
		views = append(views, view)
	}
	renderTemplate(w, r, "gallery.html", map[string]any{"Items": views})
}

// handleLogin serves the login form and processes submissions.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/members", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login.html", map[string]any{})
		return
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}

		input := orchestrators.LoginInput{
			Email:    r.FormValue("Email"),
			Password: r.FormValue("Password"),
		}
		result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
			AccountStore: stores.AccountStore,
		})
		if err != nil {
			renderTemplate(w, r, "login.html", map[string]any{"Error": err.Error()})
			return
		}

		token, err := sessions.Create(result.AccountID, result.MemberID, result.Email, result.Role)
		if err != nil {
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}
		middleware.SetSessionCookie(w, token)
		if result.MemberID != "" {
			http.Redirect(w, r, "/members/"+result.MemberID, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/members", http.StatusSeeOther)
		return
	}

	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

// handleLogout ends the login session and discards any edit session.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if token := middleware.SessionTokenFromRequest(r); token != "" {
		if memberID := middleware.SessionMemberID(r.Context()); memberID != "" {
			editSessions.drop(memberID)
		}
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/members", http.StatusSeeOther)
}
