// Package web wires the HTTP surface: public bilingual pages, the login
// form, and the JSON edit API members use to maintain their own profile.
package web

import (
	"crypto/rand"
	"log"
	"net/http"
	"sync"
	"time"

	"atelier/internal/adapters/auth"
	"atelier/internal/adapters/email"
	"atelier/internal/adapters/http/middleware"
	accountStore "atelier/internal/adapters/storage/account"
	auditStore "atelier/internal/adapters/storage/audit"
	"atelier/internal/adapters/storage/content"
	"atelier/internal/application/editsession"
)

// Stores holds all storage dependencies.
type Stores struct {
	ContentStore content.Store
	AccountStore accountStore.Store
	AuditStore   auditStore.Store
}

// Options configures the HTTP surface.
type Options struct {
	Stores         *Stores
	Sessions       *auth.SessionStore
	Tokens         *auth.EditTokenService
	Notifier       *email.Notifier // optional: nil disables admin notification
	CSRFKey        []byte          // 32 bytes
	TrustedOrigins []string
	StaticDir      string
	UploadsDir     string // filesystem blob root, served under UploadsPrefix
	UploadsPrefix  string // URL prefix for uploaded images, e.g. "/uploads/"
	Secure         bool
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *auth.SessionStore

// Global edit token service instance
var tokens *auth.EditTokenService

// Global notifier instance (may be nil)
var notifier *email.Notifier

// Global edit session registry
var editSessions *sessionRegistry

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// NewMux wires HTTP handlers for the app.
func NewMux(opts Options) http.Handler {
	stores = opts.Stores
	sessions = opts.Sessions
	tokens = opts.Tokens
	notifier = opts.Notifier
	editSessions = newSessionRegistry()
	middleware.SecureCookies = opts.Secure

	mux := http.NewServeMux()
	if opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(opts.StaticDir)))
	}
	if opts.UploadsDir != "" && opts.UploadsPrefix != "" {
		mux.Handle(opts.UploadsPrefix,
			http.StripPrefix(opts.UploadsPrefix, http.FileServer(http.Dir(opts.UploadsDir))))
	}
	registerRoutes(mux)

	csrfKey := opts.CSRFKey
	if len(csrfKey) != 32 {
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			log.Fatalf("failed to generate CSRF key: %v", err)
		}
		log.Println("WARNING: using random CSRF key (form sessions won't survive restart)")
	}

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: RateLimit -> Language -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, opts.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.Language,
		middleware.RateLimit(limiter),
	)
}

// sessionRegistry keeps at most one edit session per member. The session
// itself guards its state; the registry only guards the map.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*editsession.Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*editsession.Session)}
}

// forMember returns the member's edit session, creating it on first use.
func (r *sessionRegistry) forMember(memberID string) *editsession.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[memberID]; ok {
		return s
	}
	s := editsession.NewSession(memberID, editsession.Deps{
		Identity:     requestIdentity{},
		ContentStore: stores.ContentStore,
		Audit:        stores.AuditStore,
	})
	r.sessions[memberID] = s
	return s
}

// drop removes a member's edit session, e.g. on logout.
func (r *sessionRegistry) drop(memberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, memberID)
}
