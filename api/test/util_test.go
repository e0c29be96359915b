package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/studynotion/backend/api"
	"github.com/studynotion/backend/api/background"
	"github.com/studynotion/backend/config"
	"github.com/studynotion/backend/core/category"
	"github.com/studynotion/backend/core/course"
	"github.com/studynotion/backend/core/user"
	"github.com/studynotion/backend/database"
	"github.com/studynotion/backend/validate"
	"golang.org/x/crypto/bcrypt"
)

const webhookSecret = "whsec_test"

// Server bundles the API test server with a cookie-aware http client, so
// the scs session survives across requests.
type Server struct {
	*httptest.Server
	client *http.Client
}

type TestEnv struct {
	DB     *sqlx.DB
	URL    string
	Server *Server

	UserEmail       string
	UserPass        string
	InstructorEmail string
	InstructorPass  string
	AdminEmail      string
	AdminPass       string

	InstructorID string
	CategoryID   string

	Paypal        *mockPaypal
	Stripe        *mockStripe
	WebhookSecret string

	Mail *mockMailer
}

func (e *TestEnv) Client() *http.Client { return e.Server.client }

// mockMailer records outgoing mail instead of dialing an smtp server.
type mockMailer struct {
	mu          sync.Mutex
	Activations map[string]string
	Recoveries  map[string]string
	Decisions   []string
}

func newMockMailer() *mockMailer {
	return &mockMailer{
		Activations: make(map[string]string),
		Recoveries:  make(map[string]string),
	}
}

func (m *mockMailer) SendActivationToken(to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Activations[to] = token
	return nil
}

func (m *mockMailer) SendRecoveryToken(to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recoveries[to] = token
	return nil
}

func (m *mockMailer) SendDecision(to, courseName string, outcome course.ApprovalStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Decisions = append(m.Decisions, fmt.Sprintf("%s:%s:%s", to, courseName, outcome))
	return nil
}

// NewTestEnv creates a dedicated database inside the shared container,
// migrates it, seeds an admin, an instructor, a student and a category,
// and serves the full API with payment providers mocked out.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	t.Helper()

	if _, err := rootDB.Exec("CREATE DATABASE " + name); err != nil {
		return nil, fmt.Errorf("creating database %s: %w", name, err)
	}

	cfg := rootCfg
	cfg.Name = name

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", name, err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db, "../../migrations"); err != nil {
		return nil, fmt.Errorf("migrating database %s: %w", name, err)
	}

	env := &TestEnv{
		DB:              db,
		UserEmail:       "student@test.com",
		UserPass:        "studentpass",
		InstructorEmail: "instructor@test.com",
		InstructorPass:  "instructorpass",
		AdminEmail:      "admin@test.com",
		AdminPass:       "adminpass",
		WebhookSecret:   webhookSecret,
		Mail:            newMockMailer(),
	}

	ctx := context.Background()

	seed := func(name, email, pass, role string) (string, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.MinCost)
		if err != nil {
			return "", err
		}

		now := time.Now().UTC()
		u := user.User{
			ID:           validate.GenerateID(),
			Name:         name,
			Email:        email,
			Role:         role,
			PasswordHash: hash,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return u.ID, user.Create(ctx, db, u)
	}

	if _, err := seed("Test Student", env.UserEmail, env.UserPass, "STUDENT"); err != nil {
		return nil, fmt.Errorf("seeding student: %w", err)
	}
	if env.InstructorID, err = seed("Test Instructor", env.InstructorEmail, env.InstructorPass, "INSTRUCTOR"); err != nil {
		return nil, fmt.Errorf("seeding instructor: %w", err)
	}
	if _, err := seed("Test Admin", env.AdminEmail, env.AdminPass, "ADMIN"); err != nil {
		return nil, fmt.Errorf("seeding admin: %w", err)
	}

	now := time.Now().UTC()
	cat := category.Category{
		ID:          validate.GenerateID(),
		Name:        "Programming",
		Description: "Programming courses",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := category.Create(ctx, db, cat); err != nil {
		return nil, fmt.Errorf("seeding category: %w", err)
	}
	env.CategoryID = cat.ID

	env.Paypal = &mockPaypal{}
	ppSrv := httptest.NewServer(env.Paypal.handle())
	t.Cleanup(ppSrv.Close)

	pp, err := paypal.NewClient("test-client", "test-secret", ppSrv.URL)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}

	env.Stripe = &mockStripe{}
	stSrv := httptest.NewServer(env.Stripe.handle())
	t.Cleanup(stSrv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL: stripe.String(stSrv.URL),
	})
	strp := &stripecl.API{}
	strp.Init("sk_test", &stripe.Backends{API: backend, Uploads: backend, Connect: backend})

	session := scs.New()
	session.Lifetime = time.Hour

	log := logrus.New()
	log.SetOutput(io.Discard)

	mux := api.APIMux(api.APIConfig{
		Log:            log,
		DB:             db,
		Session:        session,
		Mailer:         env.Mail,
		DecisionMailer: env.Mail,
		TokenTimeout:   time.Hour,
		Background:     background.New(log),
		Paypal:         pp,
		Stripe:         strp,
		StripeCfg: config.Stripe{
			APISecret:     "sk_test",
			WebhookSecret: webhookSecret,
			SuccessURL:    "http://localhost/success",
			CancelURL:     "http://localhost/cancel",
		},
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}

	env.Server = &Server{Server: srv, client: &http.Client{Jar: jar}}
	env.URL = srv.URL

	return env, nil
}

func Login(s *Server, email string, pass string) error {
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, pass)

	r, err := http.NewRequest(http.MethodPost, s.URL+"/auth/login", strings.NewReader(body))
	if err != nil {
		return err
	}

	w, err := s.client.Do(r)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login as %s: status code %s", email, w.Status)
	}
	return nil
}

func Logout(s *Server) error {
	r, err := http.NewRequest(http.MethodPost, s.URL+"/auth/logout", nil)
	if err != nil {
		return err
	}

	w, err := s.client.Do(r)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout: status code %s", w.Status)
	}
	return nil
}

// doJSON sends body as json and decodes the response into out when the
// status matches; on a mismatch it fails the test with the raw body.
func (e *TestEnv) doJSON(t *testing.T, method, path string, body any, want int, out any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, e.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}

	w, err := e.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	raw, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatal(err)
	}

	if w.StatusCode != want {
		t.Fatalf("%s %s: got status %d, want %d (body: %s)", method, path, w.StatusCode, want, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("%s %s: unmarshaling response: %v (body: %s)", method, path, err, raw)
		}
	}
}
