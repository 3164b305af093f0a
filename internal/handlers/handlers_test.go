package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/db"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/marketplace"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/session"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/utils"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

const (
	testAccessSecret  = "test-access-secret"
	testRefreshSecret = "test-refresh-secret"
)

type testEnv struct {
	app      *fiber.App
	services *marketplace.Services
	db       *gorm.DB
}

func setupApp(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.Connect("sqlite", filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	services := marketplace.NewServices(gdb, nil)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Register(app.Group("/api"), RouterConfig{
		Services: services,
		Auth: &AuthHandler{
			Users:          services.Users,
			Sessions:       session.NewRedisStore(rdb),
			AccessSecret:   testAccessSecret,
			RefreshSecret:  testRefreshSecret,
			AccessExpires:  10,
			RefreshExpires: 60,
		},
		Hub:          realtime.NewHub(),
		AccessSecret: testAccessSecret,
	})
	return &testEnv{app: app, services: services, db: gdb}
}

// signup registers a user through the service and returns an access token.
func (e *testEnv) signup(t *testing.T, username string, role models.Role) (*models.User, string) {
	t.Helper()
	u, err := e.services.Users.Signup(t.Context(), marketplace.UserInput{Username: username, Password: "secret123", Role: role})
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	token, err := utils.SignJWT(testAccessSecret, u.ID.String(), u.Username, string(u.Role), 10)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return u, token
}

type apiResponse struct {
	Status  int
	Body    map[string]any
	Cookies []*http.Cookie
}

func (r apiResponse) data() map[string]any {
	d, _ := r.Body["data"].(map[string]any)
	return d
}

func (e *testEnv) call(t *testing.T, method, path, token string, body any, cookies ...*http.Cookie) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := apiResponse{Status: resp.StatusCode, Cookies: resp.Cookies()}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out.Body)
	}
	return out
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthFlow(t *testing.T) {
	env := setupApp(t)

	res := env.call(t, "POST", "/api/auth/signup", "", fiber.Map{
		"username": "felix", "password": "secret123", "role": "Freelancer",
	})
	if res.Status != fiber.StatusCreated {
		t.Fatalf("signup: expected 201, got %d %v", res.Status, res.Body)
	}

	res = env.call(t, "POST", "/api/auth/login", "", fiber.Map{"username": "felix", "password": "wrong-pass"})
	if res.Status != fiber.StatusUnauthorized {
		t.Errorf("bad password: expected 401, got %d", res.Status)
	}

	res = env.call(t, "POST", "/api/auth/login", "", fiber.Map{"username": "felix", "password": "secret123"})
	if res.Status != fiber.StatusOK {
		t.Fatalf("login: expected 200, got %d %v", res.Status, res.Body)
	}
	access, _ := res.Body["accessToken"].(string)
	claims, err := utils.ParseJWT(testAccessSecret, access)
	if err != nil {
		t.Fatalf("access token does not verify: %v", err)
	}
	if claims.Username != "felix" || claims.Role != "Freelancer" {
		t.Errorf("unexpected claims %+v", claims)
	}
	refresh := cookieNamed(res.Cookies, "jwt")
	if refresh == nil || refresh.Value == "" || !refresh.HttpOnly {
		t.Fatalf("expected an http-only jwt cookie, got %+v", refresh)
	}

	res = env.call(t, "GET", "/api/auth/refresh", "", nil, refresh)
	if res.Status != fiber.StatusOK || res.Body["accessToken"] == "" {
		t.Fatalf("refresh: expected a new token, got %d %v", res.Status, res.Body)
	}

	if res := env.call(t, "GET", "/api/auth/refresh", "", nil); res.Status != fiber.StatusUnauthorized {
		t.Errorf("refresh without cookie: expected 401, got %d", res.Status)
	}

	if res := env.call(t, "POST", "/api/auth/logout", "", nil, refresh); res.Status != fiber.StatusOK {
		t.Fatalf("logout: expected 200, got %d", res.Status)
	}
	if res := env.call(t, "GET", "/api/auth/refresh", "", nil, refresh); res.Status != fiber.StatusForbidden {
		t.Errorf("refresh after logout: expected 403, got %d", res.Status)
	}
	if res := env.call(t, "POST", "/api/auth/logout", "", nil); res.Status != fiber.StatusNoContent {
		t.Errorf("logout without cookie: expected 204, got %d", res.Status)
	}
}

func TestSignupValidation(t *testing.T) {
	env := setupApp(t)

	res := env.call(t, "POST", "/api/auth/signup", "", fiber.Map{"username": "boss", "password": "secret123", "role": "Admin"})
	if res.Status != fiber.StatusBadRequest {
		t.Fatalf("admin signup: expected 400, got %d", res.Status)
	}
	errs, _ := res.Body["errors"].(map[string]any)
	if _, ok := errs["role"]; !ok {
		t.Errorf("expected a role field error, got %v", res.Body)
	}

	env.signup(t, "felix", models.RoleFreelancer)
	res = env.call(t, "POST", "/api/auth/signup", "", fiber.Map{"username": "felix", "password": "secret123", "role": "Client"})
	if res.Status != fiber.StatusConflict || res.Body["error"] != "DuplicateEntityError" {
		t.Errorf("taken username: expected 409 DuplicateEntityError, got %d %v", res.Status, res.Body)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	env := setupApp(t)

	if res := env.call(t, "GET", "/api/jobs", "", nil); res.Status != fiber.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", res.Status)
	}
	forged, _ := utils.SignJWT("other-secret", "x", "x", "Admin", 10)
	if res := env.call(t, "GET", "/api/jobs", forged, nil); res.Status != fiber.StatusForbidden {
		t.Errorf("forged token: expected 403, got %d", res.Status)
	}

	_, clientToken := env.signup(t, "clara", models.RoleClient)
	if res := env.call(t, "GET", "/api/users", clientToken, nil); res.Status != fiber.StatusForbidden {
		t.Errorf("client listing users: expected 403, got %d", res.Status)
	}
	if res := env.call(t, "GET", "/api/jobs/not-a-uuid", clientToken, nil); res.Status != fiber.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", res.Status)
	}
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	env := setupApp(t)
	client, clientToken := env.signup(t, "clara", models.RoleClient)
	_, freelancerToken := env.signup(t, "felix", models.RoleFreelancer)

	res := env.call(t, "POST", "/api/jobs", clientToken, fiber.Map{})
	if res.Status != fiber.StatusBadRequest {
		t.Fatalf("empty job: expected 400, got %d", res.Status)
	}
	errs, _ := res.Body["errors"].(map[string]any)
	for _, field := range []string{"title", "description", "price"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected a %s field error, got %v", field, errs)
		}
	}

	jobBody := fiber.Map{"title": "Web Dev", "description": "Build a shop", "price": 100, "skills": []string{"go"}, "dueDate": "2026-12-01"}
	res = env.call(t, "POST", "/api/jobs", freelancerToken, jobBody)
	if res.Status != fiber.StatusForbidden || res.Body["error"] != "RoleMismatchError" {
		t.Errorf("freelancer posting: expected 403 RoleMismatchError, got %d %v", res.Status, res.Body)
	}

	res = env.call(t, "POST", "/api/jobs", clientToken, jobBody)
	if res.Status != fiber.StatusCreated {
		t.Fatalf("create job: expected 201, got %d %v", res.Status, res.Body)
	}
	jobID, _ := res.data()["id"].(string)
	if res.data()["status"] != "Pending" || res.data()["client"] != client.ID.String() {
		t.Errorf("unexpected job %v", res.data())
	}

	res = env.call(t, "PATCH", "/api/jobs/"+jobID+"/status", clientToken, fiber.Map{"status": "Accepted"})
	if res.Status != fiber.StatusConflict || res.Body["error"] != "InvalidTransitionError" {
		t.Errorf("accepting without a freelancer: expected 409 InvalidTransitionError, got %d %v", res.Status, res.Body)
	}

	res = env.call(t, "POST", "/api/proposals", freelancerToken, fiber.Map{"jobId": jobID, "price": 90})
	if res.Status != fiber.StatusCreated {
		t.Fatalf("create proposal: expected 201, got %d %v", res.Status, res.Body)
	}
	proposalID, _ := res.data()["id"].(string)

	res = env.call(t, "PATCH", "/api/proposals/"+proposalID+"/status", freelancerToken, fiber.Map{"status": "Accepted"})
	if res.Status != fiber.StatusForbidden {
		t.Errorf("bidder accepting: expected 403, got %d", res.Status)
	}
	res = env.call(t, "PATCH", "/api/proposals/"+proposalID+"/status", clientToken, fiber.Map{"status": "Accepted"})
	if res.Status != fiber.StatusOK {
		t.Fatalf("accept proposal: expected 200, got %d %v", res.Status, res.Body)
	}

	res = env.call(t, "GET", "/api/jobs/"+jobID, clientToken, nil)
	if res.data()["status"] != "Accepted" || res.data()["freelancerUsername"] != "felix" {
		t.Errorf("job after acceptance: %v", res.data())
	}

	res = env.call(t, "PATCH", "/api/jobs/"+jobID+"/status", freelancerToken, fiber.Map{"status": "Pending"})
	if res.Status != fiber.StatusConflict || res.Body["error"] != "InvalidTransitionError" {
		t.Errorf("back to Pending: expected 409 InvalidTransitionError, got %d %v", res.Status, res.Body)
	}
	res = env.call(t, "PATCH", "/api/jobs/"+jobID+"/status", freelancerToken, fiber.Map{"status": "Completed"})
	if res.Status != fiber.StatusOK {
		t.Fatalf("complete: expected 200, got %d %v", res.Status, res.Body)
	}

	res = env.call(t, "PUT", "/api/jobs/"+jobID, clientToken, fiber.Map{"title": "Web Dev v2"})
	if res.Status != fiber.StatusLocked || res.Body["error"] != "TerminalStateError" {
		t.Errorf("editing completed job: expected 423 TerminalStateError, got %d %v", res.Status, res.Body)
	}

	res = env.call(t, "GET", "/api/jobs?status=Completed&limit=5", clientToken, nil)
	if res.Status != fiber.StatusOK {
		t.Fatalf("list: expected 200, got %d", res.Status)
	}
	jobs, _ := res.Body["data"].([]any)
	meta, _ := res.Body["meta"].(map[string]any)
	if len(jobs) != 1 || meta["total_items"] != float64(1) {
		t.Errorf("expected one completed job, got %d (meta %v)", len(jobs), meta)
	}
}

func TestReviewAndProfileOverHTTP(t *testing.T) {
	env := setupApp(t)
	_, clientToken := env.signup(t, "clara", models.RoleClient)
	freelancer, freelancerToken := env.signup(t, "felix", models.RoleFreelancer)

	res := env.call(t, "POST", "/api/reviews", clientToken, fiber.Map{"freelancer": freelancer.ID.String(), "review": "Great", "rating": 9})
	if res.Status != fiber.StatusBadRequest {
		t.Errorf("rating 9: expected 400, got %d", res.Status)
	}
	res = env.call(t, "POST", "/api/reviews", clientToken, fiber.Map{"freelancer": freelancer.ID.String(), "review": "Great", "rating": 5})
	if res.Status != fiber.StatusCreated {
		t.Fatalf("review: expected 201, got %d %v", res.Status, res.Body)
	}

	res = env.call(t, "GET", "/api/users/me", freelancerToken, nil)
	if res.Status != fiber.StatusOK {
		t.Fatalf("me: expected 200, got %d %v", res.Status, res.Body)
	}
	user, _ := res.data()["user"].(map[string]any)
	if user["overallRating"] != float64(5) {
		t.Errorf("expected rating 5, got %v", user["overallRating"])
	}
	if _, leaked := user["password"]; leaked {
		t.Error("password hash must not be serialized")
	}
	dash, _ := res.data()["dashboard"].(map[string]any)
	if dash["reviews"] != float64(1) {
		t.Errorf("expected one review on the dashboard, got %v", dash)
	}

	res = env.call(t, "PATCH", "/api/users/"+freelancer.ID.String(), freelancerToken, fiber.Map{"role": "Client"})
	if res.Status != fiber.StatusBadRequest || res.Body["error"] != "ValidationError" {
		t.Errorf("role change: expected 400 ValidationError, got %d %v", res.Status, res.Body)
	}
}

func TestMessagesOverHTTP(t *testing.T) {
	env := setupApp(t)
	_, clientToken := env.signup(t, "clara", models.RoleClient)
	freelancer, freelancerToken := env.signup(t, "felix", models.RoleFreelancer)

	res := env.call(t, "POST", "/api/messages", clientToken, fiber.Map{"recipient": freelancer.ID.String(), "title": "Hi", "body": "Free next week?"})
	if res.Status != fiber.StatusCreated {
		t.Fatalf("send: expected 201, got %d %v", res.Status, res.Body)
	}
	msgID, _ := res.data()["id"].(string)

	res = env.call(t, "GET", "/api/messages/inbox", freelancerToken, nil)
	if inbox, _ := res.Body["data"].([]any); len(inbox) != 1 {
		t.Fatalf("expected one inbox message, got %v", res.Body)
	}

	if res := env.call(t, "DELETE", "/api/messages/"+msgID, clientToken, nil); res.Status != fiber.StatusForbidden {
		t.Errorf("sender hiding: expected 403, got %d", res.Status)
	}
	if res := env.call(t, "DELETE", "/api/messages/"+msgID, freelancerToken, nil); res.Status != fiber.StatusOK {
		t.Errorf("recipient hiding: expected 200, got %d", res.Status)
	}
	res = env.call(t, "GET", "/api/messages/inbox", freelancerToken, nil)
	if inbox, _ := res.Body["data"].([]any); len(inbox) != 0 {
		t.Errorf("inbox should be empty, got %v", inbox)
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	env := setupApp(t)
	if res := env.call(t, "GET", "/api/ws", "", nil); res.Status != fiber.StatusUpgradeRequired {
		t.Errorf("plain GET: expected 426, got %d", res.Status)
	}
}

func TestErrorKindStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{workflow.Validation("Job", "bad"), fiber.StatusBadRequest},
		{workflow.NotFound("Job", "missing"), fiber.StatusNotFound},
		{workflow.Duplicate("Job", "dup"), fiber.StatusConflict},
		{workflow.RoleMismatch("Job", "role"), fiber.StatusForbidden},
		{workflow.Forbidden("Job", "no"), fiber.StatusForbidden},
		{workflow.InvalidJobState("job is %s", "Accepted"), fiber.StatusConflict},
		{workflow.InvalidTransition("Job", "no"), fiber.StatusConflict},
		{workflow.TerminalState("Job", "done"), fiber.StatusLocked},
		{workflow.InconsistentState("Job", "broken"), fiber.StatusInternalServerError},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		app := fiber.New()
		err := tt.err
		app.Get("/", func(c *fiber.Ctx) error { return fail(c, err) })

		resp, rerr := app.Test(httptest.NewRequest("GET", "/", nil))
		if rerr != nil {
			t.Fatalf("request failed: %v", rerr)
		}
		if resp.StatusCode != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, resp.StatusCode)
		}
	}
}
