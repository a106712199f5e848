package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bingo-task-system/models"
	"bingo-task-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	playerHeaders   = "player-1"
	reviewerHeaders = "keeper-1"
)

type apiFixture struct {
	app   *fiber.App
	db    *gorm.DB
	tasks []models.Task
}

// newAPIFixture wires the full route surface over an in-memory database with
// a seeded 2x2 board. Gateway auth is applied in main, not here, so requests
// carry only the identity headers the gateway would forward.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := "file:" + name + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.Task{}, &models.UserTask{}, &models.LeaderboardEntry{},
		&models.PatternAward{}, &models.BadgeType{}, &models.UserBadge{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	board := services.Board{Rows: 2, Cols: 2}
	var catalog []models.Task
	for r := 1; r <= 2; r++ {
		for c := 1; c <= 2; c++ {
			catalog = append(catalog, models.Task{
				ID:          uuid.NewString(),
				Description: fmt.Sprintf("cell %d-%d", r, c),
				Points:      25,
				GridRow:     r,
				GridColumn:  c,
			})
		}
	}
	if err := services.SeedTasks(db, board, services.StaticCatalogLoader(catalog)); err != nil {
		t.Fatalf("seed tasks: %v", err)
	}
	if err := services.SeedBadges(db, board); err != nil {
		t.Fatalf("seed badges: %v", err)
	}

	ledger := services.NewLeaderboardService(db)
	badges := services.NewBadgeService(db)
	patterns := services.NewPatternService(db, board)
	taskService := services.NewTaskService(db, ledger, patterns, badges)

	app := fiber.New()
	SetupTaskRoutes(app, taskService)
	SetupLeaderboardRoutes(app, ledger, badges, nil)

	var seeded []models.Task
	if err := db.Order("grid_row, grid_column").Find(&seeded).Error; err != nil {
		t.Fatal(err)
	}
	return &apiFixture{app: app, db: db, tasks: seeded}
}

func identity(userID string, roles ...string) map[string]string {
	h := map[string]string{"X-User-ID": userID}
	if len(roles) > 0 {
		h["X-User-Roles"] = strings.Join(roles, ",")
	}
	return h
}

func (f *apiFixture) request(t *testing.T, method, path string, headers map[string]string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (f *apiFixture) submit(t *testing.T, userID, taskID string) {
	t.Helper()
	resp := f.requestForm(t, "/tasks/submit", identity(userID), map[string]string{"task_id": taskID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit returned %d", resp.StatusCode)
	}
}

// requestForm posts multipart form fields the way the frontend submits tasks.
func (f *apiFixture) requestForm(t *testing.T, path string, headers, fields map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func TestSecuredRoutesRequireIdentity(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/tasks", "/tasks/pending", "/profile", "/roles/reviewer"} {
		resp := f.request(t, http.MethodGet, path, nil, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without identity = %d, want 401", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestSubmitEndpointValidation(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.requestForm(t, "/tasks/submit", identity(playerHeaders), map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("submit without task_id = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = f.requestForm(t, "/tasks/submit", identity(playerHeaders), map[string]string{"task_id": "missing"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("submit unknown task = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestApprovalFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	task := f.tasks[0]
	f.submit(t, playerHeaders, task.ID)

	// A plain player may not approve.
	resp := f.request(t, http.MethodPost, "/tasks/approve", identity(playerHeaders),
		fiber.Map{"user_id": playerHeaders, "task_id": task.ID})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("approve as player = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	// GameKeeper role carries the reviewer capability.
	resp = f.request(t, http.MethodPost, "/tasks/approve", identity(reviewerHeaders, "GameKeeper"),
		fiber.Map{"user_id": playerHeaders, "task_id": task.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve as GameKeeper = %d, want 200", resp.StatusCode)
	}
	var approved struct {
		NewPatterns []string `json:"new_patterns"`
	}
	decodeBody(t, resp, &approved)
	if len(approved.NewPatterns) != 0 {
		t.Errorf("single cell completed patterns %v", approved.NewPatterns)
	}

	// Approving the same submission again finds nothing pending.
	resp = f.request(t, http.MethodPost, "/tasks/approve", identity(reviewerHeaders, "GameKeeper"),
		fiber.Map{"user_id": playerHeaders, "task_id": task.ID})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("re-approve = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	// Points landed on the public leaderboard.
	resp = f.request(t, http.MethodGet, "/leaderboard", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard = %d", resp.StatusCode)
	}
	var snapshot []struct {
		UserID      string `json:"user_id"`
		TotalPoints int64  `json:"total_points"`
		Rank        string `json:"rank"`
	}
	decodeBody(t, resp, &snapshot)
	if len(snapshot) != 1 || snapshot[0].UserID != playerHeaders || snapshot[0].TotalPoints != task.Points {
		t.Errorf("leaderboard = %+v, want %s with %d points", snapshot, playerHeaders, task.Points)
	} else if snapshot[0].Rank != services.RankBeginner {
		t.Errorf("rank tier = %q, want %q", snapshot[0].Rank, services.RankBeginner)
	}
}

func TestRejectFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	task := f.tasks[0]
	f.submit(t, playerHeaders, task.ID)

	resp := f.request(t, http.MethodPost, "/tasks/reject", identity(reviewerHeaders, "Developer"),
		fiber.Map{"user_id": playerHeaders, "task_id": task.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	// The board reflects the rejection and the leaderboard stayed empty.
	resp = f.request(t, http.MethodGet, "/tasks", identity(playerHeaders), nil)
	var board []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, resp, &board)
	statuses := make(map[string]string)
	for _, cell := range board {
		statuses[cell.ID] = cell.Status
	}
	if statuses[task.ID] != models.TaskStatusRejected {
		t.Errorf("rejected task shows status %q", statuses[task.ID])
	}

	resp = f.request(t, http.MethodGet, "/leaderboard", nil, nil)
	var snapshot []json.RawMessage
	decodeBody(t, resp, &snapshot)
	if len(snapshot) != 0 {
		t.Errorf("leaderboard has %d entries after rejection, want 0", len(snapshot))
	}
}

func TestPendingQueueOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	f.submit(t, playerHeaders, f.tasks[0].ID)
	f.submit(t, "player-2", f.tasks[1].ID)

	resp := f.request(t, http.MethodGet, "/tasks/pending", identity(playerHeaders), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("pending queue as player = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	resp = f.request(t, http.MethodGet, "/tasks/pending", identity(reviewerHeaders, "GameKeeper"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pending queue = %d", resp.StatusCode)
	}
	var queue []struct {
		UserID string `json:"user_id"`
		TaskID string `json:"task_id"`
	}
	decodeBody(t, resp, &queue)
	if len(queue) != 2 {
		t.Errorf("queue has %d entries, want 2", len(queue))
	}
}

func TestLeaderboardScopeValidation(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodGet, "/leaderboard?scope=weekly", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bogus scope = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	for _, scope := range []string{"total", "monthly"} {
		resp := f.request(t, http.MethodGet, "/leaderboard?scope="+scope, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("scope %s = %d, want 200", scope, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestLeaderboardTopFallsBackToDatabase(t *testing.T) {
	f := newAPIFixture(t)
	task := f.tasks[0]
	f.submit(t, playerHeaders, task.ID)
	resp := f.request(t, http.MethodPost, "/tasks/approve", identity(reviewerHeaders, "GameKeeper"),
		fiber.Map{"user_id": playerHeaders, "task_id": task.ID})
	resp.Body.Close()

	// No Redis mirror configured, so /leaderboard/top serves the database.
	resp = f.request(t, http.MethodGet, "/leaderboard/top?n=1", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("top = %d", resp.StatusCode)
	}
	var top []struct {
		UserID string `json:"user_id"`
	}
	decodeBody(t, resp, &top)
	if len(top) != 1 || top[0].UserID != playerHeaders {
		t.Errorf("top = %+v, want [%s]", top, playerHeaders)
	}
}

func TestProfileOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	task := f.tasks[0]
	f.submit(t, playerHeaders, task.ID)
	resp := f.request(t, http.MethodPost, "/tasks/approve", identity(reviewerHeaders, "Developer"),
		fiber.Map{"user_id": playerHeaders, "task_id": task.ID})
	resp.Body.Close()

	headers := identity(playerHeaders)
	headers["X-User-Name"] = "Casey"
	resp = f.request(t, http.MethodGet, "/profile", headers, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile = %d", resp.StatusCode)
	}
	var profile struct {
		UserID      string            `json:"user_id"`
		Username    string            `json:"username"`
		TotalPoints int64             `json:"total_points"`
		Rank        string            `json:"rank"`
		Badges      []json.RawMessage `json:"badges"`
	}
	decodeBody(t, resp, &profile)
	if profile.UserID != playerHeaders || profile.Username != "Casey" {
		t.Errorf("profile identity = %s/%s", profile.UserID, profile.Username)
	}
	if profile.TotalPoints != task.Points {
		t.Errorf("profile points = %d, want %d", profile.TotalPoints, task.Points)
	}
	if profile.Rank != services.RankBeginner {
		t.Errorf("profile rank = %q, want %q", profile.Rank, services.RankBeginner)
	}
	if len(profile.Badges) != 0 {
		t.Errorf("profile badges = %d, want 0", len(profile.Badges))
	}
}

func TestReviewerRoleProbe(t *testing.T) {
	f := newAPIFixture(t)

	cases := []struct {
		roles []string
		want  bool
	}{
		{nil, false},
		{[]string{"Player"}, false},
		{[]string{"Developer"}, true},
		{[]string{"Player", "GameKeeper"}, true},
	}
	for _, tc := range cases {
		resp := f.request(t, http.MethodGet, "/roles/reviewer", identity("someone", tc.roles...), nil)
		var out struct {
			IsReviewer bool `json:"is_reviewer"`
		}
		decodeBody(t, resp, &out)
		if out.IsReviewer != tc.want {
			t.Errorf("roles %v → is_reviewer %v, want %v", tc.roles, out.IsReviewer, tc.want)
		}
	}
}
