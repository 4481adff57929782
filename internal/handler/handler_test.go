package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/config"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/handler"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/hub"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/model"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/router"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/service"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ─── In-memory stores ───────────────────────────────────────────────

type memStore struct {
	mu         sync.Mutex
	students   map[uuid.UUID]model.Student
	exams      map[uuid.UUID]model.ExamSession
	sessions   map[uuid.UUID]model.StudentSession
	violations []model.Violation
}

func newMemStore() *memStore {
	return &memStore{
		students: make(map[uuid.UUID]model.Student),
		exams:    make(map[uuid.UUID]model.ExamSession),
		sessions: make(map[uuid.UUID]model.StudentSession),
	}
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.Email == email {
			out := s
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) Create(_ context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	m.students[s.ID] = *s
	return nil
}

type memExams struct{ store *memStore }

func (m memExams) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSession, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	e, ok := m.store.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (m memExams) ListAll(_ context.Context) ([]model.ExamSession, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := make([]model.ExamSession, 0, len(m.store.exams))
	for _, e := range m.store.exams {
		out = append(out, e)
	}
	return out, nil
}

func (m memExams) ListActive(ctx context.Context) ([]model.ExamSession, error) {
	all, _ := m.ListAll(ctx)
	var out []model.ExamSession
	for _, e := range all {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memExams) Create(_ context.Context, e *model.ExamSession) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	e.ID = uuid.New()
	e.IsActive = true
	e.StartedAt = time.Now()
	m.store.exams[e.ID] = *e
	return nil
}

func (m memExams) Update(_ context.Context, id uuid.UUID, req *model.UpdateExamSessionRequest) (*model.ExamSession, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	e, ok := m.store.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.DurationMinutes != nil {
		e.DurationMinutes = *req.DurationMinutes
	}
	if req.IsActive != nil {
		e.IsActive = *req.IsActive
		if !e.IsActive && e.EndedAt == nil {
			now := time.Now()
			e.EndedAt = &now
		}
	}
	m.store.exams[id] = e
	return &e, nil
}

type memSessions struct{ store *memStore }

func (m memSessions) GetByID(_ context.Context, id uuid.UUID) (*model.StudentSession, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	s, ok := m.store.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (m memSessions) ListByStudentAndExam(_ context.Context, studentID, examSessionID uuid.UUID) ([]model.StudentSession, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []model.StudentSession
	for _, s := range m.store.sessions {
		if s.StudentID == studentID && s.ExamSessionID == examSessionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m memSessions) Create(_ context.Context, s *model.StudentSession) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	s.ID = uuid.New()
	s.IsActive = true
	s.JoinedAt = time.Now()
	m.store.sessions[s.ID] = *s
	return nil
}

func (m memSessions) IncrementWarning(_ context.Context, id uuid.UUID) (*model.StudentSession, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	s, ok := m.store.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	s.WarningCount++
	m.store.sessions[id] = s
	return &s, nil
}

func (m memSessions) Close(_ context.Context, id uuid.UUID, leftAt time.Time) (*model.StudentSession, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	s, ok := m.store.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	s.IsActive = false
	if s.LeftAt == nil {
		s.LeftAt = &leftAt
	}
	m.store.sessions[id] = s
	return &s, nil
}

func (m memSessions) GetDetail(ctx context.Context, id uuid.UUID) (*model.StudentSessionDetail, error) {
	s, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.StudentSessionDetail{StudentSession: *s}, nil
}

func (m memSessions) ListActiveDetails(_ context.Context) ([]model.StudentSessionDetail, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := []model.StudentSessionDetail{}
	for _, s := range m.store.sessions {
		if s.IsActive {
			out = append(out, model.StudentSessionDetail{StudentSession: s})
		}
	}
	return out, nil
}

func (m memSessions) ListDetailsByExam(_ context.Context, examSessionID uuid.UUID) ([]model.StudentSessionDetail, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := []model.StudentSessionDetail{}
	for _, s := range m.store.sessions {
		if s.ExamSessionID == examSessionID {
			out = append(out, model.StudentSessionDetail{StudentSession: s})
		}
	}
	return out, nil
}

type memViolations struct{ store *memStore }

func (m memViolations) Create(_ context.Context, v *model.Violation) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	v.ID = uuid.New()
	v.Timestamp = time.Now()
	m.store.violations = append(m.store.violations, *v)
	return nil
}

func (m memViolations) ListBySession(_ context.Context, studentSessionID uuid.UUID) ([]model.Violation, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := []model.Violation{}
	for _, v := range m.store.violations {
		if v.StudentSessionID == studentSessionID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m memViolations) ListAllDetails(_ context.Context) ([]model.ViolationDetail, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := []model.ViolationDetail{}
	for _, v := range m.store.violations {
		out = append(out, model.ViolationDetail{Violation: v})
	}
	return out, nil
}

// ─── Test app ───────────────────────────────────────────────────────

// recorderConn captures hub writes without a real socket.
type recorderConn struct {
	mu      sync.Mutex
	written []any
}

func (c *recorderConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, v)
	return nil
}

func (c *recorderConn) Ping() error  { return nil }
func (c *recorderConn) Close() error { return nil }

func (c *recorderConn) events() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.written...)
}

type testApp struct {
	engine         *gin.Engine
	store          *memStore
	hub            *hub.Hub
	sessionService *service.SessionService
	student        model.Student
	exam           model.ExamSession
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	store := newMemStore()
	log := zerolog.Nop()

	sessions := memSessions{store: store}
	exams := memExams{store: store}
	violations := memViolations{store: store}

	sessionService := service.NewSessionService(sessions, store, exams, log)
	studentService := service.NewStudentService(store, log)
	examService := service.NewExamSessionService(exams, log)
	violationService := service.NewViolationService(violations, sessionService, nil, log)

	broadcastHub := hub.New(time.Hour, log)

	handlers := &router.Handlers{
		Auth:           handler.NewAuthHandler(),
		Student:        handler.NewStudentHandler(studentService, log),
		ExamSession:    handler.NewExamSessionHandler(examService, log),
		StudentSession: handler.NewStudentSessionHandler(sessionService, log),
		Violation:      handler.NewViolationHandler(violationService, broadcastHub, log),
		WS:             handler.NewWSHandler(broadcastHub, log, nil),
		Monitor:        handler.NewMonitorHandler(nil, examService, sessionService, log),
	}

	cfg := &config.Config{ServerPort: "0", GinMode: gin.TestMode}
	engine := router.SetupRouter(handlers, cfg)

	student := model.Student{Name: "Bob", Email: "bob@example.com"}
	if err := store.Create(context.Background(), &student); err != nil {
		t.Fatalf("seed student: %v", err)
	}
	exam := model.ExamSession{Title: "Finals", DurationMinutes: 90}
	if err := exams.Create(context.Background(), &exam); err != nil {
		t.Fatalf("seed exam: %v", err)
	}

	return &testApp{
		engine:         engine,
		store:          store,
		hub:            broadcastHub,
		sessionService: sessionService,
		student:        student,
		exam:           exam,
	}
}

func (a *testApp) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testApp) join(t *testing.T) model.StudentSession {
	t.Helper()
	w := a.request(t, http.MethodPost, "/api/v1/student-sessions", gin.H{
		"student_id":      a.student.ID,
		"exam_session_id": a.exam.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("join status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data model.StudentSession `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode join response: %v", err)
	}
	return resp.Data
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	w := a.request(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestJoinAndResume(t *testing.T) {
	a := newTestApp(t)

	first := a.join(t)
	second := a.join(t)
	if first.ID != second.ID {
		t.Errorf("resume returned a new session: %s vs %s", first.ID, second.ID)
	}
}

func TestJoinValidation(t *testing.T) {
	a := newTestApp(t)

	w := a.request(t, http.MethodPost, "/api/v1/student-sessions", gin.H{"student_id": a.student.ID})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error code = %q", resp.Error.Code)
	}
	if len(resp.Error.Fields) == 0 {
		t.Error("expected field errors")
	}
}

func TestViolationFlowTerminatesAndNotifies(t *testing.T) {
	a := newTestApp(t)
	sess := a.join(t)

	adminConn := &recorderConn{}
	studentConn := &recorderConn{}
	a.hub.Register(adminConn)
	a.hub.ConnectAdmin(adminConn)
	a.hub.Register(studentConn)
	a.hub.JoinExam(studentConn, sess.ID)

	for i := 0; i < 3; i++ {
		w := a.request(t, http.MethodPost, "/api/v1/violations", gin.H{
			"student_session_id": sess.ID,
			"type":               model.ViolationTabSwitch,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("violation %d status = %d, body %s", i+1, w.Code, w.Body.String())
		}

		var resp struct {
			Data struct {
				Terminated bool `json:"terminated"`
				Session    struct {
					WarningCount int `json:"warning_count"`
				} `json:"session"`
			} `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Data.Session.WarningCount != i+1 {
			t.Errorf("warning count = %d, want %d", resp.Data.Session.WarningCount, i+1)
		}
		wantTerminated := i == 2
		if resp.Data.Terminated != wantTerminated {
			t.Errorf("terminated = %v at violation %d", resp.Data.Terminated, i+1)
		}
	}

	// One violation_created per accepted report.
	if got := len(adminConn.events()); got != 3 {
		t.Errorf("admin received %d events, want 3", got)
	}
	// Exactly one force_logout, after the third report.
	if got := len(studentConn.events()); got != 1 {
		t.Errorf("student received %d events, want 1", got)
	}
}

func TestViolationOnClosedSessionConflict(t *testing.T) {
	a := newTestApp(t)
	sess := a.join(t)

	inactive := false
	w := a.request(t, http.MethodPatch, "/api/v1/student-sessions/"+sess.ID.String(), gin.H{"is_active": &inactive})
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d", w.Code)
	}

	w = a.request(t, http.MethodPost, "/api/v1/violations", gin.H{
		"student_session_id": sess.ID,
		"type":               model.ViolationCopyAttempt,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body %s", w.Code, w.Body.String())
	}
}

func TestLockoutReturnsForbiddenWithSession(t *testing.T) {
	a := newTestApp(t)
	sess := a.join(t)

	ctx := context.Background()
	for i := 0; i < service.WarningThreshold; i++ {
		if _, err := a.sessionService.RecordWarning(ctx, sess.ID); err != nil {
			t.Fatalf("warning: %v", err)
		}
	}
	if _, err := a.sessionService.Terminate(ctx, sess.ID, "threshold"); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	w := a.request(t, http.MethodPost, "/api/v1/student-sessions", gin.H{
		"student_id":      a.student.ID,
		"exam_session_id": a.exam.ID,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Terminated bool `json:"terminated"`
			Session    struct {
				ID string `json:"id"`
			} `json:"session"`
		} `json:"data"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "SESSION_TERMINATED" {
		t.Errorf("error code = %q", resp.Error.Code)
	}
	if !resp.Data.Terminated {
		t.Error("terminated flag missing")
	}
	if resp.Data.Session.ID != sess.ID.String() {
		t.Errorf("session id = %q, want %q", resp.Data.Session.ID, sess.ID)
	}
}

func TestWarningEndpoint(t *testing.T) {
	a := newTestApp(t)
	sess := a.join(t)

	w := a.request(t, http.MethodPost, fmt.Sprintf("/api/v1/student-sessions/%s/warning", sess.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Terminated bool `json:"terminated"`
			Session    struct {
				WarningCount int `json:"warning_count"`
			} `json:"session"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Session.WarningCount != 1 {
		t.Errorf("warning count = %d, want 1", resp.Data.Session.WarningCount)
	}
	if resp.Data.Terminated {
		t.Error("terminated after one warning")
	}
}

func TestWarningOnSubmittedSessionConflict(t *testing.T) {
	a := newTestApp(t)
	sess := a.join(t)

	inactive := false
	w := a.request(t, http.MethodPatch, "/api/v1/student-sessions/"+sess.ID.String(), gin.H{"is_active": &inactive})
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d", w.Code)
	}

	w = a.request(t, http.MethodPost, fmt.Sprintf("/api/v1/student-sessions/%s/warning", sess.ID), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body %s", w.Code, w.Body.String())
	}
}

func TestWarningUnknownSession(t *testing.T) {
	a := newTestApp(t)

	w := a.request(t, http.MethodPost, fmt.Sprintf("/api/v1/student-sessions/%s/warning", uuid.New()), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	w = a.request(t, http.MethodPost, "/api/v1/student-sessions/not-a-uuid/warning", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestReopeningSessionRejected(t *testing.T) {
	a := newTestApp(t)
	sess := a.join(t)

	active := true
	w := a.request(t, http.MethodPatch, "/api/v1/student-sessions/"+sess.ID.String(), gin.H{"is_active": &active})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListActiveSessionsAndHistory(t *testing.T) {
	a := newTestApp(t)
	sess := a.join(t)

	w := a.request(t, http.MethodGet, "/api/v1/student-sessions/active", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("active status = %d", w.Code)
	}
	var active struct {
		Data []model.StudentSessionDetail `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &active); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(active.Data) != 1 || active.Data[0].ID != sess.ID {
		t.Errorf("active list = %+v, want the joined session", active.Data)
	}

	w = a.request(t, http.MethodGet,
		fmt.Sprintf("/api/v1/student-sessions/by-student-exam?student_id=%s&exam_session_id=%s", a.student.ID, a.exam.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pair status = %d", w.Code)
	}
	var pair struct {
		Data []model.StudentSession `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pair.Data) != 1 || pair.Data[0].ID != sess.ID {
		t.Errorf("pair list = %+v, want the joined session", pair.Data)
	}
}

func TestListSessionViolations(t *testing.T) {
	a := newTestApp(t)
	sess := a.join(t)

	w := a.request(t, http.MethodPost, "/api/v1/violations", gin.H{
		"student_session_id": sess.ID,
		"type":               model.ViolationPasteAttempt,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("ingest status = %d", w.Code)
	}

	w = a.request(t, http.MethodGet, "/api/v1/violations/student-session/"+sess.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp struct {
		Data []model.Violation `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Type != model.ViolationPasteAttempt {
		t.Errorf("violations = %+v, want one paste-attempt", resp.Data)
	}
}

func TestCreateStudent(t *testing.T) {
	a := newTestApp(t)

	w := a.request(t, http.MethodPost, "/api/v1/students", gin.H{"name": "Carol", "email": "carol@example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	w = a.request(t, http.MethodPost, "/api/v1/students", gin.H{"name": "Carol", "email": "not-an-email"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad email status = %d, want 400", w.Code)
	}
}

func TestExamSessionLifecycle(t *testing.T) {
	a := newTestApp(t)

	w := a.request(t, http.MethodPost, "/api/v1/exam-sessions", gin.H{"title": "Quiz", "duration_minutes": 30})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var created struct {
		Data model.ExamSession `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	inactive := false
	w = a.request(t, http.MethodPatch, "/api/v1/exam-sessions/"+created.Data.ID.String(), gin.H{"is_active": &inactive})
	if w.Code != http.StatusOK {
		t.Fatalf("close status = %d, body %s", w.Code, w.Body.String())
	}
	var closed struct {
		Data model.ExamSession `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &closed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if closed.Data.IsActive {
		t.Error("exam still active after close")
	}
	if closed.Data.EndedAt == nil {
		t.Error("closed exam has no ended_at")
	}

	// Joining a closed exam is rejected.
	w = a.request(t, http.MethodPost, "/api/v1/student-sessions", gin.H{
		"student_id":      a.student.ID,
		"exam_session_id": created.Data.ID,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("join closed exam status = %d, want 409", w.Code)
	}
}
