package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"taskdeck/internal/cache"
	"taskdeck/internal/connectivity"
	"taskdeck/internal/model"
	"taskdeck/internal/offline"
	"taskdeck/internal/task"
	"taskdeck/internal/task/repository"
	"taskdeck/internal/task/usecase"
	"taskdeck/pkg/log"
	"taskdeck/pkg/todoapi"
)

type mockRepo struct {
	mu        sync.Mutex
	listCalls int
	listPage  todoapi.TaskPage
	listErr   error

	detail map[int]model.Task

	createFn   func(req todoapi.CreateTaskRequest, key string) (model.Task, error)
	updateFn   func(id int, req todoapi.UpdateTaskRequest, key string) (model.Task, error)
	deleteFn   func(id int, key string) error
	completeFn func(id int, key string) (model.Task, error)
	improveFn  func(id int) (todoapi.ImproveTaskResult, error)
}

func (m *mockRepo) List(ctx context.Context, opt repository.ListOptions) (todoapi.TaskPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return todoapi.TaskPage{}, m.listErr
	}
	return m.listPage, nil
}

func (m *mockRepo) Detail(ctx context.Context, id int) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.detail[id]; ok {
		return t, nil
	}
	return model.Task{}, &todoapi.APIError{Status: http.StatusNotFound, Code: "not_found", Message: "task not found"}
}

func (m *mockRepo) Create(ctx context.Context, req todoapi.CreateTaskRequest, key string) (model.Task, error) {
	return m.createFn(req, key)
}

func (m *mockRepo) Update(ctx context.Context, id int, req todoapi.UpdateTaskRequest, key string) (model.Task, error) {
	return m.updateFn(id, req, key)
}

func (m *mockRepo) Delete(ctx context.Context, id int, key string) error {
	return m.deleteFn(id, key)
}

func (m *mockRepo) Complete(ctx context.Context, id int, key string) (model.Task, error) {
	return m.completeFn(id, key)
}

func (m *mockRepo) Improve(ctx context.Context, id int) (todoapi.ImproveTaskResult, error) {
	return m.improveFn(id)
}

func (m *mockRepo) Analyze(ctx context.Context) (model.WorkloadAnalysis, error) {
	return model.WorkloadAnalysis{TotalTasks: len(m.detail)}, nil
}

type fixture struct {
	repo    *mockRepo
	cache   *cache.Cache
	queue   *offline.Queue
	monitor *connectivity.Monitor
	uc      task.UseCase
}

func newFixture(t *testing.T, repo *mockRepo) *fixture {
	t.Helper()
	l := log.NewNop()
	c := cache.New(l, cache.Config{})
	q := offline.NewQueue(l, offline.QueueConfig{})
	m := connectivity.NewMonitor(l, connectivity.ProbeFunc(func(ctx context.Context) error { return nil }),
		connectivity.Config{InitialOnline: true})
	return &fixture{
		repo:    repo,
		cache:   c,
		queue:   q,
		monitor: m,
		uc:      usecase.New(l, repo, c, q, m, offline.NewTempIDs(0)),
	}
}

func serverTask(id int, title string) model.Task {
	return model.Task{ID: id, Title: title, Priority: model.PriorityMedium, Status: model.StatusPending}
}

func TestListServesFromCache(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{
		Items: []model.Task{serverTask(1, "one")}, Total: 1, Page: 1, Size: 20, Pages: 1,
	}}
	f := newFixture(t, repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := f.uc.List(ctx, task.ListInput{})
		if err != nil {
			t.Fatalf("List %d: %v", i, err)
		}
		if len(out.Tasks) != 1 || out.Stale {
			t.Fatalf("List %d = %+v", i, out)
		}
	}
	if repo.listCalls != 1 {
		t.Fatalf("repo.List called %d times, want 1", repo.listCalls)
	}
}

func TestListServesStalePageWhenRefetchFails(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{
		Items: []model.Task{serverTask(1, "one")}, Total: 1, Page: 1, Size: 20, Pages: 1,
	}}
	f := newFixture(t, repo)
	ctx := context.Background()

	if _, err := f.uc.List(ctx, task.ListInput{}); err != nil {
		t.Fatalf("seed List: %v", err)
	}

	f.cache.InvalidateKind(cache.KindTaskList)
	repo.mu.Lock()
	repo.listErr = &todoapi.APIError{Status: http.StatusInternalServerError, Code: "internal", Message: "boom"}
	repo.mu.Unlock()

	out, err := f.uc.List(ctx, task.ListInput{})
	if err != nil {
		t.Fatalf("List after backend failure: %v", err)
	}
	if !out.Stale || len(out.Tasks) != 1 {
		t.Fatalf("expected stale cached page, got %+v", out)
	}
}

func TestCreateOnlineConfirmsAndCachesServerCopy(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{Page: 1, Size: 20}}
	var gotKey string
	repo.createFn = func(req todoapi.CreateTaskRequest, key string) (model.Task, error) {
		gotKey = key
		return serverTask(42, req.Title), nil
	}
	f := newFixture(t, repo)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, task.CreateInput{Title: "  write report  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 42 || created.Title != "write report" {
		t.Fatalf("created = %+v", created)
	}
	if gotKey == "" {
		t.Fatal("expected an idempotency key on create")
	}

	out, err := f.uc.Detail(ctx, 42)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if out.Task.ID != 42 {
		t.Fatalf("detail = %+v", out)
	}
}

func TestCreateOnlineFailureRollsBack(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{
		Items: []model.Task{serverTask(1, "existing")}, Total: 1, Page: 1, Size: 20, Pages: 1,
	}}
	repo.createFn = func(req todoapi.CreateTaskRequest, key string) (model.Task, error) {
		return model.Task{}, &todoapi.APIError{Status: http.StatusUnprocessableEntity, Code: "validation_error", Message: "bad"}
	}
	f := newFixture(t, repo)
	ctx := context.Background()

	if _, err := f.uc.List(ctx, task.ListInput{}); err != nil {
		t.Fatalf("seed List: %v", err)
	}

	if _, err := f.uc.Create(ctx, task.CreateInput{Title: "doomed"}); !errors.Is(err, task.ErrInvalidInput) {
		t.Fatalf("Create err = %v, want ErrInvalidInput", err)
	}

	// The optimistic insertion must be gone.
	out, err := f.uc.List(ctx, task.ListInput{})
	if err != nil {
		t.Fatalf("List after rollback: %v", err)
	}
	if len(out.Tasks) != 1 || out.Tasks[0].Title != "existing" || out.Total != 1 {
		t.Fatalf("rollback left the list dirty: %+v", out)
	}
	if repo.listCalls != 1 {
		t.Fatalf("failed create must not invalidate lists; repo.List called %d times", repo.listCalls)
	}
}

func TestCreateRetriesTransientFailures(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{Page: 1, Size: 20}}
	var keys []string
	attempts := 0
	repo.createFn = func(req todoapi.CreateTaskRequest, key string) (model.Task, error) {
		keys = append(keys, key)
		attempts++
		if attempts < 3 {
			return model.Task{}, &todoapi.APIError{Status: http.StatusServiceUnavailable, Code: "unavailable", Message: "down"}
		}
		return serverTask(7, req.Title), nil
	}
	f := newFixture(t, repo)

	created, err := f.uc.Create(context.Background(), task.CreateInput{Title: "persist"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 7 || attempts != 3 {
		t.Fatalf("created %+v after %d attempts", created, attempts)
	}
	for _, k := range keys {
		if k != keys[0] {
			t.Fatalf("retries used different idempotency keys: %v", keys)
		}
	}
}

func TestCreateOfflineQueuesWithPlaceholderID(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{Page: 1, Size: 20}}
	f := newFixture(t, repo)
	f.monitor.SetOnline(false)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, task.CreateInput{Title: "offline task", Priority: model.PriorityHigh})
	if err != nil {
		t.Fatalf("Create offline: %v", err)
	}
	if created.ID >= 0 {
		t.Fatalf("offline create ID = %d, want a negative placeholder", created.ID)
	}
	if created.Status != model.StatusPending {
		t.Fatalf("offline create status = %s", created.Status)
	}

	ops := f.queue.Ops()
	if len(ops) != 1 || ops[0].Kind != offline.OpCreateTask || ops[0].TaskID != created.ID {
		t.Fatalf("queued ops = %+v", ops)
	}

	// The placeholder is readable locally.
	out, err := f.uc.Detail(ctx, created.ID)
	if err != nil {
		t.Fatalf("Detail of placeholder: %v", err)
	}
	if out.Task.Title != "offline task" {
		t.Fatalf("placeholder detail = %+v", out.Task)
	}
}

func TestCreateOfflineRejectedWhenQueueFull(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{Page: 1, Size: 20}}
	l := log.NewNop()
	f := newFixture(t, repo)
	f.queue = offline.NewQueue(l, offline.QueueConfig{MaxOps: 1})
	f.uc = usecase.New(l, repo, f.cache, f.queue, f.monitor, offline.NewTempIDs(0))
	f.monitor.SetOnline(false)
	ctx := context.Background()

	if _, err := f.uc.Create(ctx, task.CreateInput{Title: "first"}); err != nil {
		t.Fatalf("first offline Create: %v", err)
	}
	if _, err := f.uc.Create(ctx, task.CreateInput{Title: "second"}); !errors.Is(err, task.ErrQueueFull) {
		t.Fatalf("second offline Create err = %v, want ErrQueueFull", err)
	}
}

func TestToggleCompleteFlipsBothWaysOffline(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{Page: 1, Size: 20}}
	f := newFixture(t, repo)
	ctx := context.Background()

	done := serverTask(5, "done task")
	done.Status = model.StatusCompleted
	f.cache.Put(task.DetailCacheKey(5), done)
	f.monitor.SetOnline(false)

	toggled, err := f.uc.ToggleComplete(ctx, 5)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if toggled.Status != model.StatusPending {
		t.Fatalf("COMPLETED should flip to PENDING, got %s", toggled.Status)
	}

	toggled, err = f.uc.ToggleComplete(ctx, 5)
	if err != nil {
		t.Fatalf("second ToggleComplete: %v", err)
	}
	if toggled.Status != model.StatusCompleted {
		t.Fatalf("PENDING should flip to COMPLETED, got %s", toggled.Status)
	}
	if f.queue.Len() != 2 {
		t.Fatalf("queue depth %d, want 2 queued toggles", f.queue.Len())
	}
}

func TestUpdateOnlineFailureRestoresDetail(t *testing.T) {
	repo := &mockRepo{
		listPage: todoapi.TaskPage{Page: 1, Size: 20},
		detail:   map[int]model.Task{3: serverTask(3, "original")},
	}
	repo.updateFn = func(id int, req todoapi.UpdateTaskRequest, key string) (model.Task, error) {
		return model.Task{}, &todoapi.APIError{Status: http.StatusInternalServerError, Code: "internal", Message: "boom"}
	}
	f := newFixture(t, repo)
	ctx := context.Background()

	if _, err := f.uc.Detail(ctx, 3); err != nil {
		t.Fatalf("seed Detail: %v", err)
	}

	title := "renamed"
	if _, err := f.uc.Update(ctx, task.UpdateInput{ID: 3, Title: &title}); err == nil {
		t.Fatal("expected Update to fail")
	}

	out, err := f.uc.Detail(ctx, 3)
	if err != nil {
		t.Fatalf("Detail after rollback: %v", err)
	}
	if out.Task.Title != "original" {
		t.Fatalf("rollback left detail as %q", out.Task.Title)
	}
}

func TestDeletePlaceholderCancelsQueuedOps(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{Page: 1, Size: 20}}
	f := newFixture(t, repo)
	f.monitor.SetOnline(false)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, task.CreateInput{Title: "never synced"})
	if err != nil {
		t.Fatalf("Create offline: %v", err)
	}
	if err := f.uc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete placeholder: %v", err)
	}
	if f.queue.Len() != 0 {
		t.Fatalf("queue depth %d, want 0; create+delete must cancel out", f.queue.Len())
	}
	if _, err := f.uc.Detail(ctx, created.ID); !errors.Is(err, task.ErrTaskNotFound) {
		t.Fatalf("Detail err = %v, want ErrTaskNotFound", err)
	}
}

func TestDetailMapsNotFound(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{Page: 1, Size: 20}}
	f := newFixture(t, repo)

	if _, err := f.uc.Detail(context.Background(), 999); !errors.Is(err, task.ErrTaskNotFound) {
		t.Fatalf("Detail err = %v, want ErrTaskNotFound", err)
	}
}

func TestCreateConfirmFailureWrapsMutationFault(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{Page: 1, Size: 20}}
	repo.createFn = func(req todoapi.CreateTaskRequest, key string) (model.Task, error) {
		return model.Task{}, &todoapi.APIError{Status: http.StatusBadGateway, Code: "bad_gateway", Message: "upstream down"}
	}
	f := newFixture(t, repo)

	_, err := f.uc.Create(context.Background(), task.CreateInput{Title: "doomed"})
	if !errors.Is(err, task.ErrMutationFault) {
		t.Fatalf("Create err = %v, want ErrMutationFault", err)
	}
	var apiErr *todoapi.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
		t.Fatalf("underlying transport error lost: %v", err)
	}
}

func TestImproveRefreshesDetailCache(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{Page: 1, Size: 20}}
	desc := "Draft the quarterly report covering revenue, churn and hiring."
	rewritten := serverTask(9, "report")
	rewritten.Description = &desc
	repo.improveFn = func(id int) (todoapi.ImproveTaskResult, error) {
		return todoapi.ImproveTaskResult{
			Task:                rewritten,
			OriginalDescription: "report",
			ImprovedDescription: desc,
		}, nil
	}
	f := newFixture(t, repo)
	ctx := context.Background()

	out, err := f.uc.Improve(ctx, 9)
	if err != nil {
		t.Fatalf("Improve: %v", err)
	}
	if out.ImprovedDescription != desc || out.OriginalDescription != "report" {
		t.Fatalf("Improve = %+v", out)
	}

	// The rewritten copy must be readable without another backend round trip;
	// mockRepo.Detail knows nothing about task 9.
	detail, err := f.uc.Detail(ctx, 9)
	if err != nil {
		t.Fatalf("Detail after improve: %v", err)
	}
	if detail.Task.Description == nil || *detail.Task.Description != desc {
		t.Fatalf("detail after improve = %+v", detail.Task)
	}
}

func TestImproveNeedsBackendAndRealID(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{Page: 1, Size: 20}}
	f := newFixture(t, repo)
	ctx := context.Background()

	// Placeholder tasks do not exist server-side yet.
	if _, err := f.uc.Improve(ctx, -1); !errors.Is(err, task.ErrTaskNotFound) {
		t.Fatalf("Improve placeholder err = %v, want ErrTaskNotFound", err)
	}

	f.monitor.SetOnline(false)
	if _, err := f.uc.Improve(ctx, 9); !errors.Is(err, task.ErrAIUnavailable) {
		t.Fatalf("Improve offline err = %v, want ErrAIUnavailable", err)
	}

	f.monitor.SetOnline(true)
	repo.improveFn = func(id int) (todoapi.ImproveTaskResult, error) {
		return todoapi.ImproveTaskResult{}, &todoapi.APIError{Status: http.StatusServiceUnavailable, Code: "unavailable", Message: "ollama down"}
	}
	if _, err := f.uc.Improve(ctx, 9); !errors.Is(err, task.ErrAIUnavailable) {
		t.Fatalf("Improve with AI down err = %v, want ErrAIUnavailable", err)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	repo := &mockRepo{listPage: todoapi.TaskPage{Page: 1, Size: 20}}
	f := newFixture(t, repo)
	ctx := context.Background()

	if _, err := f.uc.Create(ctx, task.CreateInput{Title: "   "}); !errors.Is(err, task.ErrInvalidInput) {
		t.Fatalf("blank title err = %v, want ErrInvalidInput", err)
	}
	if _, err := f.uc.Create(ctx, task.CreateInput{Title: "x", Priority: "SOMEDAY"}); !errors.Is(err, task.ErrInvalidInput) {
		t.Fatalf("bad priority err = %v, want ErrInvalidInput", err)
	}
}
