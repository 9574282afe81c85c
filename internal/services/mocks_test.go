package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/backend/internal/ledger"
	"github.com/taskmarket/backend/internal/models"
	"github.com/taskmarket/backend/internal/notify"
)

// ---------------------------------------------------------------------------
// In-memory mocks for the store interfaces. These let us test the real
// service logic without a database.
// ---------------------------------------------------------------------------

// --- noopTx satisfies pgx.Tx for test use; only Commit/Rollback are called. ---

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

// --- TxBeginner mock ---

type mockPool struct{}

func (mockPool) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// --- UserStore mock ---

type mockUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMockUsers(us ...*models.User) *mockUsers {
	m := &mockUsers{users: make(map[uuid.UUID]*models.User)}
	for _, u := range us {
		cp := *u
		m.users[u.ID] = &cp
	}
	return m
}

func (m *mockUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	cp := *u
	return &cp, nil
}

func (m *mockUsers) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.User, error) {
	return m.GetByID(ctx, id)
}

func (m *mockUsers) UpdateRole(_ context.Context, id uuid.UUID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	u.Role = role
	return nil
}

func (m *mockUsers) List(_ context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

// --- TaskStore mock ---

type mockTasks struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func newMockTasks(ts ...*models.Task) *mockTasks {
	m := &mockTasks{tasks: make(map[uuid.UUID]*models.Task)}
	for _, t := range ts {
		cp := *t
		m.tasks[t.ID] = &cp
	}
	return m
}

func (m *mockTasks) Create(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *mockTasks) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s not found", id)
	}
	cp := *t
	return &cp, nil
}

func (m *mockTasks) TransitionStatus(_ context.Context, _ pgx.Tx, id uuid.UUID, from, to models.TaskStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (m *mockTasks) TransitionStatusWithSpecialist(_ context.Context, _ pgx.Tx, id uuid.UUID, from, to models.TaskStatus, specialistID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	t.SpecialistID = &specialistID
	return true, nil
}

func (m *mockTasks) SetAcceptedTerms(_ context.Context, _ pgx.Tx, id uuid.UUID, ev *models.Evaluation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Status != models.TaskStatusEvaluated || t.TotalCost != nil {
		return false, nil
	}
	hours, rate, cost := ev.EstimatedHours, ev.HourlyRate, ev.TotalCost
	t.EstimatedHours = &hours
	t.HourlyRate = &rate
	t.TotalCost = &cost
	sid := ev.SpecialistID
	t.SpecialistID = &sid
	return true, nil
}

func (m *mockTasks) SetSpecialist(_ context.Context, _ pgx.Tx, id, specialistID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	t.SpecialistID = &specialistID
	return nil
}

func (m *mockTasks) ListByClientID(_ context.Context, clientID uuid.UUID) ([]*models.Task, error) {
	return m.filter(func(t *models.Task) bool { return t.ClientID == clientID }), nil
}

func (m *mockTasks) ListBySpecialistID(_ context.Context, specialistID uuid.UUID) ([]*models.Task, error) {
	return m.filter(func(t *models.Task) bool {
		return t.SpecialistID != nil && *t.SpecialistID == specialistID
	}), nil
}

func (m *mockTasks) ListPending(_ context.Context) ([]*models.Task, error) {
	return m.filter(func(t *models.Task) bool {
		switch t.Status {
		case models.TaskStatusCreated, models.TaskStatusEvaluating:
			return true
		case models.TaskStatusEvaluated:
			return t.TotalCost == nil
		}
		return false
	}), nil
}

func (m *mockTasks) filter(keep func(*models.Task) bool) []*models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Task
	for _, t := range m.tasks {
		if keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

// --- EvaluationStore mock ---

type mockEvals struct {
	mu    sync.Mutex
	evals map[uuid.UUID]*models.Evaluation
}

func newMockEvals(evs ...*models.Evaluation) *mockEvals {
	m := &mockEvals{evals: make(map[uuid.UUID]*models.Evaluation)}
	for _, e := range evs {
		cp := *e
		m.evals[e.ID] = &cp
	}
	return m
}

func (m *mockEvals) CreateTx(_ context.Context, _ pgx.Tx, e *models.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.evals[e.ID] = &cp
	return nil
}

func (m *mockEvals) GetByID(_ context.Context, id uuid.UUID) (*models.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.evals[id]
	if !ok {
		return nil, fmt.Errorf("evaluation %s not found", id)
	}
	cp := *e
	return &cp, nil
}

func (m *mockEvals) MarkAccepted(_ context.Context, _ pgx.Tx, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.evals[id]
	if !ok || e.Status != models.EvaluationPending {
		return false, nil
	}
	e.Status = models.EvaluationAccepted
	return true, nil
}

func (m *mockEvals) RejectSiblings(_ context.Context, _ pgx.Tx, taskID, acceptedID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.evals {
		if e.TaskID == taskID && e.ID != acceptedID && e.Status == models.EvaluationPending {
			e.Status = models.EvaluationRejected
		}
	}
	return nil
}

func (m *mockEvals) ListByTaskID(_ context.Context, taskID uuid.UUID) ([]*models.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Evaluation
	for _, e := range m.evals {
		if e.TaskID == taskID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- PaymentStore mock ---

type mockPayments struct {
	mu       sync.Mutex
	payments []*models.Payment
}

func (m *mockPayments) CreateTx(_ context.Context, _ pgx.Tx, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments = append(m.payments, &cp)
	return nil
}

func (m *mockPayments) GetCompletedByTaskID(_ context.Context, taskID uuid.UUID) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.TaskID == taskID && p.Status == models.PaymentCompleted {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// --- AdjustmentStore / AssignmentStore mocks ---

type mockAdjustments struct {
	mu      sync.Mutex
	entries []*models.BalanceAdjustment
}

func (m *mockAdjustments) CreateTx(_ context.Context, _ pgx.Tx, a *models.BalanceAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockAdjustments) ListByUserID(_ context.Context, userID uuid.UUID) ([]*models.BalanceAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.BalanceAdjustment
	for _, a := range m.entries {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockAssignments struct {
	mu      sync.Mutex
	entries []*models.TaskAssignment
}

func (m *mockAssignments) CreateTx(_ context.Context, _ pgx.Tx, a *models.TaskAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockAssignments) MarkReassigned(_ context.Context, _ pgx.Tx, taskID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.entries {
		if a.TaskID == taskID && a.Status == models.AssignmentActive {
			a.Status = models.AssignmentReassigned
		}
	}
	return nil
}

func (m *mockAssignments) ListByTaskID(_ context.Context, taskID uuid.UUID) ([]*models.TaskAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TaskAssignment
	for _, a := range m.entries {
		if a.TaskID == taskID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- SettingStore mock ---

type mockSettings struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *mockSettings) Get(_ context.Context, key, fallback string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values != nil {
		if v, ok := m.values[key]; ok {
			return v, nil
		}
	}
	return fallback, nil
}

func (m *mockSettings) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

// --- Ledger mock: balances live on the mockUsers so admin adjustments and
// payments observe the same numbers the services read. ---

type fakeLedger struct {
	mu      sync.Mutex
	users   *mockUsers
	entries []*models.Transaction
}

func newFakeLedger(users *mockUsers) *fakeLedger {
	return &fakeLedger{users: users}
}

func (l *fakeLedger) Debit(_ context.Context, _ pgx.Tx, userID uuid.UUID, amount decimal.Decimal, e ledger.Entry) (decimal.Decimal, *models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users.mu.Lock()
	defer l.users.mu.Unlock()
	u, ok := l.users.users[userID]
	if !ok {
		return decimal.Zero, nil, fmt.Errorf("user %s not found", userID)
	}
	if u.Balance.LessThan(amount) {
		return decimal.Zero, nil, ledger.ErrInsufficientBalance
	}
	u.Balance = u.Balance.Sub(amount)
	txn := l.record(userID, amount, e)
	return u.Balance, txn, nil
}

func (l *fakeLedger) Credit(_ context.Context, _ pgx.Tx, userID uuid.UUID, amount decimal.Decimal, e ledger.Entry) (decimal.Decimal, *models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users.mu.Lock()
	defer l.users.mu.Unlock()
	u, ok := l.users.users[userID]
	if !ok {
		return decimal.Zero, nil, fmt.Errorf("user %s not found", userID)
	}
	u.Balance = u.Balance.Add(amount)
	txn := l.record(userID, amount, e)
	return u.Balance, txn, nil
}

func (l *fakeLedger) record(userID uuid.UUID, amount decimal.Decimal, e ledger.Entry) *models.Transaction {
	txn := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		TaskID:      e.TaskID,
		Type:        e.Type,
		Amount:      amount,
		Description: e.Description,
	}
	l.entries = append(l.entries, txn)
	return txn
}

func (l *fakeLedger) byType(entryType string) []*models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.Transaction
	for _, t := range l.entries {
		if t.Type == entryType {
			out = append(out, t)
		}
	}
	return out
}

// --- Notify recorder ---

type notifyRecorder struct {
	mu   sync.Mutex
	sent []notify.DeliverArgs
}

func (r *notifyRecorder) fn() Notify {
	return func(_ context.Context, _ pgx.Tx, args notify.DeliverArgs) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.sent = append(r.sent, args)
		return nil
	}
}

func (r *notifyRecorder) byKind(kind string) []notify.DeliverArgs {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.DeliverArgs
	for _, a := range r.sent {
		if a.Event == kind {
			out = append(out, a)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func user(role, balance string) *models.User {
	return &models.User{ID: uuid.New(), Role: role, Balance: dec(balance)}
}

func openTask(clientID uuid.UUID) *models.Task {
	return &models.Task{
		ID:       uuid.New(),
		ClientID: clientID,
		Title:    "landing page",
		Status:   models.TaskStatusCreated,
	}
}

func evaluatedTask(clientID, specialistID uuid.UUID, cost string) *models.Task {
	c := dec(cost)
	return &models.Task{
		ID:           uuid.New(),
		ClientID:     clientID,
		SpecialistID: &specialistID,
		Title:        "landing page",
		Status:       models.TaskStatusEvaluated,
		TotalCost:    &c,
	}
}

func pendingEvaluation(taskID, specialistID uuid.UUID, cost string) *models.Evaluation {
	return &models.Evaluation{
		ID:             uuid.New(),
		TaskID:         taskID,
		SpecialistID:   specialistID,
		EstimatedHours: dec("10"),
		HourlyRate:     dec("10"),
		TotalCost:      dec(cost),
		Status:         models.EvaluationPending,
	}
}
