package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/dto"
	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type mockSelectionStore struct {
	pending   map[string]dto.PendingSelection
	expired   []dto.ExpiredSelection
	setOK     bool
	setErr    error
	setCalled bool
	cleared   []string
	clearErr  error
	dropErr   error
	dropped   []dto.ExpiredSelection
}

func (m *mockSelectionStore) SetPending(ctx context.Context, studentID string, pending dto.PendingSelection) (bool, error) {
	m.setCalled = true
	if m.setErr != nil {
		return false, m.setErr
	}
	if !m.setOK {
		return false, nil
	}
	if m.pending == nil {
		m.pending = make(map[string]dto.PendingSelection)
	}
	m.pending[studentID] = pending
	return true, nil
}

func (m *mockSelectionStore) GetPending(ctx context.Context, studentID string) (*dto.PendingSelection, error) {
	if p, ok := m.pending[studentID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *mockSelectionStore) ClearPending(ctx context.Context, studentID, schoolID string) (bool, error) {
	if m.clearErr != nil {
		return false, m.clearErr
	}
	m.cleared = append(m.cleared, studentID)
	delete(m.pending, studentID)
	return true, nil
}

func (m *mockSelectionStore) ExpiredPending(ctx context.Context, now time.Time) ([]dto.ExpiredSelection, error) {
	return m.expired, nil
}

func (m *mockSelectionStore) DropExpired(ctx context.Context, entry dto.ExpiredSelection) (bool, error) {
	if m.dropErr != nil {
		return false, m.dropErr
	}
	for i, e := range m.expired {
		if e == entry {
			m.expired = append(m.expired[:i], m.expired[i+1:]...)
			m.dropped = append(m.dropped, entry)
			return true, nil
		}
	}
	return false, nil
}

// expirePending simulates the Redis key lapsing: the pending entry vanishes
// from reads but its index entry stays behind for the sweep.
func (m *mockSelectionStore) expirePending(studentID string) {
	if p, ok := m.pending[studentID]; ok {
		m.expired = append(m.expired, dto.ExpiredSelection{StudentID: studentID, SchoolID: p.SchoolID})
		delete(m.pending, studentID)
	}
}

type mockSlotReserver struct {
	schools    map[string]*models.SchoolDetail
	reserveOK  bool
	reserveErr error
	reserved   []string
	released   []string
}

func (m *mockSlotReserver) FindDetailByID(ctx context.Context, id string) (*models.SchoolDetail, error) {
	if s, ok := m.schools[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSlotReserver) TryReserveSlot(ctx context.Context, schoolID string) (bool, error) {
	if m.reserveErr != nil {
		return false, m.reserveErr
	}
	if m.reserveOK {
		m.reserved = append(m.reserved, schoolID)
	}
	return m.reserveOK, nil
}

func (m *mockSlotReserver) ReleaseSlot(ctx context.Context, schoolID string) error {
	m.released = append(m.released, schoolID)
	return nil
}

type mockSelectionStudents struct {
	students  map[string]*models.StudentTeacher
	confirmed map[string]string
}

func (m *mockSelectionStudents) FindByID(ctx context.Context, id string) (*models.StudentTeacher, error) {
	if s, ok := m.students[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSelectionStudents) SetSelectedSchool(ctx context.Context, id, schoolID string) error {
	if m.confirmed == nil {
		m.confirmed = make(map[string]string)
	}
	m.confirmed[id] = schoolID
	if s, ok := m.students[id]; ok {
		s.SelectedSchoolID = &schoolID
	}
	return nil
}

type mockGate struct {
	pinned bool
	full   bool
	err    error
}

func (m *mockGate) IsSchoolSelectable(ctx context.Context, year *models.AcademicYear, schoolID string) (bool, bool, error) {
	return m.pinned, m.full, m.err
}

func selectionFixture(gate *mockGate, reserver *mockSlotReserver, store *mockSelectionStore) (*SelectionService, *mockSelectionStudents) {
	students := &mockSelectionStudents{students: map[string]*models.StudentTeacher{
		"student-1": {ID: "student-1", FullName: "Amani"},
	}}
	svc := NewSelectionService(store, reserver, students, gate, nil, zap.NewNop())
	return svc, students
}

func TestSelectionServiceSelect(t *testing.T) {
	store := &mockSelectionStore{setOK: true}
	reserver := &mockSlotReserver{reserveOK: true}
	svc, _ := selectionFixture(&mockGate{}, reserver, store)

	pending, err := svc.Select(context.Background(), &models.AcademicYear{ID: "year-1"}, "student-1", "school-1")
	require.NoError(t, err)
	assert.Equal(t, "school-1", pending.SchoolID)
	assert.Contains(t, reserver.reserved, "school-1")
	assert.Empty(t, reserver.released)
}

func TestSelectionServiceSelectAlreadyConfirmed(t *testing.T) {
	store := &mockSelectionStore{setOK: true}
	reserver := &mockSlotReserver{reserveOK: true}
	svc, students := selectionFixture(&mockGate{}, reserver, store)
	schoolID := "school-9"
	students.students["student-1"].SelectedSchoolID = &schoolID

	_, err := svc.Select(context.Background(), nil, "student-1", "school-1")
	assert.Equal(t, appErrors.ErrAlreadySelected.Code, appErrors.FromError(err).Code)
	assert.Empty(t, reserver.reserved)
}

func TestSelectionServiceSelectAlreadyPending(t *testing.T) {
	store := &mockSelectionStore{setOK: true, pending: map[string]dto.PendingSelection{
		"student-1": {SchoolID: "school-2", SelectedAt: time.Now()},
	}}
	reserver := &mockSlotReserver{reserveOK: true}
	svc, _ := selectionFixture(&mockGate{}, reserver, store)

	_, err := svc.Select(context.Background(), nil, "student-1", "school-1")
	assert.Equal(t, appErrors.ErrAlreadySelected.Code, appErrors.FromError(err).Code)
	assert.Empty(t, reserver.reserved)
}

func TestSelectionServiceSelectPinnedSchool(t *testing.T) {
	reserver := &mockSlotReserver{reserveOK: true}
	svc, _ := selectionFixture(&mockGate{pinned: true, full: true}, reserver, &mockSelectionStore{setOK: true})

	_, err := svc.Select(context.Background(), nil, "student-1", "school-1")
	assert.Equal(t, appErrors.ErrSchoolUnavailable.Code, appErrors.FromError(err).Code)
	assert.Empty(t, reserver.reserved)
}

func TestSelectionServiceSelectFullSchool(t *testing.T) {
	reserver := &mockSlotReserver{reserveOK: true}
	svc, _ := selectionFixture(&mockGate{full: true}, reserver, &mockSelectionStore{setOK: true})

	_, err := svc.Select(context.Background(), nil, "student-1", "school-1")
	assert.Equal(t, appErrors.ErrSchoolFull.Code, appErrors.FromError(err).Code)
	assert.Empty(t, reserver.reserved)
}

func TestSelectionServiceSelectRaceLost(t *testing.T) {
	reserver := &mockSlotReserver{reserveOK: false}
	svc, _ := selectionFixture(&mockGate{}, reserver, &mockSelectionStore{setOK: true})

	_, err := svc.Select(context.Background(), nil, "student-1", "school-1")
	assert.Equal(t, appErrors.ErrCapacityRaceLost.Code, appErrors.FromError(err).Code)
	assert.Empty(t, reserver.released)
}

func TestSelectionServiceSelectReleasesSeatOnPendingWriteFailure(t *testing.T) {
	store := &mockSelectionStore{setErr: errors.New("redis down")}
	reserver := &mockSlotReserver{reserveOK: true}
	svc, _ := selectionFixture(&mockGate{}, reserver, store)

	_, err := svc.Select(context.Background(), nil, "student-1", "school-1")
	require.Error(t, err)
	assert.Equal(t, []string{"school-1"}, reserver.reserved)
	assert.Equal(t, []string{"school-1"}, reserver.released)
}

func TestSelectionServiceReleaseExpired(t *testing.T) {
	store := &mockSelectionStore{setOK: true}
	reserver := &mockSlotReserver{reserveOK: true}
	svc, _ := selectionFixture(&mockGate{}, reserver, store)

	_, err := svc.Select(context.Background(), nil, "student-1", "school-1")
	require.NoError(t, err)
	store.expirePending("student-1")

	released, err := svc.ReleaseExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, released)
	assert.Equal(t, []string{"school-1"}, reserver.released)
	assert.Empty(t, store.expired)
}

func TestSelectionServiceExpiredPendingDoesNotStrandSeat(t *testing.T) {
	store := &mockSelectionStore{setOK: true}
	reserver := &mockSlotReserver{reserveOK: true}
	svc, _ := selectionFixture(&mockGate{}, reserver, store)

	_, err := svc.Select(context.Background(), nil, "student-1", "school-1")
	require.NoError(t, err)
	store.expirePending("student-1")

	// The lapsed hold must not block a new selection, and its seat comes
	// back once the sweep runs.
	_, err = svc.Select(context.Background(), nil, "student-1", "school-2")
	require.NoError(t, err)
	_, err = svc.ReleaseExpired(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"school-1", "school-2"}, reserver.reserved)
	assert.Equal(t, []string{"school-1"}, reserver.released)
}

func TestSelectionServiceReleaseExpiredUnclaimedEntry(t *testing.T) {
	store := &mockSelectionStore{expired: nil}
	reserver := &mockSlotReserver{}
	svc, _ := selectionFixture(&mockGate{}, reserver, store)

	released, err := svc.ReleaseExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, released)
	assert.Empty(t, reserver.released)
}

func TestSelectionServiceCancel(t *testing.T) {
	store := &mockSelectionStore{pending: map[string]dto.PendingSelection{
		"student-1": {SchoolID: "school-1", SelectedAt: time.Now()},
	}}
	reserver := &mockSlotReserver{}
	svc, _ := selectionFixture(&mockGate{}, reserver, store)

	require.NoError(t, svc.Cancel(context.Background(), "student-1"))
	assert.Equal(t, []string{"school-1"}, reserver.released)
	assert.Contains(t, store.cleared, "student-1")
}

func TestSelectionServiceCancelNothingPending(t *testing.T) {
	reserver := &mockSlotReserver{}
	svc, _ := selectionFixture(&mockGate{}, reserver, &mockSelectionStore{})

	err := svc.Cancel(context.Background(), "student-1")
	assert.Equal(t, appErrors.ErrNoPendingSelection.Code, appErrors.FromError(err).Code)
	assert.Empty(t, reserver.released)
}

func TestSelectionServiceConfirm(t *testing.T) {
	store := &mockSelectionStore{pending: map[string]dto.PendingSelection{
		"student-1": {SchoolID: "school-1", SelectedAt: time.Now()},
	}}
	reserver := &mockSlotReserver{}
	svc, students := selectionFixture(&mockGate{}, reserver, store)

	student, err := svc.Confirm(context.Background(), "student-1")
	require.NoError(t, err)
	require.NotNil(t, student.SelectedSchoolID)
	assert.Equal(t, "school-1", *student.SelectedSchoolID)
	assert.Equal(t, "school-1", students.confirmed["student-1"])
	assert.Empty(t, reserver.released)
}

func TestSelectionServiceConfirmNothingPending(t *testing.T) {
	svc, _ := selectionFixture(&mockGate{}, &mockSlotReserver{}, &mockSelectionStore{})

	_, err := svc.Confirm(context.Background(), "student-1")
	assert.Equal(t, appErrors.ErrNoPendingSelection.Code, appErrors.FromError(err).Code)
}

func TestSelectionServiceCurrent(t *testing.T) {
	store := &mockSelectionStore{pending: map[string]dto.PendingSelection{
		"student-1": {SchoolID: "school-2", SelectedAt: time.Now()},
	}}
	reserver := &mockSlotReserver{schools: map[string]*models.SchoolDetail{
		"school-1": {School: models.School{ID: "school-1", Name: "Dodoma Secondary School", Capacity: 40, CurrentStudents: 12}, DistrictName: "Chamwino"},
	}}
	svc, students := selectionFixture(&mockGate{}, reserver, store)
	schoolID := "school-1"
	students.students["student-1"].SelectedSchoolID = &schoolID

	state, err := svc.Current(context.Background(), "student-1")
	require.NoError(t, err)
	require.NotNil(t, state.Pending)
	assert.Equal(t, "school-2", state.Pending.SchoolID)
	require.NotNil(t, state.ConfirmedSchool)
	assert.Equal(t, "Dodoma Secondary School", state.ConfirmedSchool.Name)
}
