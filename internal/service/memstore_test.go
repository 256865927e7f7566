package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
)

// memStore is a mutex-guarded stand-in for PostgreSQL honouring the same
// compare-and-set contracts as the SQL repositories.
type memStore struct {
	mu         sync.Mutex
	users      map[string]*models.User
	directory  map[string]models.DirectoryStudent
	complaints map[string]*models.Complaint
	audit      []models.AuditLog
	auditErr   error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]*models.User{},
		directory:  map[string]models.DirectoryStudent{},
		complaints: map[string]*models.Complaint{},
	}
}

func (m *memStore) addDirectory(reg, name, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.directory[reg] = models.DirectoryStudent{ID: reg, RegistrationNumber: reg, Name: name, Email: email}
}

func (m *memStore) putUser(u models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := u
	m.users[u.ID] = &copied
	return &copied
}

func (m *memStore) user(id string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

func (m *memStore) auditRows() []models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLog(nil), m.audit...)
}

func (m *memStore) Users() *fakeUsers           { return &fakeUsers{m} }
func (m *memStore) Directory() *fakeDirectory   { return &fakeDirectory{m} }
func (m *memStore) Complaints() *fakeComplaints { return &fakeComplaints{m} }
func (m *memStore) Audit() *fakeAudit           { return &fakeAudit{m} }

type fakeUsers struct{ *memStore }

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) FindByRegistrationNumber(ctx context.Context, reg string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.RegistrationNumber == reg {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.RegistrationNumber == user.RegistrationNumber || u.Email == user.Email {
			return repository.ErrDuplicateUser
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUsers) ConsumeOTP(ctx context.Context, id, code string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.IsVerified || u.OTPCode == nil || *u.OTPCode != code || u.OTPExpiresAt == nil || !u.OTPExpiresAt.After(now) {
		return false, nil
	}
	u.OTPCode, u.OTPExpiresAt = nil, nil
	return true, nil
}

func (f *fakeUsers) ReplaceOTP(ctx context.Context, id, code string, expiresAt, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.IsVerified {
		return false, nil
	}
	u.OTPCode, u.OTPExpiresAt = &code, &expiresAt
	return true, nil
}

func (f *fakeUsers) Activate(ctx context.Context, id, hash string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.IsVerified || u.OTPCode != nil {
		return false, nil
	}
	u.PasswordHash = &hash
	u.IsVerified = true
	return true, nil
}

func (f *fakeUsers) ListStudents(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		if u.Role == models.RoleStudent {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeUsers) AdjustFlags(ctx context.Context, id string, fn func(models.User) (models.FlagState, error)) (*models.FlagTransition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	next, err := fn(*u)
	if err != nil {
		return nil, err
	}
	before := u.FlagState()
	u.FlagCount, u.IsSuspended = next.FlagCount, next.IsSuspended
	return &models.FlagTransition{UserID: u.ID, RegistrationNumber: u.RegistrationNumber, Before: before, After: next}, nil
}

type fakeDirectory struct{ *memStore }

func (f *fakeDirectory) FindByRegistrationNumber(ctx context.Context, reg string) (*models.DirectoryStudent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.directory[reg]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

type fakeComplaints struct{ *memStore }

func (f *fakeComplaints) Create(ctx context.Context, c *models.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *c
	f.complaints[c.ID] = &copied
	return nil
}

func (f *fakeComplaints) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (f *fakeComplaints) ListByStudent(ctx context.Context, studentID string) ([]models.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Complaint
	for _, c := range f.complaints {
		if c.StudentID == studentID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeComplaints) records(keep func(*models.Complaint) bool) []models.ComplaintRecord {
	var out []models.ComplaintRecord
	for _, c := range f.complaints {
		if !keep(c) {
			continue
		}
		rec := models.ComplaintRecord{Complaint: *c}
		if u, ok := f.users[c.StudentID]; ok {
			rec.SubmitterRegistrationNumber = u.RegistrationNumber
			rec.SubmitterName = u.FullName
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeComplaints) ListByCategory(ctx context.Context, category models.Category) ([]models.ComplaintRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records(func(c *models.Complaint) bool { return c.Category == category }), nil
}

func (f *fakeComplaints) ListAll(ctx context.Context) ([]models.ComplaintRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records(func(*models.Complaint) bool { return true }), nil
}

func (f *fakeComplaints) Close(ctx context.Context, p models.CloseComplaintParams, penalty func(models.FlagState) models.FlagState) (*models.ComplaintRecord, *models.FlagTransition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[p.ComplaintID]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	if p.Category != "" && c.Category != p.Category {
		return nil, nil, repository.ErrCategoryMismatch
	}
	if c.Status.Terminal() {
		return nil, nil, repository.ErrComplaintClosed
	}
	adminID, note, at := p.AdminID, p.Note, p.ClosedAt
	c.Status, c.ResolvedBy, c.ResolutionNote, c.ResolvedAt = p.Status, &adminID, &note, &at

	var transition *models.FlagTransition
	submitter := f.users[c.StudentID]
	if penalty != nil && submitter != nil {
		before := submitter.FlagState()
		after := penalty(before)
		submitter.FlagCount, submitter.IsSuspended = after.FlagCount, after.IsSuspended
		transition = &models.FlagTransition{UserID: submitter.ID, RegistrationNumber: submitter.RegistrationNumber, Before: before, After: after}
	}
	rec := models.ComplaintRecord{Complaint: *c}
	if submitter != nil {
		rec.SubmitterRegistrationNumber = submitter.RegistrationNumber
		rec.SubmitterName = submitter.FullName
	}
	return &rec, transition, nil
}

type fakeAudit struct{ *memStore }

func (f *fakeAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.auditErr != nil {
		return f.auditErr
	}
	f.audit = append(f.audit, *log)
	return nil
}

func (f *fakeAudit) List(ctx context.Context) ([]models.AuditLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AuditLogEntry, 0, len(f.audit))
	for i := len(f.audit) - 1; i >= 0; i-- {
		row := f.audit[i]
		entry := models.AuditLogEntry{AuditLog: row}
		if admin, ok := f.users[row.AdminID]; ok {
			entry.AdminRegistrationNumber = admin.RegistrationNumber
			entry.AdminName = admin.FullName
		}
		if row.ComplaintID != nil {
			if c, ok := f.complaints[*row.ComplaintID]; ok {
				title := c.Title
				entry.ComplaintTitle = &title
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// fakeAttempts counts failures in memory.
type fakeAttempts struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeAttempts() *fakeAttempts { return &fakeAttempts{counts: map[string]int64{}} }

func (f *fakeAttempts) Count(ctx context.Context, reg string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[reg], nil
}

func (f *fakeAttempts) Increment(ctx context.Context, reg string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[reg]++
	return f.counts[reg], nil
}

func (f *fakeAttempts) Reset(ctx context.Context, reg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.counts, reg)
	return nil
}
