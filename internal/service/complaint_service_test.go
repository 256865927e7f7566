package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-complaints-api/internal/dto"
	"github.com/noah-isme/campus-complaints-api/internal/models"
	appErrors "github.com/noah-isme/campus-complaints-api/pkg/errors"
)

func seedStudent(store *memStore, reg string) models.User {
	hash := "hash"
	return *store.putUser(models.User{
		ID:                 uuid.NewString(),
		RegistrationNumber: reg,
		FullName:           "Student " + reg,
		Email:              reg + "@student.edu",
		PasswordHash:       &hash,
		Role:               models.RoleStudent,
		IsVerified:         true,
		CreatedAt:          time.Now(),
	})
}

func seedAdmin(store *memStore, reg string, category models.Category) models.SchoolAdminActor {
	hash := "hash"
	cat := category
	u := store.putUser(models.User{
		ID:                 uuid.NewString(),
		RegistrationNumber: reg,
		FullName:           reg,
		Email:              reg + "@admin.edu",
		PasswordHash:       &hash,
		Role:               models.RoleSchoolAdmin,
		Category:           &cat,
		IsVerified:         true,
	})
	return models.SchoolAdminActor{ID: u.ID, Category: category}
}

func seedCentral(store *memStore) models.CentralAdminActor {
	hash := "hash"
	u := store.putUser(models.User{
		ID:                 uuid.NewString(),
		RegistrationNumber: "CENTRAL_ADMIN",
		FullName:           "Central Admin",
		Email:              "central@admin.edu",
		PasswordHash:       &hash,
		Role:               models.RoleCentralAdmin,
		IsVerified:         true,
	})
	return models.CentralAdminActor{ID: u.ID}
}

func newComplaintFixture() (*ComplaintService, *memStore) {
	store := newMemStore()
	svc := NewComplaintService(store.Complaints(), NewFlagPolicy(3), nil, nil, nil)
	return svc, store
}

func file(t *testing.T, svc *ComplaintService, student models.User, category models.Category, anonymous bool) *models.Complaint {
	t.Helper()
	c, err := svc.Create(context.Background(), models.StudentActor{ID: student.ID}, dto.CreateComplaintRequest{
		Title:       "Complaint about " + string(category),
		Description: "details",
		Category:    category,
		IsAnonymous: anonymous,
	})
	require.NoError(t, err)
	return c
}

func TestCreateComplaint(t *testing.T) {
	svc, store := newComplaintFixture()
	student := seedStudent(store, "STU1001")

	c := file(t, svc, student, models.CategoryHostel, true)
	assert.Equal(t, models.ComplaintPending, c.Status)
	assert.Equal(t, student.ID, c.StudentID)
	assert.True(t, c.IsAnonymous)
	assert.Nil(t, c.ResolvedBy)
}

func TestCreateComplaintValidation(t *testing.T) {
	svc, store := newComplaintFixture()
	student := models.StudentActor{ID: seedStudent(store, "STU1001").ID}
	ctx := context.Background()

	_, err := svc.Create(ctx, student, dto.CreateComplaintRequest{Title: "  ", Description: "d", Category: models.CategoryGeneral})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, student, dto.CreateComplaintRequest{Title: "t", Description: "d", Category: "library"})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, models.CentralAdminActor{ID: "c"}, dto.CreateComplaintRequest{Title: "t", Description: "d", Category: models.CategoryGeneral})
	assertCode(t, err, appErrors.ErrForbidden)
}

func TestListOwnShowsOwnerEverything(t *testing.T) {
	svc, store := newComplaintFixture()
	alice := seedStudent(store, "STU1001")
	bob := seedStudent(store, "STU1002")
	file(t, svc, alice, models.CategoryHostel, true)
	file(t, svc, bob, models.CategoryHostel, false)

	own, err := svc.ListOwn(context.Background(), models.StudentActor{ID: alice.ID})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, alice.ID, own[0].StudentID)
	assert.True(t, own[0].IsAnonymous)

	none, err := svc.ListOwn(context.Background(), models.StudentActor{ID: uuid.NewString()})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListByCategoryScopesAndRedacts(t *testing.T) {
	svc, store := newComplaintFixture()
	student := seedStudent(store, "STU1001")
	file(t, svc, student, models.CategoryHostel, true)
	file(t, svc, student, models.CategoryHostel, false)
	file(t, svc, student, models.CategoryAcademics, false)
	hostel := seedAdmin(store, "ADMIN_HOSTEL", models.CategoryHostel)

	views, err := svc.ListByCategory(context.Background(), hostel)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, models.CategoryHostel, v.Category)
		if v.IsAnonymous {
			assert.Nil(t, v.Submitter)
		} else {
			require.NotNil(t, v.Submitter)
			assert.Equal(t, "STU1001", v.Submitter.RegistrationNumber)
		}
	}

	_, err = svc.ListByCategory(context.Background(), models.CentralAdminActor{ID: "c"})
	assertCode(t, err, appErrors.ErrForbidden)
}

func TestListAllRedactsForCentralAdmin(t *testing.T) {
	svc, store := newComplaintFixture()
	student := seedStudent(store, "STU1001")
	file(t, svc, student, models.CategoryGeneral, true)
	file(t, svc, student, models.CategoryAcademics, true)

	views, err := svc.ListAll(context.Background(), seedCentral(store))
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Nil(t, v.Submitter)
	}

	_, err = svc.ListAll(context.Background(), models.SchoolAdminActor{ID: "a", Category: models.CategoryGeneral})
	assertCode(t, err, appErrors.ErrForbidden)
}

func TestResolve(t *testing.T) {
	svc, store := newComplaintFixture()
	student := seedStudent(store, "STU1001")
	c := file(t, svc, student, models.CategoryAcademics, false)
	admin := seedAdmin(store, "ADMIN_ACADEMICS", models.CategoryAcademics)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, admin, c.ID, dto.ResolveComplaintRequest{ResolutionNote: " "})
	assertCode(t, err, appErrors.ErrValidation)

	view, err := svc.Resolve(ctx, admin, c.ID, dto.ResolveComplaintRequest{ResolutionNote: "fixed the projector"})
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintResolved, view.Status)
	require.NotNil(t, view.ResolvedBy)
	assert.Equal(t, admin.ID, *view.ResolvedBy)
	assert.NotNil(t, view.ResolvedAt)
	assert.Equal(t, "fixed the projector", *view.ResolutionNote)

	_, err = svc.Resolve(ctx, admin, c.ID, dto.ResolveComplaintRequest{ResolutionNote: "again"})
	assertCode(t, err, appErrors.ErrAlreadyResolved)
	_, err = svc.MarkFalse(ctx, admin, c.ID, dto.MarkFalseRequest{Reason: "late"})
	assertCode(t, err, appErrors.ErrAlreadyResolved)

	assert.Zero(t, store.user(student.ID).FlagCount)
}

func TestResolveCrossCategoryForbidden(t *testing.T) {
	svc, store := newComplaintFixture()
	student := seedStudent(store, "STU1001")
	c := file(t, svc, student, models.CategoryHostel, false)
	academics := seedAdmin(store, "ADMIN_ACADEMICS", models.CategoryAcademics)

	_, err := svc.Resolve(context.Background(), academics, c.ID, dto.ResolveComplaintRequest{ResolutionNote: "not mine"})
	assertCode(t, err, appErrors.ErrForbidden)

	stored, err := store.Complaints().FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintPending, stored.Status)
	assert.Nil(t, stored.ResolvedBy)
}

func TestCloseUnknownComplaint(t *testing.T) {
	svc, store := newComplaintFixture()
	admin := seedAdmin(store, "ADMIN_GENERAL", models.CategoryGeneral)

	_, err := svc.Resolve(context.Background(), admin, uuid.NewString(), dto.ResolveComplaintRequest{ResolutionNote: "n"})
	assertCode(t, err, appErrors.ErrNotFound)

	_, err = svc.MarkFalse(context.Background(), admin, "not-a-uuid", dto.MarkFalseRequest{Reason: "n"})
	assertCode(t, err, appErrors.ErrNotFound)
}

func TestCloseRequiresSchoolAdmin(t *testing.T) {
	svc, store := newComplaintFixture()
	student := seedStudent(store, "STU1001")
	c := file(t, svc, student, models.CategoryGeneral, false)

	_, err := svc.Resolve(context.Background(), seedCentral(store), c.ID, dto.ResolveComplaintRequest{ResolutionNote: "n"})
	assertCode(t, err, appErrors.ErrForbidden)
}

func TestMarkFalseFlagsSubmitter(t *testing.T) {
	svc, store := newComplaintFixture()
	student := seedStudent(store, "STU1001")
	c := file(t, svc, student, models.CategoryGeneral, true)
	admin := seedAdmin(store, "ADMIN_GENERAL", models.CategoryGeneral)

	view, err := svc.MarkFalse(context.Background(), admin, c.ID, dto.MarkFalseRequest{Reason: "fabricated"})
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintFalse, view.Status)
	assert.Nil(t, view.Submitter)

	after := store.user(student.ID)
	assert.Equal(t, 1, after.FlagCount)
	assert.False(t, after.IsSuspended)
}
