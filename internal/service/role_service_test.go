package service_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/service"
)

func newRoleFixture() (service.RoleService, *mockRoleRepo) {
	repo := newMockRoleRepo(
		&domain.Role{ID: 1, Title: "Admin", Permissions: []string{"tour_view", "tour_edit"}},
		&domain.Role{ID: 2, Title: "Support", Permissions: []string{"order_view"}},
	)
	return service.NewRoleService(repo), repo
}

func TestSaveGridPersistsExactlyCheckedCells(t *testing.T) {
	svc, repo := newRoleFixture()
	ctx := context.Background()

	grid, err := svc.Grid(ctx)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	grid.Set(1, domain.FeatureTour, domain.ActionEdit, false)
	grid.Set(1, domain.FeatureVoucher, domain.ActionCreate, true)
	grid.Set(2, domain.FeatureOrder, domain.ActionEdit, true)
	grid.Set(2, domain.FeatureOrder, domain.ActionEdit, true)

	if err := svc.SaveGrid(ctx, grid); err != nil {
		t.Fatalf("save grid: %v", err)
	}

	want := map[int64][]string{
		1: {"tour_view", "voucher_create"},
		2: {"order_edit", "order_view"},
	}
	for id, perms := range want {
		r, _ := repo.FindByID(ctx, id)
		if !reflect.DeepEqual(r.Permissions, perms) {
			t.Errorf("role %d permissions = %v, want %v", id, r.Permissions, perms)
		}
	}
}

func TestSavePermissionsFlatList(t *testing.T) {
	svc, repo := newRoleFixture()
	ctx := context.Background()

	err := svc.SavePermissions(ctx, []domain.RolePermissions{
		{ID: 2, Permissions: []string{"user_view", " USER_VIEW ", "order_view"}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	r, _ := repo.FindByID(ctx, 2)
	if !reflect.DeepEqual(r.Permissions, []string{"order_view", "user_view"}) {
		t.Errorf("permissions = %v", r.Permissions)
	}
	if r1, _ := repo.FindByID(ctx, 1); len(r1.Permissions) != 2 {
		t.Errorf("unlisted role changed: %v", r1.Permissions)
	}
}

func TestSavePermissionsRejects(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.RolePermissions
	}{
		{"empty", nil},
		{"unknown permission", []domain.RolePermissions{{ID: 1, Permissions: []string{"rocket_launch"}}}},
		{"missing id", []domain.RolePermissions{{Permissions: []string{"tour_view"}}}},
		{"duplicate role", []domain.RolePermissions{{ID: 1}, {ID: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newRoleFixture()
			err := svc.SavePermissions(context.Background(), tt.items)
			if _, ok := domain.IsValidation(err); !ok {
				t.Fatalf("err = %v, want validation error", err)
			}
			if r, _ := repo.FindByID(context.Background(), 1); len(r.Permissions) != 2 {
				t.Errorf("role changed on rejected save: %v", r.Permissions)
			}
		})
	}
}

func TestSavePermissionsUnknownRole(t *testing.T) {
	svc, _ := newRoleFixture()
	err := svc.SavePermissions(context.Background(), []domain.RolePermissions{{ID: 42, Permissions: []string{"tour_view"}}})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateRoleNormalizesPermissions(t *testing.T) {
	svc, _ := newRoleFixture()
	r, err := svc.Create(context.Background(), &domain.RoleInput{
		Title:       "  Editor ",
		Permissions: []string{"tour_edit", "hotel_edit", "tour_edit"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Title != "Editor" || !reflect.DeepEqual(r.Permissions, []string{"hotel_edit", "tour_edit"}) {
		t.Errorf("role = %+v", r)
	}

	if _, err := svc.Create(context.Background(), &domain.RoleInput{Title: "", Permissions: nil}); err == nil {
		t.Error("empty title accepted")
	}
}
