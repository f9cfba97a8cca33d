package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/http/response"
	"github.com/go-chi/chi/v5"
)

// Admin auth

func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	h.setCookie(w, h.accountCookie(), token)
	response.OK(w, "Logged in", response.M{"token": token})
}

func (h *Handlers) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context(), currentAccount(r).ID); err != nil {
		response.FromError(w, r, err)
		return
	}
	h.clearCookie(w, h.accountCookie())
	response.OK(w, "Logged out", nil)
}

func (h *Handlers) AdminMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.accounts.Me(r.Context(), currentAccount(r).ID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"account": profile.Account, "role": profile.Role, "permissions": profile.Permissions})
}

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"stats": stats})
}

// Users

func (h *Handlers) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	q := r.URL.Query()
	items, total, err := h.auth.ListUsers(r.Context(), domain.ListFilter{
		Keyword: strings.TrimSpace(q.Get("keyword")),
		Status:  q.Get("status"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	list(w, items, total, limit, offset)
}

func (h *Handlers) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	user, err := h.auth.GetUser(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"user": user})
}

func (h *Handlers) AdminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.auth.SetUserStatus(r.Context(), id, in.Status); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "User updated", nil)
}

func (h *Handlers) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.auth.DeleteUser(r.Context(), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "User deleted", nil)
}

// Accounts

func (h *Handlers) AdminListAccounts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	q := r.URL.Query()
	items, total, err := h.accounts.List(r.Context(), domain.ListFilter{
		Keyword: strings.TrimSpace(q.Get("keyword")),
		Status:  q.Get("status"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	list(w, items, total, limit, offset)
}

func (h *Handlers) AdminGetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	acc, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"account": acc})
}

func (h *Handlers) AdminCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in domain.AccountInput
	if !decodeJSON(w, r, &in) {
		return
	}
	acc, err := h.accounts.Create(r.Context(), &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Account created", response.M{"account": acc})
}

func (h *Handlers) AdminUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.AccountInput
	if !decodeJSON(w, r, &in) {
		return
	}
	acc, err := h.accounts.Update(r.Context(), id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Account updated", response.M{"account": acc})
}

func (h *Handlers) AdminDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if id == currentAccount(r).ID {
		response.BadRequest(w, "You cannot delete your own account")
		return
	}
	if err := h.accounts.Delete(r.Context(), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Account deleted", nil)
}

// Vouchers

func (h *Handlers) VoucherPreview(w http.ResponseWriter, r *http.Request) {
	v, err := h.vouchers.Preview(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"voucher": v})
}

func (h *Handlers) AdminListVouchers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, total, err := h.vouchers.List(r.Context(), limit, offset)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	list(w, items, total, limit, offset)
}

func (h *Handlers) AdminGetVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	v, err := h.vouchers.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"voucher": v})
}

func (h *Handlers) AdminCreateVoucher(w http.ResponseWriter, r *http.Request) {
	var in domain.VoucherInput
	if !decodeJSON(w, r, &in) {
		return
	}
	v, err := h.vouchers.Create(r.Context(), &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Voucher created", response.M{"voucher": v})
}

func (h *Handlers) AdminUpdateVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.VoucherInput
	if !decodeJSON(w, r, &in) {
		return
	}
	v, err := h.vouchers.Update(r.Context(), id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Voucher updated", response.M{"voucher": v})
}

func (h *Handlers) AdminDeleteVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.vouchers.Delete(r.Context(), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Voucher deleted", nil)
}

// Roles

func (h *Handlers) AdminListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"items": roles, "total": len(roles)})
}

func (h *Handlers) AdminGetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	role, err := h.roles.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"role": role})
}

func (h *Handlers) AdminCreateRole(w http.ResponseWriter, r *http.Request) {
	var in domain.RoleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	role, err := h.roles.Create(r.Context(), &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Role created", response.M{"role": role})
}

func (h *Handlers) AdminUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.RoleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	role, err := h.roles.Update(r.Context(), id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Role updated", response.M{"role": role})
}

func (h *Handlers) AdminDeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.roles.Delete(r.Context(), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Role deleted", nil)
}

func (h *Handlers) AdminPermissionGrid(w http.ResponseWriter, r *http.Request) {
	grid, err := h.roles.Grid(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"grid": grid})
}

// AdminSavePermissions accepts either a flat [{id, permissions}] list or the
// grid returned by AdminPermissionGrid.
func (h *Handlers) AdminSavePermissions(w http.ResponseWriter, r *http.Request) {
	var body permissionsBody
	if !decodeJSON(w, r, &body) {
		return
	}

	var err error
	switch {
	case body.Grid != nil:
		err = h.roles.SaveGrid(r.Context(), body.Grid)
	case body.Items != nil:
		err = h.roles.SavePermissions(r.Context(), body.Items)
	default:
		response.BadRequest(w, "Expected a permission list or grid")
		return
	}
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Permissions updated", nil)
}

type permissionsBody struct {
	Items []domain.RolePermissions
	Grid  *domain.PermissionGrid
}

func (b *permissionsBody) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		b.Items = []domain.RolePermissions{}
		return json.Unmarshal(data, &b.Items)
	}

	var obj struct {
		Items []domain.RolePermissions `json:"items"`
		Grid  *domain.PermissionGrid   `json:"grid"`
		Roles []domain.GridRole        `json:"roles"`
		Rows  []domain.GridRow         `json:"rows"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	switch {
	case obj.Grid != nil:
		b.Grid = obj.Grid
	case obj.Rows != nil:
		b.Grid = &domain.PermissionGrid{Roles: obj.Roles, Rows: obj.Rows}
	default:
		b.Items = obj.Items
	}
	return nil
}
