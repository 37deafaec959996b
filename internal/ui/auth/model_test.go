package auth

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/civic-dashboard/internal/model"
)

func TestSubmit_Login(t *testing.T) {
	m := New(80, 24)
	m.fb.email = "  asha@city.in "
	m.fb.password = "secret1"

	msg, ok := m.submit()().(LoginMsg)
	if !ok {
		t.Fatal("login form did not emit LoginMsg")
	}
	if msg.Email != "asha@city.in" || msg.Password != "secret1" {
		t.Errorf("msg = %+v", msg)
	}
}

func TestSubmit_RegisterDepartmentOnlyForStaff(t *testing.T) {
	m := New(80, 24)
	m.Switch(ModeRegister)
	m.fb.name = "Asha"
	m.fb.email = "asha@city.in"
	m.fb.password = "secret1"
	m.fb.department = "d1"

	m.fb.role = string(model.RoleUser)
	reg := m.submit()().(RegisterMsg).Registration
	if reg.Department != "" || reg.Role != model.RoleUser {
		t.Errorf("citizen registration = %+v", reg)
	}

	m.fb.role = string(model.RoleDepartment)
	reg = m.submit()().(RegisterMsg).Registration
	if reg.Department != "d1" || reg.Role != model.RoleDepartment {
		t.Errorf("staff registration = %+v", reg)
	}
}

func TestSetError_KeepsEmailClearsPassword(t *testing.T) {
	m := New(80, 24)
	m.fb.email = "asha@city.in"
	m.fb.password = "wrongpw"
	m.submitting = true

	m.SetError("Invalid credentials")
	if m.fb.email != "asha@city.in" || m.fb.password != "" || m.submitting {
		t.Errorf("after error: %+v submitting=%v", *m.fb, m.submitting)
	}
	if m.err != "Invalid credentials" {
		t.Errorf("err = %q", m.err)
	}
}

func TestCtrlRTogglesMode(t *testing.T) {
	m := New(80, 24)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.Mode() != ModeRegister {
		t.Fatalf("mode = %v, want register", m.Mode())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.Mode() != ModeLogin {
		t.Errorf("mode = %v, want login", m.Mode())
	}
}
