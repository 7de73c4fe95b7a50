package view

import (
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderStatusWritesNothingOnFailure(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.RenderStatus(rr, 400, "pages/missing.html", TemplateData{})
	assert.Error(t, err)
	assert.Empty(t, rr.Body.String())
	assert.Empty(t, rr.Header().Get("Content-Type"))
}

func TestLandingShowsAccount(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, engine.Render(rr, "pages/landing.html", TemplateData{
		Title:   "EVMotion",
		Account: &session.Identity{Role: rbac.RoleAdmin, Name: "Mai"},
		Flash:   &session.Flash{Kind: session.FlashSuccess, Message: "Welcome back"},
	}))
	body := rr.Body.String()
	assert.Contains(t, body, "Signed in as Mai (ADMIN)")
	assert.Contains(t, body, "Welcome back")
	assert.Contains(t, body, `href="/dashboard"`)
}

func TestTemplateDataCan(t *testing.T) {
	assert.False(t, TemplateData{}.Can(string(rbac.ActionOrderVehicle)))
	staff := TemplateData{Account: &session.Identity{Role: rbac.RoleDealerStaff}}
	assert.True(t, staff.Can(string(rbac.ActionOrderVehicle)))
	evm := TemplateData{Account: &session.Identity{Role: rbac.RoleEVMStaff}}
	assert.False(t, evm.Can(string(rbac.ActionCreateContract)))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05/03/2025", FormatDate("2025-03-05"))
	assert.Equal(t, "05/03/2025", FormatDate("2025-03-05T10:30:00Z"))
	assert.Equal(t, "05/03/2025", FormatDate(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatDate("not a date"))
	assert.Equal(t, "", FormatDate(nil))
}

func TestFormatDateTime(t *testing.T) {
	assert.Equal(t, "05/03/2025 14:45", FormatDateTime("2025-03-05T14:45:00"))
	assert.Equal(t, "tomorrow", FormatDateTime("tomorrow"))
	assert.Equal(t, "-", FormatDateTime(""))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$45,000", FormatMoney(45000.0))
	assert.Equal(t, "$1,234.5", FormatMoney("1234.5"))
	assert.Equal(t, "$12", FormatMoney(12))
	assert.Equal(t, "$99,900", FormatMoney(shared.FlexString("99900")))
	assert.Equal(t, "call us", FormatMoney("call us"))
	assert.Equal(t, "", FormatMoney(nil))
}

func TestStatusTone(t *testing.T) {
	assert.Equal(t, "success", statusTone("Paid"))
	assert.Equal(t, "danger", statusTone(" cancelled "))
	assert.Equal(t, "info", statusTone("SCHEDULED"))
	assert.Equal(t, "muted", statusTone("unknown"))
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", orDash(nil))
	assert.Equal(t, "-", orDash("  "))
	assert.Equal(t, "Hanoi", orDash("Hanoi"))
}

func TestNewPagerKeepsQuery(t *testing.T) {
	u, err := url.Parse("/dashboard/car?manufacturer=VinFast&page=2")
	require.NoError(t, err)

	pager := NewPager(shared.NewPagination(2, 10, 35), u)
	assert.Equal(t, "/dashboard/car?manufacturer=VinFast&page=1", pager.PrevURL)
	assert.Equal(t, "/dashboard/car?manufacturer=VinFast&page=3", pager.NextURL)

	last := NewPager(shared.NewPagination(4, 10, 35), u)
	assert.Empty(t, last.NextURL)
	first := NewPager(shared.NewPagination(1, 10, 35), u)
	assert.Empty(t, first.PrevURL)
}
