package cli

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibedoc.ai/mcpcall/internal/application/services"
	"vibedoc.ai/mcpcall/internal/core/domain/call"
)

type fakeSource struct {
	statuses []services.ServiceStatus
	probes   atomic.Int32
}

func (f *fakeSource) Probe(ctx context.Context) []services.ServiceStatus {
	f.probes.Add(1)
	return f.statuses
}

func sampleStatuses() []services.ServiceStatus {
	return []services.ServiceStatus{
		{Key: "deepwiki", Name: "DeepWiki MCP", Online: true, Elapsed: 120 * time.Millisecond},
		{Key: "fetch", Name: "Fetch MCP", ErrorKind: call.KindTimeout, Error: "no result within 30s"},
	}
}

func newTestDashboard(src *fakeSource) dashboardModel {
	return newDashboardModel(context.Background(), src, &DashboardFlags{RefreshRate: time.Second})
}

func update(t *testing.T, m dashboardModel, msg tea.Msg) (dashboardModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	dm, ok := next.(dashboardModel)
	require.True(t, ok)
	return dm, cmd
}

func TestDashboard_ProbeCommandLoadsStatuses(t *testing.T) {
	src := &fakeSource{statuses: sampleStatuses()}
	m := newTestDashboard(src)

	msg := m.probeCmd()()
	loaded, ok := msg.(statusesLoadedMsg)
	require.True(t, ok)
	assert.Equal(t, int32(1), src.probes.Load())

	m, _ = update(t, m, loaded)
	assert.False(t, m.probing)
	assert.Equal(t, 1, m.rounds)

	view := m.View()
	assert.Contains(t, view, "DeepWiki MCP")
	assert.Contains(t, view, "ONLINE")
	assert.Contains(t, view, "OFFLINE")
	assert.Contains(t, view, "TimeoutError")
	assert.Contains(t, view, "Online: 1")
}

func TestDashboard_EmptyViewWhileProbing(t *testing.T) {
	m := newTestDashboard(&fakeSource{})

	view := m.View()

	assert.Contains(t, view, "Probing services")
	assert.Contains(t, view, "PROBING")
	assert.Contains(t, view, "Last Update: never")
}

func TestDashboard_KeyHandling(t *testing.T) {
	src := &fakeSource{statuses: sampleStatuses()}
	m := newTestDashboard(src)
	m, _ = update(t, m, statusesLoadedMsg{statuses: src.statuses, at: time.Now()})

	t.Run("Navigation_ShouldStayInBounds", func(t *testing.T) {
		m, _ := update(t, m, tea.KeyMsg{Type: tea.KeyUp})
		assert.Equal(t, 0, m.selectedRow)
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
		assert.Equal(t, 1, m.selectedRow)
	})

	t.Run("Space_ShouldTogglePause", func(t *testing.T) {
		m, _ := update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		assert.True(t, m.paused)
		assert.Contains(t, m.View(), "PAUSED")
	})

	t.Run("Refresh_ShouldStartOneProbe", func(t *testing.T) {
		m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
		require.NotNil(t, cmd)
		assert.True(t, m.probing)

		_, again := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
		assert.Nil(t, again, "a running probe must not be duplicated")
	})

	t.Run("Quit", func(t *testing.T) {
		_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}

func TestDashboard_TickWhilePausedSkipsProbe(t *testing.T) {
	src := &fakeSource{statuses: sampleStatuses()}
	m := newTestDashboard(src)
	m, _ = update(t, m, statusesLoadedMsg{statuses: src.statuses, at: time.Now()})
	m.paused = true

	m, cmd := update(t, m, tickMsg(time.Now()))

	assert.NotNil(t, cmd)
	assert.False(t, m.probing)
}

func TestDashboard_SelectionClampedWhenListShrinks(t *testing.T) {
	src := &fakeSource{statuses: sampleStatuses()}
	m := newTestDashboard(src)
	m, _ = update(t, m, statusesLoadedMsg{statuses: src.statuses, at: time.Now()})
	m.selectedRow = 1

	m, _ = update(t, m, statusesLoadedMsg{statuses: src.statuses[:1], at: time.Now()})

	assert.Equal(t, 0, m.selectedRow)
}
