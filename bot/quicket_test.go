package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingDriver errors on every navigation, simulating a browser that
// lost its connection. The other operations are never reached.
type failingDriver struct {
	navigates int
}

func (d *failingDriver) Navigate(ctx context.Context, url string) error {
	d.navigates++
	return errors.New("connection reset by peer")
}

func (d *failingDriver) WaitVisible(ctx context.Context, selector string) error {
	return errors.New("connection reset by peer")
}

func (d *failingDriver) Click(ctx context.Context, selector string) error {
	return errors.New("connection reset by peer")
}

func (d *failingDriver) SendKeys(ctx context.Context, selector, text string) error {
	return errors.New("connection reset by peer")
}

func (d *failingDriver) ElementIDs(ctx context.Context, selector string) ([]string, error) {
	return nil, errors.New("connection reset by peer")
}

func (d *failingDriver) AttributeValue(ctx context.Context, selector, name string) (string, bool, error) {
	return "", false, errors.New("connection reset by peer")
}

func (d *failingDriver) Exists(ctx context.Context, selector string) (bool, error) {
	return false, errors.New("connection reset by peer")
}

type fakeRow struct {
	id     string
	value  string
	hidden bool
}

type fakePanel struct {
	headerID string
	rows     []*fakeRow
}

func (p *fakePanel) contentID() string {
	return strings.Replace(p.headerID, headerIDPrefix, contentIDPrefix, 1)
}

// fakeDriver emulates the organiser schedule page: an accordion of
// panels whose date rows carry hide/unhide controls.
type fakeDriver struct {
	panels       []*fakePanel
	cookieBanner bool

	expanded    map[string]bool
	saveClicked bool
	navigations []string
	clicks      []string
}

func newFakeDriver(panels ...*fakePanel) *fakeDriver {
	return &fakeDriver{
		panels:   panels,
		expanded: make(map[string]bool),
	}
}

func (d *fakeDriver) panelByContentID(contentID string) *fakePanel {
	for _, panel := range d.panels {
		if panel.contentID() == contentID {
			return panel
		}
	}
	return nil
}

func (d *fakeDriver) rowByControlID(prefix, controlID string) *fakeRow {
	rowID := strings.Replace(controlID, prefix, dateRowIDPrefix, 1)
	for _, panel := range d.panels {
		for _, row := range panel.rows {
			if row.id == rowID {
				return row
			}
		}
	}
	return nil
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.navigations = append(d.navigations, url)
	return nil
}

func (d *fakeDriver) WaitVisible(ctx context.Context, selector string) error {
	switch {
	case selector == selAccordionHeaders:
		if len(d.panels) == 0 {
			return errors.New("timed out waiting for schedule headers")
		}
		return nil
	case selector == selSaveConfirmation:
		if !d.saveClicked {
			return errors.New("timed out waiting for confirmation")
		}
		return nil
	case strings.HasPrefix(selector, "#"+contentIDPrefix):
		if !d.expanded[strings.TrimPrefix(selector, "#")] {
			return fmt.Errorf("panel %s is not expanded", selector)
		}
		return nil
	default:
		return nil
	}
}

func (d *fakeDriver) Click(ctx context.Context, selector string) error {
	d.clicks = append(d.clicks, selector)
	id := strings.TrimPrefix(selector, "#")
	switch {
	case strings.HasPrefix(id, headerIDPrefix):
		for _, panel := range d.panels {
			if panel.headerID == id {
				d.expanded[panel.contentID()] = true
				return nil
			}
		}
		return fmt.Errorf("no such header %s", id)
	case strings.HasPrefix(id, hideControlPrefix):
		row := d.rowByControlID(hideControlPrefix, id)
		if row == nil {
			return fmt.Errorf("no such control %s", id)
		}
		row.hidden = true
		return nil
	case selector == selSaveButton:
		d.saveClicked = true
		return nil
	default:
		return nil
	}
}

func (d *fakeDriver) SendKeys(ctx context.Context, selector, text string) error {
	return nil
}

func (d *fakeDriver) ElementIDs(ctx context.Context, selector string) ([]string, error) {
	if selector == selAccordionHeaders {
		ids := make([]string, 0, len(d.panels))
		for _, panel := range d.panels {
			ids = append(ids, panel.headerID)
		}
		return ids, nil
	}
	for _, panel := range d.panels {
		rowSelector := fmt.Sprintf(`#%s [id^="%s-"]`, panel.contentID(), dateRowIDPrefix)
		if selector != rowSelector {
			continue
		}
		ids := make([]string, 0, len(panel.rows))
		for _, row := range panel.rows {
			ids = append(ids, row.id)
		}
		return ids, nil
	}
	return nil, nil
}

func (d *fakeDriver) AttributeValue(ctx context.Context, selector, name string) (string, bool, error) {
	id := strings.TrimPrefix(selector, "#")
	for _, panel := range d.panels {
		for _, row := range panel.rows {
			if row.id == id && name == "value" {
				return row.value, true, nil
			}
		}
	}
	return "", false, nil
}

func (d *fakeDriver) Exists(ctx context.Context, selector string) (bool, error) {
	id := strings.TrimPrefix(selector, "#")
	switch {
	case selector == selRejectCookies:
		return d.cookieBanner, nil
	case strings.HasPrefix(id, unhideControlPrefix):
		row := d.rowByControlID(unhideControlPrefix, id)
		return row != nil && row.hidden, nil
	case strings.HasPrefix(id, hideControlPrefix):
		row := d.rowByControlID(hideControlPrefix, id)
		return row != nil && !row.hidden, nil
	default:
		return false, nil
	}
}

// toggleClicks counts clicks on hide controls and the save button, the
// interactions that actually mutate the event.
func (d *fakeDriver) toggleClicks() int {
	count := 0
	for _, click := range d.clicks {
		if strings.HasPrefix(click, "#"+hideControlPrefix) || click == selSaveButton {
			count++
		}
	}
	return count
}

func schedulePage() *fakeDriver {
	return newFakeDriver(
		&fakePanel{
			headerID: "mat-expansion-panel-header-0",
			rows: []*fakeRow{
				{id: "schedule-item-start-date-0", value: "24/12/2025, 09:00:00"},
				{id: "schedule-item-start-date-1", value: "25/12/2025, 09:00:00"},
			},
		},
		&fakePanel{
			headerID: "mat-expansion-panel-header-1",
			rows: []*fakeRow{
				{id: "schedule-item-start-date-2", value: "26/12/2025, 09:00:00"},
			},
		},
	)
}

func newTestBot(t *testing.T, driver Driver) (*QuicketBot, *fakeLauncher, *sleepRecorder) {
	t.Helper()
	launcher := &fakeLauncher{drivers: []Driver{driver}}
	session := NewSession(launcher)
	session.sleep = func(time.Duration) {}
	require.NoError(t, session.Start(context.Background(), 1))

	bot := NewQuicketBot(session, "ops@example.com", "secret")
	pauses := &sleepRecorder{}
	bot.sleep = pauses.Sleep
	return bot, launcher, pauses
}

func targetDay(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestQuicketBot_HideEvent_HidesVisibleDate(t *testing.T) {
	driver := schedulePage()
	bot, _, _ := newTestBot(t, driver)

	err := bot.HideEvent(context.Background(), "312546", targetDay("2025-12-25"), 1)

	require.NoError(t, err)
	assert.True(t, driver.panels[0].rows[1].hidden)
	assert.False(t, driver.panels[0].rows[0].hidden)
	assert.True(t, driver.saveClicked)
	assert.Contains(t, driver.clicks, "#hide-schedule-item-1")
	assert.Contains(t, driver.navigations, "https://www.quicket.co.za/app/#/account/event/312546/details")
}

func TestQuicketBot_HideEvent_FindsDateInLaterPanel(t *testing.T) {
	driver := schedulePage()
	bot, _, _ := newTestBot(t, driver)

	err := bot.HideEvent(context.Background(), "312546", targetDay("2025-12-26"), 1)

	require.NoError(t, err)
	assert.True(t, driver.panels[1].rows[0].hidden)
	// The first panel was opened and searched before moving on.
	assert.Contains(t, driver.clicks, "#mat-expansion-panel-header-0")
}

func TestQuicketBot_HideEvent_AlreadyHiddenIsNoOp(t *testing.T) {
	driver := schedulePage()
	bot, _, _ := newTestBot(t, driver)

	require.NoError(t, bot.HideEvent(context.Background(), "312546", targetDay("2025-12-25"), 1))
	afterFirst := driver.toggleClicks()
	firstSave := driver.saveClicked
	driver.saveClicked = false

	err := bot.HideEvent(context.Background(), "312546", targetDay("2025-12-25"), 1)

	require.NoError(t, err)
	assert.True(t, firstSave)
	// The second run sees the unhide control and changes nothing.
	assert.Equal(t, afterFirst, driver.toggleClicks())
	assert.False(t, driver.saveClicked)
}

func TestQuicketBot_HideEvent_DismissesCookieOverlay(t *testing.T) {
	driver := schedulePage()
	driver.cookieBanner = true
	bot, _, _ := newTestBot(t, driver)

	err := bot.HideEvent(context.Background(), "312546", targetDay("2025-12-25"), 1)

	require.NoError(t, err)
	assert.Contains(t, driver.clicks, selRejectCookies)
}

func TestQuicketBot_HideEvent_DateNotFound(t *testing.T) {
	driver := schedulePage()
	bot, _, _ := newTestBot(t, driver)

	err := bot.HideEvent(context.Background(), "312546", targetDay("2026-01-01"), 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2026-01-01 not found")
	assert.Zero(t, driver.toggleClicks())
}

func TestQuicketBot_HideEvent_RetryBudgetExhausted(t *testing.T) {
	driver := &failingDriver{}
	bot, launcher, pauses := newTestBot(t, driver)

	err := bot.HideEvent(context.Background(), "312546", targetDay("2025-12-25"), 3)

	require.Error(t, err)
	// Three attempts, a restart between each pair, none after the last.
	assert.Equal(t, 3, driver.navigates)
	assert.Equal(t, 2, launcher.stops)
	assert.Equal(t, 3, launcher.launches)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, pauses.pauses)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestQuicketBot_HideEvent_ContinuesWhenRestartFails(t *testing.T) {
	driver := &failingDriver{}
	bot, launcher, pauses := newTestBot(t, driver)
	// Chrome never comes back after the first attempt.
	launcher.failuresRemaining = 100

	err := bot.HideEvent(context.Background(), "312546", targetDay("2025-12-25"), 3)

	require.Error(t, err)
	// Failed relaunches do not cut the budget short: attempts two and
	// three still run and fail for want of a driver.
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Contains(t, err.Error(), "logged_out")
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, pauses.pauses)

	// Only the first attempt had a live driver to talk to.
	assert.Equal(t, 1, driver.navigates)
	assert.Equal(t, 1, launcher.stops)
	// Each restart retries the launch to exhaustion.
	assert.Equal(t, 1+2*DefaultLaunchRetries, launcher.launches)
}

func TestQuicketBot_HideEvent_BackoffGrowsLinearly(t *testing.T) {
	bot, _, pauses := newTestBot(t, &failingDriver{})

	err := bot.HideEvent(context.Background(), "312546", targetDay("2025-12-25"), 4)

	require.Error(t, err)
	assert.Equal(t, []time.Duration{
		2 * time.Second,
		4 * time.Second,
		6 * time.Second,
	}, pauses.pauses)
}

func TestQuicketBot_HideEvent_RecoversAfterRestart(t *testing.T) {
	working := schedulePage()
	launcher := &fakeLauncher{drivers: []Driver{&failingDriver{}, working}}
	session := NewSession(launcher)
	session.sleep = func(time.Duration) {}
	require.NoError(t, session.Start(context.Background(), 1))

	bot := NewQuicketBot(session, "ops@example.com", "secret")
	pauses := &sleepRecorder{}
	bot.sleep = pauses.Sleep

	err := bot.HideEvent(context.Background(), "312546", targetDay("2025-12-25"), 5)

	require.NoError(t, err)
	assert.Equal(t, 2, launcher.launches)
	assert.Equal(t, []time.Duration{2 * time.Second}, pauses.pauses)
	assert.True(t, working.panels[0].rows[1].hidden)
}
