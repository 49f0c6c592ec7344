package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	loginURL       = "https://www.quicket.co.za/account/authentication/login.aspx"
	eventURLFormat = "https://www.quicket.co.za/app/#/account/event/%s/details"

	selUsername         = "#BodyContent_BodyContent_UserName"
	selPassword         = "#BodyContent_BodyContent_Password"
	selLoginButton      = "#BodyContent_BodyContent_LoginButton"
	selRejectCookies    = "#onetrust-reject-all-handler"
	selAccordionHeaders = `[id^="mat-expansion-panel-header-"]`
	selSaveButton       = `//button[.//div[text()='SAVE']]`
	selSaveConfirmation = `//*[contains(@class, 'notification-title') and contains(text(), 'Successfully updated')]`

	headerIDPrefix      = "mat-expansion-panel-header"
	contentIDPrefix     = "cdk-accordion-child"
	dateRowIDPrefix     = "schedule-item-start-date"
	hideControlPrefix   = "hide-schedule-item"
	unhideControlPrefix = "unhide-schedule-item"

	// Schedule start dates render as e.g. "25/12/2025, 09:00:00".
	scheduleDateLayout = "02/01/2006, 15:04:05"
)

// DefaultHideRetries is the attempt budget for HideEvent when the caller
// passes a non-positive value.
const DefaultHideRetries = 5

// hideState tracks how far an attempt got before failing, so the
// aggregated error says where things broke.
type hideState int

const (
	stateLoggedOut hideState = iota
	stateLoggingIn
	stateNavigated
	stateHeaderExpanding
	stateDateLocating
	stateToggleApplied
	stateSaved
)

func (s hideState) String() string {
	switch s {
	case stateLoggedOut:
		return "logged_out"
	case stateLoggingIn:
		return "logging_in"
	case stateNavigated:
		return "navigated"
	case stateHeaderExpanding:
		return "expanding_headers"
	case stateDateLocating:
		return "locating_date"
	case stateToggleApplied:
		return "toggle_applied"
	case stateSaved:
		return "saved"
	default:
		return "unknown"
	}
}

// attemptOutcome records one pass through the hide workflow.
type attemptOutcome struct {
	attempt int
	state   hideState
	err     error
}

// QuicketBot drives the Quicket organiser UI to hide individual event
// dates from public listings.
type QuicketBot struct {
	session  *Session
	email    string
	password string
	sleep    func(time.Duration)
}

func NewQuicketBot(session *Session, email, password string) *QuicketBot {
	return &QuicketBot{
		session:  session,
		email:    email,
		password: password,
		sleep:    time.Sleep,
	}
}

// HideEvent hides the schedule entry for targetDate on the given event,
// retrying the whole workflow up to maxRetries times. Between failed
// attempts the browser session is restarted and the bot backs off for
// 2 * attemptNumber seconds; after the final failure it does neither.
// A date that is already hidden counts as success without any UI changes.
func (b *QuicketBot) HideEvent(ctx context.Context, eventID string, targetDate time.Time, maxRetries int) error {
	if maxRetries <= 0 {
		maxRetries = DefaultHideRetries
	}

	var last attemptOutcome
	for attempt := 1; attempt <= maxRetries; attempt++ {
		state, err := b.attemptHide(ctx, eventID, targetDate)
		last = attemptOutcome{attempt: attempt, state: state, err: err}
		if err == nil {
			log.WithFields(log.Fields{
				"event_id": eventID,
				"date":     targetDate.Format("2006-01-02"),
				"attempt":  attempt,
			}).Info("Event date hidden")
			return nil
		}

		log.WithError(err).Warnf("Hide attempt %d/%d failed in state %s", attempt, maxRetries, state)
		if attempt == maxRetries {
			break
		}
		if rerr := b.session.Restart(ctx); rerr != nil {
			// A failed restart is not fatal here; the next attempt will
			// surface it when it cannot get a driver.
			log.WithError(rerr).Errorf("Session restart failed before attempt %d", attempt+1)
		}
		b.sleep(time.Duration(attempt) * 2 * time.Second)
	}

	return fmt.Errorf("failed to hide event %s date %s after %d attempts (last failure in state %s): %w",
		eventID, targetDate.Format("2006-01-02"), maxRetries, last.state, last.err)
}

// attemptHide is one full pass: log in, open the event, find the date
// and apply the hide toggle. It reports the state reached alongside any
// error.
func (b *QuicketBot) attemptHide(ctx context.Context, eventID string, targetDate time.Time) (hideState, error) {
	driver, err := b.session.Driver()
	if err != nil {
		return stateLoggedOut, err
	}

	if err := b.login(ctx, driver); err != nil {
		return stateLoggingIn, err
	}

	eventURL := fmt.Sprintf(eventURLFormat, eventID)
	if err := driver.Navigate(ctx, eventURL); err != nil {
		return stateNavigated, fmt.Errorf("failed to open event page: %w", err)
	}

	return b.hideScheduleDate(ctx, driver, targetDate)
}

func (b *QuicketBot) login(ctx context.Context, driver Driver) error {
	if err := driver.Navigate(ctx, loginURL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := driver.WaitVisible(ctx, selUsername); err != nil {
		return fmt.Errorf("login form did not load: %w", err)
	}
	if err := driver.SendKeys(ctx, selUsername, b.email); err != nil {
		return fmt.Errorf("failed to enter email: %w", err)
	}
	if err := driver.SendKeys(ctx, selPassword, b.password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}

	// The cookie consent overlay only shows on fresh profiles and covers
	// the login button when it does.
	present, err := driver.Exists(ctx, selRejectCookies)
	if err != nil {
		return fmt.Errorf("failed to check for cookie overlay: %w", err)
	}
	if present {
		if err := driver.Click(ctx, selRejectCookies); err != nil {
			return fmt.Errorf("failed to dismiss cookie overlay: %w", err)
		}
	} else {
		log.Debug("No cookie consent overlay, continuing")
	}

	if err := driver.Click(ctx, selLoginButton); err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}
	return nil
}

// hideScheduleDate walks the schedule accordion looking for targetDate.
// Headers are expanded in page order and the first row matching the
// calendar date wins. Finding the row already hidden is success with no
// further UI interaction.
func (b *QuicketBot) hideScheduleDate(ctx context.Context, driver Driver, targetDate time.Time) (hideState, error) {
	state := stateHeaderExpanding
	if err := driver.WaitVisible(ctx, selAccordionHeaders); err != nil {
		return state, fmt.Errorf("schedule headers not found: %w", err)
	}
	headerIDs, err := driver.ElementIDs(ctx, selAccordionHeaders)
	if err != nil {
		return state, fmt.Errorf("failed to list schedule headers: %w", err)
	}

	for _, headerID := range headerIDs {
		if headerID == "" {
			return state, errors.New("schedule header is missing its id attribute")
		}
		if err := driver.Click(ctx, "#"+headerID); err != nil {
			return state, fmt.Errorf("failed to expand header %s: %w", headerID, err)
		}
		contentID := strings.Replace(headerID, headerIDPrefix, contentIDPrefix, 1)
		if err := driver.WaitVisible(ctx, "#"+contentID); err != nil {
			return state, fmt.Errorf("panel %s did not expand: %w", contentID, err)
		}

		state = stateDateLocating
		rowID, found, err := b.locateDateRow(ctx, driver, contentID, targetDate)
		if err != nil {
			return state, err
		}
		if !found {
			state = stateHeaderExpanding
			continue
		}

		state = stateToggleApplied
		toggled, err := b.applyHideToggle(ctx, driver, rowID)
		if err != nil {
			return state, err
		}
		if !toggled {
			log.WithField("row", rowID).Info("Date already hidden, nothing to do")
			return stateSaved, nil
		}
		if err := b.save(ctx, driver); err != nil {
			return state, err
		}
		return stateSaved, nil
	}

	return stateDateLocating, fmt.Errorf("date %s not found in any schedule panel", targetDate.Format("2006-01-02"))
}

// locateDateRow scans the date rows inside one expanded panel for a row
// whose start date falls on targetDate's calendar day.
func (b *QuicketBot) locateDateRow(ctx context.Context, driver Driver, contentID string, targetDate time.Time) (string, bool, error) {
	rowSelector := fmt.Sprintf(`#%s [id^="%s-"]`, contentID, dateRowIDPrefix)
	rowIDs, err := driver.ElementIDs(ctx, rowSelector)
	if err != nil {
		return "", false, fmt.Errorf("failed to list date rows in %s: %w", contentID, err)
	}

	wantY, wantM, wantD := targetDate.Date()
	for _, rowID := range rowIDs {
		value, ok, err := driver.AttributeValue(ctx, "#"+rowID, "value")
		if err != nil {
			return "", false, fmt.Errorf("failed to read date row %s: %w", rowID, err)
		}
		if !ok {
			continue
		}
		rowDate, err := time.Parse(scheduleDateLayout, strings.TrimSpace(value))
		if err != nil {
			return "", false, fmt.Errorf("unparseable schedule date %q on row %s: %w", value, rowID, err)
		}
		y, m, d := rowDate.Date()
		if y == wantY && m == wantM && d == wantD {
			return rowID, true, nil
		}
	}
	return "", false, nil
}

// applyHideToggle clicks the hide control for the row. It returns false
// without clicking anything when the row is already hidden, which the
// unhide control being present signals.
func (b *QuicketBot) applyHideToggle(ctx context.Context, driver Driver, rowID string) (bool, error) {
	unhideID := strings.Replace(rowID, dateRowIDPrefix, unhideControlPrefix, 1)
	hidden, err := driver.Exists(ctx, "#"+unhideID)
	if err != nil {
		return false, fmt.Errorf("failed to check hidden state of %s: %w", rowID, err)
	}
	if hidden {
		return false, nil
	}

	hideID := strings.Replace(rowID, dateRowIDPrefix, hideControlPrefix, 1)
	present, err := driver.Exists(ctx, "#"+hideID)
	if err != nil {
		return false, fmt.Errorf("failed to find hide control for %s: %w", rowID, err)
	}
	if !present {
		return false, fmt.Errorf("no hide or unhide control found for row %s", rowID)
	}
	if err := driver.Click(ctx, "#"+hideID); err != nil {
		return false, fmt.Errorf("failed to click hide control %s: %w", hideID, err)
	}
	return true, nil
}

func (b *QuicketBot) save(ctx context.Context, driver Driver) error {
	if err := driver.Click(ctx, selSaveButton); err != nil {
		return fmt.Errorf("failed to click save: %w", err)
	}
	if err := driver.WaitVisible(ctx, selSaveConfirmation); err != nil {
		return fmt.Errorf("save confirmation did not appear: %w", err)
	}
	return nil
}
