package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"tracksub/internal/domain/subscription"
	"tracksub/internal/domain/user"
	"tracksub/internal/shared/middleware"
)

type CalendarHandler struct {
	users  user.Repository
	subs   subscription.Repository
	appURL string
}

func NewCalendarHandler(users user.Repository, subs subscription.Repository, appURL string) *CalendarHandler {
	return &CalendarHandler{users: users, subs: subs, appURL: appURL}
}

type CalendarTokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// HandleToken issues (or rotates) the user's private calendar feed URL.
func (h *CalendarHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if errors.Is(err, user.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error loading user %d: %v", userID, err)
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	if !u.IsPro() {
		http.Error(w, "Calendar export requires the pro plan", http.StatusForbidden)
		return
	}

	token := uuid.NewString()
	if err := h.users.SetCalendarToken(r.Context(), userID, token); err != nil {
		log.Printf("Error storing calendar token for user %d: %v", userID, err)
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, CalendarTokenResponse{
		Token: token,
		URL:   fmt.Sprintf("%s/calendar/%s.ics", h.appURL, token),
	})
}

// HandleFeed serves the iCalendar feed. The route is public and authorized
// solely by the unguessable token in the path.
func (h *CalendarHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := strings.TrimSuffix(r.PathValue("token"), ".ics")
	if token == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	u, err := h.users.GetByCalendarToken(r.Context(), token)
	if errors.Is(err, user.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error resolving calendar token: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	subs, err := h.subs.ListActiveByUserID(r.Context(), u.ID)
	if err != nil {
		log.Printf("Error listing subscriptions for calendar feed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="subscriptions.ics"`)
	w.Write([]byte(buildCalendar(subs, time.Now().UTC())))
}

// buildCalendar renders the feed per RFC 5545: one recurring all-day event
// per active subscription, anchored on its next payment date.
func buildCalendar(subs []*subscription.Subscription, now time.Time) string {
	var b strings.Builder
	writeLine := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}

	writeLine("BEGIN:VCALENDAR")
	writeLine("VERSION:2.0")
	writeLine("PRODID:-//tracksub//subscription calendar//EN")
	writeLine("CALSCALE:GREGORIAN")

	stamp := now.Format("20060102T150405Z")
	for _, sub := range subs {
		freq := "MONTHLY"
		if sub.BillingCycle == subscription.CycleYearly {
			freq = "YEARLY"
		}

		writeLine("BEGIN:VEVENT")
		writeLine(fmt.Sprintf("UID:subscription-%d@tracksub", sub.ID))
		writeLine("DTSTAMP:" + stamp)
		writeLine("DTSTART;VALUE=DATE:" + sub.NextPaymentDate.Format("20060102"))
		writeLine("RRULE:FREQ=" + freq)
		writeLine("SUMMARY:" + escapeICS(fmt.Sprintf("%s (%s)", sub.Name, sub.Amount.StringFixed(2))))
		writeLine("DESCRIPTION:" + escapeICS(fmt.Sprintf("Recurring %s payment for %s", sub.BillingCycle, sub.Name)))
		writeLine("END:VEVENT")
	}

	writeLine("END:VCALENDAR")
	return b.String()
}

func escapeICS(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	return r.Replace(s)
}
