package reminder

import (
	"errors"
	"log/slog"
	"time"

	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/push"
	"github.com/minikapp/minik/internal/store"
)

// PushSender delivers one payload to one browser subscription.
type PushSender interface {
	Send(sub *model.PushSubscription, payload push.Payload) error
}

// EmailSender delivers one reminder email. A nil or unconfigured sender
// disables the email channel.
type EmailSender interface {
	Configured() bool
	SendReminder(toEmail, title, message string) error
}

// Dispatcher fans one due reminder out to every family member, honoring
// each member's notification settings, and records the result. Nothing
// here returns an error: delivery failures are logged and the tick
// carries on.
type Dispatcher struct {
	logger        *slog.Logger
	pushSender    PushSender
	mail          EmailSender
	pushStore     *store.PushStore
	settings      *store.SettingsStore
	notifications *store.NotificationStore
	users         *store.UserStore
	families      *store.FamilyStore
}

func NewDispatcher(
	logger *slog.Logger,
	pushSender PushSender,
	mail EmailSender,
	pushStore *store.PushStore,
	settings *store.SettingsStore,
	notifications *store.NotificationStore,
	users *store.UserStore,
	families *store.FamilyStore,
) *Dispatcher {
	return &Dispatcher{
		logger:        logger.With("component", "reminder"),
		pushSender:    pushSender,
		mail:          mail,
		pushStore:     pushStore,
		settings:      settings,
		notifications: notifications,
		users:         users,
		families:      families,
	}
}

// Dispatch sends one reminder to the whole family unless the same
// (category, refID, leadTime) was already sent. The dedup row is written
// before delivery so a crash mid-send cannot double-fire on restart.
func (d *Dispatcher) Dispatch(familyID int64, category, refID string, leadTime int, title, message, tag string) {
	sent, err := d.pushStore.WasSent(familyID, category, refID, leadTime)
	if err != nil {
		d.logger.Error("dedup check failed", "family_id", familyID, "ref_id", refID, "error", err)
		return
	}
	if sent {
		return
	}
	if err := d.pushStore.RecordSent(familyID, category, refID, leadTime); err != nil {
		d.logger.Error("record sent failed", "family_id", familyID, "ref_id", refID, "error", err)
		return
	}

	userIDs, err := d.families.ListMemberUserIDs(familyID)
	if err != nil {
		d.logger.Error("list family members failed", "family_id", familyID, "error", err)
		return
	}

	for _, userID := range userIDs {
		d.deliverToUser(userID, familyID, category, title, message, tag)
	}
}

// deliverToUser applies the gating chain for one member: a deliverable
// surface must exist, then the master switch, then the per-channel flag.
// The audit row is written only when at least one channel delivered.
func (d *Dispatcher) deliverToUser(userID, familyID int64, category, title, message, tag string) {
	subs, err := d.pushStore.ListByUser(userID, familyID)
	if err != nil {
		d.logger.Error("list subscriptions failed", "user_id", userID, "error", err)
		return
	}

	emailReady := d.mail != nil && d.mail.Configured()
	if len(subs) == 0 && !emailReady {
		// No deliverable surface. Same as a denied browser permission.
		return
	}

	st, err := d.settings.Get(userID)
	if err != nil {
		d.logger.Error("load settings failed", "user_id", userID, "error", err)
		return
	}
	if !st.NotificationsEnabled {
		return
	}

	delivered := false

	if st.PushEnabled && len(subs) > 0 {
		payload := push.Payload{
			Title:              title,
			Body:               message,
			URL:                "/calendar",
			Tag:                tag,
			RequireInteraction: true,
		}
		for i := range subs {
			if err := d.pushSender.Send(&subs[i], payload); err != nil {
				if errors.Is(err, push.ErrExpired) {
					if err := d.pushStore.DeleteByEndpoint(subs[i].Endpoint); err != nil {
						d.logger.Error("prune expired subscription failed", "error", err)
					}
					continue
				}
				d.logger.Error("push send failed", "user_id", userID, "error", err)
				continue
			}
			delivered = true
		}
	}

	if st.EmailEnabled && emailReady {
		user, err := d.users.GetByID(userID)
		if err != nil || user == nil {
			d.logger.Error("load user failed", "user_id", userID, "error", err)
		} else if err := d.mail.SendReminder(user.Email, title, message); err != nil {
			d.logger.Error("email send failed", "user_id", userID, "error", err)
		} else {
			delivered = true
		}
	}

	if !delivered {
		return
	}
	if err := d.notifications.Insert(userID, title, message, category, time.Now().UTC()); err != nil {
		d.logger.Error("audit insert failed", "user_id", userID, "error", err)
	}
}
