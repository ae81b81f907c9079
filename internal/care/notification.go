package care

import "time"

// NotificationType classifies what triggered a notification.
type NotificationType string

const (
	NotificationMedicationReminder NotificationType = "MEDICATION_REMINDER"
	NotificationSystem             NotificationType = "SYSTEM_NOTIFICATION"
	NotificationEmergency          NotificationType = "EMERGENCY"
	NotificationScheduleUpdate     NotificationType = "SCHEDULE_UPDATE"
)

// NotificationStatus is the delivery state of a notification. Transitions are
// monotonic PENDING -> SENT -> DELIVERED -> READ; FAILED is terminal from any
// state.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "PENDING"
	NotificationSent      NotificationStatus = "SENT"
	NotificationDelivered NotificationStatus = "DELIVERED"
	NotificationRead      NotificationStatus = "READ"
	NotificationFailed    NotificationStatus = "FAILED"
)

// CanTransition reports whether moving from s to next respects the monotonic
// status order.
func (s NotificationStatus) CanTransition(next NotificationStatus) bool {
	if s == NotificationFailed {
		return false
	}
	if next == NotificationFailed {
		return true
	}
	order := map[NotificationStatus]int{
		NotificationPending:   0,
		NotificationSent:      1,
		NotificationDelivered: 2,
		NotificationRead:      3,
	}
	from, ok1 := order[s]
	to, ok2 := order[next]
	return ok1 && ok2 && to > from
}

// ScheduleRef is a denormalized copy of the schedule and medication a
// notification was generated from.
type ScheduleRef struct {
	ID         string `json:"id"`
	Medication struct {
		Name   string `json:"name"`
		Dosage string `json:"dosage"`
	} `json:"medication"`
}

// Notification is created server-side; the client only reads, marks read, or
// deletes.
type Notification struct {
	ID           string             `json:"id"`
	UserID       string             `json:"userId"`
	ScheduleID   string             `json:"scheduleId,omitempty"`
	Type         NotificationType   `json:"type"`
	Title        string             `json:"title"`
	Message      string             `json:"message"`
	Status       NotificationStatus `json:"status"`
	Channels     []string           `json:"channels"`
	ScheduledFor string             `json:"scheduledFor"`
	SentAt       string             `json:"sentAt,omitempty"`
	DeliveredAt  string             `json:"deliveredAt,omitempty"`
	ReadAt       string             `json:"readAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	Schedule     *ScheduleRef       `json:"schedule,omitempty"`
}

// NotificationChannel names a delivery channel for settings.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "EMAIL"
	ChannelPush  NotificationChannel = "PUSH"
	ChannelSMS   NotificationChannel = "SMS"
)

// NotificationSetting is a per-channel delivery preference.
type NotificationSetting struct {
	ID                     string              `json:"id"`
	UserID                 string              `json:"userId"`
	Channel                NotificationChannel `json:"channel"`
	IsEnabled              bool                `json:"isEnabled"`
	PreferredTime          string              `json:"preferredTime,omitempty"`
	Timezone               string              `json:"timezone"`
	QuietHoursStart        string              `json:"quietHoursStart,omitempty"`
	QuietHoursEnd          string              `json:"quietHoursEnd,omitempty"`
	MaxNotificationsPerDay int                 `json:"maxNotificationsPerDay"`
}

// UpdateNotificationSettingsRequest updates one channel's preferences.
type UpdateNotificationSettingsRequest struct {
	Channel                NotificationChannel `json:"channel"`
	IsEnabled              bool                `json:"isEnabled"`
	PreferredTime          *string             `json:"preferredTime,omitempty"`
	Timezone               *string             `json:"timezone,omitempty"`
	QuietHoursStart        *string             `json:"quietHoursStart,omitempty"`
	QuietHoursEnd          *string             `json:"quietHoursEnd,omitempty"`
	MaxNotificationsPerDay *int                `json:"maxNotificationsPerDay,omitempty"`
}

// TestNotificationRequest asks the backend to send a throwaway notification.
type TestNotificationRequest struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Channels []string `json:"channels"`
}

// NotificationStats is an aggregate view over a user's notifications.
type NotificationStats struct {
	Total     int            `json:"total"`
	Sent      int            `json:"sent"`
	Delivered int            `json:"delivered"`
	Read      int            `json:"read"`
	Failed    int            `json:"failed"`
	ByChannel map[string]int `json:"byChannel"`
	ByType    map[string]int `json:"byType"`
}

// DeviceType tags where a push token was issued.
type DeviceType string

const (
	DeviceAndroid DeviceType = "ANDROID"
	DeviceIOS     DeviceType = "IOS"
	DeviceWeb     DeviceType = "WEB"
)

// FCMToken is a registered push-messaging device token.
type FCMToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Token      string     `json:"token"`
	DeviceID   string     `json:"deviceId"`
	DeviceType DeviceType `json:"deviceType"`
	AppVersion string     `json:"appVersion"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// RegisterFCMTokenRequest registers a push token with device metadata.
type RegisterFCMTokenRequest struct {
	Token      string     `json:"token"`
	DeviceID   string     `json:"deviceId"`
	DeviceType DeviceType `json:"deviceType"`
	AppVersion string     `json:"appVersion"`
}
