package models

type Platform string

const (
	PlatformAirbnb  Platform = "airbnb"
	PlatformBooking Platform = "booking"
	PlatformVRBO    Platform = "vrbo"
	PlatformDirect  Platform = "direct"
	PlatformOther   Platform = "other"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformAirbnb, PlatformBooking, PlatformVRBO, PlatformDirect, PlatformOther:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusPending, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

type BookingSource string

const (
	BookingSourceManual BookingSource = "manual"
	BookingSourceICS    BookingSource = "ics"
)

type CleaningStatus string

const (
	CleaningStatusScheduled  CleaningStatus = "scheduled"
	CleaningStatusInProgress CleaningStatus = "in_progress"
	CleaningStatusCompleted  CleaningStatus = "completed"
	CleaningStatusCancelled  CleaningStatus = "cancelled"
)

func (s CleaningStatus) Valid() bool {
	switch s {
	case CleaningStatusScheduled, CleaningStatusInProgress, CleaningStatusCompleted, CleaningStatusCancelled:
		return true
	}
	return false
}

type EmailStatus string

const (
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
)

type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusFailed  SyncStatus = "failed"
)
