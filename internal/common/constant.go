package common

// CalendarStoreID is the fixed identifier of the single calendar record the
// store manages. The engine is a singleton-record store; there is never more
// than one calendar on disk.
const CalendarStoreID = "current_calendar"

// CalendarFileName is the metadata record file inside the storage root.
const CalendarFileName = "calendar.json"

// MediaDirName is the sub-directory holding per-day media records.
const MediaDirName = "media"

// MaxCalendarSizeMB is the hard cap on the projected serialized size of a
// calendar (metadata plus all embedded media).
const MaxCalendarSizeMB = 2048
