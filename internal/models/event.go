package models

import "time"

type EventKind string

const (
	EventOpenSuccess  EventKind = "open_success"
	EventCloseSuccess EventKind = "close_success"
	EventError        EventKind = "error"
	EventStatus       EventKind = "status_update"
	EventStartup      EventKind = "startup"
)

type Field struct {
	Name  string
	Value string
}

// Event уведомление для человека. Image: PNG, опционально.
type Event struct {
	Kind    EventKind
	Title   string
	Message string
	Fields  []Field
	Image   []byte
	At      time.Time
}

func (e Event) With(name, value string) Event {
	e.Fields = append(append([]Field(nil), e.Fields...), Field{Name: name, Value: value})
	return e
}
