package models

// StudyRoom is a static room from the catalog.
type StudyRoom struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Topic       string `json:"topic" yaml:"topic"`
	Description string `json:"description" yaml:"description"`
	Capacity    int    `json:"capacity" yaml:"capacity"`
	Members     int    `json:"members" yaml:"members"`
}

// RoomMembership is the persisted set of joined rooms.
type RoomMembership struct {
	Joined []string `json:"joined"`
}

// RoomView is a room annotated for the current learner.
type RoomView struct {
	StudyRoom
	Joined bool `json:"joined"`
}
