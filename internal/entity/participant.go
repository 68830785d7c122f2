package entity

// Slot is the seat a participant occupies in a session. Slot A belongs to the
// creator, slot B to whoever joins second.
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

func (s Slot) index() int {
	if s == SlotB {
		return 1
	}
	return 0
}

func (s Slot) Valid() bool {
	return s == SlotA || s == SlotB
}

type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slot Slot   `json:"slot"`
	Mark Mark   `json:"mark,omitempty"`
}

// ParticipantView is what other subscribers see; it never carries the id.
type ParticipantView struct {
	Name string `json:"name"`
	Slot Slot   `json:"slot"`
	Mark Mark   `json:"mark,omitempty"`
}

func (that *Participant) View() ParticipantView {
	return ParticipantView{
		Name: that.Name,
		Slot: that.Slot,
		Mark: that.Mark,
	}
}
