package vsm

import "fmt"

// Topics builds the bus topic names for one mirrored container.
type Topics struct {
	container string
}

func NewTopics(container string) *Topics {
	return &Topics{container: container}
}

func (t *Topics) DidChange() string { return fmt.Sprintf("vsm.%s.did_change", t.container) }
func (t *Topics) SetState() string  { return fmt.Sprintf("vsm.%s.set_state", t.container) }
func (t *Topics) GetState() string  { return fmt.Sprintf("vsm.%s.get_state", t.container) }
func (t *Topics) SendState() string { return fmt.Sprintf("vsm.%s.send_state", t.container) }
